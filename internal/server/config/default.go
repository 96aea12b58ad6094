package config

import (
	"time"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage"
)

// Default returns the stock configuration.
func Default() *ServerConfig {
	limits := storage.DefaultLimits()
	return &ServerConfig{
		Server: ServerSection{
			Addr:         "127.0.0.1:6379",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  5 * time.Minute,
		},
		Limits: LimitsSection{
			HashMaxListpackEntries: limits.HashMaxListpackEntries,
			HashMaxListpackValue:   limits.HashMaxListpackValue,
			ZSetMaxListpackEntries: limits.ZSetMaxListpackEntries,
			ZSetMaxListpackValue:   limits.ZSetMaxListpackValue,
			SetMaxIntsetEntries:    limits.SetMaxIntsetEntries,
			SetMaxListpackEntries:  limits.SetMaxListpackEntries,
			SetMaxListpackValue:    limits.SetMaxListpackValue,
			ListMaxListpackSize:    limits.ListMaxListpackSize,
			ProtoMaxBulkLen:        resp.DefaultBlobLimit,
			ProtoInlineMaxSize:     resp.DefaultInlineLimit,
		},
		Log: LogSection{
			Level:  "info",
			Format: "json",
		},
	}
}

// StoreLimits converts the limits section into the store's parameter set.
func (c *ServerConfig) StoreLimits() storage.Limits {
	return storage.Limits{
		HashMaxListpackEntries: c.Limits.HashMaxListpackEntries,
		HashMaxListpackValue:   c.Limits.HashMaxListpackValue,
		ZSetMaxListpackEntries: c.Limits.ZSetMaxListpackEntries,
		ZSetMaxListpackValue:   c.Limits.ZSetMaxListpackValue,
		SetMaxIntsetEntries:    c.Limits.SetMaxIntsetEntries,
		SetMaxListpackEntries:  c.Limits.SetMaxListpackEntries,
		SetMaxListpackValue:    c.Limits.SetMaxListpackValue,
		ListMaxListpackSize:    c.Limits.ListMaxListpackSize,
		LazyExpire:             c.Limits.LazyExpire,
		LazyUserDel:            c.Limits.LazyUserDel,
		LazyUserFlush:          c.Limits.LazyUserFlush,
	}
}
