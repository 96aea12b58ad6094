package config

import (
	"errors"
	"fmt"
)

// Verify validates a loaded configuration.
func Verify(c *ServerConfig) error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("server.tls_cert_file and server.tls_key_file must be set together")
	}
	if c.Server.TLSAddr != "" && c.Server.TLSCertFile == "" {
		return errors.New("server.tls_addr requires server.tls_cert_file and server.tls_key_file")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative: %d", c.Server.RateLimit)
	}

	for name, v := range map[string]int{
		"limits.hash_max_listpack_entries": c.Limits.HashMaxListpackEntries,
		"limits.hash_max_listpack_value":   c.Limits.HashMaxListpackValue,
		"limits.zset_max_listpack_entries": c.Limits.ZSetMaxListpackEntries,
		"limits.zset_max_listpack_value":   c.Limits.ZSetMaxListpackValue,
		"limits.set_max_intset_entries":    c.Limits.SetMaxIntsetEntries,
		"limits.set_max_listpack_entries":  c.Limits.SetMaxListpackEntries,
		"limits.set_max_listpack_value":    c.Limits.SetMaxListpackValue,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative: %d", name, v)
		}
	}

	if c.Limits.ProtoMaxBulkLen <= 0 {
		return fmt.Errorf("limits.proto_max_bulk_len must be positive: %d", c.Limits.ProtoMaxBulkLen)
	}
	if c.Limits.ProtoInlineMaxSize <= 0 {
		return fmt.Errorf("limits.proto_inline_max_size must be positive: %d", c.Limits.ProtoInlineMaxSize)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level is invalid: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format is invalid: %q", c.Log.Format)
	}
	return nil
}
