package storage

import "github.com/braddunbar/bradis/internal/storage/value"

// Limits are the runtime-tunable parameters driving encoding promotion and
// lazy freeing. They are owned by the executor; CONFIG SET mutates them and
// every other component asks the store.
type Limits struct {
	HashMaxListpackEntries int
	HashMaxListpackValue   int
	ZSetMaxListpackEntries int
	ZSetMaxListpackValue   int
	SetMaxIntsetEntries    int
	SetMaxListpackEntries  int
	SetMaxListpackValue    int
	ListMaxListpackSize    int64
	LazyExpire             bool
	LazyUserDel            bool
	LazyUserFlush          bool
}

// SetLimits replaces the runtime parameters. Call on the executor
// goroutine, via Apply.
func (s *Store) SetLimits(l Limits) {
	s.limits = l
}

// DefaultLimits returns the stock parameter values.
func DefaultLimits() Limits {
	return Limits{
		HashMaxListpackEntries: 512,
		HashMaxListpackValue:   64,
		ZSetMaxListpackEntries: 128,
		ZSetMaxListpackValue:   64,
		SetMaxIntsetEntries:    512,
		SetMaxListpackEntries:  128,
		SetMaxListpackValue:    64,
		ListMaxListpackSize:    -2,
	}
}

func (l *Limits) hashConfig() value.HashConfig {
	return value.HashConfig{
		MaxListpackEntries: l.HashMaxListpackEntries,
		MaxListpackValue:   l.HashMaxListpackValue,
	}
}

func (l *Limits) setConfig() value.SetConfig {
	return value.SetConfig{
		MaxIntsetEntries:   l.SetMaxIntsetEntries,
		MaxListpackEntries: l.SetMaxListpackEntries,
		MaxListpackValue:   l.SetMaxListpackValue,
	}
}

func (l *Limits) zsetConfig() value.ZSetConfig {
	return value.ZSetConfig{
		MaxListpackEntries: l.ZSetMaxListpackEntries,
		MaxListpackValue:   l.ZSetMaxListpackValue,
	}
}
