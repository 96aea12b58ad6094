package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "BRADIS_"

// Loader loads configuration from a file and the environment.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures the Loader.
type Option func(*Loader)

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges all sources into target. Later sources override earlier:
//
//  1. target's current values (the defaults)
//  2. the YAML configuration file, if one was given
//  3. BRADIS_ environment variables
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if err := l.loadEnv(); err != nil {
		return err
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// loadEnv maps BRADIS_SERVER_ADDR to server.addr. Underscores after the
// section name stay underscores, so BRADIS_LIMITS_PROTO_MAX_BULK_LEN maps
// to limits.proto_max_bulk_len.
func (l *Loader) loadEnv() error {
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		// The first underscore separates the section from the key.
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "." + parts[1]
		}
		return s
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Get returns a raw value by dotted key, mostly for tests.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}
