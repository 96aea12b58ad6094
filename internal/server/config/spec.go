package config

import "time"

// ServerConfig is the root configuration for bradis-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Limits LimitsSection `koanf:"limits"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures the network endpoints.
type ServerSection struct {
	// Addr is the RESP listen address.
	Addr string `koanf:"addr"`

	// HTTPAddr serves /metrics and /healthz. Empty disables it.
	HTTPAddr string `koanf:"http_addr"`

	// TLSAddr enables an additional TLS RESP port when both cert and key
	// are set.
	TLSAddr     string `koanf:"tls_addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per client IP.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// LimitsSection seeds the runtime-tunable parameters.
type LimitsSection struct {
	HashMaxListpackEntries int   `koanf:"hash_max_listpack_entries"`
	HashMaxListpackValue   int   `koanf:"hash_max_listpack_value"`
	ZSetMaxListpackEntries int   `koanf:"zset_max_listpack_entries"`
	ZSetMaxListpackValue   int   `koanf:"zset_max_listpack_value"`
	SetMaxIntsetEntries    int   `koanf:"set_max_intset_entries"`
	SetMaxListpackEntries  int   `koanf:"set_max_listpack_entries"`
	SetMaxListpackValue    int   `koanf:"set_max_listpack_value"`
	ListMaxListpackSize    int64 `koanf:"list_max_listpack_size"`
	ProtoMaxBulkLen        int64 `koanf:"proto_max_bulk_len"`
	ProtoInlineMaxSize     int64 `koanf:"proto_inline_max_size"`
	LazyExpire             bool  `koanf:"lazyfree_lazy_expire"`
	LazyUserDel            bool  `koanf:"lazyfree_lazy_user_del"`
	LazyUserFlush          bool  `koanf:"lazyfree_lazy_user_flush"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
