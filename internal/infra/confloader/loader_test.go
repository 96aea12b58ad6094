package confloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/braddunbar/bradis/internal/server/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bradis.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Default()
	if err := NewLoader().Load(cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:6379" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  addr: "0.0.0.0:7000"
limits:
  zset_max_listpack_entries: 4
log:
  level: debug
`)

	cfg := config.Default()
	if err := NewLoader(WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:7000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Limits.ZSetMaxListpackEntries != 4 {
		t.Errorf("zset entries = %d", cfg.Limits.ZSetMaxListpackEntries)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	// Untouched values keep their defaults.
	if cfg.Limits.HashMaxListpackEntries != 512 {
		t.Errorf("hash entries = %d", cfg.Limits.HashMaxListpackEntries)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: "0.0.0.0:7000"
`)
	t.Setenv("BRADIS_SERVER_ADDR", "127.0.0.1:7001")
	t.Setenv("BRADIS_LOG_LEVEL", "warn")

	cfg := config.Default()
	if err := NewLoader(WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7001" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvUnderscoreKeys(t *testing.T) {
	t.Setenv("BRADIS_LIMITS_PROTO_MAX_BULK_LEN", "1048576")

	cfg := config.Default()
	if err := NewLoader().Load(cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.ProtoMaxBulkLen != 1048576 {
		t.Errorf("bulk len = %d", cfg.Limits.ProtoMaxBulkLen)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := config.Default()
	err := NewLoader(WithConfigFile("/does/not/exist.yaml")).Load(cfg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
