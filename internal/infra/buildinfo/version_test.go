package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
}

func TestString(t *testing.T) {
	s := String()

	if s == "" {
		t.Error("String() should not return empty")
	}
	if !strings.Contains(s, "built at") {
		t.Errorf("String() = %q, expected 'built at'", s)
	}
	if !strings.HasPrefix(s, Version()) {
		t.Errorf("String() = %q, expected version prefix %q", s, Version())
	}
}
