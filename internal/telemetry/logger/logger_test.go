package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("skipped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %q", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	SetLevel("error")
	if Level() != "error" {
		t.Fatalf("Level() = %q", Level())
	}
	log.Info("skipped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered after SetLevel(error)")
	}

	SetLevel("debug")
	if Level() != "debug" {
		t.Fatalf("Level() = %q", Level())
	}
	log.Debug("kept")
	if buf.Len() == 0 {
		t.Error("debug should pass after SetLevel(debug)")
	}
}
