package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := New(LogConfig{Level: "info", Format: "json", Output: buf})
	logger.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestNewTextFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := New(LogConfig{Level: "info", Format: "text", Output: buf})
	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("output = %q, want text format", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := New(LogConfig{Level: "warn", Format: "json", Output: buf})

	logger.Debug("debug msg")
	logger.Info("info msg")
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want nothing below warn", buf.String())
	}

	logger.Warn("warn msg")
	if buf.Len() == 0 {
		t.Fatal("warn message was filtered out")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{" ERROR ", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDefaultFormatNonTerminal(t *testing.T) {
	// A bytes.Buffer has no file descriptor, so the default is json.
	if got := DefaultFormat(new(bytes.Buffer)); got != "json" {
		t.Fatalf("DefaultFormat = %q, want json", got)
	}
}
