package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json")
	log.Info().Str("component", "engine").Msg("attempt started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "attempt started" || entry["component"] != "engine" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected timestamp in %v", entry)
	}
}

func TestNewPrettyIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "pretty")
	log.Warn().Msg("using default session config")
	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "using default session config") {
		t.Fatalf("unexpected pretty output %q", out)
	}
}
