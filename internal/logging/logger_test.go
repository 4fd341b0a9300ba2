package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"Trace", LevelTrace},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", &buf)

	log.Debug("hidden")
	log.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("info message should appear at info level")
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("trace", &buf)

	log.Log(nil, LevelTrace, "step detail")

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("trace output missing TRACE label: %s", buf.String())
	}
}

func TestNewEventLogger_InfoLevelReturnsNil(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "info")
	if el != nil {
		t.Fatal("expected nil event logger at info level")
	}

	// Nil receiver must be safe.
	el.Log("consensus-locked", map[string]any{"evo": 100})
	el.Close()
}

func TestEventLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected event logger at debug level")
	}
	defer el.Close()

	el.Log("checkpoint", map[string]any{"evo": 200, "cid": "abc"})
	el.Log("consensus-locked", map[string]any{"evo": 300})
	el.Close()

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to open events file: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSONL line: %v", err)
		}
		lines = append(lines, entry)
	}

	if len(lines) != 2 {
		t.Fatalf("got %d events, want 2", len(lines))
	}
	if lines[0]["event"] != "checkpoint" {
		t.Errorf("event = %v, want checkpoint", lines[0]["event"])
	}
	if lines[0]["time"] == nil {
		t.Error("event missing time field")
	}
	if lines[1]["event"] != "consensus-locked" {
		t.Errorf("event = %v, want consensus-locked", lines[1]["event"])
	}
}

func TestEventLogger_DoesNotMutateCallerMap(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "debug")
	if el == nil {
		t.Fatal("expected event logger")
	}
	defer el.Close()

	fields := map[string]any{"evo": 1}
	el.Log("checkpoint", fields)

	if _, ok := fields["time"]; ok {
		t.Error("caller map was mutated with time field")
	}
	if _, ok := fields["event"]; ok {
		t.Error("caller map was mutated with event field")
	}
}
