package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "debug").With(String("comp", "test"))
	log.Warn("duplicate id", String("id", "a"), Int("n", 3), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["level"] != "warn" {
		t.Fatalf("level = %v, want warn", rec["level"])
	}
	if rec["message"] != "duplicate id" {
		t.Fatalf("message = %v", rec["message"])
	}
	if rec["comp"] != "test" || rec["id"] != "a" {
		t.Fatalf("missing fields: %v", rec)
	}
	if rec["err"] != "boom" {
		t.Fatalf("err = %v, want boom", rec["err"])
	}
	if _, ok := rec[zerolog.CallerFieldName]; !ok {
		t.Fatalf("expected caller field")
	}
}

func TestJSONLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	if !log.Enabled(LevelError) || log.Enabled(LevelDebug) {
		t.Fatalf("unexpected Enabled results")
	}
}

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, "debug").Trace("hidden")
	if buf.Len() != 0 {
		t.Fatalf("trace should be filtered at debug level, got %q", buf.String())
	}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	NewJSON(&buf, "trace").Trace("shown", Int64("n", 1<<40), Time("at", at))
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["level"] != "trace" || rec["n"] != float64(1<<40) || rec["at"] == nil {
		t.Fatalf("trace record = %v", rec)
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	var log Logger
	if !log.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	log.Error("ignored")
	if Nop().IsZero() {
		t.Fatal("Nop logger should not be zero")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	if got := Stamp(ts); got != "2024-03-09 07:05:01" {
		t.Fatalf("Stamp = %q", got)
	}
}
