package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Andrey-Khohlov/rollermap/internal/pkg/logging"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("tracks aggregated", "files", 2)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", out, err)
	}
	if rec["msg"] != "tracks aggregated" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logging.New(&buf, "debug", "text").Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}
