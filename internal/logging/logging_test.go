package logging

import (
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
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "component", "test")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=test") {
		t.Errorf("warn record missing: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes written to a non-terminal: %q", out)
	}
}

func TestNew_FileHandler(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(Options{Level: "info", Console: &buf, File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.With("item", "abc").Info("download finished")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if rec["msg"] != "download finished" || rec["item"] != "abc" {
		t.Errorf("unexpected record %v", rec)
	}
	if !strings.Contains(buf.String(), "download finished") {
		t.Error("console did not receive the record")
	}
}

func TestProgressSampler(t *testing.T) {
	s := NewProgressSampler(10)

	steps := []struct {
		percent float64
		phase   string
		want    bool
	}{
		{0, "downloading", true},
		{3, "downloading", false},
		{9.9, "downloading", false},
		{10, "downloading", true},
		{15, "downloading", false},
		{100, "downloading", true},
		{100, "postprocessing", true},
		{100, "postprocessing", false},
	}
	for i, st := range steps {
		if got := s.ShouldLog(st.percent, st.phase); got != st.want {
			t.Errorf("step %d ShouldLog(%v, %q) = %v, want %v", i, st.percent, st.phase, got, st.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(0, "downloading") {
		t.Error("sampler should emit after Reset")
	}

	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, "") {
		t.Error("nil sampler should always log")
	}
}
