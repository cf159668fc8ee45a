package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ytget/yt-queue/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Concurrency != DefaultConcurrency {
		t.Errorf("Expected default concurrency %d, got %d", DefaultConcurrency, s.Concurrency)
	}
	if s.SaveFolder == "" {
		t.Error("Save folder should not be empty")
	}
	if s.Quality != model.QualityBest {
		t.Errorf("Expected default quality best, got %s", s.Quality)
	}
	if !s.CleanupOnCancel {
		t.Error("cleanup on cancel should default to true")
	}
}

func TestClampConcurrency(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultConcurrency},
		{-3, 1},
		{1, 1},
		{5, 5},
		{10, 10},
		{15, 10},
	}

	for _, tt := range tests {
		if got := ClampConcurrency(tt.in); got != tt.want {
			t.Errorf("ClampConcurrency(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSettings(t *testing.T) {
	s := NormalizeSettings(model.Settings{
		Concurrency: 42,
		Quality:     "720",
		Container:   "FLV",
		Theme:       "neon",
		Proxy:       "  socks5://127.0.0.1:1080 ",
	})

	if s.Concurrency != MaxConcurrency {
		t.Errorf("Expected concurrency clamped to %d, got %d", MaxConcurrency, s.Concurrency)
	}
	if s.Quality != model.Quality720 {
		t.Errorf("Expected quality 720p, got %s", s.Quality)
	}
	if s.Container != model.ContainerMP4 {
		t.Errorf("Expected container mp4, got %s", s.Container)
	}
	if s.Theme != model.ThemeSystem {
		t.Errorf("Expected theme system, got %s", s.Theme)
	}
	if s.Proxy != "socks5://127.0.0.1:1080" {
		t.Errorf("Proxy not trimmed: %q", s.Proxy)
	}
	if s.WindowSize[0] <= 0 || s.SaveFolder == "" {
		t.Errorf("defaults not filled: %+v", s)
	}
}

func TestEnsureOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureOutputDir(dir); err != nil {
		t.Fatalf("EnsureOutputDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory was not created: %v", err)
	}

	if err := EnsureOutputDir(""); !errors.Is(err, ErrOutputDirNotWritable) {
		t.Errorf("expected ErrOutputDirNotWritable for empty path, got %v", err)
	}
}

func TestEnsureOutputDir_ReadOnly(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	if err := EnsureOutputDir(dir); !errors.Is(err, ErrOutputDirNotWritable) {
		t.Errorf("expected ErrOutputDirNotWritable, got %v", err)
	}
}
