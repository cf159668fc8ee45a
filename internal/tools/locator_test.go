package tools

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ytget/yt-queue/internal/logging"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
}

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestLocator_ResolveFromPath(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	writeStub(t, binDir, Downloader, `echo "2025.01.15"`)
	writeStub(t, binDir, Converter, `echo "ffmpeg version 7.0.1-static https://johnvansickle.com/ffmpeg/"`)
	t.Setenv("PATH", binDir)

	l := New(Options{Logger: logging.Discard()})

	st := l.Resolve(Downloader)
	if !st.Available || st.Source != SourcePath {
		t.Fatalf("Resolve(yt-dlp) = %+v", st)
	}
	if st.Version != "2025.01.15" {
		t.Errorf("Version = %q", st.Version)
	}
	if st.Optional {
		t.Error("downloader must not be optional")
	}

	conv := l.Resolve(Converter)
	if !conv.Available || conv.Version != "7.0.1-static" {
		t.Errorf("Resolve(ffmpeg) = %+v", conv)
	}
	if l.ConverterPath() != filepath.Join(binDir, Converter) {
		t.Errorf("ConverterPath() = %q", l.ConverterPath())
	}
	if !l.Available() {
		t.Error("Available() should be true")
	}
}

func TestLocator_OverrideWins(t *testing.T) {
	skipOnWindows(t)
	pathDir := t.TempDir()
	writeStub(t, pathDir, Downloader, `echo path`)
	t.Setenv("PATH", pathDir)

	override := writeStub(t, t.TempDir(), "custom-ytdlp", `echo override`)
	l := New(Options{DownloaderOverride: override, Logger: logging.Discard()})

	st := l.Resolve(Downloader)
	if st.Command != override || st.Source != SourceOverride || st.Version != "override" {
		t.Errorf("Resolve() = %+v", st)
	}
}

func TestLocator_LocalInstallDir(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("PATH", t.TempDir())
	installDir := t.TempDir()
	local := writeStub(t, installDir, Downloader, `echo local`)

	l := New(Options{InstallDir: installDir, Logger: logging.Discard()})
	path, err := l.DownloaderPath()
	if err != nil {
		t.Fatalf("DownloaderPath() error = %v", err)
	}
	if path != local {
		t.Errorf("DownloaderPath() = %q, want %q", path, local)
	}
	if got := l.Resolve(Downloader).Source; got != SourceLocal {
		t.Errorf("Source = %s", got)
	}
}

func TestLocator_Missing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	l := New(Options{InstallDir: t.TempDir(), Logger: logging.Discard()})

	if l.Available() {
		t.Fatal("Available() should be false")
	}
	_, err := l.DownloaderPath()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("DownloaderPath() error = %v, want ErrUnavailable", err)
	}
	st := l.Resolve(Converter)
	if st.Available || st.Detail == "" || st.Source != SourceMissing {
		t.Errorf("Resolve(ffmpeg) = %+v", st)
	}
	if l.ConverterPath() != "" {
		t.Error("ConverterPath() should be empty")
	}
}

func TestLocator_NonExecutableIsIgnored(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, Downloader), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", t.TempDir())

	l := New(Options{InstallDir: binDir, Logger: logging.Discard()})
	if l.Available() {
		t.Error("non-executable file should not count")
	}
}

func TestLocator_CacheAndRefresh(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	stub := writeStub(t, binDir, Downloader, `echo 1`)
	t.Setenv("PATH", binDir)

	l := New(Options{Logger: logging.Discard()})
	if !l.Resolve(Downloader).Available {
		t.Fatal("expected available")
	}

	if err := os.Remove(stub); err != nil {
		t.Fatal(err)
	}
	if !l.Resolve(Downloader).Available || !l.Available() {
		t.Error("cached status should still report available")
	}

	l.Refresh()
	if l.Available() {
		t.Error("Available() after Refresh() should be false")
	}
}

func TestLocator_Status(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	l := New(Options{Logger: logging.Discard()})

	statuses := l.Status()
	if len(statuses) != 2 || statuses[0].Name != Downloader || statuses[1].Name != Converter {
		t.Fatalf("Status() = %+v", statuses)
	}
	if !statuses[1].Optional {
		t.Error("converter should be optional")
	}
}

func TestLocator_PathLookupSkipsVersionCheck(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	stub := writeStub(t, binDir, Downloader, `sleep 5; echo 1`)
	t.Setenv("PATH", binDir)

	l := New(Options{Logger: logging.Discard()})
	start := time.Now()
	path, err := l.DownloaderPath()
	if err != nil {
		t.Fatalf("DownloaderPath() error = %v", err)
	}
	if path != stub {
		t.Errorf("DownloaderPath() = %q, want %q", path, stub)
	}
	if !l.Available() {
		t.Error("Available() should be true")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("path lookup took %v, it must not run the binary", elapsed)
	}

	l.Refresh()
	start = time.Now()
	if _, err := l.DownloaderPath(); err != nil {
		t.Fatalf("DownloaderPath() after Refresh() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("path lookup after Refresh() took %v", elapsed)
	}
}
