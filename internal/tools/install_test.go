package tools

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/ytget/yt-queue/internal/logging"
)

const stubScript = "#!/bin/sh\necho 9.9\n"

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tarXZArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(xw)
	if err := tw.WriteHeader(&tar.Header{Name: "ffmpeg-7.0-amd64-static/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	for name, body := range files {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, routes map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrepare_InstallsMissingTools(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("PATH", t.TempDir())
	srv := serve(t, map[string][]byte{
		"/yt-dlp": []byte(stubScript),
		"/ffmpeg.zip": zipArchive(t, map[string]string{
			"ffmpeg-7.0/bin/ffmpeg":  "#!/bin/sh\necho ffmpeg version 7.0 x\n",
			"ffmpeg-7.0/bin/ffprobe": stubScript,
			"ffmpeg-7.0/README.txt":  "ignored",
		}),
	})

	installDir := filepath.Join(t.TempDir(), "bin")
	l := New(Options{
		InstallDir:    installDir,
		AutoInstall:   true,
		DownloaderURL: srv.URL + "/yt-dlp",
		ConverterURL:  srv.URL + "/ffmpeg.zip",
		Logger:        logging.Discard(),
	})

	statuses := l.Prepare(context.Background())
	for _, st := range statuses {
		if !st.Available || st.Source != SourceInstalled {
			t.Errorf("status after Prepare() = %+v", st)
		}
	}
	if statuses[0].Version != "9.9" || statuses[1].Version != "7.0" {
		t.Errorf("versions = %q, %q", statuses[0].Version, statuses[1].Version)
	}
	if _, err := os.Stat(filepath.Join(installDir, "ffprobe")); err != nil {
		t.Errorf("ffprobe not extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(installDir, "README.txt")); !os.IsNotExist(err) {
		t.Error("unrelated archive members should not be extracted")
	}
	if !l.Available() {
		t.Error("Available() should be true after install")
	}
}

func TestPrepare_WithoutAutoInstall(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	l := New(Options{InstallDir: t.TempDir(), Logger: logging.Discard()})

	statuses := l.Prepare(context.Background())
	if statuses[0].Available {
		t.Error("nothing should be installed without auto install")
	}
}

func TestInstall_ConverterTarXZ(t *testing.T) {
	skipOnWindows(t)
	srv := serve(t, map[string][]byte{
		"/ffmpeg.tar.xz": tarXZArchive(t, map[string]string{
			"ffmpeg-7.0-amd64-static/ffmpeg":  stubScript,
			"ffmpeg-7.0-amd64-static/ffprobe": stubScript,
			"ffmpeg-7.0-amd64-static/GPL.txt": "license",
		}),
	})
	installDir := t.TempDir()
	l := New(Options{InstallDir: installDir, ConverterURL: srv.URL + "/ffmpeg.tar.xz", Logger: logging.Discard()})

	if err := l.Install(context.Background(), Converter); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(installDir, "ffmpeg"))
	if err != nil {
		t.Fatalf("ffmpeg not installed: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("installed binary is not executable")
	}
}

func TestInstall_Errors(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/garbage": []byte("not an archive"),
		"/empty":   zipArchive(t, map[string]string{"README": "x"}),
	})

	tests := []struct {
		name string
		tool string
		url  string
	}{
		{"http 404", Downloader, srv.URL + "/missing"},
		{"unknown archive", Converter, srv.URL + "/garbage"},
		{"archive without binary", Converter, srv.URL + "/empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			l := New(Options{InstallDir: dir, DownloaderURL: tt.url, ConverterURL: tt.url, Logger: logging.Discard()})
			if err := l.Install(context.Background(), tt.tool); err == nil {
				t.Fatal("Install() should fail")
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("install dir not clean: %v", entries)
			}
		})
	}

	l := New(Options{Logger: logging.Discard()})
	if err := l.Install(context.Background(), Downloader); err == nil {
		t.Error("Install() without install dir should fail")
	}
}

func TestReleaseURL(t *testing.T) {
	tests := []struct {
		name, goos, goarch string
		want               string
		wantErr            bool
	}{
		{Downloader, "windows", "amd64", DownloaderReleaseBase + "yt-dlp.exe", false},
		{Downloader, "darwin", "arm64", DownloaderReleaseBase + "yt-dlp_macos", false},
		{Downloader, "linux", "amd64", DownloaderReleaseBase + "yt-dlp_linux", false},
		{Downloader, "linux", "arm64", DownloaderReleaseBase + "yt-dlp_linux_aarch64", false},
		{Converter, "windows", "amd64", ConverterWindowsURL, false},
		{Converter, "darwin", "amd64", ConverterDarwinURL, false},
		{Converter, "linux", "arm64", "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-arm64-static.tar.xz", false},
		{Converter, "linux", "386", "", true},
		{Downloader, "plan9", "amd64", "", true},
	}

	for _, tt := range tests {
		got, err := ReleaseURL(tt.name, tt.goos, tt.goarch)
		if (err != nil) != tt.wantErr {
			t.Errorf("ReleaseURL(%s, %s, %s) error = %v", tt.name, tt.goos, tt.goarch, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
		if got != tt.want {
			t.Errorf("ReleaseURL(%s, %s, %s) = %q, want %q", tt.name, tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func TestInstall_ReportsProgress(t *testing.T) {
	skipOnWindows(t)
	srv := serve(t, map[string][]byte{"/yt-dlp": []byte(stubScript)})

	var progress bytes.Buffer
	var gotName string
	var gotTotal int64
	l := New(Options{
		InstallDir:    t.TempDir(),
		DownloaderURL: srv.URL + "/yt-dlp",
		Logger:        logging.Discard(),
		Progress: func(name string, total int64) io.Writer {
			gotName, gotTotal = name, total
			return &progress
		},
	})

	if err := l.Install(context.Background(), Downloader); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if gotName != Downloader || gotTotal != int64(len(stubScript)) {
		t.Errorf("progress hook got (%q, %d)", gotName, gotTotal)
	}
	if progress.String() != stubScript {
		t.Errorf("progress writer saw %d bytes, want %d", progress.Len(), len(stubScript))
	}
}
