package platform

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}

	if filepath.Base(downloadsDir) != "Downloads" {
		t.Errorf("Expected directory to end with 'Downloads', got: %s", downloadsDir)
	}
}

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "Hello World"},
		{"a/b\\c:d*e?f\"g<h>i|j", "abcdefghij"},
		{"Live (2024) v1.0_final", "Live (2024) v1.0_final"},
		{"Café déjà vu", "Café déjà vu"},
		{"ویدیو تست", "ویدیو تست"},
		{"  ...  ", DefaultTitle},
		{"", DefaultTitle},
		{"emoji 🎵 song", "emoji  song"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeTitle(tt.in); got != tt.want {
				t.Errorf("SafeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeTitle_NormalizesComposedForms(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := SafeTitle(decomposed); got != "Caf\u00e9" {
		t.Errorf("SafeTitle(decomposed) = %q, want composed form", got)
	}
}

func TestOutputTemplate(t *testing.T) {
	got := OutputTemplate("/videos", "My: Video")
	want := filepath.Join("/videos", "My Video.%(ext)s")
	if got != want {
		t.Errorf("OutputTemplate() = %q, want %q", got, want)
	}
}

func TestExistingDownload(t *testing.T) {
	dir := t.TempDir()
	if _, ok := ExistingDownload(dir, "Clip", "mp4"); ok {
		t.Fatal("nothing should exist yet")
	}

	path := filepath.Join(dir, "Clip.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok := ExistingDownload(dir, "Clip", "mp4")
	if !ok || got != path {
		t.Errorf("ExistingDownload() = %q, %v", got, ok)
	}

	empty := filepath.Join(dir, "Empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := ExistingDownload(dir, "Empty", "mp4"); ok {
		t.Error("zero-byte file should not count as downloaded")
	}
}

func TestRemovePartialFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"Clip.mp4",
		"Clip.mp4.part",
		"Clip.f137.mp4.part",
		"Clip.mp4.ytdl",
		"Clip.f137.mp4.part-Frag3",
		"Other.mp4.part",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := RemovePartialFiles(dir, "Clip")
	if err != nil {
		t.Fatalf("RemovePartialFiles() error = %v", err)
	}
	if len(removed) != 4 {
		t.Errorf("removed %d files, want 4: %v", len(removed), removed)
	}

	left, _ := os.ReadDir(dir)
	var names []string
	for _, e := range left {
		names = append(names, e.Name())
	}
	if !slices.Equal(names, []string{"Clip.mp4", "Other.mp4.part"}) {
		t.Errorf("remaining files = %v", names)
	}
}

func TestFindFileWithFallback(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Song.mp3")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Video.mkv.part"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"exact", existing, existing, false},
		{"other extension", filepath.Join(dir, "Song.webm"), existing, false},
		{"partial only", filepath.Join(dir, "Video.mkv"), "", true},
		{"missing", filepath.Join(dir, "Nothing.mp4"), "", true},
		{"url", "https://example.com/a.mp4", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileWithFallback(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindFileWithFallback() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FindFileWithFallback() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenFileInManager_NonExistentFile(t *testing.T) {
	err := OpenFileInManager(filepath.Join(t.TempDir(), "nonexistent.txt"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestOpenFolder_Missing(t *testing.T) {
	dir := t.TempDir()
	tests := []string{
		filepath.Join(dir, "gone"),
		writeFile(t, dir, "clip.mp4"),
	}
	for _, path := range tests {
		if err := OpenFolder(path); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("OpenFolder(%q) error = %v, want ErrFileNotFound", path, err)
		}
	}
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
