package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewQueueItem(t *testing.T) {
	s := Settings{Quality: Quality720, Container: ContainerMKV, SubtitleLang: "en"}
	item := NewQueueItem("https://example.com/v/1", s)

	if item.ID == "" {
		t.Fatal("expected generated ID")
	}
	if item.Status != StatusQueued {
		t.Errorf("Expected status queued, got %s", item.Status)
	}
	if item.Quality != Quality720 || item.Container != ContainerMKV || item.SubtitleLang != "en" {
		t.Errorf("settings defaults not copied: %+v", item)
	}
	if item.DownloadPath != nil {
		t.Error("download path should be unset for new items")
	}

	other := NewQueueItem("https://example.com/v/1", s)
	if other.ID == item.ID {
		t.Error("IDs should be unique")
	}
}

func TestQueueItem_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		title    string
		url      string
		path     string
		expected string
	}{
		{"Video Title", "https://youtube.com/watch?v=123", "", "Video Title"},
		{"", "https://youtube.com/watch?v=123", "", "https://youtube.com/watch?v=123"},
		{"https://youtube.com/watch?v=123", "https://youtube.com/watch?v=123", "/tmp/My Clip.mp4", "My Clip"},
		{"", "u", `C:\Videos\clip.mkv`, "clip"},
	}

	for _, test := range tests {
		item := &QueueItem{Title: test.title, URL: test.url}
		item.SetDownloadPath(test.path)
		result := item.GetDisplayTitle()
		if result != test.expected {
			t.Errorf("GetDisplayTitle() with title=%q path=%q = %q, expected %q",
				test.title, test.path, result, test.expected)
		}
	}
}

func TestQueueItem_DownloadPathJSON(t *testing.T) {
	item := QueueItem{ID: "a", URL: "u", Status: StatusQueued}
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"download_path":null`) {
		t.Errorf("expected null download_path, got %s", data)
	}

	item.SetDownloadPath("/x/y.mp4")
	clone := item.Clone()
	*item.DownloadPath = "/changed"
	if clone.Path() != "/x/y.mp4" {
		t.Errorf("clone shares path pointer: %q", clone.Path())
	}
}

func TestQueueItem_Extension(t *testing.T) {
	if got := (&QueueItem{AudioOnly: true, Container: ContainerMKV}).Extension(); got != "mp3" {
		t.Errorf("audio-only extension = %q", got)
	}
	if got := (&QueueItem{Container: ContainerWEBM}).Extension(); got != "webm" {
		t.Errorf("extension = %q", got)
	}
	if got := (&QueueItem{}).Extension(); got != "mp4" {
		t.Errorf("default extension = %q", got)
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		etaSec   int
		expected string
	}{
		{-1, "—"},
		{0, "—"},
		{30, "00:30"},
		{90, "01:30"},
		{3661, "01:01:01"},
	}

	for _, test := range tests {
		result := ProgressRecord{ETASec: test.etaSec}.GetETAString()
		if result != test.expected {
			t.Errorf("GetETAString() with ETASec=%d = %s, expected %s", test.etaSec, result, test.expected)
		}
	}
}

func TestVideoInfo_ResolvedURL(t *testing.T) {
	tests := []struct {
		name string
		info VideoInfo
		want string
	}{
		{"webpage url", VideoInfo{WebpageURL: "https://a/b", URL: "x"}, "https://a/b"},
		{"absolute url", VideoInfo{URL: "https://c/d"}, "https://c/d"},
		{"bare id in url", VideoInfo{URL: "abc123"}, "https://www.youtube.com/watch?v=abc123"},
		{"id only", VideoInfo{ID: "zz"}, "https://www.youtube.com/watch?v=zz"},
		{"empty", VideoInfo{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ResolvedURL(); got != tt.want {
				t.Errorf("ResolvedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoInfo_Strings(t *testing.T) {
	info := VideoInfo{Duration: 3725, FilesizeApprox: 1536}
	if got := info.DurationString(); got != "01:02:05" {
		t.Errorf("DurationString() = %q", got)
	}
	if got := info.SizeString(); got != "1.5 KiB" {
		t.Errorf("SizeString() = %q", got)
	}
	if got := (VideoInfo{}).SizeString(); got != "" {
		t.Errorf("empty SizeString() = %q", got)
	}
}
