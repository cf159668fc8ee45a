package progress

import (
	"math"
	"testing"

	"github.com/ytget/yt-queue/internal/model"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		ok         bool
		percent    float64
		total      string
		downloaded string
		speedBps   float64
		eta        int
	}{
		{
			name:     "standard line",
			line:     "[download]  45.0% of 123.45MiB at 1.23MiB/s ETA 00:12",
			ok:       true,
			percent:  45.0,
			total:    "123.45MiB",
			speedBps: 1.23 * 1024 * 1024,
			eta:      12,
		},
		{
			name:     "estimated size with hours",
			line:     "[download]   5.2% of ~  2.00GiB at  512.00KiB/s ETA 1:02:03 (frag 3/120)",
			ok:       true,
			percent:  5.2,
			total:    "2.00GiB",
			speedBps: 512 * 1024,
			eta:      3723,
		},
		{
			name:       "downloaded of total",
			line:       "[download] 10.00MiB of 100.00MiB 10% at 2.00MiB/s ETA 00:45",
			ok:         true,
			percent:    10,
			total:      "100.00MiB",
			downloaded: "10.00MiB",
			speedBps:   2 * 1024 * 1024,
			eta:        45,
		},
		{
			name:     "finished line",
			line:     "[download] 100% of   10.00MiB in 00:00:02 at 4.50MiB/s",
			ok:       true,
			percent:  100,
			total:    "10.00MiB",
			speedBps: 4.5 * 1024 * 1024,
			eta:      -1,
		},
		{
			name:    "unknown eta and speed",
			line:    "[download]  0.0% of 3.00MiB at Unknown B/s ETA Unknown",
			ok:      true,
			percent: 0,
			total:   "3.00MiB",
			eta:     -1,
		},
		{name: "no percent", line: "[youtube] abc: Downloading webpage", ok: false},
		{name: "empty", line: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseText(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseText() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if rec.Percent != tt.percent {
				t.Errorf("Percent = %v, want %v", rec.Percent, tt.percent)
			}
			if rec.Total != tt.total {
				t.Errorf("Total = %q, want %q", rec.Total, tt.total)
			}
			if tt.downloaded != "" && rec.Downloaded != tt.downloaded {
				t.Errorf("Downloaded = %q, want %q", rec.Downloaded, tt.downloaded)
			}
			if math.Abs(rec.SpeedBps-tt.speedBps) > 0.5 {
				t.Errorf("SpeedBps = %v, want %v", rec.SpeedBps, tt.speedBps)
			}
			if rec.ETASec != tt.eta {
				t.Errorf("ETASec = %d, want %d", rec.ETASec, tt.eta)
			}
		})
	}
}

func TestParseText_DerivesDownloadedBytes(t *testing.T) {
	rec, ok := ParseText("[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05")
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.TotalBytes != 10*1024*1024 {
		t.Errorf("TotalBytes = %d", rec.TotalBytes)
	}
	if rec.DownloadedBytes != 5*1024*1024 {
		t.Errorf("DownloadedBytes = %d", rec.DownloadedBytes)
	}
	if rec.Downloaded != "5.0 MiB" {
		t.Errorf("Downloaded = %q", rec.Downloaded)
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"00:12", 12},
		{"01:30", 90},
		{"1:02:03", 3723},
		{"1:00:00:00", 216000},
		{"ab:12", -1},
	}

	for _, tt := range tests {
		if got := ParseETA(tt.in); got != tt.want {
			t.Errorf("ParseETA(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSpeedToBytes(t *testing.T) {
	tests := []struct {
		value, unit string
		want        float64
	}{
		{"1", "B", 1},
		{"1.5", "KiB", 1536},
		{"2", "MiB", 2 * 1024 * 1024},
		{"1", "GiB", 1024 * 1024 * 1024},
		{"1", "XB", 0},
		{"x", "MiB", 0},
	}

	for _, tt := range tests {
		if got := SpeedToBytes(tt.value, tt.unit); got != tt.want {
			t.Errorf("SpeedToBytes(%q, %q) = %v, want %v", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestParser_NonMatchingLinesYieldNothing(t *testing.T) {
	p := NewParser("item-1")
	lines := []string{
		"[youtube] Extracting URL: https://www.youtube.com/watch?v=x",
		"[info] x: Downloading 1 format(s): 137+140",
		"WARNING: something happened",
		"",
		"[download] Destination: /tmp/a.mp4",
	}
	for _, line := range lines {
		if _, ok := p.ParseLine(line); ok {
			t.Errorf("ParseLine(%q) returned a record", line)
		}
		if _, ok := p.ParseLine(line); ok {
			t.Errorf("second ParseLine(%q) returned a record", line)
		}
	}
}

func TestParser_Classify(t *testing.T) {
	tests := []struct {
		line string
		kind Kind
		out  string
	}{
		{"[youtube] abc: Downloading webpage", KindLog, ""},
		{"[download] Destination: /v/Clip.f137.mp4", KindDestination, "/v/Clip.f137.mp4"},
		{"[download]  12.5% of 1.00MiB at 1.00KiB/s ETA 00:01", KindProgress, "/v/Clip.f137.mp4"},
		{`[Merger] Merging formats into "/v/Clip.mkv"`, KindPostprocess, "/v/Clip.mkv"},
		{"[VideoConvertor] Converting video from mkv to mp4; Destination: /v/Clip.mp4", KindPostprocess, "/v/Clip.mp4"},
		{"Deleting original file /v/Clip.mkv (pass -k to keep)", KindLog, "/v/Clip.mp4"},
		{"[EmbedSubtitle] There aren't any subtitles to embed", KindPostprocess, "/v/Clip.mp4"},
	}

	p := NewParser("id")
	for _, tt := range tests {
		if got := p.Classify(tt.line); got != tt.kind {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.kind)
		}
		if p.OutputFile() != tt.out {
			t.Errorf("after %q OutputFile() = %q, want %q", tt.line, p.OutputFile(), tt.out)
		}
	}
	if p.Phase() != model.PhasePostprocessing {
		t.Errorf("Phase() = %s, want postprocessing", p.Phase())
	}
}

func TestParser_AlreadyDownloaded(t *testing.T) {
	p := NewParser("id")
	if got := p.Classify("[download] /v/Song.mp3 has already been downloaded"); got != KindDestination {
		t.Fatalf("Classify() = %v", got)
	}
	if p.OutputFile() != "/v/Song.mp3" {
		t.Errorf("OutputFile() = %q", p.OutputFile())
	}
}

func TestParser_AudioExtraction(t *testing.T) {
	p := NewParser("id")
	p.Classify("[download] Destination: /v/Song.webm")
	p.Classify("[ExtractAudio] Destination: /v/Song.mp3")
	if p.OutputFile() != "/v/Song.mp3" {
		t.Errorf("OutputFile() = %q", p.OutputFile())
	}
}

func TestParser_ParseLineSetsItemAndPhase(t *testing.T) {
	p := NewParser("item-9")
	rec, ok := p.ParseLine("[download]  99.9% of 1.00MiB at 1.00MiB/s ETA 00:00")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.ItemID != "item-9" || rec.Phase != model.PhaseDownloading {
		t.Errorf("record = %+v", rec)
	}
}

func TestParser_JSONPayload(t *testing.T) {
	p := NewParser("item-2")
	line := `{"status": "downloading", "downloaded_bytes": 1048576, "total_bytes": 4194304, "speed": 524288.0, "eta": 6, "_percent_str": " 25.0%", "filename": "/v/x.mp4"}`

	if got := p.Classify(line); got != KindProgress {
		t.Fatalf("Classify() = %v, want KindProgress", got)
	}
	rec, ok := p.ParseLine(line)
	if !ok {
		t.Fatal("expected record from payload")
	}
	if rec.Percent != 25 || rec.ETASec != 6 || rec.SpeedBps != 524288 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Downloaded != "1.0 MiB" || rec.Total != "4.0 MiB" {
		t.Errorf("sizes = %q of %q", rec.Downloaded, rec.Total)
	}
	if p.OutputFile() != "/v/x.mp4" {
		t.Errorf("OutputFile() = %q", p.OutputFile())
	}

	if _, ok := p.ParseLine(`{"status": "downloading"}`); ok {
		t.Error("payload without percent should yield nothing")
	}
	if _, ok := p.ParseLine(`{broken`); ok {
		t.Error("invalid JSON should yield nothing")
	}
}

func TestStepName(t *testing.T) {
	if got := StepName(`[Merger] Merging formats into "a.mkv"`); got != "Merger" {
		t.Errorf("StepName() = %q", got)
	}
	if got := StepName("no tag"); got != "" {
		t.Errorf("StepName() = %q", got)
	}
}
