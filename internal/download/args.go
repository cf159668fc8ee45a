package download

import (
	"fmt"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

// Retry counts passed to the downloader
const (
	Retries         = 10
	FragmentRetries = 10
)

// ProgressTemplate makes the downloader print one JSON progress object per line
const ProgressTemplate = "download:%(progress)j"

// ArgsOptions are the per-run inputs to BuildArgs that do not live on the item
type ArgsOptions struct {
	OutputDir          string
	Title              string
	Proxy              string
	ConverterPath      string
	StructuredProgress bool
}

// FormatSelector translates the item's quality choice into a -f expression
func FormatSelector(item model.QueueItem) string {
	if item.AudioOnly {
		return "bestaudio/best"
	}
	if h, ok := item.Quality.Height(); ok {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	}
	if item.Quality == model.QualityWorst {
		return "worstvideo+worstaudio/worst"
	}
	return "bestvideo+bestaudio/best"
}

// BuildArgs returns the downloader arguments for item
func BuildArgs(item model.QueueItem, opts ArgsOptions) []string {
	args := []string{"-f", FormatSelector(item)}

	if item.AudioOnly {
		args = append(args, "-x", "--audio-format", model.AudioFormat)
	} else {
		args = append(args, "--recode-video", item.Extension())
	}

	if item.SubtitleLang != model.SubtitleNone {
		args = append(args,
			"--write-subs", "--write-auto-subs",
			"--sub-langs", item.SubtitleLang,
			"--convert-subs", "srt")
	}

	args = append(args,
		"--newline",
		"--retries", fmt.Sprint(Retries),
		"--fragment-retries", fmt.Sprint(FragmentRetries))

	if opts.StructuredProgress {
		args = append(args, "--progress-template", ProgressTemplate)
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	if opts.ConverterPath != "" {
		args = append(args, "--ffmpeg-location", opts.ConverterPath)
	}

	title := opts.Title
	if title == "" {
		title = item.Title
	}
	args = append(args, "-o", platform.OutputTemplate(opts.OutputDir, title))
	return append(args, "--", item.URL)
}
