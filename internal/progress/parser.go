package progress

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ytget/yt-queue/internal/model"
)

// Kind classifies one output line
type Kind int

const (
	KindLog Kind = iota
	KindProgress
	KindPostprocess
	KindDestination
)

// Line markers printed by the downloader
const (
	DownloadTag        = "[download]"
	DestinationPrefix  = "[download] Destination:"
	AlreadyDownloaded  = "has already been downloaded"
	MergingFormatsInto = "Merging formats into"
)

// PostprocessorTags are the prefixes of converter steps run after the transfer
var PostprocessorTags = []string{
	"[Merger]",
	"[ExtractAudio]",
	"[VideoConvertor]",
	"[VideoRemuxer]",
	"[SubtitlesConvertor]",
	"[EmbedSubtitle]",
	"[FixupM3u8]",
	"[FixupM4a]",
	"[FixupStretched]",
	"[FixupDuplicateMoov]",
	"[FixupTimestamp]",
	"[Metadata]",
	"[MoveFiles]",
	"[ffmpeg]",
}

var (
	percentRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	ofSizeRe      = regexp.MustCompile(`(?:(\d+(?:\.\d+)?\s*[KMGT]?i?B)\s+)?of\s+~?\s*(\d+(?:\.\d+)?\s*[KMGT]?i?B)`)
	speedRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([KMGT]?i?B)/s`)
	etaRe         = regexp.MustCompile(`ETA\s+((?:\d+:)*\d+)`)
	destinationRe = regexp.MustCompile(`Destination:\s*(.+)$`)
	mergerRe      = regexp.MustCompile(`Merging formats into\s+"(.+)"`)
	alreadyRe     = regexp.MustCompile(`^\[download\]\s+(.+?)\s+has already been downloaded`)
	tagRe         = regexp.MustCompile(`^\[([A-Za-z0-9_]+)\]`)
)

// Parser is per-download state: it remembers the last destination seen so the
// final output path can be reconstructed. Not safe for concurrent use.
type Parser struct {
	itemID     string
	outputFile string
	phase      model.Phase
}

// NewParser returns a parser bound to a queue item
func NewParser(itemID string) *Parser {
	return &Parser{itemID: itemID, phase: model.PhaseDownloading}
}

// OutputFile returns the last destination announced, or "" if none was seen
func (p *Parser) OutputFile() string {
	return p.outputFile
}

// Phase returns the phase implied by the lines seen so far
func (p *Parser) Phase() model.Phase {
	return p.phase
}

// Classify reports what kind of line this is and updates the tracked
// destination and phase. Progress lines are not parsed here.
func (p *Parser) Classify(line string) Kind {
	line = strings.TrimSpace(line)
	if line == "" {
		return KindLog
	}

	if m := mergerRe.FindStringSubmatch(line); m != nil {
		p.outputFile = m[1]
		p.phase = model.PhasePostprocessing
		return KindPostprocess
	}
	if m := alreadyRe.FindStringSubmatch(line); m != nil {
		p.outputFile = m[1]
		return KindDestination
	}

	if isPostprocessLine(line) {
		if m := destinationRe.FindStringSubmatch(line); m != nil {
			p.outputFile = strings.TrimSpace(m[1])
		}
		p.phase = model.PhasePostprocessing
		return KindPostprocess
	}

	if strings.HasPrefix(line, DestinationPrefix) {
		if m := destinationRe.FindStringSubmatch(line); m != nil {
			p.outputFile = strings.TrimSpace(m[1])
		}
		return KindDestination
	}

	if strings.HasPrefix(line, "{") || (strings.HasPrefix(line, DownloadTag) && percentRe.MatchString(line)) {
		return KindProgress
	}
	return KindLog
}

// StepName returns the postprocessor name of a postprocess line, e.g. "Merger"
func StepName(line string) string {
	if m := tagRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		return m[1]
	}
	return ""
}

func isPostprocessLine(line string) bool {
	for _, tag := range PostprocessorTags {
		if strings.HasPrefix(line, tag) {
			return true
		}
	}
	return false
}

// ParseLine extracts a progress record from a text or JSON progress line.
// Lines without a percentage yield ok=false.
func (p *Parser) ParseLine(line string) (model.ProgressRecord, bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		return p.parsePayload(line)
	}
	rec, ok := ParseText(line)
	if !ok {
		return rec, false
	}
	rec.ItemID = p.itemID
	rec.Phase = p.phase
	return rec, true
}

// ParseText parses a human-readable progress line such as
// "[download]  45.0% of 123.45MiB at 1.23MiB/s ETA 00:12".
func ParseText(line string) (model.ProgressRecord, bool) {
	rec := model.ProgressRecord{Phase: model.PhaseDownloading, ETASec: -1}

	m := percentRe.FindStringSubmatch(line)
	if m == nil {
		return rec, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return rec, false
	}
	rec.Percent = math.Min(math.Max(pct, 0), 100)

	if sm := ofSizeRe.FindStringSubmatch(line); sm != nil {
		rec.Total = normalizeSize(sm[2])
		rec.TotalBytes = parseBytes(sm[2])
		if sm[1] != "" {
			rec.Downloaded = normalizeSize(sm[1])
			rec.DownloadedBytes = parseBytes(sm[1])
		} else if rec.TotalBytes > 0 {
			rec.DownloadedBytes = int64(float64(rec.TotalBytes) * rec.Percent / 100)
			rec.Downloaded = humanize.IBytes(uint64(rec.DownloadedBytes))
		}
	}

	if sm := speedRe.FindStringSubmatch(line); sm != nil {
		rec.SpeedBps = SpeedToBytes(sm[1], sm[2])
		rec.Speed = sm[1] + sm[2] + "/s"
	}

	if sm := etaRe.FindStringSubmatch(line); sm != nil {
		rec.ETASec = ParseETA(sm[1])
	}

	return rec, true
}

// ParseETA converts "h:m:s", "m:s" or "s" into seconds as Σ field·60^pos from
// the right. Invalid input yields -1.
func ParseETA(s string) int {
	fields := strings.Split(strings.TrimSpace(s), ":")
	total := 0
	mult := 1
	for i := len(fields) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			return -1
		}
		total += n * mult
		mult *= 60
	}
	return total
}

var unitMultipliers = map[string]float64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
	"KB":  1e3,
	"MB":  1e6,
	"GB":  1e9,
	"TB":  1e12,
}

// SpeedToBytes normalizes a value and unit like ("1.5", "MiB") to bytes per second
func SpeedToBytes(value, unit string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	mult, ok := unitMultipliers[unit]
	if !ok {
		return 0
	}
	return v * mult
}

func parseBytes(s string) int64 {
	s = strings.ReplaceAll(s, " ", "")
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return 0
	}
	return int64(SpeedToBytes(s[:i], s[i:]))
}

func normalizeSize(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// payload mirrors the progress dictionary printed with
// --progress-template "download:%(progress)j".
type payload struct {
	Status             string   `json:"status"`
	DownloadedBytes    *float64 `json:"downloaded_bytes"`
	TotalBytes         *float64 `json:"total_bytes"`
	TotalBytesEstimate *float64 `json:"total_bytes_estimate"`
	Speed              *float64 `json:"speed"`
	ETA                *float64 `json:"eta"`
	PercentStr         string   `json:"_percent_str"`
	Filename           string   `json:"filename"`
}

func (p *Parser) parsePayload(line string) (model.ProgressRecord, bool) {
	rec := model.ProgressRecord{ItemID: p.itemID, Phase: p.phase, ETASec: -1}

	var pl payload
	if err := json.Unmarshal([]byte(line), &pl); err != nil {
		return rec, false
	}
	if pl.Filename != "" {
		p.outputFile = pl.Filename
	}

	total := pl.TotalBytes
	if total == nil {
		total = pl.TotalBytesEstimate
	}

	pm := percentRe.FindStringSubmatch(pl.PercentStr)
	switch {
	case pm != nil:
		rec.Percent, _ = strconv.ParseFloat(pm[1], 64)
	case pl.Status == "finished":
		rec.Percent = 100
	default:
		return rec, false
	}
	rec.Percent = math.Min(math.Max(rec.Percent, 0), 100)

	if pl.DownloadedBytes != nil {
		rec.DownloadedBytes = int64(*pl.DownloadedBytes)
		rec.Downloaded = humanize.IBytes(uint64(rec.DownloadedBytes))
	}
	if total != nil && *total > 0 {
		rec.TotalBytes = int64(*total)
		rec.Total = humanize.IBytes(uint64(rec.TotalBytes))
	}
	if pl.Speed != nil {
		rec.SpeedBps = *pl.Speed
		rec.Speed = humanize.IBytes(uint64(*pl.Speed)) + "/s"
	}
	if pl.ETA != nil {
		rec.ETASec = int(*pl.ETA)
	}
	return rec, true
}
