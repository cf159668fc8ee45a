package model

import (
	"strconv"
	"strings"
)

// Quality is either best, worst or a height ceiling such as "720p"
type Quality string

const (
	QualityBest  Quality = "best"
	QualityWorst Quality = "worst"
	Quality1080  Quality = "1080p"
	Quality720   Quality = "720p"
	Quality480   Quality = "480p"
	Quality360   Quality = "360p"
	Quality144   Quality = "144p"
)

// QualityOptions lists the qualities offered in selectors, in display order
var QualityOptions = []Quality{QualityBest, Quality1080, Quality720, Quality480, Quality360, Quality144, QualityWorst}

// ParseQuality accepts "best", "worst", "720p" or a bare height like "720".
// Unknown values fall back to best.
func ParseQuality(s string) Quality {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", string(QualityBest):
		return QualityBest
	case string(QualityWorst):
		return QualityWorst
	}
	h, err := strconv.Atoi(strings.TrimSuffix(s, "p"))
	if err != nil || h <= 0 {
		return QualityBest
	}
	return Quality(strconv.Itoa(h) + "p")
}

// Height returns the height ceiling in pixels; ok is false for best and worst
func (q Quality) Height() (height int, ok bool) {
	if q == QualityBest || q == QualityWorst || q == "" {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSuffix(string(q), "p"))
	if err != nil || h <= 0 {
		return 0, false
	}
	return h, true
}

// Container is the target video container
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerMKV  Container = "mkv"
	ContainerMOV  Container = "mov"
	ContainerAVI  Container = "avi"
	ContainerWEBM Container = "webm"
)

// ContainerOptions lists supported containers in display order
var ContainerOptions = []Container{ContainerMP4, ContainerMKV, ContainerMOV, ContainerAVI, ContainerWEBM}

// ParseContainer returns the matching container or mp4 for unknown input
func ParseContainer(s string) Container {
	c := Container(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContainerOptions {
		if c == known {
			return c
		}
	}
	return ContainerMP4
}

// AudioFormat is the extraction format used for audio-only items
const AudioFormat = "mp3"

// SubtitleNone disables subtitle download
const SubtitleNone = ""

// SubtitleOptions lists the language codes offered in selectors
var SubtitleOptions = []string{SubtitleNone, "en", "fa"}
