package model

// Theme values accepted by the settings document
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Settings is the persisted user settings document
type Settings struct {
	WindowSize      [2]int    `json:"window_size"`
	SaveFolder      string    `json:"save_folder"`
	AudioOnly       bool      `json:"audio_only"`
	Container       Container `json:"video_format"`
	Quality         Quality   `json:"quality"`
	Concurrency     int       `json:"concurrency"`
	Proxy           string    `json:"proxy"`
	SubtitleLang    string    `json:"subtitle_lang"`
	Theme           string    `json:"theme"`
	Language        string    `json:"language"`
	ClearOnExit     bool      `json:"clear_on_exit"`
	CleanupOnCancel bool      `json:"cleanup_partial_on_cancel"`
}
