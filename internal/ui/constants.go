package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconPlay    = "▶"
	IconPause   = "⏸"
	IconWait    = "⏳"
	IconStop    = "⏹"
	IconDone    = "✔"
	IconError   = "❌"
	IconExtract = "🔎"
	IconMerge   = "⚙"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing (QueueRow / lists)
const (
	StatusLabelWidth  float32 = 110
	PercentLabelWidth float32 = 48
	SelectorWidth     float32 = 90

	RowMinWidth  float32 = 560
	RowMinHeight float32 = 84

	WindowMinWidth  float32 = 720
	WindowMinHeight float32 = 480
)

// Notification behavior
const (
	NotificationAutoHide = 5 * time.Second
)

// Refresh throttling for progress-driven list updates
const (
	ListRefreshInterval = 200 * time.Millisecond
)

// Export dialog
const (
	ExportDialogWidth  float32 = 360
	ExportDialogHeight float32 = 380
)
