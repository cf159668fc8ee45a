package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-queue/internal/model"
)

// RowState is everything a queue row renders for one item
type RowState struct {
	Item        model.QueueItem
	Progress    model.ProgressRecord
	HasProgress bool
	Step        string
	Active      bool
	Selected    bool
}

// RowActions are the queue row callbacks. All receive the item ID.
type RowActions struct {
	OnSelect func(id string, selected bool)
	OnStart  func(id string)
	OnPause  func(id string)
	OnCancel func(id string)
	OnRemove func(id string)
	OnEdit   func(id string, edit func(*model.QueueItem))
}

// QueueRow renders one queue item in a recycled list cell
type QueueRow struct {
	widget.BaseWidget

	loc     *Localization
	actions RowActions
	id      string
	binding bool

	check       *widget.Check
	titleLabel  *widget.Label
	statusLabel *widget.Label
	progress    *widget.ProgressBar
	details     *widget.Label

	quality   *widget.Select
	format    *widget.Select
	subtitles *widget.Select

	startBtn  *widget.Button
	pauseBtn  *widget.Button
	cancelBtn *widget.Button
	removeBtn *widget.Button
}

// NewQueueRow creates an empty row; Bind fills it
func NewQueueRow(loc *Localization, actions RowActions) *QueueRow {
	r := &QueueRow{loc: loc, actions: actions}
	r.ExtendBaseWidget(r)
	r.createUI()
	return r
}

func (r *QueueRow) createUI() {
	r.check = widget.NewCheck("", func(on bool) {
		if !r.binding && r.actions.OnSelect != nil {
			r.actions.OnSelect(r.id, on)
		}
	})

	r.titleLabel = widget.NewLabel("")
	r.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	r.titleLabel.Truncation = fyne.TextTruncateEllipsis

	r.statusLabel = widget.NewLabel("")
	r.statusLabel.Alignment = fyne.TextAlignTrailing

	r.progress = widget.NewProgressBar()
	r.details = widget.NewLabel("")
	r.details.TextStyle = fyne.TextStyle{Monospace: true}
	r.details.Truncation = fyne.TextTruncateEllipsis

	r.quality = widget.NewSelect(qualityOptions(), func(v string) {
		r.edit(func(it *model.QueueItem) { it.Quality = model.ParseQuality(v) })
	})
	r.format = widget.NewSelect(formatOptions(r.loc), func(v string) {
		audio, c := parseFormatOption(r.loc, v)
		r.edit(func(it *model.QueueItem) {
			it.AudioOnly = audio
			if !audio {
				it.Container = c
			}
		})
	})
	r.subtitles = widget.NewSelect(subtitleOptions(r.loc), func(v string) {
		lang := parseSubtitleOption(r.loc, v)
		r.edit(func(it *model.QueueItem) { it.SubtitleLang = lang })
	})

	r.startBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { r.call(r.actions.OnStart) })
	r.pauseBtn = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), func() { r.call(r.actions.OnPause) })
	r.cancelBtn = widget.NewButtonWithIcon("", theme.CancelIcon(), func() { r.call(r.actions.OnCancel) })
	r.removeBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { r.call(r.actions.OnRemove) })
	r.removeBtn.Importance = widget.LowImportance
}

func (r *QueueRow) call(fn func(string)) {
	if fn != nil && r.id != "" {
		fn(r.id)
	}
}

func (r *QueueRow) edit(fn func(*model.QueueItem)) {
	if r.binding || r.actions.OnEdit == nil || r.id == "" {
		return
	}
	r.actions.OnEdit(r.id, fn)
}

// Bind shows st in the row
func (r *QueueRow) Bind(st RowState) {
	r.binding = true
	defer func() { r.binding = false }()

	it := st.Item
	r.id = it.ID
	r.check.SetChecked(st.Selected)
	r.titleLabel.SetText(cleanText(it.GetDisplayTitle()))

	text, importance := statusText(r.loc, it.Status)
	r.statusLabel.Importance = importance
	r.statusLabel.SetText(text)

	r.progress.SetValue(progressValue(st))
	r.details.SetText(detailsText(st))

	r.quality.SetSelected(string(it.Quality))
	r.format.SetSelected(formatOption(r.loc, it))
	r.subtitles.SetSelected(subtitleOption(r.loc, it.SubtitleLang))

	editable := !st.Active && it.Status != model.StatusFinished
	setEnabled(r.quality, editable && !it.AudioOnly)
	setEnabled(r.format, editable)
	setEnabled(r.subtitles, editable)

	setEnabled(r.startBtn, !st.Active && it.Status.IsStartable())
	setEnabled(r.pauseBtn, st.Active || it.Status == model.StatusQueued)
	setEnabled(r.cancelBtn, st.Active || it.Status.IsPending())
}

// MinSize keeps rows readable when the window is narrow
func (r *QueueRow) MinSize() fyne.Size {
	size := r.BaseWidget.MinSize()
	return fyne.NewSize(max(size.Width, RowMinWidth), max(size.Height, RowMinHeight))
}

// CreateRenderer implements fyne.Widget
func (r *QueueRow) CreateRenderer() fyne.WidgetRenderer {
	status := container.NewGridWrap(fyne.NewSize(StatusLabelWidth, r.statusLabel.MinSize().Height), r.statusLabel)
	header := container.NewBorder(nil, nil, r.check, status, r.titleLabel)
	progress := container.NewBorder(nil, nil, nil, nil, r.progress)

	selectors := container.NewHBox(
		sized(r.quality, SelectorWidth),
		sized(r.format, SelectorWidth),
		sized(r.subtitles, SelectorWidth+30),
	)
	buttons := container.NewHBox(r.startBtn, r.pauseBtn, r.cancelBtn, r.removeBtn)
	controls := container.NewHBox(selectors, layout.NewSpacer(), buttons)

	content := container.NewVBox(header, progress, container.NewBorder(nil, nil, nil, controls, r.details))
	return widget.NewSimpleRenderer(content)
}

// CompletedActions are the completed row callbacks
type CompletedActions struct {
	OnOpen   func(path string)
	OnReveal func(path string)
	OnCopy   func(path string)
	OnRemove func(id string)
}

// CompletedRow renders one finished download
type CompletedRow struct {
	widget.BaseWidget

	loc     *Localization
	actions CompletedActions
	id      string
	path    string

	titleLabel *widget.Label
	details    *widget.Label
	openBtn    *widget.Button
	revealBtn  *widget.Button
	copyBtn    *widget.Button
	removeBtn  *widget.Button
}

// NewCompletedRow creates an empty completed row
func NewCompletedRow(loc *Localization, actions CompletedActions) *CompletedRow {
	r := &CompletedRow{loc: loc, actions: actions}
	r.ExtendBaseWidget(r)

	r.titleLabel = widget.NewLabel("")
	r.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	r.titleLabel.Truncation = fyne.TextTruncateEllipsis
	r.details = widget.NewLabel("")
	r.details.Truncation = fyne.TextTruncateEllipsis

	r.openBtn = widget.NewButtonWithIcon(loc.GetText(KeyOpen), theme.MediaPlayIcon(), func() {
		if r.path != "" && r.actions.OnOpen != nil {
			r.actions.OnOpen(r.path)
		}
	})
	r.revealBtn = widget.NewButtonWithIcon(loc.GetText(KeyReveal), theme.FolderOpenIcon(), func() {
		if r.path != "" && r.actions.OnReveal != nil {
			r.actions.OnReveal(r.path)
		}
	})
	r.copyBtn = widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
		if r.path != "" && r.actions.OnCopy != nil {
			r.actions.OnCopy(r.path)
		}
	})
	r.removeBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		if r.actions.OnRemove != nil {
			r.actions.OnRemove(r.id)
		}
	})
	r.removeBtn.Importance = widget.LowImportance
	return r
}

// Bind shows it in the row
func (r *CompletedRow) Bind(it model.QueueItem) {
	r.id = it.ID
	r.path = it.Path()
	r.titleLabel.SetText(cleanText(it.GetDisplayTitle()))

	parts := []string{it.FormatLabel()}
	if it.TotalSize != "" {
		parts = append(parts, it.TotalSize)
	}
	if r.path != "" {
		parts = append(parts, r.path)
	}
	r.details.SetText(strings.Join(parts, MiddleDotSeparator))

	hasPath := r.path != ""
	setEnabled(r.openBtn, hasPath)
	setEnabled(r.revealBtn, hasPath)
	setEnabled(r.copyBtn, hasPath)
}

// CreateRenderer implements fyne.Widget
func (r *CompletedRow) CreateRenderer() fyne.WidgetRenderer {
	buttons := container.NewHBox(r.openBtn, r.revealBtn, r.copyBtn, r.removeBtn)
	content := container.NewBorder(nil, nil, nil, buttons, container.NewVBox(r.titleLabel, r.details))
	return widget.NewSimpleRenderer(content)
}

// statusText returns the localized status with its icon and label importance
func statusText(loc *Localization, s model.Status) (string, widget.Importance) {
	label := loc.GetText("status_" + string(s))
	switch s {
	case model.StatusQueued:
		return IconWait + " " + label, widget.MediumImportance
	case model.StatusPaused:
		return IconPause + " " + label, widget.WarningImportance
	case model.StatusExtracting:
		return IconExtract + " " + label, widget.HighImportance
	case model.StatusDownloading:
		return IconPlay + " " + label, widget.HighImportance
	case model.StatusPostprocessing:
		return IconMerge + " " + label, widget.HighImportance
	case model.StatusFinished:
		return IconDone + " " + label, widget.SuccessImportance
	case model.StatusError:
		return IconError + " " + label, widget.DangerImportance
	case model.StatusCancelled:
		return IconStop + " " + label, widget.MediumImportance
	}
	return label, widget.MediumImportance
}

func progressValue(st RowState) float64 {
	switch {
	case st.Item.Status == model.StatusFinished || st.Item.Status == model.StatusPostprocessing:
		return 1
	case st.HasProgress:
		return min(max(st.Progress.Percent/100, 0), 1)
	}
	return 0
}

// detailsText is the second line of a row: transfer figures while running,
// the error after a failure, otherwise the known metadata
func detailsText(st RowState) string {
	it := st.Item
	if it.Status == model.StatusError && it.Error != "" {
		return cleanText(it.Error)
	}
	if it.Status == model.StatusPostprocessing && st.Step != "" {
		return st.Step
	}

	var parts []string
	if st.Active && st.HasProgress {
		p := st.Progress
		size := p.Downloaded
		if p.Total != "" {
			size = fmt.Sprintf("%s / %s", orDash(p.Downloaded), p.Total)
		}
		parts = append(parts, fmt.Sprintf(ProgressLabelFormat, int(p.Percent)))
		if size != "" {
			parts = append(parts, size)
		}
		if p.Speed != "" {
			parts = append(parts, p.Speed)
		}
		parts = append(parts, "ETA "+p.GetETAString())
		return strings.Join(parts, MiddleDotSeparator)
	}

	if it.Duration != "" {
		parts = append(parts, it.Duration)
	}
	switch {
	case it.DownloadedSize != "" && it.TotalSize != "" && it.DownloadedSize != it.TotalSize:
		parts = append(parts, fmt.Sprintf("%s / %s", it.DownloadedSize, it.TotalSize))
	case it.TotalSize != "":
		parts = append(parts, it.TotalSize)
	}
	if len(parts) == 0 {
		return it.URL
	}
	return strings.Join(parts, MiddleDotSeparator)
}

func qualityOptions() []string {
	out := make([]string, 0, len(model.QualityOptions))
	for _, q := range model.QualityOptions {
		out = append(out, string(q))
	}
	return out
}

// formatOptions lists the containers followed by the localized audio choice
func formatOptions(loc *Localization) []string {
	out := make([]string, 0, len(model.ContainerOptions)+1)
	for _, c := range model.ContainerOptions {
		out = append(out, string(c))
	}
	return append(out, loc.GetText(KeyAudio))
}

func formatOption(loc *Localization, it model.QueueItem) string {
	if it.AudioOnly {
		return loc.GetText(KeyAudio)
	}
	return string(model.ParseContainer(string(it.Container)))
}

func parseFormatOption(loc *Localization, v string) (audio bool, c model.Container) {
	if v == loc.GetText(KeyAudio) {
		return true, ""
	}
	return false, model.ParseContainer(v)
}

func subtitleOptions(loc *Localization) []string {
	out := make([]string, 0, len(model.SubtitleOptions))
	for _, lang := range model.SubtitleOptions {
		out = append(out, subtitleOption(loc, lang))
	}
	return out
}

func subtitleOption(loc *Localization, lang string) string {
	if lang == model.SubtitleNone {
		return loc.GetText(KeyNoSubtitles)
	}
	return lang
}

func parseSubtitleOption(loc *Localization, v string) string {
	if v == loc.GetText(KeyNoSubtitles) {
		return model.SubtitleNone
	}
	return v
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s))
}

func orDash(s string) string {
	if s == "" {
		return DashPlaceholder
	}
	return s
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

func sized(o fyne.CanvasObject, width float32) fyne.CanvasObject {
	return container.NewGridWrap(fyne.NewSize(width, o.MinSize().Height), o)
}
