package ui

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/model"
)

// Dialog size constants
const (
	SettingsDialogWidth  = 520
	SettingsDialogHeight = 560
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings model.Settings
	loc      *Localization
	window   fyne.Window
	onSave   func(model.Settings)
	dialog   *dialog.ConfirmDialog

	// UI components
	saveFolderEntry  *widget.Entry
	audioOnlyCheck   *widget.Check
	formatSelect     *widget.Select
	qualitySelect    *widget.Select
	concurrencyEntry *widget.Entry
	proxyEntry       *widget.Entry
	subtitleSelect   *widget.Select
	themeSelect      *widget.Select
	languageSelect   *widget.Select
	clearOnExitCheck *widget.Check
	cleanupCheck     *widget.Check
}

// NewSettingsDialog creates a settings dialog for the given settings.
// onSave receives the edited copy when the user confirms.
func NewSettingsDialog(settings model.Settings, loc *Localization, window fyne.Window, onSave func(model.Settings)) *SettingsDialog {
	sd := &SettingsDialog{
		settings: settings,
		loc:      loc,
		window:   window,
		onSave:   onSave,
	}
	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	t := sd.loc.GetText

	sd.saveFolderEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(t(KeyBrowse), sd.onBrowseDirectory)
	saveFolderRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.saveFolderEntry)

	sd.audioOnlyCheck = widget.NewCheck(t(KeyAudioOnly), func(on bool) {
		setEnabled(sd.formatSelect, !on)
		setEnabled(sd.qualitySelect, !on)
	})

	containers := make([]string, 0, len(model.ContainerOptions))
	for _, c := range model.ContainerOptions {
		containers = append(containers, string(c))
	}
	sd.formatSelect = widget.NewSelect(containers, nil)
	sd.qualitySelect = widget.NewSelect(qualityOptions(), nil)

	sd.concurrencyEntry = widget.NewEntry()
	sd.concurrencyEntry.SetPlaceHolder(strconv.Itoa(config.MinConcurrency) + "-" + strconv.Itoa(config.MaxConcurrency))

	sd.proxyEntry = widget.NewEntry()
	sd.proxyEntry.SetPlaceHolder("socks5://127.0.0.1:1080")

	sd.subtitleSelect = widget.NewSelect(subtitleOptions(sd.loc), nil)
	sd.themeSelect = widget.NewSelect(themeOptions(sd.loc), nil)
	sd.languageSelect = widget.NewSelect(sd.languageOptions(), nil)

	sd.clearOnExitCheck = widget.NewCheck(t(KeyClearOnExit), nil)
	sd.cleanupCheck = widget.NewCheck(t(KeyCleanupPartial), nil)

	form := widget.NewForm(
		widget.NewFormItem(t(KeySaveFolder), saveFolderRow),
		widget.NewFormItem("", sd.audioOnlyCheck),
		widget.NewFormItem(t(KeyVideoFormat), sd.formatSelect),
		widget.NewFormItem(t(KeyQuality), sd.qualitySelect),
		widget.NewFormItem(t(KeySubtitles), sd.subtitleSelect),
		widget.NewFormItem(t(KeyConcurrency), sd.concurrencyEntry),
		widget.NewFormItem(t(KeyProxy), sd.proxyEntry),
		widget.NewFormItem(t(KeyTheme), sd.themeSelect),
		widget.NewFormItem(t(KeyLanguage), sd.languageSelect),
		widget.NewFormItem("", sd.cleanupCheck),
		widget.NewFormItem("", sd.clearOnExitCheck),
	)

	sd.dialog = dialog.NewCustomConfirm(
		t(KeySettings),
		t(KeySave),
		t(KeyCancel),
		form,
		sd.onConfirm,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	s := sd.settings
	sd.saveFolderEntry.SetText(s.SaveFolder)
	sd.audioOnlyCheck.SetChecked(s.AudioOnly)
	sd.formatSelect.SetSelected(string(model.ParseContainer(string(s.Container))))
	sd.qualitySelect.SetSelected(string(model.ParseQuality(string(s.Quality))))
	sd.subtitleSelect.SetSelected(subtitleOption(sd.loc, s.SubtitleLang))
	sd.concurrencyEntry.SetText(strconv.Itoa(config.ClampConcurrency(s.Concurrency)))
	sd.proxyEntry.SetText(s.Proxy)
	sd.themeSelect.SetSelected(themeOption(sd.loc, s.Theme))
	sd.languageSelect.SetSelected(sd.languageOption(s.Language))
	sd.cleanupCheck.SetChecked(s.CleanupOnCancel)
	sd.clearOnExitCheck.SetChecked(s.ClearOnExit)
}

// collect reads the form into a copy of the settings
func (sd *SettingsDialog) collect() model.Settings {
	s := sd.settings

	if dir := strings.TrimSpace(sd.saveFolderEntry.Text); dir != "" {
		if expanded, err := config.ExpandPath(dir); err == nil {
			dir = expanded
		}
		s.SaveFolder = dir
	}
	s.AudioOnly = sd.audioOnlyCheck.Checked
	if sd.formatSelect.Selected != "" {
		s.Container = model.ParseContainer(sd.formatSelect.Selected)
	}
	if sd.qualitySelect.Selected != "" {
		s.Quality = model.ParseQuality(sd.qualitySelect.Selected)
	}
	s.SubtitleLang = parseSubtitleOption(sd.loc, sd.subtitleSelect.Selected)
	if n, err := strconv.Atoi(strings.TrimSpace(sd.concurrencyEntry.Text)); err == nil {
		s.Concurrency = config.ClampConcurrency(n)
	}
	s.Proxy = strings.TrimSpace(sd.proxyEntry.Text)
	s.Theme = parseThemeOption(sd.loc, sd.themeSelect.Selected)
	s.Language = sd.parseLanguageOption(sd.languageSelect.Selected)
	s.CleanupOnCancel = sd.cleanupCheck.Checked
	s.ClearOnExit = sd.clearOnExitCheck.Checked
	return s
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.saveFolderEntry.SetText(uri.Path())
	}, sd.window)
}

func (sd *SettingsDialog) onConfirm(confirmed bool) {
	if !confirmed {
		return
	}
	sd.settings = sd.collect()
	if sd.onSave != nil {
		sd.onSave(sd.settings)
	}
}

func (sd *SettingsDialog) languageOptions() []string {
	out := []string{sd.loc.GetText(KeyLanguageSystem)}
	for _, code := range sd.loc.GetAvailableLanguages() {
		out = append(out, sd.loc.LanguageName(code))
	}
	return out
}

func (sd *SettingsDialog) languageOption(code string) string {
	if code == LanguageSystem || code == "" {
		return sd.loc.GetText(KeyLanguageSystem)
	}
	return sd.loc.LanguageName(code)
}

func (sd *SettingsDialog) parseLanguageOption(v string) string {
	for _, code := range sd.loc.GetAvailableLanguages() {
		if sd.loc.LanguageName(code) == v {
			return code
		}
	}
	return LanguageSystem
}

func themeOptions(loc *Localization) []string {
	return []string{loc.GetText(KeyThemeSystem), loc.GetText(KeyThemeLight), loc.GetText(KeyThemeDark)}
}

func themeOption(loc *Localization, mode string) string {
	switch mode {
	case model.ThemeLight:
		return loc.GetText(KeyThemeLight)
	case model.ThemeDark:
		return loc.GetText(KeyThemeDark)
	}
	return loc.GetText(KeyThemeSystem)
}

func parseThemeOption(loc *Localization, v string) string {
	switch v {
	case loc.GetText(KeyThemeLight):
		return model.ThemeLight
	case loc.GetText(KeyThemeDark):
		return model.ThemeDark
	}
	return model.ThemeSystem
}
