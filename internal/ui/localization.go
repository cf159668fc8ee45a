package ui

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jeandeaual/go-locale"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFiles embed.FS

// LanguageSystem selects the language of the operating system
const LanguageSystem = "system"

// Text keys for localization
const (
	KeyLanguageName = "language_name"
	KeyAppTitle     = "app_title"

	KeyFile             = "file"
	KeyLanguage         = "language"
	KeyLanguageSystem   = "language_system"
	KeySettings         = "settings"
	KeyImportURLs       = "import_urls"
	KeyExportQueue      = "export_queue"
	KeyExportSelection  = "export_selection"
	KeyExportCompleted  = "export_completed"
	KeyTools            = "tools"
	KeyQuit             = "quit"
	KeyClose            = "close"
	KeyEnterURL         = "enter_url"
	KeyAdd              = "add"
	KeyFilter           = "filter"
	KeyStartAll         = "start_all"
	KeyStartSelected    = "start_selected"
	KeyPause            = "pause"
	KeyResume           = "resume"
	KeyCancel           = "cancel"
	KeyCancelAll        = "cancel_all"
	KeyRemove           = "remove"
	KeyClearQueue       = "clear_queue"
	KeyClearCompleted   = "clear_completed"
	KeyQueue            = "queue"
	KeyCompleted        = "completed"
	KeyOpen             = "open"
	KeyReveal           = "reveal"
	KeyCopyPath         = "copy_path"
	KeyAudio            = "audio"
	KeyNoSubtitles      = "no_subtitles"
	KeyPleaseEnterURL   = "please_enter_url"
	KeyInvalidURL       = "invalid_url"
	KeyAlreadyInQueue   = "already_in_queue"
	KeyFetchingInfo     = "fetching_info"
	KeyItemsAdded       = "items_added"
	KeyLookupFailed     = "lookup_failed"
	KeyNothingSelected  = "nothing_selected"
	KeyQueueBusy        = "queue_busy"
	KeyItemBusy         = "item_busy"
	KeyDownloadDone     = "download_completed"
	KeyDownloadFailed   = "download_failed"
	KeyQueueSummary     = "queue_summary"
	KeyPathCopied       = "path_copied"
	KeyCopyTitles       = "copy_titles"
	KeyCopyURLs         = "copy_urls"
	KeyCopyAllURLs      = "copy_all_urls"
	KeyOpenSaveFolder   = "open_save_folder"
	KeyLinesCopied      = "lines_copied"
	KeyErrorOpeningFile = "error_opening_file"

	KeyToolsMissingTitle   = "tools_missing_title"
	KeyToolsMissingMessage = "tools_missing_message"
	KeyToolsStatus         = "tools_status"
	KeyToolMissing         = "tool_missing"
	KeyToolsChecking       = "tools_checking"

	KeySaveFolder     = "save_folder"
	KeyBrowse         = "browse"
	KeyAudioOnly      = "audio_only"
	KeyVideoFormat    = "video_format"
	KeyQuality        = "quality"
	KeyConcurrency    = "concurrency"
	KeyProxy          = "proxy"
	KeySubtitles      = "subtitles"
	KeyTheme          = "theme"
	KeyThemeSystem    = "theme_system"
	KeyThemeLight     = "theme_light"
	KeyThemeDark      = "theme_dark"
	KeyClearOnExit    = "clear_on_exit"
	KeyCleanupPartial = "cleanup_partial"
	KeySave           = "save"
	KeySettingsSaved  = "settings_saved"

	KeyExportFields    = "export_fields"
	KeyExportDone      = "export_done"
	KeyImported        = "imported"
	KeyNothingToExport = "nothing_to_export"
	KeyShuttingDown    = "shutting_down"
)

// Localization manages UI text translations. Message files are embedded
// TOML documents named after their language tag.
type Localization struct {
	bundle    *i18n.Bundle
	tags      []language.Tag
	matcher   language.Matcher
	current   string
	localizer *i18n.Localizer
}

// NewLocalization creates a localization manager set to English
func NewLocalization() *Localization {
	l, err := loadLocalization(localeFiles, "locales")
	if err != nil {
		// embedded files are validated by the package tests
		panic(fmt.Sprintf("load embedded locales: %v", err))
	}
	return l
}

func loadLocalization(fsys fs.FS, dir string) (*Localization, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	// English first so the matcher falls back to it
	names := []string{"en.toml"}
	for _, e := range entries {
		if !e.IsDir() && e.Name() != "en.toml" && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	for _, name := range names {
		if _, err := bundle.LoadMessageFileFS(fsys, path.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	l := &Localization{bundle: bundle, tags: bundle.LanguageTags()}
	l.matcher = language.NewMatcher(l.tags)
	l.SetLanguage("en")
	return l, nil
}

// SetLanguage switches to the closest available language. "system" follows
// the OS locale; anything unknown falls back to English.
func (l *Localization) SetLanguage(lang string) {
	if lang == LanguageSystem || lang == "" {
		lang = SystemLanguage()
	}
	tag := l.match(lang)
	l.current = tag.String()
	l.localizer = i18n.NewLocalizer(l.bundle, l.current, language.English.String())
}

func (l *Localization) match(lang string) language.Tag {
	requested, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return language.English
	}
	_, idx, conf := l.matcher.Match(requested)
	if conf == language.No {
		return language.English
	}
	return l.tags[idx]
}

// GetText returns localized text for the given key, or the key itself
func (l *Localization) GetText(key string) string {
	return l.Format(key, nil)
}

// Format renders a message with template data such as {{.Count}}
func (l *Localization) Format(key string, data map[string]any) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil || msg == "" {
		return key
	}
	return msg
}

// GetCurrentLanguage returns the active language code
func (l *Localization) GetCurrentLanguage() string {
	return l.current
}

// GetAvailableLanguages returns the codes of the embedded message files
func (l *Localization) GetAvailableLanguages() []string {
	out := make([]string, 0, len(l.tags))
	for _, t := range l.tags {
		out = append(out, t.String())
	}
	return out
}

// LanguageName returns the native name of a language for menus
func (l *Localization) LanguageName(code string) string {
	loc := i18n.NewLocalizer(l.bundle, code)
	name, err := loc.Localize(&i18n.LocalizeConfig{MessageID: KeyLanguageName})
	if err != nil {
		return code
	}
	return name
}

// SystemLanguage returns the OS language, "en" when it cannot be read
func SystemLanguage() string {
	lang, err := locale.GetLocale()
	if err != nil || lang == "" {
		return "en"
	}
	return lang
}
