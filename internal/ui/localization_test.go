package ui

import (
	"io/fs"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestLocalization_Languages(t *testing.T) {
	l := NewLocalization()

	got := l.GetAvailableLanguages()
	if len(got) == 0 || got[0] != "en" {
		t.Fatalf("GetAvailableLanguages() = %v, want en first", got)
	}
	for _, want := range []string{"ru", "fa"} {
		if !slices.Contains(got, want) {
			t.Errorf("GetAvailableLanguages() = %v, missing %s", got, want)
		}
	}
}

func TestLocalization_SetLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "en"},
		{"ru", "ru"},
		{"ru_RU", "ru"},
		{"fa-IR", "fa"},
		{"de", "en"},
		{"not a tag", "en"},
	}

	l := NewLocalization()
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			l.SetLanguage(tt.lang)
			if got := l.GetCurrentLanguage(); got != tt.want {
				t.Errorf("SetLanguage(%q) -> %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestLocalization_SystemLanguage(t *testing.T) {
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "ru_RU.UTF-8")

	l := NewLocalization()
	l.SetLanguage(LanguageSystem)
	if got := l.GetCurrentLanguage(); got != "ru" {
		t.Skipf("system locale not taken from environment on this platform: %q", got)
	}
	if got := l.GetText(KeyAdd); got != "Добавить" {
		t.Errorf("GetText(add) = %q", got)
	}
}

func TestLocalization_GetText(t *testing.T) {
	l := NewLocalization()

	if got := l.GetText(KeyStartAll); got != "Start all" {
		t.Errorf("GetText(start_all) = %q", got)
	}
	if got := l.GetText("no_such_key"); got != "no_such_key" {
		t.Errorf("unknown key = %q, want the key", got)
	}

	l.SetLanguage("ru")
	if got := l.GetText(KeyCancel); got != "Отмена" {
		t.Errorf("ru GetText(cancel) = %q", got)
	}
	if got := l.LanguageName("fa"); got != "فارسی" {
		t.Errorf("LanguageName(fa) = %q", got)
	}
}

func TestLocalization_Format(t *testing.T) {
	l := NewLocalization()

	got := l.Format(KeyQueueSummary, map[string]any{"Active": 2, "Queued": 1, "Done": 5})
	if got != "2 active, 1 waiting, 5 done" {
		t.Errorf("Format(queue_summary) = %q", got)
	}
}

// Every locale must carry the same keys as English
func TestLocales_Complete(t *testing.T) {
	load := func(name string) map[string]string {
		data, err := fs.ReadFile(localeFiles, "locales/"+name)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]string
		if err := toml.Unmarshal(data, &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return m
	}

	en := load("en.toml")
	entries, err := fs.ReadDir(localeFiles, "locales")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == "en.toml" {
			continue
		}
		other := load(e.Name())
		for key := range en {
			if strings.TrimSpace(other[key]) == "" {
				t.Errorf("%s: missing %q", e.Name(), key)
			}
		}
		for key := range other {
			if _, ok := en[key]; !ok {
				t.Errorf("%s: unknown key %q", e.Name(), key)
			}
		}
	}
}
