package card

import (
	"embed"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves translation keys for the card, the tray and the settings window.
type Translator struct {
	bundle    *i18n.Bundle
	languages []string

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
}

// NewTranslator loads the embedded locales and selects lang.
func NewTranslator(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		t.SetLanguage(lang)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if _, err := language.Parse(langCode); err != nil {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
		t.languages = append(t.languages, langCode)
	}

	slices.Sort(t.languages)
	t.SetLanguage(lang)
	return t
}

// Languages returns the codes of the loaded locales.
func (t *Translator) Languages() []string {
	return slices.Clone(t.languages)
}

// Language returns the active language code.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the active language. Unknown or malformed codes fall
// back to the default language.
func (t *Translator) SetLanguage(lang string) {
	tag, err := language.Parse(lang)
	code := ""
	if err == nil {
		base, _ := tag.Base()
		code = base.String()
	}
	if code == "" || !slices.Contains(t.languages, code) {
		if lang != "" {
			slog.Warn(config.MsgLangFallback,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyLang, lang,
			)
		}
		code = config.DefaultLanguage
	}

	t.mu.Lock()
	t.lang = code
	t.localizer = i18n.NewLocalizer(t.bundle, code)
	t.mu.Unlock()
}

// Msg translates key with optional template data. A missing key yields the key itself.
func (t *Translator) Msg(key string, data map[string]any) string {
	t.mu.RLock()
	loc := t.localizer
	t.mu.RUnlock()

	if loc == nil {
		return key
	}
	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// Labels builds the localized date labels for engine.Format.
func (t *Translator) Labels() engine.Labels {
	return engine.Labels{
		Today:     t.Msg(config.TKeyToday, nil),
		Tomorrow:  t.Msg(config.TKeyTomorrow, nil),
		Yesterday: t.Msg(config.TKeyYesterday, nil),
		Long:      t.longDate,
	}
}

func (t *Translator) longDate(tm time.Time) string {
	return t.Msg(config.TKeyLongDate, map[string]any{
		"Weekday": t.Msg(config.TKeyWeekdayPrefix+strconv.Itoa(int(tm.Weekday())), nil),
		"Month":   t.Msg(config.TKeyMonthPrefix+strconv.Itoa(int(tm.Month())), nil),
		"Day":     tm.Day(),
	})
}
