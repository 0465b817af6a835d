package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
	"github.com/tartampluch/go-schoolmenu/internal/server"
)

//go:embed Icon.svg
var appIconData []byte

// Defaults are used for every setting the user has not saved in the GUI yet,
// typically loaded from config.yaml.
type Defaults struct {
	Card     engine.CardConfig
	Host     host.Options
	Language string
}

// SchoolMenuApp encapsulates the UI state, preferences, and background logic.
type SchoolMenuApp struct {
	App         fyne.App
	Window      fyne.Window // settings window, nil when closed
	CardWindow  fyne.Window
	Preferences fyne.Preferences
	Translator  *card.Translator
	Ctx         context.Context

	Server   *server.FeedServer
	Registry *card.Registry
	Defaults Defaults
	Clock    engine.Clock // Injected clock for testability

	// NewHost builds the host for the current settings; tests swap it.
	NewHost func(host.Options) (host.Host, error)

	Tray desktop.App
	Menu *fyne.Menu

	TrayShowItem     *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	configChan chan struct{}

	// Active host connection, replaced whenever settings change.
	connMu sync.RWMutex
	Host   host.Host
	Card   *card.Card

	view *cardView
}

// NewSchoolMenuApp constructs the application and wires dependencies.
func NewSchoolMenuApp(a fyne.App, ctx context.Context, srv *server.FeedServer, registry *card.Registry, defaults Defaults) *SchoolMenuApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	return &SchoolMenuApp{
		App:         a,
		Preferences: a.Preferences(),
		Ctx:         ctx,
		Server:      srv,
		Registry:    registry,
		Defaults:    defaults,
		Clock:       engine.RealClock{},
		NewHost:     host.New,
		configChan:  make(chan struct{}, config.ChannelBufferSize),
	}
}

// Run launches the application services and the main UI loop.
func (app *SchoolMenuApp) Run() {
	app.SetupI18n()
	app.watchPreferences()

	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	app.ShowCardWindow()
	go app.backgroundWorker()
	app.App.Run()
}

// SetupI18n creates the translator for the preferred language.
func (app *SchoolMenuApp) SetupI18n() {
	app.Translator = card.NewTranslator(app.language())
}

// UpdateLocalizer applies the language preference to the translator.
func (app *SchoolMenuApp) UpdateLocalizer() {
	if app.Translator == nil {
		app.SetupI18n()
		return
	}
	app.Translator.SetLanguage(app.language())
}

func (app *SchoolMenuApp) language() string {
	fallback := app.Defaults.Language
	if fallback == "" {
		fallback = config.DefaultLanguage
	}
	return app.Preferences.StringWithFallback(config.PrefLanguage, fallback)
}

// GetMsg translates a key safely.
func (app *SchoolMenuApp) GetMsg(key string) string {
	if app.Translator == nil {
		return key
	}
	return app.Translator.Msg(key, nil)
}

// watchPreferences reconnects the worker whenever settings change.
func (app *SchoolMenuApp) watchPreferences() {
	app.Preferences.AddChangeListener(func() {
		select {
		case app.configChan <- struct{}{}:
		default:
		}
	})
}

// setupTrayMenu constructs the system tray menu.
func (app *SchoolMenuApp) setupTrayMenu() {
	app.TrayShowItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuShow), func() {
		app.ShowCardWindow()
	})

	app.TrayRefreshItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuRefresh), func() {
		go app.refresh(true)
	})

	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayShowItem,
		fyne.NewMenuItemSeparator(),
		app.TrayRefreshItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *SchoolMenuApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayShowItem.Label = app.GetMsg(config.TKeyMenuShow)
	app.TrayRefreshItem.Label = app.GetMsg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.Menu.Refresh()
}

// loadCardConfig assembles the card configuration from preferences, falling
// back to the defaults.
func (app *SchoolMenuApp) loadCardConfig() engine.CardConfig {
	d := app.Defaults.Card
	cfg := engine.CardConfig{
		Entity: app.Preferences.StringWithFallback(config.PrefEntity, d.Entity),
		Title:  app.Preferences.StringWithFallback(config.PrefTitle, d.Title),
	}

	raw := app.Preferences.StringWithFallback(config.PrefCategories,
		strings.Join(d.Categories, config.CategoryListSeparator))
	cfg.Categories = splitCategories(raw)

	// The demo host always has an entity to show.
	if cfg.Entity == "" && app.loadHostMode() == config.HostModeDemo {
		cfg.Entity = config.DemoEntity
	}
	return cfg
}

func splitCategories(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, config.CategoryListSeparator) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (app *SchoolMenuApp) loadHostMode() string {
	mode := app.Preferences.StringWithFallback(config.PrefHostMode, app.Defaults.Host.Mode)
	if mode == "" {
		mode = config.HostModeDemo
	}
	return mode
}

// loadHostOptions assembles the host options from preferences and the keyring.
func (app *SchoolMenuApp) loadHostOptions() host.Options {
	d := app.Defaults.Host
	opts := host.Options{
		Mode:         app.loadHostMode(),
		URL:          app.Preferences.StringWithFallback(config.PrefHostURL, d.URL),
		StateFile:    app.Preferences.StringWithFallback(config.PrefStateFile, d.StateFile),
		PollInterval: d.PollInterval,
		Token:        d.Token,
		Clock:        app.Clock,
	}

	if secs := app.Preferences.Int(config.PrefInterval); secs > 0 {
		opts.PollInterval = time.Duration(secs) * time.Second
	}

	if opts.Mode == config.HostModeREST && opts.Token == "" {
		token, err := host.LoadToken(opts.URL)
		if err != nil {
			slog.Debug(config.ErrTokenLoad,
				config.LogKeyURL, opts.URL,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		}
		opts.Token = token
	}
	return opts
}

// connect replaces the host and the card with ones built from the current settings.
func (app *SchoolMenuApp) connect() error {
	opts := app.loadHostOptions()
	h, err := app.NewHost(opts)
	if err != nil {
		return err
	}

	c, err := app.Registry.Create(config.CardType, card.Deps{
		Clock:      app.Clock,
		Dispatcher: h,
		Translator: app.Translator,
	})
	if err != nil {
		return err
	}
	if err := c.SetConfig(app.loadCardConfig()); err != nil {
		// Unconfigured cards still render their prompt.
		slog.Warn(config.ErrNotConfigured,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
	}

	app.connMu.Lock()
	app.Host = h
	app.Card = c
	app.connMu.Unlock()

	slog.Info(config.MsgHostConnected,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyMode, opts.Mode,
		config.LogKeyEntity, c.Config().Entity)
	return nil
}

func (app *SchoolMenuApp) current() (host.Host, *card.Card) {
	app.connMu.RLock()
	defer app.connMu.RUnlock()
	return app.Host, app.Card
}

// backgroundWorker follows host notifications and reconnects on settings changes.
func (app *SchoolMenuApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)
	log.Info(config.MsgWorkerStart)

	for {
		subCtx, cancel := context.WithCancel(app.Ctx)
		events := app.subscribe(subCtx)

		reconnect := false
		for !reconnect {
			select {
			case <-app.Ctx.Done():
				cancel()
				log.Info(config.MsgWorkerStop)
				return

			case <-app.configChan:
				reconnect = true

			case _, ok := <-events:
				if !ok {
					// Subscription ended; wait for new settings.
					events = nil
					continue
				}
				app.refresh(false)
			}
		}
		cancel()
	}
}

// subscribe connects and returns the host notifications, or nil when the
// current settings cannot produce a host.
func (app *SchoolMenuApp) subscribe(ctx context.Context) <-chan struct{} {
	if err := app.connect(); err != nil {
		slog.Error(config.ErrHostMode,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err)
		return nil
	}

	h, _ := app.current()
	events, err := h.Subscribe(ctx)
	if err != nil {
		slog.Error(config.ErrWatch,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err)
		return nil
	}

	app.refresh(false)
	return events
}

// refresh reads the entity, publishes the feed and card documents and redraws.
func (app *SchoolMenuApp) refresh(manual bool) {
	h, c := app.current()
	if h == nil || c == nil {
		return
	}

	slog.Debug(config.MsgRefresh,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	view, attrs := c.Pull(app.Ctx, h)

	if app.Server != nil {
		if err := app.Server.Publish(view, attrs, c.Config(), app.Clock); err != nil {
			slog.Error(config.ErrCardEncode,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err)
		}
	}

	fyne.Do(func() {
		app.renderView(view)
	})
}

// navigate runs a card navigation command. The new date is drawn once the
// host pushes it back.
func (app *SchoolMenuApp) navigate(step func(*card.Card, context.Context) error) {
	_, c := app.current()
	if c == nil {
		return
	}
	slog.Debug(config.MsgNavigate, config.LogKeyComponent, config.CompUI)
	if err := step(c, app.Ctx); err != nil {
		app.App.SendNotification(fyne.NewNotification(config.AppName, err.Error()))
	}
}
