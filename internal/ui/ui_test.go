package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
	"github.com/tartampluch/go-schoolmenu/internal/server"
	"github.com/zalando/go-keyring"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

const testEntity = "sensor.lincoln_lunch"

var thursdayMorning = MockClock{CurrentTime: time.Date(2024, 3, 14, 9, 30, 0, 0, time.Local)}

func weekAttributes() engine.Attributes {
	return engine.Attributes{
		Categories: []string{"entree"},
		Days: []engine.DayRecord{
			{Date: "2024-03-14", HasMenu: true, MenuItems: []engine.MenuItem{
				{Category: "entree", Name: "Pizza", Description: "Cheese"},
				{Category: "milk", Name: "Chocolate Milk"},
			}},
			{Date: "2024-03-15", HasMenu: true, MenuItems: []engine.MenuItem{
				{Category: "entree", Name: "Tacos"},
			}},
		},
	}
}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

// setupTestApp initializes a headless Fyne app backed by an in-memory host.
func setupTestApp(t *testing.T) (*SchoolMenuApp, *host.MemoryHost, *MockTray) {
	keyring.MockInit()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	registry := card.NewRegistry()
	require.NoError(t, card.Register(registry))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// Port "0" binds to any free port if the server is ever started.
	app := NewSchoolMenuApp(a, ctx, server.NewFeedServer("0"), registry, Defaults{})
	mockTray := &MockTray{}
	app.Tray = mockTray
	app.Clock = thursdayMorning

	mem := host.NewMemoryHost(thursdayMorning)
	mem.Publish(testEntity, weekAttributes())
	app.NewHost = func(host.Options) (host.Host, error) { return mem, nil }

	// Run() is skipped in tests.
	app.SetupI18n()
	return app, mem, mockTray
}

// -----------------------------------------------------------------------------
// Localization Tests
// -----------------------------------------------------------------------------

func TestLocalization_Switching(t *testing.T) {
	app, _, _ := setupTestApp(t)

	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	assert.Equal(t, "Settings...", app.GetMsg(config.TKeyMenuSettings))

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	assert.Equal(t, "Réglages...", app.GetMsg(config.TKeyMenuSettings))
}

func TestLocalization_DefaultsLanguage(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.Defaults.Language = "fr"
	app.SetupI18n()

	assert.Equal(t, "fr", app.Translator.Language())
}

func TestTrayMenu_Labels(t *testing.T) {
	app, _, mockTray := setupTestApp(t)
	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	app.setupTrayMenu()

	require.NotNil(t, mockTray.Menu)
	assert.Equal(t, "Show Menu", app.TrayShowItem.Label)

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	app.RefreshTrayMenu()
	assert.Equal(t, "Afficher le menu", app.TrayShowItem.Label)
	assert.Equal(t, "Actualiser", app.TrayRefreshItem.Label)
}

// -----------------------------------------------------------------------------
// Configuration & Preferences Tests
// -----------------------------------------------------------------------------

func TestConfiguration_CardMapping(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.Defaults.Card = engine.CardConfig{Title: "Lincoln", Categories: []string{"entree"}}

	app.Preferences.SetString(config.PrefEntity, testEntity)
	cfg := app.loadCardConfig()
	assert.Equal(t, testEntity, cfg.Entity)
	assert.Equal(t, "Lincoln", cfg.Title, "unsaved settings fall back to defaults")
	assert.Equal(t, []string{"entree"}, cfg.Categories)

	app.Preferences.SetString(config.PrefCategories, " entree, ,milk ")
	assert.Equal(t, []string{"entree", "milk"}, app.loadCardConfig().Categories)
}

func TestConfiguration_DemoEntity(t *testing.T) {
	app, _, _ := setupTestApp(t)

	app.Preferences.SetString(config.PrefHostMode, config.HostModeDemo)
	assert.Equal(t, config.DemoEntity, app.loadCardConfig().Entity)

	app.Preferences.SetString(config.PrefHostMode, config.HostModeFile)
	assert.Empty(t, app.loadCardConfig().Entity)
}

func TestConfiguration_HostMapping(t *testing.T) {
	app, _, _ := setupTestApp(t)
	url := "http://homeassistant.local:8123"

	require.NoError(t, host.SaveToken(url, "secret-token"))
	app.Preferences.SetString(config.PrefHostMode, config.HostModeREST)
	app.Preferences.SetString(config.PrefHostURL, url)
	app.Preferences.SetInt(config.PrefInterval, 30)

	opts := app.loadHostOptions()
	assert.Equal(t, config.HostModeREST, opts.Mode)
	assert.Equal(t, url, opts.URL)
	assert.Equal(t, "secret-token", opts.Token)
	assert.Equal(t, 30*time.Second, opts.PollInterval)
}

func TestConfiguration_WorkerSignal(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.watchPreferences()

	app.Preferences.SetString(config.PrefEntity, testEntity)

	select {
	case <-app.configChan:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("changing a preference should notify the background worker")
	}
}

// -----------------------------------------------------------------------------
// Card Integration Tests
// -----------------------------------------------------------------------------

func TestRefresh_RendersItems(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.Preferences.SetString(config.PrefEntity, testEntity)
	app.buildCardContent()

	require.NoError(t, app.connect())
	app.refresh(true)

	_, c := app.current()
	view := c.Last()
	assert.Equal(t, engine.KindItems, view.Outcome.Kind)
	assert.Equal(t, "2024-03-14", view.CursorKey)

	// The filter keeps entrees only.
	require.Len(t, app.view.items, 1)
	assert.Equal(t, "Pizza", app.view.items[0].Name)
	assert.True(t, app.view.list.Visible())
	assert.Equal(t, config.DefaultTitle, app.view.title.Text)
}

func TestRefresh_MissingEntity(t *testing.T) {
	app, mem, _ := setupTestApp(t)
	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	app.Preferences.SetString(config.PrefEntity, testEntity)
	app.buildCardContent()
	mem.Remove(testEntity)

	require.NoError(t, app.connect())
	app.refresh(false)

	assert.False(t, app.view.list.Visible())
	assert.Contains(t, app.view.message.Text, testEntity)
	assert.True(t, app.view.next.Disabled(), "navigation needs an entity")
}

func TestNavigate_ThroughHost(t *testing.T) {
	app, mem, _ := setupTestApp(t)
	app.Preferences.SetString(config.PrefEntity, testEntity)
	app.buildCardContent()

	require.NoError(t, app.connect())
	app.refresh(false)

	app.navigate((*card.Card).Next)

	attrs, _, err := mem.EntityState(context.Background(), testEntity)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", attrs.TargetDate)

	// The host pushes the new date back; the card follows it.
	app.refresh(false)
	require.Len(t, app.view.items, 1)
	assert.Equal(t, "Tacos", app.view.items[0].Name)
}

func TestConnect_HostFailure(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.NewHost = func(host.Options) (host.Host, error) {
		return nil, errors.New("unreachable")
	}

	assert.Error(t, app.connect())
	h, c := app.current()
	assert.Nil(t, h)
	assert.Nil(t, c)

	// Refreshing without a connection is a no-op.
	assert.NotPanics(t, func() { app.refresh(true) })
}

func TestSettings_ModeLabels(t *testing.T) {
	app, _, _ := setupTestApp(t)
	for _, mode := range config.HostModes {
		assert.Equal(t, mode, app.modeFromLabel(app.modeLabel(mode)))
	}
}

func TestItemRow_Recycled(t *testing.T) {
	row := newItemRow()

	updateItemRow(row, engine.MenuItem{Category: "entree", Name: "Pizza", Description: "Cheese", Image: "https://example.com/pizza.png"})
	text := row.(*fyne.Container).Objects[0].(*fyne.Container)
	assert.Equal(t, "Pizza", text.Objects[1].(*widget.Label).Text)
	assert.True(t, text.Objects[2].Visible())

	updateItemRow(row, engine.MenuItem{Category: "milk", Name: "1% Milk"})
	assert.Equal(t, "1% Milk", text.Objects[1].(*widget.Label).Text)
	assert.False(t, text.Objects[2].Visible(), "empty descriptions are hidden")

	slot := row.(*fyne.Container).Objects[1].(*fyne.Container)
	require.Len(t, slot.Objects, 1)
	assert.False(t, slot.Objects[0].Visible(), "items without an image leave the slot empty")
}
