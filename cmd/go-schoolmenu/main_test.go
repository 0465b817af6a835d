package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
	"github.com/tartampluch/go-schoolmenu/internal/server"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

var thursdayMorning = MockClock{CurrentTime: time.Date(2024, 3, 14, 9, 30, 0, 0, time.Local)}

// newTestCLI returns a cli on the demo host with a fixed clock. Logs go to a
// temporary cache directory.
func newTestCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := newCLI()
	c.clock = thursdayMorning
	require.NoError(t, card.Register(c.registry))
	return c
}

// execute runs the root command and returns what it printed.
func execute(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(c)
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileExt), []byte(content), config.FilePermConfig))
}

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

func TestLoadSettings_WritesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, config.ConfigFileExt))

	assert.Equal(t, config.HostModeDemo, s.Host.Mode)
	assert.Equal(t, config.DefaultTitle, s.Card.Title)
	assert.Equal(t, []string{config.DefaultCategory}, s.Card.Categories)
	assert.Empty(t, s.Card.Entity)
	assert.Equal(t, time.Minute, s.Host.PollInterval)
	assert.Equal(t, config.DefaultPort, s.Server.Port)
	assert.Equal(t, config.DefaultLanguage, s.Language)
}

func TestLoadSettings_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
card:
  entity: sensor.lincoln_lunch
  title: Lincoln
  categories: [entree, milk]
host:
  mode: rest
  url: http://homeassistant.local:8123
  poll_interval: 2m
server:
  port: "9090"
language: fr
`)
	t.Setenv("SCHOOLMENU_CARD_TITLE", "From Env")

	s, err := loadSettings(dir)
	require.NoError(t, err)

	assert.Equal(t, "sensor.lincoln_lunch", s.Card.Entity)
	assert.Equal(t, "From Env", s.Card.Title, "environment overrides the file")
	assert.Equal(t, []string{"entree", "milk"}, s.Card.Categories)
	assert.Equal(t, config.HostModeREST, s.Host.Mode)
	assert.Equal(t, "http://homeassistant.local:8123", s.Host.URL)
	assert.Equal(t, 2*time.Minute, s.Host.PollInterval)
	assert.Equal(t, "9090", s.Server.Port)
	assert.Equal(t, "fr", s.Language)
}

func TestLoadSettings_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "card: [unclosed\n")

	_, err := loadSettings(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrConfigRead)
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func TestShow_DemoToday(t *testing.T) {
	c := newTestCLI(t)

	out, err := execute(t, c, "--config-dir", t.TempDir(), "--no-color", "show")
	require.NoError(t, err)

	assert.Contains(t, out, config.DefaultTitle)
	assert.Contains(t, out, "Today")
	assert.Contains(t, out, "Spaghetti & Meatballs")
	assert.NotContains(t, out, "Garden Salad", "only entrees are listed by default")
}

func TestShow_ExplicitDate(t *testing.T) {
	c := newTestCLI(t)

	out, err := execute(t, c, "--config-dir", t.TempDir(), "--no-color", "show", "--date", "2024-03-15")
	require.NoError(t, err)

	assert.Contains(t, out, "Tomorrow")
	assert.Contains(t, out, "Fish Sticks")
}

func TestShow_InvalidDate(t *testing.T) {
	c := newTestCLI(t)

	_, err := execute(t, c, "--config-dir", t.TempDir(), "show", "--date", "someday")
	assert.Error(t, err)
}

func TestShow_RequiresEntityOutsideDemo(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
host:
  mode: file
  state_file: `+filepath.Join(dir, "states.json")+`
`)

	_, err := execute(t, c, "--config-dir", dir, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrNotConfigured)
}

func TestNav(t *testing.T) {
	tests := []struct {
		target   string
		wantDate string
		wantItem string
	}{
		{config.NavNext, "Tomorrow", "Fish Sticks"},
		{config.NavPrev, "Yesterday", "Turkey Sandwich"},
		{config.NavToday, "Today", "Spaghetti & Meatballs"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			c := newTestCLI(t)
			out, err := execute(t, c, "--config-dir", t.TempDir(), "--no-color", "nav", tt.target)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantDate)
			assert.Contains(t, out, tt.wantItem)
		})
	}
}

func TestNavStep_Invalid(t *testing.T) {
	_, err := navStep("sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrNavTarget)

	step, err := navStep("NEXT")
	require.NoError(t, err)
	assert.NotNil(t, step)
}

func TestCards(t *testing.T) {
	c := newTestCLI(t)

	out, err := execute(t, c, "--no-color", "cards")
	require.NoError(t, err)
	assert.Contains(t, out, config.ColType)
	assert.Contains(t, out, config.CardType)
	assert.Contains(t, out, config.CardName)
}

func TestVersion(t *testing.T) {
	c := newTestCLI(t)

	out, err := execute(t, c, "version")
	require.NoError(t, err)
	assert.Contains(t, out, config.AppName)
	assert.Contains(t, out, config.Version)
}

func TestServe_PublishesOnPush(t *testing.T) {
	mem := host.NewMemoryHost(thursdayMorning)
	mem.Publish(config.DemoEntity, host.DemoAttributes(thursdayMorning, config.DemoDays))

	mc := card.New(thursdayMorning, mem, card.NewTranslator("en"))
	require.NoError(t, mc.SetConfig(engine.CardConfig{Entity: config.DemoEntity}))

	// Port "0" binds to any free port.
	srv := server.NewFeedServer("0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, mem, mc, srv, thursdayMorning) }()

	get := func(route string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, route, nil))
		return rec
	}
	cursorKey := func() string {
		rec := get(config.RouteCard)
		if rec.Code != http.StatusOK {
			return ""
		}
		var v struct {
			CursorKey string `json:"cursor_key"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &v)
		return v.CursorKey
	}

	require.Eventually(t, func() bool { return cursorKey() == "2024-03-14" }, 2*time.Second, 10*time.Millisecond)

	feed := get(config.RouteRoot)
	require.Equal(t, http.StatusOK, feed.Code)
	assert.Contains(t, feed.Body.String(), "BEGIN:VCALENDAR")

	require.NoError(t, mc.Next(ctx))
	require.Eventually(t, func() bool { return cursorKey() == "2024-03-15" }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(config.ShutdownTimeout + time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
