// Package card is a single menu card instance: it keeps the date cursor,
// turns host state pushes into a localized View and sends navigation
// commands upstream.
package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

// CardSize is the layout weight reported to the host.
const CardSize = config.CardSize

var ErrNotConfigured = errors.New(config.ErrNotConfigured)

// StubConfig is the configuration offered when a card is first added.
func StubConfig() engine.CardConfig {
	return engine.StubConfig()
}

// View is everything a renderer needs to draw the card.
type View struct {
	Configured bool           `json:"configured"`
	Title      string         `json:"title"`
	DateLabel  string         `json:"date_label,omitempty"`
	CursorKey  string         `json:"cursor_key,omitempty"`
	Outcome    engine.Outcome `json:"outcome"`

	// Message is the main status line. For a holiday it is the holiday name.
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Card holds the per-instance state. It is safe for concurrent use: the UI
// thread and the host subscription both drive it.
type Card struct {
	Clock      engine.Clock
	Dispatcher host.Dispatcher
	Translator *Translator

	mu         sync.Mutex
	cfg        engine.CardConfig
	configured bool
	cursor     engine.Cursor
	last       View
}

// New creates an unconfigured card. A nil translator falls back to English.
func New(clock engine.Clock, dispatcher host.Dispatcher, tr *Translator) *Card {
	if clock == nil {
		clock = engine.RealClock{}
	}
	if tr == nil {
		tr = NewTranslator(config.DefaultLanguage)
	}
	return &Card{Clock: clock, Dispatcher: dispatcher, Translator: tr}
}

// SetConfig validates and stores the card configuration.
func (c *Card) SetConfig(cfg engine.CardConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.Categories = append([]string(nil), cfg.Categories...)

	c.mu.Lock()
	c.cfg = cfg
	c.configured = true
	c.mu.Unlock()

	slog.Info(config.MsgConfigSet,
		config.LogKeyComponent, config.CompCard,
		config.LogKeyEntity, cfg.Entity)
	return nil
}

// Config returns a copy of the active configuration.
func (c *Card) Config() engine.CardConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.cfg
	cfg.Categories = append([]string(nil), c.cfg.Categories...)
	return cfg
}

// Cursor returns the currently displayed date.
func (c *Card) Cursor() engine.Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Last returns the most recently built view.
func (c *Card) Last() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Size is the layout weight of the card.
func (c *Card) Size() int {
	return CardSize
}

// Refresh reads the entity from the host and applies it. A read failure is
// shown as loading; it is only logged.
func (c *Card) Refresh(ctx context.Context, reader host.StateReader) View {
	view, _ := c.Pull(ctx, reader)
	return view
}

// Pull is Refresh that also returns the attributes it applied, nil when the
// entity was missing or unreadable.
func (c *Card) Pull(ctx context.Context, reader host.StateReader) (View, *engine.Attributes) {
	cfg := c.Config()
	if cfg.Entity == "" {
		return c.Apply(nil, false), nil
	}

	attrs, present, err := reader.EntityState(ctx, cfg.Entity)
	if err != nil {
		slog.Warn(config.ErrStateRead,
			config.LogKeyComponent, config.CompCard,
			config.LogKeyEntity, cfg.Entity,
			config.LogKeyError, err)
		return c.Apply(nil, true), nil
	}
	return c.Apply(attrs, present), attrs
}

// Apply handles one state push: reconcile the cursor, resolve the outcome and
// localize it.
func (c *Card) Apply(attrs *engine.Attributes, present bool) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	title := c.cfg.Title
	if title == "" {
		title = config.DefaultTitle
	}

	if !c.configured {
		slog.Debug(config.MsgNotConfigured, config.LogKeyComponent, config.CompCard)
		c.last = View{
			Title:   title,
			Message: c.Translator.Msg(config.TKeyErrEntityReq, nil),
		}
		return c.last
	}

	view := View{Configured: true, Title: title}

	// The date display is left as it was while the entity is missing.
	if present {
		c.cursor = engine.Reconcile(c.cursor, attrs, c.Clock)
	}
	if !c.cursor.IsZero() {
		view.CursorKey = c.cursor.Key()
		view.DateLabel = engine.Format(c.cursor, c.Clock, c.Translator.Labels())
	}

	view.Outcome = engine.Resolve(present, attrs, view.CursorKey, c.cfg)
	c.describe(&view)

	slog.Debug(config.MsgOutcome,
		config.LogKeyComponent, config.CompCard,
		config.LogKeyEntity, c.cfg.Entity,
		config.LogKeyCursor, view.CursorKey,
		config.LogKeyOutcome, view.Outcome.Kind.String())

	c.last = view
	return view
}

func (c *Card) describe(v *View) {
	tr := c.Translator
	label := map[string]any{"Label": v.DateLabel}

	switch v.Outcome.Kind {
	case engine.KindMissingEntity:
		v.Message = tr.Msg(config.TKeyMissingEntity, map[string]any{"EntityID": c.cfg.Entity})
	case engine.KindLoading:
		v.Message = tr.Msg(config.TKeyLoading, map[string]any{"Date": v.CursorKey})
	case engine.KindDayNotFound:
		v.Message = tr.Msg(config.TKeyDayNotFound, label)
	case engine.KindHoliday:
		v.Message = v.Outcome.HolidayName
		v.Detail = tr.Msg(config.TKeyHolidayDetail, nil)
	case engine.KindWeekendEmpty:
		v.Message = tr.Msg(config.TKeyWeekendEmpty, nil)
	case engine.KindNoMenu:
		v.Message = tr.Msg(config.TKeyNoMenu, label)
	case engine.KindFilteredEmpty:
		v.Message = tr.Msg(config.TKeyFilteredEmpty, label)
	case engine.KindItems:
	default:
		slog.Error(config.MsgUnknownOutcome,
			config.LogKeyComponent, config.CompCard,
			config.LogKeyOutcome, v.Outcome.Kind.String())
	}
}

// Previous asks the upstream entity to show the day before the cursor.
func (c *Card) Previous(ctx context.Context) error {
	return c.step(ctx, -1)
}

// Next asks the upstream entity to show the day after the cursor.
func (c *Card) Next(ctx context.Context) error {
	return c.step(ctx, 1)
}

// Today asks the upstream entity to jump back to the current date.
func (c *Card) Today(ctx context.Context) error {
	return c.dispatch(ctx, config.CommandToday)
}

// Goto asks the upstream entity to show an explicit date (YYYY-MM-DD, today
// or tomorrow).
func (c *Card) Goto(ctx context.Context, date string) error {
	return c.dispatch(ctx, date)
}

func (c *Card) step(ctx context.Context, direction int) error {
	c.mu.Lock()
	cur := c.cursor
	c.mu.Unlock()

	if cur.IsZero() {
		cur = engine.Bootstrap(c.Clock)
	}
	key, err := engine.Step(cur, direction)
	if err != nil {
		return err
	}
	return c.dispatch(ctx, key)
}

// dispatch sends set_date and returns without waiting for the new state; the
// cursor only moves when the host pushes the confirmed target_date.
func (c *Card) dispatch(ctx context.Context, date string) error {
	c.mu.Lock()
	entity, ok := c.cfg.Entity, c.configured
	c.mu.Unlock()

	if !ok {
		return ErrNotConfigured
	}
	if c.Dispatcher == nil {
		return fmt.Errorf("%s: %w", config.ErrDispatch, ErrNotConfigured)
	}

	cmd := host.SetDate(entity, date)
	if err := c.Dispatcher.Dispatch(ctx, cmd); err != nil {
		slog.Error(config.ErrDispatch,
			config.LogKeyComponent, config.CompCard,
			config.LogKeyCommand, cmd.ID.String(),
			config.LogKeyEntity, entity,
			config.LogKeyDate, date,
			config.LogKeyError, err)
		return fmt.Errorf("%s: %w", config.ErrDispatch, err)
	}
	return nil
}
