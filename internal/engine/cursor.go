package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-schoolmenu/internal/config"
)

var (
	// ErrInvalidDirection is returned by Step for anything but -1 or +1.
	ErrInvalidDirection = errors.New(config.ErrInvalidDirection)

	// ErrDateKey is returned when a string is not a YYYY-MM-DD calendar date.
	ErrDateKey = errors.New(config.ErrDateKey)
)

// Cursor is the day currently shown by a card.
// It is always pinned to local midday so that timezone conversions and DST
// transitions can never move it across a date boundary.
// The zero value means "no cursor yet".
type Cursor struct {
	t time.Time
}

// CursorAt returns the cursor for the calendar day of t, in t's location.
func CursorAt(t time.Time) Cursor {
	return CursorOn(t.Year(), t.Month(), t.Day(), t.Location())
}

// CursorOn builds a cursor from calendar fields. Out of range fields are
// normalized the way time.Date does (e.g. Feb 30 becomes Mar 1 or 2).
func CursorOn(year int, month time.Month, day int, loc *time.Location) Cursor {
	if loc == nil {
		loc = time.Local
	}
	return Cursor{t: time.Date(year, month, day, config.MiddayHour, 0, 0, 0, loc)}
}

// ParseKey parses a YYYY-MM-DD string field by field into a midday cursor.
// Impossible dates such as 2023-02-29 are rejected.
func ParseKey(key string, loc *time.Location) (Cursor, error) {
	parts := strings.Split(strings.TrimSpace(key), config.DateKeySeparator)
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("%w: %q", ErrDateKey, key)
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Cursor{}, fmt.Errorf("%w: %q", ErrDateKey, key)
		}
		fields[i] = n
	}

	c := CursorOn(fields[0], time.Month(fields[1]), fields[2], loc)
	y, m, d := c.t.Date()
	if y != fields[0] || int(m) != fields[1] || d != fields[2] {
		return Cursor{}, fmt.Errorf("%w: %q", ErrDateKey, key)
	}
	return c, nil
}

// IsZero reports whether the cursor was never set.
func (c Cursor) IsZero() bool {
	return c.t.IsZero()
}

// Time returns the underlying midday instant.
func (c Cursor) Time() time.Time {
	return c.t
}

// Key formats the cursor as YYYY-MM-DD from its own local fields, never from UTC.
func (c Cursor) Key() string {
	y, m, d := c.t.Date()
	return fmt.Sprintf(config.DateKeyFormat, y, int(m), d)
}

// Weekday returns the weekday of the cursor's calendar date.
func (c Cursor) Weekday() time.Weekday {
	return c.t.Weekday()
}

// AddDays moves the cursor by whole calendar days, keeping it at midday.
func (c Cursor) AddDays(n int) Cursor {
	y, m, d := c.t.Date()
	return CursorOn(y, m, d+n, c.t.Location())
}

// Bootstrap returns the initial cursor: today, or tomorrow once lunch is over
// (local hour >= 13).
func Bootstrap(clock Clock) Cursor {
	now := clock.Now()
	c := CursorAt(now)
	if now.Hour() >= config.AfternoonCutoffHour {
		c = c.AddDays(1)
	}
	return c
}

// Reconcile applies a host state push to the prior cursor.
// A parseable target_date always wins; otherwise the prior cursor is kept,
// and a missing prior cursor is bootstrapped from the clock.
func Reconcile(prior Cursor, attrs *Attributes, clock Clock) Cursor {
	if attrs != nil && attrs.TargetDate != "" {
		c, err := ParseKey(attrs.TargetDate, clock.Now().Location())
		if err == nil {
			return c
		}
		slog.Debug(config.MsgTargetIgnored,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyValue, attrs.TargetDate,
			config.LogKeyError, err)
	}

	if !prior.IsZero() {
		return prior
	}

	c := Bootstrap(clock)
	slog.Debug(config.MsgCursorBoot,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyCursor, c.Key())
	return c
}

// Step returns the key of the day before (-1) or after (+1) the cursor.
// The cursor itself is left untouched: the new date only becomes visible once
// the upstream entity confirms it through target_date.
func Step(c Cursor, direction int) (string, error) {
	if direction != -1 && direction != 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}
	return c.AddDays(direction).Key(), nil
}

// Labels carries the localized strings used by Format.
type Labels struct {
	Today     string
	Tomorrow  string
	Yesterday string

	// Long renders any other date, e.g. "Tuesday, Mar 5".
	Long func(t time.Time) string
}

// DefaultLabels are the English labels used when no translator is wired.
var DefaultLabels = Labels{
	Today:     "Today",
	Tomorrow:  "Tomorrow",
	Yesterday: "Yesterday",
	Long: func(t time.Time) string {
		return t.Format(config.DateFormatLongEN)
	},
}

// Format returns the relative label of the cursor, comparing calendar dates only.
func Format(c Cursor, clock Clock, labels Labels) string {
	today := CursorAt(clock.Now())

	switch c.Key() {
	case today.Key():
		return labels.Today
	case today.AddDays(1).Key():
		return labels.Tomorrow
	case today.AddDays(-1).Key():
		return labels.Yesterday
	}

	if labels.Long == nil {
		return DefaultLabels.Long(c.t)
	}
	return labels.Long(c.t)
}
