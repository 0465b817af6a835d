package ui

import (
	"errors"
	"strconv"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-schoolmenu/internal/config"
)

// maxPortDigits is the length of the largest TCP port.
const maxPortDigits = 5

// NumericalEntry is an Entry that only accepts digits, capped to MaxDigits
// when MaxDigits is positive.
type NumericalEntry struct {
	widget.Entry
	MaxDigits int
}

// NewNumericalEntry creates a new instance of NumericalEntry.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewPortEntry returns a NumericalEntry validating TCP ports. The messages
// function receives the translation key of the failure.
func NewPortEntry(messages func(key string) string) *NumericalEntry {
	entry := NewNumericalEntry()
	entry.MaxDigits = maxPortDigits
	entry.Validator = func(s string) error {
		if s == "" {
			return errors.New(messages(config.TKeyErrPortReq))
		}
		port, err := strconv.Atoi(s)
		if err != nil {
			return errors.New(messages(config.TKeyErrPortNum))
		}
		if port < config.MinPort || port > config.MaxPort {
			return errors.New(messages(config.TKeyErrPortRange))
		}
		return nil
	}
	return entry
}

// TypedRune drops everything but digits. Pasted text bypasses this filter,
// so the Validator still has the last word.
func (e *NumericalEntry) TypedRune(r rune) {
	if r < '0' || r > '9' {
		return
	}
	if e.MaxDigits > 0 && len(e.Text) >= e.MaxDigits {
		return
	}
	e.Entry.TypedRune(r)
}

// Keyboard requests the numeric keypad on mobile devices.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}
