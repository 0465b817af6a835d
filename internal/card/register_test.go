package card_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

func TestRegister(t *testing.T) {
	r := card.NewRegistry()
	require.NoError(t, card.Register(r))
	assert.ErrorIs(t, card.Register(r), card.ErrDuplicateCard)

	descs := r.Descriptors()
	require.Len(t, descs, 1)

	var buf bytes.Buffer
	require.NoError(t, card.TextPrinter{NoColor: true}.PrintDescriptors(&buf, descs))
	assert.Contains(t, buf.String(), "nutrislice-card")
	assert.Contains(t, buf.String(), "Nutrislice Menu Card")

	assert.Equal(t, card.Descriptor{
		Type:        "nutrislice-card",
		Name:        "Nutrislice Menu Card",
		Description: "A card to display school lunch menus from the Nutrislice integration.",
		Preview:     true,
	}, descs[0])

	c, err := r.Create("nutrislice-card", card.Deps{Clock: thursday})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, thursday, c.Clock)

	_, err = r.Create("weather-card", card.Deps{})
	assert.ErrorIs(t, err, card.ErrUnknownCard)
}

func TestTextPrinter(t *testing.T) {
	c := newCard(t, nil)
	var buf bytes.Buffer

	require.NoError(t, card.TextPrinter{NoColor: true}.Print(&buf, c.Apply(week(), true)))
	out := buf.String()
	assert.Contains(t, out, "School Menu\n")
	assert.Contains(t, out, "Today  (2024-03-14)")
	assert.Contains(t, out, "Pizza")
	assert.Contains(t, out, "Cheese")
	assert.NotContains(t, out, "Apple")
	assert.NotContains(t, out, "\x1b[", "no escape codes when color is off")

	attrs := week()
	attrs.TargetDate = "2024-03-15"
	buf.Reset()
	require.NoError(t, card.TextPrinter{NoColor: true}.Print(&buf, c.Apply(attrs, true)))
	assert.Contains(t, buf.String(), "Spring Break")
	assert.Contains(t, buf.String(), "No school meal service today.")

	buf.Reset()
	require.NoError(t, card.TextPrinter{}.Print(&buf, card.View{Title: "T", Outcome: engine.Outcome{Kind: engine.KindLoading}, Message: "wait"}))
	assert.Contains(t, buf.String(), "\x1b[", "color is forced on for the writer")
}

// failingWriter rejects the write containing failOn, or the bare blank line
// when failOn is empty.
type failingWriter struct {
	failOn string
}

func (w failingWriter) Write(p []byte) (int, error) {
	if (w.failOn == "" && string(p) == "\n") || (w.failOn != "" && strings.Contains(string(p), w.failOn)) {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestTextPrinter_WriteErrors(t *testing.T) {
	holiday := card.View{
		Title:     "School Menu",
		DateLabel: "Today",
		CursorKey: "2024-03-15",
		Outcome:   engine.Outcome{Kind: engine.KindHoliday, HolidayName: "Spring Break"},
		Message:   "Spring Break",
		Detail:    "No school meal service today.",
	}
	loading := card.View{Title: "School Menu", Outcome: engine.Outcome{Kind: engine.KindLoading}, Message: "Loading menu..."}

	tests := []struct {
		name   string
		view   card.View
		failOn string
	}{
		{"BlankLine", loading, ""},
		{"HolidayMessage", holiday, "Spring Break"},
		{"HolidayDetail", holiday, "No school meal"},
		{"StatusMessage", loading, "Loading menu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := card.TextPrinter{NoColor: true}.Print(failingWriter{failOn: tt.failOn}, tt.view)
			assert.EqualError(t, err, "disk full")
		})
	}
}
