package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

func sampleAttributes() engine.Attributes {
	return engine.Attributes{
		Categories: []string{"entree"},
		Days: []engine.DayRecord{
			{Date: "2024-03-14", HasMenu: true, MenuItems: []engine.MenuItem{{Category: "entree", Name: "Pizza"}}},
			{Date: "2024-03-15", HasMenu: true, MenuItems: []engine.MenuItem{{Category: "entree", Name: "Tacos"}}},
		},
	}
}

func TestMemoryHost_EntityState(t *testing.T) {
	h := host.NewMemoryHost(thursdayMorning)

	attrs, present, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Nil(t, attrs)

	h.Publish("sensor.lunch", sampleAttributes())

	attrs, present, err = h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "2024-03-14", attrs.TargetDate, "morning bootstrap is today")
	assert.Equal(t, "Pizza", attrs.TodayMenu)
	assert.Equal(t, "Tacos", attrs.TomorrowMenu)
}

func TestMemoryHost_Snapshot(t *testing.T) {
	ctx := context.Background()
	h := host.NewMemoryHost(thursdayMorning)

	_, ok := h.Snapshot("sensor.lunch")
	assert.False(t, ok)

	attrs := sampleAttributes()
	attrs.Days = append(attrs.Days, engine.DayRecord{Date: "2024-03-16"})
	h.Publish("sensor.lunch", attrs)

	st, ok := h.Snapshot("sensor.lunch")
	require.True(t, ok)
	assert.Equal(t, "sensor.lunch", st.EntityID)
	assert.Equal(t, "1 Entrees Available", st.State)
	assert.Equal(t, "2024-03-14", st.Attributes.TargetDate)

	require.NoError(t, h.Dispatch(ctx, host.SetDate("sensor.lunch", "2024-03-16")))
	st, _ = h.Snapshot("sensor.lunch")
	assert.Equal(t, "No Entrees/Weekend", st.State, "the state follows the active date")
}

func TestMemoryHost_AfternoonBootstrap(t *testing.T) {
	afternoon := MockClock{FixedTime: time.Date(2024, 3, 14, 14, 0, 0, 0, time.UTC)}
	h := host.NewMemoryHost(afternoon)
	h.Publish("sensor.lunch", sampleAttributes())

	attrs, _, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", attrs.TargetDate)
}

func TestMemoryHost_Dispatch(t *testing.T) {
	ctx := context.Background()
	h := host.NewMemoryHost(thursdayMorning)
	h.Publish("sensor.lunch", sampleAttributes())

	require.NoError(t, h.Dispatch(ctx, host.SetDate("sensor.lunch", "2024-03-20")))
	attrs, _, err := h.EntityState(ctx, "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", attrs.TargetDate)

	require.NoError(t, h.Dispatch(ctx, host.SetDate("sensor.lunch", "tomorrow")))
	attrs, _, err = h.EntityState(ctx, "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", attrs.TargetDate)

	// A refresh without its own target keeps the commanded date.
	h.Publish("sensor.lunch", sampleAttributes())
	attrs, _, err = h.EntityState(ctx, "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", attrs.TargetDate)
}

func TestMemoryHost_DispatchErrors(t *testing.T) {
	ctx := context.Background()
	h := host.NewMemoryHost(thursdayMorning)
	h.Publish("sensor.lunch", sampleAttributes())

	err := h.Dispatch(ctx, host.SetDate("sensor.other", "today"))
	assert.ErrorIs(t, err, host.ErrEntityNotFound)

	err = h.Dispatch(ctx, host.SetDate("sensor.lunch", "14/03/2024"))
	assert.ErrorIs(t, err, host.ErrInvalidDate)

	cmd := host.SetDate("sensor.lunch", "today")
	cmd.Service = "refresh"
	err = h.Dispatch(ctx, cmd)
	assert.ErrorIs(t, err, host.ErrUnknownService)

	// Nothing moved.
	attrs, _, err := h.EntityState(ctx, "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", attrs.TargetDate)
}

func TestMemoryHost_DoesNotLeakState(t *testing.T) {
	h := host.NewMemoryHost(thursdayMorning)
	h.Publish("sensor.lunch", sampleAttributes())

	attrs, _, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	attrs.TargetDate = "1999-01-01"
	attrs.Categories = nil

	again, _, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", again.TargetDate)
	assert.Equal(t, []string{"entree"}, again.Categories)
}

func TestMemoryHost_Subscribe(t *testing.T) {
	h := host.NewMemoryHost(thursdayMorning)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := h.Subscribe(ctx)
	require.NoError(t, err)

	h.Publish("sensor.lunch", sampleAttributes())
	// Signals coalesce; a second one must not block.
	h.Publish("sensor.lunch", sampleAttributes())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}

	require.NoError(t, h.Dispatch(context.Background(), host.SetDate("sensor.lunch", "today")))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal after dispatch")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)

	h.Remove("sensor.lunch")
	_, present, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.False(t, present)
}
