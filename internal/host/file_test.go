package host_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

func writeSnapshot(t *testing.T, path string, states []host.EntityState) {
	t.Helper()
	data, err := json.Marshal(states)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, config.FilePermConfig))
}

func TestFileHost_EntityState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	h, err := host.NewFileHost(path, thursdayMorning)
	require.NoError(t, err)

	// Missing file reads as an empty store.
	_, present, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.False(t, present)

	writeSnapshot(t, path, []host.EntityState{{EntityID: "sensor.lunch", State: "Pizza", Attributes: sampleAttributes()}})

	attrs, present, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	require.True(t, present)
	assert.Len(t, attrs.Days, 2)
	assert.Empty(t, attrs.TargetDate)
}

func TestFileHost_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), config.FilePermConfig))

	h, err := host.NewFileHost(path, thursdayMorning)
	require.NoError(t, err)

	_, present, err := h.EntityState(context.Background(), "sensor.lunch")
	assert.False(t, present)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrStateDecode)
}

func TestFileHost_Dispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	writeSnapshot(t, path, []host.EntityState{
		{EntityID: "sensor.lunch", Attributes: sampleAttributes()},
		{EntityID: "sensor.breakfast", Attributes: sampleAttributes()},
	})

	h, err := host.NewFileHost(path, thursdayMorning)
	require.NoError(t, err)

	require.NoError(t, h.Dispatch(context.Background(), host.SetDate("sensor.lunch", "tomorrow")))

	attrs, _, err := h.EntityState(context.Background(), "sensor.lunch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", attrs.TargetDate)
	assert.Len(t, attrs.Days, 2, "other attributes survive the rewrite")

	var states []host.EntityState
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &states))
	assert.Equal(t, "1 Entrees Available", states[0].State)

	other, _, err := h.EntityState(context.Background(), "sensor.breakfast")
	require.NoError(t, err)
	assert.Empty(t, other.TargetDate)

	err = h.Dispatch(context.Background(), host.SetDate("sensor.dinner", "today"))
	assert.ErrorIs(t, err, host.ErrEntityNotFound)

	err = h.Dispatch(context.Background(), host.SetDate("sensor.lunch", "someday"))
	assert.ErrorIs(t, err, host.ErrInvalidDate)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileHost_Subscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	h, err := host.NewFileHost(path, thursdayMorning)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := h.Subscribe(ctx)
	require.NoError(t, err)

	writeSnapshot(t, path, []host.EntityState{{EntityID: "sensor.lunch", Attributes: sampleAttributes()}})

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal after writing the snapshot")
	}

	// Writes to sibling files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("[]"), config.FilePermConfig))
	select {
	case <-ch:
		t.Fatal("unexpected signal for an unrelated file")
	case <-time.After(3 * config.WatchDebounce):
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileHost_Empty(t *testing.T) {
	h, err := host.NewFileHost("", nil)
	assert.ErrorIs(t, err, host.ErrStateFileEmpty)
	assert.Nil(t, h)
}
