package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// ErrStateFileEmpty is returned when file mode has no snapshot path.
var ErrStateFileEmpty = errors.New(config.ErrStateFileEmpty)

// FileHost serves entity states from a JSON snapshot (the array returned by
// the Home Assistant /api/states endpoint). Commands rewrite target_date in
// the snapshot; the file watcher then pushes the change like any other edit.
type FileHost struct {
	Path  string
	Clock engine.Clock

	mu sync.Mutex // serializes read-modify-write cycles
}

// NewFileHost validates the snapshot path. The file itself may not exist yet.
func NewFileHost(path string, clock engine.Clock) (*FileHost, error) {
	if path == "" {
		return nil, ErrStateFileEmpty
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStateFileRead, err)
	}
	if clock == nil {
		clock = engine.RealClock{}
	}
	return &FileHost{Path: abs, Clock: clock}, nil
}

func (h *FileHost) load() ([]EntityState, error) {
	data, err := os.ReadFile(h.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStateFileRead, err)
	}

	var states []EntityState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStateDecode, err)
	}
	return states, nil
}

// store writes through a temporary file so readers never see a partial snapshot.
func (h *FileHost) store(states []EntityState) error {
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStateFileWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.Path), filepath.Base(h.Path)+".*")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStateFileWrite, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", config.ErrStateFileWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStateFileWrite, err)
	}
	if err := os.Chmod(tmp.Name(), config.FilePermConfig); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStateFileWrite, err)
	}
	return os.Rename(tmp.Name(), h.Path)
}

// EntityState reads the snapshot and returns the entity's attributes.
func (h *FileHost) EntityState(_ context.Context, entityID string) (*engine.Attributes, bool, error) {
	h.mu.Lock()
	states, err := h.load()
	h.mu.Unlock()
	if err != nil {
		return nil, false, err
	}

	for i := range states {
		if states[i].EntityID == entityID {
			attrs := states[i].Attributes
			return &attrs, true, nil
		}
	}
	return nil, false, nil
}

// Dispatch applies set_date to the snapshot.
func (h *FileHost) Dispatch(_ context.Context, cmd Command) error {
	if err := checkService(cmd); err != nil {
		return err
	}
	target, err := ResolveDate(cmd.Date, h.Clock)
	if err != nil {
		slog.Error(config.ErrInvalidDate,
			config.LogKeyComponent, config.CompHost,
			config.LogKeyCommand, cmd.ID.String(),
			config.LogKeyValue, cmd.Date)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	states, err := h.load()
	if err != nil {
		return err
	}

	found := false
	for i := range states {
		if states[i].EntityID == cmd.EntityID {
			attrs := &states[i].Attributes
			attrs.TargetDate = target.Key()
			states[i].State = engine.StateValue(attrs.Days, attrs.TargetDate, attrs.Categories)
			states[i].LastUpdated = h.Clock.Now().UTC().Format(time.RFC3339Nano)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, cmd.EntityID)
	}

	if err := h.store(states); err != nil {
		return err
	}

	slog.Info(config.MsgCommandApplied,
		config.LogKeyComponent, config.CompHost,
		config.LogKeyCommand, cmd.ID.String(),
		config.LogKeyEntity, cmd.EntityID,
		config.LogKeyDate, target.Key())
	return nil
}

// Subscribe watches the snapshot's directory, so that editors replacing the
// file by rename are noticed, and signals once per burst of writes.
func (h *FileHost) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	dir := filepath.Dir(h.Path)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrWatch, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrWatch, err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrWatch, err)
	}

	events := make(chan struct{}, config.ChannelBufferSize)
	log := slog.With(
		config.LogKeyComponent, config.CompHost,
		config.LogKeyFile, h.Path,
	)

	go func() {
		defer close(events)
		defer func() { _ = watcher.Close() }()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != h.Path {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					pending = time.After(config.WatchDebounce)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Force a re-read; the snapshot may have changed unnoticed.
				log.Warn(config.ErrWatch, config.LogKeyError, err)
				pending = time.After(config.WatchDebounce)

			case <-pending:
				pending = nil
				log.Debug(config.MsgSnapshotChanged)
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events, nil
}
