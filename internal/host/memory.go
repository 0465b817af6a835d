package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// MemoryHost is an in-process state store that also plays the upstream
// integration: it answers set_date commands by moving the entity's
// target_date and pushing a new snapshot.
type MemoryHost struct {
	Clock engine.Clock

	mu       sync.RWMutex
	entities map[string]*memoryEntity
	events   broadcaster
}

type memoryEntity struct {
	attrs  engine.Attributes
	target engine.Cursor // zero until a set_date command arrives
}

// NewMemoryHost creates an empty store.
func NewMemoryHost(clock engine.Clock) *MemoryHost {
	if clock == nil {
		clock = engine.RealClock{}
	}
	return &MemoryHost{
		Clock:    clock,
		entities: make(map[string]*memoryEntity),
	}
}

// Publish replaces the attributes of an entity, as an upstream refresh would.
// A previously commanded date survives the refresh unless attrs carries its own
// target_date.
func (h *MemoryHost) Publish(entityID string, attrs engine.Attributes) {
	h.mu.Lock()
	e, ok := h.entities[entityID]
	if !ok {
		e = &memoryEntity{}
		h.entities[entityID] = e
	}
	e.attrs = attrs
	if attrs.TargetDate != "" {
		if c, err := engine.ParseKey(attrs.TargetDate, h.Clock.Now().Location()); err == nil {
			e.target = c
		}
	}
	h.mu.Unlock()

	h.events.notify()
}

// Remove deletes an entity from the store.
func (h *MemoryHost) Remove(entityID string) {
	h.mu.Lock()
	delete(h.entities, entityID)
	h.mu.Unlock()

	h.events.notify()
}

// EntityState returns the attributes of Snapshot.
func (h *MemoryHost) EntityState(_ context.Context, entityID string) (*engine.Attributes, bool, error) {
	st, ok := h.Snapshot(entityID)
	if !ok {
		return nil, false, nil
	}
	return &st.Attributes, true, nil
}

// Snapshot returns the full record of the entity as the upstream sensor
// reports it: the active target_date, today/tomorrow summaries and the state
// value for the active date.
func (h *MemoryHost) Snapshot(entityID string) (EntityState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entities[entityID]
	if !ok {
		return EntityState{}, false
	}

	attrs := e.attrs
	active := e.target
	if active.IsZero() {
		// Past lunchtime the integration already shows tomorrow.
		active = engine.Bootstrap(h.Clock)
	}
	attrs.TargetDate = active.Key()

	today := engine.CursorAt(h.Clock.Now())
	if attrs.TodayMenu == "" {
		attrs.TodayMenu = engine.SummaryFor(attrs.Days, today.Key())
	}
	if attrs.TomorrowMenu == "" {
		attrs.TomorrowMenu = engine.SummaryFor(attrs.Days, today.AddDays(1).Key())
	}
	return EntityState{
		EntityID:   entityID,
		State:      engine.StateValue(attrs.Days, attrs.TargetDate, attrs.Categories),
		Attributes: attrs,
	}, true
}

// Dispatch applies a set_date command. An invalid date is logged and ignored
// the way the upstream service does, but is still reported to the caller.
func (h *MemoryHost) Dispatch(_ context.Context, cmd Command) error {
	log := slog.With(
		config.LogKeyComponent, config.CompHost,
		config.LogKeyCommand, cmd.ID.String(),
		config.LogKeyEntity, cmd.EntityID,
	)

	if err := checkService(cmd); err != nil {
		return err
	}

	target, err := ResolveDate(cmd.Date, h.Clock)
	if err != nil {
		log.Error(config.ErrInvalidDate, config.LogKeyValue, cmd.Date)
		return err
	}

	h.mu.Lock()
	e, ok := h.entities[cmd.EntityID]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityNotFound, cmd.EntityID)
	}
	e.target = target
	h.mu.Unlock()

	log.Info(config.MsgCommandApplied, config.LogKeyDate, target.Key())
	h.events.notify()
	return nil
}

// Subscribe signals after every Publish, Remove and applied command.
func (h *MemoryHost) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	return h.events.subscribe(ctx), nil
}
