// Package host adapts the dashboard runtime the card lives in: a state store
// read by entity id, a command channel for service calls, and change
// notifications. The card core only sees these interfaces.
package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

var (
	ErrEntityNotFound = errors.New(config.ErrEntityNotFound)
	ErrUnknownService = errors.New(config.ErrUnknownService)
	ErrInvalidDate    = errors.New(config.ErrInvalidDate)
	ErrHostMode       = errors.New(config.ErrHostMode)
)

// Command is an outbound service call.
// ID only correlates log lines; it is not sent upstream.
type Command struct {
	ID       uuid.UUID `json:"-"`
	Domain   string    `json:"-"`
	Service  string    `json:"-"`
	EntityID string    `json:"entity_id"`
	Date     string    `json:"date"`
}

// SetDate builds the upstream date-change command. date is a YYYY-MM-DD key
// or one of the literals "today" and "tomorrow".
func SetDate(entityID, date string) Command {
	return Command{
		ID:       uuid.New(),
		Domain:   config.ServiceDomain,
		Service:  config.ServiceSetDate,
		EntityID: entityID,
		Date:     date,
	}
}

// StateReader reads the current attributes of an entity.
// present is false when the store has no such entity.
type StateReader interface {
	EntityState(ctx context.Context, entityID string) (attrs *engine.Attributes, present bool, err error)
}

// Dispatcher sends a command upstream without waiting for its effect.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) error
}

// Subscriber signals that a new state snapshot may be available.
// The channel is closed when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// Host is the full runtime surface.
type Host interface {
	StateReader
	Dispatcher
	Subscriber
}

// EntityState is the state-store record of one entity.
type EntityState struct {
	EntityID    string            `json:"entity_id"`
	State       string            `json:"state"`
	Attributes  engine.Attributes `json:"attributes"`
	LastChanged string            `json:"last_changed,omitempty"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

// Options selects and parameterizes a Host implementation.
type Options struct {
	Mode         string
	URL          string
	Token        string
	StateFile    string
	PollInterval time.Duration
	Clock        engine.Clock
}

// New builds the Host for opts.Mode.
func New(opts Options) (Host, error) {
	if opts.Clock == nil {
		opts.Clock = engine.RealClock{}
	}

	switch opts.Mode {
	case config.HostModeDemo, "":
		h := NewMemoryHost(opts.Clock)
		h.Publish(config.DemoEntity, DemoAttributes(opts.Clock, config.DemoDays))
		return h, nil
	case config.HostModeFile:
		h, err := NewFileHost(opts.StateFile, opts.Clock)
		if err != nil {
			return nil, err
		}
		return h, nil
	case config.HostModeREST:
		h, err := NewRESTHost(opts.URL, opts.Token)
		if err != nil {
			return nil, err
		}
		if opts.PollInterval > 0 {
			h.PollInterval = opts.PollInterval
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrHostMode, opts.Mode)
	}
}

// ResolveDate applies the upstream set_date semantics: "today", "tomorrow"
// (case-insensitive) or an ISO date.
func ResolveDate(value string, clock engine.Clock) (engine.Cursor, error) {
	now := clock.Now()
	switch strings.ToLower(strings.TrimSpace(value)) {
	case config.CommandToday:
		return engine.CursorAt(now), nil
	case config.CommandTomorrow:
		return engine.CursorAt(now).AddDays(1), nil
	}

	c, err := engine.ParseKey(value, now.Location())
	if err != nil {
		return engine.Cursor{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return c, nil
}

func checkService(cmd Command) error {
	if cmd.Domain != config.ServiceDomain || cmd.Service != config.ServiceSetDate {
		return fmt.Errorf("%w: %s.%s", ErrUnknownService, cmd.Domain, cmd.Service)
	}
	return nil
}

// broadcaster fans change signals out to subscribers without ever blocking.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, config.ChannelBufferSize)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan struct{}]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; the consumer will re-read everything.
		}
	}
}
