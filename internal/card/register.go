package card

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

var (
	ErrDuplicateCard = errors.New(config.ErrDuplicateCard)
	ErrUnknownCard   = errors.New(config.ErrUnknownCard)
)

// Descriptor is what the host lists in its card picker.
type Descriptor struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Preview     bool   `json:"preview"`
}

// Deps are the collaborators handed to every new card.
type Deps struct {
	Clock      engine.Clock
	Dispatcher host.Dispatcher
	Translator *Translator
}

// Factory builds a fresh card instance.
type Factory func(Deps) *Card

// Registry maps card types to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

type registration struct {
	desc    Descriptor
	factory Factory
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Add registers a card type once.
func (r *Registry) Add(desc Descriptor, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[desc.Type]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, desc.Type)
	}
	r.entries[desc.Type] = registration{desc: desc, factory: factory}

	slog.Debug(config.MsgCardRegistered,
		config.LogKeyComponent, config.CompCard,
		config.LogKeyCardType, desc.Type)
	return nil
}

// Create instantiates a registered card type.
func (r *Registry) Create(cardType string, deps Deps) (*Card, error) {
	r.mu.RLock()
	reg, ok := r.entries[cardType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, cardType)
	}
	return reg.factory(deps), nil
}

// Descriptors lists the registered card types sorted by type.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Describe returns the descriptor of the menu card.
func Describe() Descriptor {
	return Descriptor{
		Type:        config.CardType,
		Name:        config.CardName,
		Description: config.CardDescription,
		Preview:     config.CardPreview,
	}
}

// Register adds the menu card to r. Registering twice is an error.
func Register(r *Registry) error {
	return r.Add(Describe(), func(d Deps) *Card {
		return New(d.Clock, d.Dispatcher, d.Translator)
	})
}
