package config

import (
	"fmt"
	"sync"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/ports"
)

// ActorFactory builds an actor instance from a vertex-local id and its
// configured parameters.
type ActorFactory func(id string, params map[string]any) (ports.Actor, error)

// ActorRegistry is the factory/registration indirection Compile resolves
// a VertexConfig.Actor.Type through, grounded in the teacher's
// application.Registry (ports.UnitRegistry/UnitFactory pair) but keyed by
// the actor type string of a VertexConfig instead of a unit-type enum.
// The id handed to a factory is the VertexConfig.ID, not the type.
type ActorRegistry struct {
	mu        sync.RWMutex
	factories map[string]ActorFactory
}

// NewActorRegistry returns an empty registry.
func NewActorRegistry() *ActorRegistry {
	return &ActorRegistry{factories: make(map[string]ActorFactory)}
}

// RegisterFactory adds f under actorType. Panics on a duplicate
// registration, matching the teacher's Registry.Register: a duplicate
// indicates a programming error that should fail fast during init, not
// a runtime condition callers are expected to handle.
func (r *ActorRegistry) RegisterFactory(actorType string, f ActorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[actorType]; exists {
		panic(fmt.Sprintf("actor type %q already registered", actorType))
	}
	r.factories[actorType] = f
}

// Has reports whether actorType has a registered factory.
func (r *ActorRegistry) Has(actorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[actorType]
	return ok
}

// Create builds an actor of actorType, failing with
// *domain.ConfigurationError if actorType is unregistered.
func (r *ActorRegistry) Create(actorType, id string, params map[string]any) (ports.Actor, error) {
	r.mu.RLock()
	f, ok := r.factories[actorType]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewConfigurationError(fmt.Sprintf("actor type %q is not registered", actorType))
	}
	return f(id, params)
}
