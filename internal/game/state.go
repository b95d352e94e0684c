// Package game implements the state machine at the heart of the engine:
// a fixed registry of named states and a Game value that dispatches the
// per-tick Update and Render calls to whichever state is current.
//
// This package is PURE game flow logic. It must NOT import infrastructure
// packages (network, storage, platform); states receive their dependencies
// at construction time.
package game

import (
	"fmt"
	"sort"
)

// State is one mutually-exclusive mode of the running application
// (title screen, gameplay, diagnostics...). Enter runs before the state
// receives its first Update or Render. Update and Render are called once
// per tick while the state is current; delta is the time elapsed since
// the previous tick, in seconds.
type State interface {
	Enter() error
	Update(delta float64) error
	Render(delta float64) error
}

// Exiter is an optional teardown hook. When the outgoing state of a
// transition implements it, Exit runs before the incoming state's Enter.
type Exiter interface {
	Exit() error
}

// UnknownStateError reports an identifier with no registry entry. This is
// an invariant violation, not a recoverable condition: the caller must
// stop the tick loop rather than skip the call, or Update and Render
// would drift out of step.
type UnknownStateError struct {
	Identifier string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown game state %q", e.Identifier)
}

// Registry is the fixed identifier → State mapping. The key set is closed
// at construction; nothing is added or removed afterwards.
type Registry struct {
	states map[string]State
}

// NewRegistry copies the given mapping into a read-only registry.
func NewRegistry(states map[string]State) *Registry {
	m := make(map[string]State, len(states))
	for name, st := range states {
		m[name] = st
	}
	return &Registry{states: m}
}

// Lookup resolves an identifier to its state. The same identifier always
// yields the same instance for the lifetime of the registry.
func (r *Registry) Lookup(identifier string) (State, error) {
	st, ok := r.states[identifier]
	if !ok {
		return nil, &UnknownStateError{Identifier: identifier}
	}
	return st, nil
}

// Names returns every registered identifier in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.states))
	for name := range r.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
