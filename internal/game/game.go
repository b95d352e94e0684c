package game

// Game owns the registry and tracks which state is current. It is a plain
// value handed to whoever drives it; there is no package-level instance.
// All methods must be called from the single goroutine that runs the tick
// loop; the struct has no internal locking.
type Game struct {
	states  *Registry
	current string
}

// New builds a Game over the given registry and enters the initial state.
// Enter runs exactly once here, before the first Update or Render, so a
// returned Game is always fully initialized. An unknown initial identifier
// fails without entering anything.
func New(states *Registry, initial string) (*Game, error) {
	st, err := states.Lookup(initial)
	if err != nil {
		return nil, err
	}
	g := &Game{states: states, current: initial}
	if err := st.Enter(); err != nil {
		return nil, err
	}
	return g, nil
}

// Current returns the identifier of the live state.
func (g *Game) Current() string { return g.current }

// Update advances the current state by delta seconds. Exactly one state
// receives the call; errors from the state pass through unchanged.
func (g *Game) Update(delta float64) error {
	st, err := g.states.Lookup(g.current)
	if err != nil {
		return err
	}
	return st.Update(delta)
}

// Render asks the current state to draw itself. The delta parameter mirrors
// Update's and lets states run render-side interpolation.
func (g *Game) Render(delta float64) error {
	st, err := g.states.Lookup(g.current)
	if err != nil {
		return err
	}
	return st.Render(delta)
}

// Transition switches the live state. The target is validated before any
// hook runs, so an unknown identifier changes nothing. The outgoing state's
// Exit hook fires if it has one, then the identifier is swapped and the
// incoming state is entered. Transitioning to the current identifier
// restarts it: Exit (when present), then Enter again.
func (g *Game) Transition(identifier string) error {
	next, err := g.states.Lookup(identifier)
	if err != nil {
		return err
	}
	cur, err := g.states.Lookup(g.current)
	if err != nil {
		return err
	}
	if ex, ok := cur.(Exiter); ok {
		if err := ex.Exit(); err != nil {
			return err
		}
	}
	g.current = identifier
	return next.Enter()
}
