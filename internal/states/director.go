// Package states holds the concrete game states the server registers:
// the hand-written title and diagnostics screens and the bridge that turns
// a Lua table into a state. States never switch the machine themselves;
// they request transitions through the Director and the engine applies
// them between ticks.
package states

// Director queues a transition request for the engine to apply between
// ticks. Implemented by the engine; states and scripts only see this.
type Director interface {
	RequestTransition(name string)
}
