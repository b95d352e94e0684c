// Package input models the virtual gamepad exposed to game states and
// scripts. This package is PURE domain logic: it knows nothing about
// websockets or recordings, it only folds button frames into held/pressed
// queries.
package input

// Button identifies one control on the virtual pad.
type Button uint8

const (
	BtnUp     Button = 0 // d-pad
	BtnDown   Button = 1
	BtnLeft   Button = 2
	BtnRight  Button = 3
	BtnA      Button = 4 // primary action
	BtnB      Button = 5 // secondary action
	BtnStart  Button = 6
	BtnSelect Button = 7
)

// ButtonCount is the number of physical controls on the pad.
const ButtonCount = 8

var buttonNames = [ButtonCount]string{
	"up", "down", "left", "right", "a", "b", "start", "select",
}

// Name returns the wire name of the button, or "?" when out of range.
func (b Button) Name() string {
	if int(b) >= ButtonCount {
		return "?"
	}
	return buttonNames[b]
}

// Frame is the full pad status for one tick, one bit per button.
type Frame uint8

// With returns a copy of the frame with the given button held.
func (f Frame) With(b Button) Frame {
	return f | Frame(1)<<b
}

// Without returns a copy of the frame with the given button released.
func (f Frame) Without(b Button) Frame {
	return f &^ (Frame(1) << b)
}

// Has reports whether the button is held in this frame.
func (f Frame) Has(b Button) bool {
	return f&(Frame(1)<<b) != 0
}

// Pad tracks the current and previous input frame so states can
// distinguish "held" from "just pressed". All methods must be called from
// the tick loop goroutine.
type Pad struct {
	current  Frame
	previous Frame
}

// NewPad returns a pad with every button released.
func NewPad() *Pad {
	return &Pad{}
}

// Step rolls the current frame into the previous one. The tick loop calls
// this once at the top of every tick, before applying fresh input.
func (p *Pad) Step() {
	p.previous = p.current
}

// Apply replaces the current frame. A tick without fresh input keeps the
// last applied frame, matching how a real pad holds its position.
func (p *Pad) Apply(f Frame) {
	p.current = f
}

// Frame returns the current frame as applied.
func (p *Pad) Frame() Frame {
	return p.current
}

// Held reports whether the button is down this tick.
func (p *Pad) Held(b Button) bool {
	return p.current.Has(b)
}

// Pressed reports whether the button went down this tick (edge trigger).
func (p *Pad) Pressed(b Button) bool {
	return p.current.Has(b) && !p.previous.Has(b)
}

// Released reports whether the button went up this tick.
func (p *Pad) Released(b Button) bool {
	return !p.current.Has(b) && p.previous.Has(b)
}

// Reset releases everything, clearing edges too.
func (p *Pad) Reset() {
	p.current = 0
	p.previous = 0
}
