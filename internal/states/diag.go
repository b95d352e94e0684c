package states

import (
	"fmt"

	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
)

// DiagnosticsState is the service screen: palette swatches, live pad
// readout and the registered state list. Reached through the control API
// or by pressing Select on the title screen; B backs out to the title.
type DiagnosticsState struct {
	screen *gfx.Screen
	pad    *input.Pad
	font   *gfx.Font
	// stateNames is captured at construction; the registry is closed, so
	// the list can never go stale.
	stateNames []string
	director   Director
	ticks      int
}

var _ game.State = (*DiagnosticsState)(nil)

// NewDiagnosticsState builds the service screen.
func NewDiagnosticsState(screen *gfx.Screen, pad *input.Pad, font *gfx.Font, stateNames []string, director Director) *DiagnosticsState {
	return &DiagnosticsState{
		screen:     screen,
		pad:        pad,
		font:       font,
		stateNames: stateNames,
		director:   director,
	}
}

func (s *DiagnosticsState) Enter() error {
	s.ticks = 0
	return nil
}

func (s *DiagnosticsState) Update(delta float64) error {
	s.ticks++
	if s.pad.Pressed(input.BtnB) {
		s.director.RequestTransition("title")
	}
	return nil
}

func (s *DiagnosticsState) Render(delta float64) error {
	s.screen.Clear(0)

	// Palette swatches across the top
	swatch := s.screen.Width() / 24
	if swatch < 4 {
		swatch = 4
	}
	for i := 0; i < 16; i++ {
		s.screen.FillRect(4+i*(swatch+2), 4, swatch, swatch, uint8(i))
	}

	// Pad readout: one dot per button, lit while held
	for b := 0; b < input.ButtonCount; b++ {
		index := uint8(5)
		if s.pad.Held(input.Button(b)) {
			index = 11
		}
		s.screen.FillRect(4+b*10, 8+swatch, 6, 6, index)
	}

	if s.font != nil {
		y := 20 + swatch
		s.screen.DrawShadowText(s.font, "DIAGNOSTICS", 4, y, 10, 5)
		y += s.font.GlyphHeight + 4
		s.screen.DrawText(s.font, fmt.Sprintf("TICKS %d", s.ticks), 4, y, 7)
		y += s.font.GlyphHeight + 2
		for _, name := range s.stateNames {
			s.screen.DrawText(s.font, name, 4, y, 6)
			y += s.font.GlyphHeight + 2
		}
	}
	return nil
}
