package states

import (
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
)

// blinkPeriod is the half-cycle of the PRESS START blink, in ticks.
const blinkPeriod = 30

// TitleState is the boot screen: logo, blinking prompt, waits for Start.
type TitleState struct {
	screen   *gfx.Screen
	pad      *input.Pad
	font     *gfx.Font   // nil draws no text
	logo     *gfx.Sprite // nil draws a placeholder block
	director Director
	next     string
	ticks    int
}

var _ game.State = (*TitleState)(nil)

// NewTitleState builds the title screen. next names the state Start leads to.
func NewTitleState(screen *gfx.Screen, pad *input.Pad, font *gfx.Font, logo *gfx.Sprite, director Director, next string) *TitleState {
	return &TitleState{
		screen:   screen,
		pad:      pad,
		font:     font,
		logo:     logo,
		director: director,
		next:     next,
	}
}

func (s *TitleState) Enter() error {
	s.ticks = 0
	return nil
}

func (s *TitleState) Update(delta float64) error {
	s.ticks++
	if s.pad.Pressed(input.BtnStart) {
		s.director.RequestTransition(s.next)
	}
	if s.pad.Pressed(input.BtnSelect) {
		s.director.RequestTransition("diag")
	}
	return nil
}

func (s *TitleState) Render(delta float64) error {
	s.screen.Clear(1)

	cx := s.screen.Width() / 2
	if s.logo != nil {
		s.screen.Blit(s.logo, cx-s.logo.Width/2, s.screen.Height()/4)
	} else {
		s.screen.FillRect(cx-24, s.screen.Height()/4, 48, 16, 9)
	}

	if s.font != nil && (s.ticks/blinkPeriod)%2 == 0 {
		y := s.screen.Height() * 2 / 3
		s.screen.DrawTextCenter(s.font, "PRESS START", cx, y, 7)
	}
	return nil
}
