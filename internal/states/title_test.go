package states

import (
	"testing"

	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
)

type fakeDirector struct {
	requests []string
}

func (d *fakeDirector) RequestTransition(name string) {
	d.requests = append(d.requests, name)
}

func newTitleFixture(t *testing.T) (*TitleState, *input.Pad, *fakeDirector) {
	t.Helper()
	screen, err := gfx.NewScreen(320, 200, gfx.DefaultPalette())
	if err != nil {
		t.Fatalf("Expected screen to allocate, got %v", err)
	}
	pad := input.NewPad()
	director := &fakeDirector{}
	title := NewTitleState(screen, pad, nil, nil, director, "game")
	return title, pad, director
}

func TestTitleRequestsTransitionOnStart(t *testing.T) {
	// Setup
	title, pad, director := newTitleFixture(t)
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}

	// Act: start goes down this tick
	pad.Step()
	pad.Apply(input.Frame(0).With(input.BtnStart))
	if err := title.Update(0.016); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	// Assert
	if len(director.requests) != 1 || director.requests[0] != "game" {
		t.Errorf("Expected one request to 'game', got %v", director.requests)
	}
}

func TestTitleIgnoresHeldStart(t *testing.T) {
	// Setup: start was already down on the previous tick
	title, pad, director := newTitleFixture(t)
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}
	pad.Step()
	pad.Apply(input.Frame(0).With(input.BtnStart))
	if err := title.Update(0.016); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	// Act: still held on the next tick
	pad.Step()
	pad.Apply(input.Frame(0).With(input.BtnStart))
	if err := title.Update(0.016); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	// Assert: no second request fired
	if len(director.requests) != 1 {
		t.Errorf("Expected a single request, got %v", director.requests)
	}
}

func TestTitleOpensDiagnosticsOnSelect(t *testing.T) {
	// Setup
	title, pad, director := newTitleFixture(t)
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}

	// Act
	pad.Step()
	pad.Apply(input.Frame(0).With(input.BtnSelect))
	if err := title.Update(0.016); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	// Assert
	if len(director.requests) != 1 || director.requests[0] != "diag" {
		t.Errorf("Expected one request to 'diag', got %v", director.requests)
	}
}

func TestTitleRendersWithoutAssets(t *testing.T) {
	// Setup: no font, no logo
	title, _, _ := newTitleFixture(t)
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}

	// Act + Assert: the placeholder path must not fail
	if err := title.Render(0.016); err != nil {
		t.Errorf("Expected render to succeed, got %v", err)
	}
}

func TestTitleEnterRestartsBlink(t *testing.T) {
	// Setup
	title, _, _ := newTitleFixture(t)
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}
	for i := 0; i < 45; i++ {
		if err := title.Update(0.016); err != nil {
			t.Fatalf("Expected update to succeed, got %v", err)
		}
	}

	// Act: re-entering resets the tick counter
	if err := title.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}

	// Assert
	if title.ticks != 0 {
		t.Errorf("Expected tick counter reset, got %d", title.ticks)
	}
}

func TestDiagnosticsReturnsToTitleOnB(t *testing.T) {
	// Setup
	screen, err := gfx.NewScreen(320, 200, gfx.DefaultPalette())
	if err != nil {
		t.Fatalf("Expected screen to allocate, got %v", err)
	}
	pad := input.NewPad()
	director := &fakeDirector{}
	diag := NewDiagnosticsState(screen, pad, nil, []string{"title", "game"}, director)
	if err := diag.Enter(); err != nil {
		t.Fatalf("Expected enter to succeed, got %v", err)
	}

	// Act
	pad.Step()
	pad.Apply(input.Frame(0).With(input.BtnB))
	if err := diag.Update(0.016); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if err := diag.Render(0.016); err != nil {
		t.Fatalf("Expected render to succeed, got %v", err)
	}

	// Assert
	if len(director.requests) != 1 || director.requests[0] != "title" {
		t.Errorf("Expected one request to 'title', got %v", director.requests)
	}
}
