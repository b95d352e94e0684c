package input

import "testing"

func TestHeldFollowsAppliedFrame(t *testing.T) {
	// Setup
	pad := NewPad()

	// Act
	pad.Step()
	pad.Apply(Frame(0).With(BtnA).With(BtnRight))

	// Assert
	if !pad.Held(BtnA) || !pad.Held(BtnRight) {
		t.Errorf("Expected a and right to be held")
	}
	if pad.Held(BtnStart) {
		t.Errorf("Expected start to be released")
	}
}

func TestPressedIsEdgeTriggered(t *testing.T) {
	// Setup
	pad := NewPad()

	// Act: button goes down on tick 1 and stays down on tick 2
	pad.Step()
	pad.Apply(Frame(0).With(BtnStart))
	firstTick := pad.Pressed(BtnStart)

	pad.Step()
	pad.Apply(Frame(0).With(BtnStart))
	secondTick := pad.Pressed(BtnStart)

	// Assert: only the first tick counts as a press
	if !firstTick {
		t.Errorf("Expected press edge on the first tick")
	}
	if secondTick {
		t.Errorf("Expected no press edge while the button is held")
	}
	if !pad.Held(BtnStart) {
		t.Errorf("Expected start to still be held")
	}
}

func TestReleasedDetectsButtonUp(t *testing.T) {
	// Setup
	pad := NewPad()
	pad.Step()
	pad.Apply(Frame(0).With(BtnB))

	// Act: next tick arrives with the button up
	pad.Step()
	pad.Apply(0)

	// Assert
	if !pad.Released(BtnB) {
		t.Errorf("Expected release edge for b")
	}
	if pad.Pressed(BtnB) {
		t.Errorf("Expected no press edge on release")
	}
}

func TestFrameHoldsBetweenInputs(t *testing.T) {
	// Setup: input arrives on tick 1, nothing on tick 2
	pad := NewPad()
	pad.Step()
	pad.Apply(Frame(0).With(BtnLeft))

	// Act: tick 2 has no fresh frame, only the step
	pad.Step()

	// Assert: the pad keeps its position like real hardware
	if !pad.Held(BtnLeft) {
		t.Errorf("Expected left to stay held without fresh input")
	}
	if pad.Pressed(BtnLeft) {
		t.Errorf("Expected no new press edge")
	}
}

func TestResetClearsEdges(t *testing.T) {
	// Setup
	pad := NewPad()
	pad.Step()
	pad.Apply(Frame(0).With(BtnA))

	// Act
	pad.Reset()

	// Assert
	if pad.Held(BtnA) || pad.Pressed(BtnA) || pad.Released(BtnA) {
		t.Errorf("Expected a fully neutral pad after reset")
	}
}

func TestButtonNames(t *testing.T) {
	// Setup
	cases := map[Button]string{
		BtnUp:     "up",
		BtnSelect: "select",
		Button(9): "?",
	}

	// Act + Assert
	for button, want := range cases {
		if got := button.Name(); got != want {
			t.Errorf("Expected name %q, got %q", want, got)
		}
	}
}

func TestFrameWithWithout(t *testing.T) {
	// Setup
	f := Frame(0).With(BtnA).With(BtnB)

	// Act
	f = f.Without(BtnA)

	// Assert
	if f.Has(BtnA) {
		t.Errorf("Expected a to be cleared")
	}
	if !f.Has(BtnB) {
		t.Errorf("Expected b to survive")
	}
}
