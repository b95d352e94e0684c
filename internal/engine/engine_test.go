package engine

import (
	"bytes"
	"fmt"
	"image/png"
	"testing"

	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/infra/storage"
	"github.com/farolengine/farol/internal/input"
	"github.com/farolengine/farol/internal/network"
	"github.com/farolengine/farol/internal/platform/logger"
)

// probeState records every lifecycle call so tests can assert exactly
// what the engine drove.
type probeState struct {
	name      string
	calls     *[]string
	updateErr error
}

func (p *probeState) Enter() error {
	*p.calls = append(*p.calls, p.name+".enter")
	return nil
}

func (p *probeState) Update(delta float64) error {
	*p.calls = append(*p.calls, p.name+".update")
	return p.updateErr
}

func (p *probeState) Render(delta float64) error {
	*p.calls = append(*p.calls, p.name+".render")
	return nil
}

// scriptedSource returns a fixed sequence of pad bitmasks, then zeros.
type scriptedSource struct {
	frames []uint8
	idx    int
}

func (s *scriptedSource) Buttons(tick uint64) uint8 {
	if s.idx < len(s.frames) {
		b := s.frames[s.idx]
		s.idx++
		return b
	}
	return 0
}

// frameCollector captures broadcast packets in order.
type frameCollector struct {
	packets [][]byte
}

func (f *frameCollector) BroadcastFrame(packet []byte) {
	f.packets = append(f.packets, packet)
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *[]string) {
	t.Helper()

	calls := &[]string{}
	if opts.Registry == nil {
		opts.Registry = game.NewRegistry(map[string]game.State{
			"title": &probeState{name: "title", calls: calls},
			"game":  &probeState{name: "game", calls: calls},
		})
		opts.InitialState = "title"
	}
	if opts.Screen == nil {
		screen, err := gfx.NewScreen(32, 32, nil)
		if err != nil {
			t.Fatalf("Failed to create test screen: %v", err)
		}
		opts.Screen = screen
	}
	if opts.Pad == nil {
		opts.Pad = input.NewPad()
	}
	if opts.Journal == nil {
		opts.Journal = events.NewJournal("test-session", nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger()
	}

	eng, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng, calls
}

func TestStepDrivesCurrentState(t *testing.T) {
	// Setup
	eng, calls := newTestEngine(t, Options{})

	// Act: three simulation steps
	for i := 0; i < 3; i++ {
		if err := eng.step(1.0 / 60.0); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	// Assert: one enter up front, then update+render per step
	expected := []string{
		"title.enter",
		"title.update", "title.render",
		"title.update", "title.render",
		"title.update", "title.render",
	}
	if fmt.Sprint(*calls) != fmt.Sprint(expected) {
		t.Errorf("Expected calls %v, got %v", expected, *calls)
	}
	if eng.Tick() != 3 {
		t.Errorf("Expected tick 3, got %d", eng.Tick())
	}
}

func TestQueuedTransitionAppliesAtNextStep(t *testing.T) {
	// Setup
	eng, calls := newTestEngine(t, Options{})
	if err := eng.step(0.016); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	// Act: request mid-tick, takes effect at the top of the next step
	eng.RequestTransition("game")
	if got := eng.CurrentState(); got != "title" {
		t.Fatalf("Expected transition to be queued, but state is already %q", got)
	}
	if err := eng.step(0.016); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	// Assert
	if got := eng.CurrentState(); got != "game" {
		t.Errorf("Expected state game, got %q", got)
	}
	last := (*calls)[len(*calls)-2:]
	if last[0] != "game.update" || last[1] != "game.render" {
		t.Errorf("Expected the step to run the new state, got %v", last)
	}
	entered := eng.journal.GetByType(events.EventStateEntered)
	if len(entered) != 2 {
		t.Fatalf("Expected 2 STATE_ENTERED events, got %d", len(entered))
	}
	if entered[1].Payload["state"] != "game" {
		t.Errorf("Expected entered payload game, got %v", entered[1].Payload["state"])
	}
	exited := eng.journal.GetByType(events.EventStateExited)
	if len(exited) != 1 || exited[0].Payload["state"] != "title" {
		t.Errorf("Expected one STATE_EXITED for title, got %v", exited)
	}
}

func TestTransitionToUnknownStateIsIgnored(t *testing.T) {
	// Setup
	eng, _ := newTestEngine(t, Options{})

	// Act
	eng.RequestTransition("missing")
	if err := eng.step(0.016); err != nil {
		t.Fatalf("Expected unknown target to be survivable, got %v", err)
	}

	// Assert: still on the initial state, no exit journaled
	if got := eng.CurrentState(); got != "title" {
		t.Errorf("Expected state title, got %q", got)
	}
	if exited := eng.journal.GetByType(events.EventStateExited); len(exited) != 0 {
		t.Errorf("Expected no STATE_EXITED events, got %d", len(exited))
	}
}

func TestPauseFreezesSimulation(t *testing.T) {
	// Setup
	eng, calls := newTestEngine(t, Options{})
	if err := eng.step(0.016); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	before := len(*calls)

	// Act: paused steps do nothing
	eng.Pause()
	for i := 0; i < 3; i++ {
		if err := eng.step(0.016); err != nil {
			t.Fatalf("Paused step failed: %v", err)
		}
	}

	// Assert
	if !eng.IsPaused() {
		t.Error("Expected engine to report paused")
	}
	if eng.Tick() != 1 {
		t.Errorf("Expected tick to stay at 1 while paused, got %d", eng.Tick())
	}
	if len(*calls) != before {
		t.Errorf("Expected no state calls while paused, got %v", (*calls)[before:])
	}

	// Act: resume thaws it
	eng.Resume()
	if err := eng.step(0.016); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if eng.Tick() != 2 {
		t.Errorf("Expected tick 2 after resume, got %d", eng.Tick())
	}
	if len(eng.journal.GetByType(events.EventEnginePaused)) != 1 {
		t.Error("Expected one ENGINE_PAUSED event")
	}
	if len(eng.journal.GetByType(events.EventEngineResume)) != 1 {
		t.Error("Expected one ENGINE_RESUMED event")
	}
}

func TestInputFrameJournaledOnChange(t *testing.T) {
	// Setup: bitmask holds, changes, holds, then drops
	eng, _ := newTestEngine(t, Options{
		Source: &scriptedSource{frames: []uint8{0, 5, 5, 0}},
	})

	// Act
	for i := 0; i < 4; i++ {
		if err := eng.step(0.016); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	// Assert: only the two changes are journaled
	inputEvents := eng.journal.GetByType(events.EventInputFrame)
	if len(inputEvents) != 2 {
		t.Fatalf("Expected 2 INPUT_FRAME events, got %d", len(inputEvents))
	}
	if inputEvents[0].Payload["buttons"] != float64(5) {
		t.Errorf("Expected first change to buttons 5, got %v", inputEvents[0].Payload["buttons"])
	}
	if inputEvents[1].Payload["buttons"] != float64(0) {
		t.Errorf("Expected second change to buttons 0, got %v", inputEvents[1].Payload["buttons"])
	}
}

func TestFrameStreamedEveryN(t *testing.T) {
	// Setup
	sink := &frameCollector{}
	eng, _ := newTestEngine(t, Options{Sink: sink, StreamEvery: 2})

	// Act
	for i := 0; i < 4; i++ {
		if err := eng.step(0.016); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	// Assert: ticks 2 and 4 produced frames
	if len(sink.packets) != 2 {
		t.Fatalf("Expected 2 frame packets, got %d", len(sink.packets))
	}
	packet, err := network.DecodeFramePacket(sink.packets[0])
	if err != nil {
		t.Fatalf("Failed to decode frame packet: %v", err)
	}
	if packet.Tick != 2 {
		t.Errorf("Expected first frame at tick 2, got %d", packet.Tick)
	}
	if packet.Width != 32 || packet.Height != 32 {
		t.Errorf("Expected 32x32 frame, got %dx%d", packet.Width, packet.Height)
	}
	img, err := png.Decode(bytes.NewReader(packet.Payload))
	if err != nil {
		t.Fatalf("Expected a PNG payload, got decode error: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("Expected decoded 32x32 image, got %v", img.Bounds())
	}
}

func TestStateFailureHaltsEngine(t *testing.T) {
	// Setup: a state that blows up on its second update
	calls := &[]string{}
	boom := &probeState{name: "boom", calls: calls}
	registry := game.NewRegistry(map[string]game.State{"boom": boom})
	eng, _ := newTestEngine(t, Options{Registry: registry, InitialState: "boom"})

	if err := eng.step(0.016); err != nil {
		t.Fatalf("First step failed: %v", err)
	}
	boom.updateErr = fmt.Errorf("script exploded")

	// Act
	err := eng.step(0.016)

	// Assert: the error surfaces and the failure is journaled
	if err == nil {
		t.Fatal("Expected the failing update to halt the step")
	}
	failures := eng.journal.GetByType(events.EventScriptError)
	if len(failures) != 1 {
		t.Fatalf("Expected 1 SCRIPT_ERROR event, got %d", len(failures))
	}
	if failures[0].Source != "update" {
		t.Errorf("Expected failure source update, got %q", failures[0].Source)
	}
}

func TestReplaySourceHoldsSamplesBetweenTicks(t *testing.T) {
	// Setup
	source := NewReplaySource([]storage.InputSample{
		{Tick: 1, Buttons: 2},
		{Tick: 3, Buttons: 9},
	})

	// Act / Assert: each sample applies on its tick and holds
	cases := []struct {
		tick uint64
		want uint8
	}{
		{0, 0},
		{1, 2},
		{2, 2},
		{3, 9},
		{10, 9},
	}
	for _, tc := range cases {
		if got := source.Buttons(tc.tick); got != tc.want {
			t.Errorf("Expected buttons %d at tick %d, got %d", tc.want, tc.tick, got)
		}
	}
}

func TestLiveSourceJournalsPadOwnership(t *testing.T) {
	// Setup
	journal := events.NewJournal("test-session", nil)
	inputs := make(chan network.InputMessage, 8)
	source := NewLiveSource(inputs, journal, logger.NewLogger())

	// Act: claim then press
	inputs <- network.InputMessage{Kind: network.InputPadClaimed, Remote: "1.2.3.4:5"}
	inputs <- network.InputMessage{Kind: network.InputButtons, Buttons: 7, Remote: "1.2.3.4:5"}
	if got := source.Buttons(1); got != 7 {
		t.Errorf("Expected buttons 7, got %d", got)
	}

	// Act: release zeroes the pad
	inputs <- network.InputMessage{Kind: network.InputPadReleased, Remote: "1.2.3.4:5"}
	if got := source.Buttons(2); got != 0 {
		t.Errorf("Expected buttons 0 after release, got %d", got)
	}

	// Assert: ownership changes landed in the journal at the right ticks
	claims := journal.GetByType(events.EventPadClaimed)
	if len(claims) != 1 || claims[0].Tick != 1 {
		t.Errorf("Expected one PAD_CLAIMED at tick 1, got %v", claims)
	}
	releases := journal.GetByType(events.EventPadReleased)
	if len(releases) != 1 || releases[0].Tick != 2 {
		t.Errorf("Expected one PAD_RELEASED at tick 2, got %v", releases)
	}
}
