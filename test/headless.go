// Package test - headless.go
// Scenario probe: "The Headless Boot"
// Drives the console lifecycle end-to-end without a display, network or
// script VM and validates the guarantees cartridges rely on.
package test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farolengine/farol/internal/engine"
	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
	"github.com/farolengine/farol/internal/platform/logger"
)

// HeadlessBootTest boots the state machine against trace states and
// checks every lifecycle guarantee in sequence.
type HeadlessBootTest struct {
	logger  *logger.Logger
	results []TestResult
}

// TestResult captures the outcome of each probe scenario.
type TestResult struct {
	ScenarioName string
	Input        string
	Expected     string
	Got          string
	Passed       bool
	Reason       string
}

// NewHeadlessBootTest creates the probe harness.
func NewHeadlessBootTest() *HeadlessBootTest {
	return &HeadlessBootTest{
		logger:  logger.NewLogger(),
		results: make([]TestResult, 0),
	}
}

// traceState records every lifecycle call it receives.
type traceState struct {
	name  string
	calls *[]string
}

func (s *traceState) Enter() error {
	*s.calls = append(*s.calls, s.name+".enter")
	return nil
}

func (s *traceState) Update(delta float64) error {
	*s.calls = append(*s.calls, fmt.Sprintf("%s.update(%.3f)", s.name, delta))
	return nil
}

func (s *traceState) Render(delta float64) error {
	*s.calls = append(*s.calls, fmt.Sprintf("%s.render(%.3f)", s.name, delta))
	return nil
}

// exitingState also records its teardown hook.
type exitingState struct {
	traceState
}

func (s *exitingState) Exit() error {
	*s.calls = append(*s.calls, s.name+".exit")
	return nil
}

// RunTest executes every boot scenario in order.
func (t *HeadlessBootTest) RunTest(ctx context.Context) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("🧪 SCENARIO PROBE: THE HEADLESS BOOT")
	fmt.Println(strings.Repeat("=", 60))

	t.runSingleFrame()
	t.runEnterOnce()
	t.runTransitionOrder()
	t.runUnknownTarget()
	t.runEngineLoop(ctx)

	// Print final verdict
	fmt.Println("\n" + strings.Repeat("=", 60))
	failed := 0
	for _, r := range t.results {
		if r.Passed {
			fmt.Printf("✅ %s\n", r.ScenarioName)
		} else {
			failed++
			fmt.Printf("❌ %s\n   %s\n   expected %s\n   got      %s\n", r.ScenarioName, r.Reason, r.Expected, r.Got)
		}
	}
	if failed == 0 {
		fmt.Println("\n✅ PROBE PASSED: The console boots clean")
	} else {
		fmt.Printf("\n❌ PROBE FAILED: %d of %d scenarios broken\n", failed, len(t.results))
	}
	fmt.Println(strings.Repeat("=", 60))
}

// runSingleFrame checks the canonical first frame: Enter before the
// first Update, then Render, in that order.
func (t *HeadlessBootTest) runSingleFrame() {
	var calls []string
	registry := game.NewRegistry(map[string]game.State{
		"boot": &traceState{name: "boot", calls: &calls},
	})

	result := TestResult{
		ScenarioName: "Single frame",
		Input:        "New + Update(0.016) + Render(0.016)",
		Expected:     "boot.enter | boot.update(0.016) | boot.render(0.016)",
	}

	g, err := game.New(registry, "boot")
	if err == nil {
		err = g.Update(0.016)
	}
	if err == nil {
		err = g.Render(0.016)
	}

	result.Got = strings.Join(calls, " | ")
	if err != nil {
		result.Reason = "lifecycle call failed: " + err.Error()
	} else if result.Got != result.Expected {
		result.Reason = "lifecycle calls out of order"
	} else {
		result.Passed = true
		result.Reason = "Enter ran exactly once, before the first Update"
	}
	t.results = append(t.results, result)
}

// runEnterOnce checks that repeated updates never re-enter the state.
func (t *HeadlessBootTest) runEnterOnce() {
	var calls []string
	registry := game.NewRegistry(map[string]game.State{
		"boot": &traceState{name: "boot", calls: &calls},
	})

	result := TestResult{
		ScenarioName: "Enter fires once",
		Input:        "New + Update(0.0) + Update(0.0)",
		Expected:     "boot.enter | boot.update(0.000) | boot.update(0.000)",
	}

	g, err := game.New(registry, "boot")
	if err == nil {
		err = g.Update(0.0)
	}
	if err == nil {
		err = g.Update(0.0)
	}

	result.Got = strings.Join(calls, " | ")
	if err != nil {
		result.Reason = "lifecycle call failed: " + err.Error()
	} else if result.Got != result.Expected {
		result.Reason = "Enter leaked into the update loop"
	} else {
		result.Passed = true
		result.Reason = "updates never re-entered the state"
	}
	t.results = append(t.results, result)
}

// runTransitionOrder checks the swap sequence: validate, Exit the old
// state, swap, Enter the new one.
func (t *HeadlessBootTest) runTransitionOrder() {
	var calls []string
	registry := game.NewRegistry(map[string]game.State{
		"title": &exitingState{traceState{name: "title", calls: &calls}},
		"game":  &traceState{name: "game", calls: &calls},
	})

	result := TestResult{
		ScenarioName: "Transition order",
		Input:        "New(title) + Transition(game)",
		Expected:     "title.enter | title.exit | game.enter",
	}

	g, err := game.New(registry, "title")
	if err == nil {
		err = g.Transition("game")
	}

	result.Got = strings.Join(calls, " | ")
	switch {
	case err != nil:
		result.Reason = "transition failed: " + err.Error()
	case result.Got != result.Expected:
		result.Reason = "hooks fired out of order"
	case g.Current() != "game":
		result.Reason = "current identifier not swapped"
		result.Got += " (current=" + g.Current() + ")"
	default:
		result.Passed = true
		result.Reason = "Exit ran before Enter and the identifier swapped"
	}
	t.results = append(t.results, result)
}

// runUnknownTarget checks that a bad transition target changes nothing:
// typed error out, no hooks, current state untouched.
func (t *HeadlessBootTest) runUnknownTarget() {
	var calls []string
	registry := game.NewRegistry(map[string]game.State{
		"title": &exitingState{traceState{name: "title", calls: &calls}},
	})

	result := TestResult{
		ScenarioName: "Unknown transition target",
		Input:        "New(title) + Transition(attract)",
		Expected:     "UnknownStateError{attract}, title.enter only, current=title",
	}

	g, err := game.New(registry, "title")
	if err != nil {
		result.Reason = "boot failed: " + err.Error()
		t.results = append(t.results, result)
		return
	}

	err = g.Transition("attract")
	var unknown *game.UnknownStateError

	result.Got = fmt.Sprintf("err=%v, %s, current=%s", err, strings.Join(calls, " | "), g.Current())
	switch {
	case !errors.As(err, &unknown) || unknown.Identifier != "attract":
		result.Reason = "expected a typed UnknownStateError for the target"
	case len(calls) != 1:
		result.Reason = "hooks fired for a rejected transition"
	case g.Current() != "title":
		result.Reason = "current identifier changed on a rejected transition"
	default:
		result.Passed = true
		result.Reason = "rejected transition left the machine untouched"
	}
	t.results = append(t.results, result)
}

// runEngineLoop boots the full engine headless for a slice of real time
// and checks that ticks advance and the journal records the boot.
func (t *HeadlessBootTest) runEngineLoop(ctx context.Context) {
	var calls []string
	registry := game.NewRegistry(map[string]game.State{
		"boot": &traceState{name: "boot", calls: &calls},
	})

	result := TestResult{
		ScenarioName: "Headless engine loop",
		Input:        "Run at 200 Hz for 100ms, no sink, no source",
		Expected:     "ticks > 0, one STATE_ENTERED journal entry",
	}

	screen, err := gfx.NewScreen(64, 64, nil)
	if err != nil {
		result.Reason = "screen setup failed: " + err.Error()
		t.results = append(t.results, result)
		return
	}

	journal := events.NewJournal("headless-probe", nil)
	eng, err := engine.NewEngine(engine.Options{
		Registry:     registry,
		InitialState: "boot",
		Screen:       screen,
		Pad:          input.NewPad(),
		Journal:      journal,
		Logger:       t.logger,
		TickRate:     200,
		StreamEvery:  1000, // keep the probe off the PNG encoder
	})
	if err != nil {
		result.Reason = "engine setup failed: " + err.Error()
		t.results = append(t.results, result)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	err = eng.Run(runCtx)

	entered := journal.GetByType(events.EventStateEntered)
	result.Got = fmt.Sprintf("err=%v, ticks=%d, STATE_ENTERED=%d", err, eng.Tick(), len(entered))
	switch {
	case err != nil:
		result.Reason = "engine halted: " + err.Error()
	case eng.Tick() == 0:
		result.Reason = "tick counter never advanced"
	case len(entered) != 1:
		result.Reason = "boot not journaled exactly once"
	default:
		result.Passed = true
		result.Reason = "engine ticked and journaled the boot"
	}
	t.results = append(t.results, result)
}

// GetResults returns all probe results.
func (t *HeadlessBootTest) GetResults() []TestResult {
	return t.results
}
