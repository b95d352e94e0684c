package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
	"github.com/farolengine/farol/internal/network"
	"github.com/farolengine/farol/internal/platform/logger"
	"github.com/farolengine/farol/internal/platform/metrics"
	"github.com/farolengine/farol/internal/script"
	"github.com/farolengine/farol/internal/states"
)

// FrameSink receives encoded frame packets for fan-out to spectators.
type FrameSink interface {
	BroadcastFrame(packet []byte)
}

// controlMsg is a queued operator command. Commands take effect at the
// top of the next tick, never in the middle of one.
type controlMsg struct {
	kind  controlKind
	state string
}

type controlKind uint8

const (
	ctrlPause controlKind = iota
	ctrlResume
	ctrlTransition
)

// Options wires an Engine together.
type Options struct {
	Registry     *game.Registry
	InitialState string
	Screen       *gfx.Screen
	Pad          *input.Pad
	Journal      *events.Journal
	Source       InputSource
	Sink         FrameSink
	Logger       *logger.Logger
	TickRate     int
	StreamEvery  int
	DebugOverlay bool
}

// Engine is the central orchestrator: it owns the state machine, drives
// it at a fixed tick rate, feeds it pad input, and streams the screen to
// whoever is watching.
type Engine struct {
	game    *game.Game
	screen  *gfx.Screen
	pad     *input.Pad
	journal *events.Journal
	source  InputSource
	sink    FrameSink
	logger  *logger.Logger

	tickRate     int
	streamEvery  int
	debugOverlay bool

	controls chan controlMsg
	stop     chan struct{}
	stopOnce sync.Once

	mu           sync.RWMutex
	tick         uint64
	paused       bool
	currentState string

	lastButtons uint8 // loop goroutine only
}

// The engine is the one object every outside surface talks to.
var (
	_ network.EngineControl = (*Engine)(nil)
	_ script.Director       = (*Engine)(nil)
	_ states.Director       = (*Engine)(nil)
)

// NewEngine builds the engine and enters the initial state. The initial
// state's Enter hook runs exactly once, here, before the first tick.
func NewEngine(opts Options) (*Engine, error) {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.StreamEvery <= 0 {
		opts.StreamEvery = 4
	}

	g, err := game.New(opts.Registry, opts.InitialState)
	if err != nil {
		return nil, fmt.Errorf("failed to start state machine: %w", err)
	}

	e := &Engine{
		game:         g,
		screen:       opts.Screen,
		pad:          opts.Pad,
		journal:      opts.Journal,
		source:       opts.Source,
		sink:         opts.Sink,
		logger:       opts.Logger,
		tickRate:     opts.TickRate,
		streamEvery:  opts.StreamEvery,
		debugOverlay: opts.DebugOverlay,
		controls:     make(chan controlMsg, 16),
		stop:         make(chan struct{}),
		currentState: g.Current(),
	}

	e.journal.Append(0, events.EventStateEntered, "engine", map[string]interface{}{
		"state": g.Current(),
	})
	return e, nil
}

// Run drives the tick loop until ctx is cancelled, Stop is called, or a
// state fails. A state error is fatal: the machine is in an unknown
// condition and the server should come down rather than keep streaming
// garbage.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(e.tickRate)
	delta := interval.Seconds()
	e.logger.Infof("Engine running at %d Hz (frame every %d ticks)", e.tickRate, e.streamEvery)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped by context.")
			return nil
		case <-e.stop:
			e.logger.Info("Engine stopped.")
			return nil
		case <-ticker.C:
			if err := e.step(delta); err != nil {
				e.logger.Errorf("Engine halted at tick %d: %v", e.Tick(), err)
				return err
			}
		}
	}
}

// Stop gracefully stops the engine loop.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// step runs one tick: apply queued commands, poll the pad, update and
// render the current state, then maybe stream a frame.
func (e *Engine) step(delta float64) error {
	started := time.Now()

	if err := e.drainControls(); err != nil {
		return err
	}
	if e.IsPaused() {
		// Keep the input pipe drained while frozen so the hub does
		// not back up; the pad itself stays untouched.
		if e.source != nil {
			e.source.Buttons(e.Tick())
		}
		return nil
	}

	tick := e.advanceTick()

	e.pad.Step()
	var buttons uint8
	if e.source != nil {
		buttons = e.source.Buttons(tick)
	}
	e.pad.Apply(input.Frame(buttons))
	if buttons != e.lastButtons {
		e.journal.Append(tick, events.EventInputFrame, "pad", map[string]interface{}{
			"buttons": float64(buttons),
		})
		e.lastButtons = buttons
	}

	if err := e.game.Update(delta); err != nil {
		e.journalFailure(tick, "update", err)
		return err
	}
	if err := e.game.Render(delta); err != nil {
		e.journalFailure(tick, "render", err)
		return err
	}

	if tick%uint64(e.streamEvery) == 0 {
		e.streamFrame(tick)
	}

	metrics.Get().RecordTick(time.Since(started))
	return nil
}

// drainControls applies every queued command. Transition failures other
// than an unknown target are fatal and bubble up.
func (e *Engine) drainControls() error {
	for {
		select {
		case cmd := <-e.controls:
			if err := e.applyControl(cmd); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (e *Engine) applyControl(cmd controlMsg) error {
	switch cmd.kind {
	case ctrlPause:
		if e.IsPaused() {
			return nil
		}
		e.setPaused(true)
		e.journal.Append(e.Tick(), events.EventEnginePaused, "control", nil)
		e.logger.Info("Engine paused.")
	case ctrlResume:
		if !e.IsPaused() {
			return nil
		}
		e.setPaused(false)
		e.journal.Append(e.Tick(), events.EventEngineResume, "control", nil)
		e.logger.Info("Engine resumed.")
	case ctrlTransition:
		return e.performTransition(cmd.state)
	}
	return nil
}

// performTransition swaps states through the machine. An unknown target
// leaves the current state running and is only worth a warning; anything
// else that fails mid-swap is fatal.
func (e *Engine) performTransition(name string) error {
	from := e.game.Current()
	if err := e.game.Transition(name); err != nil {
		var unknown *game.UnknownStateError
		if errors.As(err, &unknown) && unknown.Identifier == name {
			e.logger.Warnf("Ignoring transition to unknown state %q", name)
			return nil
		}
		return fmt.Errorf("transition %s -> %s failed: %w", from, name, err)
	}

	tick := e.Tick()
	e.journal.Append(tick, events.EventStateExited, "engine", map[string]interface{}{
		"state": from,
	})
	e.journal.Append(tick, events.EventStateEntered, "engine", map[string]interface{}{
		"state": name,
	})
	e.setCurrentState(name)
	e.logger.Infof("State transition: %s -> %s", from, name)
	return nil
}

// streamFrame snapshots the screen, encodes it, and hands the packet to
// the sink. Encoding failures cost one frame, never the engine.
func (e *Engine) streamFrame(tick uint64) {
	if e.sink == nil {
		return
	}
	started := time.Now()

	img := e.screen.Snapshot()
	if e.debugOverlay {
		gfx.StampDebugOverlay(img, []string{
			fmt.Sprintf("TICK %d", tick),
			"STATE " + e.CurrentState(),
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		e.logger.Errorf("Failed to encode frame at tick %d: %v", tick, err)
		return
	}

	e.sink.BroadcastFrame(network.EncodeFramePacket(network.FramePacket{
		Encoding: network.EncodingPNG,
		Width:    uint16(e.screen.Width()),
		Height:   uint16(e.screen.Height()),
		Tick:     tick,
		Payload:  buf.Bytes(),
	}))
	metrics.Get().RecordFrameEncoded(buf.Len(), time.Since(started))
}

func (e *Engine) journalFailure(tick uint64, phase string, err error) {
	e.journal.Append(tick, events.EventScriptError, phase, map[string]interface{}{
		"error": err.Error(),
	})
}

// Pause queues a freeze of the tick loop.
func (e *Engine) Pause() {
	e.pushControl(controlMsg{kind: ctrlPause})
}

// Resume queues a thaw of the tick loop.
func (e *Engine) Resume() {
	e.pushControl(controlMsg{kind: ctrlResume})
}

// RequestTransition queues a state change for the top of the next tick.
// Safe to call from any goroutine, including Lua callbacks running
// inside the current tick.
func (e *Engine) RequestTransition(name string) {
	e.pushControl(controlMsg{kind: ctrlTransition, state: name})
}

func (e *Engine) pushControl(cmd controlMsg) {
	select {
	case e.controls <- cmd:
	default:
		e.logger.Warn("Control queue full, dropping command")
	}
}

// Tick returns the number of simulation steps executed so far.
func (e *Engine) Tick() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// CurrentState returns the identifier of the running state.
func (e *Engine) CurrentState() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentState
}

// IsPaused reports whether the tick loop is frozen.
func (e *Engine) IsPaused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

// SessionID returns the recording session this engine journals to.
func (e *Engine) SessionID() string {
	return e.journal.SessionID()
}

func (e *Engine) advanceTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick++
	return e.tick
}

func (e *Engine) setPaused(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = v
}

func (e *Engine) setCurrentState(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentState = name
}
