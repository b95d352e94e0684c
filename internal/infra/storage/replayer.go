package storage

import (
	"context"
	"fmt"
)

// Replayer rebuilds what a session did from its event ledger. The ledger is
// the source of truth: the pad timeline and the state history both come out
// of the same rows the journal mirrored during the live run.
type Replayer struct {
	events   EventRepository
	sessions SessionRepository
}

func NewReplayer(events EventRepository, sessions SessionRepository) *Replayer {
	return &Replayer{events: events, sessions: sessions}
}

// InputSample is one recorded pad change, keyed by the tick it applied on.
type InputSample struct {
	Tick    uint64 `json:"tick"`
	Buttons uint8  `json:"buttons"`
}

// StateVisit is one stay in a state. ExitTick is nil when the session ended
// while the state was still current.
type StateVisit struct {
	State     string  `json:"state"`
	EnterTick uint64  `json:"enter_tick"`
	ExitTick  *uint64 `json:"exit_tick,omitempty"`
}

// SessionRecap summarizes a recorded session for the timeline API.
type SessionRecap struct {
	SessionID    string       `json:"session_id"`
	Visits       []StateVisit `json:"visits"`
	InputChanges int          `json:"input_changes"`
	ScriptErrors int          `json:"script_errors"`
	LastTick     uint64       `json:"last_tick"`
}

// InputTimeline extracts the pad timeline of a session in tick order.
// Feeding it back into the engine at the same tick rate reproduces the run.
func (r *Replayer) InputTimeline(ctx context.Context, sessionID string) ([]InputSample, error) {
	record, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	rows, err := r.events.GetByType(ctx, sessionID, "INPUT_FRAME")
	if err != nil {
		return nil, fmt.Errorf("failed to load input events: %w", err)
	}

	timeline := make([]InputSample, 0, len(rows))
	for _, e := range rows {
		buttons, ok := e.Payload["buttons"].(float64)
		if !ok {
			continue // malformed rows are skipped, not fatal
		}
		timeline = append(timeline, InputSample{Tick: e.Tick, Buttons: uint8(buttons)})
	}
	return timeline, nil
}

// Recap folds a session's ledger into a state history and counters.
func (r *Replayer) Recap(ctx context.Context, sessionID string) (*SessionRecap, error) {
	record, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	rows, err := r.events.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session events: %w", err)
	}

	recap := &SessionRecap{SessionID: sessionID}
	for _, e := range rows {
		if e.Tick > recap.LastTick {
			recap.LastTick = e.Tick
		}
		switch e.EventType {
		case "STATE_ENTERED":
			state, ok := e.Payload["state"].(string)
			if !ok {
				continue
			}
			recap.Visits = append(recap.Visits, StateVisit{State: state, EnterTick: e.Tick})
		case "STATE_EXITED":
			// Close the most recent open visit
			for i := len(recap.Visits) - 1; i >= 0; i-- {
				if recap.Visits[i].ExitTick == nil {
					tick := e.Tick
					recap.Visits[i].ExitTick = &tick
					break
				}
			}
		case "INPUT_FRAME":
			recap.InputChanges++
		case "SCRIPT_ERROR":
			recap.ScriptErrors++
		}
	}
	return recap, nil
}
