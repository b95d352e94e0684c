// Package events implements the session journal: an append-only, in-memory
// record of everything that happened to the running machine, mirrored to a
// persister so a session can be replayed later.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes journal entries.
type EventType string

const (
	EventSessionStart EventType = "SESSION_START"
	EventSessionEnd   EventType = "SESSION_END"
	EventStateEntered EventType = "STATE_ENTERED"
	EventStateExited  EventType = "STATE_EXITED"
	EventInputFrame   EventType = "INPUT_FRAME"
	EventScriptError  EventType = "SCRIPT_ERROR"
	EventPadClaimed   EventType = "PAD_CLAIMED"
	EventPadReleased  EventType = "PAD_RELEASED"
	EventEnginePaused EventType = "ENGINE_PAUSED"
	EventEngineResume EventType = "ENGINE_RESUMED"
)

// SessionEvent is a single journal entry.
type SessionEvent struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Tick      uint64                 `json:"tick"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"` // subsystem or client that caused it
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventPersister mirrors journal entries to durable storage.
type EventPersister interface {
	Append(event SessionEvent) error
}

// Journal is the in-memory event log for one session. Appends are safe from
// any goroutine; persistence happens asynchronously so the tick loop never
// waits on the database.
type Journal struct {
	mu        sync.RWMutex
	sessionID string
	events    []SessionEvent
	persister EventPersister
}

// NewJournal creates a journal for the given session. A nil persister keeps
// the journal memory-only, which replays and tests use.
func NewJournal(sessionID string, persister EventPersister) *Journal {
	return &Journal{
		sessionID: sessionID,
		events:    make([]SessionEvent, 0, 256),
		persister: persister,
	}
}

// SessionID returns the session this journal records.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Append records an event and returns it with its generated ID. The
// persister write happens on a separate goroutine.
func (j *Journal) Append(tick uint64, eventType EventType, source string, payload map[string]interface{}) SessionEvent {
	event := SessionEvent{
		ID:        uuid.NewString(),
		SessionID: j.sessionID,
		Tick:      tick,
		Type:      eventType,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	j.mu.Lock()
	j.events = append(j.events, event)
	j.mu.Unlock()

	if j.persister != nil {
		go func(e SessionEvent) {
			_ = j.persister.Append(e)
		}(event)
	}

	return event
}

// Len returns the number of recorded events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.events)
}

// GetByType returns every event of one type, in append order.
func (j *Journal) GetByType(eventType EventType) []SessionEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []SessionEvent
	for _, e := range j.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// GetSince returns every event at or after the given tick.
func (j *Journal) GetSince(tick uint64) []SessionEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []SessionEvent
	for _, e := range j.events {
		if e.Tick >= tick {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of the full journal in append order.
func (j *Journal) All() []SessionEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]SessionEvent, len(j.events))
	copy(out, j.events)
	return out
}

// Replay walks the journal in order, feeding each event to the handler.
// It operates on a copy, so handlers may append new events.
func (j *Journal) Replay(handler func(SessionEvent)) {
	for _, e := range j.All() {
		handler(e)
	}
}
