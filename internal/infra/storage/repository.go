// Package storage provides the persistence layer for the engine server.
// This package implements the repository pattern to keep the session
// domain pure.
package storage

import (
	"context"
	"time"
)

// SessionEvent mirrors the journal event structure for persistence.
// The events package should NOT import this; the adapter in cmd converts.
type SessionEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Tick      uint64                 `json:"tick" db:"tick"`
	EventType string                 `json:"event_type" db:"event_type"`
	Source    string                 `json:"source" db:"source"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event SessionEvent) error

	// GetBySessionID retrieves all events of a session in tick order.
	GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error)

	// GetByType retrieves a session's events of one type.
	GetByType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error)

	// GetSinceTick retrieves a session's events at or after a tick.
	GetSinceTick(ctx context.Context, sessionID string, tick uint64) ([]SessionEvent, error)

	// GetByID retrieves a single event.
	GetByID(ctx context.Context, eventID string) (*SessionEvent, error)

	// CountByType aggregates a session's events per type.
	CountByType(ctx context.Context, sessionID string) (map[string]int, error)
}

// SessionRecord describes one recorded run of the engine.
type SessionRecord struct {
	ID           string     `json:"id" db:"id"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	ScriptPath   string     `json:"script_path" db:"script_path"`
	InitialState string     `json:"initial_state" db:"initial_state"`
	Seed         int64      `json:"seed" db:"seed"`
}

// SessionRepository defines the interface for session bookkeeping.
type SessionRepository interface {
	// Create registers a new session at startup.
	Create(ctx context.Context, record SessionRecord) error

	// Close stamps the session's end time at shutdown.
	Close(ctx context.Context, sessionID string, endedAt time.Time) error

	// Get retrieves one session.
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)

	// Latest retrieves the most recently started session, nil when none exist.
	Latest(ctx context.Context) (*SessionRecord, error)

	// List retrieves recent sessions, newest first.
	List(ctx context.Context, limit int) ([]SessionRecord, error)
}
