package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Compile-time interface checks.
var (
	_ EventRepository   = (*SQLiteEventRepository)(nil)
	_ SessionRepository = (*SQLiteSessionRepository)(nil)
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event SessionEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO session_events (id, session_id, tick, event_type, source, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Tick, event.EventType,
		event.Source, string(payloadBytes), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]SessionEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var payloadStr string
		err := rows.Scan(&e.ID, &e.SessionID, &e.Tick, &e.EventType, &e.Source, &payloadStr, &e.Timestamp)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, tick, event_type, source, payload, timestamp FROM session_events WHERE session_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByType(ctx context.Context, sessionID string, eventType string) ([]SessionEvent, error) {
	query := `SELECT id, session_id, tick, event_type, source, payload, timestamp FROM session_events WHERE session_id = ? AND event_type = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetSinceTick(ctx context.Context, sessionID string, tick uint64) ([]SessionEvent, error) {
	query := `SELECT id, session_id, tick, event_type, source, payload, timestamp FROM session_events WHERE session_id = ? AND tick >= ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, tick)
}

func (r *SQLiteEventRepository) GetByID(ctx context.Context, eventID string) (*SessionEvent, error) {
	query := `SELECT id, session_id, tick, event_type, source, payload, timestamp FROM session_events WHERE id = ?`
	events, err := r.getMany(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *SQLiteEventRepository) CountByType(ctx context.Context, sessionID string) (map[string]int, error) {
	query := `SELECT event_type, COUNT(*) FROM session_events WHERE session_id = ? GROUP BY event_type`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}
