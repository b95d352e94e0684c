package storage

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteSessionRepository implements SessionRepository for SQLite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, record SessionRecord) error {
	query := `INSERT INTO sessions (id, started_at, ended_at, script_path, initial_state, seed) VALUES (?, ?, NULL, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.StartedAt, record.ScriptPath, record.InitialState, record.Seed,
	)
	return err
}

func (r *SQLiteSessionRepository) Close(ctx context.Context, sessionID string, endedAt time.Time) error {
	query := `UPDATE sessions SET ended_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, endedAt, sessionID)
	return err
}

func (r *SQLiteSessionRepository) scanOne(row *sql.Row) (*SessionRecord, error) {
	var record SessionRecord
	var endedAt sql.NullTime
	err := row.Scan(&record.ID, &record.StartedAt, &endedAt, &record.ScriptPath, &record.InitialState, &record.Seed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if endedAt.Valid {
		record.EndedAt = &endedAt.Time
	}
	return &record, nil
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query := `SELECT id, started_at, ended_at, script_path, initial_state, seed FROM sessions WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, sessionID))
}

func (r *SQLiteSessionRepository) Latest(ctx context.Context) (*SessionRecord, error) {
	query := `SELECT id, started_at, ended_at, script_path, initial_state, seed FROM sessions ORDER BY started_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteSessionRepository) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := `SELECT id, started_at, ended_at, script_path, initial_state, seed FROM sessions ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var record SessionRecord
		var endedAt sql.NullTime
		if err := rows.Scan(&record.ID, &record.StartedAt, &endedAt, &record.ScriptPath, &record.InitialState, &record.Seed); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			record.EndedAt = &endedAt.Time
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
