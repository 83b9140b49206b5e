package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/workpulse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, start_time, end_time, hourly_rate, cached_steps, created_at`

// ListSessions returns every work session, newest first.
func (db *DB) ListSessions(ctx context.Context) ([]models.WorkSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions ORDER BY start_time DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.WorkSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSession returns one session or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.WorkSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSession stores s, assigning an ID and creation time when unset.
func (db *DB) InsertSession(ctx context.Context, s *models.WorkSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO work_sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.Start, s.End, s.HourlyRate, s.CachedSteps, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// UpdateSession overwrites the mutable fields of an existing session.
func (db *DB) UpdateSession(ctx context.Context, s models.WorkSession) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE work_sessions SET start_time = $2, end_time = $3, hourly_rate = $4, cached_steps = $5
		 WHERE id = $1`,
		s.ID, s.Start, s.End, s.HourlyRate, s.CachedSteps)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM work_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (models.WorkSession, error) {
	var s models.WorkSession
	err := row.Scan(&s.ID, &s.Start, &s.End, &s.HourlyRate, &s.CachedSteps, &s.CreatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return s, fmt.Errorf("scanning session: %w", err)
	}
	return s, err
}
