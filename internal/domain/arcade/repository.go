package arcade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const sessionColumns = `id, user_id, game_id, duration_minutes, cost, status, started_at, expires_at, ended_at`

type Repository interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error)
	End(ctx context.Context, id, userID uuid.UUID, now time.Time) (*Session, error)
	ExpireDue(ctx context.Context, now time.Time, limit int) ([]Session, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, s *Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO arcade_sessions (id, user_id, game_id, duration_minutes, cost, status, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.UserID, s.GameID, s.DurationMinutes, s.Cost, s.Status, s.StartedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: insert session", ErrBackendUnavailable)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Session
	err := r.db.GetContext(ctx2, &s, `SELECT `+sessionColumns+` FROM arcade_sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get session", ErrBackendUnavailable)
	}
	return &s, nil
}

func (r *repository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sessions := make([]Session, 0)
	err := r.db.SelectContext(ctx2, &sessions, `
		SELECT `+sessionColumns+`
		FROM arcade_sessions
		WHERE user_id = $1 AND status = 'active' AND expires_at > $2
		ORDER BY expires_at
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions", ErrBackendUnavailable)
	}
	return sessions, nil
}

// End stops an active session early. Returns ErrSessionNotActive when nothing matched.
func (r *repository) End(ctx context.Context, id, userID uuid.UUID, now time.Time) (*Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Session
	err := r.db.GetContext(ctx2, &s, `
		UPDATE arcade_sessions
		SET status = 'ended', ended_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		RETURNING `+sessionColumns, id, userID, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("%w: end session", ErrBackendUnavailable)
	}
	return &s, nil
}

// ExpireDue flips up to limit overdue sessions to expired and returns them.
// Rows locked by another reaper are skipped.
func (r *repository) ExpireDue(ctx context.Context, now time.Time, limit int) ([]Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sessions := make([]Session, 0)
	err := r.db.SelectContext(ctx2, &sessions, `
		UPDATE arcade_sessions
		SET status = 'expired', ended_at = expires_at
		WHERE id IN (
			SELECT id FROM arcade_sessions
			WHERE status = 'active' AND expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+sessionColumns, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: expire sessions", ErrBackendUnavailable)
	}
	return sessions, nil
}
