package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Exists(ctx context.Context, userID, contentItemID uuid.UUID) (bool, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, rec Record) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Exists(ctx context.Context, userID, contentItemID uuid.UUID) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx2, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM completion_records WHERE user_id = $1 AND content_item_id = $2
		)
	`, userID, contentItemID)
	if err != nil {
		return false, fmt.Errorf("%w: exists", ErrBackendUnavailable)
	}
	return exists, nil
}

// InsertTx creates the record if absent and reports whether this call created it.
func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, rec Record) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO completion_records (user_id, content_item_id, credits_awarded)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, content_item_id) DO NOTHING
	`, rec.UserID, rec.ContentItemID, rec.CreditsAwarded)
	if err != nil {
		return false, fmt.Errorf("%w: insert record", ErrBackendUnavailable)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected", ErrBackendUnavailable)
	}
	return rows == 1, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]Record, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT user_id, content_item_id, credits_awarded, completed_at
		FROM completion_records
		WHERE user_id = $1
		ORDER BY completed_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list records", ErrBackendUnavailable)
	}
	return records, nil
}
