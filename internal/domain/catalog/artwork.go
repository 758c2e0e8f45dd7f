package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ArtworkQueue tracks uploaded artwork until the thumbnail worker has rendered it.
type ArtworkQueue interface {
	Enqueue(ctx context.Context, collection Collection, entryID uuid.UUID, originalKey string) (*Artwork, error)
	ClaimNext(ctx context.Context, maxAttempts int) (*Artwork, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error
}

type artworkQueue struct {
	db *sqlx.DB
}

func NewArtworkQueue(db *sqlx.DB) ArtworkQueue {
	return &artworkQueue{db: db}
}

func (q *artworkQueue) Enqueue(ctx context.Context, collection Collection, entryID uuid.UUID, originalKey string) (*Artwork, error) {
	if collection != CollectionGames && collection != CollectionPlatforms {
		return nil, ErrInvalidCollection
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a Artwork
	err := q.db.GetContext(ctx2, &a, `
		INSERT INTO catalog_artwork (collection, entry_id, original_key)
		VALUES ($1, $2, $3)
		RETURNING id, collection, entry_id, original_key, process_status, process_attempts, process_error, created_at, processed_at
	`, string(collection), entryID, originalKey)
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue artwork", ErrBackendUnavailable)
	}
	return &a, nil
}

// ClaimNext atomically takes the oldest pending or failed artwork below maxAttempts.
// Returns nil, nil when there is nothing to do.
func (q *artworkQueue) ClaimNext(ctx context.Context, maxAttempts int) (*Artwork, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a Artwork
	err := q.db.GetContext(ctx2, &a, `
		UPDATE catalog_artwork
		SET process_status = 'processing',
		    process_attempts = process_attempts + 1,
		    process_error = NULL
		WHERE id = (
			SELECT id FROM catalog_artwork
			WHERE process_status IN ('pending', 'failed')
			  AND process_attempts < $1
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, collection, entry_id, original_key, process_status, process_attempts, process_error, created_at, processed_at
	`, maxAttempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: claim artwork", ErrBackendUnavailable)
	}
	return &a, nil
}

func (q *artworkQueue) MarkDone(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx2, `
		UPDATE catalog_artwork
		SET process_status = 'done', processed_at = now(), process_error = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("%w: mark artwork done", ErrBackendUnavailable)
	}
	return nil
}

func (q *artworkQueue) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	if len(msg) > 2000 {
		msg = msg[:2000]
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx2, `
		UPDATE catalog_artwork
		SET process_status = 'failed', process_error = $2
		WHERE id = $1
	`, id, msg)
	if err != nil {
		return fmt.Errorf("%w: mark artwork failed", ErrBackendUnavailable)
	}
	return nil
}
