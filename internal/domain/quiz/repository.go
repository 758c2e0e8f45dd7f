package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	// Get returns nil, nil when no quiz is stored.
	Get(ctx context.Context, contentItemID uuid.UUID) (*Quiz, error)
	// Insert stores q unless one exists and returns whichever quiz is stored.
	Insert(ctx context.Context, q *Quiz) (*Quiz, error)
	// Replace overwrites any stored quiz with q and returns the stored result.
	Replace(ctx context.Context, q *Quiz) (*Quiz, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type quizRow struct {
	ContentItemID uuid.UUID `db:"content_item_id"`
	Questions     []byte    `db:"questions"`
	Source        string    `db:"source"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r quizRow) toQuiz() (*Quiz, error) {
	var questions []Question
	if err := json.Unmarshal(r.Questions, &questions); err != nil {
		return nil, fmt.Errorf("%w: decode questions", ErrInvalidQuiz)
	}
	return &Quiz{
		ContentItemID: r.ContentItemID,
		Questions:     questions,
		Source:        r.Source,
		CreatedAt:     r.CreatedAt,
	}, nil
}

func (r *repository) Get(ctx context.Context, contentItemID uuid.UUID) (*Quiz, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row quizRow
	err := r.db.GetContext(ctx2, &row, `
		SELECT content_item_id, questions, source, created_at
		FROM quizzes
		WHERE content_item_id = $1
	`, contentItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get quiz", ErrBackendUnavailable)
	}
	return row.toQuiz()
}

func (r *repository) Insert(ctx context.Context, q *Quiz) (*Quiz, error) {
	payload, err := json.Marshal(q.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: encode questions", ErrInvalidQuiz)
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx2, `
		INSERT INTO quizzes (content_item_id, questions, source)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_item_id) DO NOTHING
	`, q.ContentItemID, payload, q.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: insert quiz", ErrBackendUnavailable)
	}

	stored, err := r.Get(ctx, q.ContentItemID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: quiz vanished after insert", ErrBackendUnavailable)
	}
	return stored, nil
}

func (r *repository) Replace(ctx context.Context, q *Quiz) (*Quiz, error) {
	payload, err := json.Marshal(q.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: encode questions", ErrInvalidQuiz)
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row quizRow
	err = r.db.GetContext(ctx2, &row, `
		INSERT INTO quizzes (content_item_id, questions, source)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_item_id) DO UPDATE
		SET questions = EXCLUDED.questions, source = EXCLUDED.source, created_at = NOW()
		RETURNING content_item_id, questions, source, created_at
	`, q.ContentItemID, payload, q.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: replace quiz", ErrBackendUnavailable)
	}
	return row.toQuiz()
}
