package completion

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
)

// Ledger is the part of the credit service the tracker writes through.
type Ledger interface {
	AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType credit.TxType, meta credit.Meta) (credit.Adjustment, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	Notify(ctx context.Context, adj credit.Adjustment)
}

// Notifier is told about new completions after commit.
type Notifier interface {
	CompletionRecorded(ctx context.Context, userID, contentItemID uuid.UUID, credits int64)
}

// Tracker records completions and issues the one-time reward.
type Tracker struct {
	db       *sqlx.DB
	repo     Repository
	ledger   Ledger
	notifier Notifier
}

func NewTracker(db *sqlx.DB, repo Repository, ledger Ledger, notifier Notifier) *Tracker {
	return &Tracker{db: db, repo: repo, ledger: ledger, notifier: notifier}
}

func (t *Tracker) HasCompleted(ctx context.Context, userID, contentItemID uuid.UUID) (bool, error) {
	return t.repo.Exists(ctx, userID, contentItemID)
}

// RecordCompletion writes the completion record and the reward in one transaction.
// If the record already exists nothing is credited and Awarded is false.
func (t *Tracker) RecordCompletion(ctx context.Context, userID, contentItemID uuid.UUID, creditsAwarded int64) (Result, error) {
	if creditsAwarded <= 0 {
		return Result{}, ErrInvalidReward
	}

	tx, err := t.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("%w: begin tx", ErrBackendUnavailable)
	}
	defer tx.Rollback()

	created, err := t.repo.InsertTx(ctx, tx, Record{
		UserID:         userID,
		ContentItemID:  contentItemID,
		CreditsAwarded: creditsAwarded,
	})
	if err != nil {
		return Result{}, err
	}

	if !created {
		if err := tx.Commit(); err != nil {
			return Result{}, fmt.Errorf("%w: commit tx", ErrBackendUnavailable)
		}
		balance, err := t.ledger.GetBalance(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		logger.LogInfo(ctx, "completion already recorded",
			"user_id", userID.String(),
			"content_item_id", contentItemID.String(),
		)
		return Result{Awarded: false, Balance: balance}, nil
	}

	adj, err := t.ledger.AdjustBalanceTx(ctx, tx, userID, creditsAwarded, credit.TxTypeReward, credit.Meta{
		ReferenceType: "content_item",
		ReferenceID:   contentItemID.String(),
		Description:   "video quiz reward",
	})
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("%w: commit tx", ErrBackendUnavailable)
	}

	logger.LogInfo(ctx, "completion recorded",
		"user_id", userID.String(),
		"content_item_id", contentItemID.String(),
		"credits", creditsAwarded,
		"balance", adj.Balance,
	)

	t.ledger.Notify(ctx, adj)
	if t.notifier != nil {
		t.notifier.CompletionRecorded(ctx, userID, contentItemID, creditsAwarded)
	}

	return Result{Awarded: true, Balance: adj.Balance}, nil
}

func (t *Tracker) ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	return t.repo.ListByUser(ctx, userID)
}
