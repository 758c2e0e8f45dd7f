package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparkquest/arcade-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	Adjust(ctx context.Context, userID uuid.UUID, delta int64, txType TxType, meta Meta) (int64, error)
	AdjustTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType TxType, meta Meta) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error)
}

// CreditRepository provides ledger and balance operations on Postgres.
type CreditRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// DB exposes the handle so other domains can open a transaction spanning a balance change.
func (r *CreditRepository) DB() *sqlx.DB {
	return r.db
}

func (r *CreditRepository) Adjust(ctx context.Context, userID uuid.UUID, delta int64, txType TxType, meta Meta) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrBackendUnavailable)
	}
	defer tx.Rollback()

	balance, err := r.AdjustTx(ctx2, tx, userID, delta, txType, meta)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrBackendUnavailable)
	}

	return balance, nil
}

// AdjustTx applies delta within an external transaction and writes the ledger row.
// It does NOT commit or rollback; the caller owns tx.
// The conditional UPDATE takes the row lock, so concurrent debits serialize on it
// and the guard is re-evaluated against the latest balance.
func (r *CreditRepository) AdjustTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType TxType, meta Meta) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credit_accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return 0, fmt.Errorf("%w: ensure account", ErrBackendUnavailable)
	}

	var balance int64
	err := tx.QueryRowxContext(ctx, `
		UPDATE credit_accounts
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`, userID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("%w: update balance", ErrBackendUnavailable)
	}

	if err := r.insertLedger(ctx, tx, userID, delta, txType, meta, balance); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *CreditRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, `SELECT balance FROM credit_accounts WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get balance", ErrBackendUnavailable)
	}

	return balance, nil
}

func (r *CreditRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount_delta, tx_type, reference_type, reference_id, description, balance_after, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrBackendUnavailable)
	}

	return transactions, nil
}

func (r *CreditRepository) insertLedger(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType TxType, meta Meta, balanceAfter int64) error {
	if !txType.Valid() {
		return ErrInvalidTxType
	}

	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = "credit balance adjustment"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, amount_delta, tx_type, reference_type, reference_id, description, balance_after
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
	`, userID, delta, string(txType), nullable(meta.ReferenceType), nullable(meta.ReferenceID), meta.Description, balanceAfter)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("%w: insert transaction", ErrBackendUnavailable)
	}

	return nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
