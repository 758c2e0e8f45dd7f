package credit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/metrics"
)

// Notifier is told about every committed balance change.
type Notifier interface {
	BalanceChanged(ctx context.Context, userID uuid.UUID, balance int64)
}

type noopNotifier struct{}

func (noopNotifier) BalanceChanged(context.Context, uuid.UUID, int64) {}

// Service is the only writer of balances.
type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{repo: repo, notifier: notifier}
}

// GetBalance returns the confirmed balance; unknown users have 0.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// AdjustBalance applies a signed delta in its own transaction and returns the new balance.
func (s *Service) AdjustBalance(ctx context.Context, userID uuid.UUID, delta int64, txType TxType, meta Meta) (int64, error) {
	if err := checkDelta(delta, txType); err != nil {
		return 0, err
	}

	balance, err := s.repo.Adjust(ctx, userID, delta, txType, meta)
	if err != nil {
		s.observeFailure(ctx, userID, txType, err)
		return 0, err
	}

	s.Notify(ctx, Adjustment{UserID: userID, Delta: delta, TxType: txType, Meta: meta, Balance: balance})
	return balance, nil
}

// AdjustBalanceTx applies delta inside the caller's transaction.
// The caller must pass the result to Notify after a successful commit.
func (s *Service) AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType TxType, meta Meta) (Adjustment, error) {
	if err := checkDelta(delta, txType); err != nil {
		return Adjustment{}, err
	}

	balance, err := s.repo.AdjustTx(ctx, tx, userID, delta, txType, meta)
	if err != nil {
		s.observeFailure(ctx, userID, txType, err)
		return Adjustment{}, err
	}
	return Adjustment{UserID: userID, Delta: delta, TxType: txType, Meta: meta, Balance: balance}, nil
}

// Notify records and publishes a committed adjustment.
func (s *Service) Notify(ctx context.Context, adj Adjustment) {
	logger.LogInfo(ctx, "credit balance adjusted",
		"user_id", adj.UserID.String(),
		"delta", adj.Delta,
		"tx_type", string(adj.TxType),
		"reference_id", adj.Meta.ReferenceID,
	)
	metrics.CreditAdjustments.WithLabelValues(string(adj.TxType), "ok").Inc()
	s.notifier.BalanceChanged(ctx, adj.UserID, adj.Balance)
}

// Grant credits a user on behalf of an operator (admin grant or refund).
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int64, txType TxType, meta Meta) (int64, error) {
	if txType == "" {
		txType = TxTypeAdminGrant
	}
	if txType != TxTypeAdminGrant && txType != TxTypeRefund {
		return 0, ErrInvalidTxType
	}
	return s.AdjustBalance(ctx, userID, amount, txType, meta)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error) {
	if pagination.Limit > 100 {
		pagination.Limit = 100
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, pagination)
}

func checkDelta(delta int64, txType TxType) error {
	if !txType.Valid() {
		return ErrInvalidTxType
	}
	if delta == 0 {
		return ErrInvalidAmount
	}
	if txType.IsCredit() != (delta > 0) {
		return ErrInvalidAmount
	}
	return nil
}

func (s *Service) observeFailure(ctx context.Context, userID uuid.UUID, txType TxType, err error) {
	result := "error"
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		result = "insufficient"
	case errors.Is(err, ErrDuplicateReference):
		result = "duplicate"
	default:
		logger.LogError(ctx, err, "credit adjustment failed",
			"user_id", userID.String(),
			"tx_type", string(txType),
		)
	}
	metrics.CreditAdjustments.WithLabelValues(string(txType), result).Inc()
}
