package arcade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/metrics"
)

const expireBatch = 100

// GameSource resolves active games at their current price.
type GameSource interface {
	Game(ctx context.Context, id uuid.UUID) (*catalog.Game, error)
}

// Ledger is the part of the credit service purchases write through.
type Ledger interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int64, txType credit.TxType, meta credit.Meta) (credit.Adjustment, error)
	Notify(ctx context.Context, adj credit.Adjustment)
}

// Notifier hears about session lifecycle events after they are committed.
type Notifier interface {
	SessionStarted(ctx context.Context, h *Handle)
	SessionExpired(ctx context.Context, s *Session)
}

type noopNotifier struct{}

func (noopNotifier) SessionStarted(context.Context, *Handle)  {}
func (noopNotifier) SessionExpired(context.Context, *Session) {}

type Service struct {
	db        *sqlx.DB
	repo      Repository
	games     GameSource
	ledger    Ledger
	notifier  Notifier
	durations []int
	now       func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, games GameSource, ledger Ledger, notifier Notifier, durations []int) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if len(durations) == 0 {
		durations = []int{5, 10, 15}
	}
	return &Service{
		db:        db,
		repo:      repo,
		games:     games,
		ledger:    ledger,
		notifier:  notifier,
		durations: durations,
		now:       time.Now,
	}
}

// Durations lists the offered session lengths in minutes.
func (s *Service) Durations() []int {
	out := make([]int, len(s.durations))
	copy(out, s.durations)
	return out
}

func (s *Service) validDuration(minutes int) bool {
	for _, d := range s.durations {
		if d == minutes {
			return true
		}
	}
	return false
}

func (s *Service) lookupGame(ctx context.Context, id uuid.UUID) (*catalog.Game, error) {
	game, err := s.games.Game(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return game, nil
}

// Quote prices a purchase against the caller's current balance.
func (s *Service) Quote(ctx context.Context, userID, gameID uuid.UUID, minutes int) (*Quote, error) {
	if !s.validDuration(minutes) {
		return nil, ErrInvalidDuration
	}
	game, err := s.lookupGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	cost := Cost(minutes, game.CostPerMinute)
	return &Quote{
		GameID:          game.ID,
		DurationMinutes: minutes,
		CostPerMinute:   game.CostPerMinute,
		Cost:            cost,
		Balance:         balance,
		Affordable:      balance >= cost,
	}, nil
}

// Purchase debits the session cost and creates the session in one transaction.
// Either both happen or neither does; a short balance yields credit.ErrInsufficientFunds.
func (s *Service) Purchase(ctx context.Context, userID, gameID uuid.UUID, minutes int) (*Handle, error) {
	if !s.validDuration(minutes) {
		return nil, ErrInvalidDuration
	}
	game, err := s.lookupGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	cost := Cost(minutes, game.CostPerMinute)

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		metrics.Purchases.WithLabelValues("insufficient").Inc()
		return nil, credit.ErrInsufficientFunds
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrBackendUnavailable)
	}
	defer tx.Rollback()

	now := s.now()
	sess := &Session{
		ID:              uuid.New(),
		UserID:          userID,
		GameID:          game.ID,
		DurationMinutes: minutes,
		Cost:            cost,
		Status:          StatusActive,
		StartedAt:       now,
		ExpiresAt:       now.Add(time.Duration(minutes) * time.Minute),
	}

	adj, err := s.ledger.AdjustBalanceTx(ctx, tx, userID, -cost, credit.TxTypeSessionPurchase, credit.Meta{
		ReferenceType: "arcade_session",
		ReferenceID:   sess.ID.String(),
		Description:   fmt.Sprintf("%s, %d min", game.Title, minutes),
	})
	if err != nil {
		s.observe(ctx, err)
		return nil, err
	}
	if err := s.repo.InsertTx(ctx, tx, sess); err != nil {
		s.observe(ctx, err)
		return nil, err
	}

	// A caller that went away before commit gets nothing and pays nothing.
	if err := ctx.Err(); err != nil {
		s.observe(ctx, err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.observe(ctx, err)
		return nil, fmt.Errorf("%w: commit tx", ErrBackendUnavailable)
	}

	s.observe(ctx, nil)
	logger.LogInfo(ctx, "arcade session purchased",
		"session_id", sess.ID.String(),
		"user_id", userID.String(),
		"game_id", game.ID.String(),
		"minutes", minutes,
		"cost", cost,
		"balance", adj.Balance,
	)

	h := s.handle(sess, game)
	h.Balance = &adj.Balance
	s.ledger.Notify(ctx, adj)
	s.notifier.SessionStarted(ctx, h)
	return h, nil
}

// ListActive returns the caller's running sessions.
func (s *Service) ListActive(ctx context.Context, userID uuid.UUID) ([]Handle, error) {
	sessions, err := s.repo.ListActive(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]Handle, 0, len(sessions))
	for i := range sessions {
		out = append(out, *s.handle(&sessions[i], s.gameFor(ctx, sessions[i].GameID)))
	}
	return out, nil
}

// Get returns one of the caller's sessions with its remaining time.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Handle, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s.handle(sess, s.gameFor(ctx, sess.GameID)), nil
}

// End stops a running session early. Unused time is not refunded.
func (s *Service) End(ctx context.Context, userID, id uuid.UUID) (*Handle, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	sess, err := s.repo.End(ctx, id, userID, s.now())
	if err != nil {
		return nil, err
	}
	logger.LogInfo(ctx, "arcade session ended early", "session_id", id.String(), "user_id", userID.String())
	return s.handle(sess, nil), nil
}

// ExpireDue marks overdue sessions expired and notifies their owners.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	total := 0
	for {
		expired, err := s.repo.ExpireDue(ctx, s.now(), expireBatch)
		if err != nil {
			return total, err
		}
		for i := range expired {
			s.notifier.SessionExpired(ctx, &expired[i])
		}
		total += len(expired)
		if len(expired) < expireBatch {
			return total, nil
		}
	}
}

// gameFor decorates a handle; a missing game only drops the decoration.
func (s *Service) gameFor(ctx context.Context, id uuid.UUID) *catalog.Game {
	game, err := s.games.Game(ctx, id)
	if err != nil {
		return nil
	}
	return game
}

func (s *Service) handle(sess *Session, game *catalog.Game) *Handle {
	h := &Handle{
		Session:          *sess,
		RemainingSeconds: int64(sess.Remaining(s.now()).Seconds()),
	}
	if game != nil {
		h.GameTitle = game.Title
		h.ExternalURL = game.ExternalURL
	}
	return h
}

func (s *Service) observe(ctx context.Context, err error) {
	switch {
	case err == nil:
		metrics.Purchases.WithLabelValues("ok").Inc()
	case errors.Is(err, credit.ErrInsufficientFunds):
		metrics.Purchases.WithLabelValues("insufficient").Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.Purchases.WithLabelValues("cancelled").Inc()
	default:
		metrics.Purchases.WithLabelValues("error").Inc()
		logger.LogError(ctx, err, "arcade purchase failed")
	}
}
