package completion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkquest/arcade-api/internal/domain/credit"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[[2]uuid.UUID]Record
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[[2]uuid.UUID]Record{}}
}

func (f *fakeRepo) Exists(_ context.Context, userID, contentItemID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[[2]uuid.UUID{userID, contentItemID}]
	return ok, nil
}

func (f *fakeRepo) InsertTx(_ context.Context, _ *sqlx.Tx, rec Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{rec.UserID, rec.ContentItemID}
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = rec
	return true, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, 0)
	for k, v := range f.records {
		if k[0] == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeLedger struct {
	balance  int64
	credits  int
	notified []int64
	err      error
}

func (l *fakeLedger) AdjustBalanceTx(_ context.Context, _ *sqlx.Tx, userID uuid.UUID, delta int64, txType credit.TxType, meta credit.Meta) (credit.Adjustment, error) {
	if l.err != nil {
		return credit.Adjustment{}, l.err
	}
	if txType != credit.TxTypeReward {
		return credit.Adjustment{}, credit.ErrInvalidTxType
	}
	l.balance += delta
	l.credits++
	return credit.Adjustment{UserID: userID, Delta: delta, TxType: txType, Meta: meta, Balance: l.balance}, nil
}

func (l *fakeLedger) GetBalance(context.Context, uuid.UUID) (int64, error) {
	return l.balance, nil
}

func (l *fakeLedger) Notify(_ context.Context, adj credit.Adjustment) {
	l.notified = append(l.notified, adj.Balance)
}

func newTracker(t *testing.T, repo Repository, ledger Ledger) (*Tracker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTracker(sqlx.NewDb(db, "sqlmock"), repo, ledger, nil), mock
}

func TestRecordCompletionAwardsOnce(t *testing.T) {
	ledger := &fakeLedger{}
	tracker, mock := newTracker(t, newFakeRepo(), ledger)
	userID, itemID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	first, err := tracker.RecordCompletion(context.Background(), userID, itemID, 50)
	require.NoError(t, err)
	assert.True(t, first.Awarded)
	assert.Equal(t, int64(50), first.Balance)

	second, err := tracker.RecordCompletion(context.Background(), userID, itemID, 50)
	require.NoError(t, err)
	assert.False(t, second.Awarded)
	assert.Equal(t, int64(50), second.Balance)

	assert.Equal(t, 1, ledger.credits)
	assert.Equal(t, []int64{50}, ledger.notified)
	assert.NoError(t, mock.ExpectationsWereMet())

	done, err := tracker.HasCompleted(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRecordCompletionRollsBackWhenLedgerFails(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{err: credit.ErrBackendUnavailable}
	tracker, mock := newTracker(t, repo, ledger)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := tracker.RecordCompletion(context.Background(), uuid.New(), uuid.New(), 50)
	assert.True(t, errors.Is(err, credit.ErrBackendUnavailable), "got %v", err)
	assert.Empty(t, ledger.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCompletionRejectsNonPositiveReward(t *testing.T) {
	tracker, _ := newTracker(t, newFakeRepo(), &fakeLedger{})

	_, err := tracker.RecordCompletion(context.Background(), uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidReward)
}

func TestRecordCompletionBeginFailure(t *testing.T) {
	tracker, mock := newTracker(t, newFakeRepo(), &fakeLedger{})
	mock.ExpectBegin().WillReturnError(errors.New("down"))

	_, err := tracker.RecordCompletion(context.Background(), uuid.New(), uuid.New(), 10)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
