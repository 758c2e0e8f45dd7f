package quizflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/domain/completion"
	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

type fakeContent struct {
	items map[uuid.UUID]*catalog.ContentItem
}

func (f *fakeContent) ContentItem(_ context.Context, id uuid.UUID) (*catalog.ContentItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

type fakeQuizzes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeQuizzes) GetQuiz(_ context.Context, src quiz.Source) (*quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &quiz.Quiz{ContentItemID: src.ContentItemID, Questions: threeQuestions(), Source: quiz.SourceGenerated}, nil
}

// fakeTracker mirrors the completion table plus ledger.
type fakeTracker struct {
	mu       sync.Mutex
	done     map[[2]uuid.UUID]bool
	balances map[uuid.UUID]int64
	failNext bool
	writes   int
	// onRecord runs before each completion write, outside the lock.
	onRecord func()
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{done: map[[2]uuid.UUID]bool{}, balances: map[uuid.UUID]int64{}}
}

func (f *fakeTracker) HasCompleted(_ context.Context, userID, contentItemID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done[[2]uuid.UUID{userID, contentItemID}], nil
}

func (f *fakeTracker) RecordCompletion(_ context.Context, userID, contentItemID uuid.UUID, credits int64) (completion.Result, error) {
	if f.onRecord != nil {
		f.onRecord()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return completion.Result{}, completion.ErrBackendUnavailable
	}
	key := [2]uuid.UUID{userID, contentItemID}
	if f.done[key] {
		return completion.Result{Awarded: false, Balance: f.balances[userID]}, nil
	}
	f.done[key] = true
	f.balances[userID] += credits
	f.writes++
	return completion.Result{Awarded: true, Balance: f.balances[userID]}, nil
}

type fixture struct {
	svc     *Service
	tracker *fakeTracker
	quizzes *fakeQuizzes
	itemID  uuid.UUID
	userID  uuid.UUID
}

func newFixture() *fixture {
	itemID := uuid.New()
	content := &fakeContent{items: map[uuid.UUID]*catalog.ContentItem{
		itemID: {ID: itemID, Title: "Circuits 101", RewardCredits: 50, IsPublished: true},
	}}
	tracker := newFakeTracker()
	quizzes := &fakeQuizzes{}
	svc := NewService(NewMemoryStore(time.Hour), content, quizzes, tracker, DefaultRules)
	return &fixture{svc: svc, tracker: tracker, quizzes: quizzes, itemID: itemID, userID: uuid.New()}
}

// passSession watches to 91% and answers every question correctly.
func (f *fixture) passSession(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.userID, f.itemID)
	require.NoError(t, err)

	sess, err = f.svc.RecordProgress(ctx, f.userID, sess.ID, 91, 100)
	require.NoError(t, err)
	require.True(t, sess.VideoComplete)

	sess, err = f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	require.Equal(t, StateQuizActive, sess.State)

	for i, q := range sess.Questions {
		sess, _, err = f.svc.Answer(ctx, f.userID, sess.ID, i, q.CorrectIndex)
		require.NoError(t, err)
	}
	require.Equal(t, StatePassed, sess.State)
	return sess
}

func TestRewardClaimedOnceThenPractice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess := f.passSession(t)
	assert.True(t, sess.CanClaim())

	sess, res, err := f.svc.Claim(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
	assert.Equal(t, int64(50), res.Credits)
	assert.Equal(t, int64(50), res.Balance)
	assert.True(t, sess.RewardClaimed)

	_, _, err = f.svc.Claim(ctx, f.userID, sess.ID)
	assert.ErrorIs(t, err, ErrNotClaimable)

	again := f.passSession(t)
	assert.True(t, again.Practice)
	assert.False(t, again.CanClaim())
	_, _, err = f.svc.Claim(ctx, f.userID, again.ID)
	assert.ErrorIs(t, err, ErrNotClaimable)

	assert.Equal(t, 1, f.tracker.writes)
	assert.Equal(t, int64(50), f.tracker.balances[f.userID])
}

func TestFailedClaimStaysRetryable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.passSession(t)

	f.tracker.failNext = true
	_, _, err := f.svc.Claim(ctx, f.userID, sess.ID)
	require.ErrorIs(t, err, completion.ErrBackendUnavailable)

	stored, err := f.svc.Get(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.False(t, stored.RewardClaimed)
	assert.True(t, stored.CanClaim())

	_, res, err := f.svc.Claim(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
}

func TestCompletionDetectedAtClaimBecomesPractice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.passSession(t)
	second := f.passSession(t)
	assert.False(t, second.Practice)

	_, _, err := f.svc.Claim(ctx, f.userID, first.ID)
	require.NoError(t, err)

	updated, res, err := f.svc.Claim(ctx, f.userID, second.ID)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.True(t, updated.Practice)
	assert.Equal(t, 1, f.tracker.writes)
}

func TestBeginQuizRequiresCompleteVideo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.userID, f.itemID)
	require.NoError(t, err)
	_, err = f.svc.RecordProgress(ctx, f.userID, sess.ID, 50, 100)
	require.NoError(t, err)

	_, err = f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	assert.ErrorIs(t, err, ErrVideoNotComplete)
	assert.Equal(t, 0, f.quizzes.calls)
}

func TestQuizUnavailableKeepsWatching(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.quizzes.err = quiz.ErrQuizUnavailable

	sess, err := f.svc.Start(ctx, f.userID, f.itemID)
	require.NoError(t, err)
	_, err = f.svc.RecordProgress(ctx, f.userID, sess.ID, 100, 100)
	require.NoError(t, err)

	_, err = f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	require.ErrorIs(t, err, quiz.ErrQuizUnavailable)

	stored, err := f.svc.Get(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateWatching, stored.State)

	f.quizzes.err = nil
	started, err := f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateQuizActive, started.State)
}

func TestRetryReusesQuestions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.userID, f.itemID)
	require.NoError(t, err)
	_, err = f.svc.RecordProgress(ctx, f.userID, sess.ID, 100, 100)
	require.NoError(t, err)
	sess, err = f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	require.NoError(t, err)

	sess, _, err = f.svc.Answer(ctx, f.userID, sess.ID, 0, (sess.Questions[0].CorrectIndex+1)%4)
	require.NoError(t, err)
	sess, _, err = f.svc.Answer(ctx, f.userID, sess.ID, 1, sess.Questions[1].CorrectIndex)
	require.NoError(t, err)
	sess, _, err = f.svc.Answer(ctx, f.userID, sess.ID, 2, sess.Questions[2].CorrectIndex)
	require.NoError(t, err)
	require.Equal(t, StateFailed, sess.State)

	sess, err = f.svc.Retry(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.VideoComplete)

	sess, err = f.svc.BeginQuiz(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Attempts)
	assert.Equal(t, 1, f.quizzes.calls)
}

func TestCancelledSessionCannotBeClaimed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.passSession(t)

	require.NoError(t, f.svc.Cancel(ctx, f.userID, sess.ID))

	_, _, err := f.svc.Claim(ctx, f.userID, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, f.tracker.writes)
}

func TestCancelDuringClaimIsRefused(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.passSession(t)

	var cancelErr error
	f.tracker.onRecord = func() {
		cancelErr = f.svc.Cancel(ctx, f.userID, sess.ID)
	}

	updated, res, err := f.svc.Claim(ctx, f.userID, sess.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, cancelErr, ErrInvalidTransition)
	assert.True(t, res.Awarded)
	assert.True(t, updated.RewardClaimed)
	assert.False(t, updated.Claiming)

	f.tracker.onRecord = nil
	require.NoError(t, f.svc.Cancel(ctx, f.userID, sess.ID))
}

func TestFailedClaimAllowsCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.passSession(t)

	f.tracker.failNext = true
	_, _, err := f.svc.Claim(ctx, f.userID, sess.ID)
	require.Error(t, err)

	require.NoError(t, f.svc.Cancel(ctx, f.userID, sess.ID))
	_, _, err = f.svc.Claim(ctx, f.userID, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, f.tracker.writes)
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.userID, f.itemID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, uuid.New(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.RecordProgress(ctx, uuid.New(), sess.ID, 100, 100)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartUnknownContent(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), f.userID, uuid.New())
	assert.True(t, errors.Is(err, ErrContentNotFound))
}
