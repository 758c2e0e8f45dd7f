package quizflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/domain/completion"
	"github.com/sparkquest/arcade-api/internal/domain/quiz"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/metrics"
)

// ContentSource resolves published content items.
type ContentSource interface {
	ContentItem(ctx context.Context, id uuid.UUID) (*catalog.ContentItem, error)
}

// QuizSource resolves the quiz for a content item.
type QuizSource interface {
	GetQuiz(ctx context.Context, src quiz.Source) (*quiz.Quiz, error)
}

// CompletionTracker records the one-time reward.
type CompletionTracker interface {
	HasCompleted(ctx context.Context, userID, contentItemID uuid.UUID) (bool, error)
	RecordCompletion(ctx context.Context, userID, contentItemID uuid.UUID, creditsAwarded int64) (completion.Result, error)
}

type Service struct {
	store   Store
	content ContentSource
	quizzes QuizSource
	tracker CompletionTracker
	rules   Rules
	now     func() time.Time
}

func NewService(store Store, content ContentSource, quizzes QuizSource, tracker CompletionTracker, rules Rules) *Service {
	if rules.VideoCompleteThreshold <= 0 || rules.VideoCompleteThreshold >= 1 {
		rules.VideoCompleteThreshold = DefaultRules.VideoCompleteThreshold
	}
	if rules.PassThreshold <= 0 || rules.PassThreshold > 1 {
		rules.PassThreshold = DefaultRules.PassThreshold
	}
	if rules.FeedbackDelay < 0 {
		rules.FeedbackDelay = DefaultRules.FeedbackDelay
	}
	return &Service{
		store:   store,
		content: content,
		quizzes: quizzes,
		tracker: tracker,
		rules:   rules,
		now:     time.Now,
	}
}

func (s *Service) Rules() Rules {
	return s.rules
}

// Start opens a session for a published content item. Items the user already
// completed run in practice mode.
func (s *Service) Start(ctx context.Context, userID, contentItemID uuid.UUID) (*Session, error) {
	item, err := s.lookupContent(ctx, contentItemID)
	if err != nil {
		return nil, err
	}

	completed, err := s.tracker.HasCompleted(ctx, userID, contentItemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:            uuid.New(),
		UserID:        userID,
		ContentItemID: item.ID,
		RewardCredits: item.RewardCredits,
		State:         StateWatching,
		Practice:      completed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	metrics.QuizFlowTransitions.WithLabelValues(string(StateWatching)).Inc()
	logger.LogInfo(ctx, "quiz session started",
		"session_id", sess.ID.String(),
		"user_id", userID.String(),
		"content_item_id", contentItemID.String(),
		"practice", completed,
	)
	return sess, nil
}

// Get returns a session owned by userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID || sess.Cancelled {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// RecordProgress stores a playback position report.
func (s *Service) RecordProgress(ctx context.Context, userID, id uuid.UUID, elapsed, duration float64) (*Session, error) {
	return s.update(ctx, userID, id, func(sess *Session) error {
		return sess.RecordProgress(elapsed, duration, s.rules)
	})
}

// BeginQuiz loads the quiz and moves the session into it. A failed load leaves
// the session watching so the caller can try again.
func (s *Service) BeginQuiz(ctx context.Context, userID, id uuid.UUID) (*Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateWatching {
		return nil, ErrInvalidTransition
	}
	if !sess.VideoComplete {
		return nil, ErrVideoNotComplete
	}

	q, err := s.loadQuiz(ctx, sess)
	if err != nil {
		logger.LogWarn(ctx, "quiz load failed",
			"session_id", id.String(),
			"content_item_id", sess.ContentItemID.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	updated, err := s.update(ctx, userID, id, func(cur *Session) error {
		return cur.StartQuiz(q)
	})
	if err != nil {
		return nil, err
	}
	metrics.QuizFlowTransitions.WithLabelValues(string(StateQuizActive)).Inc()
	return updated, nil
}

// loadQuiz reuses the questions of an earlier attempt so retries see the same quiz.
func (s *Service) loadQuiz(ctx context.Context, sess *Session) (*quiz.Quiz, error) {
	if len(sess.Questions) > 0 {
		return &quiz.Quiz{
			ContentItemID: sess.ContentItemID,
			Questions:     sess.Questions,
			Source:        sess.QuizSource,
		}, nil
	}

	item, err := s.lookupContent(ctx, sess.ContentItemID)
	if err != nil {
		return nil, err
	}
	return s.quizzes.GetQuiz(ctx, quiz.Source{
		ContentItemID: item.ID,
		Title:         item.Title,
		Description:   item.Description,
		Authored:      item.AuthoredQuiz,
	})
}

// Answer locks an answer for the current question.
func (s *Service) Answer(ctx context.Context, userID, id uuid.UUID, questionIndex, option int) (*Session, *Feedback, error) {
	var fb *Feedback
	sess, err := s.update(ctx, userID, id, func(cur *Session) error {
		var err error
		fb, err = cur.Answer(questionIndex, option, s.rules)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if fb.Finished {
		metrics.QuizFlowTransitions.WithLabelValues(string(sess.State)).Inc()
		logger.LogInfo(ctx, "quiz finished",
			"session_id", id.String(),
			"user_id", userID.String(),
			"state", string(sess.State),
			"score", sess.Score,
			"total", len(sess.Questions),
		)
	}
	return sess, fb, nil
}

// Retry loops a failed session back to watching.
func (s *Service) Retry(ctx context.Context, userID, id uuid.UUID) (*Session, error) {
	sess, err := s.update(ctx, userID, id, func(cur *Session) error {
		return cur.Retry()
	})
	if err != nil {
		return nil, err
	}
	metrics.QuizFlowTransitions.WithLabelValues(string(StateWatching)).Inc()
	return sess, nil
}

// Claim issues the reward for a passed session. The session is marked claimed
// only after the completion write succeeded, so failures can be retried.
func (s *Service) Claim(ctx context.Context, userID, id uuid.UUID) (*Session, *ClaimResult, error) {
	sess, err := s.update(ctx, userID, id, func(cur *Session) error {
		if !cur.CanClaim() {
			return ErrNotClaimable
		}
		cur.Claiming = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	res, err := s.tracker.RecordCompletion(ctx, userID, sess.ContentItemID, sess.RewardCredits)
	if err != nil {
		logger.LogError(ctx, err, "reward claim failed",
			"session_id", id.String(),
			"user_id", userID.String(),
		)
		if _, uerr := s.update(ctx, userID, id, func(cur *Session) error {
			cur.Claiming = false
			return nil
		}); uerr != nil {
			logger.LogWarn(ctx, "claim marker could not be cleared", "session_id", id.String(), "error", uerr.Error())
		}
		return nil, nil, err
	}

	updated, err := s.update(ctx, userID, id, func(cur *Session) error {
		cur.Claiming = false
		if res.Awarded {
			cur.RewardClaimed = true
		} else if !cur.RewardClaimed {
			cur.Practice = true
		}
		return nil
	})
	if err != nil {
		// The reward is committed; a lost session only hides the claimed flag.
		logger.LogWarn(ctx, "claimed session could not be updated", "session_id", id.String(), "error", err.Error())
		updated = sess
	}

	result := &ClaimResult{Awarded: res.Awarded, Balance: res.Balance}
	if res.Awarded {
		result.Credits = sess.RewardCredits
	}
	return updated, result, nil
}

// Cancel drops the session. Nothing is awarded for a cancelled session, and a
// session whose claim is in flight cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.update(ctx, userID, id, func(cur *Session) error {
		if cur.Claiming {
			return ErrInvalidTransition
		}
		cur.Cancelled = true
		return nil
	}); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) update(ctx context.Context, userID, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	return s.store.Update(ctx, id, func(cur *Session) error {
		if cur.UserID != userID || cur.Cancelled {
			return ErrSessionNotFound
		}
		if err := fn(cur); err != nil {
			return err
		}
		cur.touch(s.now())
		return nil
	})
}

func (s *Service) lookupContent(ctx context.Context, id uuid.UUID) (*catalog.ContentItem, error) {
	item, err := s.content.ContentItem(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return item, nil
}
