package quizflow

import (
	"errors"
	"testing"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

func threeQuestions() []quiz.Question {
	q := func(prompt string, correct int) quiz.Question {
		return quiz.Question{Prompt: prompt, Options: []string{"a", "b", "c", "d"}, CorrectIndex: correct}
	}
	return []quiz.Question{q("one", 0), q("two", 1), q("three", 2)}
}

func activeSession(t *testing.T) *Session {
	t.Helper()
	s := &Session{State: StateWatching}
	if err := s.RecordProgress(95, 100, DefaultRules); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := s.StartQuiz(&quiz.Quiz{Questions: threeQuestions(), Source: quiz.SourceGenerated}); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	return s
}

func TestRecordProgressThresholdIsStrict(t *testing.T) {
	s := &Session{State: StateWatching}

	if err := s.RecordProgress(90, 100, DefaultRules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.VideoComplete {
		t.Fatal("exactly 90% must not complete the video")
	}

	if err := s.RecordProgress(91, 100, DefaultRules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.VideoComplete {
		t.Fatal("91% must complete the video")
	}
}

func TestRecordProgressIsMonotonicAndSticky(t *testing.T) {
	s := &Session{State: StateWatching}
	_ = s.RecordProgress(95, 100, DefaultRules)
	_ = s.RecordProgress(10, 100, DefaultRules)

	if s.WatchedSeconds != 95 {
		t.Fatalf("expected watched position to stay at 95, got %v", s.WatchedSeconds)
	}
	if !s.VideoComplete {
		t.Fatal("video complete flag must be sticky")
	}
}

func TestRecordProgressRejectsBadInput(t *testing.T) {
	s := &Session{State: StateWatching}
	if err := s.RecordProgress(10, 0, DefaultRules); !errors.Is(err, ErrInvalidProgress) {
		t.Fatalf("expected ErrInvalidProgress, got %v", err)
	}
	if err := s.RecordProgress(-1, 100, DefaultRules); !errors.Is(err, ErrInvalidProgress) {
		t.Fatalf("expected ErrInvalidProgress, got %v", err)
	}
}

func TestStartQuizRequiresVideoAndQuiz(t *testing.T) {
	s := &Session{State: StateWatching}
	if err := s.StartQuiz(&quiz.Quiz{Questions: threeQuestions()}); !errors.Is(err, ErrVideoNotComplete) {
		t.Fatalf("expected ErrVideoNotComplete, got %v", err)
	}

	_ = s.RecordProgress(100, 100, DefaultRules)
	if err := s.StartQuiz(nil); !errors.Is(err, ErrQuizNotLoaded) {
		t.Fatalf("expected ErrQuizNotLoaded, got %v", err)
	}
	if s.State != StateWatching {
		t.Fatalf("expected to stay watching, got %s", s.State)
	}
}

func TestAnswerLocksAndAdvances(t *testing.T) {
	s := activeSession(t)

	fb, err := s.Answer(0, 3, DefaultRules)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if fb.Correct || fb.CorrectIndex != 0 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
	if fb.AdvanceAfter != DefaultRules.FeedbackDelay.Milliseconds() {
		t.Fatalf("expected advance delay %d, got %d", DefaultRules.FeedbackDelay.Milliseconds(), fb.AdvanceAfter)
	}

	if _, err := s.Answer(0, 0, DefaultRules); !errors.Is(err, ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked, got %v", err)
	}
	if _, err := s.Answer(2, 0, DefaultRules); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer for out of order answer, got %v", err)
	}
	if _, err := s.Answer(1, 4, DefaultRules); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer for bad option, got %v", err)
	}
}

func TestPerfectScoreRequiredByDefault(t *testing.T) {
	s := activeSession(t)
	_, _ = s.Answer(0, 0, DefaultRules)
	_, _ = s.Answer(1, 1, DefaultRules)
	fb, err := s.Answer(2, 0, DefaultRules)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !fb.Finished || s.State != StateFailed {
		t.Fatalf("expected failed after one wrong answer, got %s", s.State)
	}

	s = activeSession(t)
	_, _ = s.Answer(0, 0, DefaultRules)
	_, _ = s.Answer(1, 1, DefaultRules)
	_, _ = s.Answer(2, 2, DefaultRules)
	if s.State != StatePassed || s.Score != 3 {
		t.Fatalf("expected passed with 3/3, got %s %d", s.State, s.Score)
	}
}

func TestPassThresholdIsConfigurable(t *testing.T) {
	rules := DefaultRules
	rules.PassThreshold = 0.6

	s := activeSession(t)
	_, _ = s.Answer(0, 0, rules)
	_, _ = s.Answer(1, 1, rules)
	_, _ = s.Answer(2, 0, rules)
	if s.State != StatePassed {
		t.Fatalf("expected 2/3 to pass at 0.6, got %s", s.State)
	}
}

func TestRetryPreservesWatchProgress(t *testing.T) {
	s := activeSession(t)
	_, _ = s.Answer(0, 1, DefaultRules)
	_, _ = s.Answer(1, 1, DefaultRules)
	_, _ = s.Answer(2, 2, DefaultRules)

	if err := s.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.State != StateWatching || s.Current != 0 || s.Score != 0 || len(s.Answers) != 0 {
		t.Fatalf("quiz progress not reset: %+v", s)
	}
	if !s.VideoComplete || s.WatchedSeconds != 95 {
		t.Fatalf("watch progress lost: complete=%v watched=%v", s.VideoComplete, s.WatchedSeconds)
	}
	if err := s.Retry(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected retry from watching to fail, got %v", err)
	}
}

func TestCanClaim(t *testing.T) {
	s := &Session{State: StatePassed}
	if !s.CanClaim() {
		t.Fatal("passed session should be claimable")
	}
	s.Practice = true
	if s.CanClaim() {
		t.Fatal("practice session must not be claimable")
	}
	s.Practice = false
	s.RewardClaimed = true
	if s.CanClaim() {
		t.Fatal("claimed session must not be claimable again")
	}
}
