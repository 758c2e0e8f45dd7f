package quizflow

import (
	"time"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

// RecordProgress stores the furthest playback position seen so far. The video
// counts as complete once the watched share strictly exceeds the threshold.
func (s *Session) RecordProgress(elapsed, duration float64, rules Rules) error {
	if duration <= 0 || elapsed < 0 {
		return ErrInvalidProgress
	}
	if elapsed > duration {
		elapsed = duration
	}

	s.DurationSeconds = duration
	if elapsed > s.WatchedSeconds {
		s.WatchedSeconds = elapsed
	}
	if s.WatchedSeconds/s.DurationSeconds > rules.VideoCompleteThreshold {
		s.VideoComplete = true
	}
	return nil
}

// StartQuiz moves a watching session into the quiz.
func (s *Session) StartQuiz(q *quiz.Quiz) error {
	if s.State != StateWatching {
		return ErrInvalidTransition
	}
	if !s.VideoComplete {
		return ErrVideoNotComplete
	}
	if q == nil || len(q.Questions) == 0 {
		return ErrQuizNotLoaded
	}

	s.Questions = q.Questions
	s.QuizSource = q.Source
	s.Current = 0
	s.Score = 0
	s.Answers = nil
	s.Attempts++
	s.State = StateQuizActive
	return nil
}

// Answer locks the selection for the current question and advances.
func (s *Session) Answer(questionIndex, option int, rules Rules) (*Feedback, error) {
	if s.State != StateQuizActive {
		return nil, ErrInvalidTransition
	}
	if questionIndex < s.Current {
		return nil, ErrAnswerLocked
	}
	if questionIndex != s.Current || option < 0 || option >= len(s.Questions[questionIndex].Options) {
		return nil, ErrInvalidAnswer
	}

	q := s.Questions[questionIndex]
	correct := option == q.CorrectIndex
	if correct {
		s.Score++
	}
	s.Answers = append(s.Answers, Answer{QuestionIndex: questionIndex, Selected: option, Correct: correct})
	s.Current++

	total := len(s.Questions)
	finished := s.Current == total
	if finished {
		if float64(s.Score)/float64(total) >= rules.PassThreshold {
			s.State = StatePassed
		} else {
			s.State = StateFailed
		}
	}

	return &Feedback{
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
		Score:        s.Score,
		Total:        total,
		Finished:     finished,
		State:        s.State,
		AdvanceAfter: rules.FeedbackDelay.Milliseconds(),
	}, nil
}

// Retry sends a failed session back to the video with its watch progress intact.
func (s *Session) Retry() error {
	if s.State != StateFailed {
		return ErrInvalidTransition
	}
	s.State = StateWatching
	s.Current = 0
	s.Score = 0
	s.Answers = nil
	return nil
}

// CanClaim reports whether the reward action is available.
func (s *Session) CanClaim() bool {
	return s.State == StatePassed && !s.Practice && !s.RewardClaimed
}

func (s *Session) touch(now time.Time) {
	s.UpdatedAt = now
}
