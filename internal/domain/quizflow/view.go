package quizflow

import (
	"time"

	"github.com/google/uuid"
)

// QuestionView exposes the correct option only once the question is answered.
type QuestionView struct {
	Index        int      `json:"index"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Answered     bool     `json:"answered"`
	Selected     *int     `json:"selected,omitempty"`
	Correct      *bool    `json:"correct,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
}

// SessionView is what clients see of a session.
type SessionView struct {
	ID              uuid.UUID      `json:"id"`
	ContentItemID   uuid.UUID      `json:"content_item_id"`
	State           State          `json:"state"`
	Practice        bool           `json:"practice"`
	WatchedSeconds  float64        `json:"watched_seconds"`
	DurationSeconds float64        `json:"duration_seconds"`
	VideoComplete   bool           `json:"video_complete"`
	Questions       []QuestionView `json:"questions"`
	Current         int            `json:"current"`
	Score           int            `json:"score"`
	Total           int            `json:"total"`
	Attempts        int            `json:"attempts"`
	RewardCredits   int64          `json:"reward_credits"`
	RewardClaimed   bool           `json:"reward_claimed"`
	CanStartQuiz    bool           `json:"can_start_quiz"`
	CanRetry        bool           `json:"can_retry"`
	CanClaim        bool           `json:"can_claim"`
	FeedbackDelayMs int64          `json:"feedback_delay_ms"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func NewView(s *Session, rules Rules) SessionView {
	v := SessionView{
		ID:              s.ID,
		ContentItemID:   s.ContentItemID,
		State:           s.State,
		Practice:        s.Practice,
		WatchedSeconds:  s.WatchedSeconds,
		DurationSeconds: s.DurationSeconds,
		VideoComplete:   s.VideoComplete,
		Questions:       []QuestionView{},
		Current:         s.Current,
		Score:           s.Score,
		Total:           len(s.Questions),
		Attempts:        s.Attempts,
		RewardCredits:   s.RewardCredits,
		RewardClaimed:   s.RewardClaimed,
		CanStartQuiz:    s.State == StateWatching && s.VideoComplete,
		CanRetry:        s.State == StateFailed,
		CanClaim:        s.CanClaim(),
		FeedbackDelayMs: rules.FeedbackDelay.Milliseconds(),
		UpdatedAt:       s.UpdatedAt,
	}

	// Questions stay hidden until the quiz is running.
	if s.State == StateWatching {
		return v
	}

	answers := make(map[int]Answer, len(s.Answers))
	for _, a := range s.Answers {
		answers[a.QuestionIndex] = a
	}
	for i, q := range s.Questions {
		qv := QuestionView{Index: i, Prompt: q.Prompt, Options: q.Options}
		if a, ok := answers[i]; ok {
			selected, correct, correctIndex := a.Selected, a.Correct, q.CorrectIndex
			qv.Answered = true
			qv.Selected = &selected
			qv.Correct = &correct
			qv.CorrectIndex = &correctIndex
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}
