package quizflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

// State of a quiz session.
type State string

const (
	StateWatching   State = "watching"
	StateQuizActive State = "quiz_active"
	StatePassed     State = "passed"
	StateFailed     State = "failed"
)

// Rules are the tunable thresholds of the flow.
type Rules struct {
	VideoCompleteThreshold float64
	PassThreshold          float64
	FeedbackDelay          time.Duration
}

// DefaultRules match the behaviour learners already know: 90% watched, every answer right.
var DefaultRules = Rules{
	VideoCompleteThreshold: 0.9,
	PassThreshold:          1.0,
	FeedbackDelay:          1500 * time.Millisecond,
}

// Answer is a locked selection for one question.
type Answer struct {
	QuestionIndex int  `json:"question_index"`
	Selected      int  `json:"selected"`
	Correct       bool `json:"correct"`
}

// Session is one learner's pass through a content item. Claiming is held while
// the completion write is in flight; Cancelled marks a session being dropped.
type Session struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	ContentItemID   uuid.UUID       `json:"content_item_id"`
	RewardCredits   int64           `json:"reward_credits"`
	State           State           `json:"state"`
	Practice        bool            `json:"practice"`
	WatchedSeconds  float64         `json:"watched_seconds"`
	DurationSeconds float64         `json:"duration_seconds"`
	VideoComplete   bool            `json:"video_complete"`
	Questions       []quiz.Question `json:"questions,omitempty"`
	QuizSource      string          `json:"quiz_source,omitempty"`
	Current         int             `json:"current"`
	Score           int             `json:"score"`
	Answers         []Answer        `json:"answers,omitempty"`
	Attempts        int             `json:"attempts"`
	RewardClaimed   bool            `json:"reward_claimed"`
	Claiming        bool            `json:"claiming,omitempty"`
	Cancelled       bool            `json:"cancelled,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Feedback is returned for each locked answer.
type Feedback struct {
	Correct      bool  `json:"correct"`
	CorrectIndex int   `json:"correct_index"`
	Score        int   `json:"score"`
	Total        int   `json:"total"`
	Finished     bool  `json:"finished"`
	State        State `json:"state"`
	// AdvanceAfter is how long the client keeps the feedback on screen, in milliseconds.
	AdvanceAfter int64 `json:"advance_after_ms"`
}

// ClaimResult is returned by a successful claim.
type ClaimResult struct {
	Awarded bool  `json:"awarded"`
	Credits int64 `json:"credits"`
	Balance int64 `json:"balance"`
}
