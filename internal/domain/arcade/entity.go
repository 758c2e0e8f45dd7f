package arcade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a timed session.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusEnded   Status = "ended"
)

// Session is a paid, timed grant of access to one game.
type Session struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	GameID          uuid.UUID  `db:"game_id" json:"game_id"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Cost            int64      `db:"cost" json:"cost"`
	Status          Status     `db:"status" json:"status"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// Remaining is the countdown left at now, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.Status != StatusActive {
		return 0
	}
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Handle is what the client needs to launch and time a session.
type Handle struct {
	Session
	GameTitle        string `json:"game_title"`
	ExternalURL      string `json:"external_url"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Balance          *int64 `json:"balance,omitempty"`
}

// Quote previews a purchase without writing anything.
type Quote struct {
	GameID          uuid.UUID       `json:"game_id"`
	DurationMinutes int             `json:"duration_minutes"`
	CostPerMinute   decimal.Decimal `json:"cost_per_minute"`
	Cost            int64           `json:"cost"`
	Balance         int64           `json:"balance"`
	Affordable      bool            `json:"affordable"`
}

// Cost is minutes times the per-minute rate, rounded up to whole credits.
func Cost(minutes int, costPerMinute decimal.Decimal) int64 {
	return costPerMinute.Mul(decimal.NewFromInt(int64(minutes))).Ceil().IntPart()
}
