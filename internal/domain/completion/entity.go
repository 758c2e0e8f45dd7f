package completion

import (
	"time"

	"github.com/google/uuid"
)

// Record marks that a user finished a content item and was rewarded for it.
// At most one exists per (UserID, ContentItemID).
type Record struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	ContentItemID  uuid.UUID `db:"content_item_id" json:"content_item_id"`
	CreditsAwarded int64     `db:"credits_awarded" json:"credits_awarded"`
	CompletedAt    time.Time `db:"completed_at" json:"completed_at"`
}

// Result is returned by RecordCompletion.
type Result struct {
	Awarded bool  `json:"awarded"`
	Balance int64 `json:"balance"`
}
