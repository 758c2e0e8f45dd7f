package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

// Collection names a catalog list.
type Collection string

const (
	CollectionContent   Collection = "content"
	CollectionGames     Collection = "games"
	CollectionPlatforms Collection = "platforms"
)

// Collections lists every catalog collection.
var Collections = []Collection{CollectionContent, CollectionGames, CollectionPlatforms}

func (c Collection) Valid() bool {
	switch c {
	case CollectionContent, CollectionGames, CollectionPlatforms:
		return true
	}
	return false
}

// ContentItem is a watchable video with a one-time reward.
type ContentItem struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	SourceVideoRef string          `json:"source_video_ref"`
	Category       string          `json:"category"`
	RewardCredits  int64           `json:"reward_credits"`
	AuthoredQuiz   []quiz.Question `json:"-"`
	HasQuiz        bool            `json:"has_authored_quiz"`
	IsPublished    bool            `json:"is_published"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Game is an external game playable in timed sessions.
type Game struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Title         string          `db:"title" json:"title"`
	ThumbnailURL  string          `db:"thumbnail_url" json:"thumbnail_url"`
	ExternalURL   string          `db:"external_url" json:"external_url"`
	CostPerMinute decimal.Decimal `db:"cost_per_minute" json:"cost_per_minute"`
	Description   string          `db:"description" json:"description"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Platform is an external learning platform link.
type Platform struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	URL         string    `db:"url" json:"url"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Featured    bool      `db:"featured" json:"featured"`
	LogoURL     string    `db:"logo_url" json:"logo_url"`
	Color       string    `db:"color" json:"color"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Category string
	Search   string
}

// Artwork is an uploaded image waiting to be turned into a thumbnail.
type Artwork struct {
	ID              uuid.UUID  `db:"id"`
	Collection      Collection `db:"collection"`
	EntryID         uuid.UUID  `db:"entry_id"`
	OriginalKey     string     `db:"original_key"`
	ProcessStatus   string     `db:"process_status"`
	ProcessAttempts int        `db:"process_attempts"`
	ProcessError    *string    `db:"process_error"`
	CreatedAt       time.Time  `db:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at"`
}

const (
	ArtworkPending    = "pending"
	ArtworkProcessing = "processing"
	ArtworkDone       = "done"
	ArtworkFailed     = "failed"
)
