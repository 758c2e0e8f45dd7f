package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

type ContentRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=2000"`
	SourceVideoRef string          `json:"source_video_ref" validate:"required"`
	Category       string          `json:"category" validate:"max=64"`
	RewardCredits  int64           `json:"reward_credits" validate:"required,gt=0"`
	AuthoredQuiz   []quiz.Question `json:"authored_quiz"`
	IsPublished    bool            `json:"is_published"`
}

func (r ContentRequest) toItem() *ContentItem {
	return &ContentItem{
		Title:          r.Title,
		Description:    r.Description,
		SourceVideoRef: r.SourceVideoRef,
		Category:       r.Category,
		RewardCredits:  r.RewardCredits,
		AuthoredQuiz:   r.AuthoredQuiz,
		IsPublished:    r.IsPublished,
	}
}

type GameRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	ExternalURL   string          `json:"external_url" validate:"required,url"`
	CostPerMinute decimal.Decimal `json:"cost_per_minute"`
	Description   string          `json:"description" validate:"max=2000"`
	IsActive      bool            `json:"is_active"`
}

func (r GameRequest) toGame() *Game {
	return &Game{
		Title:         r.Title,
		ExternalURL:   r.ExternalURL,
		CostPerMinute: r.CostPerMinute,
		Description:   r.Description,
		IsActive:      r.IsActive,
	}
}

type PlatformRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=64"`
	Featured    bool   `json:"featured"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	IsActive    bool   `json:"is_active"`
}

func (r PlatformRequest) toPlatform() *Platform {
	return &Platform{
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
		Category:    r.Category,
		Featured:    r.Featured,
		Color:       r.Color,
		IsActive:    r.IsActive,
	}
}
