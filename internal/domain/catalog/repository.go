package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	ListContent(ctx context.Context, includeHidden bool) ([]ContentItem, error)
	ListGames(ctx context.Context, includeHidden bool) ([]Game, error)
	ListPlatforms(ctx context.Context, includeHidden bool) ([]Platform, error)

	GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	GetGame(ctx context.Context, id uuid.UUID) (*Game, error)
	GetPlatform(ctx context.Context, id uuid.UUID) (*Platform, error)

	SaveContent(ctx context.Context, item *ContentItem) error
	SaveGame(ctx context.Context, game *Game) error
	SavePlatform(ctx context.Context, platform *Platform) error

	// SetImageURL stores a rendered thumbnail URL on a game or platform.
	SetImageURL(ctx context.Context, collection Collection, id uuid.UUID, url string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type contentRow struct {
	ID             uuid.UUID `db:"id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	SourceVideoRef string    `db:"source_video_ref"`
	Category       string    `db:"category"`
	RewardCredits  int64     `db:"reward_credits"`
	AuthoredQuiz   []byte    `db:"authored_quiz"`
	IsPublished    bool      `db:"is_published"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r contentRow) toItem() ContentItem {
	item := ContentItem{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		SourceVideoRef: r.SourceVideoRef,
		Category:       r.Category,
		RewardCredits:  r.RewardCredits,
		IsPublished:    r.IsPublished,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.AuthoredQuiz) > 0 {
		var questions []quiz.Question
		if err := json.Unmarshal(r.AuthoredQuiz, &questions); err == nil && len(questions) > 0 {
			item.AuthoredQuiz = questions
			item.HasQuiz = true
		}
	}
	return item
}

const contentColumns = `id, title, description, source_video_ref, category, reward_credits, authored_quiz, is_published, created_at, updated_at`

func (r *repository) ListContent(ctx context.Context, includeHidden bool) ([]ContentItem, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows := make([]contentRow, 0)
	err := r.db.SelectContext(ctx2, &rows, `
		SELECT `+contentColumns+`
		FROM content_items
		WHERE $1 OR is_published
		ORDER BY created_at DESC
	`, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("%w: list content", ErrBackendUnavailable)
	}

	items := make([]ContentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items, nil
}

func (r *repository) ListGames(ctx context.Context, includeHidden bool) ([]Game, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	games := make([]Game, 0)
	err := r.db.SelectContext(ctx2, &games, `
		SELECT id, title, thumbnail_url, external_url, cost_per_minute, description, is_active, created_at, updated_at
		FROM games
		WHERE $1 OR is_active
		ORDER BY title ASC
	`, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("%w: list games", ErrBackendUnavailable)
	}
	return games, nil
}

func (r *repository) ListPlatforms(ctx context.Context, includeHidden bool) ([]Platform, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	platforms := make([]Platform, 0)
	err := r.db.SelectContext(ctx2, &platforms, `
		SELECT id, name, url, description, category, featured, logo_url, color, is_active, created_at, updated_at
		FROM platforms
		WHERE $1 OR is_active
		ORDER BY featured DESC, name ASC
	`, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("%w: list platforms", ErrBackendUnavailable)
	}
	return platforms, nil
}

func (r *repository) GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row contentRow
	err := r.db.GetContext(ctx2, &row, `SELECT `+contentColumns+` FROM content_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get content", ErrBackendUnavailable)
	}
	item := row.toItem()
	return &item, nil
}

func (r *repository) GetGame(ctx context.Context, id uuid.UUID) (*Game, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var game Game
	err := r.db.GetContext(ctx2, &game, `
		SELECT id, title, thumbnail_url, external_url, cost_per_minute, description, is_active, created_at, updated_at
		FROM games
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get game", ErrBackendUnavailable)
	}
	return &game, nil
}

func (r *repository) GetPlatform(ctx context.Context, id uuid.UUID) (*Platform, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var platform Platform
	err := r.db.GetContext(ctx2, &platform, `
		SELECT id, name, url, description, category, featured, logo_url, color, is_active, created_at, updated_at
		FROM platforms
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get platform", ErrBackendUnavailable)
	}
	return &platform, nil
}

func (r *repository) SaveContent(ctx context.Context, item *ContentItem) error {
	var authored []byte
	if len(item.AuthoredQuiz) > 0 {
		raw, err := json.Marshal(item.AuthoredQuiz)
		if err != nil {
			return fmt.Errorf("%w: encode authored quiz", ErrBackendUnavailable)
		}
		authored = raw
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO content_items (id, title, description, source_video_ref, category, reward_credits, authored_quiz, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			source_video_ref = EXCLUDED.source_video_ref,
			category = EXCLUDED.category,
			reward_credits = EXCLUDED.reward_credits,
			authored_quiz = EXCLUDED.authored_quiz,
			is_published = EXCLUDED.is_published,
			updated_at = now()
		RETURNING created_at, updated_at
	`, item.ID, item.Title, item.Description, item.SourceVideoRef, item.Category, item.RewardCredits, authored, item.IsPublished).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: save content", ErrBackendUnavailable)
	}
	item.HasQuiz = len(item.AuthoredQuiz) > 0
	return nil
}

func (r *repository) SaveGame(ctx context.Context, game *Game) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO games (id, title, thumbnail_url, external_url, cost_per_minute, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			external_url = EXCLUDED.external_url,
			cost_per_minute = EXCLUDED.cost_per_minute,
			description = EXCLUDED.description,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING thumbnail_url, created_at, updated_at
	`, game.ID, game.Title, game.ThumbnailURL, game.ExternalURL, game.CostPerMinute, game.Description, game.IsActive).
		Scan(&game.ThumbnailURL, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: save game", ErrBackendUnavailable)
	}
	return nil
}

func (r *repository) SavePlatform(ctx context.Context, platform *Platform) error {
	if platform.ID == uuid.Nil {
		platform.ID = uuid.New()
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO platforms (id, name, url, description, category, featured, logo_url, color, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			featured = EXCLUDED.featured,
			color = EXCLUDED.color,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING logo_url, created_at, updated_at
	`, platform.ID, platform.Name, platform.URL, platform.Description, platform.Category, platform.Featured, platform.LogoURL, platform.Color, platform.IsActive).
		Scan(&platform.LogoURL, &platform.CreatedAt, &platform.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: save platform", ErrBackendUnavailable)
	}
	return nil
}

func (r *repository) SetImageURL(ctx context.Context, collection Collection, id uuid.UUID, url string) error {
	var query string
	switch collection {
	case CollectionGames:
		query = `UPDATE games SET thumbnail_url = $2, updated_at = now() WHERE id = $1`
	case CollectionPlatforms:
		query = `UPDATE platforms SET logo_url = $2, updated_at = now() WHERE id = $1`
	default:
		return ErrInvalidCollection
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, query, id, url)
	if err != nil {
		return fmt.Errorf("%w: set image url", ErrBackendUnavailable)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
