package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/storage"
)

// ChangeNotifier is told after a collection was written.
type ChangeNotifier interface {
	Changed(ctx context.Context, c Collection)
	ArtworkQueued(ctx context.Context)
}

// AdminService is the staff write path for the catalog.
type AdminService struct {
	repo    Repository
	artwork ArtworkQueue
	store   storage.Storage
	changes ChangeNotifier
}

func NewAdminService(repo Repository, artwork ArtworkQueue, store storage.Storage, changes ChangeNotifier) *AdminService {
	return &AdminService{repo: repo, artwork: artwork, store: store, changes: changes}
}

func (s *AdminService) List(ctx context.Context, c Collection) (interface{}, error) {
	switch c {
	case CollectionContent:
		return s.repo.ListContent(ctx, true)
	case CollectionGames:
		return s.repo.ListGames(ctx, true)
	case CollectionPlatforms:
		return s.repo.ListPlatforms(ctx, true)
	}
	return nil, ErrInvalidCollection
}

func (s *AdminService) SaveContent(ctx context.Context, item *ContentItem) error {
	if len(item.AuthoredQuiz) > 0 {
		if err := quiz.Validate(item.AuthoredQuiz); err != nil {
			return err
		}
	}
	if err := s.repo.SaveContent(ctx, item); err != nil {
		return err
	}
	logger.LogInfo(ctx, "content item saved", "content_item_id", item.ID.String())
	s.changes.Changed(ctx, CollectionContent)
	return nil
}

func (s *AdminService) SaveGame(ctx context.Context, game *Game) error {
	if err := s.repo.SaveGame(ctx, game); err != nil {
		return err
	}
	logger.LogInfo(ctx, "game saved", "game_id", game.ID.String(), "cost_per_minute", game.CostPerMinute.String())
	s.changes.Changed(ctx, CollectionGames)
	return nil
}

func (s *AdminService) SavePlatform(ctx context.Context, platform *Platform) error {
	if err := s.repo.SavePlatform(ctx, platform); err != nil {
		return err
	}
	logger.LogInfo(ctx, "platform saved", "platform_id", platform.ID.String())
	s.changes.Changed(ctx, CollectionPlatforms)
	return nil
}

// UploadArtwork stores the original image and queues it for thumbnail rendering.
func (s *AdminService) UploadArtwork(ctx context.Context, c Collection, entryID uuid.UUID, body io.Reader) (*Artwork, error) {
	switch c {
	case CollectionGames:
		if _, err := s.repo.GetGame(ctx, entryID); err != nil {
			return nil, err
		}
	case CollectionPlatforms:
		if _, err := s.repo.GetPlatform(ctx, entryID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidCollection
	}

	data, mimeType, ext, err := storage.ValidateArtwork(body, storage.MaxArtworkSize)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("catalog/%s/%s/original-%d%s", c, entryID, time.Now().UnixNano(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return nil, fmt.Errorf("%w: store artwork: %v", ErrBackendUnavailable, err)
	}

	art, err := s.artwork.Enqueue(ctx, c, entryID, key)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	logger.LogInfo(ctx, "artwork queued",
		"collection", string(c),
		"entry_id", entryID.String(),
		"key", key,
	)
	s.changes.ArtworkQueued(ctx)
	return art, nil
}
