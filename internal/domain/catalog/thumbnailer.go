package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sparkquest/arcade-api/internal/pkg/imaging"
	"github.com/sparkquest/arcade-api/internal/pkg/storage"
)

const DefaultArtworkAttempts = 3

// Thumbnailer renders queued artwork and points the catalog entry at the result.
type Thumbnailer struct {
	queue       ArtworkQueue
	repo        Repository
	store       storage.Storage
	changes     ChangeNotifier
	maxAttempts int
}

func NewThumbnailer(queue ArtworkQueue, repo Repository, store storage.Storage, changes ChangeNotifier, maxAttempts int) *Thumbnailer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultArtworkAttempts
	}
	return &Thumbnailer{queue: queue, repo: repo, store: store, changes: changes, maxAttempts: maxAttempts}
}

// ProcessNext handles one queued artwork. It reports false when the queue is empty.
// A failed render is recorded on the row and is not returned as an error.
func (t *Thumbnailer) ProcessNext(ctx context.Context) (bool, error) {
	art, err := t.queue.ClaimNext(ctx, t.maxAttempts)
	if err != nil {
		return false, err
	}
	if art == nil {
		return false, nil
	}

	url, err := t.render(ctx, art)
	if err != nil {
		log.Error().Err(err).
			Str("artwork_id", art.ID.String()).
			Int("attempt", art.ProcessAttempts).
			Msg("Artwork processing failed")
		if err2 := t.queue.MarkFailed(ctx, art.ID, err.Error()); err2 != nil {
			log.Error().Err(err2).Str("artwork_id", art.ID.String()).Msg("Failed to mark artwork failed")
		}
		return true, nil
	}

	if err := t.repo.SetImageURL(ctx, art.Collection, art.EntryID, url); err != nil {
		if err2 := t.queue.MarkFailed(ctx, art.ID, err.Error()); err2 != nil {
			log.Error().Err(err2).Str("artwork_id", art.ID.String()).Msg("Failed to mark artwork failed")
		}
		return true, err
	}
	if err := t.queue.MarkDone(ctx, art.ID); err != nil {
		return true, err
	}

	log.Info().
		Str("artwork_id", art.ID.String()).
		Str("collection", string(art.Collection)).
		Str("entry_id", art.EntryID.String()).
		Str("url", url).
		Msg("Artwork processed")
	t.changes.Changed(ctx, art.Collection)
	return true, nil
}

func (t *Thumbnailer) render(ctx context.Context, art *Artwork) (string, error) {
	var spec imaging.Spec
	switch art.Collection {
	case CollectionGames:
		spec = imaging.GameCard
	case CollectionPlatforms:
		spec = imaging.PlatformLogo
	default:
		return "", ErrInvalidCollection
	}

	rc, err := t.store.Get(ctx, art.OriginalKey)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	thumb, err := imaging.Render(data, spec)
	if err != nil {
		return "", err
	}

	key := thumbnailKey(art.OriginalKey, thumb.Width, thumb.Height)
	if err := t.store.Put(ctx, key, bytes.NewReader(thumb.Data), thumb.ContentType); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return t.store.GetURL(key), nil
}

func thumbnailKey(originalKey string, width, height int) string {
	base := strings.TrimSuffix(originalKey, path.Ext(originalKey))
	base = strings.Replace(base, "/original-", "/thumb-", 1)
	return fmt.Sprintf("%s_%dx%d.jpg", base, width, height)
}
