package catalog

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ArtworkChannel wakes the thumbnail worker when new artwork is queued.
const ArtworkChannel = "catalog:artwork"

// ChangePublisher announces catalog changes to every instance.
// Without Redis it invalidates the local reader directly.
type ChangePublisher struct {
	redis *redis.Client
	local *Reader
}

func NewChangePublisher(redisClient *redis.Client, local *Reader) *ChangePublisher {
	return &ChangePublisher{redis: redisClient, local: local}
}

func (p *ChangePublisher) Changed(ctx context.Context, c Collection) {
	if p.redis != nil {
		err := p.redis.Publish(ctx, ChangedChannel, string(c)).Err()
		if err == nil {
			return
		}
		log.Error().Err(err).Str("collection", string(c)).Msg("catalog change publish failed")
	}
	if p.local != nil {
		p.local.Invalidate(c)
	}
}

// ArtworkQueued nudges the thumbnail worker. Polling covers a missed nudge.
func (p *ChangePublisher) ArtworkQueued(ctx context.Context) {
	if p.redis == nil {
		return
	}
	if err := p.redis.Publish(ctx, ArtworkChannel, "1").Err(); err != nil {
		log.Warn().Err(err).Msg("artwork wake-up publish failed")
	}
}
