package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixQuiz = "quiz:"
	cacheTTL      = 24 * time.Hour
)

// Cache is the hot layer in front of the repository.
type Cache interface {
	Get(ctx context.Context, contentItemID uuid.UUID) (*Quiz, error)
	Set(ctx context.Context, q *Quiz) error
}

type redisCache struct {
	redis *redis.Client
}

// NewCache returns a Redis cache, or a no-op cache when client is nil.
func NewCache(client *redis.Client) Cache {
	if client == nil {
		return noopCache{}
	}
	return &redisCache{redis: client}
}

func (c *redisCache) Get(ctx context.Context, contentItemID uuid.UUID) (*Quiz, error) {
	raw, err := c.redis.Get(ctx, keyPrefixQuiz+contentItemID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *redisCache) Set(ctx context.Context, q *Quiz) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, keyPrefixQuiz+q.ContentItemID.String(), raw, cacheTTL).Err()
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (*Quiz, error) { return nil, nil }
func (noopCache) Set(context.Context, *Quiz) error              { return nil }
