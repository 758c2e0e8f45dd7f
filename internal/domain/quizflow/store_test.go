package quizflow

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStoreUpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	sess := &Session{ID: uuid.New(), State: StateWatching}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := store.Update(ctx, sess.ID, func(s *Session) error {
		s.Score = 99
		return ErrInvalidTransition
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 0 {
		t.Fatalf("failed update must not persist, score=%d", got.Score)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	sess := &Session{ID: uuid.New()}
	_ = store.Create(ctx, sess)

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestNewStoreFallsBackWithoutRedis(t *testing.T) {
	if _, ok := NewStore(nil, time.Minute).(*MemoryStore); !ok {
		t.Fatal("expected memory store when redis is nil")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	store := NewStore(client, time.Minute)
	sess := &Session{ID: uuid.New(), State: StateWatching}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer store.Delete(ctx, sess.ID)

	updated, err := store.Update(ctx, sess.ID, func(s *Session) error {
		return s.RecordProgress(95, 100, DefaultRules)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.VideoComplete {
		t.Fatal("expected video complete after update")
	}

	if _, err := store.Update(ctx, sess.ID, func(s *Session) error { return s.Retry() }); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
