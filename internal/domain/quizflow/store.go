package quizflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "quizflow:session:"
	maxUpdateRetries = 5
	defaultTTL       = 6 * time.Hour
)

// Store keeps in-flight sessions. Update applies fn atomically and persists the
// result only when fn returns nil.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewStore returns a Redis store, or an in-process store when redis is nil.
func NewStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if client == nil {
		return NewMemoryStore(ttl)
	}
	return &redisStore{client: client, ttl: ttl}
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func sessionKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *redisStore) Create(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: create session", ErrBackendUnavailable)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get session", ErrBackendUnavailable)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode session", ErrBackendUnavailable)
	}
	return &s, nil
}

func (r *redisStore) Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	key := sessionKey(id)
	var out *Session

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		data, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			out = &s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if isFlowError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update session", ErrBackendUnavailable)
	}
	return nil, fmt.Errorf("%w: update session contended", ErrBackendUnavailable)
}

func (r *redisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: delete session", ErrBackendUnavailable)
	}
	return nil
}

// isFlowError reports errors produced by the state machine rather than by Redis.
func isFlowError(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound, ErrInvalidTransition, ErrInvalidProgress, ErrVideoNotComplete,
		ErrQuizNotLoaded, ErrAnswerLocked, ErrInvalidAnswer, ErrNotClaimable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MemoryStore is the single-instance fallback.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uuid.UUID]memEntry
	now      func() time.Time
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, sessions: make(map[uuid.UUID]memEntry), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// load must be called with mu held.
func (m *MemoryStore) load(id uuid.UUID) (*Session, error) {
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = memEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
