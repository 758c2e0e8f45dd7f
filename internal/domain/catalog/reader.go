package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangedChannel carries the name of a collection whose rows changed.
const ChangedChannel = "catalog:changed"

const (
	DefaultResyncInterval = 5 * time.Minute
	DefaultRetryInterval  = 10 * time.Second
)

// Reader keeps the latest published snapshot of every collection and refreshes
// a collection whenever a change notification for it arrives.
type Reader struct {
	repo  Repository
	redis *redis.Client

	mu        sync.RWMutex
	content   []ContentItem
	games     []Game
	platforms []Platform

	pendingMu sync.Mutex
	pending   map[Collection]bool
	failed    map[Collection]bool
	wake      chan struct{}

	resync time.Duration
	retry  time.Duration

	listeners []func(context.Context, Collection)

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReader(repo Repository, redisClient *redis.Client) *Reader {
	return &Reader{
		repo:    repo,
		redis:   redisClient,
		pending: make(map[Collection]bool),
		failed:  make(map[Collection]bool),
		wake:    make(chan struct{}, 1),
		resync:  DefaultResyncInterval,
		retry:   DefaultRetryInterval,
	}
}

// SetIntervals overrides how often every collection is resynced and how often
// a collection whose last load failed is retried. Call before Start.
func (r *Reader) SetIntervals(resync, retry time.Duration) {
	if resync > 0 {
		r.resync = resync
	}
	if retry > 0 {
		r.retry = retry
	}
}

// OnChange registers fn to run after a collection was reloaded. Call before Start.
func (r *Reader) OnChange(fn func(context.Context, Collection)) {
	r.listeners = append(r.listeners, fn)
}

// Start loads every collection and begins listening for change notifications.
func (r *Reader) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	for _, c := range Collections {
		r.reload(ctx, c, false)
	}

	var sub *redis.PubSub
	if r.redis != nil {
		sub = r.redis.Subscribe(ctx, ChangedChannel)
	}
	go r.run(ctx, sub)
}

// Stop ends the subscription and waits for the refresh loop to exit.
func (r *Reader) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Invalidate schedules a reload of c on this instance.
func (r *Reader) Invalidate(c Collection) {
	if !c.Valid() {
		return
	}
	r.pendingMu.Lock()
	r.pending[c] = true
	r.pendingMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reader) run(ctx context.Context, sub *redis.PubSub) {
	defer close(r.done)

	var msgs <-chan *redis.Message
	if sub != nil {
		defer sub.Close()
		msgs = sub.Channel()
	}

	// The resync covers change notices lost while Pub/Sub was reconnecting.
	resync := time.NewTicker(r.resync)
	defer resync.Stop()
	retry := time.NewTicker(r.retry)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-resync.C:
			for _, c := range Collections {
				r.reload(ctx, c, false)
			}
		case <-retry.C:
			for _, c := range r.failedCollections() {
				r.reload(ctx, c, true)
			}
		case <-r.wake:
			r.pendingMu.Lock()
			batch := r.pending
			r.pending = make(map[Collection]bool)
			r.pendingMu.Unlock()
			for c := range batch {
				r.reload(ctx, c, true)
			}
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			if c := Collection(msg.Payload); c.Valid() {
				r.reload(ctx, c, true)
			}
		}
	}
}

// reload replaces the snapshot of c. A failed load leaves the collection empty.
func (r *Reader) reload(ctx context.Context, c Collection, notify bool) {
	var err error
	switch c {
	case CollectionContent:
		var items []ContentItem
		items, err = r.repo.ListContent(ctx, false)
		r.mu.Lock()
		r.content = items
		r.mu.Unlock()
	case CollectionGames:
		var games []Game
		games, err = r.repo.ListGames(ctx, false)
		r.mu.Lock()
		r.games = games
		r.mu.Unlock()
	case CollectionPlatforms:
		var platforms []Platform
		platforms, err = r.repo.ListPlatforms(ctx, false)
		r.mu.Lock()
		r.platforms = platforms
		r.mu.Unlock()
	}
	r.pendingMu.Lock()
	r.failed[c] = err != nil
	r.pendingMu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("collection", string(c)).Msg("catalog reload failed")
	}

	if notify {
		for _, fn := range r.listeners {
			fn(ctx, c)
		}
	}
}

func (r *Reader) failedCollections() []Collection {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	var out []Collection
	for _, c := range Collections {
		if r.failed[c] {
			out = append(out, c)
		}
	}
	return out
}

// Content returns published content items matching f.
func (r *Reader) Content(f Filter) []ContentItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ContentItem, 0, len(r.content))
	for _, item := range r.content {
		if item.IsPublished && f.matches(item.Category, item.Title, item.Description) {
			out = append(out, item)
		}
	}
	return out
}

// Games returns active games matching f.
func (r *Reader) Games(f Filter) []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		if g.IsActive && f.matches("", g.Title, g.Description) {
			out = append(out, g)
		}
	}
	return out
}

// Platforms returns active platforms matching f.
func (r *Reader) Platforms(f Filter) []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Platform, 0, len(r.platforms))
	for _, p := range r.platforms {
		if p.IsActive && f.matches(p.Category, p.Name, p.Description) {
			out = append(out, p)
		}
	}
	return out
}

// ContentItem returns a published item, from the snapshot when possible.
func (r *Reader) ContentItem(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	r.mu.RLock()
	for _, item := range r.content {
		if item.ID == id {
			cp := item
			r.mu.RUnlock()
			return &cp, nil
		}
	}
	r.mu.RUnlock()

	item, err := r.repo.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished {
		return nil, ErrNotFound
	}
	return item, nil
}

// Game always reads the store so purchases price against the current rate.
func (r *Reader) Game(ctx context.Context, id uuid.UUID) (*Game, error) {
	game, err := r.repo.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !game.IsActive {
		return nil, ErrNotFound
	}
	return game, nil
}

func (f Filter) matches(category string, texts ...string) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, category) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
