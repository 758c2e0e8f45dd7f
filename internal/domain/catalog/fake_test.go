package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu        sync.Mutex
	content   []ContentItem
	games     []Game
	platforms []Platform
	err       error
	loads     map[Collection]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{loads: map[Collection]int{}}
}

func (f *fakeRepo) ListContent(context.Context, bool) ([]ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[CollectionContent]++
	if f.err != nil {
		return nil, f.err
	}
	return append([]ContentItem(nil), f.content...), nil
}

func (f *fakeRepo) ListGames(context.Context, bool) ([]Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[CollectionGames]++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Game(nil), f.games...), nil
}

func (f *fakeRepo) ListPlatforms(context.Context, bool) ([]Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[CollectionPlatforms]++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Platform(nil), f.platforms...), nil
}

func (f *fakeRepo) GetContent(_ context.Context, id uuid.UUID) (*ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.content {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetGame(_ context.Context, id uuid.UUID) (*Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.ID == id {
			cp := g
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetPlatform(_ context.Context, id uuid.UUID) (*Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.platforms {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) SaveContent(_ context.Context, item *ContentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.content = append(f.content, *item)
	return nil
}

func (f *fakeRepo) SaveGame(_ context.Context, game *Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	f.games = append(f.games, *game)
	return nil
}

func (f *fakeRepo) SavePlatform(_ context.Context, p *Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.platforms = append(f.platforms, *p)
	return nil
}

func (f *fakeRepo) SetImageURL(_ context.Context, c Collection, id uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch c {
	case CollectionGames:
		for i := range f.games {
			if f.games[i].ID == id {
				f.games[i].ThumbnailURL = url
				return nil
			}
		}
	case CollectionPlatforms:
		for i := range f.platforms {
			if f.platforms[i].ID == id {
				f.platforms[i].LogoURL = url
				return nil
			}
		}
	}
	return ErrNotFound
}
