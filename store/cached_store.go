package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/reelvault/asset-services/models/asset"
)

// CachedStore keeps recently read assets in an LRU cache in front
// of another AssetStore. Assets never change once written, so cached
// entries never go stale. Share grants are not cached.
type CachedStore struct {
	AssetStore
	cache *lru.Cache[int64, asset.Asset]
}

func NewCachedStore(inner AssetStore, size int) (*CachedStore, error) {
	cache, err := lru.New[int64, asset.Asset](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{AssetStore: inner, cache: cache}, nil
}

func (s *CachedStore) InsertAsset(ctx context.Context, a *asset.Asset) (int64, error) {
	id, err := s.AssetStore.InsertAsset(ctx, a)
	if err != nil {
		return 0, err
	}
	s.cache.Add(id, *a)
	return id, nil
}

func (s *CachedStore) AssetByID(ctx context.Context, id int64) (*asset.Asset, error) {
	if cached, ok := s.cache.Get(id); ok {
		return &cached, nil
	}
	a, err := s.AssetStore.AssetByID(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	s.cache.Add(id, *a)
	return a, nil
}

func (s *CachedStore) AssetsByIDs(ctx context.Context, ids []int64) (map[int64]*asset.Asset, error) {
	assets := make(map[int64]*asset.Asset, len(ids))
	missing := make([]int64, 0)
	for _, id := range uniqueIDs(ids) {
		if cached, ok := s.cache.Get(id); ok {
			copied := cached
			assets[id] = &copied
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return assets, nil
	}
	loaded, err := s.AssetStore.AssetsByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, a := range loaded {
		s.cache.Add(id, *a)
		assets[id] = a
	}
	return assets, nil
}

// Len returns the number of cached assets.
func (s *CachedStore) Len() int {
	return s.cache.Len()
}
