package testutil

import (
	"context"
	"sync"

	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/store"
)

// MemoryStore is an AssetStore that keeps everything in maps. Set
// the error fields to make the next calls fail.
type MemoryStore struct {
	mutex      sync.Mutex
	assets     map[int64]asset.Asset
	grants     map[string]asset.ShareGrant
	nextAsset  int64
	nextGrant  int64
	assetReads int
	batchReads int

	// DuplicateTokens makes that many InsertShareGrant calls
	// fail with ErrDuplicateToken.
	DuplicateTokens int
	InsertAssetErr  error
	InsertGrantErr  error
	ReadErr         error
}

var _ store.AssetStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets: make(map[int64]asset.Asset),
		grants: make(map[string]asset.ShareGrant),
	}
}

func (m *MemoryStore) InsertAsset(ctx context.Context, a *asset.Asset) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.InsertAssetErr != nil {
		return 0, m.InsertAssetErr
	}
	m.nextAsset++
	a.ID = m.nextAsset
	m.assets[a.ID] = *a
	return a.ID, nil
}

func (m *MemoryStore) AssetByID(ctx context.Context, id int64) (*asset.Asset, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.assetReads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	a, ok := m.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MemoryStore) AssetsByIDs(ctx context.Context, ids []int64) (map[int64]*asset.Asset, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.batchReads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	found := make(map[int64]*asset.Asset)
	for _, id := range ids {
		if a, ok := m.assets[id]; ok {
			found[id] = &a
		}
	}
	return found, nil
}

func (m *MemoryStore) InsertShareGrant(ctx context.Context, g *asset.ShareGrant) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.InsertGrantErr != nil {
		return 0, m.InsertGrantErr
	}
	if m.DuplicateTokens > 0 {
		m.DuplicateTokens--
		return 0, store.ErrDuplicateToken
	}
	if _, exists := m.grants[g.Token]; exists {
		return 0, store.ErrDuplicateToken
	}
	m.nextGrant++
	g.ID = m.nextGrant
	m.grants[g.Token] = *g
	return g.ID, nil
}

func (m *MemoryStore) ShareGrantByToken(ctx context.Context, token string) (*asset.ShareGrant, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	g, ok := m.grants[token]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// AssetCount returns the number of stored assets.
func (m *MemoryStore) AssetCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.assets)
}

// AssetReads returns the number of AssetByID calls.
func (m *MemoryStore) AssetReads() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.assetReads
}

// BatchReads returns the number of AssetsByIDs calls.
func (m *MemoryStore) BatchReads() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.batchReads
}

// Grants returns copies of all stored grants.
func (m *MemoryStore) Grants() []asset.ShareGrant {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	grants := make([]asset.ShareGrant, 0, len(m.grants))
	for _, g := range m.grants {
		grants = append(grants, g)
	}
	return grants
}
