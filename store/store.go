package store

import (
	"context"
	"errors"

	"github.com/reelvault/asset-services/models/asset"
)

// ErrDuplicateToken means a share grant with the same token
// already exists.
var ErrDuplicateToken = errors.New("share token already exists")

// AssetStore persists assets and share grants. Each insert is a
// single transaction: it either writes the whole record or nothing.
//
// Lookups return nil with no error when nothing matches.
type AssetStore interface {
	// InsertAsset saves a and sets a.ID to the id the store assigned.
	InsertAsset(ctx context.Context, a *asset.Asset) (int64, error)
	AssetByID(ctx context.Context, id int64) (*asset.Asset, error)
	// AssetsByIDs returns the assets that exist, keyed by id. Ids
	// with no asset are left out of the map.
	AssetsByIDs(ctx context.Context, ids []int64) (map[int64]*asset.Asset, error)
	// InsertShareGrant saves g and sets g.ID. It returns
	// ErrDuplicateToken if g.Token is already taken.
	InsertShareGrant(ctx context.Context, g *asset.ShareGrant) (int64, error)
	ShareGrantByToken(ctx context.Context, token string) (*asset.ShareGrant, error)
	Close() error
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
