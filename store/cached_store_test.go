package store_test

import (
	"context"
	"testing"

	"github.com/reelvault/asset-services/store"
	"github.com/reelvault/asset-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStoreServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := testutil.NewMemoryStore()
	cached, err := store.NewCachedStore(inner, 2)
	require.Nil(t, err)

	id, err := cached.InsertAsset(ctx, newAsset("cached.mp4"))
	require.Nil(t, err)
	assert.Equal(t, 1, cached.Len())

	readsBefore := inner.AssetReads()
	a, err := cached.AssetByID(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, "cached.mp4", a.Filename)
	assert.Equal(t, readsBefore, inner.AssetReads())

	// Callers get copies, so changing one does not poison the cache.
	a.Filename = "changed.mp4"
	again, err := cached.AssetByID(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, "cached.mp4", again.Filename)
}

func TestCachedStoreEvicts(t *testing.T) {
	ctx := context.Background()
	inner := testutil.NewMemoryStore()
	cached, err := store.NewCachedStore(inner, 2)
	require.Nil(t, err)
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		_, err := cached.InsertAsset(ctx, newAsset(name))
		require.Nil(t, err)
	}
	assert.Equal(t, 2, cached.Len())

	readsBefore := inner.AssetReads()
	a, err := cached.AssetByID(ctx, 1)
	require.Nil(t, err)
	assert.Equal(t, "a.mp4", a.Filename)
	assert.Equal(t, readsBefore+1, inner.AssetReads())
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	cached, err := store.NewCachedStore(testutil.NewMemoryStore(), 2)
	require.Nil(t, err)
	a, err := cached.AssetByID(context.Background(), 42)
	assert.Nil(t, err)
	assert.Nil(t, a)
	assert.Equal(t, 0, cached.Len())
}

func TestNewCachedStoreBadSize(t *testing.T) {
	_, err := store.NewCachedStore(testutil.NewMemoryStore(), 0)
	assert.NotNil(t, err)
}
