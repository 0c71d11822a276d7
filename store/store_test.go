package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/store"
	"github.com/reelvault/asset-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, time.June, 16, 10, 24, 16, 123456789, time.UTC)

func newAsset(name string) *asset.Asset {
	return &asset.Asset{
		CreatedAt:       createdAt,
		DurationSeconds: 10.25,
		Filename:        name,
		FormatID:        "fmt/199",
		SizeBytes:       20480,
		StorageLocation: "/var/assets/" + name,
	}
}

func newGrant(assetID int64, token string) *asset.ShareGrant {
	return &asset.ShareGrant{
		AssetID:   assetID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(24 * time.Hour),
		Token:     token,
	}
}

// storeFactories returns one constructor per AssetStore
// implementation. Each test gets an empty store.
func storeFactories() map[string]func(t *testing.T) store.AssetStore {
	return map[string]func(t *testing.T) store.AssetStore{
		"sqlite": func(t *testing.T) store.AssetStore {
			s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "assets.db"))
			require.Nil(t, err)
			return s
		},
		"redis": func(t *testing.T) store.AssetStore {
			server := testutil.NewRedisServer()
			t.Cleanup(server.Close)
			return store.NewRedisStore(server.Addr(), "", 0)
		},
		"cached": func(t *testing.T) store.AssetStore {
			inner, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "assets.db"))
			require.Nil(t, err)
			s, err := store.NewCachedStore(inner, 2)
			require.Nil(t, err)
			return s
		},
		"memory": func(t *testing.T) store.AssetStore {
			return testutil.NewMemoryStore()
		},
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s store.AssetStore)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			fn(t, s)
		})
	}
}

func TestInsertAndGetAsset(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		ctx := context.Background()
		a := newAsset("first.mp4")
		id, err := s.InsertAsset(ctx, a)
		require.Nil(t, err)
		assert.True(t, id > 0)
		assert.Equal(t, id, a.ID)

		saved, err := s.AssetByID(ctx, id)
		require.Nil(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, id, saved.ID)
		assert.Equal(t, a.Filename, saved.Filename)
		assert.Equal(t, a.StorageLocation, saved.StorageLocation)
		assert.Equal(t, a.SizeBytes, saved.SizeBytes)
		assert.Equal(t, a.DurationSeconds, saved.DurationSeconds)
		assert.Equal(t, a.FormatID, saved.FormatID)
		assert.True(t, createdAt.Equal(saved.CreatedAt))

		second, err := s.InsertAsset(ctx, newAsset("second.mp4"))
		require.Nil(t, err)
		assert.NotEqual(t, id, second)
	})
}

func TestAssetByIDMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		a, err := s.AssetByID(context.Background(), 999)
		assert.Nil(t, err)
		assert.Nil(t, a)
	})
}

func TestAssetsByIDs(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		ctx := context.Background()
		id1, err := s.InsertAsset(ctx, newAsset("one.mp4"))
		require.Nil(t, err)
		id2, err := s.InsertAsset(ctx, newAsset("two.mp4"))
		require.Nil(t, err)
		id3, err := s.InsertAsset(ctx, newAsset("three.mp4"))
		require.Nil(t, err)

		// Read one first so the cached store has a mix of hits and misses.
		_, err = s.AssetByID(ctx, id3)
		require.Nil(t, err)

		assets, err := s.AssetsByIDs(ctx, []int64{id1, id2, 999, id1, id3})
		require.Nil(t, err)
		assert.Len(t, assets, 3)
		assert.Equal(t, "one.mp4", assets[id1].Filename)
		assert.Equal(t, "two.mp4", assets[id2].Filename)
		assert.Equal(t, "three.mp4", assets[id3].Filename)
		assert.NotContains(t, assets, int64(999))

		empty, err := s.AssetsByIDs(ctx, nil)
		require.Nil(t, err)
		assert.Empty(t, empty)
	})
}

func TestShareGrants(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		ctx := context.Background()
		grant := newGrant(7, "aaaa")
		id, err := s.InsertShareGrant(ctx, grant)
		require.Nil(t, err)
		assert.True(t, id > 0)
		assert.Equal(t, id, grant.ID)

		saved, err := s.ShareGrantByToken(ctx, "aaaa")
		require.Nil(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, id, saved.ID)
		assert.EqualValues(t, 7, saved.AssetID)
		assert.True(t, grant.ExpiresAt.Equal(saved.ExpiresAt))
		assert.True(t, grant.CreatedAt.Equal(saved.CreatedAt))

		missing, err := s.ShareGrantByToken(ctx, "bbbb")
		assert.Nil(t, err)
		assert.Nil(t, missing)
	})
}

func TestDuplicateToken(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		ctx := context.Background()
		_, err := s.InsertShareGrant(ctx, newGrant(1, "same-token"))
		require.Nil(t, err)
		_, err = s.InsertShareGrant(ctx, newGrant(2, "same-token"))
		assert.ErrorIs(t, err, store.ErrDuplicateToken)

		// The first grant is untouched.
		saved, err := s.ShareGrantByToken(ctx, "same-token")
		require.Nil(t, err)
		assert.EqualValues(t, 1, saved.AssetID)
	})
}

func TestConcurrentInserts(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.AssetStore) {
		ctx := context.Background()
		var wg sync.WaitGroup
		ids := make([]int64, 10)
		errs := make([]error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = s.InsertAsset(ctx, newAsset(fmt.Sprintf("clip-%d.mp4", i)))
			}(i)
		}
		wg.Wait()
		seen := make(map[int64]bool)
		for i := range ids {
			require.Nil(t, errs[i])
			assert.False(t, seen[ids[i]])
			seen[ids[i]] = true
		}
	})
}

func TestCanceledContext(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "assets.db"))
	require.Nil(t, err)
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.InsertAsset(ctx, newAsset("late.mp4"))
	assert.NotNil(t, err)

	a, err := s.AssetByID(context.Background(), 1)
	assert.Nil(t, err)
	assert.Nil(t, a)
}

func TestSQLiteRejectsInvalidRows(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "assets.db"))
	require.Nil(t, err)
	defer s.Close()
	bad := newAsset("empty.mp4")
	bad.SizeBytes = 0
	_, err = s.InsertAsset(context.Background(), bad)
	assert.NotNil(t, err)
	assert.EqualValues(t, 0, bad.ID)
}

func TestRedisPing(t *testing.T) {
	server := testutil.NewRedisServer()
	defer server.Close()
	s := store.NewRedisStore(server.Addr(), "", 0)
	defer s.Close()
	response, err := s.Ping()
	assert.Nil(t, err)
	assert.Equal(t, "PONG", response)
}
