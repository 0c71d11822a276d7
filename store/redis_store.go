package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v7"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/models/asset"
)

// RedisStore keeps assets as JSON in one hash, keyed by id, and
// share grants as JSON in another hash, keyed by token. Ids come
// from INCR counters.
type RedisStore struct {
	client *redis.Client
}

var _ AssetStore = (*RedisStore)(nil)

func NewRedisStore(address, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStore) Ping() (string, error) {
	return s.client.Ping().Result()
}

func (s *RedisStore) InsertAsset(ctx context.Context, a *asset.Asset) (int64, error) {
	client := s.client.WithContext(ctx)
	id, err := client.Incr(constants.RedisAssetSeq).Result()
	if err != nil {
		return 0, fmt.Errorf("InsertAsset: next id: %w", err)
	}
	record := *a
	record.ID = id
	jsonData, err := record.ToJson()
	if err != nil {
		return 0, err
	}
	ok, err := client.HSetNX(constants.RedisAssetHash, strconv.FormatInt(id, 10), jsonData).Result()
	if err != nil {
		return 0, fmt.Errorf("InsertAsset (%d): %w", id, err)
	}
	if !ok {
		return 0, fmt.Errorf("InsertAsset: id %d is already taken", id)
	}
	a.ID = id
	return id, nil
}

func (s *RedisStore) AssetByID(ctx context.Context, id int64) (*asset.Asset, error) {
	data, err := s.client.WithContext(ctx).HGet(constants.RedisAssetHash, strconv.FormatInt(id, 10)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("AssetByID (%d): %w", id, err)
	}
	return asset.AssetFromJson(data)
}

func (s *RedisStore) AssetsByIDs(ctx context.Context, ids []int64) (map[int64]*asset.Asset, error) {
	assets := make(map[int64]*asset.Asset, len(ids))
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return assets, nil
	}
	fields := make([]string, len(unique))
	for i, id := range unique {
		fields[i] = strconv.FormatInt(id, 10)
	}
	values, err := s.client.WithContext(ctx).HMGet(constants.RedisAssetHash, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("AssetsByIDs: %w", err)
	}
	for i, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		a, err := asset.AssetFromJson(data)
		if err != nil {
			return nil, err
		}
		assets[unique[i]] = a
	}
	return assets, nil
}

func (s *RedisStore) InsertShareGrant(ctx context.Context, g *asset.ShareGrant) (int64, error) {
	client := s.client.WithContext(ctx)
	id, err := client.Incr(constants.RedisGrantSeq).Result()
	if err != nil {
		return 0, fmt.Errorf("InsertShareGrant: next id: %w", err)
	}
	record := *g
	record.ID = id
	jsonData, err := record.ToJson()
	if err != nil {
		return 0, err
	}
	ok, err := client.HSetNX(constants.RedisGrantHash, g.Token, jsonData).Result()
	if err != nil {
		return 0, fmt.Errorf("InsertShareGrant: %w", err)
	}
	if !ok {
		return 0, ErrDuplicateToken
	}
	g.ID = id
	return id, nil
}

func (s *RedisStore) ShareGrantByToken(ctx context.Context, token string) (*asset.ShareGrant, error) {
	data, err := s.client.WithContext(ctx).HGet(constants.RedisGrantHash, token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ShareGrantByToken: %w", err)
	}
	return asset.ShareGrantFromJson(data)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
