package testutil

import (
	"time"

	"github.com/reelvault/asset-services/models/asset"
)

var Bloomsday, _ = time.Parse(time.RFC3339, "1904-06-16T15:04:05Z")

// GetAsset returns an asset that passes default validation. It has
// no id, so it can go straight into a store.
func GetAsset(filename string) *asset.Asset {
	return &asset.Asset{
		CreatedAt:       Bloomsday,
		DurationSeconds: 10,
		Filename:        filename,
		SizeBytes:       64 * 1024,
		StorageLocation: "/var/assets/" + filename,
	}
}

func GetShareGrant(assetID int64, token string, expiresAt time.Time) *asset.ShareGrant {
	return &asset.ShareGrant{
		AssetID:   assetID,
		CreatedAt: Bloomsday,
		ExpiresAt: expiresAt,
		Token:     token,
	}
}
