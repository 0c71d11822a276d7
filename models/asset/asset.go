package asset

import (
	"encoding/json"
	"path/filepath"
	"time"
)

// Asset is a persisted video. Assets are created by upload, trim or
// merge and are never changed afterward.
type Asset struct {
	CreatedAt       time.Time `json:"created_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Filename        string    `json:"filename"`
	FormatID        string    `json:"format_id,omitempty"`
	ID              int64     `json:"id"`
	SizeBytes       int64     `json:"size_bytes"`
	StorageLocation string    `json:"storage_location"`
}

// AssetView is what callers see when they ask for an asset.
type AssetView struct {
	CreatedAt       time.Time `json:"created_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Filename        string    `json:"filename"`
	FormatID        string    `json:"format_id"`
	ID              int64     `json:"id"`
	SizeBytes       int64     `json:"size_bytes"`
	StorageLocation string    `json:"storage_location"`
}

func AssetFromJson(jsonData string) (*Asset, error) {
	a := &Asset{}
	err := json.Unmarshal([]byte(jsonData), a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Asset) ToJson() (string, error) {
	bytes, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ToView returns the caller-facing projection of this asset.
func (a *Asset) ToView() *AssetView {
	return &AssetView{
		CreatedAt:       a.CreatedAt.UTC(),
		DurationSeconds: a.DurationSeconds,
		Filename:        a.Filename,
		FormatID:        a.FormatID,
		ID:              a.ID,
		SizeBytes:       a.SizeBytes,
		StorageLocation: a.StorageLocation,
	}
}

// StorageName returns the base name of the stored media file.
func (a *Asset) StorageName() string {
	return filepath.Base(a.StorageLocation)
}
