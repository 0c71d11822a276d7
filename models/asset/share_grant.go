package asset

import (
	"encoding/json"
	"time"
)

// ShareGrant is a time-limited token that lets anyone holding it
// view one asset. Grants are kept after they expire.
type ShareGrant struct {
	AssetID   int64     `json:"asset_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
}

// ShareLink is returned to the caller who created a grant.
type ShareLink struct {
	ExpiresAt time.Time `json:"expiry_time"`
	ShareURL  string    `json:"share_url"`
	Token     string    `json:"-"`
}

func ShareGrantFromJson(jsonData string) (*ShareGrant, error) {
	g := &ShareGrant{}
	err := json.Unmarshal([]byte(jsonData), g)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *ShareGrant) ToJson() (string, error) {
	bytes, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// IsExpired returns true if now is strictly after ExpiresAt.
// A grant is still good at the instant it expires.
func (g *ShareGrant) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}
