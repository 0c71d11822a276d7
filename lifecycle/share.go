package lifecycle

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/store"
)

// ShareIssuer creates share grants and redeems their tokens.
type ShareIssuer struct {
	Manager *Manager

	// Now returns the current time. Tests replace it.
	Now func() time.Time

	// ReadSalt fills its argument with random bytes.
	ReadSalt func([]byte) (int, error)
}

func NewShareIssuer(manager *Manager) *ShareIssuer {
	return &ShareIssuer{
		Manager:  manager,
		Now:      time.Now,
		ReadSalt: rand.Read,
	}
}

// Grant creates a share link for asset assetID that stays valid for
// expiry. If expiry is nil, the configured default applies. A zero
// expiry gives a link that is valid only at the instant it was made.
func (s *ShareIssuer) Grant(ctx context.Context, assetID int64, expiry *time.Duration) (*asset.ShareLink, error) {
	config := s.Manager.Context.Config
	log := s.Manager.Context.Logger
	lifetime := config.DefaultShareExpiry()
	if expiry != nil {
		lifetime = *expiry
	}
	if lifetime < 0 {
		return nil, common.NewValidationError("Invalid parameters : 'expiry_hours' cannot be negative")
	}
	if _, err := s.Manager.loadAsset(ctx, assetID); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	grant := &asset.ShareGrant{
		AssetID:   assetID,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	}
	// On a token collision, try once more with a fresh salt.
	for attempt := 0; attempt < 2; attempt++ {
		token, err := s.newToken(assetID, now)
		if err != nil {
			return nil, common.NewProcessingError(fmt.Sprintf("Could not create share token: %v", err), err)
		}
		grant.Token = token
		sctx, cancel := s.Manager.storeContext(ctx)
		_, err = s.Manager.Context.Store.InsertShareGrant(sctx, grant)
		cancel()
		if errors.Is(err, store.ErrDuplicateToken) {
			log.Warningf("Share token collision for asset %d, attempt %d", assetID, attempt+1)
			continue
		}
		if err != nil {
			return nil, common.NewProcessingError(fmt.Sprintf("Database error: %v", err), err)
		}
		log.Infof("Created share grant %d for asset %d, expires %s", grant.ID, assetID, grant.ExpiresAt.Format(time.RFC3339))
		return &asset.ShareLink{
			ExpiresAt: grant.ExpiresAt,
			ShareURL:  config.ShareBaseURL + constants.SharePathPrefix + token,
			Token:     token,
		}, nil
	}
	return nil, common.NewProcessingError("Could not create a unique share token", store.ErrDuplicateToken)
}

// Redeem returns the asset that token grants access to. Expired
// grants are reported as validation errors and left in place.
func (s *ShareIssuer) Redeem(ctx context.Context, token string) (*asset.AssetView, error) {
	sctx, cancel := s.Manager.storeContext(ctx)
	grant, err := s.Manager.Context.Store.ShareGrantByToken(sctx, token)
	cancel()
	if err != nil {
		return nil, common.NewProcessingError(fmt.Sprintf("Database error: %v", err), err)
	}
	if grant == nil {
		return nil, common.NewNotFoundError("share link not found")
	}
	if grant.IsExpired(s.Now()) {
		s.Manager.Context.Logger.Infof("Share grant %d for asset %d expired at %s",
			grant.ID, grant.AssetID, grant.ExpiresAt.Format(time.RFC3339))
		return nil, common.NewValidationError("share link expired")
	}
	return s.Manager.Get(ctx, grant.AssetID)
}

// newToken returns hex(sha256(assetID, issuedAt in unix nanos, salt)).
func (s *ShareIssuer) newToken(assetID int64, issuedAt time.Time) (string, error) {
	buf := make([]byte, 16+constants.TokenSaltBytes)
	binary.BigEndian.PutUint64(buf[0:8], uint64(assetID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(issuedAt.UnixNano()))
	if _, err := s.ReadSalt(buf[16:]); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
