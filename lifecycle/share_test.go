package lifecycle_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/store"
	"github.com/reelvault/asset-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func hours(n int) *time.Duration {
	d := time.Duration(n) * time.Hour
	return &d
}

func TestGrantDefaultExpiry(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)

	link, err := h.issuer.Grant(context.Background(), id, nil)
	require.Nil(t, err)
	assert.True(t, tokenPattern.MatchString(link.Token), link.Token)
	assert.Equal(t, "http://localhost:8080/video/share/"+link.Token, link.ShareURL)
	assert.Equal(t, testNow.Add(24*time.Hour), link.ExpiresAt)

	grants := h.store.Grants()
	require.Len(t, grants, 1)
	assert.Equal(t, id, grants[0].AssetID)
	assert.Equal(t, link.Token, grants[0].Token)
	assert.Equal(t, testNow, grants[0].CreatedAt)
}

func TestGrantCustomExpiry(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	link, err := h.issuer.Grant(context.Background(), id, hours(2))
	require.Nil(t, err)
	assert.Equal(t, testNow.Add(2*time.Hour), link.ExpiresAt)
}

func TestGrantTokensAreUnique(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	// Same asset, same instant. Only the salt differs.
	first, err := h.issuer.Grant(context.Background(), id, nil)
	require.Nil(t, err)
	second, err := h.issuer.Grant(context.Background(), id, nil)
	require.Nil(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestGrantNegativeExpiry(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	_, err := h.issuer.Grant(context.Background(), id, hours(-1))
	assert.True(t, common.IsKind(err, common.KindValidation))
	assert.Empty(t, h.store.Grants())
}

func TestGrantNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.issuer.Grant(context.Background(), 999, nil)
	assert.True(t, common.IsKind(err, common.KindNotFound))
	assert.Empty(t, h.store.Grants())
}

func TestGrantRetriesDuplicateToken(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	h.store.DuplicateTokens = 1
	link, err := h.issuer.Grant(context.Background(), id, nil)
	require.Nil(t, err)
	assert.NotEmpty(t, link.Token)
	assert.Len(t, h.store.Grants(), 1)
}

func TestGrantGivesUpAfterSecondDuplicate(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	h.store.DuplicateTokens = 2
	_, err := h.issuer.Grant(context.Background(), id, nil)
	require.NotNil(t, err)
	assert.True(t, common.IsKind(err, common.KindProcessing))
	assert.ErrorIs(t, err, store.ErrDuplicateToken)
	assert.Empty(t, h.store.Grants())
}

func TestGrantStoreFailure(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	h.store.InsertGrantErr = errors.New("read-only replica")
	_, err := h.issuer.Grant(context.Background(), id, nil)
	assert.True(t, common.IsKind(err, common.KindProcessing))
}

func TestGrantSaltFailure(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	h.issuer.ReadSalt = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	_, err := h.issuer.Grant(context.Background(), id, nil)
	assert.True(t, common.IsKind(err, common.KindProcessing))
}

func TestRedeem(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	link, err := h.issuer.Grant(context.Background(), id, nil)
	require.Nil(t, err)

	h.now = testNow.Add(time.Hour)
	view, err := h.issuer.Redeem(context.Background(), link.Token)
	require.Nil(t, err)
	assert.Equal(t, id, view.ID)

	again, err := h.issuer.Redeem(context.Background(), link.Token)
	require.Nil(t, err)
	assert.Equal(t, view, again)

	direct, err := h.manager.Get(context.Background(), id)
	require.Nil(t, err)
	assert.Equal(t, direct, view)
}

func TestRedeemZeroExpiry(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	link, err := h.issuer.Grant(context.Background(), id, hours(0))
	require.Nil(t, err)
	assert.Equal(t, testNow, link.ExpiresAt)

	// Valid at the instant of issue.
	_, err = h.issuer.Redeem(context.Background(), link.Token)
	assert.Nil(t, err)

	// Expired one nanosecond later.
	h.now = testNow.Add(time.Nanosecond)
	_, err = h.issuer.Redeem(context.Background(), link.Token)
	require.NotNil(t, err)
	assert.True(t, common.IsKind(err, common.KindValidation))
	assert.Equal(t, "share link expired", err.Error())
}

func TestRedeemExpiredLeavesGrant(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, "clip.mp4", 10)
	link, err := h.issuer.Grant(context.Background(), id, hours(1))
	require.Nil(t, err)
	before := h.store.Grants()

	h.now = testNow.Add(2 * time.Hour)
	for i := 0; i < 2; i++ {
		_, err = h.issuer.Redeem(context.Background(), link.Token)
		assert.True(t, common.IsKind(err, common.KindValidation))
	}
	assert.Equal(t, before, h.store.Grants())
}

func TestRedeemUnknownToken(t *testing.T) {
	h := newHarness(t)
	_, err := h.issuer.Redeem(context.Background(), strings.Repeat("0", 64))
	require.NotNil(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestRedeemStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.ReadErr = errors.New("timeout")
	_, err := h.issuer.Redeem(context.Background(), "abc")
	assert.True(t, common.IsKind(err, common.KindProcessing))
}

func TestRedeemMissingAsset(t *testing.T) {
	h := newHarness(t)
	grant := testutil.GetShareGrant(4242, strings.Repeat("a", 64), testNow.Add(time.Hour))
	_, err := h.store.InsertShareGrant(context.Background(), grant)
	require.Nil(t, err)

	view, err := h.issuer.Redeem(context.Background(), grant.Token)
	assert.Nil(t, view)
	require.NotNil(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))
	assert.Equal(t, "video not found for ID : 4242", err.Error())
}
