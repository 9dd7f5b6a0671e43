package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

func TestIssueUsesLocaleRules(t *testing.T) {
	db := newTestDB(t)

	kg, err := Verifications(market.KG).Issue(db, "+996555123456", nil)
	require.NoError(t, err)
	assert.Len(t, kg.Code, 6)
	assert.Equal(t, "kg", kg.Market)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), kg.ExpiresAt, 5*time.Second)

	us, err := Verifications(market.US).Issue(db, "+12125551234", nil)
	require.NoError(t, err)
	assert.Len(t, us.Code, 6)
	assert.Equal(t, "us", us.Market)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), us.ExpiresAt, 5*time.Second)
}

func TestIssueRejectsForeignPhone(t *testing.T) {
	db := newTestDB(t)

	_, err := Verifications(market.KG).Issue(db, "+12125551234", nil)
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestRedeemSingleUse(t *testing.T) {
	db := newTestDB(t)
	phone := "+996555123456"

	issued, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)

	_, err = Verifications(market.KG).Redeem(db, phone, "000000")
	assert.ErrorIs(t, err, ErrCodeInvalid)

	redeemed, err := Verifications(market.KG).Redeem(db, phone, issued.Code)
	require.NoError(t, err)
	assert.True(t, redeemed.IsUsed)
	require.NotNil(t, redeemed.VerifiedAt)

	_, err = Verifications(market.KG).Redeem(db, phone, issued.Code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestRedeemOlderCodeStaysValid(t *testing.T) {
	db := newTestDB(t)
	phone := "+996555123456"

	first, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)
	_, err = Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)

	got, err := Verifications(market.KG).Redeem(db, phone, first.Code)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestRedeemScopedToMarket(t *testing.T) {
	db := newTestDB(t)
	phone := "+996555123456"

	issued, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)

	_, err = Verifications(market.US).Redeem(db, phone, issued.Code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestRedeemExpiryBoundary(t *testing.T) {
	db := newTestDB(t)
	phone := "+996555123456"

	stillValid, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PhoneVerification{}).
		Where("id = ?", stillValid.ID).
		Update("expires_at", time.Now().Add(time.Minute)).Error)

	_, err = Verifications(market.KG).Redeem(db, phone, stillValid.Code)
	assert.NoError(t, err)

	expired, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PhoneVerification{}).
		Where("id = ?", expired.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = Verifications(market.KG).Redeem(db, phone, expired.Code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestCleanupExpiredRemovesOnlyStaleUnused(t *testing.T) {
	db := newTestDB(t)
	phone := "+996555123456"

	var expiredIDs []interface{}
	for i := 0; i < 10; i++ {
		v, err := Verifications(market.KG).Issue(db, phone, nil)
		require.NoError(t, err)
		expiredIDs = append(expiredIDs, v.ID)
	}
	require.NoError(t, db.Model(&models.PhoneVerification{}).
		Where("id IN ?", expiredIDs).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	for i := 0; i < 2; i++ {
		_, err := Verifications(market.KG).Issue(db, phone, nil)
		require.NoError(t, err)
	}

	// A used code past its expiry must survive the sweep.
	used, err := Verifications(market.KG).Issue(db, phone, nil)
	require.NoError(t, err)
	_, err = Verifications(market.KG).Redeem(db, phone, used.Code)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PhoneVerification{}).
		Where("id = ?", used.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	removed, err := Verifications(market.KG).CleanupExpired(db)
	require.NoError(t, err)
	assert.Equal(t, int64(10), removed)

	var remaining int64
	require.NoError(t, db.Model(&models.PhoneVerification{}).Count(&remaining).Error)
	assert.Equal(t, int64(3), remaining)
}
