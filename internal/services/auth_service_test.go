package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/store"
	"github.com/example/marque/internal/utils"
)

func newMarketDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func newAuthService(t *testing.T, maxAttempts int) (*AuthService, *database.Manager) {
	t.Helper()
	dbm := database.NewWithConnections(map[market.Market]*gorm.DB{
		market.KG: newMarketDB(t),
		market.US: newMarketDB(t),
	})
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		TokenExpires:      time.Hour,
		MaxSendAttempts:   maxAttempts,
		SendAttemptWindow: 15 * time.Minute,
	}
	log := zap.NewNop()
	sms := NewSMSService("", "", log)
	limiter := NewLimiter(nil, cfg.MaxSendAttempts, cfg.SendAttemptWindow)
	return NewAuthService(dbm, cfg, sms, limiter, log), dbm
}

func TestSendThenVerifyCreatesVerifiedUser(t *testing.T) {
	svc, dbm := newAuthService(t, 3)
	ctx := context.Background()

	sent, err := svc.SendCode(ctx, "+996 555 123 456", "")
	require.NoError(t, err)
	assert.Equal(t, market.KG, sent.Market)
	assert.Equal(t, "ru", sent.Language)
	assert.Equal(t, 10, sent.ExpiresInMinutes)
	assert.Equal(t, "+996 555 123 456", sent.Phone)
	// With no SMS gateway the code comes back in the response.
	require.Len(t, sent.FallbackCode, 6)

	verified, err := svc.VerifyCode(ctx, "+996555123456", sent.FallbackCode, "")
	require.NoError(t, err)
	assert.True(t, verified.IsNewUser)
	assert.Equal(t, market.KG, verified.Market)
	require.NotNil(t, verified.User)
	assert.True(t, verified.User.IsVerified)
	assert.True(t, verified.User.IsActive)
	assert.NotNil(t, verified.User.LastLogin)
	assert.Equal(t, "ru", verified.User.Language)

	userID, mkt, err := utils.ParseToken("test-secret", verified.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, verified.User.ID, userID)
	assert.Equal(t, market.KG, mkt)

	// The code is single-use.
	_, err = svc.VerifyCode(ctx, "+996555123456", sent.FallbackCode, "")
	assert.ErrorIs(t, err, store.ErrCodeInvalid)

	// The account lives only in the KG database.
	var usCount int64
	require.NoError(t, dbm.Session(market.US).Model(&models.User{}).Count(&usCount).Error)
	assert.Zero(t, usCount)
}

func TestVerifyExistingUserIsNotNew(t *testing.T) {
	svc, dbm := newAuthService(t, 3)
	ctx := context.Background()

	existing, err := store.Users(market.US).Create(dbm.Session(market.US), "+12125551234", "Jane Smith")
	require.NoError(t, err)

	sent, err := svc.SendCode(ctx, "+1 (212) 555-1234", "")
	require.NoError(t, err)
	assert.Equal(t, market.US, sent.Market)
	assert.Equal(t, "en", sent.Language)
	assert.Equal(t, 15, sent.ExpiresInMinutes)
	require.Len(t, sent.FallbackCode, 6)

	verified, err := svc.VerifyCode(ctx, "+12125551234", sent.FallbackCode, "")
	require.NoError(t, err)
	assert.False(t, verified.IsNewUser)
	assert.Equal(t, existing.ID, verified.User.ID)
	assert.Equal(t, "Jane Smith", verified.User.FullName)
	assert.True(t, verified.User.IsVerified)
}

func TestSendCodeRateLimited(t *testing.T) {
	svc, _ := newAuthService(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.SendCode(ctx, "+996555123456", "")
		require.NoError(t, err)
	}

	_, err := svc.SendCode(ctx, "+996555123456", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	// Another phone is tracked independently.
	_, err = svc.SendCode(ctx, "+996555999888", "")
	assert.NoError(t, err)
}

func TestSendCodeUnsupportedPhone(t *testing.T) {
	svc, _ := newAuthService(t, 3)

	_, err := svc.SendCode(context.Background(), "+44 20 7946 0958", "")
	assert.ErrorIs(t, err, market.ErrUnsupportedPhone)
}

func TestSendCodeMarketOverride(t *testing.T) {
	svc, _ := newAuthService(t, 3)
	ctx := context.Background()

	sent, err := svc.SendCode(ctx, "+996555123456", "kg")
	require.NoError(t, err)
	assert.Equal(t, market.KG, sent.Market)

	_, err = svc.SendCode(ctx, "+996555123456", "fr")
	assert.Error(t, err)
}
