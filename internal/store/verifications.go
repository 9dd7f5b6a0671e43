package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

// VerificationStore manages one-time phone verification codes for one market.
type VerificationStore struct {
	mkt   market.Market
	rules market.LocaleRules
}

// Verifications returns the verification accessor for a market.
func Verifications(m market.Market) *VerificationStore {
	return &VerificationStore{mkt: m, rules: market.MustRules(m)}
}

// Issue generates a fresh numeric code of the market's locale length and
// persists it with the locale lifetime. Older unused codes for the same
// phone remain valid; redemption matches on the exact code.
func (s *VerificationStore) Issue(db *gorm.DB, phone string, userID *uuid.UUID) (*models.PhoneVerification, error) {
	if !s.rules.PhonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: expected %s", ErrInvalidPhone, s.rules.PhoneFormat)
	}

	code, err := generateCode(s.rules.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	verification := models.PhoneVerification{
		UserID:    userID,
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(s.rules.CodeTTL),
		Market:    string(s.mkt),
	}
	if err := db.Create(&verification).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

// Redeem consumes the code matching phone, exact code, unused, unexpired and
// this market. The used flag transitions false to true exactly once. Every
// mismatch surfaces as the same ErrCodeInvalid.
func (s *VerificationStore) Redeem(db *gorm.DB, phone, code string) (*models.PhoneVerification, error) {
	var verification models.PhoneVerification
	err := db.Where(
		"phone = ? AND code = ? AND is_used = ? AND market = ?",
		phone, code, false, string(s.mkt),
	).First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCodeInvalid
	}
	if err != nil {
		return nil, err
	}
	if verification.IsExpired() {
		return nil, ErrCodeInvalid
	}

	now := time.Now()
	verification.IsUsed = true
	verification.VerifiedAt = &now
	if err := db.Save(&verification).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

// CleanupExpired bulk-deletes expired unused codes for this market and
// returns the number of removed rows. Run out-of-band, not per request.
func (s *VerificationStore) CleanupExpired(db *gorm.DB) (int64, error) {
	res := db.Where(
		"expires_at < ? AND is_used = ? AND market = ?",
		time.Now(), false, string(s.mkt),
	).Delete(&models.PhoneVerification{})
	return res.RowsAffected, res.Error
}

func generateCode(length int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < length; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
