package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

// UserStore is the user accessor for one market. One parameterized type
// serves every market; the locale rules carry the differences.
type UserStore struct {
	mkt   market.Market
	rules market.LocaleRules
}

// Users returns the user accessor for a market.
func Users(m market.Market) *UserStore {
	return &UserStore{mkt: m, rules: market.MustRules(m)}
}

// FindByPhone returns the user with the phone number, or nil when absent.
func (s *UserStore) FindByPhone(db *gorm.DB, phone string) (*models.User, error) {
	var user models.User
	err := db.Where("phone = ? AND market = ?", phone, string(s.mkt)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns the user by id, or ErrNotFound.
func (s *UserStore) FindByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.Where("id = ? AND market = ?", id, string(s.mkt)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user after re-validating the phone against the
// market's exact pattern. The returned row carries its generated id.
func (s *UserStore) Create(db *gorm.DB, phone, fullName string) (*models.User, error) {
	if !s.rules.PhonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: expected %s", ErrInvalidPhone, s.rules.PhoneFormat)
	}

	user := models.User{
		Phone:    phone,
		FullName: fullName,
		IsActive: true,
		Market:   string(s.mkt),
		Language: s.rules.Language,
		Country:  s.rules.Country,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkVerified flags the user verified and active and stamps last login.
func (s *UserStore) MarkVerified(db *gorm.DB, id uuid.UUID) error {
	now := time.Now()
	return db.Model(&models.User{}).
		Where("id = ? AND market = ?", id, string(s.mkt)).
		Updates(map[string]interface{}{
			"is_verified": true,
			"is_active":   true,
			"last_login":  now,
			"updated_at":  now,
		}).Error
}

// Update applies profile field changes.
func (s *UserStore) Update(db *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := db.Model(&models.User{}).
		Where("id = ? AND market = ?", id, string(s.mkt)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears the active flag. Users are never hard-deleted.
func (s *UserStore) Deactivate(db *gorm.DB, id uuid.UUID) error {
	return s.Update(db, id, map[string]interface{}{"is_active": false})
}
