package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

// AddressStore is the delivery-address accessor for one market.
type AddressStore struct {
	mkt   market.Market
	rules market.LocaleRules
}

// Addresses returns the address accessor for a market.
func Addresses(m market.Market) *AddressStore {
	return &AddressStore{mkt: m, rules: market.MustRules(m)}
}

// Create inserts an address for the user, enforcing the market's field
// requirements (US mandates a postal code, KG does not).
func (s *AddressStore) Create(db *gorm.DB, userID uuid.UUID, address models.UserAddress) (*models.UserAddress, error) {
	if s.rules.PostalCodeRequired && address.PostalCode == "" {
		return nil, ErrPostalCodeRequired
	}

	address.ID = uuid.Nil
	address.UserID = userID
	address.Market = string(s.mkt)
	address.IsActive = true
	if address.Country == "" {
		address.Country = s.rules.Country
	}
	if address.AddressType == "" {
		address.AddressType = "home"
	}

	if err := db.Create(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// ListForUser returns the user's active addresses, default first, then
// newest first.
func (s *AddressStore) ListForUser(db *gorm.DB, userID uuid.UUID) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	err := db.Where("user_id = ? AND is_active = ? AND market = ?", userID, true, string(s.mkt)).
		Order("is_default desc, created_at desc").
		Find(&addresses).Error
	return addresses, err
}

// Default returns the user's default address, or nil when none is set.
func (s *AddressStore) Default(db *gorm.DB, userID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	err := db.Where(
		"user_id = ? AND is_default = ? AND is_active = ? AND market = ?",
		userID, true, true, string(s.mkt),
	).First(&address).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// SetDefault makes one address the user's default. Other defaults are cleared
// and the new one set inside a single transaction, so concurrent callers can
// never leave two defaults behind.
func (s *AddressStore) SetDefault(db *gorm.DB, userID, addressID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserAddress{}).
			Where("user_id = ? AND market = ?", userID, string(s.mkt)).
			Update("is_default", false).Error; err != nil {
			return err
		}

		res := tx.Model(&models.UserAddress{}).
			Where("id = ? AND user_id = ? AND is_active = ? AND market = ?",
				addressID, userID, true, string(s.mkt)).
			Updates(map[string]interface{}{"is_default": true, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Roll back so the previous default survives.
			return ErrNotFound
		}
		return nil
	})
}

// Deactivate soft-deletes an address.
func (s *AddressStore) Deactivate(db *gorm.DB, userID, addressID uuid.UUID) error {
	res := db.Model(&models.UserAddress{}).
		Where("id = ? AND user_id = ? AND market = ?", addressID, userID, string(s.mkt)).
		Updates(map[string]interface{}{"is_active": false, "is_default": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DisplayAddress renders the address in the market's customary shape.
func (s *AddressStore) DisplayAddress(address *models.UserAddress) string {
	var parts []string
	switch s.mkt {
	case market.US:
		if address.AddressLine != "" {
			parts = append(parts, address.AddressLine)
		}
		if address.Apartment != "" {
			parts = append(parts, "Apt "+address.Apartment)
		}
		if address.City != "" {
			parts = append(parts, address.City)
		}
		if address.State != "" {
			parts = append(parts, address.State)
		}
		if address.PostalCode != "" {
			parts = append(parts, address.PostalCode)
		}
	default:
		if address.AddressLine != "" {
			parts = append(parts, address.AddressLine)
		}
		if address.Apartment != "" {
			parts = append(parts, "кв. "+address.Apartment)
		}
		if address.City != "" {
			parts = append(parts, address.City)
		}
		if address.District != "" {
			parts = append(parts, address.District)
		}
		if address.Region != "" {
			parts = append(parts, address.Region)
		}
	}
	return strings.Join(parts, ", ")
}
