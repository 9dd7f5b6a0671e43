package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
)

// PaymentMethodStore is the payment-method accessor for one market.
type PaymentMethodStore struct {
	mkt   market.Market
	rules market.LocaleRules
}

// PaymentMethods returns the payment-method accessor for a market.
func PaymentMethods(m market.Market) *PaymentMethodStore {
	return &PaymentMethodStore{mkt: m, rules: market.MustRules(m)}
}

// Create inserts a payment method after checking the kind against the
// market's allowed set.
func (s *PaymentMethodStore) Create(db *gorm.DB, userID uuid.UUID, method models.UserPaymentMethod) (*models.UserPaymentMethod, error) {
	if !s.rules.AllowsPaymentKind(method.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrPaymentKindNotAllowed, method.Kind)
	}

	method.ID = uuid.Nil
	method.UserID = userID
	method.Market = string(s.mkt)
	method.IsActive = true

	if err := db.Create(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// CreateCard stores a card, keeping only the masked tail of the number. The
// card brand is detected per market: KG recognizes the local Elcard range,
// US recognizes Amex and Discover.
func (s *PaymentMethodStore) CreateCard(db *gorm.DB, userID uuid.UUID, number, holder, expiryMonth, expiryYear, bankName string) (*models.UserPaymentMethod, error) {
	last4 := number
	if len(number) >= 4 {
		last4 = number[len(number)-4:]
	}

	return s.Create(db, userID, models.UserPaymentMethod{
		Kind:        "card",
		CardType:    s.detectCardType(number),
		CardLast4:   last4,
		CardHolder:  holder,
		ExpiryMonth: expiryMonth,
		ExpiryYear:  expiryYear,
		BankName:    bankName,
	})
}

func (s *PaymentMethodStore) detectCardType(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "5"), strings.HasPrefix(number, "2"):
		return "mastercard"
	case s.mkt == market.KG && strings.HasPrefix(number, "9"):
		return "elcard"
	case s.mkt == market.US && strings.HasPrefix(number, "3"):
		return "amex"
	case s.mkt == market.US && strings.HasPrefix(number, "6"):
		return "discover"
	}
	return ""
}

// ListForUser returns the user's active payment methods, default first, then
// newest first.
func (s *PaymentMethodStore) ListForUser(db *gorm.DB, userID uuid.UUID) ([]models.UserPaymentMethod, error) {
	var methods []models.UserPaymentMethod
	err := db.Where("user_id = ? AND is_active = ? AND market = ?", userID, true, string(s.mkt)).
		Order("is_default desc, created_at desc").
		Find(&methods).Error
	return methods, err
}

// SetDefault makes one payment method the user's default, clear-then-set in
// one transaction.
func (s *PaymentMethodStore) SetDefault(db *gorm.DB, userID, methodID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserPaymentMethod{}).
			Where("user_id = ? AND market = ?", userID, string(s.mkt)).
			Update("is_default", false).Error; err != nil {
			return err
		}

		res := tx.Model(&models.UserPaymentMethod{}).
			Where("id = ? AND user_id = ? AND is_active = ? AND market = ?",
				methodID, userID, true, string(s.mkt)).
			Updates(map[string]interface{}{"is_default": true, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Deactivate soft-deletes a payment method.
func (s *PaymentMethodStore) Deactivate(db *gorm.DB, userID, methodID uuid.UUID) error {
	res := db.Model(&models.UserPaymentMethod{}).
		Where("id = ? AND user_id = ? AND market = ?", methodID, userID, string(s.mkt)).
		Updates(map[string]interface{}{"is_active": false, "is_default": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DisplayName renders the method the way the market's customers read it.
func (s *PaymentMethodStore) DisplayName(method *models.UserPaymentMethod) string {
	if s.mkt == market.KG {
		switch method.Kind {
		case "card":
			name := "Банковская карта"
			if method.CardType == "elcard" {
				name = "Элкарт"
			} else if method.CardType != "" {
				name = titleCase(method.CardType)
			}
			return fmt.Sprintf("%s **** %s", name, method.CardLast4)
		case "cash_on_delivery":
			return "Наличные при доставке"
		case "bank_transfer":
			if method.BankName != "" {
				return "Банковский перевод (" + method.BankName + ")"
			}
			return "Банковский перевод"
		}
		return method.Kind
	}

	switch method.Kind {
	case "card":
		name := "Bank Card"
		if method.CardType != "" {
			name = titleCase(method.CardType)
		}
		return fmt.Sprintf("%s **** %s", name, method.CardLast4)
	case "paypal":
		return "PayPal"
	case "apple_pay":
		return "Apple Pay"
	case "google_pay":
		return "Google Pay"
	}
	return method.Kind
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
