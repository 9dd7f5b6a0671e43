package models

import (
	"github.com/google/uuid"
)

// UserAddress is a delivery address owned by one user in one market. KG
// addresses use region/district, US addresses use state/ZIP; both shapes share
// this column set and the store renders each per its market.
type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AddressType string    `json:"address_type"`
	Title       string    `json:"title"`
	AddressLine string    `json:"address_line"`
	Apartment   string    `json:"apartment,omitempty"`
	City        string    `json:"city"`
	Region      string    `json:"region,omitempty"`
	District    string    `json:"district,omitempty"`
	State       string    `json:"state,omitempty"`
	PostalCode  string    `json:"postal_code,omitempty"`
	Country     string    `json:"country"`
	IsDefault   bool      `json:"is_default"`
	IsActive    bool      `json:"is_active"`
	Market      string    `gorm:"index" json:"market"`
}

// UserPaymentMethod is a stored way to pay, owned by one user in one market.
// Card numbers are kept masked; only the last four digits are stored.
type UserPaymentMethod struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Kind        string    `json:"kind"`
	CardType    string    `json:"card_type,omitempty"`
	CardLast4   string    `json:"card_last4,omitempty"`
	CardHolder  string    `json:"card_holder,omitempty"`
	ExpiryMonth string    `json:"expiry_month,omitempty"`
	ExpiryYear  string    `json:"expiry_year,omitempty"`
	BankName    string    `json:"bank_name,omitempty"`
	IsDefault   bool      `json:"is_default"`
	IsActive    bool      `json:"is_active"`
	Market      string    `gorm:"index" json:"market"`
}
