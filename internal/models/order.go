package models

import (
	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a purchase placed by a user. Tax is computed from the market's
// locale rules at creation time and frozen onto the row.
type Order struct {
	BaseModel
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	Status      string      `json:"status"`
	Subtotal    float64     `json:"subtotal"`
	TaxRate     float64     `json:"tax_rate"`
	TaxAmount   float64     `json:"tax_amount"`
	Total       float64     `json:"total"`
	Currency    string      `json:"currency"`
	PaymentKind string      `json:"payment_kind"`
	AddressID   *uuid.UUID  `gorm:"type:uuid" json:"address_id,omitempty"`
	Market      string      `gorm:"index" json:"market"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product line within an order. Name and price are copied
// from the product so later catalog edits do not rewrite order history.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
}
