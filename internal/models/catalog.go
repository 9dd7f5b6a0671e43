package models

import (
	"github.com/google/uuid"
)

// Category groups products within a market's catalog.
type Category struct {
	BaseModel
	Name     string `json:"name"`
	Slug     string `gorm:"uniqueIndex" json:"slug"`
	IsActive bool   `json:"is_active"`
	Market   string `gorm:"index" json:"market"`
}

// Product is a sellable item priced in the market's currency. Prices are
// stored as plain amounts; currency and formatting come from the market's
// locale rules at render time.
type Product struct {
	BaseModel
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Slug        string     `gorm:"uniqueIndex" json:"slug"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	InStock     bool       `json:"in_stock"`
	IsActive    bool       `json:"is_active"`
	Market      string     `gorm:"index" json:"market"`
}
