package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a customer within exactly one market. The row lives in the
// market's own database; the market tag is denormalized onto the row so a
// misrouted query can never match.
type User struct {
	BaseModel
	Phone           string     `gorm:"uniqueIndex" json:"phone"`
	FullName        string     `json:"full_name"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsVerified      bool       `json:"is_verified"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	Market          string     `gorm:"index" json:"market"`
	Language        string     `json:"language"`
	Country         string     `json:"country"`
}

// DisplayName returns the user's name, falling back to the phone number.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return "User " + u.Phone
}

// PhoneVerification is one issued one-time SMS code. Expiry is computed from
// ExpiresAt at read time; it is never written back as a stored state.
type PhoneVerification struct {
	BaseModel
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Phone      string     `gorm:"index" json:"phone"`
	Code       string     `json:"-"`
	IsUsed     bool       `json:"is_used"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Market     string     `gorm:"index" json:"market"`
}

// IsExpired reports whether the code has passed its expiry timestamp.
func (v *PhoneVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// IsValid reports whether the code is still redeemable.
func (v *PhoneVerification) IsValid() bool {
	return !v.IsUsed && !v.IsExpired()
}

// Admin is a back-office account seeded through the setup CLI rather than the
// phone verification flow.
type Admin struct {
	BaseModel
	Username     string `gorm:"uniqueIndex" json:"username"`
	PasswordHash string `json:"-"`
	Market       string `gorm:"index" json:"market"`
	IsActive     bool   `json:"is_active"`
}
