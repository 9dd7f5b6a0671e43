package store

import "errors"

var (
	// ErrInvalidPhone means the phone passed market detection but failed
	// the market's stricter pattern.
	ErrInvalidPhone = errors.New("phone number does not match market format")

	// ErrCodeInvalid covers every redemption failure. Wrong, expired and
	// already-used codes are deliberately indistinguishable to the caller.
	ErrCodeInvalid = errors.New("invalid or expired verification code")

	// ErrNotFound means the addressed row does not exist in this market.
	ErrNotFound = errors.New("record not found")

	// ErrPaymentKindNotAllowed means the market does not accept the kind.
	ErrPaymentKindNotAllowed = errors.New("payment kind not allowed in this market")

	// ErrPostalCodeRequired means the market mandates a postal code.
	ErrPostalCodeRequired = errors.New("postal code is required in this market")
)
