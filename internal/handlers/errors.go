package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/services"
	"github.com/example/marque/internal/store"
)

// mapError translates the core's expected error kinds into HTTP responses.
// Anything unrecognized stays an opaque operational failure.
func mapError(err error) error {
	switch {
	case errors.Is(err, market.ErrUnsupportedPhone):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidPhone),
		errors.Is(err, store.ErrPostalCodeRequired),
		errors.Is(err, store.ErrPaymentKindNotAllowed):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrCodeInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
