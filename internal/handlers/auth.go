package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	svc *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

// SendCode issues a verification code for the phone number. The X-Market
// header forces a market other than the one phone detection would pick.
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req sendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	result, err := h.svc.SendCode(c.Context(), req.Phone, c.Get("X-Market"))
	if err != nil {
		return mapError(err)
	}

	resp := fiber.Map{
		"success":            true,
		"message":            "verification code sent",
		"phone":              result.Phone,
		"market":             result.Market,
		"language":           result.Language,
		"expires_in_minutes": result.ExpiresInMinutes,
	}
	if result.FallbackCode != "" {
		resp["fallback_code"] = result.FallbackCode
	}

	return c.JSON(resp)
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyCode redeems a verification code and returns a session token.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone and code are required")
	}

	result, err := h.svc.VerifyCode(c.Context(), req.Phone, req.Code, c.Get("X-Market"))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"access_token": result.AccessToken,
		"market":       result.Market,
		"is_new_user":  result.IsNewUser,
		"user": fiber.Map{
			"id":           result.User.ID,
			"phone":        result.User.Phone,
			"display_name": result.User.DisplayName(),
			"is_verified":  result.User.IsVerified,
			"market":       result.User.Market,
			"language":     result.User.Language,
			"country":      result.User.Country,
		},
	})
}

// ListMarkets returns the supported markets and their locale rules.
func (h *AuthHandler) ListMarkets(c *fiber.Ctx) error {
	markets := make([]fiber.Map, 0, len(market.All()))
	for _, m := range market.All() {
		rules := market.MustRules(m)
		markets = append(markets, fiber.Map{
			"market":          m,
			"country":         rules.Country,
			"currency":        rules.Currency,
			"currency_code":   rules.CurrencyCode,
			"language":        rules.Language,
			"phone_prefix":    rules.PhonePrefix,
			"phone_format":    rules.PhoneFormat,
			"tax_rate":        rules.TaxRate,
			"payment_methods": rules.PaymentKinds,
		})
	}

	return c.JSON(fiber.Map{
		"supported_markets": markets,
		"default_market":    market.KG,
	})
}
