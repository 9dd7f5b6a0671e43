package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/middleware"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/store"
)

// ProfileHandler manages user profile, address and payment-method endpoints.
// The market in the session token decides which database every call touches.
type ProfileHandler struct {
	dbm *database.Manager
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(dbm *database.Manager) *ProfileHandler {
	return &ProfileHandler{dbm: dbm}
}

// GetProfile returns the authenticated user's profile with locale fields.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := store.Users(mkt).FindByID(h.dbm.Session(mkt), userID)
	if err != nil {
		return mapError(err)
	}

	rules := market.MustRules(mkt)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":              user.ID,
			"phone":           user.Phone,
			"formatted_phone": market.FormatPhone(user.Phone, mkt),
			"full_name":       user.FullName,
			"display_name":    user.DisplayName(),
			"is_verified":     user.IsVerified,
			"is_active":       user.IsActive,
			"market":          user.Market,
			"language":        user.Language,
			"country":         user.Country,
			"currency":        rules.Currency,
			"currency_code":   rules.CurrencyCode,
			"last_login":      user.LastLogin,
			"created_at":      user.CreatedAt,
		},
	})
}

type updateProfileRequest struct {
	FullName        *string `json:"full_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.ProfileImageURL != nil {
		updates["profile_image_url"] = *req.ProfileImageURL
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := store.Users(mkt).Update(h.dbm.Session(mkt), userID, updates); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// Address endpoints

// ListAddresses returns user addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrStore := store.Addresses(mkt)
	addresses, err := addrStore.ListForUser(h.dbm.Session(mkt), userID)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(addresses))
	for i := range addresses {
		data = append(data, fiber.Map{
			"id":              addresses[i].ID,
			"title":           addresses[i].Title,
			"display_address": addrStore.DisplayAddress(&addresses[i]),
			"is_default":      addresses[i].IsDefault,
			"address":         addresses[i],
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

type createAddressRequest struct {
	AddressType string `json:"address_type"`
	Title       string `json:"title"`
	AddressLine string `json:"address_line"`
	Apartment   string `json:"apartment"`
	City        string `json:"city"`
	Region      string `json:"region"`
	District    string `json:"district"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
}

// CreateAddress creates an address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	address, err := store.Addresses(mkt).Create(h.dbm.Session(mkt), userID, models.UserAddress{
		AddressType: req.AddressType,
		Title:       req.Title,
		AddressLine: req.AddressLine,
		Apartment:   req.Apartment,
		City:        req.City,
		Region:      req.Region,
		District:    req.District,
		State:       req.State,
		PostalCode:  req.PostalCode,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":    address.ID,
		"title": address.Title,
	}})
}

// SetDefaultAddress marks an address as the user's default.
func (h *ProfileHandler) SetDefaultAddress(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := store.Addresses(mkt).SetDefault(h.dbm.Session(mkt), userID, addrID); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "default address updated"})
}

// DeleteAddress deactivates a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := store.Addresses(mkt).Deactivate(h.dbm.Session(mkt), userID, addrID); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}

// Payment method endpoints

// ListPaymentMethods returns user payment methods, default first.
func (h *ProfileHandler) ListPaymentMethods(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pmStore := store.PaymentMethods(mkt)
	methods, err := pmStore.ListForUser(h.dbm.Session(mkt), userID)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(methods))
	for i := range methods {
		data = append(data, fiber.Map{
			"id":           methods[i].ID,
			"kind":         methods[i].Kind,
			"display_name": pmStore.DisplayName(&methods[i]),
			"is_default":   methods[i].IsDefault,
			"method":       methods[i],
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

type createPaymentMethodRequest struct {
	Kind        string `json:"kind"`
	CardNumber  string `json:"card_number"`
	CardHolder  string `json:"card_holder"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	BankName    string `json:"bank_name"`
}

// CreatePaymentMethod stores a payment method for the user.
func (h *ProfileHandler) CreatePaymentMethod(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Kind == "" {
		return fiber.NewError(fiber.StatusBadRequest, "kind is required")
	}

	pmStore := store.PaymentMethods(mkt)
	db := h.dbm.Session(mkt)

	var method *models.UserPaymentMethod
	var err error
	if req.Kind == "card" {
		if req.CardNumber == "" {
			return fiber.NewError(fiber.StatusBadRequest, "card_number is required")
		}
		method, err = pmStore.CreateCard(db, userID, req.CardNumber, req.CardHolder,
			req.ExpiryMonth, req.ExpiryYear, req.BankName)
	} else {
		method, err = pmStore.Create(db, userID, models.UserPaymentMethod{
			Kind:     req.Kind,
			BankName: req.BankName,
		})
	}
	if err != nil {
		return mapError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":           method.ID,
		"kind":         method.Kind,
		"display_name": pmStore.DisplayName(method),
	}})
}

// SetDefaultPaymentMethod marks a payment method as the user's default.
func (h *ProfileHandler) SetDefaultPaymentMethod(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	methodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := store.PaymentMethods(mkt).SetDefault(h.dbm.Session(mkt), userID, methodID); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "default payment method updated"})
}

// DeletePaymentMethod deactivates a payment method.
func (h *ProfileHandler) DeletePaymentMethod(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	methodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := store.PaymentMethods(mkt).Deactivate(h.dbm.Session(mkt), userID, methodID); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "payment method deleted"})
}
