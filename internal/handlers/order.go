package handlers

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/middleware"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/store"
)

// OrderHandler creates and lists orders inside the caller's market. Tax and
// currency come from the market's locale rules at creation time.
type OrderHandler struct {
	dbm *database.Manager
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(dbm *database.Manager) *OrderHandler {
	return &OrderHandler{dbm: dbm}
}

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type createOrderRequest struct {
	Items       []orderItemRequest `json:"items"`
	AddressID   *uuid.UUID         `json:"address_id"`
	PaymentKind string             `json:"payment_kind"`
}

// CreateOrder places an order from catalog products, applying the market's
// tax rate and validating the payment kind against the market's allowed set.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	rules := market.MustRules(mkt)
	if !rules.AllowsPaymentKind(req.PaymentKind) {
		return mapError(store.ErrPaymentKindNotAllowed)
	}

	db := h.dbm.Session(mkt)

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, item := range req.Items {
			if item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "item quantity must be positive")
			}

			var product models.Product
			err := tx.Where("id = ? AND is_active = ? AND market = ?",
				item.ProductID, true, string(mkt)).First(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "unknown product: "+item.ProductID.String())
			}
			if err != nil {
				return err
			}

			subtotal += product.Price * float64(item.Quantity)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
			})
		}

		taxAmount := round2(subtotal * rules.TaxRate)
		order = models.Order{
			UserID:      userID,
			Status:      models.OrderStatusPending,
			Subtotal:    round2(subtotal),
			TaxRate:     rules.TaxRate,
			TaxAmount:   taxAmount,
			Total:       round2(subtotal + taxAmount),
			Currency:    rules.CurrencyCode,
			PaymentKind: req.PaymentKind,
			AddressID:   req.AddressID,
			Market:      string(mkt),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    h.orderResponse(&order, mkt),
	})
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var orders []models.Order
	if err := h.dbm.Session(mkt).
		Where("user_id = ? AND market = ?", userID, string(mkt)).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		data = append(data, h.orderResponse(&orders[i], mkt))
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

// GetOrder returns one of the caller's orders with its items.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, mkt, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	db := h.dbm.Session(mkt)

	var order models.Order
	err = db.Where("id = ? AND user_id = ? AND market = ?", orderID, userID, string(mkt)).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	if err != nil {
		return err
	}

	if err := db.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": h.orderResponse(&order, mkt)})
}

func (h *OrderHandler) orderResponse(order *models.Order, mkt market.Market) fiber.Map {
	return fiber.Map{
		"id":              order.ID,
		"status":          order.Status,
		"subtotal":        order.Subtotal,
		"tax_rate":        order.TaxRate,
		"tax_amount":      order.TaxAmount,
		"total":           order.Total,
		"formatted_total": market.FormatPrice(order.Total, mkt),
		"currency":        order.Currency,
		"payment_kind":    order.PaymentKind,
		"address_id":      order.AddressID,
		"market":          order.Market,
		"items":           order.Items,
		"created_at":      order.CreatedAt,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
