package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/utils"
)

// CatalogHandler serves the per-market product catalog. Unauthenticated
// requests pick their market with the X-Market header and default to KG.
type CatalogHandler struct {
	dbm *database.Manager
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(dbm *database.Manager) *CatalogHandler {
	return &CatalogHandler{dbm: dbm}
}

func requestMarket(c *fiber.Ctx) (market.Market, error) {
	header := c.Get("X-Market")
	if header == "" {
		return market.KG, nil
	}
	mkt, err := market.Parse(header)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return mkt, nil
}

// ListCategories returns active categories for the market.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	mkt, err := requestMarket(c)
	if err != nil {
		return err
	}

	var categories []models.Category
	if err := h.dbm.Session(mkt).
		Where("is_active = ? AND market = ?", true, string(mkt)).
		Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "market": mkt, "data": categories})
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateCategory adds a category to the market's catalog.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	mkt, err := requestMarket(c)
	if err != nil {
		return err
	}

	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}

	category := models.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		IsActive: true,
		Market:   string(mkt),
	}
	if err := h.dbm.Session(mkt).Create(&category).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

func (h *CatalogHandler) productResponse(product *models.Product, mkt market.Market) fiber.Map {
	rules := market.MustRules(mkt)
	return fiber.Map{
		"id":              product.ID,
		"category_id":     product.CategoryID,
		"name":            product.Name,
		"slug":            product.Slug,
		"description":     product.Description,
		"price":           product.Price,
		"formatted_price": market.FormatPrice(product.Price, mkt),
		"currency_code":   rules.CurrencyCode,
		"in_stock":        product.InStock,
		"market":          product.Market,
	}
}

// ListProducts returns active products for the market with locale-formatted
// prices.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	mkt, err := requestMarket(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	query := h.dbm.Session(mkt).Model(&models.Product{}).
		Where("is_active = ? AND market = ?", true, string(mkt))

	if slug := c.Query("category"); slug != "" {
		var category models.Category
		if err := h.dbm.Session(mkt).
			Where("slug = ? AND market = ?", slug, string(mkt)).
			First(&category).Error; err == nil {
			query = query.Where("category_id = ?", category.ID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(products))
	for i := range products {
		data = append(data, h.productResponse(&products[i], mkt))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"market":  mkt,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct returns one product by slug.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	mkt, err := requestMarket(c)
	if err != nil {
		return err
	}

	var product models.Product
	err = h.dbm.Session(mkt).
		Where("slug = ? AND is_active = ? AND market = ?", c.Params("slug"), true, string(mkt)).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": h.productResponse(&product, mkt)})
}

type createProductRequest struct {
	CategorySlug string  `json:"category_slug"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	InStock      bool    `json:"in_stock"`
}

// CreateProduct adds a product to the market's catalog.
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	mkt, err := requestMarket(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" || req.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "name, slug and a positive price are required")
	}

	product := models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		InStock:     req.InStock,
		IsActive:    true,
		Market:      string(mkt),
	}

	if req.CategorySlug != "" {
		var category models.Category
		if err := h.dbm.Session(mkt).
			Where("slug = ? AND market = ?", req.CategorySlug, string(mkt)).
			First(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unknown category")
		}
		product.CategoryID = &category.ID
	}

	if err := h.dbm.Session(mkt).Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": h.productResponse(&product, mkt)})
}
