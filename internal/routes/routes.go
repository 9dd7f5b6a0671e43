package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/handlers"
	"github.com/example/marque/internal/middleware"
	"github.com/example/marque/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, dbm *database.Manager, cfg *config.Config, authSvc *services.AuthService) {
	authHandler := handlers.NewAuthHandler(authSvc)
	profileHandler := handlers.NewProfileHandler(dbm)
	catalogHandler := handlers.NewCatalogHandler(dbm)
	orderHandler := handlers.NewOrderHandler(dbm)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/send-code", authHandler.SendCode)
	auth.Post("/verify-code", authHandler.VerifyCode)
	auth.Get("/markets", authHandler.ListMarkets)

	// Catalog routes (market from X-Market header, defaults to KG)
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/", catalogHandler.CreateCategory)

	products := api.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Post("/", catalogHandler.CreateProduct)
	products.Get("/:slug", catalogHandler.GetProduct)

	// Protected routes (market from the session token)
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id/default", profileHandler.SetDefaultAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)
	protected.Get("/profile/payment-methods", profileHandler.ListPaymentMethods)
	protected.Post("/profile/payment-methods", profileHandler.CreatePaymentMethod)
	protected.Put("/profile/payment-methods/:id/default", profileHandler.SetDefaultPaymentMethod)
	protected.Delete("/profile/payment-methods/:id", profileHandler.DeletePaymentMethod)
}
