package handlers

import (
	"github.com/gofiber/fiber/v2"

	"aralis/internal/middleware"
	"aralis/internal/services"
)

// Services groups everything the API routes call into.
type Services struct {
	Auth          *services.AuthService
	PasswordReset *services.PasswordResetService
	Account       *services.AccountService
	Products      *services.ProductService
	Cart          *services.CartService
	Orders        *services.OrderService
	Customization *services.CustomizationService
}

// RegisterRoutes mounts the public, customer and admin routes on api.
func RegisterRoutes(api fiber.Router, svc Services) {
	auth := middleware.AuthRequired(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)

	productHandler := NewProductHandler(svc.Products)
	orderHandler := NewOrderHandler(svc.Orders)
	customizationHandler := NewCustomizationHandler(svc.Customization)

	NewAuthHandler(svc.Auth, svc.PasswordReset).RegisterRoutes(api)
	NewAccountHandler(svc.Account).RegisterRoutes(api, auth)
	productHandler.RegisterRoutes(api)
	NewCartHandler(svc.Cart).RegisterRoutes(api)
	orderHandler.RegisterRoutes(api, auth, optionalAuth)
	customizationHandler.RegisterRoutes(api)

	admin := api.Group("/admin", auth, middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	customizationHandler.RegisterAdminRoutes(admin)
}
