package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aralis/internal/services"
)

// CartHandler prices client-held carts.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service, validate: NewValidator()}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/cart/quote", h.HandleQuote)
}

// QuoteRequest represents the request body for a cart quote.
type QuoteRequest struct {
	Items []services.CartItem `json:"items" validate:"required,min=1,dive"`
}

// HandleQuote returns priced lines and the cart total.
func (h *CartHandler) HandleQuote(c *fiber.Ctx) error {
	var req QuoteRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	quote, err := h.service.Quote(req.Items)
	if err != nil {
		return err
	}
	return c.JSON(quote)
}
