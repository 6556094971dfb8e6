package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aralis/internal/middleware"
	"aralis/internal/models"
	"aralis/internal/services"
	"aralis/pkg/errorbank"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service, validate: NewValidator()}
}

// RegisterRoutes registers checkout and customer order routes.
// optionalAuth links checkouts to a signed-in user; auth guards /orders/mine.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth, optionalAuth fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", optionalAuth, h.HandleCreateOrder)
	orderRoutes.Get("/mine", auth, h.HandleGetMyOrders)
	orderRoutes.Get("/track/:number", h.HandleTrackOrder)
}

// RegisterAdminRoutes registers order management on an admin-only router.
func (h *OrderHandler) RegisterAdminRoutes(admin fiber.Router) {
	orderRoutes := admin.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:number", h.HandleGetOrder)
	orderRoutes.Patch("/:number/status", h.HandleUpdateOrderStatus)
	admin.Get("/stats", h.HandleGetStats)
}

// HandleCreateOrder runs checkout.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CheckoutInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.Checkout(middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleTrackOrder returns an order when ?email= matches the one used at checkout.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return errorbank.BadRequest("email query parameter is required")
	}
	order, err := h.service.Track(c.Params("number"), email)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleGetMyOrders lists the caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListForUser(middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleGetOrders lists orders, optionally by ?status=.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(models.OrderStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one order by number.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.Get(c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.UpdateStatus(c.Params("number"), models.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// HandleGetStats returns dashboard totals.
func (h *OrderHandler) HandleGetStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
