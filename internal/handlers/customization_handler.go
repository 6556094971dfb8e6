package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aralis/internal/models"
	"aralis/internal/services"
)

// CustomizationHandler handles garment customization leads.
type CustomizationHandler struct {
	service  *services.CustomizationService
	validate *validator.Validate
}

// NewCustomizationHandler creates a new CustomizationHandler.
func NewCustomizationHandler(service *services.CustomizationService) *CustomizationHandler {
	return &CustomizationHandler{service: service, validate: NewValidator()}
}

// RegisterRoutes registers the public lead form.
func (h *CustomizationHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/customizations", h.HandleSubmit)
}

// RegisterAdminRoutes registers lead follow-up on an admin-only router.
func (h *CustomizationHandler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/customizations", h.HandleList)
	admin.Patch("/customizations/:id/status", h.HandleUpdateStatus)
}

// HandleSubmit stores a new lead.
func (h *CustomizationHandler) HandleSubmit(c *fiber.Ctx) error {
	var req services.CustomizationInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	request, err := h.service.Submit(req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Customization request received",
		"request": request,
	})
}

// HandleList lists leads, optionally by ?status=.
func (h *CustomizationHandler) HandleList(c *fiber.Ctx) error {
	list, err := h.service.List(models.CustomizationStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// HandleUpdateStatus records a lead's follow-up status.
func (h *CustomizationHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	request, err := h.service.UpdateStatus(c.Params("id"), models.CustomizationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(request)
}
