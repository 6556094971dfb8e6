package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aralis/internal/middleware"
	"aralis/internal/services"
)

// AccountHandler serves the signed-in user's own account.
type AccountHandler struct {
	service  *services.AccountService
	validate *validator.Validate
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service, validate: NewValidator()}
}

// RegisterRoutes registers the account routes behind auth.
func (h *AccountHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	accountRoutes := router.Group("/account", auth)
	accountRoutes.Get("/", h.HandleGetProfile)
	accountRoutes.Put("/", h.HandleUpdateProfile)
	accountRoutes.Put("/password", h.HandleChangePassword)
}

// HandleGetProfile returns the caller's profile.
func (h *AccountHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.service.Profile(middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleUpdateProfile edits name, email and phone.
func (h *AccountHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strongpassword"`
}

// HandleChangePassword replaces the password after checking the current one.
func (h *AccountHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.service.ChangePassword(middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}
