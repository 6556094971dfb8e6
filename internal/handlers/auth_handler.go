package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aralis/internal/services"
)

// AuthHandler handles HTTP requests for authentication and password recovery.
type AuthHandler struct {
	authService  *services.AuthService
	resetService *services.PasswordResetService
	validate     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, resetService *services.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		validate:     NewValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Get("/reset-password/validate", h.HandleValidateResetToken)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Register(req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// ForgotPasswordRequest represents the request body for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword emails a reset link. The reply is the same whether or not the email has an account.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.resetService.Issue(req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "If an account exists for that email, a reset link is on its way",
	})
}

// HandleValidateResetToken lets the reset page check a link before showing the form.
func (h *AuthHandler) HandleValidateResetToken(c *fiber.Ctx) error {
	record, err := h.resetService.Validate(c.Query("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Token is valid",
		"valid":      true,
		"expires_at": record.ExpiresAt,
	})
}

// ResetPasswordRequest represents the request body for consuming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleResetPassword sets a new password using a reset token.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.resetService.Reset(req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}
