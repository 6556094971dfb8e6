package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"aralis/internal/models"
	"aralis/internal/services"
	"aralis/pkg/errorbank"
)

// Locals keys set for authenticated requests.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// TokenValidator is satisfied by *services.AuthService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errorbank.Unauthorized("Authorization header is required")
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", errorbank.Unauthorized("Authorization header format must be 'Bearer <token>'")
	}
	return parts[1], nil
}

func storeClaims(c *fiber.Ctx, claims *services.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalEmail, claims.Email)
	c.Locals(LocalRole, claims.Role)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return err
		}
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			return err
		}
		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and otherwise
// lets the request through as a guest.
func OptionalAuth(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, err := bearerToken(c); err == nil {
			if claims, err := auth.ValidateToken(tokenString); err == nil {
				storeClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// AdminRequired rejects callers whose token does not carry the admin role.
// It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(LocalRole).(string); role != models.RoleAdmin {
			return errorbank.Forbidden("Admin access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" for guests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
