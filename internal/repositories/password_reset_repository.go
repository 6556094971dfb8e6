package repositories

import (
	"time"

	"aralis/internal/models"
)

// PasswordResetRepository defines the interface for password reset token access.
type PasswordResetRepository interface {
	Create(token *models.PasswordResetToken) error
	// Replace deletes every token issued for token.Email and stores token as one unit.
	Replace(token *models.PasswordResetToken) error
	ListByEmail(email string) ([]models.PasswordResetToken, error)
	// FindUsable returns the token only if it is unused and not expired at now.
	FindUsable(token string, now time.Time) (*models.PasswordResetToken, error)
	FindByToken(token string) (*models.PasswordResetToken, error)
	// Consume stores the new password hash for userID and marks the token used as one unit.
	Consume(tokenID string, userID string, passwordHash string, usedAt time.Time) error
}
