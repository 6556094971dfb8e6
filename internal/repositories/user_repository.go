package repositories

import "aralis/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create wraps ErrDuplicate when the email is already registered.
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	UpdateProfile(user *models.User) error
	UpdatePassword(id string, passwordHash string) error
	UpdateRole(id string, role string) error
}
