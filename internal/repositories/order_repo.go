package repositories

import (
	"aralis/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	// GetAll returns orders newest first; an empty status matches every order.
	GetAll(status models.OrderStatus) ([]models.Order, error)
	GetByNumber(number string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	ExistsByNumber(number string) (bool, error)
	CountByNumberPrefix(prefix string) (int64, error)
	// Create wraps ErrDuplicate when the order number is already taken.
	Create(order *models.Order) error
	UpdateStatus(number string, status models.OrderStatus) error
	Stats() (*models.OrderStats, error)
}
