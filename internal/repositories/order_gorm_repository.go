package repositories

import (
	"fmt"

	"aralis/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves orders newest first, optionally filtered by status.
func (r *GORMOrderRepository) GetAll(status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetByNumber retrieves a single order by its order number.
func (r *GORMOrderRepository) GetByNumber(number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "order_number = ?", number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order %s not found: %w", number, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", number, err)
	}
	return &order, nil
}

// GetByUser retrieves a user's orders newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// ExistsByNumber reports whether an order already carries number.
func (r *GORMOrderRepository) ExistsByNumber(number string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check order number %s: %w", number, err)
	}
	return count > 0, nil
}

// CountByNumberPrefix counts orders whose number starts with prefix.
func (r *GORMOrderRepository) CountByNumberPrefix(prefix string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders with prefix %s: %w", prefix, err)
	}
	return count, nil
}

// Create inserts a new order. The unique index on order_number rejects collisions.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order %s: %w", order.OrderNumber, translate(err))
	}
	return nil
}

// UpdateStatus sets the status of the order with the given number.
func (r *GORMOrderRepository) UpdateStatus(number string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("order_number = ?", number).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s not found for status update: %w", number, ErrNotFound)
	}
	return nil
}

// Stats aggregates order counts per status and revenue of non-cancelled orders.
func (r *GORMOrderRepository) Stats() (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: make(map[models.OrderStatus]int64)}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := r.db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	var revenue decimal.NullDecimal
	err := r.db.Model(&models.Order{}).
		Select("SUM(total)").
		Where("status <> ?", models.OrderStatusCancelled).
		Row().Scan(&revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.Revenue = revenue.Decimal
	return stats, nil
}
