package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aralis/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOrderRepository is an in-memory implementation of OrderRepository keyed by order number.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns orders newest first, optionally filtered by status.
func (r *MockOrderRepository) GetAll(status models.OrderStatus) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		return status == "" || o.Status == status
	}), nil
}

// GetByUser returns a user's orders newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		return o.UserID == userID
	}), nil
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList
}

// GetByNumber returns an order by its number.
func (r *MockOrderRepository) GetByNumber(number string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[number]
	if !ok {
		return nil, fmt.Errorf("order %s not found: %w", number, ErrNotFound)
	}
	return &order, nil
}

// ExistsByNumber reports whether an order already carries number.
func (r *MockOrderRepository) ExistsByNumber(number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.orders[number]
	return ok, nil
}

// CountByNumberPrefix counts orders whose number starts with prefix.
func (r *MockOrderRepository) CountByNumberPrefix(prefix string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for number := range r.orders {
		if strings.HasPrefix(number, prefix) {
			count++
		}
	}
	return count, nil
}

// Create adds a new order, rejecting a number that is already taken.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.orders[order.OrderNumber]; taken {
		return fmt.Errorf("failed to create order %s: %w", order.OrderNumber, ErrDuplicate)
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.orders[order.OrderNumber] = *order
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(number string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[number]
	if !ok {
		return fmt.Errorf("order %s not found for status update: %w", number, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[number] = order
	return nil
}

// Stats aggregates order counts per status and revenue of non-cancelled orders.
func (r *MockOrderRepository) Stats() (*models.OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.OrderStats{
		ByStatus: make(map[models.OrderStatus]int64),
		Revenue:  decimal.Zero,
	}
	for _, order := range r.orders {
		stats.TotalOrders++
		stats.ByStatus[order.Status]++
		if order.Status != models.OrderStatusCancelled {
			stats.Revenue = stats.Revenue.Add(order.Total)
		}
	}
	return stats, nil
}
