package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aralis/internal/metrics"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
	"aralis/pkg/rabbitmq"
)

// CheckoutInput is the checkout form plus the cart being bought.
type CheckoutInput struct {
	Items           []CartItem `json:"items" validate:"required,min=1,dive"`
	CustomerName    string     `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail   string     `json:"customer_email" validate:"required,email"`
	CustomerPhone   string     `json:"customer_phone" validate:"required,max=30"`
	DeliveryAddress string     `json:"delivery_address" validate:"required_unless=Pickup true,max=500"`
	Pickup          bool       `json:"pickup"`
	Notes           string     `json:"notes" validate:"max=1000"`
}

// OrderService handles checkout, tracking and admin order management.
type OrderService struct {
	orderRepo     repositories.OrderRepository
	cart          *CartService
	allocator     *OrderNumberAllocator
	publisher     EventPublisher
	notifier      OrderNotifier
	insertRetries int
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil when messaging is disabled.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cart *CartService,
	allocator *OrderNumberAllocator,
	publisher EventPublisher,
	notifier OrderNotifier,
	insertRetries int,
	met *metrics.Metrics,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		cart:          cart,
		allocator:     allocator,
		publisher:     publisher,
		notifier:      notifier,
		insertRetries: insertRetries,
		metrics:       met,
		logger:        logger,
	}
}

// Checkout prices the cart, allocates an order number and stores the order.
// userID is empty for guest checkouts. Events and emails are best effort.
func (s *OrderService) Checkout(userID string, in CheckoutInput) (*models.Order, error) {
	if !in.Pickup && strings.TrimSpace(in.DeliveryAddress) == "" {
		return nil, errorbank.BadRequest("delivery address is required unless the order is picked up",
			errorbank.WithDetail("field", "delivery_address"))
	}

	quote, err := s.cart.Quote(in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         quote.Items,
		Total:         quote.Total,
		Status:        models.OrderStatusPending,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Pickup:        in.Pickup,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if !in.Pickup {
		order.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	}

	if err := s.insert(order); err != nil {
		return nil, err
	}
	s.metrics.OrdersCreated.Inc()
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Bool("guest", userID == ""))

	s.publish(EventOrderCreated, order, "")
	if err := s.notifier.OrderConfirmation(order); err != nil {
		s.logger.Warn("order confirmation not sent", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
	if err := s.notifier.OrderAlert(order); err != nil {
		s.logger.Warn("shop order alert not sent", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
	return order, nil
}

// insert allocates a number and stores order, allocating again when a concurrent
// checkout took the same number first.
func (s *OrderService) insert(order *models.Order) error {
	for attempt := 1; attempt <= s.insertRetries; attempt++ {
		number, err := s.allocator.Allocate()
		if err != nil {
			if errors.Is(err, ErrOrderNumberExhausted) {
				s.logger.Error("order number space exhausted", zap.Error(err))
				return errorbank.Internal("could not assign an order number, please try again", errorbank.WithCause(err))
			}
			return errorbank.Internal("failed to create order", errorbank.WithCause(err))
		}

		order.OrderNumber = number
		err = s.orderRepo.Create(order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return errorbank.Internal("failed to create order", errorbank.WithCause(err))
		}
		s.metrics.OrderNumberCollisions.Inc()
		s.logger.Warn("order number taken at insert, allocating again",
			zap.String("order_number", number), zap.Int("attempt", attempt))
	}
	return errorbank.Internal("could not assign an order number, please try again",
		errorbank.WithCause(fmt.Errorf("insert retries exhausted: %w", ErrOrderNumberExhausted)))
}

// Track returns an order for public tracking. The email must match the order's,
// ignoring case; a mismatch looks exactly like an unknown number.
func (s *OrderService) Track(number, email string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(normalizeOrderNumber(number))
	if err != nil {
		return nil, storeError(err, "order not found", "")
	}
	if !strings.EqualFold(order.CustomerEmail, strings.TrimSpace(email)) {
		return nil, errorbank.NotFound("order not found")
	}
	return order, nil
}

// ListForUser returns the orders placed by userID, newest first.
func (s *OrderService) ListForUser(userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return nonNilOrders(orders), nil
}

// List returns every order with status, or all orders when status is empty.
func (s *OrderService) List(status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", status))
	}
	orders, err := s.orderRepo.GetAll(status)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return nonNilOrders(orders), nil
}

// Get returns an order by number.
func (s *OrderService) Get(number string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(normalizeOrderNumber(number))
	if err != nil {
		return nil, storeError(err, "order not found", "")
	}
	return order, nil
}

// UpdateStatus moves an order to status. Any known status may be set except
// that delivered and cancelled orders are final.
func (s *OrderService) UpdateStatus(number string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", status))
	}
	number = normalizeOrderNumber(number)
	order, err := s.Get(number)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if order.Status.Terminal() {
		return nil, errorbank.Conflict(fmt.Sprintf("order %s is already %s", number, order.Status))
	}

	previous := order.Status
	if err := s.orderRepo.UpdateStatus(number, status); err != nil {
		return nil, storeError(err, "order not found", "")
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	s.logger.Info("order status changed",
		zap.String("order_number", number),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	s.publish(EventOrderStatusChanged, order, previous)
	if err := s.notifier.OrderStatusChanged(order); err != nil {
		s.logger.Warn("status change email not sent", zap.String("order_number", number), zap.Error(err))
	}
	return order, nil
}

// Stats summarises orders for the admin dashboard.
func (s *OrderService) Stats() (*models.OrderStats, error) {
	stats, err := s.orderRepo.Stats()
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return stats, nil
}

func (s *OrderService) publish(event string, order *models.Order, previous models.OrderStatus) {
	if s.publisher == nil {
		s.logger.Debug("messaging disabled, event not published", zap.String("event", event))
		return
	}
	payload := OrderEvent{
		Event:          event,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		CustomerEmail:  order.CustomerEmail,
		ItemCount:      len(order.Items),
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(rabbitmq.OrderExchange, event, payload); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("event", event),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
}

func nonNilOrders(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}

// normalizeOrderNumber accepts numbers as customers type them, e.g. " arl-20260042".
func normalizeOrderNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
