package services

import (
	"time"

	"github.com/shopspring/decimal"

	"aralis/internal/models"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher is satisfied by *rabbitmq.Client.
type EventPublisher interface {
	PublishJSON(exchange, routingKey string, payload interface{}) error
}

// OrderEvent is the body published on the order exchange.
type OrderEvent struct {
	Event          string             `json:"event"`
	OrderNumber    string             `json:"order_number"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	CustomerEmail  string             `json:"customer_email"`
	ItemCount      int                `json:"item_count"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// OrderNotifier sends order emails.
type OrderNotifier interface {
	OrderConfirmation(order *models.Order) error
	OrderAlert(order *models.Order) error
	OrderStatusChanged(order *models.Order) error
}

// AccountNotifier sends password emails.
type AccountNotifier interface {
	PasswordReset(user *models.User, token string) error
	PasswordChanged(user *models.User) error
}

// CustomizationNotifier sends customization lead emails.
type CustomizationNotifier interface {
	CustomizationAck(req *models.CustomizationRequest) error
	CustomizationAlert(req *models.CustomizationRequest) error
}
