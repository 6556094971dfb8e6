package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusReady        OrderStatus = "ready"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusInProduction,
	OrderStatusReady,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderItem is a snapshot of a catalog product at checkout time.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order represents a customer order (pedido).
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;type:varchar(30);not null"`
	UserID          string          `json:"user_id,omitempty" gorm:"index;type:varchar(36)"`
	Items           []OrderItem     `json:"items" gorm:"serializer:json"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2)"`
	Status          OrderStatus     `json:"status" gorm:"index;type:varchar(20)"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(100)"`
	CustomerEmail   string          `json:"customer_email" gorm:"index;type:varchar(255)"`
	CustomerPhone   string          `json:"customer_phone" gorm:"type:varchar(30)"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:text"`
	Pickup          bool            `json:"pickup"`
	Notes           string          `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderStats summarises orders for the admin dashboard.
type OrderStats struct {
	TotalOrders int64                 `json:"total_orders"`
	ByStatus    map[OrderStatus]int64 `json:"by_status"`
	Revenue     decimal.Decimal       `json:"revenue"` // sum of non-cancelled totals
}
