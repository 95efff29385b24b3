package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity kinds carried by events
const (
	EntityUser     = "user"
	EntityMerchant = "merchant"
	EntityProduct  = "product"
	EntityOrder    = "order"
)

// Event types
const (
	EventTypeUserCreated          = "USER_CREATED"
	EventTypeUserUpdated          = "USER_UPDATED"
	EventTypeUserDeleted          = "USER_DELETED"
	EventTypeMerchantCreated      = "MERCHANT_CREATED"
	EventTypeMerchantUpdated      = "MERCHANT_UPDATED"
	EventTypeMerchantDeleted      = "MERCHANT_DELETED"
	EventTypeProductCreated       = "PRODUCT_CREATED"
	EventTypeProductUpdated       = "PRODUCT_UPDATED"
	EventTypeProductDeleted       = "PRODUCT_DELETED"
	EventTypeProductStockAdjusted = "PRODUCT_STOCK_ADJUSTED"
	EventTypeOrderCreated         = "ORDER_CREATED"
	EventTypeOrderStatusChanged   = "ORDER_STATUS_CHANGED"
	EventTypeOrderDeleted         = "ORDER_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// EntityEvent is published after a single-entity write.
type EntityEvent struct {
	BaseEvent
	Entity   string `json:"entity"`
	EntityID int64  `json:"entity_id"`
	// Status is set for status-bearing entities.
	Status string `json:"status,omitempty"`
	// Delta is set for stock adjustments.
	Delta int `json:"delta,omitempty"`
}

// OrderCreatedEvent published when an order aggregate is committed
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []OrderItemData `json:"items"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
