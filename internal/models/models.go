package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers between services and clients.
	decimal.MarshalJSONWithoutQuotes = true
}

// User is a customer account owned by the user service.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	Address   *string   `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Merchant is a storefront account. OwnerID refers to a user but is never
// validated.
type Merchant struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	OwnerID     *int64    `db:"owner_id" json:"owner_id"`
	Description *string   `db:"description" json:"description"`
	Phone       *string   `db:"phone" json:"phone"`
	Email       *string   `db:"email" json:"email"`
	Address     *string   `db:"address" json:"address"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a sellable item. MerchantInfo is attached at read time and is
// nil when the merchant service could not be reached.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	MerchantID  int64           `db:"merchant_id" json:"merchant_id"`
	Description *string         `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Category    *string         `db:"category" json:"category"`
	ImageURL    *string         `db:"image_url" json:"image_url"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	MerchantInfo *Merchant `db:"-" json:"merchant_info"`
}

// Order is the header row of an order aggregate.
type Order struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Status     string          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is one line of an order. Price is the unit price captured when
// the order was placed.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// OrderAggregate is an order together with the items it owns.
type OrderAggregate struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// OrderView is the display form of an order: the stored header plus
// snapshots of the remote entities it references.
type OrderView struct {
	Order
	UserInfo *User           `json:"user_info"`
	Items    []OrderItemView `json:"items,omitempty"`
}

// OrderItemView is an order line with the current product snapshot.
type OrderItemView struct {
	OrderItem
	ProductInfo *Product `json:"product_info"`
}

// Order statuses. Any status may follow any other.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Merchant statuses
const (
	MerchantStatusActive    = "active"
	MerchantStatusInactive  = "inactive"
	MerchantStatusSuspended = "suspended"
)

// Product statuses
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// ValidOrderStatus reports whether s is one of the order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidMerchantStatus(s string) bool {
	switch s {
	case MerchantStatusActive, MerchantStatusInactive, MerchantStatusSuspended:
		return true
	}
	return false
}

func ValidProductStatus(s string) bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}
