package models

import (
	"time"

	"github.com/abhi5hek001/Buykart/pkg/identifier"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the five recognised statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo enforces the state machine:
// pending → confirmed → shipped → delivered, with cancelled reachable from
// any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

// Order is created only inside the order placement transaction, together
// with its items. Everything except Status is immutable after commit.
//
// TotalAmount is in minor currency units and equals the sum of
// quantity × price_at_purchase over the items at creation time.
type Order struct {
	ID              string      `gorm:"primaryKey;size:32" json:"id"`
	UserID          string      `gorm:"size:32;not null;index" json:"user_id"`
	User            *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status          OrderStatus `gorm:"size:20;not null;default:pending" json:"status"`
	TotalAmount     int64       `gorm:"not null" json:"total_amount"`
	ShippingAddress string      `gorm:"type:text;not null" json:"shipping_address"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one (product, quantity) line of an order.
//
// PriceAtPurchase and ProductName are snapshots taken under the row lock at
// commit time; they are never recomputed from the live product, so later
// price changes or product deletion do not rewrite order history.
type OrderItem struct {
	ID              string    `gorm:"primaryKey;size:32" json:"id"`
	OrderID         string    `gorm:"size:32;not null;index" json:"order_id"`
	ProductID       *string   `gorm:"size:32;index" json:"product_id"`
	Product         *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ProductName     string    `gorm:"size:255;not null" json:"product_name"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	PriceAtPurchase int64     `gorm:"not null" json:"price_at_purchase"`
	CreatedAt       time.Time `json:"created_at"`
}

// Subtotal returns quantity × price-at-purchase in minor units.
func (i OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.PriceAtPurchase
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = identifier.New(identifier.PrefixOrder)
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = identifier.New(identifier.PrefixOrderItem)
	}
	return nil
}
