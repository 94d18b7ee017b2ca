package models

import (
	"time"

	"github.com/abhi5hek001/Buykart/pkg/identifier"
	"gorm.io/gorm"
)

// CartItem is one pending purchase intent. The whole cart is cleared when
// the user's order commits; the cart service owns every other mutation.
type CartItem struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	UserID    string    `gorm:"size:32;not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID string    `gorm:"size:32;not null;index:idx_cart_user_product,unique" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = identifier.New(identifier.PrefixCart)
	}
	return nil
}
