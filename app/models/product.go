package models

import (
	"time"

	"github.com/abhi5hek001/Buykart/pkg/identifier"
	"gorm.io/gorm"
)

// Category groups products for browsing. Deleting a category leaves its
// products in place with a dangling (null) category reference.
type Category struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = identifier.New(identifier.PrefixCategory)
	}
	return nil
}

// Product is the inventory record. Stock is the authoritative on-hand count:
// it is only decremented under a row lock inside the order transaction, and
// every committed state satisfies stock >= 0.
//
// Price is in minor currency units (paise), so line subtotals and order
// totals are exact integer arithmetic with no floating-point drift.
type Product struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int64     `gorm:"not null;default:0" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CategoryID  *string   `gorm:"size:32;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = identifier.New(identifier.PrefixProduct)
	}
	return nil
}
