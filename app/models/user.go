package models

import (
	"time"

	"github.com/abhi5hek001/Buykart/pkg/identifier"
	"gorm.io/gorm"
)

// User is the storefront account that owns carts and orders. Registration
// and login live in the auth service; this backend only reads users.
type User struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // hashed, never serialised
	Role      string    `gorm:"size:50;default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = identifier.New(identifier.PrefixUser)
	}
	return nil
}
