package repositories

import (
	"context"

	"github.com/abhi5hek001/Buykart/app/models"
	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ItemsByUser returns the user's cart with products preloaded.
func (r *CartRepository) ItemsByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Find(&items).Error
	return items, err
}

// ClearByUser deletes every cart row belonging to the user. Runs outside
// the order transaction; a failure here never affects the committed order.
func (r *CartRepository) ClearByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
