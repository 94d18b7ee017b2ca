package repositories

import (
	"context"
	"errors"

	"github.com/abhi5hek001/Buykart/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository reads the catalog and owns the two primitives the order
// transaction depends on: row locking and atomic stock decrement.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByID returns the product, or (nil, nil) when it does not exist.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// LockForUpdate loads the product with SELECT ... FOR UPDATE inside tx.
// The caller holds the row lock until tx commits or rolls back. Returns
// (nil, nil) when the row does not exist.
//
// SQLite has no row locks (writers lock the whole database) and rejects the
// FOR UPDATE syntax, so the clause is applied only on server databases.
func (r *ProductRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Product, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	err := q.First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock applies stock = stock - quantity as a single UPDATE
// expression inside tx. The caller must already hold the row lock and have
// verified stock >= quantity.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx *gorm.DB, id string, quantity int) error {
	return tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity)).Error
}

// AllStock returns id, name and stock for every product, ordered by id so
// poll snapshots compare stably.
func (r *ProductRepository) AllStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "name", "stock", "updated_at").
		Order("id").
		Find(&products).Error
	return products, err
}

// StockByIDs returns the subset of products matching ids. Unknown ids are
// simply absent from the result.
func (r *ProductRepository) StockByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "name", "stock", "updated_at").
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error
	return products, err
}
