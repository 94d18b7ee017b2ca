// Package seeders fills a fresh database with development data:
// two users, a small catalog, and a pre-filled cart for the regular user.
package seeders

import (
	"fmt"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/pkg/crypt"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"gorm.io/gorm"
)

// Run executes every seeder. Idempotent: an already-seeded database is
// left untouched.
func Run(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if count > 0 {
		logger.Info("seed: database already seeded, skipping")
		return nil
	}

	users, err := seedUsers(db)
	if err != nil {
		return err
	}
	products, err := seedCatalog(db)
	if err != nil {
		return err
	}
	if err := seedCart(db, users[1].ID, products); err != nil {
		return err
	}

	logger.Info("seed: done", "users", len(users), "products", len(products))
	return nil
}

func seedUsers(db *gorm.DB) ([]models.User, error) {
	hash, err := crypt.HashPassword("password")
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}

	users := []models.User{
		{Name: "Admin", Email: "admin@buykart.test", Password: hash, Role: "admin"},
		{Name: "Abhishek Kumar", Email: "abhishek@buykart.test", Password: hash, Role: "user"},
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seed: users: %w", err)
	}
	return users, nil
}

func seedCatalog(db *gorm.DB) ([]models.Product, error) {
	categories := []models.Category{
		{Name: "Electronics", Description: "Phones, laptops and accessories"},
		{Name: "Books", Description: "Fiction and non-fiction"},
		{Name: "Apparel", Description: "Clothing and footwear"},
	}
	if err := db.Create(&categories).Error; err != nil {
		return nil, fmt.Errorf("seed: categories: %w", err)
	}

	// Prices are in paise.
	products := []models.Product{
		{Name: "Wireless Earbuds", Price: 299900, Stock: 50, CategoryID: &categories[0].ID},
		{Name: "Mechanical Keyboard", Price: 549900, Stock: 25, CategoryID: &categories[0].ID},
		{Name: "USB-C Charger 65W", Price: 189900, Stock: 100, CategoryID: &categories[0].ID},
		{Name: "The Pragmatic Programmer", Price: 149900, Stock: 30, CategoryID: &categories[1].ID},
		{Name: "Designing Data-Intensive Applications", Price: 269900, Stock: 5, CategoryID: &categories[1].ID},
		{Name: "Cotton T-Shirt", Price: 79900, Stock: 200, CategoryID: &categories[2].ID},
		{Name: "Running Shoes", Price: 399900, Stock: 0, CategoryID: &categories[2].ID},
	}
	if err := db.Create(&products).Error; err != nil {
		return nil, fmt.Errorf("seed: products: %w", err)
	}
	return products, nil
}

func seedCart(db *gorm.DB, userID string, products []models.Product) error {
	cart := []models.CartItem{
		{UserID: userID, ProductID: products[0].ID, Quantity: 1},
		{UserID: userID, ProductID: products[3].ID, Quantity: 2},
	}
	if err := db.Create(&cart).Error; err != nil {
		return fmt.Errorf("seed: cart: %w", err)
	}
	return nil
}
