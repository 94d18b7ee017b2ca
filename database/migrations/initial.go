// Package migrations holds the schema migrations. Each migration registers
// itself from init(); the CLI runs them through pkg/migration.
package migrations

import (
	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260115000000_create_initial_schema", initialSchema{})
}

// initialSchema creates every table of the storefront backend.
type initialSchema struct{}

func (initialSchema) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.CartItem{},
	)
}

func (initialSchema) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&models.CartItem{},
		&models.OrderItem{},
		&models.Order{},
		&models.Product{},
		&models.Category{},
		&models.User{},
	)
}
