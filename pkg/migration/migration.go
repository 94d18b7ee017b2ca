// Package migration provides the database migration runner.
//
// Migrations register themselves from init() in database/migrations and the
// CLI runs pending ones in order:
//
//	buykart db migrate
//	buykart db rollback
package migration

import (
	"fmt"
	"time"

	"github.com/abhi5hek001/Buykart/pkg/logger"
	"gorm.io/gorm"
)

// Migration is the interface every migration must implement.
type Migration interface {
	// Up applies the migration.
	Up(db *gorm.DB) error
	// Down reverses the migration.
	Down(db *gorm.DB) error
}

// migrationRecord is the GORM model stored in the tracking table.
type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "buykart_migrations" }

type registeredMigration struct {
	name string
	m    Migration
}

var registry []registeredMigration

// Register adds a migration to the global registry.
// name should be a timestamp-prefixed string, e.g.
// "20260101000000_create_products_table". Migrations run in registration
// order, so call Register from init() in chronological order.
func Register(name string, m Migration) {
	registry = append(registry, registeredMigration{name: name, m: m})
}

// Runner executes and tracks migrations.
type Runner struct {
	db *gorm.DB
}

// New creates a Runner backed by the provided gorm.DB.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

// Up runs every pending migration in one new batch.
func (r *Runner) Up() error {
	if err := r.EnsureTable(); err != nil {
		return err
	}

	pending, err := r.pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("migrate: nothing to run")
		return nil
	}

	batch, err := r.nextBatch()
	if err != nil {
		return err
	}

	for _, mig := range pending {
		logger.Info("migrate: running", "name", mig.name)
		if err := mig.m.Up(r.db); err != nil {
			return fmt.Errorf("migration %q: %w", mig.name, err)
		}
		rec := migrationRecord{Name: mig.name, Batch: batch}
		if err := r.db.Create(&rec).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", mig.name, err)
		}
	}
	return nil
}

// Rollback reverses the most recent batch.
func (r *Runner) Rollback() error {
	if err := r.EnsureTable(); err != nil {
		return err
	}

	var last []migrationRecord
	sub := r.db.Model(&migrationRecord{}).Select("MAX(batch)")
	if err := r.db.Where("batch = (?)", sub).Order("id DESC").Find(&last).Error; err != nil {
		return err
	}
	if len(last) == 0 {
		logger.Info("migrate: nothing to roll back")
		return nil
	}

	byName := make(map[string]Migration, len(registry))
	for _, mig := range registry {
		byName[mig.name] = mig.m
	}

	for _, rec := range last {
		m, ok := byName[rec.Name]
		if !ok {
			return fmt.Errorf("migration %q is recorded but not registered", rec.Name)
		}
		logger.Info("migrate: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return fmt.Errorf("rollback %q: %w", rec.Name, err)
		}
		if err := r.db.Delete(&migrationRecord{}, rec.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) pending() ([]registeredMigration, error) {
	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}

	ranSet := make(map[string]bool, len(ran))
	for _, rec := range ran {
		ranSet[rec.Name] = true
	}

	var out []registeredMigration
	for _, mig := range registry {
		if !ranSet[mig.name] {
			out = append(out, mig)
		}
	}
	return out, nil
}

func (r *Runner) nextBatch() (int, error) {
	var max *int
	if err := r.db.Model(&migrationRecord{}).Select("MAX(batch)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
