package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/utils"
)

// partial unique indexes backing the one-session and one-open-order rules
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active ON sessions (table_number) WHERE status = 'ACTIVE'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_open ON orders (table_number) WHERE status <> 'PAID'`,
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Session{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	return ensureIndexes(db)
}

func ensureIndexes(db *gorm.DB) error {
	dialect := db.Dialector.Name()
	if dialect != "sqlite" && dialect != "postgres" {
		// MySQL has no partial indexes; the table lock and row locks carry the rules alone.
		utils.InfoLogger.Printf("Skipping partial unique indexes on %s", dialect)
		return nil
	}

	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	utils.InfoLogger.Println("Partial unique indexes verified.")
	return nil
}
