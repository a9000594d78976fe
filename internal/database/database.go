package database

import (
	"fmt"

	"github.com/scene-ouverte/newsletter-core/internal/config"
	"github.com/scene-ouverte/newsletter-core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.Database.DSNValue(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// migrate runs GORM auto-migration. The unique indexes on subscribers.email
// and subscribers.unsubscribe_token are the authoritative dedup guards; the
// import pre-check is only an optimization on top of them.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SubscriberModel{},
	)
}
