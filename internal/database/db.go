package database

import (
	"fmt"
	"log/slog"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
// DB_DRIVER=sqlite runs the service against a local file with no server.
func Open(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
		log.Info("using local sqlite database", slog.String("path", cfg.SQLitePath))
	default:
		dialector = postgres.Open(cfg.DatabaseDSN)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database ready", slog.String("driver", cfg.DBDriver))
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	// token_version was added after the first release; existing rows get 0
	if db.Migrator().HasTable(&models.User{}) && !db.Migrator().HasColumn(&models.User{}, "token_version") {
		if err := db.Migrator().AddColumn(&models.User{}, "TokenVersion"); err != nil {
			return fmt.Errorf("migrate users.token_version: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
