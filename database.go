package main

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gamenight-backend/internal/config"
	"gamenight-backend/internal/store"
)

const defaultSQLiteDSN = "file:gamenight.db?_foreign_keys=on"

// InitDB connects to the configured database and migrates every table.
func InitDB(cfg config.Config, log *slog.Logger) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	switch cfg.DBDriver {
	case store.DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
	default:
		var err error
		if dsn, err = cfg.DSN(); err != nil {
			return nil, err
		}
	}

	db, err := store.Open(cfg.DBDriver, dsn, gormlogger.Warn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected and migrated", "driver", cfg.DBDriver)
	return db, nil
}
