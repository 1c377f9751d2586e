package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vedicvivaha/backend/internal/config"
	"github.com/vedicvivaha/backend/internal/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Translate driver errors so duplicate-key checks work across
		// mysql and sqlite.
		TranslateError: true,
	}
}

// NewDB connects to the primary MySQL database. If the primary is unreachable
// it falls back to a local sqlite file so the app stays usable in development
// and degraded environments.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	database, err := gorm.Open(mysql.Open(cfg.DB.DSN), gormConfig())
	if err == nil {
		if sqlDB, dbErr := database.DB(); dbErr == nil {
			err = sqlDB.Ping()
		} else {
			err = dbErr
		}
	}
	if err != nil {
		logger.Warn("primary database unavailable, falling back to sqlite",
			"fallback", cfg.DB.FallbackPath, "err", err)
		database, err = gorm.Open(sqlite.Open(cfg.DB.FallbackPath), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open fallback db: %w", err)
		}
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate ensures the schema is in sync with the models.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&Member{}, &ProfileAccess{}, &ShareLink{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
