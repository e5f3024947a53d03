package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobboard/internal/config"
)

// InitDatabase opens the PostgreSQL connection and returns a GORM instance.
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate runs schema migrations for all models, plus the partial unique
// index that guarantees at most one open interview per application.
// Postgres only; the index statement is skipped on other dialects (tests
// run on sqlite and rely on the service-level pre-check).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Job{},
		&Application{},
		&Interview{},
		&CVRecord{},
		&Conversation{},
		&Message{},
		&Notification{},
		&Review{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		stmt := `CREATE UNIQUE INDEX IF NOT EXISTS idx_interviews_open_application
			ON interviews (application_id)
			WHERE application_id IS NOT NULL
			  AND status IN ('scheduled', 'rescheduled')
			  AND deleted_at IS NULL`
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create open interview index: %w", err)
		}
	}

	return nil
}
