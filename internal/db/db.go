package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/models"
)

// Open connects to postgres using dsn, with gorm logging routed through zerolog.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is empty (check your .env)")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger()})
}

// MustOpen is Open that exits the process on failure.
func MustOpen(dsn string) *gorm.DB {
	db, err := Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	return db
}

// Migrate creates or updates every storefront table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func newLogger() logger.Interface {
	zl := log.Logger
	return logger.New(&zl, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
