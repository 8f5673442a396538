package storage

import (
	"log"
	"os"
	"time"

	"storybook/backend/internal/config"
	"storybook/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. TranslateError is required: the storage layer
// relies on gorm.ErrDuplicatedKey to detect unique-index races.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return db, nil
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
		TranslateError: true,
	}
}

// NewGormLogger logs slow queries and failures at Warn. Lookups that find no
// row are answered with NotFound by the callers and are not logged.
func NewGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Guide{},
		&models.MatchingRequest{},
		&models.ChatRoom{},
		&models.ChatMessage{},
		&models.Story{},
		&models.StoryLike{},
		&models.StoryBookmark{},
		&models.StoryComment{},
		&models.StoryReport{},
		&models.Region{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
