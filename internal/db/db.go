package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sirupsen/logrus"

	"email-agent-go/internal/config"
	"email-agent-go/internal/model"
)

// Init opens the MySQL database described by cfg
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return Open(mysql.Open(cfg.GetDSN()), cfg)
}

// Open connects through dialector, applies the pool limits of cfg and
// migrates the agent tables. Timestamps written by GORM are UTC.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newLogger(),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"dialect":  dialector.Name(),
		"database": cfg.DBName,
		"max_open": cfg.MaxOpenConns,
		"max_idle": cfg.MaxIdleConns,
	}).Info("Database initialized")
	return db, nil
}

// newLogger routes GORM warnings and slow queries through logrus
func newLogger() logger.Interface {
	return logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates the drafts, processed_records and prompts tables
func Migrate(db *gorm.DB) error {
	logrus.Debug("Running database migrations")
	if err := db.AutoMigrate(&model.Draft{}, &model.ProcessedRecord{}, &model.PromptRow{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
