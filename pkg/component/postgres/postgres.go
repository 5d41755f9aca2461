// Package postgres wraps the gorm PostgreSQL connection.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pgopts "github.com/iranzithierry/cognova-backend/pkg/options/postgres"
)

// New opens a PostgreSQL connection with pooling configured from options.
func New(opts *pgopts.Options) (*gorm.DB, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options is nil")
	}

	db, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.LogLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL database: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)

	return db, nil
}
