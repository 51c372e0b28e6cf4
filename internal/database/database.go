package database

import (
	"errors"
	"fmt"
	"time"

	"cryptodata/internal/logger"
	"cryptodata/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager owns the GORM connection and the migration source.
type Manager struct {
	db             *gorm.DB
	url            string
	migrationsPath string
}

// NewManager opens a pooled connection to PostgreSQL.
func NewManager(cfg *Config) (*Manager, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	// The ingest job is sequential; a small pool is plenty.
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RegisterJoinTables(db); err != nil {
		return nil, err
	}

	return &Manager{db: db, url: cfg.URL(), migrationsPath: cfg.MigrationsPath}, nil
}

// RegisterJoinTables tells GORM about the explicit join models behind the
// many-to-many relations so preloads and association writes use them.
func RegisterJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Currency{}, "Exchanges", &models.CurrencyExchange{}); err != nil {
		return fmt.Errorf("failed to set up currency_exchanges join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.TradingPair{}, "Exchanges", &models.TradingPairExchange{}); err != nil {
		return fmt.Errorf("failed to set up trading_pair_exchanges join table: %w", err)
	}
	return nil
}

// RunMigrations applies pending SQL migrations from the migrations directory.
func (m *Manager) RunMigrations() error {
	log := logger.Get()
	log.Info("Running database migrations...")

	mig, err := migrate.New(m.migrationsPath, m.url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			log.Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
