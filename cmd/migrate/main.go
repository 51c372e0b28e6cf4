// Command migrate applies or rolls back the SQL migrations in ./migrations.
//
//	migrate up            apply every pending migration
//	migrate down [N]      roll back N migrations (default 1)
//	migrate goto V        migrate up or down to version V
//	migrate force V       mark version V as clean after a failed migration
//	migrate version       print the current version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"cryptodata/internal/config"
	"cryptodata/internal/database"
	"cryptodata/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate <up|down [N]|goto V|force V|version>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig := database.NewConfig(cfg)

	m, err := migrate.New(dbConfig.MigrationsPath, dbConfig.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	log := logger.Named("migrate")
	defer closeMigrate(m, log)

	switch command := args[0]; command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("Migrations applied successfully")

	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = positiveArg(args[1]); err != nil {
				return err
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Infof("Rolled back %d migration(s)", steps)

	case "goto", "force":
		if len(args) < 2 {
			return fmt.Errorf("%s needs a version", command)
		}
		version, err := positiveArg(args[1])
		if err != nil {
			return err
		}
		if command == "goto" {
			err = m.Migrate(uint(version))
		} else {
			err = m.Force(version)
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration %s failed: %w", command, err)
		}
		log.Infow("Migration version set", "command", command, "version", version)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("No migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		log.Infow("Current migration", "version", version, "dirty", dirty)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, goto, force, or version)", command)
	}

	return nil
}

func positiveArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func closeMigrate(m *migrate.Migrate, log *zap.SugaredLogger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		log.Warnf("migrate database close error: %v", dbErr)
	}
}
