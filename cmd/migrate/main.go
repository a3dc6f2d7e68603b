package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-migrate/migrate/v4"

	"github.com/ManuelReschke/Chirper/internal/pkg/database"
	"github.com/ManuelReschke/Chirper/internal/pkg/env"
	"github.com/ManuelReschke/Chirper/internal/pkg/logging"
)

func main() {
	env.SetupEnvFile()
	logging.Setup(env.IsDev())

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	log.Infow("connecting to database",
		"user", env.GetEnv("DB_USER", "chirper"),
		"host", env.GetEnv("DB_HOST", "db"),
		"port", env.GetEnv("DB_PORT", "3306"),
		"name", env.GetEnv("DB_NAME", "chirper"),
	)

	m, err := database.NewMigrator(database.MigrationURL())
	if err != nil {
		fatal("failed to initialise migrations", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Errorw("failed to close migration resources", "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Infow("no change: database is up to date")
		case err != nil:
			fatal("failed to run migrations", err)
		default:
			log.Infow("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			fatal("failed to roll back the last migration", err)
		}
		log.Infow("rolled back the last migration")

	case "goto":
		if len(os.Args) < 3 {
			fatal("missing version number", nil)
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			fatal("invalid version number", err)
		}

		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Infow("no change: database already at version", "version", version)
		case err != nil:
			fatal("failed to migrate", err)
		default:
			log.Infow("migrated", "version", version)
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Infow("no migrations applied yet")
		case err != nil:
			fatal("failed to read migration version", err)
		default:
			log.Infow("current migration version", "version", version, "dirty", dirty)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	log.Errorw(msg, "error", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - show the current migration version")
}
