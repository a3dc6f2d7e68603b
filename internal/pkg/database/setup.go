package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// SetupDatabase connects to the configured database, retrying while the server
// comes up, and migrates the schema.
func SetupDatabase() (*gorm.DB, error) {
	dialector, err := dialectorFromEnv()
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dialector, Config())
		if err == nil {
			if err = Migrate(db); err != nil {
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)

			log.Infow("database connected", "driver", dialector.Name())
			return db, nil
		}

		log.Warnw("failed to connect to database", "attempt", i+1, "max", maxRetries, "error", err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, err
}

// Config is the gorm configuration shared by production and tests.
func Config() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ProviderAccount{},
		&models.Token{},
		&models.Chirp{},
	)
}

func dialectorFromEnv() (gorm.Dialector, error) {
	user := env.GetEnv("DB_USER", "")
	password := env.GetEnv("DB_PASSWORD", "")
	host := env.GetEnv("DB_HOST", "127.0.0.1")
	name := env.GetEnv("DB_NAME", "chirper")

	switch driver := env.GetEnv("DB_DRIVER", "mysql"); driver {
	case "mysql":
		// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			user, password, host, env.GetEnv("DB_PORT", "3306"), name,
		)
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		}), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			host, user, password, name, env.GetEnv("DB_PORT", "5432"), env.GetEnv("DB_SSLMODE", "disable"),
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}
