package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/cache"
	"github.com/ManuelReschke/Chirper/internal/pkg/database"
	"github.com/ManuelReschke/Chirper/internal/pkg/env"
	"github.com/ManuelReschke/Chirper/internal/pkg/events"
	"github.com/ManuelReschke/Chirper/internal/pkg/jobqueue"
	"github.com/ManuelReschke/Chirper/internal/pkg/logging"
	"github.com/ManuelReschke/Chirper/internal/pkg/mail"
	"github.com/ManuelReschke/Chirper/internal/pkg/oauth"
	"github.com/ManuelReschke/Chirper/internal/pkg/router"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
	"github.com/ManuelReschke/Chirper/internal/pkg/session"
)

func main() {
	app, jobs := NewApplication()
	jobs.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Errorw("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Infow("shutting down server")
	jobs.Stop()
	sentry.Flush(2 * time.Second)
	if err := app.Shutdown(); err != nil {
		log.Errorw("server shutdown error", "error", err)
	}
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	logging.Setup(env.IsDev())

	db, err := database.SetupDatabase()
	if err != nil {
		log.Errorw("database setup failed", "error", err)
		os.Exit(1)
	}
	repos := repository.NewFactory(db).GetRepositories()

	signer, err := security.NewSigner(env.GetEnv("APP_KEY", ""))
	if err != nil {
		log.Errorw("APP_KEY is required", "error", err)
		os.Exit(1)
	}

	rdb := cache.New(context.Background())
	baseURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	oauth.Setup(baseURL, cache.NewStorage(rdb, cache.DBOAuth))

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/chirper to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	app := router.NewApp()

	if dsn := env.GetEnv("SENTRY_DSN", ""); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      env.GetEnv("APP_ENV", "prod"),
		}); err != nil {
			log.Errorw("sentry init failed", "error", err)
		} else {
			app.Use(sentryfiber.New(sentryfiber.Options{
				Repanic:         true,
				WaitForDelivery: false,
			}))
		}
	}

	// recovery, request ids and logging
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${locals:requestid} | ${method} | ${path}\n",
	}))

	// SWAGGER / OPENAPI
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		log.Warnw("openapi document not found, /docs/api disabled")
	}

	// ROUTER
	secure := !env.IsDev()
	svc := router.InstallRouter(app, router.Deps{
		Repos:          repos,
		Sessions:       session.NewSessionStore(cache.NewStorage(rdb, cache.DBSession)),
		Signer:         signer,
		Mailer:         mail.NewFromEnv(),
		Publisher:      events.NewRedisPublisher(rdb),
		BaseURL:        baseURL,
		SecureCookies:  secure,
		CSRFStorage:    cache.NewStorage(rdb, cache.DBCSRF),
		LimiterStorage: cache.NewStorage(rdb, cache.DBLimiter),
		Now:            time.Now,
	})

	return app, jobqueue.NewManager(svc.Tokens, jobqueue.DefaultPruneInterval)
}
