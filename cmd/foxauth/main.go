package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/cache"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/database"
	"github.com/ManuelReschke/foxauth/internal/pkg/docs"
	"github.com/ManuelReschke/foxauth/internal/pkg/env"
	"github.com/ManuelReschke/foxauth/internal/pkg/events"
	"github.com/ManuelReschke/foxauth/internal/pkg/mail"
	"github.com/ManuelReschke/foxauth/internal/pkg/middleware"
	"github.com/ManuelReschke/foxauth/internal/pkg/oauth"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
	"github.com/ManuelReschke/foxauth/internal/pkg/router"
	"github.com/ManuelReschke/foxauth/internal/pkg/token"
	"github.com/ManuelReschke/foxauth/internal/pkg/verification"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, cleanup, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	go func() {
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)); err != nil {
			log.Errorf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	cleanup()
}

// NewApplication wires every component. The returned cleanup stops the
// mail workers and closes the database.
func NewApplication(cfg config.Config) (*fiber.App, func(), error) {
	if _, err := docs.Load(); err != nil {
		return nil, nil, err
	}

	db, err := database.SetupDatabase(cfg.Database, cfg.IsDev())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}

	redisClient := cache.SetupCache(cfg.Cache)
	cacheUp := cache.Available(context.Background())

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}

	var (
		queue     mail.Queue
		stopQueue func()
		publisher events.Publisher = events.LogPublisher{}
		limiter   fiber.Storage
	)
	if cacheUp {
		rq := mail.NewRedisQueue(redisClient, mailer, cfg.Mail.Workers)
		rq.Start()
		queue, stopQueue = rq, rq.Stop
		publisher = events.NewRedisPublisher(redisClient, events.DefaultChannel)
		if cfg.RateLimit.UseRedis {
			limiter = middleware.NewLimiterStorage(redisClient)
		}
	} else {
		log.Warn("Cache unavailable: sending mail inline and keeping rate limits in memory")
		dq := mail.NewDirectQueue(mailer)
		queue, stopQueue = dq, dq.Wait
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	repos := repository.NewRepositories(db)
	signer := verification.NewSigner(cfg.AppURL, cfg.Verification)
	providers := oauth.NewRegistry(cfg.OAuth)
	log.Infof("Social login providers enabled: %v", providers.Names())

	svc := auth.NewService(auth.Dependencies{
		Repos:     repos,
		Issuer:    token.NewIssuer(repos, cfg.Token),
		Signer:    signer,
		Notifier:  verification.NewNotifier(cfg.AppName, signer, renderer, queue),
		Events:    publisher,
		Providers: providers,
		OAuth:     cfg.OAuth,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: response.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), requestid.New(), logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	router.InstallRouter(app, router.Dependencies{
		Config:         cfg,
		Auth:           svc,
		LimiterStorage: limiter,
	})

	cleanup := func() {
		stopQueue()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = redisClient.Close()
	}
	return app, cleanup, nil
}
