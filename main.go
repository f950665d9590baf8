package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/waitlist-service/config"
	"github.com/Eursukkul/waitlist-service/internal/handler"
	"github.com/Eursukkul/waitlist-service/internal/middleware"
	"github.com/Eursukkul/waitlist-service/internal/repository"
	"github.com/Eursukkul/waitlist-service/internal/service"
	"github.com/Eursukkul/waitlist-service/internal/wizard"
	"github.com/Eursukkul/waitlist-service/pkg/database"
	"github.com/Eursukkul/waitlist-service/pkg/logger"
	"github.com/Eursukkul/waitlist-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer log.Sync()

	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	opts := []service.Option{
		service.WithTimeout(cfg.RegistryTimeout),
		service.WithSiteURL(cfg.SiteURL),
	}

	// Event publishing is optional; the registry works without a broker.
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer pub.Close()
		opts = append(opts, service.WithPublisher(pub))
	} else {
		log.Info("RABBITMQ_URL not set, event publishing disabled")
	}

	waitlistSvc := service.NewWaitlistService(repo, log, opts...)

	sessions := wizard.NewStore(waitlistSvc, log, cfg.SessionTTL)
	sessions.StartJanitor(time.Minute)
	defer sessions.Stop()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "waitlist-service"})
	})

	handler.NewWaitlistHandler(waitlistSvc).RegisterRoutes(e)
	handler.NewSessionHandler(sessions).RegisterRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("waitlist service starting",
			zap.String("port", cfg.ServerPort),
			zap.String("db_driver", cfg.DBDriver))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openRepository(cfg *config.Config) (repository.EntryRepository, func(), error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case config.DriverMemory:
		return repository.NewMemoryRepository(), func() {}, nil
	case config.DriverSQLite:
		db, err = database.NewSQLiteDB(cfg.SQLitePath)
	default:
		db, err = database.NewPostgresDB(cfg.DSN())
	}
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return repository.NewEntryRepository(db), closeDB, nil
}
