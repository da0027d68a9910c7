package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Faheem12005/pathable-backend/config"
	"github.com/Faheem12005/pathable-backend/internal/app"
	"github.com/Faheem12005/pathable-backend/internal/consumer"
	"github.com/Faheem12005/pathable-backend/internal/handler"
	"github.com/Faheem12005/pathable-backend/internal/middleware"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/Faheem12005/pathable-backend/pkg/database"
	"github.com/Faheem12005/pathable-backend/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	var publisher service.EventPublisher
	var mqConsumer *rabbitmq.Consumer
	if cfg.RabbitEnabled {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub

		mqConsumer, err = rabbitmq.NewConsumer(cfg.RabbitURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqConsumer.Close()
	}

	svc := app.Build(cfg, db, publisher, logger)

	// Profile sync from the profile service.
	if mqConsumer != nil {
		msgs, err := mqConsumer.Consume()
		if err != nil {
			logger.Error("failed to start consuming", "error", err)
			os.Exit(1)
		}
		consumer.NewProfileConsumer(svc.Users, svc.Groups, logger).Start(ctx, msgs)
	}

	if cfg.SchedulerEnabled {
		hour, minute, err := cfg.Deadline()
		if err != nil {
			logger.Error("invalid scheduler config", "error", err)
			os.Exit(1)
		}
		loc, err := cfg.Location()
		if err != nil {
			logger.Error("invalid scheduler config", "error", err)
			os.Exit(1)
		}
		go svc.Scheduler.Start(ctx, hour, minute, loc)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "shuttle-service"})
	})

	api := e.Group("/api/v1")
	handler.NewAllocationHandler(svc.Engine).RegisterRoutes(api)
	handler.NewBookingHandler(svc.Individual, svc.Group).RegisterRoutes(api)
	handler.NewLockHandler(svc.Gate).RegisterRoutes(api)
	handler.NewRequestHandler(svc.Requests).RegisterRoutes(api)
	handler.NewBusHandler(svc.Inventory).RegisterRoutes(api)

	go func() {
		logger.Info("shuttle service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
