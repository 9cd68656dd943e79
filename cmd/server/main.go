package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rideshare-inventory/internal/config"
	"github.com/iliyamo/rideshare-inventory/internal/database"
	"github.com/iliyamo/rideshare-inventory/internal/handler"
	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/logging"
	"github.com/iliyamo/rideshare-inventory/internal/middleware"
	"github.com/iliyamo/rideshare-inventory/internal/queue"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
	"github.com/iliyamo/rideshare-inventory/internal/router"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		LockWaitSec: cfg.LockWaitSec,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		log.Info("schema ensured")
	}

	// Redis is optional: without it rate limiting and caching pass through.
	var rdb *redis.Client
	if cfg.RateLimit.Enabled || cfg.Cache.Enabled {
		c, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, continuing without rate limit and cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			rdb = c
			defer rdb.Close()
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rides := repository.NewRideRepo(db)
	bookings := repository.NewBookingRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	stops := repository.NewStopRepo(db)
	notifications := repository.NewNotificationRepo(db)

	// Notifications go through RabbitMQ when configured, otherwise they
	// are written straight to the notifications table.
	var notifier inventory.Notifier = queue.NewInbox(notifications, log)
	consumerDone := make(chan struct{})
	var pub *queue.Publisher
	if cfg.AMQPURL != "" {
		if pub, err = queue.NewPublisher(cfg.AMQPURL, cfg.NotifyQueue, log); err != nil {
			log.Warn("broker unavailable, notifications are stored directly", "error", err)
		}
	}
	if pub != nil {
		defer pub.Close()
		notifier = pub

		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.NotifyQueue, notifications, log)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", "error", err)
			}
		}()
	} else {
		close(consumerDone)
		if cfg.AMQPURL == "" {
			log.Info("no broker configured, notifications are stored directly")
		}
	}

	engine := inventory.New(repository.NewTxStore(db), notifier, log,
		inventory.WithNotifyTimeout(cfg.NotifyTimeout))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret)
	router.RegisterInventory(e, router.Inventory{
		Bookings:      handler.NewBookingHandler(engine, bookings, log),
		Rides:         handler.NewRideHandler(engine, rides, stops, log),
		Vehicles:      handler.NewVehicleHandler(engine, vehicles, log),
		Notifications: handler.NewNotificationHandler(notifications, log),
		Ratings:       handler.NewRatingHandler(repository.NewRatingRepo(db), notifier, log),
		Templates:     handler.NewTemplateHandler(repository.NewTemplateRepo(db), log),
	}, cfg.JWTSecret,
		middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		middleware.NewRedisCache(cfg.Cache, rdb, log))

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	engine.Wait() // in-flight notices
	<-consumerDone
	return nil
}
