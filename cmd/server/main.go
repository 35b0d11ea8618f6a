package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/travel-booking-api/internal/app"
	"github.com/iliyamo/travel-booking-api/internal/config"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/logger"
	"github.com/iliyamo/travel-booking-api/internal/payment"
	"github.com/iliyamo/travel-booking-api/internal/queue"
	"github.com/iliyamo/travel-booking-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: logger.ParseLevel(cfg.LogLevel)})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hooks []func(context.Context, *sql.DB) error
	if cfg.DB.AutoMigrate {
		hooks = append(hooks, database.MigrateHook(cfg.DB.Driver))
	}
	db := database.NewProvider(func(ctx context.Context) (*sql.DB, error) {
		return database.Open(ctx, cfg.DB)
	}, hooks...)
	defer func() { _ = db.Close() }()

	// Connect eagerly so a bad DSN shows up in the startup log. A failure is
	// not fatal: the provider retries on the first request.
	if _, err := db.DB(ctx); err != nil {
		log.Warn("database not reachable at startup", "driver", cfg.DB.Driver, "err", err)
	}

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable: response cache disabled, rate limiting in-process")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	pub := queue.NewPublisher(cfg.RabbitURL, log)
	defer func() { _ = pub.Close() }()
	if cfg.RabbitURL != "" {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: cfg.EventsLogPath, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", "err", err)
			}
		}()
	}

	pay := payment.New(cfg.Payment.KeyID, cfg.Payment.KeySecret)
	if _, disabled := pay.(payment.Disabled); disabled {
		log.Warn("payment keys not set: checkout disabled")
	}

	images, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicBase, cfg.Upload.MaxFiles, cfg.Upload.MaxFileBytes)
	if err != nil {
		return err
	}

	e := app.New(app.Options{
		Config:    cfg,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
		DB:        db,
		Redis:     rdb,
		Publisher: pub,
		Payment:   pay,
		Images:    images,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
