// Package app assembles the HTTP server from its collaborators: stores,
// services, handlers, middleware and the route table.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-booking-api/internal/config"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/handler"
	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/payment"
	"github.com/iliyamo/travel-booking-api/internal/queue"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/router"
	"github.com/iliyamo/travel-booking-api/internal/service"
	"github.com/iliyamo/travel-booking-api/internal/storage"
	"github.com/iliyamo/travel-booking-api/internal/utils"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// Options carries the process-level collaborators. Nil Redis disables the
// response cache and moves rate limiting in-process; nil Publisher drops
// events; nil Payment disables checkout.
type Options struct {
	Config    config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *slog.Logger
	DB        database.Source
	Redis     *redis.Client
	Publisher queue.Publisher
	Payment   payment.Provider
	Images    storage.ImageStore
}

// New builds the echo server with every route registered.
func New(o Options) *echo.Echo {
	cfg := o.Config
	if o.Publisher == nil {
		o.Publisher = queue.NoopPublisher{}
	}
	if o.Payment == nil {
		o.Payment = payment.Disabled{}
	}

	v := validation.New()
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	users := repository.NewUserRepo(o.DB)
	tours := repository.NewTourRepo(o.DB)
	reviews := repository.NewReviewRepo(o.DB)
	bookings := repository.NewBookingRepo(o.DB)
	experiences := repository.NewExperienceRepo(o.DB)

	agg := service.NewAggregator(tours, reviews, experiences, o.Log)
	authSvc := service.NewAuthService(users, tokens, v, cfg.BcryptCost)
	bookingSvc := service.NewBookingService(bookings, tours, users, o.Publisher, v, o.Log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(o.Log, cfg.IsDevelopment())

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(o.Log))
	e.Use(echomw.Recover())
	if len(cfg.ClientOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.ClientOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	e.Use(echomw.BodyLimit(bodyLimit(cfg.Upload)))
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))
	}

	router.Register(e, router.Deps{
		Prefix:    cfg.APIPrefix,
		UploadDir: cfg.Upload.Dir,
		Tokens:    tokens,
		Cache:     middleware.NewResponseCache(o.Cache, o.Redis, o.Log),
		RateLimit: middleware.NewTokenBucket(o.RateLimit, o.Redis, o.Log),
		Bookings:  bookingSvc,

		Health:    handler.NewHealthHandler(o.DB),
		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(service.NewUserService(users, v), authSvc),
		Tours:     handler.NewTourHandler(service.NewTourService(tours, reviews, v)),
		Reviews:   handler.NewReviewHandler(service.NewReviewService(reviews, tours, agg, v)),
		BookingsH: handler.NewBookingHandler(bookingSvc),
		Payments: handler.NewPaymentHandler(
			service.NewPaymentService(o.Payment, bookings, cfg.Payment.Currency, o.Publisher, v, o.Log)),
		Experiences: handler.NewExperienceHandler(
			service.NewExperienceService(experiences, agg, o.Images, v, o.Log), o.Images),
	})
	return e
}

// bodyLimit allows a full batch of images plus form overhead.
func bodyLimit(u config.UploadConfig) string {
	kb := (int64(u.MaxFiles)*u.MaxFileBytes)/1024 + 1024
	return fmt.Sprintf("%dK", kb)
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case v.Status >= 400:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency.Round(time.Microsecond)),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
