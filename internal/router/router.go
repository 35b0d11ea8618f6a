// Package router wires handlers and middleware into the route table. Every
// API route lives under the configured prefix; /healthz and /uploads sit at
// the root.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/handler"
	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/service"
	"github.com/iliyamo/travel-booking-api/internal/storage"
)

// Deps is everything the route table needs.
type Deps struct {
	Prefix    string
	UploadDir string // served at /uploads; empty disables

	Tokens    middleware.TokenVerifier
	Cache     *middleware.ResponseCache
	RateLimit echo.MiddlewareFunc // applied to /auth/register and /auth/login

	Bookings *service.BookingService // resolves booking owners

	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Tours       *handler.TourHandler
	Reviews     *handler.ReviewHandler
	BookingsH   *handler.BookingHandler
	Payments    *handler.PaymentHandler
	Experiences *handler.ExperienceHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	if d.RateLimit == nil {
		d.RateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	e.GET("/healthz", d.Health.Health)
	if d.UploadDir != "" {
		e.Static(storage.URLPrefix, d.UploadDir)
	}

	api := e.Group(d.Prefix)
	registerAuth(api, d)
	registerUsers(api, d)
	registerTours(api, d)
	registerReviews(api, d)
	registerBookings(api, d)
	registerPayments(api, d)
	registerExperiences(api, d)
}

func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	g.POST("/register", d.Auth.Register, d.RateLimit)
	g.POST("/login", d.Auth.Login, d.RateLimit)
	g.GET("/me", d.Auth.Me, middleware.RequireAuth(d.Tokens))
	g.POST("/logout", d.Auth.Logout, middleware.RequireAuth(d.Tokens))
}

func registerUsers(api *echo.Group, d Deps) {
	g := api.Group("/users")
	g.POST("", d.Users.Create, middleware.RequireAdmin(d.Tokens))
	g.GET("", d.Users.List, middleware.RequireAdmin(d.Tokens))

	self := middleware.RequireOwnerOrAdmin(d.Tokens, middleware.ParamOwner("id"))
	g.GET("/:id", d.Users.Get, self)
	g.PUT("/:id", d.Users.Update, self)
	g.DELETE("/:id", d.Users.Delete, self)
}
