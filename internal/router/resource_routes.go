package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/middleware"
)

// Tour pages embed reviews and ratings, so review writes purge both
// namespaces.
var tourNamespaces = []string{middleware.NamespaceTours, middleware.NamespaceReviews}

func registerTours(api *echo.Group, d Deps) {
	g := api.Group("/tours")
	cached := d.Cache.Cache(middleware.NamespaceTours)
	g.GET("", d.Tours.List, cached)
	g.GET("/search/getTourBySearch", d.Tours.List, cached)
	g.GET("/search/getFeaturedTours", d.Tours.Featured, cached)
	g.GET("/search/getTourCount", d.Tours.Count, cached)
	g.GET("/:id", d.Tours.Get, cached)

	admin := middleware.RequireAdmin(d.Tokens)
	purge := d.Cache.PurgeOn(tourNamespaces...)
	g.POST("", d.Tours.Create, admin, purge)
	g.PUT("/:id", d.Tours.Update, admin, purge)
	g.DELETE("/:id", d.Tours.Delete, admin, purge)
}

func registerReviews(api *echo.Group, d Deps) {
	g := api.Group("/reviews")
	auth := middleware.RequireAuth(d.Tokens)
	purge := d.Cache.PurgeOn(tourNamespaces...)
	g.GET("/tour/:tourId", d.Reviews.ListByTour, d.Cache.Cache(middleware.NamespaceReviews))
	g.POST("/tour/:tourId", d.Reviews.Create, auth, purge)
	g.DELETE("/:id", d.Reviews.Delete, auth, purge)
}

func registerBookings(api *echo.Group, d Deps) {
	g := api.Group("/bookings")
	g.POST("", d.BookingsH.Create, middleware.RequireAuth(d.Tokens))
	g.GET("", d.BookingsH.List, middleware.RequireAdmin(d.Tokens))
	g.GET("/user/:id", d.BookingsH.ListByUser,
		middleware.RequireOwnerOrAdmin(d.Tokens, middleware.ParamOwner("id")))
	g.GET("/:id", d.BookingsH.Get,
		middleware.RequireOwnerOrAdmin(d.Tokens, middleware.LookupOwner("id", d.Bookings.OwnerOf)))
}

func registerPayments(api *echo.Group, d Deps) {
	g := api.Group("/payment")
	auth := middleware.RequireAuth(d.Tokens)
	g.GET("/key", d.Payments.Key)
	g.POST("/create-order", d.Payments.CreateOrder, auth)
	g.POST("/verify-payment", d.Payments.Verify, auth)
}

func registerExperiences(api *echo.Group, d Deps) {
	g := api.Group("/experiences")
	auth := middleware.RequireAuth(d.Tokens)
	optional := middleware.OptionalAuth(d.Tokens)
	purge := d.Cache.PurgeOn(middleware.NamespaceExperiences)

	g.GET("", d.Experiences.List, d.Cache.Cache(middleware.NamespaceExperiences), optional)
	g.GET("/mine", d.Experiences.Mine, auth)
	g.GET("/:id", d.Experiences.Get, optional)
	g.POST("", d.Experiences.Create, optional, purge)
	g.PUT("/:id", d.Experiences.Update, auth, purge)
	g.DELETE("/:id", d.Experiences.Delete, auth, purge)
	g.POST("/:id/like", d.Experiences.Like, auth, purge)
}
