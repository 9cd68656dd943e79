package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/handler"
	"github.com/iliyamo/rideshare-inventory/internal/middleware"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRider, model.RoleDriver, model.RoleAdmin))
	e.POST("/v1/logout", a.Logout)
}

// Inventory groups the handlers behind the ride and booking API.
type Inventory struct {
	Bookings      *handler.BookingHandler
	Rides         *handler.RideHandler
	Vehicles      *handler.VehicleHandler
	Notifications *handler.NotificationHandler
	Ratings       *handler.RatingHandler
	Templates     *handler.TemplateHandler
}

// RegisterInventory registers the ride, booking, vehicle, notification,
// rating and template routes. limit guards every seat mutation; cache fronts the public
// listing. Either may be a pass-through.
func RegisterInventory(e *echo.Echo, h Inventory, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	// Public browse.
	e.GET("/v1/rides/today", h.Rides.Today, cache)
	e.GET("/v1/rides/:id", h.Rides.Get)
	e.GET("/v1/ratings/user/:id", h.Ratings.ForUser)

	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	anyone := middleware.RequireRole(model.RoleRider, model.RoleDriver, model.RoleAdmin)
	driver := middleware.RequireRole(model.RoleDriver)

	// ---- Bookings ----
	g.POST("/bookings", h.Bookings.Create, anyone, limit)
	g.PATCH("/bookings/:id/action", h.Bookings.Action, driver, limit)
	g.PATCH("/bookings/:id/cancel", h.Bookings.Cancel, anyone, limit)
	g.GET("/bookings/mine", h.Bookings.Mine, anyone)

	// ---- Rides ----
	g.POST("/rides", h.Rides.Create, driver, limit)
	g.GET("/rides/mine", h.Rides.Mine, driver)
	g.PATCH("/rides/:id/start", h.Rides.Start, driver, limit)
	g.PATCH("/rides/:id/complete", h.Rides.Complete, driver, limit)
	g.PATCH("/rides/:id/cancel", h.Rides.Cancel, driver, limit)

	// ---- Vehicles ----
	g.POST("/vehicles", h.Vehicles.Create, driver)
	g.GET("/vehicles/mine", h.Vehicles.Mine, driver)
	g.DELETE("/vehicles/:id", h.Vehicles.Delete, driver)

	// ---- Notifications ----
	g.GET("/notifications", h.Notifications.List, anyone)
	g.PATCH("/notifications/:id/read", h.Notifications.MarkRead, anyone)

	// ---- Ratings ----
	g.POST("/ratings", h.Ratings.RateDriver, anyone)
	g.POST("/ratings/passenger", h.Ratings.RatePassenger, driver)
	g.GET("/ratings/check", h.Ratings.Check, anyone)
	g.GET("/ratings/ride-passengers/:id", h.Ratings.RidePassengers, driver)

	// ---- Templates ----
	g.POST("/templates", h.Templates.Create, driver)
	g.GET("/templates/mine", h.Templates.Mine, driver)
	g.DELETE("/templates/:id", h.Templates.Delete, driver)
}
