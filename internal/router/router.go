// Package router wires HTTP routes to their handlers and access rules.
// Guests search availability and reserve; staff manage rooms and run
// assignments.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/handler"
	"github.com/iliyamo/hotel-room-inventory/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication:
// the health probe, availability reads and the realtime event stream.
func RegisterRoutes(e *echo.Echo, avail *handler.AvailabilityHandler, sessions *handler.SessionHandler) {
	e.GET("/healthz", handler.Health)

	e.GET("/v1/hotels/:id/availability", avail.GetAvailability)
	e.GET("/v1/hotels/:id/candidates", avail.GetCandidates)

	// Live search sessions: subscribe streams SSE, touch keeps a session
	// alive across the inactivity window.
	e.GET("/v1/hotels/:id/events", sessions.Subscribe)
	e.POST("/v1/sessions/:id/touch", sessions.Touch)
	e.DELETE("/v1/sessions/:id", sessions.Unsubscribe)
}

// RegisterAuth registers the token endpoints and the authenticated /v1/me
// route.  Register, login, refresh and logout need no prior session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STAFF", "GUEST"))
	auth.GET("/me", a.Me)
}

// RegisterReservations registers the reservation write path.  Reserving
// and cancelling are open to any authenticated user; assignment is a
// front-desk operation and requires staff.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("STAFF", "GUEST"))
	g.POST("", r.Reserve)
	g.POST("/cancel", r.Cancel)

	staff := e.Group("/v1/reservations")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole("STAFF"))
	staff.POST("/:ref/assign", r.Assign)
}

// RegisterRooms registers staff-only inventory management.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, jwtSecret string) {
	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole("STAFF"))

	staff.POST("/hotels/:id/rooms", r.Create)
	staff.GET("/hotels/:id/rooms", r.List)
	staff.DELETE("/rooms/:id", r.Delete)
	staff.PATCH("/rooms/:id/status", r.ChangeStatus)
	staff.GET("/rooms/:id/status-history", r.StatusHistory)
}
