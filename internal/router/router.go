// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Staff   *handler.StaffHandler
	Event   *handler.EventHandler
	Ticket  *handler.TicketHandler
	Checkin *handler.CheckinHandler
}

// Register wires all routes onto the Echo instance.
//
// Route map:
//
//	/healthz                                  public liveness probe
//	/v1/auth/*                                sessions (register, login, refresh, logout)
//	/v1/verify                                public stateless token verification
//	/v1/*                                     staff endpoints behind JWT
//	    admin-only: staff management, event/ticket-type creation, issuance
//	    any staff:  check-in, revoke, offline sync, logs (grant-checked per event)
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Session endpoints.  The code login exists so scanning devices can
	// be provisioned without typing a password.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/login-code", h.Auth.LoginWithCode)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Anyone holding a signed ticket token may ask about its state.
	e.POST("/v1/verify", h.Checkin.Verify)

	// Everything below requires a staff session.  The Redis token
	// bucket shields the database from scanner floods; the response
	// cache only ever sees GET requests.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	v1.GET("/me", h.Auth.Me)

	// Merchant administration.
	admin := v1.Group("", middleware.RequireAdmin())
	admin.POST("/staff", h.Staff.Create)
	admin.GET("/staff", h.Staff.List)
	admin.POST("/staff/:id/login-code", h.Staff.RotateLoginCode)
	admin.PUT("/staff/:id/grants/:event_id", h.Staff.SetGrant)
	admin.GET("/staff/:id/grants", h.Staff.ListGrants)
	admin.DELETE("/staff/:id/grants/:event_id", h.Staff.DeleteGrant)

	admin.POST("/events", h.Event.Create)
	admin.PATCH("/events/:id/active", h.Event.SetActive)
	admin.POST("/events/:id/ticket-types", h.Event.CreateTicketType)
	admin.POST("/events/:id/tickets", h.Ticket.IssueOne)
	admin.POST("/events/:id/tickets/batch", h.Ticket.IssueBatch)

	// Reads are shared by admins and granted staff.  Listing endpoints
	// sit behind the Redis response cache.
	cached := v1.Group("", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/events", h.Event.List)
	cached.GET("/events/:id", h.Event.Get)

	v1.GET("/events/:id/tickets", h.Ticket.ListByEvent)
	v1.GET("/tickets/code/:code", h.Ticket.GetByCode)

	// Scan gate.  Capability checks happen inside the handlers because
	// they are event-scoped, not route-scoped.
	v1.POST("/events/:id/checkin", h.Checkin.CheckIn)
	v1.POST("/events/:id/checkins/sync", h.Checkin.SyncOffline)
	v1.GET("/events/:id/checkins", h.Checkin.Logs)
	v1.POST("/checkins/:id/revoke", h.Checkin.Revoke)
}
