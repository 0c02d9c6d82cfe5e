package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/turf-booking/internal/config"
	"github.com/iliyamo/turf-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/turf-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/turf-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes.
// Unauthenticated operations live under /v1/auth (global accounts) and
// /v1/turfs/:slug/auth (facility-scoped tenant customers); protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a
	// fresh access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout with a refresh token in the body works without a JWT.
	g.POST("/logout", a.Logout)

	// Tenant customers register and log in under their facility's slug.
	t := e.Group("/v1/turfs/:slug/auth")
	t.POST("/register", a.TurfRegister)
	t.POST("/login", a.TurfLogin)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// With a bearer token and no body this revokes every session.
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated browse endpoints and the
// payment provider callback.  The slot listing is served through the
// Redis response cache when one is configured: the listing is display
// state recomputed per request, so a short TTL is safe.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, rdb *redis.Client, cacheCfg config.CacheConfig) {
	e.GET("/v1/turfs/:slug", b.GetTurf)
	e.GET("/v1/fields/:id/slots", b.FieldSlots, middleware.NewRedisCache(cacheCfg, rdb))

	// The provider redirects the payer's browser here after checkout.
	// No JWT: the correlation token in the query identifies the payment.
	e.GET("/v1/payments/bkash/callback", p.BkashCallback)
}

// RegisterBooking registers the authenticated reservation and payment
// endpoints.  All four roles may book; facility scoping for tenant
// customers is enforced in the service layer.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleUser, model.RoleOwner, model.RoleManager, model.RoleTurfUser))
	g.POST("/bookings", b.CreateBooking)
	g.GET("/bookings/my", b.MyBookings)
	g.POST("/payments/make", p.MakePayment)
}

// RegisterOwner registers facility administration endpoints, restricted
// to the OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group("/v1/owner")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleOwner))
	g.POST("/turfs", o.CreateTurf)
	g.POST("/turfs/:id/fields", o.CreateField)
	g.GET("/turfs/:id/fields", o.ListFields)
	g.PUT("/fields/:id", o.UpdateField)
}
