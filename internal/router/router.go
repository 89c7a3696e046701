package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/restaurant-table-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/restaurant-table-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/restaurant-table-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out using a refresh token.  The
	// handler accepts a JSON body containing a `refresh_token` and will
	// invalidate that token.  If the token is valid, a 204 response is
	// returned; otherwise 400/401/500 are possible depending on the error.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Accept both STAFF and CUSTOMER roles on generic authenticated
	// endpoints; staff-only routes add their own RequireRole below.
	auth.Use(middleware.RequireRole(model.RoleStaff, model.RoleCustomer))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can
	// terminate a session with just a refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// query availability before deciding to register; the optional cache
// middleware absorbs repeated lookups for hot restaurant/date pairs.
func RegisterPublic(e *echo.Echo, av *handler.AvailabilityHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/restaurants/:id/availability", av.Get, cache)
		return
	}
	e.GET("/v1/restaurants/:id/availability", av.Get)
}

// RegisterLookup registers the unauthenticated booking lookup by
// confirmation code, used from confirmation emails.
func RegisterLookup(e *echo.Echo, b *handler.BookingHandler) {
	e.GET("/v1/bookings/code/:code", b.LookupByCode)
}

// RegisterBooking registers the authenticated customer booking routes
// and the staff dashboard routes.  Both groups share the JWT middleware;
// the staff group additionally requires the STAFF role.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, s *handler.StaffBookingHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleStaff, model.RoleCustomer))

	// Customer booking lifecycle.
	auth.POST("/bookings", b.Create)
	auth.GET("/bookings/:id", b.Get)
	auth.DELETE("/bookings/:id", b.Cancel)
	auth.GET("/my-bookings", b.ListMine)
	// Waitlist receipt status and leaving the queue voluntarily.
	auth.GET("/waitlist/:id", b.GetWaitlist)
	auth.DELETE("/waitlist/:id", b.CancelWaitlist)

	// Staff dashboard: walk-ins, overrides, no-shows and the day sheet.
	staff := e.Group("/v1/staff")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleStaff))
	staff.POST("/bookings", s.Create)
	staff.POST("/bookings/:id/no-show", s.NoShow)
	staff.GET("/restaurants/:id/bookings", s.DaySheet)
	staff.POST("/restaurants/:id/policy/refresh", s.RefreshPolicy)
}
