package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole gates a route group on the JWT's "role" claim. The booking
// API runs two roles: CUSTOMER for guests booking their own tables and
// STAFF for the host desk (walk-ins, no-shows, day sheet, overrides).
// JWTAuth must run earlier in the chain so the role is already in the
// context; a missing or unknown role is refused with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
