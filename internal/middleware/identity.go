package middleware

// Identity helpers shared by the rate limiter and cache key builders.
// They only need a stable per-caller string, not a verified identity:
// unauthenticated availability polling is keyed as "guest" and falls
// back to the client IP in the rate key.

import (
    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userID pulls a user identifier out of a parsed JWT left in the
// context, preferring the subject claim. "guest" when unauthenticated.
func userID(c echo.Context) string {
    u := c.Get("user")
    if u == nil {
        return "guest"
    }
    tok, ok := u.(*jwt.Token)
    if !ok {
        return "guest"
    }
    cl, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "guest"
    }
    if v, ok := cl["sub"].(string); ok && v != "" {
        return v
    }
    if v, ok := cl["user_id"].(string); ok && v != "" {
        return v
    }
    return "guest"
}
