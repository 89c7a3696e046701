package middleware // reusable HTTP middleware for the booking API

import (
    "net/http" // standard HTTP status codes
    "strings"  // Authorization header parsing

    "github.com/golang-jwt/jwt/v5" // JWT parsing and validation
    "github.com/labstack/echo/v4"  // Echo framework middleware plumbing
)

// JWTAuth validates a Bearer access token and stores the subject and role
// claims in the request context. Every protected route group (guest
// booking routes and the staff desk) is wrapped with it; handlers read
// the identity back via c.Get("user_id") and c.Get("role"). The secret
// must be the one the auth handler signs with.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Expect "Authorization: Bearer <jwt>". Anything else is
            // treated as unauthenticated rather than malformed.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Pin the signing method to HMAC. Accepting whatever the
            // token header claims would let a client downgrade to
            // "none" or swap in a public-key scheme.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // The sub claim round-trips through JSON, so numeric user
            // IDs arrive as float64; handlers coerce as needed.
            c.Set("user_id", claims["sub"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}
