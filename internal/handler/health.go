package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health answers load balancer probes. Deliberately does not touch the
// database or Redis: a degraded dependency should drain through the
// engine's own fallbacks, not take the whole instance out of rotation.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
