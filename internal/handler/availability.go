package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-booking/internal/booking"
)

// AvailabilityHandler serves the public slot listing used by booking
// widgets. The response is advisory; the engine re-checks under its
// locks when a booking is actually placed.
type AvailabilityHandler struct {
    Engine *booking.Engine
}

func NewAvailabilityHandler(e *booking.Engine) *AvailabilityHandler {
    return &AvailabilityHandler{Engine: e}
}

// Get handles GET /v1/restaurants/:id/availability?date=YYYY-MM-DD&party_size=N.
// A closed day returns 200 with an empty slot list.
func (h *AvailabilityHandler) Get(c echo.Context) error {
    restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || restaurantID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
    }
    date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), time.UTC)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    partySize, err := strconv.Atoi(c.QueryParam("party_size"))
    if err != nil || partySize < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be a positive integer"})
    }

    slots, err := h.Engine.GetAvailability(c.Request().Context(), restaurantID, date, partySize)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "date":       c.QueryParam("date"),
        "party_size": partySize,
        "slots":      slots,
    })
}
