package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-booking/internal/booking"
    "github.com/iliyamo/restaurant-table-booking/internal/repository"
)

// StaffBookingHandler serves the staff dashboard endpoints: walk-in
// entry with pacing override, no-show marking, the day sheet and the
// policy cache refresh.
type StaffBookingHandler struct {
    Engine      *booking.Engine
    Bookings    *repository.BookingRepo
    Restaurants *repository.RestaurantRepo
}

func NewStaffBookingHandler(e *booking.Engine, b *repository.BookingRepo, r *repository.RestaurantRepo) *StaffBookingHandler {
    return &StaffBookingHandler{Engine: e, Bookings: b, Restaurants: r}
}

type staffCreateReq struct {
    createBookingReq
    OverrideCaps bool    `json:"override_caps"`
    UserID       *uint64 `json:"user_id"` // book on behalf of a customer, nil for walk-ins
}

// Create handles POST /v1/staff/bookings. Unlike the customer endpoint
// the booking may carry no user (walk-in) and may override pacing caps.
// Overriding never relaxes physical table conflicts.
func (h *StaffBookingHandler) Create(c echo.Context) error {
    var req staffCreateReq
    date, startMinute, err := parseCreate(c, &req.createBookingReq)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    res, err := h.Engine.CreateBooking(c.Request().Context(), booking.CreateRequest{
        RestaurantID:  req.RestaurantID,
        UserID:        req.UserID,
        Date:          date,
        StartMinute:   startMinute,
        PartySize:     req.PartySize,
        CustomerName:  req.CustomerName,
        CustomerPhone: req.CustomerPhone,
        JoinWaitlist:  req.JoinWaitlist,
        OverrideCaps:  req.OverrideCaps,
    })
    if err != nil {
        return bookingError(c, err)
    }
    if res.Waitlisted != nil {
        return c.JSON(http.StatusAccepted, echo.Map{"waitlisted": toWaitlistResp(res.Waitlisted)})
    }
    return c.JSON(http.StatusCreated, toBookingResp(res.Booking))
}

// NoShow handles POST /v1/staff/bookings/:id/no-show.
func (h *StaffBookingHandler) NoShow(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Engine.MarkNoShow(c.Request().Context(), id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// DaySheet handles GET /v1/staff/restaurants/:id/bookings?date=YYYY-MM-DD,
// returning every booking of the service day regardless of status.
func (h *StaffBookingHandler) DaySheet(c echo.Context) error {
    restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || restaurantID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
    }
    date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), time.UTC)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    list, err := h.Bookings.ForDate(c.Request().Context(), restaurantID, date)
    if err != nil {
        return bookingError(c, err)
    }
    resp := make([]bookingResp, 0, len(list))
    for i := range list {
        resp = append(resp, toBookingResp(&list[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"date": c.QueryParam("date"), "bookings": resp})
}

// RefreshPolicy handles POST /v1/staff/restaurants/:id/policy/refresh.
// After editing hours or rules in the back office, staff bust the
// short-TTL policy cache so the change shows up immediately instead of
// after the TTL lapses.
func (h *StaffBookingHandler) RefreshPolicy(c echo.Context) error {
    restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || restaurantID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
    }
    h.Restaurants.Invalidate(restaurantID)
    return c.NoContent(http.StatusNoContent)
}
