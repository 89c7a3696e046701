package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-booking/internal/availability"
    "github.com/iliyamo/restaurant-table-booking/internal/booking"
    "github.com/iliyamo/restaurant-table-booking/internal/lock"
    "github.com/iliyamo/restaurant-table-booking/internal/model"
    "github.com/iliyamo/restaurant-table-booking/internal/repository"
)

// BookingHandler serves the customer-facing booking endpoints. All
// mutation goes through the engine; the repositories are only read
// directly for listings.
type BookingHandler struct {
    Engine   *booking.Engine
    Bookings *repository.BookingRepo
    Waitlist *repository.WaitlistRepo
}

func NewBookingHandler(e *booking.Engine, b *repository.BookingRepo, w *repository.WaitlistRepo) *BookingHandler {
    return &BookingHandler{Engine: e, Bookings: b, Waitlist: w}
}

// ----- DTOs -----

type createBookingReq struct {
    RestaurantID  uint64 `json:"restaurant_id"`
    Date          string `json:"date"` // YYYY-MM-DD
    Time          string `json:"time"` // HH:MM
    PartySize     int    `json:"party_size"`
    CustomerName  string `json:"customer_name"`
    CustomerPhone string `json:"customer_phone"`
    JoinWaitlist  bool   `json:"join_waitlist"`
}

type bookingResp struct {
    ID               uint64   `json:"id"`
    RestaurantID     uint64   `json:"restaurant_id"`
    TableIDs         []uint64 `json:"table_ids"`
    PartySize        int      `json:"party_size"`
    Date             string   `json:"date"`
    Time             string   `json:"time"`
    DurationMin      int      `json:"duration_min"`
    Status           string   `json:"status"`
    ConfirmationCode string   `json:"confirmation_code"`
    CustomerName     string   `json:"customer_name"`
}

type waitlistResp struct {
    ID        uint64 `json:"id"`
    Date      string `json:"date"`
    Time      string `json:"time"`
    PartySize int    `json:"party_size"`
    Status    string `json:"status"`
    Position  int    `json:"position,omitempty"`
}

func toBookingResp(b *model.Booking) bookingResp {
    return bookingResp{
        ID:               b.ID,
        RestaurantID:     b.RestaurantID,
        TableIDs:         b.TableIDs,
        PartySize:        b.PartySize,
        Date:             b.Date.Format("2006-01-02"),
        Time:             model.FormatClock(b.StartMinute),
        DurationMin:      b.DurationMin,
        Status:           b.Status,
        ConfirmationCode: b.ConfirmationCode,
        CustomerName:     b.CustomerName,
    }
}

func toWaitlistResp(e *model.WaitlistEntry) waitlistResp {
    return waitlistResp{
        ID:        e.ID,
        Date:      e.Date.Format("2006-01-02"),
        Time:      model.FormatClock(e.RequestedMinute),
        PartySize: e.PartySize,
        Status:    e.Status,
    }
}

// parseCreate validates the shared request shape for customer and staff
// creation.
func parseCreate(c echo.Context, req *createBookingReq) (time.Time, int, error) {
    if err := c.Bind(req); err != nil {
        return time.Time{}, 0, errors.New("invalid body")
    }
    date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
    if err != nil {
        return time.Time{}, 0, errors.New("date must be YYYY-MM-DD")
    }
    startMinute, err := model.ParseClock(req.Time)
    if err != nil {
        return time.Time{}, 0, errors.New("time must be HH:MM")
    }
    if req.RestaurantID == 0 {
        return time.Time{}, 0, errors.New("restaurant_id required")
    }
    return date, startMinute, nil
}

// Create handles POST /v1/bookings for an authenticated customer.
func (h *BookingHandler) Create(c echo.Context) error {
    var req createBookingReq
    date, startMinute, err := parseCreate(c, &req)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    res, err := h.Engine.CreateBooking(c.Request().Context(), booking.CreateRequest{
        RestaurantID:  req.RestaurantID,
        UserID:        &uid,
        Date:          date,
        StartMinute:   startMinute,
        PartySize:     req.PartySize,
        CustomerName:  req.CustomerName,
        CustomerPhone: req.CustomerPhone,
        JoinWaitlist:  req.JoinWaitlist,
    })
    if err != nil {
        return bookingError(c, err)
    }
    if res.Waitlisted != nil {
        return c.JSON(http.StatusAccepted, echo.Map{"waitlisted": toWaitlistResp(res.Waitlisted)})
    }
    return c.JSON(http.StatusCreated, toBookingResp(res.Booking))
}

// Get handles GET /v1/bookings/:id. Customers see only their own
// bookings; staff see everything.
func (h *BookingHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.ByID(c.Request().Context(), id)
    if err != nil {
        return bookingError(c, err)
    }
    if !isStaff(c) {
        uid, ok := currentUserID(c)
        if !ok || b.UserID == nil || *b.UserID != uid {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// LookupByCode handles GET /v1/bookings/code/:code, the unauthenticated
// lookup printed on confirmation emails. The code is an unguessable
// UUID, so possession of it is the authorization.
func (h *BookingHandler) LookupByCode(c echo.Context) error {
    code := c.Param("code")
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmation code required"})
    }
    b, err := h.Bookings.ByConfirmationCode(c.Request().Context(), code)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel handles DELETE /v1/bookings/:id. Repeating a cancel returns
// the same terminal state with 200 rather than an error.
func (h *BookingHandler) Cancel(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    staff := isStaff(c)
    var caller *uint64
    if uid, ok := currentUserID(c); ok {
        caller = &uid
    }
    b, err := h.Engine.CancelBooking(c.Request().Context(), id, caller, staff)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// ListMine handles GET /v1/my-bookings with limit/offset paging.
func (h *BookingHandler) ListMine(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    limit, offset := 20, 0
    if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
        limit = v
    }
    if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
        offset = v
    }
    list, err := h.Bookings.ListByUser(c.Request().Context(), uid, limit, offset)
    if err != nil {
        return bookingError(c, err)
    }
    resp := make([]bookingResp, 0, len(list))
    for i := range list {
        resp = append(resp, toBookingResp(&list[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": resp})
}

// GetWaitlist handles GET /v1/waitlist/:id so a queued guest can check
// whether their entry was promoted.
func (h *BookingHandler) GetWaitlist(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid waitlist id"})
    }
    entry, err := h.Waitlist.ByID(c.Request().Context(), id)
    if err != nil {
        return bookingError(c, err)
    }
    if !isStaff(c) {
        uid, ok := currentUserID(c)
        if !ok || entry.UserID == nil || *entry.UserID != uid {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    resp := toWaitlistResp(entry)
    if entry.BookingID != nil {
        return c.JSON(http.StatusOK, echo.Map{"waitlisted": resp, "booking_id": *entry.BookingID})
    }
    return c.JSON(http.StatusOK, echo.Map{"waitlisted": resp})
}

// CancelWaitlist handles DELETE /v1/waitlist/:id, removing the caller's
// queued entry.
func (h *BookingHandler) CancelWaitlist(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid waitlist id"})
    }
    entry, err := h.Waitlist.ByID(c.Request().Context(), id)
    if err != nil {
        return bookingError(c, err)
    }
    if !isStaff(c) {
        uid, ok := currentUserID(c)
        if !ok || entry.UserID == nil || *entry.UserID != uid {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    if err := h.Waitlist.Cancel(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "entry already left the queue"})
        }
        return bookingError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ----- shared helpers -----

// currentUserID coerces the JWT subject claim stored by the auth
// middleware into a numeric user ID. Numeric claims decode as float64;
// some issuers stringify them.
func currentUserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v), true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    case uint64:
        return v, true
    }
    return 0, false
}

func isStaff(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == model.RoleStaff
}

// bookingError maps engine and repository errors to HTTP responses.
// Business refusals are 409, input problems 400, contention 503.
func bookingError(c echo.Context, err error) error {
    switch {
    case booking.IsValidation(err):
        var ve *booking.ValidationError
        errors.As(err, &ve)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason})
    case errors.Is(err, availability.ErrInvalidPartySize):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, availability.ErrRestaurantClosed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant is closed on that date"})
    case errors.Is(err, availability.ErrNoCombinationAvailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no table combination can seat this party at that time"})
    case errors.Is(err, availability.ErrUnavailable), errors.Is(err, booking.ErrNoCapacity):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no capacity at requested time"})
    case errors.Is(err, booking.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, booking.ErrForbidden), errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, lock.ErrLockTimeout):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking system busy, retry shortly"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
