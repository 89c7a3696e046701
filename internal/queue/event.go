package queue

// Booking lifecycle event types, used as routing keys.
const (
    BookingCreated   = "booking.created"
    BookingCancelled = "booking.cancelled"
    BookingUpdated   = "booking.updated"
)

// BookingEvent is published whenever a booking changes state. It carries
// enough information for downstream consumers (dashboards, notification
// senders) to log, notify, or trigger analytics without querying the
// primary database.
type BookingEvent struct {
    Type             string   `json:"type"`
    BookingID        uint64   `json:"booking_id"`
    RestaurantID     uint64   `json:"restaurant_id"`
    UserID           *uint64  `json:"user_id,omitempty"`
    TableIDs         []uint64 `json:"table_ids"`
    PartySize        int      `json:"party_size"`
    Date             string   `json:"date"`       // YYYY-MM-DD
    StartTime        string   `json:"start_time"` // HH:MM
    DurationMin      int      `json:"duration_min"`
    Status           string   `json:"status"`
    ConfirmationCode string   `json:"confirmation_code"`
    OccurredAt       string   `json:"occurred_at"` // RFC3339
}
