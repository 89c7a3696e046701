package model

import "time"

// Booking statuses. A booking blocks its tables while PENDING, CONFIRMED
// or COMPLETED; CANCELLED and NO_SHOW release them.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
    BookingCompleted = "COMPLETED"
    BookingNoShow    = "NO_SHOW"
)

// Blocks reports whether a booking in the given status still occupies
// its tables for conflict checking.
func Blocks(status string) bool {
    return status != BookingCancelled && status != BookingNoShow
}

// Booking records a committed reservation of one or more tables. A
// combination books as a set: TableIDs holds every physical table in the
// party's assignment. DurationMin is the turn time resolved when the
// booking was created and is never recalculated afterwards, so later
// rule changes cannot shift existing bookings.
//
// Fields:
//  ID               – primary key identifier.
//  RestaurantID     – restaurant the booking belongs to.
//  UserID           – account that made the booking (nil for walk-ins entered by staff).
//  TableIDs         – tables assigned to the party, one or more.
//  PartySize        – number of covers.
//  Date             – service date (UTC midnight).
//  StartMinute      – seating time, minutes from midnight.
//  DurationMin      – turn time frozen at creation.
//  Status           – lifecycle state, see constants above.
//  ConfirmationCode – opaque unique code handed to the guest.
//  CustomerName     – contact name for the party.
//  CustomerPhone    – contact phone for the party.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
    ID               uint64    // bookings.id
    RestaurantID     uint64    // bookings.restaurant_id
    UserID           *uint64   // bookings.user_id (nullable)
    TableIDs         []uint64  // booking_tables.table_id rows
    PartySize        int       // bookings.party_size
    Date             time.Time // bookings.booking_date
    StartMinute      int       // bookings.start_minute
    DurationMin      int       // bookings.duration_min
    Status           string    // bookings.status
    ConfirmationCode string    // bookings.confirmation_code
    CustomerName     string    // bookings.customer_name
    CustomerPhone    string    // bookings.customer_phone
    CreatedAt        time.Time // bookings.created_at
    UpdatedAt        time.Time // bookings.updated_at
}

// EndMinute returns the minute the party's turn time ends, exclusive.
func (b Booking) EndMinute() int { return b.StartMinute + b.DurationMin }

// Overlaps reports whether the booking's occupied window intersects
// [start, end) once the booking is padded by buffer minutes on both
// sides. Buffer keeps a clear gap around every booking, so two bookings
// on one table always sit at least buffer minutes apart.
func (b Booking) Overlaps(start, end, buffer int) bool {
    return b.StartMinute-buffer < end && start < b.EndMinute()+buffer
}
