package model

import "time"

// Waitlist entry statuses.
const (
    WaitlistQueued    = "QUEUED"
    WaitlistPromoted  = "PROMOTED"
    WaitlistCancelled = "CANCELLED"
)

// WaitlistEntry queues a booking request that found no capacity. Entries
// are strictly FIFO by RequestedAt; when a cancellation frees tables the
// engine walks the queue in order and promotes whatever now fits.
//
// Fields:
//  ID              – primary key identifier.
//  RestaurantID    – restaurant the request targets.
//  UserID          – account that asked to be waitlisted (nullable).
//  Date            – requested service date (UTC midnight).
//  RequestedMinute – requested seating time, minutes from midnight.
//  PartySize       – number of covers.
//  CustomerName    – contact name for the party.
//  CustomerPhone   – contact phone for the party.
//  Status          – QUEUED, PROMOTED or CANCELLED.
//  BookingID       – booking created on promotion (nullable).
//  RequestedAt     – request timestamp, FIFO ordering key.
type WaitlistEntry struct {
    ID              uint64    // waitlist_entries.id
    RestaurantID    uint64    // waitlist_entries.restaurant_id
    UserID          *uint64   // waitlist_entries.user_id (nullable)
    Date            time.Time // waitlist_entries.booking_date
    RequestedMinute int       // waitlist_entries.requested_minute
    PartySize       int       // waitlist_entries.party_size
    CustomerName    string    // waitlist_entries.customer_name
    CustomerPhone   string    // waitlist_entries.customer_phone
    Status          string    // waitlist_entries.status
    BookingID       *uint64   // waitlist_entries.booking_id (nullable)
    RequestedAt     time.Time // waitlist_entries.requested_at
}
