package booking

import (
    "context"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
    "github.com/iliyamo/restaurant-table-booking/internal/queue"
)

// The engine talks to storage and the broker through these narrow
// ports. The MySQL repositories satisfy them in production; the tests
// run the full orchestrator over in-memory implementations.

// PolicyData bundles every row the configuration resolver needs for one
// restaurant, fetched in a single round through the repository.
type PolicyData struct {
    Restaurant model.Restaurant
    Hours      []model.ServicePeriod
    SlotRules  []model.TimeSlotRule
    TurnRules  []model.TurnTimeRule
}

// PolicyStore loads restaurant policy rows. Implementations may cache
// with a short TTL; the engine re-reads per request and never holds
// policy as process-wide mutable state.
type PolicyStore interface {
    PolicyData(ctx context.Context, restaurantID uint64) (*PolicyData, error)
}

// TableStore loads the restaurant's table inventory.
type TableStore interface {
    ActiveTables(ctx context.Context, restaurantID uint64) ([]model.Table, error)
}

// BookingStore persists bookings. Create must write the booking and its
// table set atomically.
type BookingStore interface {
    ForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.Booking, error)
    Create(ctx context.Context, b *model.Booking) error
    ByID(ctx context.Context, id uint64) (*model.Booking, error)
    UpdateStatus(ctx context.Context, id uint64, status string) error
}

// WaitlistStore persists waitlist entries FIFO by request time.
type WaitlistStore interface {
    Append(ctx context.Context, e *model.WaitlistEntry) error
    QueuedForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.WaitlistEntry, error)
    ByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error)
    MarkPromoted(ctx context.Context, id, bookingID uint64) error
}

// Publisher emits booking lifecycle events to the broadcast
// collaborator. Delivery semantics are the collaborator's problem; the
// engine treats publish failures as non-fatal.
type Publisher interface {
    PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}
