package model

import "time"

// Restaurant carries the booking policy defaults the availability engine
// reads for a venue. Per-period and per-party-size overrides live in
// TimeSlotRule and TurnTimeRule; everything here is the fallback.
//
// Fields:
//  ID                  – primary key identifier.
//  Name                – display name of the venue.
//  SlotDurationMin     – default spacing between candidate start times.
//  DefaultTurnTimeMin  – default minutes a party occupies a table.
//  BufferTimeMin       – clear margin required around every booking window.
//  MinAdvanceHours     – bookings must start at least this many hours out.
//  MaxAdvanceDays      – bookings may not start further out than this.
//  MaxPartySize        – largest party accepted at all.
//  MaxConcurrentTables – pacing cap on tables newly seated in one slot (nil = uncapped).
//  MaxConcurrentCovers – pacing cap on covers newly seated in one slot (nil = uncapped).
//  AutoConfirm         – whether new bookings commit as CONFIRMED instead of PENDING.
//  WaitlistEnabled     – whether full slots may fall back to the waitlist.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Restaurant struct {
    ID                  uint64    // restaurants.id
    Name                string    // restaurants.name
    SlotDurationMin     int       // restaurants.slot_duration_min
    DefaultTurnTimeMin  int       // restaurants.default_turn_time_min
    BufferTimeMin       int       // restaurants.buffer_time_min
    MinAdvanceHours     int       // restaurants.min_advance_hours
    MaxAdvanceDays      int       // restaurants.max_advance_days
    MaxPartySize        int       // restaurants.max_party_size
    MaxConcurrentTables *int      // restaurants.max_concurrent_tables (nullable)
    MaxConcurrentCovers *int      // restaurants.max_concurrent_covers (nullable)
    AutoConfirm         bool      // restaurants.auto_confirm
    WaitlistEnabled     bool      // restaurants.waitlist_enabled
    CreatedAt           time.Time // restaurants.created_at
    UpdatedAt           time.Time // restaurants.updated_at
}

// ServicePeriod is one named block of opening hours on a weekday, e.g.
// "Dinner" on Friday from 17:00 to 22:00. A weekday may carry several
// periods (lunch and dinner). Times are minutes from midnight.
//
// Fields:
//  ID              – primary key identifier.
//  RestaurantID    – owning restaurant.
//  Weekday         – day of week this period applies to.
//  Name            – label shown to staff ("Lunch", "Dinner").
//  StartMinute     – period opens, minutes from midnight.
//  EndMinute       – period closes, minutes from midnight.
//  SlotDurationMin – optional per-period slot spacing override (nil = restaurant default).
type ServicePeriod struct {
    ID              uint64       // restaurant_hours.id
    RestaurantID    uint64       // restaurant_hours.restaurant_id
    Weekday         time.Weekday // restaurant_hours.weekday (0=Sunday)
    Name            string       // restaurant_hours.name
    StartMinute     int          // restaurant_hours.start_time (TIME, parsed to minutes)
    EndMinute       int          // restaurant_hours.end_time (TIME, parsed to minutes)
    SlotDurationMin *int         // restaurant_hours.slot_duration_min (nullable)
}
