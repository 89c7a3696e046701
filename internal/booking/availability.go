package booking

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/availability"
    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// Pacing status values reported per slot.
const (
    PacingOK         = "ok"
    PacingAtCapacity = "at_capacity"
)

// TimeSlot is one bookable start time in an availability listing.
// TablesAvailable counts single tables that fit the party, or 1 when
// only a combination can seat them. PacingStatus warns guests that the
// slot is at its pacing cap; staff may still book it with an override.
type TimeSlot struct {
    Time            string `json:"time"` // HH:MM
    StartMinute     int    `json:"start_minute"`
    TablesAvailable int    `json:"tables_available"`
    PacingStatus    string `json:"pacing_status"`
}

// GetAvailability lists the start times with capacity for the party on
// the date. The listing is advisory; only the re-check inside
// CreateBooking's lock is authoritative. A closed day degrades to an
// empty list rather than an error, so the widget renders "no slots"
// instead of failing.
func (e *Engine) GetAvailability(ctx context.Context, restaurantID uint64, date time.Time, partySize int) ([]TimeSlot, error) {
    pd, err := e.policies.PolicyData(ctx, restaurantID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, err
        }
        return nil, &PersistenceError{Err: err}
    }
    day := normalizeDate(date)
    policy, err := availability.Resolve(pd.Restaurant, pd.Hours, pd.SlotRules, pd.TurnRules, day, partySize)
    if err != nil {
        if errors.Is(err, availability.ErrRestaurantClosed) {
            return []TimeSlot{}, nil
        }
        return nil, err
    }

    snap, err := e.snapshot(ctx, restaurantID, day)
    if err != nil {
        return nil, &PersistenceError{Err: err}
    }

    slots := make([]TimeSlot, 0)
    for _, start := range policy.SlotTimes() {
        period := policy.PeriodAt(start)
        if period == nil {
            continue
        }
        duration := period.TurnTimeFor(policy)
        free := availability.CheckSlot(snap, start, duration, policy.Buffer)
        n := availability.FitCount(free.Tables, partySize, e.cfg.MaxCombineTables)
        if n == 0 {
            continue
        }
        pacing := PacingOK
        maxTables, maxCovers := policy.CapsAt(start)
        if free.PacingExceeded(maxTables, maxCovers, partySize) {
            pacing = PacingAtCapacity
        }
        slots = append(slots, TimeSlot{
            Time:            model.FormatClock(start),
            StartMinute:     start,
            TablesAvailable: n,
            PacingStatus:    pacing,
        })
    }
    return slots, nil
}
