package availability

import "github.com/iliyamo/restaurant-table-booking/internal/model"

// Snapshot is the day's data the conflict checker works over: the
// restaurant's tables and every booking on the date. Callers fetch it
// once per request; inside the booking lock it is re-fetched so the
// authoritative check sees the latest committed rows.
type Snapshot struct {
    Tables   []model.Table
    Bookings []model.Booking
}

// FreeSet is the outcome of checking one candidate slot: every active
// table with no conflicting booking across the buffered window, plus the
// counts pacing evaluation needs.
type FreeSet struct {
    StartMinute    int
    DurationMin    int
    Tables         []model.Table
    TablesStarting int // tables taken by bookings seated exactly at StartMinute
    CoversStarting int // covers seated exactly at StartMinute
}

// CheckSlot computes which tables are free for a booking of durationMin
// minutes starting at startMin. A table is busy if any blocking booking
// on it, padded by buffer minutes on both sides, intersects the
// candidate window. Capacity is NOT filtered here; the selector needs
// small free tables for combinations, and availability counts need the
// full free set.
func CheckSlot(snap Snapshot, startMin, durationMin, buffer int) FreeSet {
    free := FreeSet{StartMinute: startMin, DurationMin: durationMin}
    end := startMin + durationMin

    busy := make(map[uint64]bool)
    for _, b := range snap.Bookings {
        if !model.Blocks(b.Status) {
            continue
        }
        if b.StartMinute == startMin {
            free.TablesStarting += len(b.TableIDs)
            free.CoversStarting += b.PartySize
        }
        if b.Overlaps(startMin, end, buffer) {
            for _, id := range b.TableIDs {
                busy[id] = true
            }
        }
    }

    for _, t := range snap.Tables {
        if t.IsActive && !busy[t.ID] {
            free.Tables = append(free.Tables, t)
        }
    }
    return free
}

// PacingExceeded reports whether admitting one more booking of partySize
// covers at this slot would break either cap. A nil cap is uncapped.
// Staff callers skip this check when overriding.
func (f FreeSet) PacingExceeded(maxTables, maxCovers *int, partySize int) bool {
    if maxTables != nil && f.TablesStarting+1 > *maxTables {
        return true
    }
    if maxCovers != nil && f.CoversStarting+partySize > *maxCovers {
        return true
    }
    return false
}
