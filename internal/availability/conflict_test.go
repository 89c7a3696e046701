package availability

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

func twoTables() []model.Table {
    return []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 4, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 4, IsActive: true},
    }
}

func TestCheckSlotBufferBothSides(t *testing.T) {
    // Booking on table 1 at 18:00 for 120 minutes with a 15-minute
    // buffer blocks the table for [17:45, 20:15).
    snap := Snapshot{
        Tables: twoTables(),
        Bookings: []model.Booking{
            {ID: 10, TableIDs: []uint64{1}, PartySize: 2, StartMinute: 18 * 60, DurationMin: 120, Status: model.BookingConfirmed},
        },
    }

    cases := []struct {
        name  string
        start int
        free1 bool
    }{
        {"well before", 15 * 60, true},
        {"ends exactly at buffered start", 15*60 + 45, true}, // 15:45+120 = 17:45
        {"one minute into buffer", 15*60 + 46, false},
        {"inside booking", 18 * 60, false},
        {"starts at buffered end", 20*60 + 15, true},
        {"one minute before buffered end", 20*60 + 14, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            free := CheckSlot(snap, tc.start, 120, 15)
            ids := make(map[uint64]bool)
            for _, tab := range free.Tables {
                ids[tab.ID] = true
            }
            assert.Equal(t, tc.free1, ids[1], "table 1")
            assert.True(t, ids[2], "table 2 is never blocked")
        })
    }
}

func TestCheckSlotCancelledAndNoShowFreeTables(t *testing.T) {
    snap := Snapshot{
        Tables: twoTables(),
        Bookings: []model.Booking{
            {ID: 10, TableIDs: []uint64{1}, PartySize: 2, StartMinute: 18 * 60, DurationMin: 120, Status: model.BookingCancelled},
            {ID: 11, TableIDs: []uint64{2}, PartySize: 2, StartMinute: 18 * 60, DurationMin: 120, Status: model.BookingNoShow},
        },
    }
    free := CheckSlot(snap, 18*60, 120, 15)
    assert.Len(t, free.Tables, 2)
    assert.Zero(t, free.TablesStarting)
    assert.Zero(t, free.CoversStarting)
}

func TestCheckSlotInactiveTableExcluded(t *testing.T) {
    tables := twoTables()
    tables[1].IsActive = false
    free := CheckSlot(Snapshot{Tables: tables}, 18*60, 90, 0)
    require.Len(t, free.Tables, 1)
    assert.Equal(t, uint64(1), free.Tables[0].ID)
}

func TestCheckSlotStartingCounts(t *testing.T) {
    snap := Snapshot{
        Tables: twoTables(),
        Bookings: []model.Booking{
            {ID: 10, TableIDs: []uint64{1}, PartySize: 2, StartMinute: 18 * 60, DurationMin: 120, Status: model.BookingConfirmed},
            {ID: 11, TableIDs: []uint64{2, 3}, PartySize: 6, StartMinute: 18 * 60, DurationMin: 120, Status: model.BookingPending},
            {ID: 12, TableIDs: []uint64{4}, PartySize: 4, StartMinute: 18*60 + 30, DurationMin: 120, Status: model.BookingConfirmed},
        },
    }
    free := CheckSlot(snap, 18*60, 120, 0)
    // Only bookings seated exactly at the slot count toward pacing.
    assert.Equal(t, 3, free.TablesStarting)
    assert.Equal(t, 8, free.CoversStarting)
}

func TestPacingExceeded(t *testing.T) {
    free := FreeSet{TablesStarting: 2, CoversStarting: 6}

    assert.False(t, free.PacingExceeded(nil, nil, 4), "nil caps never limit")
    assert.False(t, free.PacingExceeded(intPtr(3), nil, 4))
    assert.True(t, free.PacingExceeded(intPtr(2), nil, 4))
    assert.False(t, free.PacingExceeded(nil, intPtr(10), 4))
    assert.True(t, free.PacingExceeded(nil, intPtr(9), 4))
}
