package booking

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-table-booking/internal/availability"
    "github.com/iliyamo/restaurant-table-booking/internal/lock"
    "github.com/iliyamo/restaurant-table-booking/internal/model"
    "github.com/iliyamo/restaurant-table-booking/internal/queue"
)

// Friday 2026-09-04, booked from the Tuesday before.
var (
    testDate = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
    testNow  = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

// ----- in-memory ports -----

type fakePolicies struct {
    mu sync.Mutex
    pd PolicyData
}

func (f *fakePolicies) PolicyData(_ context.Context, _ uint64) (*PolicyData, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    pd := f.pd
    return &pd, nil
}

func (f *fakePolicies) setTurnRules(rules []model.TurnTimeRule) {
    f.mu.Lock()
    f.pd.TurnRules = rules
    f.mu.Unlock()
}

type fakeTables struct{ tables []model.Table }

func (f *fakeTables) ActiveTables(_ context.Context, _ uint64) ([]model.Table, error) {
    return append([]model.Table(nil), f.tables...), nil
}

type fakeBookings struct {
    mu    sync.Mutex
    seq   uint64
    items map[uint64]model.Booking
}

func newFakeBookings() *fakeBookings { return &fakeBookings{items: make(map[uint64]model.Booking)} }

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.seq++
    b.ID = f.seq
    f.items[b.ID] = *b
    return nil
}

func (f *fakeBookings) ForDate(_ context.Context, restaurantID uint64, date time.Time) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Booking
    for _, b := range f.items {
        if b.RestaurantID == restaurantID && b.Date.Equal(date) {
            out = append(out, b)
        }
    }
    return out, nil
}

func (f *fakeBookings) ByID(_ context.Context, id uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.items[id]
    if !ok {
        return nil, ErrNotFound
    }
    return &b, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uint64, status string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.items[id]
    if !ok {
        return ErrNotFound
    }
    b.Status = status
    f.items[id] = b
    return nil
}

type fakeWaitlist struct {
    mu      sync.Mutex
    seq     uint64
    entries []model.WaitlistEntry
}

func (f *fakeWaitlist) Append(_ context.Context, e *model.WaitlistEntry) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.seq++
    e.ID = f.seq
    f.entries = append(f.entries, *e)
    return nil
}

func (f *fakeWaitlist) QueuedForDate(_ context.Context, restaurantID uint64, date time.Time) ([]model.WaitlistEntry, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.WaitlistEntry
    for _, e := range f.entries {
        if e.RestaurantID == restaurantID && e.Date.Equal(date) && e.Status == model.WaitlistQueued {
            out = append(out, e)
        }
    }
    return out, nil
}

func (f *fakeWaitlist) ByID(_ context.Context, id uint64) (*model.WaitlistEntry, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, e := range f.entries {
        if e.ID == id {
            return &e, nil
        }
    }
    return nil, ErrNotFound
}

func (f *fakeWaitlist) MarkPromoted(_ context.Context, id, bookingID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := range f.entries {
        if f.entries[i].ID == id {
            f.entries[i].Status = model.WaitlistPromoted
            f.entries[i].BookingID = &bookingID
            return nil
        }
    }
    return ErrNotFound
}

type capturePublisher struct {
    mu     sync.Mutex
    events []queue.BookingEvent
}

func (p *capturePublisher) PublishBookingEvent(_ context.Context, ev queue.BookingEvent) error {
    p.mu.Lock()
    p.events = append(p.events, ev)
    p.mu.Unlock()
    return nil
}

func (p *capturePublisher) types() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]string, len(p.events))
    for i, ev := range p.events {
        out[i] = ev.Type
    }
    return out
}

// ----- fixture -----

type fixture struct {
    engine   *Engine
    policies *fakePolicies
    bookings *fakeBookings
    waitlist *fakeWaitlist
    events   *capturePublisher
}

// newFixture builds an engine over a restaurant open Friday 17:00-22:00
// with 30-minute slots and a 120-minute default turn.
func newFixture(t *testing.T, tables []model.Table, mutate func(*model.Restaurant)) *fixture {
    t.Helper()
    r := model.Restaurant{
        ID:                 1,
        Name:               "Trattoria",
        SlotDurationMin:    30,
        DefaultTurnTimeMin: 120,
        MaxPartySize:       12,
        MaxAdvanceDays:     30,
        AutoConfirm:        true,
    }
    if mutate != nil {
        mutate(&r)
    }
    policies := &fakePolicies{pd: PolicyData{
        Restaurant: r,
        Hours: []model.ServicePeriod{
            {ID: 1, RestaurantID: 1, Weekday: time.Friday, Name: "Dinner", StartMinute: 17 * 60, EndMinute: 22 * 60},
        },
    }}
    bookings := newFakeBookings()
    waitlist := &fakeWaitlist{}
    events := &capturePublisher{}
    locks := lock.NewCoordinator(lock.NewMemStore(), lock.Options{
        TTL:       time.Second,
        MaxWait:   2 * time.Second,
        BaseDelay: time.Millisecond,
        MaxDelay:  5 * time.Millisecond,
    })
    eng := NewEngine(policies, &fakeTables{tables: tables}, bookings, waitlist, locks, events, Config{})
    eng.now = func() time.Time { return testNow }
    return &fixture{engine: eng, policies: policies, bookings: bookings, waitlist: waitlist, events: events}
}

func oneFourTop() []model.Table {
    return []model.Table{{ID: 1, RestaurantID: 1, Label: "T1", MinCapacity: 1, MaxCapacity: 4, IsActive: true}}
}

func createReq(startMinute int) CreateRequest {
    uid := uint64(7)
    return CreateRequest{
        RestaurantID: 1,
        UserID:       &uid,
        Date:         testDate,
        StartMinute:  startMinute,
        PartySize:    4,
        CustomerName: "Ada",
    }
}

// ----- tests -----

func TestAvailabilityScenarioSingleTable(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    slots, err := fx.engine.GetAvailability(ctx, 1, testDate, 4)
    require.NoError(t, err)
    // 17:00 through 20:00: the last start is the one whose full turn
    // ends exactly at close (20:00+120=22:00).
    require.Len(t, slots, 7)
    assert.Equal(t, "17:00", slots[0].Time)
    assert.Equal(t, "20:00", slots[6].Time)
    for _, s := range slots {
        assert.Equal(t, 1, s.TablesAvailable, s.Time)
        assert.Equal(t, PacingOK, s.PacingStatus, s.Time)
    }

    res, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)
    require.NotNil(t, res.Booking)
    assert.Equal(t, model.BookingConfirmed, res.Booking.Status)
    assert.Equal(t, 120, res.Booking.DurationMin)
    assert.NotEmpty(t, res.Booking.ConfirmationCode)

    slots, err = fx.engine.GetAvailability(ctx, 1, testDate, 4)
    require.NoError(t, err)
    // The table is occupied 18:00-20:00; with no buffer only the slot
    // starting at the occupancy's end survives.
    require.Len(t, slots, 1)
    assert.Equal(t, "20:00", slots[0].Time)
}

func TestAvailabilityClosedDayIsEmpty(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    slots, err := fx.engine.GetAvailability(context.Background(), 1, testDate.AddDate(0, 0, 1), 4)
    require.NoError(t, err)
    assert.Empty(t, slots)
}

func TestAvailabilityBufferWidensOccupancy(t *testing.T) {
    fx := newFixture(t, oneFourTop(), func(r *model.Restaurant) { r.BufferTimeMin = 30 })
    ctx := context.Background()

    _, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)

    slots, err := fx.engine.GetAvailability(ctx, 1, testDate, 4)
    require.NoError(t, err)
    // Occupied 18:00-20:00 padded to 17:30-20:30: no remaining slot
    // clears both the pad and closing time.
    assert.Empty(t, slots)
}

func TestCreateBookingConcurrentSingleWinner(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    const workers = 8
    var wg sync.WaitGroup
    results := make([]error, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, results[i] = fx.engine.CreateBooking(ctx, createReq(18*60))
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range results {
        if err == nil {
            wins++
        } else {
            assert.ErrorIs(t, err, ErrNoCapacity)
        }
    }
    assert.Equal(t, 1, wins, "exactly one concurrent request may take the table")
    fx.bookings.mu.Lock()
    assert.Len(t, fx.bookings.items, 1)
    fx.bookings.mu.Unlock()
}

func TestCreateBookingValidation(t *testing.T) {
    fx := newFixture(t, oneFourTop(), func(r *model.Restaurant) {
        r.MinAdvanceHours = 2
        r.MaxAdvanceDays = 10
    })
    ctx := context.Background()

    cases := []struct {
        name   string
        mutate func(*CreateRequest)
    }{
        {"missing name", func(r *CreateRequest) { r.CustomerName = "" }},
        {"zero date", func(r *CreateRequest) { r.Date = time.Time{} }},
        {"past start", func(r *CreateRequest) { r.Date = testDate.AddDate(0, 0, -7) }},
        {"inside min advance", func(r *CreateRequest) {
            // Booking for "today" one hour out violates the 2-hour notice.
            r.Date = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
            r.StartMinute = 17 * 60
            // engine now is overridden below
        }},
        {"beyond max advance", func(r *CreateRequest) { r.Date = testDate.AddDate(0, 0, 21) }},
        {"off the slot grid", func(r *CreateRequest) { r.StartMinute = 18*60 + 10 }},
        {"before opening", func(r *CreateRequest) { r.StartMinute = 12 * 60 }},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            req := createReq(18 * 60)
            tc.mutate(&req)
            if tc.name == "inside min advance" {
                fx.engine.now = func() time.Time { return time.Date(2026, 9, 4, 16, 0, 0, 0, time.UTC) }
                defer func() { fx.engine.now = func() time.Time { return testNow } }()
            }
            _, err := fx.engine.CreateBooking(ctx, req)
            assert.True(t, IsValidation(err), "want validation error, got %v", err)
        })
    }
}

func TestCreateBookingInvalidPartySize(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    req := createReq(18 * 60)
    req.PartySize = 13
    _, err := fx.engine.CreateBooking(context.Background(), req)
    assert.ErrorIs(t, err, availability.ErrInvalidPartySize)
}

func TestCreateBookingPendingWithoutAutoConfirm(t *testing.T) {
    fx := newFixture(t, oneFourTop(), func(r *model.Restaurant) { r.AutoConfirm = false })
    res, err := fx.engine.CreateBooking(context.Background(), createReq(18*60))
    require.NoError(t, err)
    assert.Equal(t, model.BookingPending, res.Booking.Status)
}

func TestCreateBookingCombination(t *testing.T) {
    tables := []model.Table{
        {ID: 1, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 2, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 3, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    fx := newFixture(t, tables, nil)
    req := createReq(18 * 60)
    req.PartySize = 5
    res, err := fx.engine.CreateBooking(context.Background(), req)
    require.NoError(t, err)
    assert.Equal(t, []uint64{1, 2, 3}, res.Booking.TableIDs)

    // The combination books as a set: nothing is left for anyone else.
    req2 := createReq(18 * 60)
    req2.PartySize = 2
    _, err = fx.engine.CreateBooking(context.Background(), req2)
    assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestCreateBookingNoCombinationError(t *testing.T) {
    tables := []model.Table{
        {ID: 1, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 2, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    fx := newFixture(t, tables, nil)
    req := createReq(18 * 60)
    req.PartySize = 7
    _, err := fx.engine.CreateBooking(context.Background(), req)
    assert.ErrorIs(t, err, availability.ErrNoCombinationAvailable)
}

func TestPacingCapAndStaffOverride(t *testing.T) {
    tables := []model.Table{
        {ID: 1, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 4, IsActive: true},
        {ID: 2, RestaurantID: 1, MinCapacity: 1, MaxCapacity: 4, IsActive: true},
    }
    fx := newFixture(t, tables, func(r *model.Restaurant) { r.MaxConcurrentTables = intPtr(1) })
    ctx := context.Background()

    _, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)

    // Second party at the same instant exceeds the 1-table pacing cap
    // even though a physical table is free.
    req := createReq(18 * 60)
    req.CustomerName = "Grace"
    _, err = fx.engine.CreateBooking(ctx, req)
    assert.ErrorIs(t, err, ErrNoCapacity)

    // Staff override skips pacing but never physical conflicts.
    req.OverrideCaps = true
    res, err := fx.engine.CreateBooking(ctx, req)
    require.NoError(t, err)
    assert.Equal(t, []uint64{2}, res.Booking.TableIDs)

    req2 := createReq(18 * 60)
    req2.OverrideCaps = true
    _, err = fx.engine.CreateBooking(ctx, req2)
    assert.ErrorIs(t, err, ErrNoCapacity, "override does not conjure tables")
}

func TestCancelBooking(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    res, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)
    id := res.Booking.ID
    owner := res.Booking.UserID

    stranger := uint64(99)
    _, err = fx.engine.CancelBooking(ctx, id, &stranger, false)
    assert.ErrorIs(t, err, ErrForbidden)

    b, err := fx.engine.CancelBooking(ctx, id, owner, false)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, b.Status)

    // Idempotent: repeating returns the same terminal state.
    again, err := fx.engine.CancelBooking(ctx, id, owner, false)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, again.Status)

    // The freed table is bookable again.
    res2, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)
    assert.NotEqual(t, id, res2.Booking.ID)
}

func TestCancelCompletedBookingRejected(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    res, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)
    require.NoError(t, fx.bookings.UpdateStatus(ctx, res.Booking.ID, model.BookingCompleted))

    _, err = fx.engine.CancelBooking(ctx, res.Booking.ID, res.Booking.UserID, false)
    assert.True(t, IsValidation(err))
}

func TestMarkNoShow(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    res, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)

    b, err := fx.engine.MarkNoShow(ctx, res.Booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingNoShow, b.Status)

    again, err := fx.engine.MarkNoShow(ctx, res.Booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingNoShow, again.Status)

    assert.Equal(t, []string{queue.BookingCreated, queue.BookingUpdated}, fx.events.types())
}

func TestWaitlistFallbackAndPromotion(t *testing.T) {
    fx := newFixture(t, oneFourTop(), func(r *model.Restaurant) { r.WaitlistEnabled = true })
    ctx := context.Background()

    first, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)

    req := createReq(18 * 60)
    req.CustomerName = "Grace"
    req.JoinWaitlist = true
    res, err := fx.engine.CreateBooking(ctx, req)
    require.NoError(t, err)
    require.NotNil(t, res.Waitlisted)
    assert.Nil(t, res.Booking)
    assert.Equal(t, model.WaitlistQueued, res.Waitlisted.Status)

    // Cancelling the blocker promotes the queued party onto the table.
    _, err = fx.engine.CancelBooking(ctx, first.Booking.ID, first.Booking.UserID, false)
    require.NoError(t, err)

    entry, err := fx.waitlist.ByID(ctx, res.Waitlisted.ID)
    require.NoError(t, err)
    assert.Equal(t, model.WaitlistPromoted, entry.Status)
    require.NotNil(t, entry.BookingID)

    promoted, err := fx.bookings.ByID(ctx, *entry.BookingID)
    require.NoError(t, err)
    assert.Equal(t, "Grace", promoted.CustomerName)
    assert.Equal(t, 18*60, promoted.StartMinute)
}

func TestWaitlistNotOfferedWhenDisabled(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    _, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)

    req := createReq(18 * 60)
    req.JoinWaitlist = true
    _, err = fx.engine.CreateBooking(ctx, req)
    assert.ErrorIs(t, err, ErrNoCapacity)
    fx.waitlist.mu.Lock()
    assert.Empty(t, fx.waitlist.entries)
    fx.waitlist.mu.Unlock()
}

func TestDurationFrozenAfterRuleChange(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    ctx := context.Background()

    res, err := fx.engine.CreateBooking(ctx, createReq(18*60))
    require.NoError(t, err)
    assert.Equal(t, 120, res.Booking.DurationMin)

    // Shorten the turn time for this party size after the fact.
    fx.policies.setTurnRules([]model.TurnTimeRule{
        {ID: 1, RestaurantID: 1, MinPartySize: 1, MaxPartySize: 12, TurnTimeMin: 60, Priority: 1, IsActive: true},
    })

    // The stored booking keeps its frozen duration and still blocks the
    // table for the full original window.
    b, err := fx.bookings.ByID(ctx, res.Booking.ID)
    require.NoError(t, err)
    assert.Equal(t, 120, b.DurationMin)

    slots, err := fx.engine.GetAvailability(ctx, 1, testDate, 4)
    require.NoError(t, err)
    for _, s := range slots {
        occupied := s.StartMinute < 20*60 && s.StartMinute+60 > 18*60
        assert.False(t, occupied, "slot %s should not be offered inside the frozen window", s.Time)
    }
}

func TestCreateBookingPersistenceRetry(t *testing.T) {
    fx := newFixture(t, oneFourTop(), nil)
    flaky := &flakyBookings{fakeBookings: fx.bookings, failures: 1}
    eng := NewEngine(fx.policies, &fakeTables{tables: oneFourTop()}, flaky, fx.waitlist,
        lock.NewCoordinator(lock.NewMemStore(), lock.Options{
            TTL: time.Second, MaxWait: time.Second, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond,
        }), fx.events, Config{PersistRetries: 2})
    eng.now = func() time.Time { return testNow }

    res, err := eng.CreateBooking(context.Background(), createReq(18*60))
    require.NoError(t, err, "one transient fault is absorbed by the retry budget")
    assert.NotZero(t, res.Booking.ID)
}

func TestUnknownRestaurantSkipsRetry(t *testing.T) {
    // A missing restaurant is a terminal answer, not a storage fault:
    // the sentinel surfaces on the first attempt instead of burning the
    // persistence retry budget.
    missing := &missingPolicies{}
    eng := NewEngine(missing, &fakeTables{tables: oneFourTop()}, newFakeBookings(), &fakeWaitlist{},
        lock.NewCoordinator(lock.NewMemStore(), lock.Options{
            TTL: time.Second, MaxWait: time.Second, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond,
        }), &capturePublisher{}, Config{PersistRetries: 2})
    eng.now = func() time.Time { return testNow }

    _, err := eng.CreateBooking(context.Background(), createReq(18*60))
    require.ErrorIs(t, err, ErrNotFound)
    assert.False(t, IsPersistence(err))
    assert.Equal(t, 1, missing.calls, "not-found must not be retried")

    _, err = eng.GetAvailability(context.Background(), 99, testDate, 2)
    require.ErrorIs(t, err, ErrNotFound)
    assert.False(t, IsPersistence(err))
}

type missingPolicies struct {
    mu    sync.Mutex
    calls int
}

func (f *missingPolicies) PolicyData(_ context.Context, _ uint64) (*PolicyData, error) {
    f.mu.Lock()
    f.calls++
    f.mu.Unlock()
    return nil, ErrNotFound
}

type flakyBookings struct {
    *fakeBookings
    mu       sync.Mutex
    failures int
}

func (f *flakyBookings) Create(ctx context.Context, b *model.Booking) error {
    f.mu.Lock()
    if f.failures > 0 {
        f.failures--
        f.mu.Unlock()
        return errors.New("simulated write fault")
    }
    f.mu.Unlock()
    return f.fakeBookings.Create(ctx, b)
}
