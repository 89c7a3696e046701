// Package booking implements the booking transaction orchestrator: it
// composes the availability computations with the distributed lock
// protocol and the storage ports to turn a booking request into a
// committed booking, a waitlist entry, or a well-defined failure.
package booking

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/restaurant-table-booking/internal/availability"
    "github.com/iliyamo/restaurant-table-booking/internal/lock"
    "github.com/iliyamo/restaurant-table-booking/internal/model"
    "github.com/iliyamo/restaurant-table-booking/internal/queue"
)

// Config tunes the orchestrator.
type Config struct {
    MaxCombineTables int // largest table combination offered
    PersistRetries   int // extra attempts after a persistence fault
}

func (c Config) withDefaults() Config {
    if c.MaxCombineTables <= 0 {
        c.MaxCombineTables = 3
    }
    if c.PersistRetries < 0 {
        c.PersistRetries = 0
    }
    return c
}

// Engine is the booking transaction orchestrator. All cross-request
// coordination goes through the lock coordinator, never in-process
// mutexes: concurrent requests may be served by different instances.
type Engine struct {
    policies PolicyStore
    tables   TableStore
    bookings BookingStore
    waitlist WaitlistStore
    locks    *lock.Coordinator
    events   Publisher
    cfg      Config
    now      func() time.Time
}

// NewEngine wires the orchestrator. The publisher may be nil when no
// broker is configured; lifecycle events are then skipped.
func NewEngine(policies PolicyStore, tables TableStore, bookings BookingStore, waitlist WaitlistStore, locks *lock.Coordinator, events Publisher, cfg Config) *Engine {
    if policies == nil || tables == nil || bookings == nil || waitlist == nil || locks == nil {
        panic("nil dependency passed to NewEngine")
    }
    return &Engine{
        policies: policies,
        tables:   tables,
        bookings: bookings,
        waitlist: waitlist,
        locks:    locks,
        events:   events,
        cfg:      cfg.withDefaults(),
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// CreateRequest is one booking attempt.
type CreateRequest struct {
    RestaurantID  uint64
    UserID        *uint64
    Date          time.Time // service date, time-of-day ignored
    StartMinute   int       // requested seating time, minutes from midnight
    PartySize     int
    CustomerName  string
    CustomerPhone string
    JoinWaitlist  bool // fall back to the waitlist when full
    OverrideCaps  bool // staff only: skip pacing caps
}

// Result is a committed booking or a waitlist receipt; exactly one
// field is set.
type Result struct {
    Booking    *model.Booking
    Waitlisted *model.WaitlistEntry
}

// CreateBooking runs the booking state machine: validate, acquire the
// window lock, re-check availability under the lock, select tables, take
// the table locks, persist, release. A persistence fault is retried a
// bounded number of times, each retry starting over with fresh lock
// acquisition. NoCapacity is a business outcome and is never retried.
func (e *Engine) CreateBooking(ctx context.Context, req CreateRequest) (*Result, error) {
    attempts := 1 + e.cfg.PersistRetries
    var lastErr error
    for i := 0; i < attempts; i++ {
        res, err := e.attempt(ctx, req)
        if err == nil {
            return res, nil
        }
        if !IsPersistence(err) {
            return nil, err
        }
        lastErr = err
        log.Printf("booking-engine: persistence fault on attempt %d/%d: %v", i+1, attempts, err)
    }
    return nil, lastErr
}

// attempt is one full pass through the state machine. Locks taken here
// are released on every exit path.
func (e *Engine) attempt(ctx context.Context, req CreateRequest) (*Result, error) {
    if req.CustomerName == "" {
        return nil, validationf("customer name is required")
    }
    date := normalizeDate(req.Date)
    if date.IsZero() {
        return nil, validationf("date is required")
    }

    pd, err := e.policies.PolicyData(ctx, req.RestaurantID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, err
        }
        return nil, &PersistenceError{Err: err}
    }
    policy, err := availability.Resolve(pd.Restaurant, pd.Hours, pd.SlotRules, pd.TurnRules, date, req.PartySize)
    if err != nil {
        return nil, err
    }
    if err := e.validateStart(policy, pd.Restaurant, date, req.StartMinute); err != nil {
        return nil, err
    }
    period := policy.PeriodAt(req.StartMinute)
    duration := period.TurnTimeFor(policy)

    // Window lock first, always; table locks only after selection.
    lease, err := e.locks.AcquireWindow(ctx, req.RestaurantID, date, req.StartMinute)
    if err != nil {
        return nil, err
    }
    defer lease.Release(context.WithoutCancel(ctx))

    // The availability shown to the user before this point was advisory.
    // Only the check taken under the lock is authoritative; a second
    // round re-verifies after the table locks close the remaining race
    // against writers serialized on a different window key.
    var selection *availability.Selection
    for round := 0; round < 2; round++ {
        snap, err := e.snapshot(ctx, req.RestaurantID, date)
        if err != nil {
            return nil, &PersistenceError{Err: err}
        }
        free := availability.CheckSlot(snap, req.StartMinute, duration, policy.Buffer)
        if !req.OverrideCaps {
            maxTables, maxCovers := policy.CapsAt(req.StartMinute)
            if free.PacingExceeded(maxTables, maxCovers, req.PartySize) {
                return e.noCapacity(ctx, pd, req, date, availability.ErrUnavailable)
            }
        }
        sel, err := availability.SelectTables(free.Tables, req.PartySize, e.cfg.MaxCombineTables)
        if err != nil {
            return e.noCapacity(ctx, pd, req, date, err)
        }
        if err := e.locks.AcquireTables(ctx, lease, req.RestaurantID, date, sel.TableIDs()); err != nil {
            return nil, err
        }
        if e.stillFree(ctx, req.RestaurantID, date, req.StartMinute, duration, policy.Buffer, sel) {
            selection = sel
            break
        }
    }
    if selection == nil {
        return e.noCapacity(ctx, pd, req, date, availability.ErrUnavailable)
    }

    status := model.BookingPending
    if pd.Restaurant.AutoConfirm {
        status = model.BookingConfirmed
    }
    b := &model.Booking{
        RestaurantID:     req.RestaurantID,
        UserID:           req.UserID,
        TableIDs:         selection.TableIDs(),
        PartySize:        req.PartySize,
        Date:             date,
        StartMinute:      req.StartMinute,
        DurationMin:      duration,
        Status:           status,
        ConfirmationCode: uuid.NewString(),
        CustomerName:     req.CustomerName,
        CustomerPhone:    req.CustomerPhone,
        CreatedAt:        e.now(),
    }
    if err := e.bookings.Create(ctx, b); err != nil {
        return nil, &PersistenceError{Err: err}
    }
    e.publish(ctx, queue.BookingCreated, b)
    return &Result{Booking: b}, nil
}

// validateStart enforces the advance-notice window and slot alignment.
func (e *Engine) validateStart(policy *availability.ResolvedPolicy, r model.Restaurant, date time.Time, startMinute int) error {
    now := e.now()
    startAt := date.Add(time.Duration(startMinute) * time.Minute)
    if startAt.Before(now) {
        return validationf("start time is in the past")
    }
    if r.MinAdvanceHours > 0 && startAt.Before(now.Add(time.Duration(r.MinAdvanceHours)*time.Hour)) {
        return validationf("bookings require at least %d hours notice", r.MinAdvanceHours)
    }
    if r.MaxAdvanceDays > 0 && startAt.After(now.AddDate(0, 0, r.MaxAdvanceDays)) {
        return validationf("bookings open at most %d days ahead", r.MaxAdvanceDays)
    }
    for _, s := range policy.SlotTimes() {
        if s == startMinute {
            return nil
        }
    }
    return validationf("start time %s is not a bookable slot", model.FormatClock(startMinute))
}

// snapshot fetches the day's tables and bookings.
func (e *Engine) snapshot(ctx context.Context, restaurantID uint64, date time.Time) (availability.Snapshot, error) {
    tables, err := e.tables.ActiveTables(ctx, restaurantID)
    if err != nil {
        return availability.Snapshot{}, err
    }
    bookings, err := e.bookings.ForDate(ctx, restaurantID, date)
    if err != nil {
        return availability.Snapshot{}, err
    }
    return availability.Snapshot{Tables: tables, Bookings: bookings}, nil
}

// stillFree re-reads the day's bookings after the table locks are held
// and confirms every selected table is still clear. A false return
// sends the caller around for one more selection round.
func (e *Engine) stillFree(ctx context.Context, restaurantID uint64, date time.Time, startMinute, duration, buffer int, sel *availability.Selection) bool {
    snap, err := e.snapshot(ctx, restaurantID, date)
    if err != nil {
        return false
    }
    free := availability.CheckSlot(snap, startMinute, duration, buffer)
    freeIDs := make(map[uint64]bool, len(free.Tables))
    for _, t := range free.Tables {
        freeIDs[t.ID] = true
    }
    for _, id := range sel.TableIDs() {
        if !freeIDs[id] {
            return false
        }
    }
    return true
}

// noCapacity resolves a full slot: append to the waitlist when the
// restaurant allows it and the caller asked, otherwise surface the
// selection failure (ErrNoCombinationAvailable stays distinguishable
// from plain ErrNoCapacity so the UI can word the refusal).
func (e *Engine) noCapacity(ctx context.Context, pd *PolicyData, req CreateRequest, date time.Time, cause error) (*Result, error) {
    if pd.Restaurant.WaitlistEnabled && req.JoinWaitlist {
        entry := &model.WaitlistEntry{
            RestaurantID:    req.RestaurantID,
            UserID:          req.UserID,
            Date:            date,
            RequestedMinute: req.StartMinute,
            PartySize:       req.PartySize,
            CustomerName:    req.CustomerName,
            CustomerPhone:   req.CustomerPhone,
            Status:          model.WaitlistQueued,
            RequestedAt:     e.now(),
        }
        if err := e.waitlist.Append(ctx, entry); err != nil {
            return nil, &PersistenceError{Err: err}
        }
        return &Result{Waitlisted: entry}, nil
    }
    if errors.Is(cause, availability.ErrNoCombinationAvailable) {
        return nil, cause
    }
    return nil, ErrNoCapacity
}

// CancelBooking transitions a booking to CANCELLED. Cancelling an
// already-cancelled booking is a no-op returning the same terminal
// state. Non-staff callers may only cancel their own bookings. A
// successful cancellation frees tables, so the waitlist is walked
// afterwards.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uint64, callerID *uint64, staff bool) (*model.Booking, error) {
    b, err := e.bookings.ByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if !staff {
        if b.UserID == nil || callerID == nil || *b.UserID != *callerID {
            return nil, ErrForbidden
        }
    }
    switch b.Status {
    case model.BookingCancelled:
        return b, nil
    case model.BookingCompleted, model.BookingNoShow:
        return nil, validationf("booking is already %s", b.Status)
    }
    if err := e.bookings.UpdateStatus(ctx, b.ID, model.BookingCancelled); err != nil {
        return nil, &PersistenceError{Err: err}
    }
    b.Status = model.BookingCancelled
    e.publish(ctx, queue.BookingCancelled, b)
    e.promoteWaitlist(ctx, b.RestaurantID, b.Date)
    return b, nil
}

// MarkNoShow flags a booking whose party never arrived, releasing its
// tables. Idempotent on repeat calls.
func (e *Engine) MarkNoShow(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    b, err := e.bookings.ByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    switch b.Status {
    case model.BookingNoShow:
        return b, nil
    case model.BookingCancelled, model.BookingCompleted:
        return nil, validationf("booking is already %s", b.Status)
    }
    if err := e.bookings.UpdateStatus(ctx, b.ID, model.BookingNoShow); err != nil {
        return nil, &PersistenceError{Err: err}
    }
    b.Status = model.BookingNoShow
    e.publish(ctx, queue.BookingUpdated, b)
    e.promoteWaitlist(ctx, b.RestaurantID, b.Date)
    return b, nil
}

// promoteWaitlist walks the date's queue in FIFO order and promotes
// every entry that now fits. Promotion runs the full locked booking
// path, so it competes fairly with live requests and cannot
// double-book. Entries that still do not fit stay queued. Best effort:
// failures are logged, never propagated to the cancelling caller.
func (e *Engine) promoteWaitlist(ctx context.Context, restaurantID uint64, date time.Time) {
    entries, err := e.waitlist.QueuedForDate(ctx, restaurantID, date)
    if err != nil {
        log.Printf("booking-engine: waitlist fetch failed: %v", err)
        return
    }
    for _, entry := range entries {
        res, err := e.CreateBooking(ctx, CreateRequest{
            RestaurantID:  entry.RestaurantID,
            UserID:        entry.UserID,
            Date:          entry.Date,
            StartMinute:   entry.RequestedMinute,
            PartySize:     entry.PartySize,
            CustomerName:  entry.CustomerName,
            CustomerPhone: entry.CustomerPhone,
        })
        if err != nil {
            continue
        }
        if res.Booking != nil {
            if err := e.waitlist.MarkPromoted(ctx, entry.ID, res.Booking.ID); err != nil {
                log.Printf("booking-engine: waitlist promote mark failed: %v", err)
            }
        }
    }
}

// publish emits a lifecycle event; failures are logged and swallowed,
// event delivery is the broadcast collaborator's concern.
func (e *Engine) publish(ctx context.Context, eventType string, b *model.Booking) {
    if e.events == nil {
        return
    }
    ev := queue.BookingEvent{
        Type:             eventType,
        BookingID:        b.ID,
        RestaurantID:     b.RestaurantID,
        UserID:           b.UserID,
        TableIDs:         b.TableIDs,
        PartySize:        b.PartySize,
        Date:             b.Date.Format("2006-01-02"),
        StartTime:        model.FormatClock(b.StartMinute),
        DurationMin:      b.DurationMin,
        Status:           b.Status,
        ConfirmationCode: b.ConfirmationCode,
        OccurredAt:       e.now().Format(time.RFC3339),
    }
    if err := e.events.PublishBookingEvent(ctx, ev); err != nil {
        log.Printf("booking-engine: publish %s failed: %v", eventType, err)
    }
}

// normalizeDate truncates to UTC midnight.
func normalizeDate(t time.Time) time.Time {
    if t.IsZero() {
        return t
    }
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
