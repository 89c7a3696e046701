package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// WaitlistRepo provides CRUD operations for waitlist entries. Entries
// are ordered strictly by requested_at so promotion stays FIFO.
type WaitlistRepo struct {
    db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Append inserts a new queued entry and populates its generated ID and
// request timestamp.
func (r *WaitlistRepo) Append(ctx context.Context, e *model.WaitlistEntry) error {
    const q = `INSERT INTO waitlist_entries (restaurant_id, user_id, booking_date, requested_minute,
                                             party_size, customer_name, customer_phone, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q, e.RestaurantID, e.UserID,
        e.Date.UTC().Format("2006-01-02"), e.RequestedMinute, e.PartySize,
        e.CustomerName, e.CustomerPhone, model.WaitlistQueued)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    e.Status = model.WaitlistQueued
    const sel = `SELECT requested_at FROM waitlist_entries WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, e.ID).Scan(&e.RequestedAt)
}

// QueuedForDate returns the still-queued entries for a restaurant and
// service date in FIFO order.
func (r *WaitlistRepo) QueuedForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.WaitlistEntry, error) {
    const q = `SELECT id, restaurant_id, user_id, booking_date, requested_minute, party_size,
                      customer_name, customer_phone, status, booking_id, requested_at
               FROM waitlist_entries
               WHERE restaurant_id = ? AND booking_date = ? AND status = ?
               ORDER BY requested_at, id`
    rows, err := r.db.QueryContext(ctx, q, restaurantID, date.UTC().Format("2006-01-02"), model.WaitlistQueued)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var entries []model.WaitlistEntry
    for rows.Next() {
        e, err := scanWaitlistEntry(rows)
        if err != nil {
            return nil, err
        }
        entries = append(entries, *e)
    }
    return entries, rows.Err()
}

// ByID fetches a single waitlist entry.
func (r *WaitlistRepo) ByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
    const q = `SELECT id, restaurant_id, user_id, booking_date, requested_minute, party_size,
                      customer_name, customer_phone, status, booking_id, requested_at
               FROM waitlist_entries WHERE id = ?`
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    if !rows.Next() {
        if err := rows.Err(); err != nil {
            return nil, err
        }
        return nil, ErrNotFound
    }
    return scanWaitlistEntry(rows)
}

// MarkPromoted transitions a queued entry to PROMOTED and links the
// booking created for it. Entries already out of the queue are left
// untouched and reported as ErrConflict.
func (r *WaitlistRepo) MarkPromoted(ctx context.Context, id, bookingID uint64) error {
    const q = `UPDATE waitlist_entries SET status = ?, booking_id = ?
               WHERE id = ? AND status = ?`
    result, err := r.db.ExecContext(ctx, q, model.WaitlistPromoted, bookingID, id, model.WaitlistQueued)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// Cancel removes a queued entry from the queue. Cancelling an entry
// that already left the queue is a conflict.
func (r *WaitlistRepo) Cancel(ctx context.Context, id uint64) error {
    const q = `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`
    result, err := r.db.ExecContext(ctx, q, model.WaitlistCancelled, id, model.WaitlistQueued)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

func scanWaitlistEntry(rows *sql.Rows) (*model.WaitlistEntry, error) {
    var e model.WaitlistEntry
    var userID, bookingID sql.NullInt64
    if err := rows.Scan(&e.ID, &e.RestaurantID, &userID, &e.Date, &e.RequestedMinute,
        &e.PartySize, &e.CustomerName, &e.CustomerPhone, &e.Status, &bookingID, &e.RequestedAt); err != nil {
        return nil, err
    }
    if userID.Valid {
        uid := uint64(userID.Int64)
        e.UserID = &uid
    }
    if bookingID.Valid {
        bid := uint64(bookingID.Int64)
        e.BookingID = &bid
    }
    return &e, nil
}
