package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their table
// assignments. A booking and its booking_tables rows are always written
// in one transaction so a combination can never be half-persisted. All
// timestamp fields are assumed to be stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a booking together with its table set. The generated
// ID and timestamps are populated on the provided record. The insert
// runs inside a transaction that is rolled back on any failure.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := r.createTx(ctx, tx, b); err != nil {
        return err
    }
    if err := r.createTablesBulkTx(ctx, tx, b.ID, b.TableIDs); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// createTx inserts the bookings row and reads back the generated
// defaults. The caller must commit or rollback the transaction.
func (r *BookingRepo) createTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (restaurant_id, user_id, party_size, booking_date, start_minute,
                                     duration_min, status, confirmation_code, customer_name, customer_phone)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, b.RestaurantID, b.UserID, b.PartySize,
        b.Date.UTC().Format("2006-01-02"), b.StartMinute, b.DurationMin,
        b.Status, b.ConfirmationCode, b.CustomerName, b.CustomerPhone)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back the row to populate timestamps and defaults.
    const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// createTablesBulkTx inserts the booking_tables rows in a single
// multi-valued statement.
func (r *BookingRepo) createTablesBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, tableIDs []uint64) error {
    if len(tableIDs) == 0 {
        return errors.New("booking has no tables")
    }
    var sb strings.Builder
    sb.WriteString("INSERT INTO booking_tables (booking_id, table_id) VALUES ")
    args := make([]interface{}, 0, len(tableIDs)*2)
    for i, tid := range tableIDs {
        if i > 0 {
            sb.WriteString(", ")
        }
        sb.WriteString("(?, ?)")
        args = append(args, bookingID, tid)
    }
    _, err := tx.ExecContext(ctx, sb.String(), args...)
    return err
}

// ForDate returns every booking of a restaurant on a service date with
// their table sets attached, ordered by start minute. The conflict
// checker filters blocking statuses itself, so cancelled rows are
// returned too.
func (r *BookingRepo) ForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.Booking, error) {
    const q = `SELECT id, restaurant_id, user_id, party_size, booking_date, start_minute,
                      duration_min, status, confirmation_code, customer_name, customer_phone,
                      created_at, updated_at
               FROM bookings
               WHERE restaurant_id = ? AND booking_date = ?
               ORDER BY start_minute, id`
    rows, err := r.db.QueryContext(ctx, q, restaurantID, date.UTC().Format("2006-01-02"))
    if err != nil {
        return nil, err
    }
    bookings, err := scanBookings(rows)
    if err != nil {
        return nil, err
    }
    if err := r.attachTables(ctx, bookings); err != nil {
        return nil, err
    }
    return bookings, nil
}

// ByID fetches a single booking with its table set.
func (r *BookingRepo) ByID(ctx context.Context, id uint64) (*model.Booking, error) {
    const q = `SELECT id, restaurant_id, user_id, party_size, booking_date, start_minute,
                      duration_min, status, confirmation_code, customer_name, customer_phone,
                      created_at, updated_at
               FROM bookings WHERE id = ?`
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil {
        return nil, err
    }
    bookings, err := scanBookings(rows)
    if err != nil {
        return nil, err
    }
    if len(bookings) == 0 {
        return nil, ErrNotFound
    }
    if err := r.attachTables(ctx, bookings); err != nil {
        return nil, err
    }
    return &bookings[0], nil
}

// ByConfirmationCode fetches a booking by the code handed to the guest.
func (r *BookingRepo) ByConfirmationCode(ctx context.Context, code string) (*model.Booking, error) {
    const q = `SELECT id FROM bookings WHERE confirmation_code = ?`
    var id uint64
    if err := r.db.QueryRowContext(ctx, q, code).Scan(&id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return r.ByID(ctx, id)
}

// UpdateStatus transitions a booking to the given lifecycle status.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    const q = `UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListByUser returns a user's bookings newest date first, for the
// "my bookings" view.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error) {
    const q = `SELECT id, restaurant_id, user_id, party_size, booking_date, start_minute,
                      duration_min, status, confirmation_code, customer_name, customer_phone,
                      created_at, updated_at
               FROM bookings
               WHERE user_id = ?
               ORDER BY booking_date DESC, start_minute DESC
               LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
    if err != nil {
        return nil, err
    }
    bookings, err := scanBookings(rows)
    if err != nil {
        return nil, err
    }
    if err := r.attachTables(ctx, bookings); err != nil {
        return nil, err
    }
    return bookings, nil
}

// attachTables loads the booking_tables rows for a batch of bookings in
// one query and fills each booking's TableIDs slice in place.
func (r *BookingRepo) attachTables(ctx context.Context, bookings []model.Booking) error {
    if len(bookings) == 0 {
        return nil
    }
    byID := make(map[uint64]*model.Booking, len(bookings))
    args := make([]interface{}, 0, len(bookings))
    var sb strings.Builder
    sb.WriteString("SELECT booking_id, table_id FROM booking_tables WHERE booking_id IN (")
    for i := range bookings {
        if i > 0 {
            sb.WriteString(", ")
        }
        sb.WriteString("?")
        args = append(args, bookings[i].ID)
        byID[bookings[i].ID] = &bookings[i]
    }
    sb.WriteString(") ORDER BY booking_id, table_id")
    rows, err := r.db.QueryContext(ctx, sb.String(), args...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var bookingID, tableID uint64
        if err := rows.Scan(&bookingID, &tableID); err != nil {
            return err
        }
        if b, ok := byID[bookingID]; ok {
            b.TableIDs = append(b.TableIDs, tableID)
        }
    }
    return rows.Err()
}

// scanBookings drains a bookings result set. It closes the rows.
func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
    defer rows.Close()
    var bookings []model.Booking
    for rows.Next() {
        var b model.Booking
        var userID sql.NullInt64
        if err := rows.Scan(&b.ID, &b.RestaurantID, &userID, &b.PartySize, &b.Date,
            &b.StartMinute, &b.DurationMin, &b.Status, &b.ConfirmationCode,
            &b.CustomerName, &b.CustomerPhone, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        if userID.Valid {
            uid := uint64(userID.Int64)
            b.UserID = &uid
        }
        bookings = append(bookings, b)
    }
    return bookings, rows.Err()
}
