package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection before the server
// starts taking bookings.
//
// DSN notes: parseTime=true makes DATE and DATETIME columns scan as
// time.Time (booking_date relies on this); TIME columns still scan as
// strings and are parsed at the repository layer. loc=UTC keeps every
// timestamp in the engine's timezone.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    // Booking writes are short transactions (one insert plus the bulk
    // booking_tables rows) and day-sheet reads are bounded by date, so a
    // modest pool holds up even under Friday-evening contention. The
    // lifetime stays ahead of LB idle timeouts.
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
