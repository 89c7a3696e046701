// Package lock implements the distributed booking lock protocol. Locks
// are ephemeral TTL records in Redis keyed by the contested resource:
// one key per (restaurant, date, time window) and one per (restaurant,
// date, table). A holder owns a lock through an opaque token; release
// and renew verify the token so a second owner can never mutate a lock
// it does not hold. Crashed holders simply let the TTL expire, trading a
// bounded duplicate-risk window for liveness.
//
// Acquisition order is fixed everywhere: the booking-window lock first,
// then table locks in ascending table-ID order. Consistent ordering is
// what prevents deadlock between requests contending for overlapping
// table sets.
package lock

import (
    "context"
    "errors"
    "fmt"
    "math/rand"
    "time"

    "github.com/google/uuid"
)

// ErrLockTimeout is returned when a lock could not be acquired within
// the coordinator's bounded wait. Callers may retry with a fresh
// request.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// ErrNotHeld is returned by renew when the lock expired or was taken
// over before the holder renewed it.
var ErrNotHeld = errors.New("lock no longer held")

// Store is the minimal keyspace the coordinator needs. RedisStore is the
// production implementation; MemStore serves tests and single-process
// deployments.
type Store interface {
    // Acquire atomically creates key with the owner token and TTL if it
    // does not exist. It reports whether the caller now owns the key.
    Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
    // Release deletes key only if token still owns it.
    Release(ctx context.Context, key, token string) (bool, error)
    // Renew extends key's TTL only if token still owns it.
    Renew(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// Options tune the coordinator. Zero values fall back to defaults.
type Options struct {
    TTL       time.Duration // lock lifetime per acquisition/renewal
    MaxWait   time.Duration // hard ceiling on blocking acquisition
    BaseDelay time.Duration // first backoff step
    MaxDelay  time.Duration // backoff cap
    WindowMin int           // booking-window granularity in minutes
}

func (o Options) withDefaults() Options {
    if o.TTL <= 0 {
        o.TTL = 10 * time.Second
    }
    if o.MaxWait <= 0 {
        o.MaxWait = 5 * time.Second
    }
    if o.BaseDelay <= 0 {
        o.BaseDelay = 25 * time.Millisecond
    }
    if o.MaxDelay <= 0 {
        o.MaxDelay = 500 * time.Millisecond
    }
    if o.WindowMin <= 0 {
        o.WindowMin = 15
    }
    return o
}

// Coordinator hands out scoped leases over booking resources.
type Coordinator struct {
    store Store
    opts  Options
}

// NewCoordinator returns a coordinator over the given store.
func NewCoordinator(store Store, opts Options) *Coordinator {
    return &Coordinator{store: store, opts: opts.withDefaults()}
}

// WindowKey builds the lock key for a booking window. The start minute
// is truncated to the coordinator's window granularity, so two requests
// near the same time contend on the same key.
func (c *Coordinator) WindowKey(restaurantID uint64, date time.Time, startMinute int) string {
    window := startMinute - startMinute%c.opts.WindowMin
    return fmt.Sprintf("lock:window:%d:%s:%d", restaurantID, date.UTC().Format("2006-01-02"), window)
}

// TableKey builds the lock key for one table on one date.
func (c *Coordinator) TableKey(restaurantID uint64, date time.Time, tableID uint64) string {
    return fmt.Sprintf("lock:table:%d:%s:%d", restaurantID, date.UTC().Format("2006-01-02"), tableID)
}

// Lease is a set of held lock keys under one owner token. Keys release
// in reverse acquisition order. A lease must be released on every exit
// path; Release is idempotent and safe on partially acquired leases.
type Lease struct {
    c     *Coordinator
    token string
    keys  []string
}

// Token exposes the owner token, useful in logs.
func (l *Lease) Token() string { return l.token }

func (l *Lease) holds(key string) bool {
    for _, k := range l.keys {
        if k == key {
            return true
        }
    }
    return false
}

// Release drops every held key, best effort, newest first. Errors are
// ignored: an unreleased key self-expires at its TTL.
func (l *Lease) Release(ctx context.Context) {
    for i := len(l.keys) - 1; i >= 0; i-- {
        _, _ = l.c.store.Release(ctx, l.keys[i], l.token)
    }
    l.keys = nil
}

// Renew extends every held key's TTL. It fails with ErrNotHeld if any
// key expired out from under the holder.
func (l *Lease) Renew(ctx context.Context) error {
    for _, k := range l.keys {
        ok, err := l.c.store.Renew(ctx, k, l.token, l.c.opts.TTL)
        if err != nil {
            return err
        }
        if !ok {
            return ErrNotHeld
        }
    }
    return nil
}

// AcquireWindow blocks until the booking-window lock for the slot is
// held, up to the bounded wait, and returns a lease owning it.
func (c *Coordinator) AcquireWindow(ctx context.Context, restaurantID uint64, date time.Time, startMinute int) (*Lease, error) {
    lease := &Lease{c: c, token: uuid.NewString()}
    if err := c.acquireKey(ctx, lease, c.WindowKey(restaurantID, date, startMinute)); err != nil {
        return nil, err
    }
    return lease, nil
}

// AcquireTables adds per-table locks to an existing lease. IDs are
// locked in ascending order regardless of input order; keys the lease
// already holds are skipped, and on any failure the keys already added
// stay on the lease so the caller's release drops them.
func (c *Coordinator) AcquireTables(ctx context.Context, lease *Lease, restaurantID uint64, date time.Time, tableIDs []uint64) error {
    sorted := append([]uint64(nil), tableIDs...)
    for i := 1; i < len(sorted); i++ {
        for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
            sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
        }
    }
    for _, id := range sorted {
        key := c.TableKey(restaurantID, date, id)
        if lease.holds(key) {
            continue
        }
        if err := c.acquireKey(ctx, lease, key); err != nil {
            return err
        }
    }
    return nil
}

// acquireKey spins on Acquire with exponential backoff and jitter until
// the key is owned, the context is cancelled, or the max wait elapses.
func (c *Coordinator) acquireKey(ctx context.Context, lease *Lease, key string) error {
    deadline := time.Now().Add(c.opts.MaxWait)
    delay := c.opts.BaseDelay
    for {
        ok, err := c.store.Acquire(ctx, key, lease.token, c.opts.TTL)
        if err != nil {
            return err
        }
        if ok {
            lease.keys = append(lease.keys, key)
            return nil
        }
        sleep := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
        if time.Now().Add(sleep).After(deadline) {
            return ErrLockTimeout
        }
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(sleep):
        }
        if delay *= 2; delay > c.opts.MaxDelay {
            delay = c.opts.MaxDelay
        }
    }
}
