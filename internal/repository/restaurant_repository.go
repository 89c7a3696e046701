package repository

import (
    "context"
    "database/sql"
    "errors"
    "sync"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/booking"
    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// RestaurantRepo loads restaurant policy rows: the restaurant record,
// its weekday service periods and the slot/turn-time rule overrides.
// Policy is read-mostly, so PolicyData keeps a small per-restaurant
// cache with a short TTL; writes go through Invalidate. The cache is
// never exposed as mutable state — every caller gets its own copy of
// the slices' backing rows from the database or the cached fetch.
type RestaurantRepo struct {
    db       *sql.DB
    cacheTTL time.Duration

    mu    sync.Mutex
    cache map[uint64]cachedPolicy
}

type cachedPolicy struct {
    data    *booking.PolicyData
    fetched time.Time
}

// NewRestaurantRepo returns a repo with the given policy cache TTL.
// A zero or negative TTL disables caching.
func NewRestaurantRepo(db *sql.DB, cacheTTL time.Duration) *RestaurantRepo {
    return &RestaurantRepo{db: db, cacheTTL: cacheTTL, cache: make(map[uint64]cachedPolicy)}
}

// GetByID fetches a single restaurant row.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
    const q = `SELECT id, name, slot_duration_min, default_turn_time_min, buffer_time_min,
                      min_advance_hours, max_advance_days, max_party_size,
                      max_concurrent_tables, max_concurrent_covers,
                      auto_confirm, waitlist_enabled, created_at, updated_at
               FROM restaurants WHERE id = ?`
    var rest model.Restaurant
    var maxTables, maxCovers sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &rest.ID, &rest.Name, &rest.SlotDurationMin, &rest.DefaultTurnTimeMin, &rest.BufferTimeMin,
        &rest.MinAdvanceHours, &rest.MaxAdvanceDays, &rest.MaxPartySize,
        &maxTables, &maxCovers,
        &rest.AutoConfirm, &rest.WaitlistEnabled, &rest.CreatedAt, &rest.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if maxTables.Valid {
        v := int(maxTables.Int64)
        rest.MaxConcurrentTables = &v
    }
    if maxCovers.Valid {
        v := int(maxCovers.Int64)
        rest.MaxConcurrentCovers = &v
    }
    return &rest, nil
}

// PolicyData loads everything the configuration resolver needs for one
// restaurant, serving from the TTL cache when fresh.
func (r *RestaurantRepo) PolicyData(ctx context.Context, restaurantID uint64) (*booking.PolicyData, error) {
    if r.cacheTTL > 0 {
        r.mu.Lock()
        if c, ok := r.cache[restaurantID]; ok && time.Since(c.fetched) < r.cacheTTL {
            r.mu.Unlock()
            return c.data, nil
        }
        r.mu.Unlock()
    }

    rest, err := r.GetByID(ctx, restaurantID)
    if err != nil {
        return nil, err
    }
    hours, err := r.servicePeriods(ctx, restaurantID)
    if err != nil {
        return nil, err
    }
    slotRules, err := r.slotRules(ctx, restaurantID)
    if err != nil {
        return nil, err
    }
    turnRules, err := r.turnRules(ctx, restaurantID)
    if err != nil {
        return nil, err
    }

    data := &booking.PolicyData{Restaurant: *rest, Hours: hours, SlotRules: slotRules, TurnRules: turnRules}
    if r.cacheTTL > 0 {
        r.mu.Lock()
        r.cache[restaurantID] = cachedPolicy{data: data, fetched: time.Now()}
        r.mu.Unlock()
    }
    return data, nil
}

// Invalidate drops the cached policy for a restaurant. Call after any
// write to the policy tables.
func (r *RestaurantRepo) Invalidate(restaurantID uint64) {
    r.mu.Lock()
    delete(r.cache, restaurantID)
    r.mu.Unlock()
}

// servicePeriods returns the weekly opening hours ordered by weekday and
// start time. TIME columns come back as "HH:MM:SS" strings with
// parseTime on this driver only converting DATETIME, so the clock values
// are parsed here at the boundary.
func (r *RestaurantRepo) servicePeriods(ctx context.Context, restaurantID uint64) ([]model.ServicePeriod, error) {
    const q = `SELECT id, restaurant_id, weekday, name, start_time, end_time, slot_duration_min
               FROM restaurant_hours WHERE restaurant_id = ?
               ORDER BY weekday, start_time`
    rows, err := r.db.QueryContext(ctx, q, restaurantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var periods []model.ServicePeriod
    for rows.Next() {
        var p model.ServicePeriod
        var weekday int
        var startStr, endStr string
        var slotDur sql.NullInt64
        if err := rows.Scan(&p.ID, &p.RestaurantID, &weekday, &p.Name, &startStr, &endStr, &slotDur); err != nil {
            return nil, err
        }
        p.Weekday = time.Weekday(weekday)
        if p.StartMinute, err = parseTimeColumn(startStr); err != nil {
            return nil, err
        }
        if p.EndMinute, err = parseTimeColumn(endStr); err != nil {
            return nil, err
        }
        if slotDur.Valid {
            v := int(slotDur.Int64)
            p.SlotDurationMin = &v
        }
        periods = append(periods, p)
    }
    return periods, rows.Err()
}

// slotRules returns the restaurant's TimeSlotRule rows, active and
// inactive; the resolver filters on IsActive.
func (r *RestaurantRepo) slotRules(ctx context.Context, restaurantID uint64) ([]model.TimeSlotRule, error) {
    const q = `SELECT id, restaurant_id, weekday, name, start_time, end_time,
                      slot_duration_min, max_concurrent_tables, max_concurrent_covers,
                      turn_time_min, priority, is_active
               FROM time_slot_rules WHERE restaurant_id = ?
               ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, restaurantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var rules []model.TimeSlotRule
    for rows.Next() {
        var rule model.TimeSlotRule
        var weekday sql.NullInt64
        var startStr, endStr string
        var slotDur, maxTables, maxCovers, turn sql.NullInt64
        if err := rows.Scan(&rule.ID, &rule.RestaurantID, &weekday, &rule.Name, &startStr, &endStr,
            &slotDur, &maxTables, &maxCovers, &turn, &rule.Priority, &rule.IsActive); err != nil {
            return nil, err
        }
        if weekday.Valid {
            w := time.Weekday(weekday.Int64)
            rule.Weekday = &w
        }
        if rule.StartMinute, err = parseTimeColumn(startStr); err != nil {
            return nil, err
        }
        if rule.EndMinute, err = parseTimeColumn(endStr); err != nil {
            return nil, err
        }
        rule.SlotDurationMin = nullableInt(slotDur)
        rule.MaxConcurrentTables = nullableInt(maxTables)
        rule.MaxConcurrentCovers = nullableInt(maxCovers)
        rule.TurnTimeMin = nullableInt(turn)
        rules = append(rules, rule)
    }
    return rules, rows.Err()
}

// turnRules returns the restaurant's TurnTimeRule rows.
func (r *RestaurantRepo) turnRules(ctx context.Context, restaurantID uint64) ([]model.TurnTimeRule, error) {
    const q = `SELECT id, restaurant_id, min_party_size, max_party_size, turn_time_min, priority, is_active
               FROM turn_time_rules WHERE restaurant_id = ?
               ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, restaurantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var rules []model.TurnTimeRule
    for rows.Next() {
        var rule model.TurnTimeRule
        if err := rows.Scan(&rule.ID, &rule.RestaurantID, &rule.MinPartySize, &rule.MaxPartySize,
            &rule.TurnTimeMin, &rule.Priority, &rule.IsActive); err != nil {
            return nil, err
        }
        rules = append(rules, rule)
    }
    return rules, rows.Err()
}

// parseTimeColumn converts a MySQL TIME value ("17:00:00" or "17:00")
// to minutes from midnight.
func parseTimeColumn(s string) (int, error) {
    if len(s) >= 8 {
        s = s[:5]
    }
    return model.ParseClock(s)
}

func nullableInt(v sql.NullInt64) *int {
    if !v.Valid {
        return nil
    }
    n := int(v.Int64)
    return &n
}
