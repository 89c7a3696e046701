package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// TableRepo provides read access to the physical table inventory.
// Tables change rarely; the availability engine reloads the active set
// per request rather than holding it in memory.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// ActiveTables returns every active table of a restaurant ordered by
// priority then id, which is the order the selector prefers them in.
func (r *TableRepo) ActiveTables(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
    const q = `SELECT id, restaurant_id, label, min_capacity, max_capacity,
                      is_combinable, is_active, priority, created_at, updated_at
               FROM restaurant_tables
               WHERE restaurant_id = ? AND is_active = 1
               ORDER BY priority, id`
    rows, err := r.db.QueryContext(ctx, q, restaurantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var tables []model.Table
    for rows.Next() {
        var t model.Table
        if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Label, &t.MinCapacity, &t.MaxCapacity,
            &t.IsCombinable, &t.IsActive, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
            return nil, err
        }
        tables = append(tables, t)
    }
    return tables, rows.Err()
}

// ByID fetches a single table row regardless of its active flag.
func (r *TableRepo) ByID(ctx context.Context, id uint64) (*model.Table, error) {
    const q = `SELECT id, restaurant_id, label, min_capacity, max_capacity,
                      is_combinable, is_active, priority, created_at, updated_at
               FROM restaurant_tables WHERE id = ?`
    var t model.Table
    err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RestaurantID, &t.Label,
        &t.MinCapacity, &t.MaxCapacity, &t.IsCombinable, &t.IsActive, &t.Priority,
        &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &t, nil
}
