package model

import "time"

// Table describes a physical table in the dining room. Capacity is a
// range: a six-top with MinCapacity 3 will not be wasted on a couple.
// Priority orders otherwise equal tables during selection; lower values
// are seated first.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – owning restaurant.
//  Label        – floor label shown to staff ("T1", "Patio 3").
//  MinCapacity  – smallest party this table accepts.
//  MaxCapacity  – largest party this table seats.
//  IsCombinable – whether this table may be joined with others.
//  IsActive     – inactive tables are invisible to the engine.
//  Priority     – selection tie-break, lower is preferred.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
    ID           uint64    // restaurant_tables.id
    RestaurantID uint64    // restaurant_tables.restaurant_id
    Label        string    // restaurant_tables.label
    MinCapacity  int       // restaurant_tables.min_capacity
    MaxCapacity  int       // restaurant_tables.max_capacity
    IsCombinable bool      // restaurant_tables.is_combinable
    IsActive     bool      // restaurant_tables.is_active
    Priority     int       // restaurant_tables.priority
    CreatedAt    time.Time // restaurant_tables.created_at
    UpdatedAt    time.Time // restaurant_tables.updated_at
}

// Fits reports whether a party of size falls inside the table's
// capacity range.
func (t Table) Fits(size int) bool {
    return size >= t.MinCapacity && size <= t.MaxCapacity
}
