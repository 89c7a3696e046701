package model

import "time"

// TimeSlotRule overrides a service period for a specific weekday or, when
// Weekday is nil, for all days. Overlapping rules are disambiguated by the
// policy resolver: a day-specific rule beats an all-days rule, a narrower
// time range beats a wider one, and higher Priority breaks remaining ties.
//
// Fields:
//  ID                  – primary key identifier.
//  RestaurantID        – owning restaurant.
//  Weekday             – weekday scope (nil = applies every day).
//  Name                – label for the overridden period.
//  StartMinute         – override window start, minutes from midnight.
//  EndMinute           – override window end, minutes from midnight.
//  SlotDurationMin     – optional slot spacing override.
//  MaxConcurrentTables – optional pacing cap on tables for this window.
//  MaxConcurrentCovers – optional pacing cap on covers for this window.
//  TurnTimeMin         – optional turn time override inside this window.
//  Priority            – tie-break between equally scoped rules, higher wins.
//  IsActive            – inactive rules are ignored by the resolver.
type TimeSlotRule struct {
    ID                  uint64        // time_slot_rules.id
    RestaurantID        uint64        // time_slot_rules.restaurant_id
    Weekday             *time.Weekday // time_slot_rules.weekday (nullable, 0=Sunday)
    Name                string        // time_slot_rules.name
    StartMinute         int           // time_slot_rules.start_time (TIME, parsed to minutes)
    EndMinute           int           // time_slot_rules.end_time (TIME, parsed to minutes)
    SlotDurationMin     *int          // time_slot_rules.slot_duration_min (nullable)
    MaxConcurrentTables *int          // time_slot_rules.max_concurrent_tables (nullable)
    MaxConcurrentCovers *int          // time_slot_rules.max_concurrent_covers (nullable)
    TurnTimeMin         *int          // time_slot_rules.turn_time_min (nullable)
    Priority            int           // time_slot_rules.priority
    IsActive            bool          // time_slot_rules.is_active
}

// TurnTimeRule maps a party-size range onto a turn time. For a given party
// size the active rule containing the size with the highest priority wins;
// ties go to the narrowest range. With no match the restaurant default
// applies.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – owning restaurant.
//  MinPartySize – inclusive lower bound of the party-size range.
//  MaxPartySize – inclusive upper bound of the party-size range.
//  TurnTimeMin  – minutes a party in this range occupies its table.
//  Priority     – tie-break between overlapping ranges, higher wins.
//  IsActive     – inactive rules are ignored by the resolver.
type TurnTimeRule struct {
    ID           uint64 // turn_time_rules.id
    RestaurantID uint64 // turn_time_rules.restaurant_id
    MinPartySize int    // turn_time_rules.min_party_size
    MaxPartySize int    // turn_time_rules.max_party_size
    TurnTimeMin  int    // turn_time_rules.turn_time_min
    Priority     int    // turn_time_rules.priority
    IsActive     bool   // turn_time_rules.is_active
}

// Contains reports whether the rule's party-size range covers size.
func (r TurnTimeRule) Contains(size int) bool {
    return size >= r.MinPartySize && size <= r.MaxPartySize
}

// Width returns the size of the rule's party-size range, used as the
// narrowest-range tie-break.
func (r TurnTimeRule) Width() int {
    return r.MaxPartySize - r.MinPartySize
}
