// Package availability implements the pure computations of the booking
// engine: resolving a restaurant's effective policy for a date and party
// size, enumerating candidate start times, checking candidate slots
// against existing bookings, and picking the best-fit table assignment.
// Nothing in this package performs I/O; callers fetch the rows and hand
// them in, which keeps every function here deterministic and testable.
package availability

import (
    "errors"
    "sort"
    "time"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// ErrRestaurantClosed is returned by Resolve when no service period is
// open on the requested weekday.
var ErrRestaurantClosed = errors.New("restaurant closed on requested day")

// ErrInvalidPartySize is returned by Resolve when the party size is not
// positive or exceeds the restaurant maximum.
var ErrInvalidPartySize = errors.New("invalid party size")

// EffectivePeriod is one bookable window after base hours and time-slot
// rules have been merged. Caps and turn-time overrides are carried from
// the winning rule when one produced the period.
type EffectivePeriod struct {
    Name         string
    StartMinute  int
    EndMinute    int
    SlotDuration int
    MaxTables    *int // pacing cap inside this window, nil = restaurant cap
    MaxCovers    *int
    TurnOverride *int // turn time inside this window, nil = resolved turn time
}

// TurnTimeFor returns the effective turn time for a booking seated
// inside this period, falling back to the policy-wide resolution.
func (p EffectivePeriod) TurnTimeFor(policy *ResolvedPolicy) int {
    if p.TurnOverride != nil {
        return *p.TurnOverride
    }
    return policy.TurnTime
}

// ResolvedPolicy is the effective booking policy for one (restaurant,
// date, party size) triple. Periods are ordered by start time and do not
// overlap; TurnTime is the party-size resolution before any per-period
// override.
type ResolvedPolicy struct {
    RestaurantID uint64
    Date         time.Time
    Weekday      time.Weekday
    PartySize    int
    Periods      []EffectivePeriod
    TurnTime     int
    Buffer       int
    MaxTables    *int
    MaxCovers    *int
}

// PeriodAt returns the period containing the given start minute, or nil
// when the minute falls outside every period.
func (p *ResolvedPolicy) PeriodAt(minute int) *EffectivePeriod {
    for i := range p.Periods {
        if minute >= p.Periods[i].StartMinute && minute < p.Periods[i].EndMinute {
            return &p.Periods[i]
        }
    }
    return nil
}

// CapsAt returns the pacing caps in force at the given start minute:
// the containing period's caps when it has any, otherwise the
// restaurant-wide caps.
func (p *ResolvedPolicy) CapsAt(minute int) (maxTables, maxCovers *int) {
    maxTables, maxCovers = p.MaxTables, p.MaxCovers
    if per := p.PeriodAt(minute); per != nil {
        if per.MaxTables != nil {
            maxTables = per.MaxTables
        }
        if per.MaxCovers != nil {
            maxCovers = per.MaxCovers
        }
    }
    return maxTables, maxCovers
}

// Resolve merges the restaurant defaults, its weekday service periods
// and any TimeSlotRule overrides into the effective policy for date and
// partySize, and resolves the party's turn time from the TurnTimeRules.
//
// Rule precedence when overrides overlap: a rule scoped to the request's
// weekday beats an all-days rule; among same-scope rules the narrower
// time range wins; remaining ties fall to the higher Priority and
// finally the lower rule ID so the outcome is deterministic. A losing
// rule is dropped entirely where it overlaps a winner. Base service
// periods survive only where no winning rule overlaps them.
func Resolve(r model.Restaurant, hours []model.ServicePeriod, slotRules []model.TimeSlotRule, turnRules []model.TurnTimeRule, date time.Time, partySize int) (*ResolvedPolicy, error) {
    if partySize <= 0 || partySize > r.MaxPartySize {
        return nil, ErrInvalidPartySize
    }
    weekday := date.UTC().Weekday()

    turn := resolveTurnTime(r, turnRules, partySize)

    // Collect active rules applicable to this weekday, ordered by
    // precedence (winners first).
    applicable := make([]model.TimeSlotRule, 0, len(slotRules))
    for _, rule := range slotRules {
        if !rule.IsActive || rule.EndMinute <= rule.StartMinute {
            continue
        }
        if rule.Weekday == nil || *rule.Weekday == weekday {
            applicable = append(applicable, rule)
        }
    }
    sort.SliceStable(applicable, func(i, j int) bool {
        a, b := applicable[i], applicable[j]
        aDay, bDay := a.Weekday != nil, b.Weekday != nil
        if aDay != bDay {
            return aDay // day-specific beats all-days
        }
        aw, bw := a.EndMinute-a.StartMinute, b.EndMinute-b.StartMinute
        if aw != bw {
            return aw < bw // narrower range wins
        }
        if a.Priority != b.Priority {
            return a.Priority > b.Priority
        }
        return a.ID < b.ID
    })

    // Keep each rule only if it does not overlap a rule that already won.
    kept := make([]model.TimeSlotRule, 0, len(applicable))
    for _, rule := range applicable {
        clear := true
        for _, w := range kept {
            if rule.StartMinute < w.EndMinute && w.StartMinute < rule.EndMinute {
                clear = false
                break
            }
        }
        if clear {
            kept = append(kept, rule)
        }
    }

    periods := make([]EffectivePeriod, 0, len(hours)+len(kept))
    for _, rule := range kept {
        dur := r.SlotDurationMin
        if rule.SlotDurationMin != nil {
            dur = *rule.SlotDurationMin
        }
        periods = append(periods, EffectivePeriod{
            Name:         rule.Name,
            StartMinute:  rule.StartMinute,
            EndMinute:    rule.EndMinute,
            SlotDuration: dur,
            MaxTables:    rule.MaxConcurrentTables,
            MaxCovers:    rule.MaxConcurrentCovers,
            TurnOverride: rule.TurnTimeMin,
        })
    }

    for _, h := range hours {
        if h.Weekday != weekday || h.EndMinute <= h.StartMinute {
            continue
        }
        overlapped := false
        for _, rule := range kept {
            if h.StartMinute < rule.EndMinute && rule.StartMinute < h.EndMinute {
                overlapped = true
                break
            }
        }
        if overlapped {
            continue
        }
        dur := r.SlotDurationMin
        if h.SlotDurationMin != nil {
            dur = *h.SlotDurationMin
        }
        periods = append(periods, EffectivePeriod{
            Name:         h.Name,
            StartMinute:  h.StartMinute,
            EndMinute:    h.EndMinute,
            SlotDuration: dur,
        })
    }

    if len(periods) == 0 {
        return nil, ErrRestaurantClosed
    }
    sort.Slice(periods, func(i, j int) bool { return periods[i].StartMinute < periods[j].StartMinute })

    return &ResolvedPolicy{
        RestaurantID: r.ID,
        Date:         date.UTC(),
        Weekday:      weekday,
        PartySize:    partySize,
        Periods:      periods,
        TurnTime:     turn,
        Buffer:       r.BufferTimeMin,
        MaxTables:    r.MaxConcurrentTables,
        MaxCovers:    r.MaxConcurrentCovers,
    }, nil
}

// resolveTurnTime picks the active rule containing partySize with the
// highest priority, ties broken by the narrowest range then the lowest
// rule ID. With no matching rule the restaurant default applies.
func resolveTurnTime(r model.Restaurant, rules []model.TurnTimeRule, partySize int) int {
    var best *model.TurnTimeRule
    for i := range rules {
        rule := &rules[i]
        if !rule.IsActive || !rule.Contains(partySize) {
            continue
        }
        if best == nil {
            best = rule
            continue
        }
        if rule.Priority != best.Priority {
            if rule.Priority > best.Priority {
                best = rule
            }
            continue
        }
        if rule.Width() != best.Width() {
            if rule.Width() < best.Width() {
                best = rule
            }
            continue
        }
        if rule.ID < best.ID {
            best = rule
        }
    }
    if best != nil {
        return best.TurnTimeMin
    }
    return r.DefaultTurnTimeMin
}
