package availability

import (
    "errors"
    "sort"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

// ErrUnavailable is returned when no single table or combination can
// seat the party at the candidate slot.
var ErrUnavailable = errors.New("no table available for party")

// ErrNoCombinationAvailable is returned when combinable tables exist but
// no combination within the configured maximum can seat the party.
var ErrNoCombinationAvailable = errors.New("no table combination available for party")

// Selection is the chosen table assignment for a party. Combined is true
// when more than one physical table is joined.
type Selection struct {
    Tables   []model.Table
    Combined bool
}

// TableIDs returns the selected table IDs in ascending order, the order
// table locks are acquired in.
func (s *Selection) TableIDs() []uint64 {
    ids := make([]uint64, 0, len(s.Tables))
    for _, t := range s.Tables {
        ids = append(ids, t.ID)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids
}

// TotalCapacity sums the max capacities of the selected tables.
func (s *Selection) TotalCapacity() int {
    total := 0
    for _, t := range s.Tables {
        total += t.MaxCapacity
    }
    return total
}

// SelectTables picks the best-fit assignment for partySize among the
// free tables.
//
// A single table whose capacity range contains the party always wins;
// the tightest fit (smallest MaxCapacity - partySize) is chosen, ties
// broken by ascending table priority then table ID. When no single
// table fits, combinations of 2..maxCombine tables flagged combinable
// are searched for the smallest total capacity covering the party,
// ties broken by fewest tables then lowest combined priority.
func SelectTables(free []model.Table, partySize, maxCombine int) (*Selection, error) {
    var single *model.Table
    for i := range free {
        t := &free[i]
        if !t.Fits(partySize) {
            continue
        }
        if single == nil {
            single = t
            continue
        }
        slack, bestSlack := t.MaxCapacity-partySize, single.MaxCapacity-partySize
        switch {
        case slack < bestSlack:
            single = t
        case slack == bestSlack && t.Priority < single.Priority:
            single = t
        case slack == bestSlack && t.Priority == single.Priority && t.ID < single.ID:
            single = t
        }
    }
    if single != nil {
        return &Selection{Tables: []model.Table{*single}}, nil
    }

    var combinable []model.Table
    for _, t := range free {
        if t.IsCombinable {
            combinable = append(combinable, t)
        }
    }
    if len(combinable) < 2 {
        return nil, ErrUnavailable
    }
    if maxCombine < 2 {
        return nil, ErrNoCombinationAvailable
    }

    best := bestCombination(combinable, partySize, maxCombine)
    if best == nil {
        return nil, ErrNoCombinationAvailable
    }
    return &Selection{Tables: best, Combined: true}, nil
}

// bestCombination enumerates subsets of size 2..maxCombine and keeps the
// one with the smallest total capacity that covers the party, ties
// broken by fewest tables then lowest priority sum. Per-table minimum
// capacities do not apply to a joined set: MinCapacity guards a single
// table against small parties, and the selector only reaches for a
// combination when no single table fits.
func bestCombination(tables []model.Table, partySize, maxCombine int) []model.Table {
    var best []model.Table
    bestCap, bestPrio := 0, 0

    var walk func(start int, picked []model.Table, capSum, prioSum int)
    walk = func(start int, picked []model.Table, capSum, prioSum int) {
        if len(picked) >= 2 && capSum >= partySize {
            better := false
            switch {
            case best == nil:
                better = true
            case capSum < bestCap:
                better = true
            case capSum == bestCap && len(picked) < len(best):
                better = true
            case capSum == bestCap && len(picked) == len(best) && prioSum < bestPrio:
                better = true
            }
            if better {
                best = append([]model.Table(nil), picked...)
                bestCap, bestPrio = capSum, prioSum
            }
        }
        if len(picked) == maxCombine {
            return
        }
        for i := start; i < len(tables); i++ {
            t := tables[i]
            walk(i+1, append(picked, t), capSum+t.MaxCapacity, prioSum+t.Priority)
        }
    }
    walk(0, nil, 0, 0)
    return best
}

// FitCount reports how the slot is presented in availability listings:
// the number of single tables that fit the party, or 1 when only a
// combination can seat them, or 0 when nothing fits.
func FitCount(free []model.Table, partySize, maxCombine int) int {
    singles := 0
    for _, t := range free {
        if t.Fits(partySize) {
            singles++
        }
    }
    if singles > 0 {
        return singles
    }
    if _, err := SelectTables(free, partySize, maxCombine); err == nil {
        return 1
    }
    return 0
}
