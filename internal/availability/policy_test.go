package availability

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

func intPtr(v int) *int { return &v }

func weekdayPtr(w time.Weekday) *time.Weekday { return &w }

// Friday 2026-09-04.
var friday = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

func baseRestaurant() model.Restaurant {
    return model.Restaurant{
        ID:                 1,
        Name:               "Trattoria",
        SlotDurationMin:    30,
        DefaultTurnTimeMin: 90,
        BufferTimeMin:      15,
        MaxPartySize:       12,
    }
}

func dinnerHours() []model.ServicePeriod {
    return []model.ServicePeriod{
        {ID: 1, RestaurantID: 1, Weekday: time.Friday, Name: "Dinner", StartMinute: 17 * 60, EndMinute: 22 * 60},
    }
}

func TestResolveClosedDay(t *testing.T) {
    _, err := Resolve(baseRestaurant(), dinnerHours(), nil, nil, friday.AddDate(0, 0, 1), 2)
    assert.ErrorIs(t, err, ErrRestaurantClosed)
}

func TestResolveInvalidPartySize(t *testing.T) {
    for _, size := range []int{0, -1, 13} {
        _, err := Resolve(baseRestaurant(), dinnerHours(), nil, nil, friday, size)
        assert.ErrorIs(t, err, ErrInvalidPartySize, "size %d", size)
    }
}

func TestResolveBaseHoursOnly(t *testing.T) {
    policy, err := Resolve(baseRestaurant(), dinnerHours(), nil, nil, friday, 4)
    require.NoError(t, err)
    require.Len(t, policy.Periods, 1)
    assert.Equal(t, 17*60, policy.Periods[0].StartMinute)
    assert.Equal(t, 22*60, policy.Periods[0].EndMinute)
    assert.Equal(t, 30, policy.Periods[0].SlotDuration)
    assert.Equal(t, 90, policy.TurnTime)
    assert.Equal(t, 15, policy.Buffer)
}

func TestResolveDaySpecificRuleBeatsAllDays(t *testing.T) {
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Everyday early", StartMinute: 17 * 60, EndMinute: 19 * 60,
            TurnTimeMin: intPtr(60), Priority: 100, IsActive: true},
        {ID: 2, RestaurantID: 1, Weekday: weekdayPtr(time.Friday), Name: "Friday rush",
            StartMinute: 17 * 60, EndMinute: 19 * 60, TurnTimeMin: intPtr(75), Priority: 1, IsActive: true},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)
    per := policy.PeriodAt(17 * 60)
    require.NotNil(t, per)
    assert.Equal(t, "Friday rush", per.Name)
    assert.Equal(t, 75, per.TurnTimeFor(policy))
}

func TestResolveNarrowerRangeWins(t *testing.T) {
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Whole evening", StartMinute: 17 * 60, EndMinute: 22 * 60,
            SlotDurationMin: intPtr(60), Priority: 50, IsActive: true},
        {ID: 2, RestaurantID: 1, Name: "Peak", StartMinute: 19 * 60, EndMinute: 21 * 60,
            SlotDurationMin: intPtr(15), Priority: 1, IsActive: true},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)
    // The narrow peak rule wins its window; the wide rule is dropped
    // where it overlaps, which here is everywhere.
    per := policy.PeriodAt(19 * 60)
    require.NotNil(t, per)
    assert.Equal(t, "Peak", per.Name)
    assert.Equal(t, 15, per.SlotDuration)
    assert.Nil(t, policy.PeriodAt(17*60), "wide overlapping loser is dropped, base hours overlapped too")
}

func TestResolvePriorityBreaksEqualScope(t *testing.T) {
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Low", StartMinute: 18 * 60, EndMinute: 20 * 60, Priority: 1, IsActive: true},
        {ID: 2, RestaurantID: 1, Name: "High", StartMinute: 18 * 60, EndMinute: 20 * 60, Priority: 9, IsActive: true},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)
    per := policy.PeriodAt(18 * 60)
    require.NotNil(t, per)
    assert.Equal(t, "High", per.Name)
}

func TestResolveInactiveRuleIgnored(t *testing.T) {
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Disabled", StartMinute: 17 * 60, EndMinute: 22 * 60,
            TurnTimeMin: intPtr(45), Priority: 99, IsActive: false},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)
    per := policy.PeriodAt(18 * 60)
    require.NotNil(t, per)
    assert.Equal(t, "Dinner", per.Name)
    assert.Equal(t, 90, per.TurnTimeFor(policy))
}

func TestResolveOverlappedBasePeriodDropped(t *testing.T) {
    // A winning rule anywhere inside a base period replaces that whole
    // period; only the rule window remains bookable.
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Early seating", StartMinute: 17 * 60, EndMinute: 18 * 60,
            Priority: 1, IsActive: true},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)
    require.Len(t, policy.Periods, 1)
    assert.Equal(t, "Early seating", policy.Periods[0].Name)
}

func TestTurnTimePrecedence(t *testing.T) {
    rules := []model.TurnTimeRule{
        {ID: 1, RestaurantID: 1, MinPartySize: 1, MaxPartySize: 12, TurnTimeMin: 100, Priority: 1, IsActive: true},
        {ID: 2, RestaurantID: 1, MinPartySize: 1, MaxPartySize: 4, TurnTimeMin: 60, Priority: 1, IsActive: true},
        {ID: 3, RestaurantID: 1, MinPartySize: 5, MaxPartySize: 8, TurnTimeMin: 120, Priority: 5, IsActive: true},
        {ID: 4, RestaurantID: 1, MinPartySize: 5, MaxPartySize: 8, TurnTimeMin: 150, Priority: 1, IsActive: true},
        {ID: 5, RestaurantID: 1, MinPartySize: 9, MaxPartySize: 12, TurnTimeMin: 180, Priority: 1, IsActive: false},
    }
    r := baseRestaurant()

    cases := []struct {
        name string
        size int
        want int
    }{
        {"narrower range beats wider at equal priority", 2, 60},
        {"higher priority beats narrowness", 6, 120},
        {"inactive rule skipped, wide active rule applies", 10, 100},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            policy, err := Resolve(r, dinnerHours(), nil, rules, friday, tc.size)
            require.NoError(t, err)
            assert.Equal(t, tc.want, policy.TurnTime)
        })
    }
}

func TestTurnTimeDefaultWhenNoRuleMatches(t *testing.T) {
    rules := []model.TurnTimeRule{
        {ID: 1, RestaurantID: 1, MinPartySize: 7, MaxPartySize: 12, TurnTimeMin: 150, Priority: 1, IsActive: true},
    }
    policy, err := Resolve(baseRestaurant(), dinnerHours(), nil, rules, friday, 2)
    require.NoError(t, err)
    assert.Equal(t, 90, policy.TurnTime)
}

func TestCapsAtPrefersPeriodCaps(t *testing.T) {
    r := baseRestaurant()
    r.MaxConcurrentTables = intPtr(10)
    rules := []model.TimeSlotRule{
        {ID: 1, RestaurantID: 1, Name: "Peak", StartMinute: 19 * 60, EndMinute: 21 * 60,
            MaxConcurrentTables: intPtr(3), Priority: 1, IsActive: true},
    }
    policy, err := Resolve(r, dinnerHours(), rules, nil, friday, 4)
    require.NoError(t, err)

    maxTables, maxCovers := policy.CapsAt(19 * 60)
    require.NotNil(t, maxTables)
    assert.Equal(t, 3, *maxTables)
    assert.Nil(t, maxCovers)
}
