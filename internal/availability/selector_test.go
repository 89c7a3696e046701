package availability

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-table-booking/internal/model"
)

func TestSelectTablesTightestSingleFit(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 8, IsActive: true},
        {ID: 2, MinCapacity: 2, MaxCapacity: 4, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 6, IsActive: true},
    }
    sel, err := SelectTables(free, 3, 3)
    require.NoError(t, err)
    require.Len(t, sel.Tables, 1)
    assert.Equal(t, uint64(2), sel.Tables[0].ID, "cap-4 table is the tightest fit for 3")
    assert.False(t, sel.Combined)
}

func TestSelectTablesPriorityBreaksCapacityTie(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 4, Priority: 5, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 4, Priority: 1, IsActive: true},
    }
    sel, err := SelectTables(free, 4, 3)
    require.NoError(t, err)
    assert.Equal(t, uint64(2), sel.Tables[0].ID)
}

func TestSelectTablesMinCapacityExcludesSmallParty(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 4, MaxCapacity: 8, IsActive: true},
    }
    _, err := SelectTables(free, 2, 3)
    assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSelectTablesCombination(t *testing.T) {
    // Three combinable two-tops: a party of 5 needs all three.
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    sel, err := SelectTables(free, 5, 3)
    require.NoError(t, err)
    assert.True(t, sel.Combined)
    assert.Equal(t, []uint64{1, 2, 3}, sel.TableIDs())
    assert.Equal(t, 6, sel.TotalCapacity())
}

func TestSelectTablesCombinationPrefersSmallestCapacity(t *testing.T) {
    // No single table seats 6, so the selector must combine. {4,2}
    // covers 6 exactly; {5,2} and {5,4} waste seats.
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 4, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 5, IsCombinable: true, IsActive: true},
    }
    sel, err := SelectTables(free, 6, 3)
    require.NoError(t, err)
    assert.Equal(t, []uint64{1, 2}, sel.TableIDs())
}

func TestSelectTablesCombinationRespectsMaxCombine(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    _, err := SelectTables(free, 5, 2)
    assert.ErrorIs(t, err, ErrNoCombinationAvailable)
}

func TestSelectTablesNoCombinationForLargeParty(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    _, err := SelectTables(free, 7, 3)
    assert.ErrorIs(t, err, ErrNoCombinationAvailable)
}

func TestSelectTablesNonCombinableNeverJoined(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 4, IsCombinable: false, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 4, IsCombinable: true, IsActive: true},
    }
    _, err := SelectTables(free, 6, 3)
    assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSelectTablesCombinationIgnoresMinCapacitySum(t *testing.T) {
    // MinCapacity guards a single table against small parties; it does
    // not stack across a joined set. Two six-tops with MinCapacity 4
    // seat a party of 7 even though their minimums sum to 8.
    free := []model.Table{
        {ID: 1, MinCapacity: 4, MaxCapacity: 6, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 4, MaxCapacity: 6, IsCombinable: true, IsActive: true},
    }
    sel, err := SelectTables(free, 7, 3)
    require.NoError(t, err)
    assert.True(t, sel.Combined)
    assert.Equal(t, []uint64{1, 2}, sel.TableIDs())

    sel, err = SelectTables(free, 9, 3)
    require.NoError(t, err)
    assert.Len(t, sel.Tables, 2)
}

func TestFitCount(t *testing.T) {
    free := []model.Table{
        {ID: 1, MinCapacity: 1, MaxCapacity: 4, IsCombinable: true, IsActive: true},
        {ID: 2, MinCapacity: 1, MaxCapacity: 4, IsCombinable: true, IsActive: true},
        {ID: 3, MinCapacity: 1, MaxCapacity: 2, IsCombinable: true, IsActive: true},
    }
    assert.Equal(t, 2, FitCount(free, 4, 3), "two singles fit a party of 4")
    assert.Equal(t, 1, FitCount(free, 6, 3), "only a combination fits 6")
    assert.Equal(t, 0, FitCount(free, 11, 3))
}
