package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
)

func intPtr(v int) *int { return &v }

func names(players []model.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 45.0, Normalize(category.FieldGoalPct, 0.45))
	assert.Equal(t, 45.0, Normalize(category.FieldGoalPct, 45))
	assert.Equal(t, 20.0, Normalize(category.Points, 20))
	assert.Equal(t, 0.5, Normalize(category.AssistToTurnover, 0.5), "ratios are not percentages")
	assert.Equal(t, 100.0, Normalize(category.ThreePointPct, 100))
}

// A genuine 0.8% shooter is indistinguishable from an 80% fraction. The
// heuristic scales it up; this test pins that behavior.
func TestNormalize_AmbiguousSubOnePercent(t *testing.T) {
	assert.InDelta(t, 80.0, Normalize(category.ThreePointPct, 0.8), 1e-9)
	assert.Equal(t, 1.0, Normalize(category.ThreePointPct, 1.0), "1.0 is read as one percent")
	assert.InDelta(t, 99.0, Normalize(category.FreeThrowPct, 0.99), 1e-9)
}

func TestPassesThreshold(t *testing.T) {
	assert.True(t, PassesThreshold(category.FreeThrowPct, 0.80, 75))
	assert.True(t, PassesThreshold(category.FreeThrowPct, 80, 75))
	assert.False(t, PassesThreshold(category.FreeThrowPct, 0.75, 75), "equal is excluded")
	assert.False(t, PassesThreshold(category.FreeThrowPct, 75, 75), "equal is excluded")
	assert.False(t, PassesThreshold(category.Points, math.NaN(), 10))
	assert.True(t, PassesThreshold(category.Points, 10.1, 10))
	assert.False(t, PassesThreshold(category.Points, 10, 10))
}

func TestStatPasses_Absent(t *testing.T) {
	stats := model.RawStats{"PTS": 25}
	assert.True(t, StatPasses(stats, category.Points, 20))
	assert.False(t, StatPasses(stats, category.Rebounds, -100), "absent values fail")
	assert.False(t, StatPasses(nil, category.Points, -100))
}

func TestFilterByThresholds(t *testing.T) {
	players := []model.Player{
		{Name: "Shooter", Stats: model.RawStats{"FT%": 0.91, "PTS": 18}},
		{Name: "Brick", Stats: model.RawStats{"FT%": 55, "PTS": 22}},
		{Name: "NoStats"},
		{Name: "Partial", Stats: model.RawStats{"PTS": 30}},
	}

	t.Run("no filters keeps everyone", func(t *testing.T) {
		assert.Equal(t, players, FilterByThresholds(players, nil))
	})

	t.Run("percentage threshold", func(t *testing.T) {
		got := FilterByThresholds(players, model.FilterSet{category.FreeThrowPct: 75})
		assert.Equal(t, []string{"Shooter"}, names(got))
	})

	t.Run("every threshold must hold", func(t *testing.T) {
		got := FilterByThresholds(players, model.FilterSet{
			category.FreeThrowPct: 50,
			category.Points:       20,
		})
		assert.Equal(t, []string{"Brick"}, names(got))
	})

	t.Run("entities without stats are dropped", func(t *testing.T) {
		got := FilterByThresholds(players, model.FilterSet{category.Points: -1})
		assert.Equal(t, []string{"Shooter", "Brick", "Partial"}, names(got))
	})
}

func TestFilterByThresholds_TeamSummaries(t *testing.T) {
	teams := []model.TeamSummary{
		{TeamName: "A", Stats: model.RawStats{"REB": 40}},
		{TeamName: "B", Stats: model.RawStats{"REB": 35}},
	}
	got := FilterByThresholds(teams, model.FilterSet{category.Rebounds: 38})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].TeamName)
}

func TestFilterRoster(t *testing.T) {
	players := []model.Player{
		{Name: "Stephen Curry", Position: "PG", FantasyTeamID: intPtr(1), Stats: model.RawStats{"3PM": 4.8}},
		{Name: "Luka Doncic", Position: "PG, SG", FantasyTeamID: intPtr(2), Stats: model.RawStats{"3PM": 3.5}},
		{Name: "Rudy Gobert", Position: "C", FantasyTeamID: intPtr(1), Stats: model.RawStats{"3PM": 0}},
		{Name: "Free Agent Guy", Position: "SG"},
	}

	tests := []struct {
		name string
		opts RosterOptions
		want []string
	}{
		{"zero options", RosterOptions{}, []string{"Stephen Curry", "Luka Doncic", "Rudy Gobert", "Free Agent Guy"}},
		{"team", RosterOptions{TeamID: intPtr(1)}, []string{"Stephen Curry", "Rudy Gobert"}},
		{"position substring", RosterOptions{Position: "SG"}, []string{"Luka Doncic", "Free Agent Guy"}},
		{"name search ignores case", RosterOptions{Query: "  LUKA "}, []string{"Luka Doncic"}},
		{"threshold after others", RosterOptions{Position: "PG", Thresholds: model.FilterSet{category.ThreesMade: 4}}, []string{"Stephen Curry"}},
		{"nothing matches", RosterOptions{TeamID: intPtr(9)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(FilterRoster(players, tt.opts)))
		})
	}
}

func TestBetterThan(t *testing.T) {
	mine := []model.Player{
		{Name: "Starter", ZScores: model.CategoryValues{category.Points: 3}},
		{Name: "Scrub", ZScores: model.CategoryValues{category.Points: 1, category.FreeThrowPct: -2}},
	}
	agents := []model.Player{
		{Name: "Good", ZScores: model.CategoryValues{category.Points: 0.5}},
		{Name: "Equal", ZScores: model.CategoryValues{category.Points: -1}},
		{Name: "Bad", ZScores: model.CategoryValues{category.Points: -3}},
	}

	assert.Equal(t, []string{"Good"}, names(BetterThan(agents, mine, nil)))

	// Punting FT% lifts the scrub to 1.0, so only players above 1.0 remain.
	assert.Empty(t, BetterThan(agents, mine, model.NewPuntSet(category.FreeThrowPct)))

	assert.Len(t, BetterThan(agents, nil, nil), 3, "empty reference roster keeps everyone")
}
