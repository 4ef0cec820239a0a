// Package aggregate reduces per-category values to scalar totals.
package aggregate

import (
	"math"
	"sort"

	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
)

// TotalValue sums values over every registered category that is not punted.
// Missing categories count as 0 and codes outside the registry are ignored,
// so the result does not depend on map contents beyond the registry.
func TotalValue(values model.CategoryValues, punted model.PuntSet) float64 {
	var total float64
	for _, c := range category.All() {
		if punted.Contains(c) {
			continue
		}
		total += values.Get(c)
	}
	return total
}

// GrandTotal sums every finite value present in the map, registry or not, and
// ignores punts. The comparison bar shows this figure.
func GrandTotal(values model.CategoryValues) float64 {
	// Iterate in a fixed order so float summation is reproducible.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		v := values[category.Category(k)]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total += v
	}
	return total
}

// TeamCategoryTotals sums z-scores per category across a roster. Punted
// categories are left out of the result entirely.
func TeamCategoryTotals(players []model.Player, punted model.PuntSet) model.CategoryValues {
	out := make(model.CategoryValues, category.Count())
	for _, c := range category.All() {
		if punted.Contains(c) {
			continue
		}
		var sum float64
		for _, p := range players {
			sum += p.ZScores.Get(c)
		}
		out[c] = sum
	}
	return out
}

// Summarize reduces a team roster to a single rankable row
func Summarize(team model.Team) model.TeamSummary {
	return model.TeamSummary{
		TeamID:   team.TeamID,
		TeamName: team.TeamName,
		ZScores:  TeamCategoryTotals(team.Players, nil),
	}
}

// MinTotal returns the lowest punted total across the players, or -Inf for an
// empty roster so that every comparison against it passes.
func MinTotal(players []model.Player, punted model.PuntSet) float64 {
	if len(players) == 0 {
		return math.Inf(-1)
	}

	lowest := math.Inf(1)
	for _, p := range players {
		if t := TotalValue(p.ZScores, punted); t < lowest {
			lowest = t
		}
	}
	return lowest
}

// Median returns the median punted total of the players. Empty input yields 0.
func Median(players []model.Player, punted model.PuntSet) float64 {
	if len(players) == 0 {
		return 0
	}

	values := make([]float64, len(players))
	for i, p := range players {
		values[i] = TotalValue(p.ZScores, punted)
	}
	sort.Float64s(values)

	n := len(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}
