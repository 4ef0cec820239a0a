// Package validation decides which entities survive user-supplied filters before
// they are ranked or displayed.
package validation

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/hoops-valuation/internal/aggregate"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
)

// FilterByThresholds keeps entities whose raw stats clear every threshold in
// filters. With no active filters the input is returned unchanged. Once any
// filter is active, entities without a raw stats map are dropped.
func FilterByThresholds[E model.Valued](entities []E, filters model.FilterSet) []E {
	if len(filters) == 0 {
		return entities
	}

	kept := make([]E, 0, len(entities))
	for _, e := range entities {
		if meetsThresholds(e.Raw(), filters) {
			kept = append(kept, e)
		} else {
			logrus.WithFields(logrus.Fields{
				"entity":  e.Key(),
				"filters": len(filters),
			}).Debug("Filtered entity below threshold")
		}
	}
	return kept
}

// StatPasses checks a single category threshold against a stats map. An
// absent value fails.
func StatPasses(stats model.RawStats, c category.Category, min float64) bool {
	raw, ok := stats.Lookup(c)
	if !ok {
		return false
	}
	return PassesThreshold(c, raw, min)
}

// meetsThresholds checks one stats map against all thresholds
func meetsThresholds(stats model.RawStats, filters model.FilterSet) bool {
	if stats == nil {
		return false
	}
	for c, min := range filters {
		if !StatPasses(stats, c, min) {
			return false
		}
	}
	return true
}

// RosterOptions narrows a player list the way the player screens do
type RosterOptions struct {
	// TeamID keeps only players on this fantasy team when set
	TeamID *int

	// Position keeps players whose position string contains it, e.g. "PG"
	Position string

	// Query keeps players whose name contains it, case-insensitively
	Query string

	// Thresholds are per-category raw-stat minimums
	Thresholds model.FilterSet
}

// IsZero reports whether no narrowing is requested
func (o RosterOptions) IsZero() bool {
	return o.TeamID == nil && o.Position == "" && strings.TrimSpace(o.Query) == "" && len(o.Thresholds) == 0
}

// FilterRoster applies team, position, name and threshold filters in that order
func FilterRoster(players []model.Player, opts RosterOptions) []model.Player {
	if opts.IsZero() {
		return players
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	kept := make([]model.Player, 0, len(players))
	for _, p := range players {
		if opts.TeamID != nil && !p.OnTeam(*opts.TeamID) {
			continue
		}
		if opts.Position != "" && !strings.Contains(p.Position, opts.Position) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		kept = append(kept, p)
	}

	return FilterByThresholds(kept, opts.Thresholds)
}

// BetterThan keeps players whose punted total strictly exceeds the weakest
// player of the reference roster. An empty reference roster keeps everyone.
func BetterThan(players, reference []model.Player, punted model.PuntSet) []model.Player {
	floor := aggregate.MinTotal(reference, punted)

	kept := make([]model.Player, 0, len(players))
	for _, p := range players {
		if aggregate.TotalValue(p.ZScores, punted) > floor {
			kept = append(kept, p)
		}
	}

	logrus.WithFields(logrus.Fields{
		"total": len(players),
		"kept":  len(kept),
	}).Debug("Applied better-than-roster filter")

	return kept
}
