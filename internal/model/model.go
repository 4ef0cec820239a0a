// Package model defines the core data structures shared by the valuation engine.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/yourorg/hoops-valuation/internal/category"
)

// CategoryValues maps a category to a numeric value, usually a z-score.
// Absent categories read as 0 wherever a total is computed.
type CategoryValues map[category.Category]float64

// Get returns the value for c, or 0 when c is absent
func (v CategoryValues) Get(c category.Category) float64 {
	return v[c]
}

// Clone returns an independent copy of the map
func (v CategoryValues) Clone() CategoryValues {
	if v == nil {
		return nil
	}
	out := make(CategoryValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// RawStats holds the raw per-game statistics of an entity keyed by stat code.
// It carries more keys than the category registry (GP, MIN, ...). Only finite
// numeric values survive decoding; anything else is treated as absent.
type RawStats map[string]float64

// Lookup returns the raw value for a category and whether it is present
func (s RawStats) Lookup(c category.Category) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s[string(c)]
	return v, ok
}

// UnmarshalJSON decodes a stats object, dropping null, non-numeric and
// non-finite values. A JSON null leaves the map nil.
func (s *RawStats) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding raw stats: %w", err)
	}

	out := make(RawStats, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[k] = f
	}
	*s = out
	return nil
}

// Player represents a single player row as returned by the analytics API.
// Name is the unique key within one response.
type Player struct {
	// Display name and identity key
	Name string `json:"name"`

	// Eligible positions, e.g. "PG, SG"
	Position string `json:"position"`

	// Real-world team abbreviation
	NBATeam string `json:"nba_team"`

	// Fantasy team assignment, empty for free agents
	FantasyTeam   string `json:"fantasy_team,omitempty"`
	FantasyTeamID *int   `json:"fantasy_team_id,omitempty"`

	// Per-category z-scores computed server-side
	ZScores CategoryValues `json:"z_scores"`

	// Raw statistics; nil when the API did not return any
	Stats RawStats `json:"stats,omitempty"`
}

// Key implements Valued
func (p Player) Key() string { return p.Name }

// Values implements Valued
func (p Player) Values() CategoryValues { return p.ZScores }

// Raw implements Valued
func (p Player) Raw() RawStats { return p.Stats }

// OnTeam reports whether the player is rostered by the given fantasy team
func (p Player) OnTeam(teamID int) bool {
	return p.FantasyTeamID != nil && *p.FantasyTeamID == teamID
}

// IsValid performs basic shape validation on a decoded player
func (p Player) IsValid() bool {
	return p.Name != ""
}

// Team is a fantasy team as listed by the analytics API
type Team struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`

	// Roster is only populated by per-team queries
	Players []Player `json:"players,omitempty"`
}

// TeamSummary is a team reduced to one value row so it can be ranked and
// compared the same way a player is.
type TeamSummary struct {
	TeamID   int            `json:"team_id"`
	TeamName string         `json:"team_name"`
	ZScores  CategoryValues `json:"z_scores"`
	Stats    RawStats       `json:"stats,omitempty"`
}

// Key implements Valued
func (t TeamSummary) Key() string { return t.TeamName }

// Values implements Valued
func (t TeamSummary) Values() CategoryValues { return t.ZScores }

// Raw implements Valued
func (t TeamSummary) Raw() RawStats { return t.Stats }

// Valued is anything that carries a display key, z-scores and optional raw stats.
// Players and team summaries both satisfy it.
type Valued interface {
	Key() string
	Values() CategoryValues
	Raw() RawStats
}

// PuntSet is the set of categories excluded from total-value computations
type PuntSet map[category.Category]struct{}

// NewPuntSet builds a punt set from the given categories
func NewPuntSet(cats ...category.Category) PuntSet {
	p := make(PuntSet, len(cats))
	for _, c := range cats {
		p[c] = struct{}{}
	}
	return p
}

// Contains reports whether c is punted. A nil set punts nothing.
func (p PuntSet) Contains(c category.Category) bool {
	_, ok := p[c]
	return ok
}

// Toggle returns a new set with c added if absent or removed if present
func (p PuntSet) Toggle(c category.Category) PuntSet {
	out := make(PuntSet, len(p)+1)
	for k := range p {
		out[k] = struct{}{}
	}
	if _, ok := out[c]; ok {
		delete(out, c)
	} else {
		out[c] = struct{}{}
	}
	return out
}

// Slice returns punted categories, registry ones first in display order,
// then any unknown codes sorted.
func (p PuntSet) Slice() []category.Category {
	out := make([]category.Category, 0, len(p))
	for _, c := range category.All() {
		if p.Contains(c) {
			out = append(out, c)
		}
	}
	var unknown []category.Category
	for c := range p {
		if !category.IsKnown(c) {
			unknown = append(unknown, c)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(out, unknown...)
}

// MarshalJSON encodes the set as an ordered array of codes
func (p PuntSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Slice())
}

// UnmarshalJSON decodes an array of codes
func (p *PuntSet) UnmarshalJSON(data []byte) error {
	var codes []category.Category
	if err := json.Unmarshal(data, &codes); err != nil {
		return fmt.Errorf("decoding punt set: %w", err)
	}
	*p = NewPuntSet(codes...)
	return nil
}

// FilterSet maps a category to a minimum raw-stat threshold
type FilterSet map[category.Category]float64
