// Package session holds the selections shared by every screen: period, punted
// categories, main team and the injured-reserve toggle. Screens read a Config
// value and pass it into engine calls; none of them own it.
package session

import (
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
)

// Known period selectors
const (
	PeriodTotal     = "2026_total"
	PeriodLast30    = "2026_last_30"
	PeriodLast15    = "2026_last_15"
	PeriodLast7     = "2026_last_7"
	PeriodProjected = "2026_projected"
)

// Periods lists the selectors offered by the period picker
var Periods = []string{PeriodTotal, PeriodLast30, PeriodLast15, PeriodLast7, PeriodProjected}

// Config is the session-wide selection state
type Config struct {
	Period     string        `json:"period"`
	Punts      model.PuntSet `json:"puntCategories"`
	MainTeamID int           `json:"mainTeamId,omitempty"`
	ExcludeIR  bool          `json:"excludeIr"`
}

// DefaultConfig returns full-season, no punts
func DefaultConfig() Config {
	return Config{
		Period: PeriodTotal,
		Punts:  model.PuntSet{},
	}
}

// WithDefaults fills empty fields from DefaultConfig
func (c Config) WithDefaults() Config {
	if c.Period == "" {
		c.Period = PeriodTotal
	}
	if c.Punts == nil {
		c.Punts = model.PuntSet{}
	}
	return c
}

// TogglePunt returns a copy of c with the category's punt flipped
func (c Config) TogglePunt(cat category.Category) Config {
	c.Punts = c.Punts.Toggle(cat)
	return c
}

// HasMainTeam reports whether a main team has been chosen
func (c Config) HasMainTeam() bool {
	return c.MainTeamID > 0
}

// IsKnownPeriod reports whether p is one of the offered selectors. Unknown
// selectors are still passed through to the API.
func IsKnownPeriod(p string) bool {
	for _, known := range Periods {
		if p == known {
			return true
		}
	}
	return false
}
