package model

import (
	"encoding/json"

	"github.com/yourorg/hoops-valuation/internal/category"
)

// Delta is a before/after pair as computed by the analytics service
type Delta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

// TeamTradeResult is one team's authoritative outcome of a proposed trade.
// The engine displays these values and never recomputes them.
type TeamTradeResult struct {
	TeamID          int                         `json:"team_id,omitempty"`
	Name            string                      `json:"name,omitempty"`
	TeamName        string                      `json:"team_name,omitempty"`
	BeforeZ         float64                     `json:"before_z"`
	AfterZ          float64                     `json:"after_z"`
	Delta           float64                     `json:"delta"`
	Categories      map[category.Category]Delta `json:"categories,omitempty"`
	RawCategories   map[category.Category]Delta `json:"raw_categories,omitempty"`
	PlayersGiven    []string                    `json:"players_given,omitempty"`
	PlayersReceived []string                    `json:"players_received,omitempty"`
}

// DisplayName prefers the explicit team name over the generic one
func (r TeamTradeResult) DisplayName() string {
	if r.TeamName != "" {
		return r.TeamName
	}
	return r.Name
}

// TradeEvaluation is the response of a multi-team trade analysis.
// Simulation and category ranks are passed through untouched.
type TradeEvaluation struct {
	Teams            []TeamTradeResult `json:"teams"`
	SimulationRanks  json.RawMessage   `json:"simulation_ranks,omitempty"`
	CategoryRankings json.RawMessage   `json:"category_rankings,omitempty"`
}

// TwoTeamEvaluation is the response of the two-team trade analysis
type TwoTeamEvaluation struct {
	MyTeam           TeamTradeResult `json:"my_team"`
	TheirTeam        TeamTradeResult `json:"their_team"`
	MyTrade          TeamTradeResult `json:"my_trade"`
	TheirTrade       TeamTradeResult `json:"their_trade"`
	SimulationRanks  json.RawMessage `json:"simulation_ranks,omitempty"`
	CategoryRankings json.RawMessage `json:"category_rankings,omitempty"`
}

// PlayerList is the envelope of the all-players and free-agents endpoints
type PlayerList struct {
	Period        string          `json:"period,omitempty"`
	Players       []Player        `json:"players"`
	LeagueMetrics json.RawMessage `json:"league_metrics,omitempty"`
}
