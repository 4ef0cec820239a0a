package tabstate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/ranking"
	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/trade"
)

// Storage keys, one per screen
const (
	KeySession        = "session_state"
	KeyAnalytics      = "analytics_state"
	KeySimulation     = "simulation_state"
	KeyDashboard      = "dashboard_state"
	KeyTrade          = "trade_state"
	KeyMultiTeamTrade = "multiteam_trade_state"
	KeyPlayers        = "players_state"
	KeyAllPlayers     = "allplayers_state"
	KeyFreeAgents     = "freeagents_state"
)

// AnalyticsState is the team analytics screen
type AnalyticsState struct {
	SelectedTeam int               `json:"selectedTeam,omitempty"`
	Sort         ranking.SortState `json:"sort"`
	ShowRaw      bool              `json:"showRaw"`
}

// SimulationState is the matchup simulation screen
type SimulationState struct {
	MyTeam       int    `json:"myTeam,omitempty"`
	WeeksToShow  int    `json:"weeksToShow"`
	SelectedWeek string `json:"selectedWeek,omitempty"`
}

// DashboardState is the landing screen
type DashboardState struct {
	ComparedTeams []string          `json:"comparedTeams"`
	Sort          ranking.SortState `json:"sort"`
}

// TradeState is the two-team trade screen
type TradeState struct {
	MyTeam    int      `json:"myTeam,omitempty"`
	TheirTeam int      `json:"theirTeam,omitempty"`
	Give      []string `json:"give"`
	Receive   []string `json:"receive"`
	ScopeMode string   `json:"scopeMode"`
}

// MultiTeamTradeState is the multi-team trade builder
type MultiTeamTradeState struct {
	Slots []trade.Slot `json:"teamTrades"`
}

// PlayersState is the per-team roster screen
type PlayersState struct {
	SelectedTeam int               `json:"selectedTeam,omitempty"`
	Sort         ranking.SortState `json:"sort"`
	Filters      model.FilterSet   `json:"filters"`
	Comparison   []string          `json:"comparison"`
}

// AllPlayersState is the league-wide player list
type AllPlayersState struct {
	Position   string            `json:"position"`
	Query      string            `json:"searchQuery"`
	Sort       ranking.SortState `json:"sort"`
	Filters    model.FilterSet   `json:"filters"`
	Comparison []string          `json:"comparison"`
}

// FreeAgentsState is the free agent list
type FreeAgentsState struct {
	Position       string            `json:"position"`
	Query          string            `json:"searchQuery"`
	OnlyBetterThan bool              `json:"onlyBetterThanMine"`
	Sort           ranking.SortState `json:"sort"`
	Filters        model.FilterSet   `json:"filters"`
	Comparison     []string          `json:"comparison"`
}

// Defaults returns the default record for a known key. ok is false for
// unknown keys.
func Defaults(key string) (any, bool) {
	switch key {
	case KeySession:
		return session.DefaultConfig(), true
	case KeyAnalytics:
		return AnalyticsState{Sort: ranking.DefaultSort()}, true
	case KeySimulation:
		return SimulationState{WeeksToShow: 1}, true
	case KeyDashboard:
		return DashboardState{ComparedTeams: []string{}, Sort: ranking.DefaultSort()}, true
	case KeyTrade:
		return TradeState{Give: []string{}, Receive: []string{}, ScopeMode: trade.ScopeTeam}, true
	case KeyMultiTeamTrade:
		return MultiTeamTradeState{Slots: trade.NewProposal().Slots}, true
	case KeyPlayers:
		return PlayersState{Sort: ranking.DefaultSort(), Filters: model.FilterSet{}, Comparison: []string{}}, true
	case KeyAllPlayers:
		return AllPlayersState{Sort: ranking.DefaultSort(), Filters: model.FilterSet{}, Comparison: []string{}}, true
	case KeyFreeAgents:
		return FreeAgentsState{Sort: ranking.DefaultSort(), Filters: model.FilterSet{}, Comparison: []string{}}, true
	}
	return nil, false
}

// LoadScreen loads the record for key merged over its defaults and returns it
// as a value ready for JSON encoding.
func LoadScreen(ctx context.Context, s *Store, key string) (any, error) {
	switch key {
	case KeySession:
		return Load(ctx, s, key, session.DefaultConfig()).WithDefaults(), nil
	case KeyAnalytics:
		return Load(ctx, s, key, mustDefault[AnalyticsState](key)), nil
	case KeySimulation:
		return Load(ctx, s, key, mustDefault[SimulationState](key)), nil
	case KeyDashboard:
		return Load(ctx, s, key, mustDefault[DashboardState](key)), nil
	case KeyTrade:
		return Load(ctx, s, key, mustDefault[TradeState](key)), nil
	case KeyMultiTeamTrade:
		st := Load(ctx, s, key, mustDefault[MultiTeamTradeState](key))
		st.Slots = trade.Restore(st.Slots).Slots
		return st, nil
	case KeyPlayers:
		return Load(ctx, s, key, mustDefault[PlayersState](key)), nil
	case KeyAllPlayers:
		return Load(ctx, s, key, mustDefault[AllPlayersState](key)), nil
	case KeyFreeAgents:
		return Load(ctx, s, key, mustDefault[FreeAgentsState](key)), nil
	}
	return nil, fmt.Errorf("%w: unknown screen %q", ErrInvalidKey, key)
}

// SaveScreen decodes data into the record type for key, dropping unknown
// fields, and stores the re-encoded record.
func SaveScreen(ctx context.Context, s *Store, key string, data []byte) error {
	switch key {
	case KeySession:
		return saveDecoded[session.Config](ctx, s, key, data)
	case KeyAnalytics:
		return saveDecoded[AnalyticsState](ctx, s, key, data)
	case KeySimulation:
		return saveDecoded[SimulationState](ctx, s, key, data)
	case KeyDashboard:
		return saveDecoded[DashboardState](ctx, s, key, data)
	case KeyTrade:
		return saveDecoded[TradeState](ctx, s, key, data)
	case KeyMultiTeamTrade:
		return saveDecoded[MultiTeamTradeState](ctx, s, key, data)
	case KeyPlayers:
		return saveDecoded[PlayersState](ctx, s, key, data)
	case KeyAllPlayers:
		return saveDecoded[AllPlayersState](ctx, s, key, data)
	case KeyFreeAgents:
		return saveDecoded[FreeAgentsState](ctx, s, key, data)
	}
	return fmt.Errorf("%w: unknown screen %q", ErrInvalidKey, key)
}

// IsScreen reports whether key names a known screen record
func IsScreen(key string) bool {
	_, ok := Defaults(key)
	return ok
}

func saveDecoded[T any](ctx context.Context, s *Store, key string, data []byte) error {
	state := mustDefault[T](key)
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return Save(ctx, s, key, state)
}

func mustDefault[T any](key string) T {
	v, _ := Defaults(key)
	return v.(T)
}
