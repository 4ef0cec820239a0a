package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/hoops-valuation/internal/aggregate"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/ranking"
	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
	"github.com/yourorg/hoops-valuation/internal/validation"
)

// Player list views
const (
	ViewAll        = "all"
	ViewFreeAgents = "free_agents"
	ViewTeam       = "team"
)

// RankedPlayer is a player row with its punt-aware total
type RankedPlayer struct {
	model.Player
	TotalValue float64 `json:"total_value"`
}

// PlayersResponse is the body of GET /api/players
type PlayersResponse struct {
	View          string               `json:"view"`
	Period        string               `json:"period"`
	Sort          ranking.SortState    `json:"sort"`
	Punts         model.PuntSet        `json:"punt_categories"`
	Players       []RankedPlayer       `json:"players"`
	Count         int                  `json:"count"`
	MedianTotal   float64              `json:"median_total"`
	TeamTotals    model.CategoryValues `json:"team_totals,omitempty"`
	LeagueMetrics json.RawMessage      `json:"league_metrics,omitempty"`
}

// RankedTeam is a team summary row with its punt-aware total
type RankedTeam struct {
	model.TeamSummary
	TotalValue float64 `json:"total_value"`
}

// GetTeams proxies the league's team list
func (s *Server) GetTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	teams, err := s.analytics.Teams(ctx)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// GetPlayers fetches one of the player views, filters it and ranks it
// Query params: view, period, team, position, q, sort, dir, punt, min.<CAT>,
// better_than_team, exclude_ir, lang
func (s *Server) GetPlayers(w http.ResponseWriter, r *http.Request) {
	st, clientID, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	q := r.URL.Query()
	view := q.Get("view")
	if view == "" {
		view = ViewAll
	}

	cfg := tabstate.Load(r.Context(), st, tabstate.KeySession, session.DefaultConfig()).WithDefaults()
	period := q.Get("period")
	if period == "" {
		period = cfg.Period
	}
	if period == "" {
		period = s.defaultPeriod
	}
	punts := cfg.Punts
	if p, ok := parsePunts(r); ok {
		punts = p
	}
	excludeIR := parseBoolParam(r, "exclude_ir", cfg.ExcludeIR)

	sortState := ranking.DefaultSort()
	if key := q.Get("sort"); key != "" {
		sortState.Key = ranking.Key(key)
	}
	if dir := q.Get("dir"); dir != "" {
		sortState.Direction = ranking.ParseDirection(dir)
	}

	roster := validation.RosterOptions{
		Position: strings.TrimSpace(q.Get("position")),
		Query:    q.Get("q"),
	}
	if teamID := parseIntParam(r, "team", 0); teamID > 0 {
		roster.TeamID = &teamID
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()
	ctx, token := s.gens.Begin(ctx, clientID+":players:"+view)
	defer token.Done()

	var list *model.PlayerList
	switch view {
	case ViewAll:
		list, err = s.analytics.AllPlayers(ctx, period, excludeIR)
	case ViewFreeAgents:
		list, err = s.analytics.FreeAgents(ctx, period, roster.Position)
	case ViewTeam:
		if roster.TeamID == nil {
			respondError(w, http.StatusBadRequest, "team is required for the team view", nil)
			return
		}
		list, err = s.analytics.TeamAnalytics(ctx, *roster.TeamID, period, excludeIR)
	default:
		respondError(w, http.StatusBadRequest, "unknown view: "+view, nil)
		return
	}
	// A superseded fetch is reported as stale even when its cancellation
	// surfaced as a transport error first.
	if stale := token.Check(); stale != nil {
		err = stale
	}
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	players := validation.FilterRoster(list.Players, roster)

	if view == ViewFreeAgents {
		if refID := s.betterThanTeam(r, cfg); refID > 0 {
			ref, err := s.analytics.TeamAnalytics(ctx, refID, period, excludeIR)
			if stale := token.Check(); stale != nil {
				err = stale
			}
			if err != nil {
				respondUpstreamError(w, err)
				return
			}
			players = validation.BetterThan(players, ref.Players, punts)
		}
	}

	ranked := ranking.Rank(players, ranking.Options{
		Filters:  parseThresholds(r),
		Sort:     sortState,
		Punted:   punts,
		Language: collationLanguage(r),
	})

	resp := PlayersResponse{
		View:          view,
		Period:        period,
		Sort:          sortState,
		Punts:         punts,
		Players:       make([]RankedPlayer, 0, len(ranked)),
		Count:         len(ranked),
		MedianTotal:   aggregate.Median(ranked, punts),
		LeagueMetrics: list.LeagueMetrics,
	}
	for _, p := range ranked {
		resp.Players = append(resp.Players, RankedPlayer{Player: p, TotalValue: aggregate.TotalValue(p.ZScores, punts)})
	}
	if view == ViewTeam {
		resp.TeamTotals = aggregate.TeamCategoryTotals(ranked, punts)
	}
	if s.metrics != nil {
		s.metrics.Ranked(view, len(ranked))
	}

	logrus.WithFields(logrus.Fields{
		"view":    view,
		"period":  period,
		"fetched": len(list.Players),
		"ranked":  len(ranked),
	}).Debug("Ranked player view")

	respondJSON(w, http.StatusOK, resp)
}

// betterThanTeam resolves better_than_team: an ID, or "main" for the session's
// main team
func (s *Server) betterThanTeam(r *http.Request, cfg session.Config) int {
	raw := r.URL.Query().Get("better_than_team")
	if raw == "main" {
		return cfg.MainTeamID
	}
	return parseIntParam(r, "better_than_team", 0)
}

// RankTeams summarizes every team's roster and ranks the summaries
// Query params: period, sort, dir, punt, exclude_ir, lang
func (s *Server) RankTeams(w http.ResponseWriter, r *http.Request) {
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}
	cfg := tabstate.Load(r.Context(), st, tabstate.KeySession, session.DefaultConfig()).WithDefaults()

	period := r.URL.Query().Get("period")
	if period == "" {
		period = cfg.Period
	}
	punts := cfg.Punts
	if p, ok := parsePunts(r); ok {
		punts = p
	}
	excludeIR := parseBoolParam(r, "exclude_ir", cfg.ExcludeIR)

	sortState := ranking.DefaultSort()
	if key := r.URL.Query().Get("sort"); key != "" {
		sortState.Key = ranking.Key(key)
	}
	if dir := r.URL.Query().Get("dir"); dir != "" {
		sortState.Direction = ranking.ParseDirection(dir)
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	teams, err := s.analytics.Teams(ctx)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	all, err := s.analytics.AllPlayers(ctx, period, excludeIR)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	summaries := make([]model.TeamSummary, 0, len(teams))
	for _, t := range teams {
		id := t.TeamID
		t.Players = validation.FilterRoster(all.Players, validation.RosterOptions{TeamID: &id})
		summaries = append(summaries, aggregate.Summarize(t))
	}

	ranked := ranking.Rank(summaries, ranking.Options{
		Sort:     sortState,
		Punted:   punts,
		Language: collationLanguage(r),
	})
	out := make([]RankedTeam, 0, len(ranked))
	for _, t := range ranked {
		out = append(out, RankedTeam{TeamSummary: t, TotalValue: aggregate.TotalValue(t.ZScores, punts)})
	}
	if s.metrics != nil {
		s.metrics.Ranked("teams", len(out))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"period":          period,
		"sort":            sortState,
		"punt_categories": punts,
		"teams":           out,
	})
}
