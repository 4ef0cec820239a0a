package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/trade"
)

// Client must satisfy the trade evaluator contract
var _ trade.Evaluator = (*Client)(nil)

// Teams lists the fantasy teams of the league
func (c *Client) Teams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	if err := c.get(ctx, "teams", "/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// TeamAnalytics returns one team's roster with z-scores and raw stats
func (c *Client) TeamAnalytics(ctx context.Context, teamID int, period string, excludeIR bool) (*model.PlayerList, error) {
	q := url.Values{}
	q.Set("period", period)
	q.Set("exclude_ir", strconv.FormatBool(excludeIR))

	var raw struct {
		Period  string `json:"period"`
		Players []struct {
			model.Player
			TeamID   int    `json:"team_id"`
			TeamName string `json:"team_name"`
		} `json:"players"`
		LeagueMetrics json.RawMessage `json:"league_metrics"`
	}
	if err := c.get(ctx, "team_analytics", fmt.Sprintf("/analytics/%d", teamID), q, &raw); err != nil {
		return nil, err
	}

	out := &model.PlayerList{Period: raw.Period, LeagueMetrics: raw.LeagueMetrics}
	for _, row := range raw.Players {
		p := row.Player
		id := row.TeamID
		if id == 0 {
			id = teamID
		}
		p.FantasyTeamID = &id
		if p.FantasyTeam == "" {
			p.FantasyTeam = row.TeamName
		}
		out.Players = append(out.Players, p)
	}
	return out, nil
}

// AllPlayers returns every rostered player of the league
func (c *Client) AllPlayers(ctx context.Context, period string, excludeIR bool) (*model.PlayerList, error) {
	q := url.Values{}
	q.Set("period", period)
	if excludeIR {
		q.Set("exclude_ir", "true")
	}
	var list model.PlayerList
	if err := c.get(ctx, "all_players", "/all-players", q, &list); err != nil {
		return nil, err
	}
	return validPlayers(&list), nil
}

// FreeAgents returns unrostered players, optionally narrowed by position on
// the server side
func (c *Client) FreeAgents(ctx context.Context, period, position string) (*model.PlayerList, error) {
	q := url.Values{}
	q.Set("period", period)
	if position != "" {
		q.Set("position", position)
	}
	var list model.PlayerList
	if err := c.get(ctx, "free_agents", "/free-agents", q, &list); err != nil {
		return nil, err
	}
	return validPlayers(&list), nil
}

// EvaluateMultiTeam sends a serialized proposal for analysis
func (c *Client) EvaluateMultiTeam(ctx context.Context, req trade.MultiTeamRequest) (*model.TradeEvaluation, error) {
	var out model.TradeEvaluation
	if err := c.post(ctx, "multi_team_trade", "/multi-team-trade-analysis", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvaluateTwoTeam sends a two-team trade for analysis
func (c *Client) EvaluateTwoTeam(ctx context.Context, req trade.TwoTeamRequest) (*model.TwoTeamEvaluation, error) {
	var out model.TwoTeamEvaluation
	if err := c.post(ctx, "two_team_trade", "/trade-analysis", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// remoteError turns an error envelope into violations. Without a
// validation_errors list the error text itself is the only violation.
func remoteError(env envelope) trade.Violations {
	if len(env.ValidationErrors) > 0 {
		return trade.Violations(append([]string(nil), env.ValidationErrors...))
	}
	return trade.Violations{env.Error}
}

// validPlayers drops rows that failed basic shape validation
func validPlayers(list *model.PlayerList) *model.PlayerList {
	kept := list.Players[:0]
	for _, p := range list.Players {
		if !p.IsValid() {
			logrus.WithField("period", list.Period).Debug("Dropping player row without a name")
			continue
		}
		kept = append(kept, p)
	}
	list.Players = kept
	return list
}
