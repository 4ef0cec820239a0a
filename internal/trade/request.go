package trade

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/session"
)

// Scope modes of the two-team analysis
const (
	ScopeTeam  = "team"
	ScopeTrade = "trade"
)

// Line is one team's part of a serialized trade
type Line struct {
	TeamID  int      `json:"team_id"`
	Give    []string `json:"give"`
	Receive []string `json:"receive"`
}

// MultiTeamRequest is the body of a multi-team trade analysis
type MultiTeamRequest struct {
	Trades         []Line              `json:"trades"`
	Period         string              `json:"period"`
	PuntCategories []category.Category `json:"punt_categories"`
	ExcludeIR      bool                `json:"exclude_ir"`
}

// TwoTeamRequest is the body of a two-team trade analysis
type TwoTeamRequest struct {
	MyTeamID       int                 `json:"my_team_id"`
	TheirTeamID    int                 `json:"their_team_id"`
	IGive          []string            `json:"i_give"`
	IReceive       []string            `json:"i_receive"`
	Period         string              `json:"period"`
	PuntCategories []category.Category `json:"punt_categories"`
	ScopeMode      string              `json:"scope_mode"`
	ExcludeIR      bool                `json:"exclude_ir"`
}

// Validate mirrors the proposal rules for the two-team form
func (r TwoTeamRequest) Validate() Violations {
	var v Violations
	if r.MyTeamID == 0 || r.TheirTeamID == 0 {
		v = append(v, MsgBothTeams)
	} else if r.MyTeamID == r.TheirTeamID {
		v = append(v, MsgSameTeam)
	}
	if len(r.IGive) == 0 && len(r.IReceive) == 0 {
		v = append(v, MsgNoPlayers)
	}
	return v
}

// Evaluator is the remote service that computes trade deltas
type Evaluator interface {
	EvaluateMultiTeam(ctx context.Context, req MultiTeamRequest) (*model.TradeEvaluation, error)
	EvaluateTwoTeam(ctx context.Context, req TwoTeamRequest) (*model.TwoTeamEvaluation, error)
}

// Serialize validates the proposal and, if valid, turns it into a request
// carrying the session's period, punts and IR flag. Slots without a team never
// reach the wire.
func (p *Proposal) Serialize(cfg session.Config) (MultiTeamRequest, Violations) {
	if v := p.Validate(); !v.OK() {
		return MultiTeamRequest{}, v
	}

	cfg = cfg.WithDefaults()
	req := MultiTeamRequest{
		Trades:         make([]Line, 0, len(p.Slots)),
		Period:         cfg.Period,
		PuntCategories: cfg.Punts.Slice(),
		ExcludeIR:      cfg.ExcludeIR,
	}
	for _, s := range p.Slots {
		if !s.HasTeam() {
			continue
		}
		req.Trades = append(req.Trades, Line{
			TeamID:  s.TeamID,
			Give:    append([]string{}, s.Give...),
			Receive: append([]string{}, s.Receive...),
		})
	}
	return req, nil
}

// Submit validates, serializes and sends the proposal. Local violations, remote
// validation errors and transport failures all come back as Violations.
func Submit(ctx context.Context, p *Proposal, cfg session.Config, ev Evaluator) (*model.TradeEvaluation, Violations) {
	req, v := p.Serialize(cfg)
	if !v.OK() {
		return nil, v
	}

	result, err := ev.EvaluateMultiTeam(ctx, req)
	if err != nil {
		return nil, asViolations(err)
	}
	return result, nil
}

// SubmitTwoTeam is Submit for the two-team form
func SubmitTwoTeam(ctx context.Context, req TwoTeamRequest, cfg session.Config, ev Evaluator) (*model.TwoTeamEvaluation, Violations) {
	if v := req.Validate(); !v.OK() {
		return nil, v
	}

	cfg = cfg.WithDefaults()
	if req.Period == "" {
		req.Period = cfg.Period
	}
	if req.PuntCategories == nil {
		req.PuntCategories = cfg.Punts.Slice()
	}
	if req.ScopeMode != ScopeTrade {
		req.ScopeMode = ScopeTeam
	}

	result, err := ev.EvaluateTwoTeam(ctx, req)
	if err != nil {
		return nil, asViolations(err)
	}
	return result, nil
}

// asViolations maps an evaluator error onto the violation channel
func asViolations(err error) Violations {
	var remote Violations
	if errors.As(err, &remote) && !remote.OK() {
		return remote
	}
	logrus.WithError(err).Warn("Trade evaluation failed")
	return Violations{MsgRemoteFailure}
}
