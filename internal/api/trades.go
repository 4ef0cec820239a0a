package api

import (
	"net/http"

	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
	"github.com/yourorg/hoops-valuation/internal/trade"
)

// ProposalRequest is a multi-team proposal as the trade builder holds it
type ProposalRequest struct {
	Slots []trade.Slot `json:"teamTrades"`
}

// ValidationResponse is the body of POST /api/trades/validate
type ValidationResponse struct {
	Valid             bool             `json:"valid"`
	Violations        trade.Violations `json:"violations"`
	TradedPlayers     []string         `json:"traded_players"`
	ReceiveCandidates []string         `json:"receive_candidates"`
}

// EvaluationResponse wraps an evaluation or the reasons it was refused
type EvaluationResponse struct {
	Violations trade.Violations `json:"violations,omitempty"`
	Result     any              `json:"result,omitempty"`
}

// ValidateTrade checks a proposal locally without contacting the API
func (s *Server) ValidateTrade(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p := trade.Restore(req.Slots)
	v := p.Validate()
	if v == nil {
		v = trade.Violations{}
	}
	respondJSON(w, http.StatusOK, ValidationResponse{
		Valid:             v.OK(),
		Violations:        v,
		TradedPlayers:     p.TradedPlayers(),
		ReceiveCandidates: p.ReceiveCandidates(),
	})
}

// EvaluateTrade validates, serializes and forwards a multi-team proposal using
// the caller's session period, punts and IR flag
func (s *Server) EvaluateTrade(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	cfg, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	result, v := trade.Submit(ctx, trade.Restore(req.Slots), cfg, s.analytics)
	s.respondEvaluation(w, result, v)
}

// EvaluateTwoTeamTrade forwards the two-team form
func (s *Server) EvaluateTwoTeamTrade(w http.ResponseWriter, r *http.Request) {
	// exclude_ir is optional here; absent means the session's flag
	var body struct {
		trade.TwoTeamRequest
		ExcludeIR *bool `json:"exclude_ir"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	cfg, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	req := body.TwoTeamRequest
	req.ExcludeIR = cfg.ExcludeIR
	if body.ExcludeIR != nil {
		req.ExcludeIR = *body.ExcludeIR
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	result, v := trade.SubmitTwoTeam(ctx, req, cfg, s.analytics)
	s.respondEvaluation(w, result, v)
}

func (s *Server) respondEvaluation(w http.ResponseWriter, result any, v trade.Violations) {
	if !v.OK() {
		outcome := "violations"
		if len(v) == 1 && v[0] == trade.MsgRemoteFailure {
			outcome = "failed"
		}
		if s.metrics != nil {
			s.metrics.TradeOutcome(outcome)
		}
		respondJSON(w, http.StatusUnprocessableEntity, EvaluationResponse{Violations: v})
		return
	}
	if s.metrics != nil {
		s.metrics.TradeOutcome("ok")
	}
	respondJSON(w, http.StatusOK, EvaluationResponse{Result: result})
}

// sessionFor loads the caller's shared session config
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (session.Config, bool) {
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return session.Config{}, false
	}
	return tabstate.Load(r.Context(), st, tabstate.KeySession, session.DefaultConfig()).WithDefaults(), true
}
