package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yourorg/hoops-valuation/internal/aggregate"
	"github.com/yourorg/hoops-valuation/internal/comparison"
	"github.com/yourorg/hoops-valuation/internal/model"
)

// CompareRequest carries either players or teams, not both. Teams are reduced
// to summaries before comparison.
type CompareRequest struct {
	Players []model.Player `json:"players"`
	Teams   []model.Team   `json:"teams"`
}

// Compare builds a side-by-side view of up to five players or teams.
// Repeated names are compared once.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	switch {
	case len(req.Players) > 0 && len(req.Teams) > 0:
		respondError(w, http.StatusBadRequest, "compare players or teams, not both", nil)
	case len(req.Teams) > 0:
		summaries := make([]model.TeamSummary, 0, len(req.Teams))
		for _, t := range req.Teams {
			summaries = append(summaries, aggregate.Summarize(t))
		}
		respondComparison(w, summaries)
	default:
		respondComparison(w, req.Players)
	}
}

func respondComparison[E model.Valued](w http.ResponseWriter, entities []E) {
	sel := comparison.NewSelection[E]()
	for _, e := range entities {
		err := sel.Add(e)
		switch {
		case err == nil, errors.Is(err, comparison.ErrDuplicate):
			// A repeated entity is already in the view
		case errors.Is(err, comparison.ErrSelectionFull):
			respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("cannot compare %q: %v", e.Key(), err), nil)
			return
		default:
			respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot compare %q: %v", e.Key(), err), nil)
			return
		}
	}
	respondJSON(w, http.StatusOK, comparison.BuildView(sel))
}
