package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
)

// GetState returns a screen's remembered state merged over its defaults
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	if !tabstate.IsScreen(screen) {
		respondError(w, http.StatusNotFound, "unknown screen: "+screen, nil)
		return
	}
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	state, err := tabstate.LoadScreen(r.Context(), st, screen)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load state", err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// PutState replaces a screen's remembered state
func (s *Server) PutState(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	if !tabstate.IsScreen(screen) {
		respondError(w, http.StatusNotFound, "unknown screen: "+screen, nil)
		return
	}
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body", err)
		return
	}
	if err := tabstate.SaveScreen(r.Context(), st, screen, body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteState forgets a screen's state
func (s *Server) DeleteState(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	if !tabstate.IsScreen(screen) {
		respondError(w, http.StatusNotFound, "unknown screen: "+screen, nil)
		return
	}
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}
	if err := st.Clear(r.Context(), screen); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the caller's shared selections
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// PutSession replaces the caller's shared selections
func (s *Server) PutSession(w http.ResponseWriter, r *http.Request) {
	var cfg session.Config
	if err := decodeBody(r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	cfg = cfg.WithDefaults()
	if err := tabstate.Save(r.Context(), st, tabstate.KeySession, cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// TogglePunt flips one category in the caller's punt set
func (s *Server) TogglePunt(w http.ResponseWriter, r *http.Request) {
	cat, ok := category.Parse(categoryParam(r))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown category", nil)
		return
	}
	st, _, err := s.clientStore(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	cfg := tabstate.Load(r.Context(), st, tabstate.KeySession, session.DefaultConfig()).WithDefaults()
	cfg = cfg.TogglePunt(cat)
	if err := tabstate.Save(r.Context(), st, tabstate.KeySession, cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// categoryParam returns the {category} path segment decoded. chi matches on
// the raw path when one is set, so "A/TO" arrives still escaped as "A%2FTO".
// A plain "FT%" has no raw path and fails to unescape, so it is used as is.
func categoryParam(r *http.Request) string {
	raw := chi.URLParam(r, "category")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
