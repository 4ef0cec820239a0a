package api

import (
	"net/http"
	"time"
)

// HealthCheck reports liveness
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status reports uptime, circuit state and storage backend
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":   "operational",
		"uptime":   time.Since(s.started).String(),
		"version":  version,
		"tabstate": s.storeBackend,
		"configuration": map[string]any{
			"default_period":  s.defaultPeriod,
			"circuit_breaker": s.breaker != nil,
			"rate_limit":      s.limiter != nil,
			"metrics":         s.metrics != nil,
		},
	}
	if s.breaker != nil {
		state := s.breaker.GetState()
		status["circuit_state"] = state
		if s.metrics != nil {
			s.metrics.SetCircuitState(state)
		}
	}
	respondJSON(w, http.StatusOK, status)
}

// Circuit shows the breaker and resets it on POST ?action=reset
func (s *Server) Circuit(w http.ResponseWriter, r *http.Request) {
	if s.breaker == nil {
		respondError(w, http.StatusServiceUnavailable, "circuit breaker not enabled", nil)
		return
	}

	response := map[string]any{}
	if r.Method == http.MethodPost {
		if r.URL.Query().Get("action") != "reset" {
			respondError(w, http.StatusBadRequest, "unsupported action", nil)
			return
		}
		s.breaker.Reset()
		response["message"] = "Circuit breaker reset"
	}

	state := s.breaker.GetState()
	if s.metrics != nil {
		s.metrics.SetCircuitState(state)
	}
	response["state"] = state
	response["failures"] = s.breaker.Failures()
	response["cached_responses"] = s.breaker.CachedKeys()
	respondJSON(w, http.StatusOK, response)
}
