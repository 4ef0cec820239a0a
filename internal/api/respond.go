package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
	"github.com/yourorg/hoops-valuation/internal/fetch"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
)

// clientIDHeader scopes tab state to one browser. Requests without it get a
// fresh ID back in the same header.
const clientIDHeader = "X-Client-ID"

// maxRequestBody caps JSON request bodies
const maxRequestBody = 1 << 20

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("Error encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logrus.WithError(err).WithField("status", status).Warn(message)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondUpstreamError maps Analytics API failures onto HTTP statuses
func respondUpstreamError(w http.ResponseWriter, err error) {
	var se *fetch.StatusError
	switch {
	case errors.Is(err, fetch.ErrStale):
		respondError(w, http.StatusConflict, "superseded by a newer request", nil)
	case errors.Is(err, circuitbreaker.ErrOpen):
		respondError(w, http.StatusServiceUnavailable, "analytics api unavailable", err)
	case errors.Is(err, fetch.ErrNoData):
		respondError(w, http.StatusNotFound, "no data found", err)
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		respondError(w, http.StatusNotFound, "not found", err)
	default:
		respondError(w, http.StatusBadGateway, "analytics api request failed", err)
	}
}

// decodeBody reads a bounded JSON body into v
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseBoolParam(r *http.Request, param string, defaultValue bool) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(param))
	if err != nil {
		return defaultValue
	}
	return value
}

// parseThresholds reads min.<CAT>=value query parameters. Unknown categories
// and unparsable values are skipped.
func parseThresholds(r *http.Request) model.FilterSet {
	filters := model.FilterSet{}
	for key, values := range r.URL.Query() {
		code, ok := strings.CutPrefix(key, "min.")
		if !ok || len(values) == 0 {
			continue
		}
		cat, ok := category.Parse(code)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			continue
		}
		filters[cat] = v
	}
	return filters
}

// parsePunts reads a comma-separated punt list. ok is false when the
// parameter is absent so the session punts apply.
func parsePunts(r *http.Request) (model.PuntSet, bool) {
	if !r.URL.Query().Has("punt") {
		return nil, false
	}
	var cats []category.Category
	for _, part := range strings.Split(r.URL.Query().Get("punt"), ",") {
		if c, ok := category.Parse(part); ok {
			cats = append(cats, c)
		}
	}
	return model.NewPuntSet(cats...), true
}

// collationLanguage picks the name-sort language from ?lang or Accept-Language
func collationLanguage(r *http.Request) language.Tag {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return tag
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err == nil && len(tags) > 0 {
		return tags[0]
	}
	return language.English
}

// clientStore returns the tab state store scoped to the caller, issuing a new
// client ID when the request has none
func (s *Server) clientStore(w http.ResponseWriter, r *http.Request) (*tabstate.Store, string, error) {
	id := strings.TrimSpace(r.Header.Get(clientIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(clientIDHeader, id)

	st, err := s.store.Scoped(id)
	return st, id, err
}
