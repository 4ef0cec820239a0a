package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/trade"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
}

func (o *recordingObserver) ObserveRequest(op, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, op+":"+status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/api"
	opts.Timeout = 5 * time.Second
	return NewClient(opts)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestTeams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/teams", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, []map[string]any{
			{"team_id": 1, "team_name": "Alpha"},
			{"team_id": 2, "team_name": "Beta"},
		})
	}, Options{})

	teams, err := c.Teams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Beta", teams[1].TeamName)
}

func TestTeamAnalytics_AssignsTeam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/4", r.URL.Path)
		assert.Equal(t, "2026_last_15", r.URL.Query().Get("period"))
		assert.Equal(t, "true", r.URL.Query().Get("exclude_ir"))
		_, _ = w.Write([]byte(`{
			"team_id": 4,
			"period": "2026_last_15",
			"players": [
				{"name": "A", "position": "PG", "team_id": 4, "team_name": "Delta",
				 "z_scores": {"PTS": 1.5}, "stats": {"PTS": 22.1, "FG%": null}}
			],
			"league_metrics": {"mean": 1}
		}`))
	}, Options{})

	list, err := c.TeamAnalytics(context.Background(), 4, "2026_last_15", true)
	require.NoError(t, err)
	require.Len(t, list.Players, 1)
	p := list.Players[0]
	require.NotNil(t, p.FantasyTeamID)
	assert.Equal(t, 4, *p.FantasyTeamID)
	assert.Equal(t, "Delta", p.FantasyTeam)
	assert.Equal(t, 1.5, p.ZScores[category.Points])
	_, hasFG := p.Stats["FG%"]
	assert.False(t, hasFG, "Null stats are dropped")
	assert.JSONEq(t, `{"mean": 1}`, string(list.LeagueMetrics))
}

func TestAllPlayers_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"error": "No data found"})
	}, Options{})

	_, err := c.AllPlayers(context.Background(), "2026_total", false)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFreeAgents_QueryAndValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/free-agents", r.URL.Path)
		assert.Equal(t, "C", r.URL.Query().Get("position"))
		_, _ = w.Write([]byte(`{"period":"2026_total","players":[
			{"name":"Good","position":"C","z_scores":{"REB":2}},
			{"name":"","position":"C","z_scores":{}}
		]}`))
	}, Options{})

	list, err := c.FreeAgents(context.Background(), "2026_total", "C")
	require.NoError(t, err)
	require.Len(t, list.Players, 1)
	assert.Equal(t, "Good", list.Players[0].Name)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}, Options{})

	_, err := c.Teams(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestEvaluateMultiTeam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/multi-team-trade-analysis", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026_total", body["period"])
		assert.Equal(t, []any{"FT%"}, body["punt_categories"])
		assert.Len(t, body["trades"], 2)

		_, _ = w.Write([]byte(`{"teams":[
			{"team_id":1,"team_name":"Alpha","before_z":10,"after_z":12.5,"delta":2.5,
			 "categories":{"PTS":{"before":1,"after":2,"delta":1}}}
		],"simulation_ranks":{"1":{"before":3,"after":2}}}`))
	}, Options{})

	req := trade.MultiTeamRequest{
		Trades: []trade.Line{
			{TeamID: 1, Give: []string{"A"}, Receive: []string{"B"}},
			{TeamID: 2, Give: []string{"B"}, Receive: []string{"A"}},
		},
		Period:         "2026_total",
		PuntCategories: []category.Category{category.FreeThrowPct},
	}
	out, err := c.EvaluateMultiTeam(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out.Teams, 1)
	assert.Equal(t, 2.5, out.Teams[0].Delta)
	assert.Equal(t, 1.0, out.Teams[0].Categories[category.Points].Delta)
	assert.NotEmpty(t, out.SimulationRanks)
}

func TestEvaluate_RemoteValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want trade.Violations
	}{
		{
			name: "validation list",
			body: `{"error":"Invalid trade","validation_errors":["Player X is not on team 2","Roster too large"]}`,
			want: trade.Violations{"Player X is not on team 2", "Roster too large"},
		},
		{
			name: "bare error",
			body: `{"error":"Team not found"}`,
			want: trade.Violations{"Team not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, Options{})

			_, err := c.EvaluateTwoTeam(context.Background(), trade.TwoTeamRequest{MyTeamID: 1, TheirTeamID: 2})
			var v trade.Violations
			require.True(t, errors.As(err, &v))
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEvaluate_RejectedWithValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   trade.Violations
	}{
		{
			name:   "bad request with list",
			status: http.StatusBadRequest,
			body:   `{"error":"Invalid trade","validation_errors":["Player X is not on team 2"]}`,
			want:   trade.Violations{"Player X is not on team 2"},
		},
		{
			name:   "unprocessable with list only",
			status: http.StatusUnprocessableEntity,
			body:   `{"validation_errors":["Roster too large"]}`,
			want:   trade.Violations{"Roster too large"},
		},
		{
			name:   "server error with message",
			status: http.StatusInternalServerError,
			body:   `{"error":"Simulation failed"}`,
			want:   trade.Violations{"Simulation failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Options{Observer: obs})

			_, err := c.EvaluateTwoTeam(context.Background(), trade.TwoTeamRequest{MyTeamID: 1, TheirTeamID: 2})
			var v trade.Violations
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Equal(t, tt.want, v)
			assert.Contains(t, obs.statuses, "two_team_trade:remote_error")
		})
	}
}

func TestEvaluate_RejectedWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}, Options{})

	_, err := c.EvaluateMultiTeam(context.Background(), trade.MultiTeamRequest{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)

	_, v := trade.SubmitTwoTeam(context.Background(),
		trade.TwoTeamRequest{MyTeamID: 1, TheirTeamID: 2, IGive: []string{"A"}}, session.DefaultConfig(), c)
	assert.Equal(t, trade.Violations{trade.MsgRemoteFailure}, v)
}

func TestEvaluate_ThroughSubmit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad","validation_errors":["Player A is injured"]}`))
	}, Options{})

	p := trade.NewProposal()
	p.AddSlot()
	require.NoError(t, p.SetTeam(0, 1))
	require.NoError(t, p.SetTeam(1, 2))
	require.NoError(t, p.ToggleGive(0, "A"))

	_, v := trade.Submit(context.Background(), p, session.DefaultConfig(), c)
	assert.Equal(t, trade.Violations{"Player A is injured"}, v)
}

func TestCircuitBreaker_ServesLastGood(t *testing.T) {
	var fail atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			// hijack and drop the connection to simulate a network failure
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		writeJSON(w, []map[string]any{{"team_id": 1, "team_name": "Alpha"}})
	}, Options{Breaker: circuitbreaker.New(circuitbreaker.Thresholds{FailureThreshold: 1}).WithResetDelay(time.Hour)})

	ctx := context.Background()
	teams, err := c.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	fail.Store(true)
	teams, err = c.Teams(ctx)
	require.NoError(t, err, "Cached payload is served on failure")
	assert.Equal(t, "Alpha", teams[0].TeamName)
	assert.Equal(t, circuitbreaker.StateOpen, c.Breaker().GetState())

	// open circuit, still cached
	teams, err = c.Teams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 1)

	// nothing cached for this URL
	_, err = c.AllPlayers(ctx, "2026_total", false)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestObserverAndLimiter(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	}, Options{Observer: obs, Limiter: rate.NewLimiter(rate.Inf, 1)})

	_, err := c.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"teams:ok"}, obs.statuses)
}

func TestLimiter_RespectsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	}, Options{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})

	_, err := c.Teams(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Teams(ctx)
	assert.Error(t, err)
}
