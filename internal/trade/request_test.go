package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/session"
)

type fakeEvaluator struct {
	multi   []MultiTeamRequest
	two     []TwoTeamRequest
	err     error
	result  *model.TradeEvaluation
	twoResp *model.TwoTeamEvaluation
}

func (f *fakeEvaluator) EvaluateMultiTeam(ctx context.Context, req MultiTeamRequest) (*model.TradeEvaluation, error) {
	f.multi = append(f.multi, req)
	return f.result, f.err
}

func (f *fakeEvaluator) EvaluateTwoTeam(ctx context.Context, req TwoTeamRequest) (*model.TwoTeamEvaluation, error) {
	f.two = append(f.two, req)
	return f.twoResp, f.err
}

func validProposal(t *testing.T) *Proposal {
	t.Helper()
	p := NewProposal()
	p.AddSlot()
	require.NoError(t, p.SetTeam(0, 3))
	require.NoError(t, p.SetTeam(1, 8))
	require.NoError(t, p.ToggleGive(0, "A"))
	require.NoError(t, p.ToggleReceive(1, "A"))
	return p
}

func TestSerialize(t *testing.T) {
	cfg := session.Config{
		Period:    session.PeriodLast15,
		Punts:     model.NewPuntSet(category.FreeThrowPct, category.Points),
		ExcludeIR: true,
	}

	req, v := validProposal(t).Serialize(cfg)
	require.True(t, v.OK())

	assert.Equal(t, session.PeriodLast15, req.Period)
	assert.Equal(t, []category.Category{category.Points, category.FreeThrowPct}, req.PuntCategories)
	assert.True(t, req.ExcludeIR)
	assert.Equal(t, []Line{
		{TeamID: 3, Give: []string{"A"}, Receive: []string{}},
		{TeamID: 8, Give: []string{}, Receive: []string{"A"}},
	}, req.Trades)
}

func TestSerialize_DefaultsAndInvalid(t *testing.T) {
	req, v := validProposal(t).Serialize(session.Config{})
	require.True(t, v.OK())
	assert.Equal(t, session.PeriodTotal, req.Period)
	assert.Empty(t, req.PuntCategories)

	_, v = NewProposal().Serialize(session.DefaultConfig())
	assert.False(t, v.OK())
}

func TestSubmit_InvalidIsNotSent(t *testing.T) {
	ev := &fakeEvaluator{}
	p := NewProposal()
	p.AddSlot()
	require.NoError(t, p.SetTeam(0, 7))
	require.NoError(t, p.SetTeam(1, 7))

	res, v := Submit(context.Background(), p, session.DefaultConfig(), ev)
	assert.Nil(t, res)
	assert.Contains(t, v, MsgDuplicateTeam)
	assert.Empty(t, ev.multi)
}

func TestSubmit_Success(t *testing.T) {
	ev := &fakeEvaluator{result: &model.TradeEvaluation{Teams: []model.TeamTradeResult{{TeamID: 3, Delta: 1.2}}}}

	res, v := Submit(context.Background(), validProposal(t), session.DefaultConfig(), ev)
	require.True(t, v.OK())
	require.Len(t, ev.multi, 1)
	assert.Equal(t, 1.2, res.Teams[0].Delta)
}

func TestSubmit_RemoteViolationsPassThrough(t *testing.T) {
	ev := &fakeEvaluator{err: Violations{"players given twice", "unbalanced trade"}}

	_, v := Submit(context.Background(), validProposal(t), session.DefaultConfig(), ev)
	assert.Equal(t, Violations{"players given twice", "unbalanced trade"}, v)
}

func TestSubmit_TransportFailure(t *testing.T) {
	ev := &fakeEvaluator{err: errors.New("connection refused")}

	_, v := Submit(context.Background(), validProposal(t), session.DefaultConfig(), ev)
	assert.Equal(t, Violations{MsgRemoteFailure}, v)
}

func TestSubmitTwoTeam_FillsSessionDefaults(t *testing.T) {
	ev := &fakeEvaluator{twoResp: &model.TwoTeamEvaluation{}}
	cfg := session.DefaultConfig().TogglePunt(category.Blocks)

	req := TwoTeamRequest{MyTeamID: 1, TheirTeamID: 2, IGive: []string{"A"}, ScopeMode: "bogus"}
	_, v := SubmitTwoTeam(context.Background(), req, cfg, ev)
	require.True(t, v.OK())
	require.Len(t, ev.two, 1)

	sent := ev.two[0]
	assert.Equal(t, session.PeriodTotal, sent.Period)
	assert.Equal(t, []category.Category{category.Blocks}, sent.PuntCategories)
	assert.Equal(t, ScopeTeam, sent.ScopeMode)
}

func TestSubmitTwoTeam_Invalid(t *testing.T) {
	ev := &fakeEvaluator{}
	_, v := SubmitTwoTeam(context.Background(), TwoTeamRequest{}, session.DefaultConfig(), ev)
	assert.Equal(t, Violations{MsgBothTeams, MsgNoPlayers}, v)
	assert.Empty(t, ev.two)
}
