package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/hoops-valuation/internal/category"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, PeriodTotal, c.Period)
	assert.NotNil(t, c.Punts)
	assert.False(t, c.HasMainTeam())
}

func TestWithDefaults(t *testing.T) {
	c := Config{MainTeamID: 4}.WithDefaults()
	assert.Equal(t, PeriodTotal, c.Period)
	assert.NotNil(t, c.Punts)
	assert.True(t, c.HasMainTeam())

	kept := Config{Period: PeriodLast7}.WithDefaults()
	assert.Equal(t, PeriodLast7, kept.Period)
}

func TestTogglePunt_DoesNotMutateOriginal(t *testing.T) {
	base := DefaultConfig()
	next := base.TogglePunt(category.FreeThrowPct)

	assert.True(t, next.Punts.Contains(category.FreeThrowPct))
	assert.False(t, base.Punts.Contains(category.FreeThrowPct))
}

func TestConfig_JSON(t *testing.T) {
	c := DefaultConfig().TogglePunt(category.Points)
	c.ExcludeIR = true

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2026_total","puntCategories":["PTS"],"excludeIr":true}`, string(data))

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}

func TestIsKnownPeriod(t *testing.T) {
	assert.True(t, IsKnownPeriod(PeriodProjected))
	assert.False(t, IsKnownPeriod("2025_total"))
}
