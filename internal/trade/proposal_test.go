package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProposal_SingleEmptySlot(t *testing.T) {
	p := NewProposal()
	require.Equal(t, 1, p.Len())
	assert.False(t, p.Slots[0].HasTeam())
	assert.Empty(t, p.Slots[0].Give)
	assert.Empty(t, p.Slots[0].Receive)
}

func TestRemoveSlot(t *testing.T) {
	p := NewProposal()
	assert.ErrorIs(t, p.RemoveSlot(0), ErrLastSlot)
	assert.Equal(t, 1, p.Len())

	i := p.AddSlot()
	require.NoError(t, p.SetTeam(i, 5))
	require.NoError(t, p.SetTeam(0, 3))

	require.NoError(t, p.RemoveSlot(0))
	require.Equal(t, 1, p.Len())
	assert.Equal(t, 5, p.Slots[0].TeamID)

	assert.ErrorIs(t, p.RemoveSlot(3), ErrSlotIndex)
	assert.ErrorIs(t, p.RemoveSlot(-1), ErrSlotIndex)
}

func TestSetTeam_ResetsSelections(t *testing.T) {
	p := NewProposal()
	require.NoError(t, p.SetTeam(0, 3))
	require.NoError(t, p.ToggleGive(0, "A"))
	require.NoError(t, p.ToggleReceive(0, "B"))

	require.NoError(t, p.SetTeam(0, 4))
	assert.Equal(t, 4, p.Slots[0].TeamID)
	assert.Empty(t, p.Slots[0].Give)
	assert.Empty(t, p.Slots[0].Receive)

	assert.ErrorIs(t, p.SetTeam(1, 4), ErrSlotIndex)
}

func TestToggle(t *testing.T) {
	p := NewProposal()
	require.NoError(t, p.ToggleGive(0, "A"))
	require.NoError(t, p.ToggleGive(0, "B"))
	assert.Equal(t, []string{"A", "B"}, p.Slots[0].Give)

	require.NoError(t, p.ToggleGive(0, "A"))
	assert.Equal(t, []string{"B"}, p.Slots[0].Give)

	assert.ErrorIs(t, p.ToggleReceive(2, "A"), ErrSlotIndex)
}

func TestToggleReceive_IndependentPerSlot(t *testing.T) {
	p := NewProposal()
	p.AddSlot()
	p.AddSlot()

	require.NoError(t, p.ToggleGive(0, "Star"))
	require.NoError(t, p.ToggleReceive(1, "Star"))
	require.NoError(t, p.ToggleReceive(2, "Star"))

	assert.Equal(t, []string{"Star"}, p.Slots[1].Receive)
	assert.Equal(t, []string{"Star"}, p.Slots[2].Receive, "same player may sit in several receive lists")
}

func TestReceiveCandidates_IncludesOwnGives(t *testing.T) {
	p := NewProposal()
	p.AddSlot()
	require.NoError(t, p.ToggleGive(0, "A"))
	require.NoError(t, p.ToggleGive(1, "B"))
	require.NoError(t, p.ToggleGive(1, "A"))

	assert.Equal(t, []string{"A", "B"}, p.ReceiveCandidates())
}

func TestTradedPlayers(t *testing.T) {
	p := NewProposal()
	p.AddSlot()
	require.NoError(t, p.ToggleGive(0, "A"))
	require.NoError(t, p.ToggleReceive(1, "A"))
	require.NoError(t, p.ToggleReceive(0, "C"))

	assert.Equal(t, []string{"A", "C"}, p.TradedPlayers())
}

func TestRestore(t *testing.T) {
	assert.Equal(t, 1, Restore(nil).Len())

	stored := []Slot{{TeamID: 2, Give: []string{"X"}}}
	p := Restore(stored)
	require.NoError(t, p.ToggleGive(0, "Y"))
	assert.Equal(t, []string{"X"}, stored[0].Give, "restored proposal does not alias stored slots")
	assert.Equal(t, []string{"X", "Y"}, p.Slots[0].Give)
	assert.NotNil(t, p.Slots[0].Receive)
}
