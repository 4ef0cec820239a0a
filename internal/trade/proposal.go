// Package trade composes multi-team trade proposals, validates them, and
// serializes them for the remote evaluator.
package trade

import (
	"errors"
	"fmt"
)

var (
	// ErrLastSlot is returned when removing the only remaining slot
	ErrLastSlot = errors.New("a proposal needs at least one team")

	// ErrSlotIndex is returned for an out-of-range slot index
	ErrSlotIndex = errors.New("slot index out of range")
)

// Slot is one team's side of a proposal. TeamID 0 means no team chosen yet.
type Slot struct {
	TeamID  int      `json:"teamId,omitempty"`
	Give    []string `json:"give"`
	Receive []string `json:"receive"`
}

// HasTeam reports whether the slot has a team assigned
func (s Slot) HasTeam() bool {
	return s.TeamID != 0
}

// HasPlayers reports whether the slot gives or receives anyone
func (s Slot) HasPlayers() bool {
	return len(s.Give) > 0 || len(s.Receive) > 0
}

func (s Slot) clone() Slot {
	return Slot{
		TeamID:  s.TeamID,
		Give:    append([]string{}, s.Give...),
		Receive: append([]string{}, s.Receive...),
	}
}

// Proposal is an ordered list of one or more slots
type Proposal struct {
	Slots []Slot `json:"teamTrades"`
}

// NewProposal returns a proposal with a single empty slot
func NewProposal() *Proposal {
	return &Proposal{Slots: []Slot{emptySlot()}}
}

// Restore rebuilds a proposal from stored slots, guaranteeing at least one slot
func Restore(slots []Slot) *Proposal {
	p := &Proposal{Slots: make([]Slot, 0, len(slots))}
	for _, s := range slots {
		p.Slots = append(p.Slots, s.clone())
	}
	if len(p.Slots) == 0 {
		p.Slots = append(p.Slots, emptySlot())
	}
	return p
}

func emptySlot() Slot {
	return Slot{Give: []string{}, Receive: []string{}}
}

// Len returns the number of slots
func (p *Proposal) Len() int {
	return len(p.Slots)
}

// AddSlot appends an empty slot and returns its index
func (p *Proposal) AddSlot() int {
	p.Slots = append(p.Slots, emptySlot())
	return len(p.Slots) - 1
}

// RemoveSlot removes the slot at i. The last remaining slot cannot be removed.
func (p *Proposal) RemoveSlot(i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	if len(p.Slots) <= 1 {
		return ErrLastSlot
	}
	p.Slots = append(p.Slots[:i:i], p.Slots[i+1:]...)
	return nil
}

// SetTeam assigns a team to slot i and clears its give and receive lists,
// since earlier picks belonged to the previous team.
func (p *Proposal) SetTeam(i, teamID int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.Slots[i] = Slot{TeamID: teamID, Give: []string{}, Receive: []string{}}
	return nil
}

// ToggleGive adds or removes a player from slot i's give list
func (p *Proposal) ToggleGive(i int, name string) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.Slots[i].Give = toggle(p.Slots[i].Give, name)
	return nil
}

// ToggleReceive adds or removes a player from slot i's receive list. Nothing
// stops the same player from being received by several slots.
func (p *Proposal) ToggleReceive(i int, name string) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.Slots[i].Receive = toggle(p.Slots[i].Receive, name)
	return nil
}

// ReceiveCandidates is the union of every slot's give list, own slot included,
// in slot then pick order. It is not checked against anyone's roster.
func (p *Proposal) ReceiveCandidates() []string {
	var all []string
	for _, s := range p.Slots {
		all = append(all, s.Give...)
	}
	return unique(all)
}

// TradedPlayers returns every player given or received anywhere, deduplicated
func (p *Proposal) TradedPlayers() []string {
	var all []string
	for _, s := range p.Slots {
		all = append(all, s.Give...)
	}
	for _, s := range p.Slots {
		all = append(all, s.Receive...)
	}
	return unique(all)
}

func (p *Proposal) checkIndex(i int) error {
	if i < 0 || i >= len(p.Slots) {
		return fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(p.Slots))
	}
	return nil
}

// toggle returns a new list with name removed if present, appended otherwise
func toggle(list []string, name string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, n := range list {
		if n == name {
			found = true
			continue
		}
		out = append(out, n)
	}
	if !found {
		out = append(out, name)
	}
	return out
}

func unique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, n := range list {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
