package trade

import "strings"

// Violation messages shown to the user verbatim
const (
	MsgMissingTeam   = "select a team for every slot"
	MsgDuplicateTeam = "duplicate team in trade: teams must not repeat"
	MsgNoPlayers     = "no players selected: pick at least one player to trade"
	MsgBothTeams     = "select both teams"
	MsgSameTeam      = "duplicate team in trade: pick two different teams"
	MsgRemoteFailure = "trade analysis failed"
)

// Violations is a list of human-readable validation failures. It doubles as an
// error so remote and local failures travel through the same channel.
type Violations []string

func (v Violations) Error() string {
	return strings.Join(v, "; ")
}

// OK reports whether there are no violations
func (v Violations) OK() bool {
	return len(v) == 0
}

// Validate checks the proposal and returns every violation found. It never
// modifies the proposal.
func (p *Proposal) Validate() Violations {
	var v Violations

	missing := false
	for _, s := range p.Slots {
		if !s.HasTeam() {
			missing = true
			break
		}
	}
	if missing {
		v = append(v, MsgMissingTeam)
	}

	seen := make(map[int]struct{}, len(p.Slots))
	for _, s := range p.Slots {
		if !s.HasTeam() {
			continue
		}
		if _, dup := seen[s.TeamID]; dup {
			v = append(v, MsgDuplicateTeam)
			break
		}
		seen[s.TeamID] = struct{}{}
	}

	hasPlayers := false
	for _, s := range p.Slots {
		if s.HasPlayers() {
			hasPlayers = true
			break
		}
	}
	if !hasPlayers {
		v = append(v, MsgNoPlayers)
	}

	return v
}
