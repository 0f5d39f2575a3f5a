// Package simulator implements the per-player phase machine: given a
// player's local state and a discriminated phase, it computes the exact
// set of legal reply strings, as a free function over (phase, player,
// roster) so both the referee and each connection's own participant can
// share the same legal-reply logic.
package simulator

import (
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Tag marks how a player is currently entangled in the action under
// resolution; reset to TagNone at every turn start.
type Tag int

const (
	TagNone Tag = iota
	TagBlocking
	TagBlocked
	TagChallenging
	TagChallenged
)

// PlayerSim is the per-player record the legal-reply generator reads.
// Referee and Participant each own (or embed) one; it holds only a
// player's own id, never a pointer back to a referee or connection.
type PlayerSim struct {
	ID            types.Address
	Coins         int
	Hand          []types.Character
	ExchangeCards []types.Character
	Alive         bool
	Turn          bool
	Tag           Tag
	Phase         Phase
	Replied       bool
	LastMsg       string
	Announced     bool
	Ready         bool

	// PreExchangeHandSize freezes the hand size observed the moment an
	// Exchange draw lands; KEEP permutations pick this many cards from
	// Hand plus ExchangeCards (the drawn cards are held apart from Hand).
	PreExchangeHandSize int

	// LastClaim is the character a pending challenge against this player
	// accuses them of lacking; valid only while Phase == PhaseChallengeSelf.
	LastClaim types.Character
}

func NewPlayerSim(id types.Address) *PlayerSim {
	return &PlayerSim{ID: id, Alive: true, Phase: PhaseIdle}
}

// SetPhase installs a new phase; callers regenerate the legal-reply set
// with GenerateReplies afterward (kept as two steps, unlike the Python
// original's combined set_state, so a caller can snapshot phase changes
// without paying for reply-set computation it won't use).
func (p *PlayerSim) SetPhase(phase Phase) { p.Phase = phase }

// Roster is every other player's public fields the participant has
// learned of from PLAYER/COINS/TURN/DEAD broadcasts, keyed by address.
// Needed to generate targeted-action legal replies against every living
// opponent.
type Roster map[types.Address]*PlayerSim
