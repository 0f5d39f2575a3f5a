// Package referee implements the authoritative hierarchical state machine
// that drives one game of Coup: setup, turn rotation, action resolution
// with blocks and challenges, card replacement, and termination. State
// mutation happens entirely on the single goroutine reading the
// referee's connection, with one mutator method per game action.
package referee

import (
	"math/rand"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Phase is the referee's top-level hierarchical state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStart
	PhaseSetupDeck
	PhaseSetupCoins
	PhaseSetupPlayers
	PhaseTurn
	PhaseIncome
	PhaseForeignAid
	PhaseTax
	PhaseExchange
	PhaseAssassinate
	PhaseSteal
	PhaseCoup
	PhaseEnd
)

func (p Phase) String() string {
	names := [...]string{
		"IDLE", "START", "SETUP_DECK", "SETUP_COINS", "SETUP_PLAYERS", "TURN",
		"INCOME", "FAID", "TAX", "EXCHANGE", "ASSASS", "STEAL", "COUP", "END",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "UNKNOWN"
}

// actionFamily maps a claimed action to the top-level phase handling it.
func actionFamily(a types.Action) Phase {
	switch a {
	case types.Income:
		return PhaseIncome
	case types.ForeignAid:
		return PhaseForeignAid
	case types.Tax:
		return PhaseTax
	case types.Exchange:
		return PhaseExchange
	case types.Assassinate:
		return PhaseAssassinate
	case types.Steal:
		return PhaseSteal
	case types.Coup:
		return PhaseCoup
	}
	return PhaseIdle
}

// sub discriminates the branch within an action family's sub-tree.
type sub int

const (
	subNone sub = iota
	subBlock
	subChallenge
	subBlockChallenge
	subChallengeShow      // a turn-challenge was met with SHOW; awaiting the challenger's LOSE
	subBlockChallengeShow // a block-challenge was met with SHOW; awaiting the block-challenger's LOSE
	subTargetLoss         // a coup or successful assassinate; awaiting the target's LOSE
	subExchangeChoice     // an exchange succeeded; awaiting the actor's KEEP
)

// pendingAction remembers the claim currently under resolution.
type pendingAction struct {
	actor  types.Address
	action types.Action
	target *types.Address
}

// GameState is the referee's complete authoritative record.
type GameState struct {
	Players map[types.Address]*simulator.PlayerSim
	Order   []types.Address
	Deck    []types.Character

	TurnID          *types.Address
	TurnBlocker     *types.Address
	TurnChallenger  *types.Address
	BlockChallenger *types.Address

	Phase Phase
	sub   sub

	pending pendingAction
	blockBy *types.Address // never set; TurnBlocker records who sent the BLOCK
	blockOf types.Character

	// pendingReplies is the set of living players the current step is
	// waiting on; the referee advances only once every one of them has
	// replied.
	pendingReplies map[types.Address]bool

	// introduceIdx walks g.Order during SETUP_PLAYERS, announcing one
	// player at a time during setup.
	introduceIdx int

	rng *rand.Rand
}

func NewGameState(rng *rand.Rand) *GameState {
	return &GameState{
		Players:        make(map[types.Address]*simulator.PlayerSim),
		pendingReplies: make(map[types.Address]bool),
		Phase:          PhaseIdle,
		rng:            rng,
	}
}

func (g *GameState) livingOrder() []types.Address {
	out := make([]types.Address, 0, len(g.Order))
	for _, id := range g.Order {
		if p, ok := g.Players[id]; ok && p.Alive {
			out = append(out, id)
		}
	}
	return out
}

func (g *GameState) livingCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// roster builds a simulator.Roster snapshot for legal-reply validation.
func (g *GameState) roster() simulator.Roster {
	r := make(simulator.Roster, len(g.Players))
	for id, p := range g.Players {
		r[id] = p
	}
	return r
}

// allReplied reports whether every player currently awaited has replied.
func (g *GameState) allReplied() bool {
	for id, awaited := range g.pendingReplies {
		if !awaited {
			continue
		}
		p, ok := g.Players[id]
		if !ok || !p.Alive {
			continue
		}
		if !p.Replied {
			return false
		}
	}
	return true
}

// resetRound clears the per-round bookkeeping ahead of a new prompt.
func (g *GameState) resetRound(awaited []types.Address) {
	g.pendingReplies = make(map[types.Address]bool, len(awaited))
	for _, id := range awaited {
		g.pendingReplies[id] = true
		if p, ok := g.Players[id]; ok {
			p.Replied = false
		}
	}
}
