package referee

import (
	"math/rand"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Mode controls how the lobby transitions from IDLE to START.
type Mode int

const (
	ModeManual Mode = iota // an explicit StartGame call is required
	ModeAuto                // starts the instant MaxPlayers have said HELLO
)

// Referee owns the authoritative GameState and the hierarchical machine
// that drives it. Receive is the entry point for every inbound payload
// (StartGame is the only other): it updates the state for one payload
// and returns the outbound envelopes to send, doing no I/O itself,
// modeling the machine as a tagged state plus a transition function
// rather than I/O-laden callbacks.
type Referee struct {
	state *GameState
	mode  Mode
}

func New(seed int64, mode Mode) *Referee {
	return &Referee{
		state: NewGameState(rand.New(rand.NewSource(seed))),
		mode:  mode,
	}
}

func (r *Referee) State() *GameState { return r.state }

// Receive processes one payload from `from` and returns the envelopes the
// caller (the referee's own relay connection) should send. Malformed
// input, illegal moves, and messages from unknown senders all yield an
// ILLEGAL reply rather than an error: nothing a peer can send is fatal to
// the game.
func (r *Referee) Receive(from types.Address, raw string) []wire.Envelope {
	g := r.state

	if raw == wire.Disconnect {
		return g.onDisconnect(from)
	}

	msg, err := wire.Parse(raw)
	if err != nil {
		return illegal(from)
	}

	if msg.Cmd == wire.CmdHELLO {
		return g.onHello(from, r.mode)
	}

	p, ok := g.Players[from]
	if !ok {
		return illegal(from)
	}

	legal := simulator.GenerateReplies(p, g.roster())
	if !containsStr(legal, msg.String()) {
		return illegal(from)
	}
	if !g.pendingReplies[from] {
		// A legal reply from a player not currently awaited (e.g. a
		// bystander's OK during another player's turn) is accepted as a
		// harmless no-op rather than rejected.
		return nil
	}
	if p.Replied {
		return illegal(from)
	}

	p.LastMsg = msg.String()
	p.Replied = true
	effects := g.applyReply(from, p, msg)

	if g.allReplied() {
		effects = append(effects, g.step()...)
	}
	return effects
}

// StartGame transitions an IDLE lobby to START under manual mode; callers
// in auto mode never need it, since onHello triggers the same transition
// once the lobby reaches capacity.
func (r *Referee) StartGame() []wire.Envelope {
	g := r.state
	if g.Phase != PhaseIdle || len(g.Order) < types.MinPlayers {
		return nil
	}
	return g.enterStart()
}

func illegal(from types.Address) []wire.Envelope {
	return []wire.Envelope{wire.SingleEnvelope(from, wire.ILLEGAL().String())}
}

func containsStr(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
