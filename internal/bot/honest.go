package bot

import (
	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Honest never bluffs a claim or block it cannot back with a held card,
// challenges only a claim it can prove false from its own hand, and
// otherwise prefers the highest-value legal economic action.
type Honest struct {
	Log slog.Logger
}

// actionPriority ranks turn actions by coin value; Exchange sits between
// Tax and Foreign Aid since it only pays off when it draws into a better
// hand, not directly in coins.
var actionPriority = []types.Action{
	types.Coup, types.Assassinate, types.Steal, types.Tax, types.Exchange, types.ForeignAid, types.Income,
}

func (b *Honest) Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	parsed := make([]wire.Message, 0, len(legal))
	for _, s := range legal {
		m, err := wire.Parse(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, m)
	}

	if m, ok := b.chooseAction(self, parsed); ok {
		b.debugf("turn action: %s", m.String())
		return m.String()
	}
	if m, ok := b.chooseBlock(self, parsed); ok {
		b.debugf("blocking with held card: %s", m.String())
		return m.String()
	}
	if m, ok := b.proveOrAdmit(self, parsed); ok {
		b.debugf("responding to a challenge against my own claim: %s", m.String())
		return m.String()
	}
	if m, ok := firstOfCmd(parsed, wire.CmdLOSE); ok {
		b.debugf("forced loss: %s", m.String())
		return m.String()
	}
	if m, ok := firstOfCmd(parsed, wire.CmdOK); ok {
		b.debugf("declining to block or challenge")
		return m.String()
	}
	return legal[0]
}

func holds(hand []types.Character, c types.Character) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

func firstOfCmd(parsed []wire.Message, cmd wire.Command) (wire.Message, bool) {
	for _, m := range parsed {
		if m.Cmd == cmd {
			return m, true
		}
	}
	return wire.Message{}, false
}

// chooseAction picks the turn action, skipping any claim-bearing action
// the bot cannot actually back with a held card. Coup and Income make no
// claim and are always eligible.
func (b *Honest) chooseAction(self *simulator.PlayerSim, parsed []wire.Message) (wire.Message, bool) {
	byAction := make(map[types.Action][]wire.Message)
	for _, m := range parsed {
		if m.Cmd != wire.CmdACT {
			continue
		}
		a := wire.ParseAction(m.Args[1])
		byAction[a] = append(byAction[a], m)
	}
	if len(byAction) == 0 {
		return wire.Message{}, false
	}
	for _, a := range actionPriority {
		opts, ok := byAction[a]
		if !ok {
			continue
		}
		if claim, claims := a.Claim(); claims && !holds(self.Hand, claim) {
			continue
		}
		return opts[0], true
	}
	// Forced Coup at 10+ coins collapses the legal set to ACT ... C ...
	// only, which the loop above already covers; this is just a safety
	// net against an unranked action slipping through.
	for _, opts := range byAction {
		return opts[0], true
	}
	return wire.Message{}, false
}

// chooseBlock only declares a block it can actually back with a held
// character; otherwise it leaves the witness round to proveOrAdmit/OK.
func (b *Honest) chooseBlock(self *simulator.PlayerSim, parsed []wire.Message) (wire.Message, bool) {
	for _, m := range parsed {
		if m.Cmd != wire.CmdBLOCK {
			continue
		}
		if holds(self.Hand, wire.ParseCharacter(m.Args[1])) {
			return m, true
		}
	}
	return wire.Message{}, false
}

// proveOrAdmit handles PhaseChallengeSelf: show the claimed card if it is
// actually held; otherwise it returns false and Decide's forced-loss step
// concedes by losing the first card offered. It never
// volunteers a CHAL against someone else's claim, since self's hand alone
// can never prove another player's claim false (proof would require
// holding all three copies of the claimed character, which no legal hand
// size permits) — so Honest never challenges blind.
func (b *Honest) proveOrAdmit(self *simulator.PlayerSim, parsed []wire.Message) (wire.Message, bool) {
	if m, ok := firstOfCmd(parsed, wire.CmdSHOW); ok {
		return m, true
	}
	return wire.Message{}, false
}

func (b *Honest) debugf(format string, args ...interface{}) {
	if b.Log != nil {
		b.Log.Debugf(format, args...)
	}
}
