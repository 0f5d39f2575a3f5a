package simulator

import (
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// GenerateReplies computes the exact set of legal reply strings for a
// player currently in p.Phase, given the roster of other known players.
// This is the free function the design notes call for: Referee and
// Participant both call it over their own (possibly partial) PlayerSim
// records rather than inheriting it.
func GenerateReplies(p *PlayerSim, roster Roster) []string {
	if !p.Alive || p.Phase == PhaseIdle {
		return nil
	}

	var out []string
	add := func(m wire.Message) { out = append(out, m.String()) }

	livingOthers := func() []*PlayerSim {
		others := make([]*PlayerSim, 0, len(roster))
		for id, other := range roster {
			if id == p.ID || !other.Alive {
				continue
			}
			others = append(others, other)
		}
		return others
	}

	switch p.Phase {
	case PhaseStart:
		add(wire.READY())

	case PhaseMyTurn:
		others := livingOthers()
		if p.Coins >= types.CoupCoinsThreshold {
			for _, t := range others {
				target := t.ID
				add(wire.ACT(p.ID, types.Coup, &target))
			}
			break
		}
		add(wire.ACT(p.ID, types.Income, nil))
		add(wire.ACT(p.ID, types.ForeignAid, nil))
		add(wire.ACT(p.ID, types.Tax, nil))
		add(wire.ACT(p.ID, types.Exchange, nil))
		for _, t := range others {
			target := t.ID
			add(wire.ACT(p.ID, types.Steal, &target))
		}
		if p.Coins >= types.AssassinationCost {
			for _, t := range others {
				target := t.ID
				add(wire.ACT(p.ID, types.Assassinate, &target))
			}
		}
		if p.Coins >= types.CoupCost {
			for _, t := range others {
				target := t.ID
				add(wire.ACT(p.ID, types.Coup, &target))
			}
		}

	case PhaseOtherTurn, PhaseIncome, PhaseCoup, PhaseCoins, PhaseDeck, PhasePlayer, PhaseLose:
		add(wire.OK())

	case PhaseForeignAid:
		add(wire.OK())
		add(wire.BLOCK(p.ID, types.Duke))

	case PhaseTax, PhaseExchange, PhaseSteal, PhaseAssassinate:
		add(wire.OK())
		add(wire.CHAL(p.ID))

	case PhaseStealMe:
		add(wire.OK())
		add(wire.CHAL(p.ID))
		add(wire.BLOCK(p.ID, types.Captain))
		add(wire.BLOCK(p.ID, types.Ambassador))

	case PhaseAssassinateMe:
		add(wire.CHAL(p.ID))
		add(wire.BLOCK(p.ID, types.Contessa))
		add(wire.OK())

	case PhaseCoupMe, PhaseLoseMe:
		for _, c := range p.Hand {
			add(wire.LOSE(p.ID, c))
		}

	case PhaseBlockWitness:
		add(wire.OK())
		add(wire.CHAL(p.ID))

	case PhaseChallengeOther:
		add(wire.OK())

	case PhaseChallengeSelf:
		claim := p.LastClaim
		for _, c := range p.Hand {
			if c == claim {
				add(wire.SHOW(p.ID, c))
			} else {
				add(wire.LOSE(p.ID, c))
			}
		}

	case PhaseShow:
		if p.Tag == TagChallenging {
			for _, c := range p.Hand {
				add(wire.LOSE(p.ID, c))
			}
		} else {
			add(wire.OK())
		}

	case PhaseChoose:
		options := append(append([]types.Character{}, p.Hand...), p.ExchangeCards...)
		seen := map[string]bool{}
		for _, perm := range permutations(options, p.PreExchangeHandSize) {
			m := wire.KEEP(perm...)
			s := m.String()
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}

	case PhaseEnd:
		return nil
	}
	return out
}

// permutations returns every ordered selection of k distinct positions
// from options, matching Python's itertools.permutations(options, k).
func permutations(options []types.Character, k int) [][]types.Character {
	if k <= 0 || k > len(options) {
		return nil
	}
	var result [][]types.Character
	used := make([]bool, len(options))
	var rec func(cur []types.Character)
	rec = func(cur []types.Character) {
		if len(cur) == k {
			cp := append([]types.Character{}, cur...)
			result = append(result, cp)
			return
		}
		for i := range options {
			if used[i] {
				continue
			}
			used[i] = true
			rec(append(cur, options[i]))
			used[i] = false
		}
	}
	rec(nil)
	return result
}
