package referee

import (
	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// applyReply records the bookkeeping a BLOCK or CHAL implies; the first
// arrival wins the race to interfere with the pending action, and a later
// interference attempt from another player is still accepted as a legal
// reply (their Replied flag is set so quiescence can still be reached)
// but otherwise has no further effect.
func (g *GameState) applyReply(from types.Address, p *simulator.PlayerSim, msg wire.Message) []wire.Envelope {
	switch msg.Cmd {
	case wire.CmdBLOCK:
		if g.TurnBlocker == nil {
			id := from
			g.TurnBlocker = &id
			g.blockOf = wire.ParseCharacter(msg.Args[1])
			p.Tag = simulator.TagBlocking
		}
	case wire.CmdCHAL:
		if p.Phase == simulator.PhaseBlockWitness {
			if g.BlockChallenger == nil {
				id := from
				g.BlockChallenger = &id
				p.Tag = simulator.TagChallenging
			}
		} else if g.TurnChallenger == nil {
			id := from
			g.TurnChallenger = &id
			p.Tag = simulator.TagChallenging
		}
	}
	return nil
}

// afterTurnActed fires once the turn-holder has replied to a TURN prompt;
// that reply carries the chosen action. Bystanders are not awaited.
func (g *GameState) afterTurnActed() []wire.Envelope {
	actor := *g.TurnID
	ap := g.Players[actor]
	msg, _ := wire.Parse(ap.LastMsg)
	action := wire.ParseAction(msg.Args[1])
	var target *types.Address
	if action.Targeted() {
		t := wire.ParseID(msg.Args[2])
		target = &t
	}
	return g.enterActionFamily(actor, action, target)
}

// enterActionFamily broadcasts the claim, pays any unconditional entry
// cost, and sets prompt phases. Income and Coup are never blocked or
// challenged, so they skip the block/challenge sub-tree entirely: Income
// resolves straight through to the next TURN, and Coup goes straight to
// awaiting the target's LOSE.
func (g *GameState) enterActionFamily(actor types.Address, action types.Action, target *types.Address) []wire.Envelope {
	g.pending = pendingAction{actor: actor, action: action, target: target}
	g.Phase = actionFamily(action)
	g.sub = subNone
	ap := g.Players[actor]

	if action == types.Income {
		ap.Coins += types.IncomeCoins
		effects := []wire.Envelope{
			wire.ExceptEnvelope(actor, wire.ACT(actor, action, nil).String()),
			wire.AllEnvelope(wire.COINS(actor, ap.Coins).String()),
		}
		return append(effects, g.finishFamily()...)
	}
	if action == types.Coup {
		ap.Coins -= types.CoupCost
		effects := []wire.Envelope{
			wire.ExceptEnvelope(actor, wire.ACT(actor, action, target).String()),
			wire.AllEnvelope(wire.COINS(actor, ap.Coins).String()),
		}
		return append(effects, g.beginTargetLoss(*target)...)
	}

	effects := []wire.Envelope{wire.ExceptEnvelope(actor, wire.ACT(actor, action, target).String())}
	if action == types.Assassinate {
		// Paid the instant the claim is accepted, win or lose the
		// ensuing block/challenge.
		ap.Coins -= types.AssassinationCost
		effects = append(effects, wire.AllEnvelope(wire.COINS(actor, ap.Coins).String()))
	}

	for _, id := range g.livingOrder() {
		if id == actor {
			continue
		}
		p := g.Players[id]
		if target != nil && id == *target {
			switch action {
			case types.Assassinate:
				p.SetPhase(simulator.PhaseAssassinateMe)
			case types.Steal:
				p.SetPhase(simulator.PhaseStealMe)
			}
			continue
		}
		p.SetPhase(actionWitnessPhase(action))
	}
	g.resetRoundExcluding(actor)
	return effects
}

func actionWitnessPhase(a types.Action) simulator.Phase {
	switch a {
	case types.ForeignAid:
		return simulator.PhaseForeignAid
	case types.Tax:
		return simulator.PhaseTax
	case types.Exchange:
		return simulator.PhaseExchange
	case types.Assassinate:
		return simulator.PhaseAssassinate
	case types.Steal:
		return simulator.PhaseSteal
	}
	return simulator.PhaseIdle
}

func (g *GameState) resetRoundExcluding(excl types.Address) {
	living := g.livingOrder()
	awaited := make([]types.Address, 0, len(living))
	for _, id := range living {
		if id != excl {
			awaited = append(awaited, id)
		}
	}
	g.resetRound(awaited)
}

// stepActionFamily is the action-family continuation, reached whenever
// g.Phase is one of the seven action families and the current round's
// awaited players have all replied.
func (g *GameState) stepActionFamily() []wire.Envelope {
	switch g.sub {
	case subNone:
		return g.dispatchActionFamily()
	case subBlock:
		return g.afterBlockRound()
	case subChallenge:
		return g.afterChallengeRound()
	case subBlockChallenge:
		return g.afterBlockChallengeRound()
	case subChallengeShow:
		return g.afterChallengeShowRound()
	case subBlockChallengeShow:
		return g.afterBlockChallengeShowRound()
	case subTargetLoss:
		return g.afterTargetLoss()
	case subExchangeChoice:
		return g.afterExchangeChoice()
	}
	return nil
}

// dispatchActionFamily is the Dispatch step: first applicable of
// turn_has_block, turn_has_challenge, or unconditional success.
func (g *GameState) dispatchActionFamily() []wire.Envelope {
	if g.TurnBlocker != nil {
		return g.announceBlock()
	}
	if g.TurnChallenger != nil {
		claim, _ := g.pending.action.Claim()
		return g.announceChallenge(*g.TurnChallenger, g.pending.actor, claim, subChallenge)
	}
	return g.resolveAction()
}

func (g *GameState) announceBlock() []wire.Envelope {
	blocker := *g.TurnBlocker
	g.sub = subBlock
	for _, id := range g.livingOrder() {
		if id != blocker {
			g.Players[id].SetPhase(simulator.PhaseBlockWitness)
		}
	}
	g.resetRoundExcluding(blocker)
	return []wire.Envelope{wire.ExceptEnvelope(blocker, wire.BLOCK(blocker, g.blockOf).String())}
}

func (g *GameState) afterBlockRound() []wire.Envelope {
	if g.BlockChallenger != nil {
		return g.announceChallenge(*g.BlockChallenger, *g.TurnBlocker, g.blockOf, subBlockChallenge)
	}
	// Block stands unchallenged: the claim is nullified. Any entry cost
	// already paid (assassinate) is not refunded.
	return g.finishFamily()
}

// announceChallenge is shared by the turn-challenge and block-challenge
// branches: the accused must SHOW a matching card or LOSE (admit the
// bluff); everyone else just acknowledges having seen the challenge.
func (g *GameState) announceChallenge(challenger, accused types.Address, claim types.Character, nextSub sub) []wire.Envelope {
	ap := g.Players[accused]
	ap.LastClaim = claim
	ap.SetPhase(simulator.PhaseChallengeSelf)
	for _, id := range g.livingOrder() {
		if id != accused {
			g.Players[id].SetPhase(simulator.PhaseChallengeOther)
		}
	}
	// Only the accused's SHOW/LOSE reply is awaited; everyone else's
	// PhaseChallengeOther is informational (they may OK, but are not
	// gating the round).
	g.resetRound([]types.Address{accused})
	g.sub = nextSub
	return []wire.Envelope{wire.ExceptEnvelope(challenger, wire.CHAL(challenger).String())}
}

func (g *GameState) afterChallengeRound() []wire.Envelope {
	accused := g.pending.actor
	ap := g.Players[accused]
	msg, _ := wire.Parse(ap.LastMsg)
	if msg.Cmd == wire.CmdLOSE {
		card := wire.ParseCharacter(msg.Args[1])
		effects := g.loseCard(accused, card)
		return append(effects, g.finishFamily()...)
	}
	card := wire.ParseCharacter(msg.Args[1])
	g.replaceShown(accused, card)
	effects := []wire.Envelope{wire.AllEnvelope(wire.SHOW(accused, card).String())}
	return append(effects, g.beginShowLoss(*g.TurnChallenger, subChallengeShow)...)
}

func (g *GameState) afterBlockChallengeRound() []wire.Envelope {
	accused := *g.TurnBlocker
	ap := g.Players[accused]
	msg, _ := wire.Parse(ap.LastMsg)
	if msg.Cmd == wire.CmdLOSE {
		card := wire.ParseCharacter(msg.Args[1])
		effects := g.loseCard(accused, card)
		return append(effects, g.resolveAction()...)
	}
	card := wire.ParseCharacter(msg.Args[1])
	g.replaceShown(accused, card)
	effects := []wire.Envelope{wire.AllEnvelope(wire.SHOW(accused, card).String())}
	return append(effects, g.beginShowLoss(*g.BlockChallenger, subBlockChallengeShow)...)
}

// beginShowLoss puts every living player into the post-SHOW witness
// phase; the losing challenger sees LOSE options, everyone else just OKs.
func (g *GameState) beginShowLoss(loser types.Address, nextSub sub) []wire.Envelope {
	for _, id := range g.livingOrder() {
		p := g.Players[id]
		p.SetPhase(simulator.PhaseShow)
		if id == loser {
			p.Tag = simulator.TagChallenging
		} else {
			p.Tag = simulator.TagNone
		}
	}
	g.resetRound([]types.Address{loser})
	g.sub = nextSub
	return nil
}

func (g *GameState) afterChallengeShowRound() []wire.Envelope {
	challenger := *g.TurnChallenger
	cp := g.Players[challenger]
	msg, _ := wire.Parse(cp.LastMsg)
	card := wire.ParseCharacter(msg.Args[1])
	effects := g.loseCard(challenger, card)
	return append(effects, g.resolveAction()...)
}

func (g *GameState) afterBlockChallengeShowRound() []wire.Envelope {
	blockChallenger := *g.BlockChallenger
	cp := g.Players[blockChallenger]
	msg, _ := wire.Parse(cp.LastMsg)
	card := wire.ParseCharacter(msg.Args[1])
	effects := g.loseCard(blockChallenger, card)
	return append(effects, g.finishFamily()...)
}

// resolveAction applies the one family-specific effect once a claim has
// survived (or was never subject to) its block/challenge sub-tree.
func (g *GameState) resolveAction() []wire.Envelope {
	actor := g.pending.actor
	ap := g.Players[actor]
	switch g.pending.action {
	case types.ForeignAid:
		ap.Coins += types.ForeignAidCoins
		return append([]wire.Envelope{wire.AllEnvelope(wire.COINS(actor, ap.Coins).String())}, g.finishFamily()...)
	case types.Tax:
		ap.Coins += types.TaxCoins
		return append([]wire.Envelope{wire.AllEnvelope(wire.COINS(actor, ap.Coins).String())}, g.finishFamily()...)
	case types.Exchange:
		return g.beginExchangeChoice(actor)
	case types.Steal:
		target := *g.pending.target
		tp := g.Players[target]
		amount := types.StealAmount
		if tp.Coins < amount {
			amount = tp.Coins
		}
		tp.Coins -= amount
		ap.Coins += amount
		return append([]wire.Envelope{
			wire.AllEnvelope(wire.COINS(target, tp.Coins).String()),
			wire.AllEnvelope(wire.COINS(actor, ap.Coins).String()),
		}, g.finishFamily()...)
	case types.Assassinate:
		return g.beginTargetLoss(*g.pending.target)
	}
	return g.finishFamily()
}

func (g *GameState) beginTargetLoss(target types.Address) []wire.Envelope {
	g.Players[target].SetPhase(simulator.PhaseCoupMe)
	g.sub = subTargetLoss
	g.resetRound([]types.Address{target})
	return nil
}

func (g *GameState) afterTargetLoss() []wire.Envelope {
	target := *g.pending.target
	tp := g.Players[target]
	msg, _ := wire.Parse(tp.LastMsg)
	card := wire.ParseCharacter(msg.Args[1])
	effects := g.loseCard(target, card)
	return append(effects, g.finishFamily()...)
}

func (g *GameState) beginExchangeChoice(actor types.Address) []wire.Envelope {
	ap := g.Players[actor]
	ap.PreExchangeHandSize = len(ap.Hand)
	ap.ExchangeCards = g.draw(types.ExchangeDrawCount)
	ap.SetPhase(simulator.PhaseChoose)
	g.sub = subExchangeChoice
	g.resetRound([]types.Address{actor})
	return []wire.Envelope{wire.SingleEnvelope(actor, wire.CHOOSE(ap.ExchangeCards...).String())}
}

func (g *GameState) afterExchangeChoice() []wire.Envelope {
	actor := g.pending.actor
	ap := g.Players[actor]
	msg, _ := wire.Parse(ap.LastMsg)
	kept := make([]types.Character, 0, len(msg.Args))
	for _, a := range msg.Args {
		kept = append(kept, wire.ParseCharacter(a))
	}
	pool := append(append([]types.Character{}, ap.Hand...), ap.ExchangeCards...)
	for _, k := range kept {
		for i, c := range pool {
			if c == k {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	for _, leftover := range pool {
		g.returnAndShuffle(leftover)
	}
	ap.Hand = kept
	ap.ExchangeCards = nil
	effects := []wire.Envelope{wire.SingleEnvelope(actor, wire.DECK(kept...).String())}
	return append(effects, g.finishFamily()...)
}

// finishFamily ends the current action's resolution and advances to the
// next turn (or to PhaseEnd, if only one player remains alive).
func (g *GameState) finishFamily() []wire.Envelope {
	g.sub = subNone
	g.pending = pendingAction{}
	return g.enterTurn()
}

// loseCard removes one influence from a player's hand and broadcasts the
// reveal; if that empties their hand, they are marked dead and a DEAD
// broadcast follows.
func (g *GameState) loseCard(id types.Address, card types.Character) []wire.Envelope {
	p := g.Players[id]
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	effects := []wire.Envelope{wire.AllEnvelope(wire.LOSE(id, card).String())}
	if len(p.Hand) == 0 {
		p.Alive = false
		p.SetPhase(simulator.PhaseEnd)
		effects = append(effects, wire.AllEnvelope(wire.DEAD(id).String()))
	}
	return effects
}

// replaceShown returns a proven-genuine card to the deck and draws its
// holder a fresh replacement, keeping the deck's multiset intact without
// revealing which card they drew back.
func (g *GameState) replaceShown(id types.Address, card types.Character) {
	p := g.Players[id]
	for i, c := range p.Hand {
		if c == card {
			g.returnAndShuffle(card)
			p.Hand[i] = g.draw(1)[0]
			return
		}
	}
}
