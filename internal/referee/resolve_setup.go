package referee

import (
	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// step is invoked once every awaited living player has replied to the
// current prompt; it runs the single transition the outer control loop
// is entitled to.
func (g *GameState) step() []wire.Envelope {
	switch g.Phase {
	case PhaseStart:
		return g.afterAllReady()
	case PhaseSetupDeck:
		return g.afterSetupDeck()
	case PhaseSetupCoins:
		return g.afterSetupCoins()
	case PhaseSetupPlayers:
		return g.afterIntroduce()
	case PhaseTurn:
		return g.afterTurnActed()
	case PhaseIncome, PhaseForeignAid, PhaseTax, PhaseExchange, PhaseAssassinate, PhaseSteal, PhaseCoup:
		return g.stepActionFamily()
	}
	return nil
}

func (g *GameState) onHello(from types.Address, mode Mode) []wire.Envelope {
	if g.Phase != PhaseIdle {
		return illegal(from)
	}
	if _, dup := g.Players[from]; dup {
		return illegal(from)
	}
	if len(g.Order) >= types.MaxPlayers {
		return illegal(from)
	}
	g.Players[from] = simulator.NewPlayerSim(from)
	g.Order = append(g.Order, from)

	// A connecting player has no other way to learn its own relay-assigned
	// address: it is told immediately, privately, rather than waiting for
	// the later group introduction round (which exists to populate each
	// player's roster of *other* players, not to self-identify).
	effects := []wire.Envelope{wire.SingleEnvelope(from, wire.PLAYER(from).String())}

	if mode == ModeAuto && len(g.Order) == types.MaxPlayers {
		return append(effects, g.enterStart()...)
	}
	return effects
}

func (g *GameState) enterStart() []wire.Envelope {
	g.Phase = PhaseStart
	g.Deck = NewDeck(g.rng)
	g.shuffleOrder()
	for _, id := range g.Order {
		g.Players[id].SetPhase(simulator.PhaseStart)
	}
	g.resetRound(g.livingOrder())
	return []wire.Envelope{wire.AllEnvelope(wire.START().String())}
}

func (g *GameState) shuffleOrder() {
	r := g.rng
	for i := len(g.Order) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		g.Order[i], g.Order[j] = g.Order[j], g.Order[i]
	}
}

func (g *GameState) afterAllReady() []wire.Envelope {
	g.Phase = PhaseSetupDeck
	var effects []wire.Envelope
	for _, id := range g.Order {
		p := g.Players[id]
		p.Hand = g.draw(types.StartingHandSize)
		p.SetPhase(simulator.PhaseDeck)
		var c1, c2 types.Character
		if len(p.Hand) > 0 {
			c1 = p.Hand[0]
		}
		if len(p.Hand) > 1 {
			c2 = p.Hand[1]
		}
		effects = append(effects, wire.SingleEnvelope(id, wire.DECK(c1, c2).String()))
	}
	g.resetRound(g.livingOrder())
	return effects
}

func (g *GameState) afterSetupDeck() []wire.Envelope {
	g.Phase = PhaseSetupCoins
	var effects []wire.Envelope
	for _, id := range g.Order {
		p := g.Players[id]
		p.Coins = types.StartingCoins
		p.SetPhase(simulator.PhaseCoins)
		effects = append(effects, wire.AllEnvelope(wire.COINS(id, p.Coins).String()))
	}
	g.resetRound(g.livingOrder())
	return effects
}

func (g *GameState) afterSetupCoins() []wire.Envelope {
	g.Phase = PhaseSetupPlayers
	g.introduceIdx = 0
	for _, id := range g.Order {
		g.Players[id].SetPhase(simulator.PhasePlayer)
	}
	g.resetRound(g.livingOrder())
	return g.introduceCurrent()
}

func (g *GameState) introduceCurrent() []wire.Envelope {
	id := g.Order[g.introduceIdx]
	g.Players[id].Announced = true
	return []wire.Envelope{wire.AllEnvelope(wire.PLAYER(id).String())}
}

func (g *GameState) afterIntroduce() []wire.Envelope {
	g.introduceIdx++
	if g.introduceIdx < len(g.Order) {
		for _, id := range g.Order {
			g.Players[id].SetPhase(simulator.PhasePlayer)
		}
		g.resetRound(g.livingOrder())
		return g.introduceCurrent()
	}
	return g.enterTurn()
}

// enterTurn picks the next living player in rotation, resets per-turn
// interference bookkeeping, and prompts everyone; or, if only one player
// remains alive, ends the game.
func (g *GameState) enterTurn() []wire.Envelope {
	g.TurnBlocker = nil
	g.TurnChallenger = nil
	g.BlockChallenger = nil
	for _, p := range g.Players {
		p.Tag = simulator.TagNone
		p.Turn = false
	}

	if g.livingCount() <= 1 {
		g.Phase = PhaseEnd
		for _, id := range g.Order {
			g.Players[id].SetPhase(simulator.PhaseEnd)
		}
		return []wire.Envelope{wire.AllEnvelope(wire.EXIT().String())}
	}

	next := g.nextLivingAfter(g.TurnID)
	g.TurnID = &next
	g.Players[next].Turn = true
	g.Phase = PhaseTurn

	for _, id := range g.livingOrder() {
		if id == next {
			g.Players[id].SetPhase(simulator.PhaseMyTurn)
		} else {
			g.Players[id].SetPhase(simulator.PhaseOtherTurn)
		}
	}
	// Only the turn-holder's reply is awaited: their ACT is what drives the
	// machine forward. Bystanders may still send OK
	// (simulator.PhaseOtherTurn's legal set), but it is not on the critical
	// path and is accepted as a no-op rather than awaited.
	g.resetRound([]types.Address{next})
	return []wire.Envelope{wire.AllEnvelope(wire.TURN(next).String())}
}

func (g *GameState) nextLivingAfter(cur *types.Address) types.Address {
	n := len(g.Order)
	start := 0
	if cur != nil {
		for i, id := range g.Order {
			if id == *cur {
				start = i + 1
				break
			}
		}
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		id := g.Order[idx]
		if g.Players[id].Alive {
			return id
		}
	}
	return g.Order[0]
}

// onDisconnect handles the relay's synthesized DISCONNECT signal. A
// disconnect mid-game is treated like any other departure of influence:
// the player is marked dead so turn rotation and victory checks see them
// as gone, and if that empties the lobby to one survivor the game ends.
func (g *GameState) onDisconnect(from types.Address) []wire.Envelope {
	p, ok := g.Players[from]
	if !ok || !p.Alive {
		return nil
	}
	p.Hand = nil
	p.Alive = false
	p.SetPhase(simulator.PhaseEnd)
	effects := []wire.Envelope{wire.AllEnvelope(wire.DEAD(from).String())}

	if g.Phase == PhaseIdle || g.Phase == PhaseStart {
		return effects
	}
	if g.livingCount() <= 1 {
		effects = append(effects, g.enterTurn()...)
		return effects
	}
	// If it was this player's turn or they were mid-interference, let the
	// active sub-resolution finish naturally; dropping their reply out of
	// pendingReplies lets quiescence still be reached.
	delete(g.pendingReplies, from)
	if g.allReplied() {
		effects = append(effects, g.step()...)
	}
	return effects
}
