// Package participant implements one connection's side of the protocol:
// a local mirror of the referee's per-player state machine, driven
// entirely by the broadcasts it receives, with replies delegated to a
// bot.Policy. Every inbound broadcast is replayed into a phase transition
// before a reply is considered, and every outbound reply updates a small
// amount of local bookkeeping (claims, tags) before it is sent.
package participant

import (
	"bufio"
	"fmt"
	"net"

	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/bot"
	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// unassigned marks a Participant that has not yet learned its own
// relay-assigned address from the referee's private PLAYER reply.
const unassigned types.Address = -1

// Participant owns one connection's local simulator.PlayerSim and the
// Roster of every other player it has learned of, and keeps both in
// lock-step with the referee's own copies purely by replaying the same
// phase transitions the incoming broadcasts imply.
type Participant struct {
	conn   net.Conn
	policy bot.Policy
	log    slog.Logger

	self   *simulator.PlayerSim
	roster simulator.Roster

	started     bool // true once the first TURN broadcast has been seen
	blockActive bool
	blockerID   types.Address
	turnHolder  types.Address

	lastSent string
	excluded map[string]bool
}

func New(conn net.Conn, policy bot.Policy, log slog.Logger) *Participant {
	return &Participant{
		conn:     conn,
		policy:   policy,
		log:      log,
		self:     simulator.NewPlayerSim(unassigned),
		roster:   make(simulator.Roster),
		excluded: make(map[string]bool),
	}
}

// Self exposes the participant's local player record, read-only use only
// (tests and diagnostics); mutating it outside Run defeats the mirror.
func (p *Participant) Self() *simulator.PlayerSim { return p.self }

// Run sends HELLO and then drives the connection line by line until
// EXIT, a disconnect, or a read error ends it.
func (p *Participant) Run() error {
	if err := p.write(wire.SingleEnvelope(types.RefereeAddress, wire.HELLO().String()).String()); err != nil {
		return fmt.Errorf("participant: send HELLO: %w", err)
	}
	scanner := bufio.NewScanner(p.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := p.handleLine(line); err != nil {
			p.logf("participant: %v", err)
		}
		if p.self.Phase == simulator.PhaseEnd {
			return nil
		}
	}
	return scanner.Err()
}

func (p *Participant) handleLine(line string) error {
	env, err := wire.ParseEnvelope(line)
	if err != nil {
		return fmt.Errorf("bad envelope %q: %w", line, err)
	}
	msg, err := wire.Parse(env.Payload)
	if err != nil {
		return fmt.Errorf("bad message %q: %w", env.Payload, err)
	}

	if msg.Cmd == wire.CmdILLEGAL {
		return p.retry()
	}

	p.preUpdate(env.Addr, msg)
	p.excluded = make(map[string]bool)

	if !p.shouldReply() {
		return nil
	}
	return p.decideAndSend()
}

// shouldReply withholds a reply for phases no participant ever needs to
// acknowledge: idle/terminal phases, and witnessing an Income or Coup,
// which are never contestable. An OK composed for either
// of those is pure chatter, and one that races the very next TURN prompt
// would be rejected by a referee that has already moved the sender's
// phase on by the time it arrives.
func (p *Participant) shouldReply() bool {
	switch p.self.Phase {
	case simulator.PhaseIdle, simulator.PhaseEnd, simulator.PhaseIncome, simulator.PhaseCoup:
		return false
	}
	return true
}

func (p *Participant) decideAndSend() error {
	legal := simulator.GenerateReplies(p.self, p.roster)
	choice := p.policy.Decide(p.self, p.roster, legal)
	if choice == "" {
		return nil
	}
	return p.send(choice)
}

// retry implements the ILLEGAL retry-by-elimination loop: the reply just
// rejected is struck from the legal set before asking the policy again,
// repeating (from the referee's next ILLEGAL, if any) until something
// new is accepted or nothing legal remains.
func (p *Participant) retry() error {
	p.excluded[p.lastSent] = true
	legal := filterOut(simulator.GenerateReplies(p.self, p.roster), p.excluded)
	if len(legal) == 0 {
		p.logf("participant: no legal replies left after ILLEGAL in phase %s", p.self.Phase)
		return nil
	}
	choice := p.policy.Decide(p.self, p.roster, legal)
	if choice == "" {
		return nil
	}
	return p.send(choice)
}

func filterOut(legal []string, excluded map[string]bool) []string {
	if len(excluded) == 0 {
		return legal
	}
	out := make([]string, 0, len(legal))
	for _, m := range legal {
		if !excluded[m] {
			out = append(out, m)
		}
	}
	return out
}

func (p *Participant) send(payload string) error {
	p.lastSent = payload
	p.markOutgoingTag(payload)
	return p.write(wire.SingleEnvelope(types.RefereeAddress, payload).String())
}

func (p *Participant) write(line string) error {
	_, err := p.conn.Write([]byte(line + "\n"))
	return err
}

func (p *Participant) logf(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Warnf(format, args...)
	}
}

// markOutgoingTag records the consequences of what was just sent: sending
// a CHAL tags this participant as the challenger (so a later SHOW
// broadcast knows whether it is the one forced to LOSE), and sending a
// BLOCK or a claim-bearing ACT records the claim this participant must be
// ready to prove if challenged.
func (p *Participant) markOutgoingTag(payload string) {
	msg, err := wire.Parse(payload)
	if err != nil {
		return
	}
	switch msg.Cmd {
	case wire.CmdCHAL:
		p.self.Tag = simulator.TagChallenging
	case wire.CmdBLOCK:
		p.self.Tag = simulator.TagBlocking
		p.self.LastClaim = wire.ParseCharacter(msg.Args[1])
	case wire.CmdACT:
		if claim, ok := wire.ParseAction(msg.Args[1]).Claim(); ok {
			p.self.LastClaim = claim
		}
	}
}

// preUpdate replays, from the outside, the same SetPhase transition the
// referee made server-side for this connection when it queued msg.
func (p *Participant) preUpdate(sender types.Address, msg wire.Message) {
	switch msg.Cmd {
	case wire.CmdSTART:
		p.self.SetPhase(simulator.PhaseStart)

	case wire.CmdPLAYER:
		p.applyPlayer(wire.ParseID(msg.Args[0]))

	case wire.CmdDECK:
		hand := make([]types.Character, 0, len(msg.Args))
		for _, a := range msg.Args {
			hand = append(hand, wire.ParseCharacter(a))
		}
		p.self.Hand = hand
		p.self.SetPhase(simulator.PhaseDeck)

	case wire.CmdCOINS:
		p.applyCoins(wire.ParseID(msg.Args[0]), wire.ParseCoins(msg.Args[1]))

	case wire.CmdTURN:
		p.applyTurn(wire.ParseID(msg.Args[0]))

	case wire.CmdACT:
		p.applyAct(msg)

	case wire.CmdBLOCK:
		p.blockActive = true
		p.blockerID = wire.ParseID(msg.Args[0])
		p.self.SetPhase(simulator.PhaseBlockWitness)

	case wire.CmdCHAL:
		p.applyChal()

	case wire.CmdSHOW:
		p.self.SetPhase(simulator.PhaseShow)

	case wire.CmdLOSE:
		if wire.ParseID(msg.Args[0]) == p.self.ID {
			p.removeFromHand(wire.ParseCharacter(msg.Args[1]))
		}

	case wire.CmdDEAD:
		p.applyDead(wire.ParseID(msg.Args[0]))

	case wire.CmdEXIT:
		p.self.SetPhase(simulator.PhaseEnd)

	case wire.CmdCHOOSE:
		cards := make([]types.Character, 0, len(msg.Args))
		for _, a := range msg.Args {
			cards = append(cards, wire.ParseCharacter(a))
		}
		p.self.ExchangeCards = cards
		p.self.PreExchangeHandSize = len(p.self.Hand)
		p.self.SetPhase(simulator.PhaseChoose)

	// HELLO, READY, OK, KEEP, ILLEGAL are never broadcast to players; a
	// malformed or impossible upstream would have to send one for this
	// branch to run, so there is nothing to do.
	default:
	}
}

func (p *Participant) applyPlayer(id types.Address) {
	if p.self.ID == unassigned {
		p.self.ID = id
	} else if id != p.self.ID {
		if _, known := p.roster[id]; !known {
			p.roster[id] = simulator.NewPlayerSim(id)
		}
	}
	p.self.SetPhase(simulator.PhasePlayer)
}

func (p *Participant) applyCoins(id types.Address, coins int) {
	switch {
	case id == p.self.ID:
		p.self.Coins = coins
		if !p.started {
			p.self.SetPhase(simulator.PhaseCoins)
		}
	default:
		if other, ok := p.roster[id]; ok {
			other.Coins = coins
		}
	}
}

func (p *Participant) applyTurn(id types.Address) {
	p.started = true
	p.turnHolder = id
	p.blockActive = false
	p.self.Tag = simulator.TagNone
	if id == p.self.ID {
		p.self.Turn = true
		p.self.SetPhase(simulator.PhaseMyTurn)
	} else {
		p.self.Turn = false
		p.self.SetPhase(simulator.PhaseOtherTurn)
	}
}

func (p *Participant) applyAct(msg wire.Message) {
	action := wire.ParseAction(msg.Args[1])
	var target *types.Address
	if len(msg.Args) > 2 {
		t := wire.ParseID(msg.Args[2])
		target = &t
	}
	mine := target != nil && *target == p.self.ID

	switch action {
	case types.Income:
		p.self.SetPhase(simulator.PhaseIncome)
	case types.ForeignAid:
		p.self.SetPhase(simulator.PhaseForeignAid)
	case types.Tax:
		p.self.SetPhase(simulator.PhaseTax)
	case types.Exchange:
		p.self.SetPhase(simulator.PhaseExchange)
	case types.Assassinate:
		if mine {
			p.self.SetPhase(simulator.PhaseAssassinateMe)
		} else {
			p.self.SetPhase(simulator.PhaseAssassinate)
		}
	case types.Steal:
		if mine {
			p.self.SetPhase(simulator.PhaseStealMe)
		} else {
			p.self.SetPhase(simulator.PhaseSteal)
		}
	case types.Coup:
		if mine {
			p.self.SetPhase(simulator.PhaseCoupMe)
		} else {
			p.self.SetPhase(simulator.PhaseCoup)
		}
	}
}

// applyChal determines whether the challenge contests the turn-holder's
// claim or an active block's claim: a block, once announced, is always
// the more recent claim on the table, so it takes priority exactly as
// the referee's own dispatchActionFamily does.
func (p *Participant) applyChal() {
	accused := p.turnHolder
	if p.blockActive {
		accused = p.blockerID
	} else if p.self.Tag == simulator.TagBlocking {
		// The referee's BLOCK broadcast skips the accepted blocker, so a
		// blocker that saw no BLOCK announced is itself the one accused.
		accused = p.self.ID
	}
	if accused == p.self.ID {
		p.self.SetPhase(simulator.PhaseChallengeSelf)
	} else {
		p.self.SetPhase(simulator.PhaseChallengeOther)
	}
}

func (p *Participant) applyDead(id types.Address) {
	if id == p.self.ID {
		p.self.Alive = false
		return
	}
	if other, ok := p.roster[id]; ok {
		other.Alive = false
	}
}

func (p *Participant) removeFromHand(card types.Character) {
	for i, c := range p.self.Hand {
		if c == card {
			p.self.Hand = append(p.self.Hand[:i], p.self.Hand[i+1:]...)
			return
		}
	}
}
