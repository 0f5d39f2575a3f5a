package participant

import (
	"bufio"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// stubPolicy always returns the first legal reply, recording every call.
type stubPolicy struct {
	calls [][]string
}

func (s *stubPolicy) Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string {
	s.calls = append(s.calls, append([]string{}, legal...))
	if len(legal) == 0 {
		return ""
	}
	return legal[0]
}

func newTestParticipant() *Participant {
	client, server := net.Pipe()
	// net.Pipe is unbuffered: drain the far end so a send does not block.
	go func() { _, _ = io.Copy(io.Discard, server) }()
	return New(client, &stubPolicy{}, nil)
}

func TestApplyPlayerAssignsOwnIdentityOnce(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(5)
	require.Equal(t, types.Address(5), p.self.ID)
	require.Equal(t, simulator.PhasePlayer, p.self.Phase)

	p.applyPlayer(6)
	require.Equal(t, types.Address(5), p.self.ID) // unchanged
	_, known := p.roster[6]
	require.True(t, known)
}

func TestApplyCoinsSetsOwnAndOthers(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	p.applyPlayer(2)

	p.applyCoins(1, 4)
	require.Equal(t, 4, p.self.Coins)
	require.Equal(t, simulator.PhaseCoins, p.self.Phase) // setup round, not yet started

	p.applyCoins(2, 7)
	require.Equal(t, 7, p.roster[2].Coins)
}

func TestApplyCoinsMidGameDoesNotChangePhase(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	p.started = true
	p.self.SetPhase(simulator.PhaseOtherTurn)

	p.applyCoins(1, 9)
	require.Equal(t, 9, p.self.Coins)
	require.Equal(t, simulator.PhaseOtherTurn, p.self.Phase)
}

func TestApplyTurnSelfAndOther(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)

	p.applyTurn(1)
	require.True(t, p.self.Turn)
	require.Equal(t, simulator.PhaseMyTurn, p.self.Phase)

	p.applyTurn(2)
	require.False(t, p.self.Turn)
	require.Equal(t, simulator.PhaseOtherTurn, p.self.Phase)
}

func TestApplyActWitnessAndTargetedPhases(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	other := types.Address(2)

	p.applyAct(wire.ACT(2, types.Tax, nil))
	require.Equal(t, simulator.PhaseTax, p.self.Phase)

	p.applyAct(wire.ACT(2, types.Steal, &other)) // target is player 2, not me
	require.Equal(t, simulator.PhaseSteal, p.self.Phase)

	me := types.Address(1)
	p.applyAct(wire.ACT(2, types.Assassinate, &me))
	require.Equal(t, simulator.PhaseAssassinateMe, p.self.Phase)
}

func TestApplyChalPrefersBlockOverTurn(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	p.turnHolder = 1
	p.blockActive = true
	p.blockerID = 2

	p.applyChal()
	require.Equal(t, simulator.PhaseChallengeOther, p.self.Phase) // accused is 2, not me

	p.blockerID = 1
	p.applyChal()
	require.Equal(t, simulator.PhaseChallengeSelf, p.self.Phase)
}

func TestShouldReplySkipsIncomeCoupIdleEnd(t *testing.T) {
	p := newTestParticipant()
	for _, ph := range []simulator.Phase{simulator.PhaseIncome, simulator.PhaseCoup, simulator.PhaseIdle, simulator.PhaseEnd} {
		p.self.SetPhase(ph)
		require.False(t, p.shouldReply(), ph.String())
	}
	p.self.SetPhase(simulator.PhaseOtherTurn)
	require.True(t, p.shouldReply())
}

func TestMarkOutgoingTagRecordsClaim(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	p.markOutgoingTag(wire.ACT(1, types.Tax, nil).String())
	require.Equal(t, types.Duke, p.self.LastClaim)

	p.markOutgoingTag(wire.CHAL(1).String())
	require.Equal(t, simulator.TagChallenging, p.self.Tag)

	p.markOutgoingTag(wire.BLOCK(1, types.Contessa).String())
	require.Equal(t, simulator.TagBlocking, p.self.Tag)
	require.Equal(t, types.Contessa, p.self.LastClaim)
}

func TestRetryEliminatesRejectedReply(t *testing.T) {
	p := newTestParticipant()
	p.applyPlayer(1)
	p.self.SetPhase(simulator.PhaseForeignAid)
	p.lastSent = wire.OK().String()

	err := p.retry()
	require.NoError(t, err)
	require.NotEqual(t, wire.OK().String(), p.lastSent)
}

func TestRunSendsHelloThenRespondsAndStopsOnExit(t *testing.T) {
	client, server := net.Pipe()
	policy := &stubPolicy{}
	p := New(client, policy, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	serverReader := bufio.NewScanner(server)

	require.True(t, serverReader.Scan())
	require.Equal(t, wire.SingleEnvelope(types.RefereeAddress, wire.HELLO().String()).String(), serverReader.Text())

	write := func(env string) {
		_, err := server.Write([]byte(env + "\n"))
		require.NoError(t, err)
	}
	expectOK := func() {
		require.True(t, serverReader.Scan())
		require.Equal(t, wire.SingleEnvelope(types.RefereeAddress, wire.OK().String()).String(), serverReader.Text())
	}

	write(wire.SingleEnvelope(types.RefereeAddress, wire.PLAYER(3).String()).String())
	expectOK() // acknowledges learning its own id

	write(wire.SingleEnvelope(types.RefereeAddress, wire.DECK(types.Duke, types.Captain).String()).String())
	expectOK()

	write(wire.SingleEnvelope(types.RefereeAddress, wire.EXIT().String()).String())
	require.NoError(t, <-done)
	require.Equal(t, simulator.PhaseEnd, p.self.Phase)
}
