package referee

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// setupTwoPlayerGame drives a fresh Referee through HELLO, READY, deck,
// coins, and player-introduction rounds for two connections, landing on
// the first TURN prompt. It returns the referee along with the address
// currently holding the turn and its sole opponent.
func setupTwoPlayerGame(t *testing.T, seed int64) (r *Referee, turn, other types.Address) {
	t.Helper()
	r = New(seed, ModeManual)

	require.NotEmpty(t, r.Receive(1, "HELLO")) // private self-identification
	require.NotEmpty(t, r.Receive(2, "HELLO"))
	require.NotEmpty(t, r.StartGame())

	require.Empty(t, r.Receive(1, "READY"))
	require.NotEmpty(t, r.Receive(2, "READY"))

	require.Empty(t, r.Receive(1, "OK")) // deck ack
	require.NotEmpty(t, r.Receive(2, "OK"))

	require.Empty(t, r.Receive(1, "OK")) // coins ack
	require.NotEmpty(t, r.Receive(2, "OK"))

	require.Empty(t, r.Receive(1, "OK")) // introduce round 1
	require.NotEmpty(t, r.Receive(2, "OK"))
	require.Empty(t, r.Receive(1, "OK")) // introduce round 2
	effects := r.Receive(2, "OK")
	require.NotEmpty(t, effects)

	g := r.State()
	require.Equal(t, PhaseTurn, g.Phase)
	require.NotNil(t, g.TurnID)
	turn = *g.TurnID
	if turn == 1 {
		other = 2
	} else {
		other = 1
	}
	return r, turn, other
}

func handSize(r *Referee, id types.Address) int {
	return len(r.State().Players[id].Hand)
}

// TestIncomeScenario checks that an uncontested Income credits one coin
// and passes the turn immediately.
func TestIncomeScenario(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 1)
	g := r.State()
	g.Players[turn].Coins = 2

	effects := r.Receive(turn, wire.ACT(turn, types.Income, nil).String())
	require.NotEmpty(t, effects)
	require.Equal(t, 3, g.Players[turn].Coins)
	require.Equal(t, other, *g.TurnID)
}

// TestTaxWithSuccessfulChallenge checks that a Tax claim survives a
// challenge because the claimant actually holds the Duke.
func TestTaxWithSuccessfulChallenge(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 2)
	g := r.State()
	g.Players[turn].Coins = 2
	g.Players[turn].Hand = []types.Character{types.Duke, types.Assassin}
	g.Players[other].Hand = []types.Character{types.Contessa, types.Captain}
	beforeOtherHand := handSize(r, other)

	r.Receive(turn, wire.ACT(turn, types.Tax, nil).String())

	r.Receive(other, wire.CHAL(other).String())
	require.Equal(t, subChallenge, g.sub)
	require.Equal(t, simulator.PhaseChallengeSelf, g.Players[turn].Phase)

	r.Receive(turn, wire.SHOW(turn, types.Duke).String())
	require.Equal(t, subChallengeShow, g.sub)
	require.Equal(t, simulator.PhaseShow, g.Players[other].Phase)

	// The challenger must now choose which of their two cards to lose.
	lost := g.Players[other].Hand[0]
	effects := r.Receive(other, wire.LOSE(other, lost).String())
	require.NotEmpty(t, effects)

	require.Equal(t, beforeOtherHand-1, handSize(r, other))
	require.Equal(t, 5, g.Players[turn].Coins)
	require.Equal(t, other, *g.TurnID)
}

// TestFailedBluffOnAssassinate checks that an admitted bluff on
// Assassinate still pays the cost regardless, and the target takes no
// further loss.
func TestFailedBluffOnAssassinate(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 3)
	g := r.State()
	g.Players[turn].Coins = 3
	g.Players[turn].Hand = []types.Character{types.Duke, types.Captain}
	g.Players[other].Hand = []types.Character{types.Assassin, types.Ambassador}

	r.Receive(turn, wire.ACT(turn, types.Assassinate, &other).String())
	require.Equal(t, 0, g.Players[turn].Coins) // cost paid on entry, unconditionally

	r.Receive(other, wire.CHAL(other).String())
	require.Equal(t, simulator.PhaseChallengeSelf, g.Players[turn].Phase)

	effects := r.Receive(turn, wire.LOSE(turn, types.Duke).String())
	require.NotEmpty(t, effects)

	require.Equal(t, []types.Character{types.Captain}, g.Players[turn].Hand)
	require.Equal(t, 2, handSize(r, other)) // no target loss
	require.Equal(t, other, *g.TurnID)
}

// TestBlockStealThenChallengeBlockBluff checks that a block itself can
// be challenged and exposed as a bluff, so the original
// steal completes.
func TestBlockStealThenChallengeBlockBluff(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 4)
	g := r.State()
	g.Players[turn].Coins = 0
	g.Players[turn].Hand = []types.Character{types.Captain, types.Contessa}
	g.Players[other].Coins = 2
	g.Players[other].Hand = []types.Character{types.Duke, types.Assassin}

	r.Receive(turn, wire.ACT(turn, types.Steal, &other).String())
	r.Receive(other, wire.BLOCK(other, types.Ambassador).String())
	require.Equal(t, subBlock, g.sub)

	r.Receive(turn, wire.CHAL(turn).String())
	require.Equal(t, simulator.PhaseChallengeSelf, g.Players[other].Phase)
	require.Equal(t, types.Ambassador, g.Players[other].LastClaim)

	effects := r.Receive(other, wire.LOSE(other, types.Duke).String())
	require.NotEmpty(t, effects)

	require.Equal(t, []types.Character{types.Assassin}, g.Players[other].Hand)
	require.Equal(t, 2, g.Players[turn].Coins)
	require.Equal(t, 0, g.Players[other].Coins)
	require.Equal(t, other, *g.TurnID)
}

// TestForcedCoupAtTenCoins checks that, once a player's coins reach the
// threshold, ILLEGAL rejects any non-Coup action.
func TestForcedCoupAtTenCoins(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 5)
	g := r.State()
	g.Players[turn].Coins = types.CoupCoinsThreshold

	effects := r.Receive(turn, wire.ACT(turn, types.Income, nil).String())
	require.Len(t, effects, 1)
	require.Equal(t, wire.ILLEGAL().String(), effects[0].Payload)
	require.Equal(t, types.CoupCoinsThreshold, g.Players[turn].Coins) // unchanged

	effects = r.Receive(turn, wire.ACT(turn, types.Coup, &other).String())
	require.NotEmpty(t, effects)
	require.Equal(t, types.CoupCoinsThreshold-types.CoupCost, g.Players[turn].Coins)
}

// TestVictoryEndsGame checks that a Coup which empties the last
// opponent's hand ends the game and broadcasts EXIT.
func TestVictoryEndsGame(t *testing.T) {
	r, turn, other := setupTwoPlayerGame(t, 6)
	g := r.State()
	g.Players[turn].Coins = types.CoupCost
	g.Players[other].Hand = []types.Character{types.Duke}

	r.Receive(turn, wire.ACT(turn, types.Coup, &other).String())
	require.Equal(t, subTargetLoss, g.sub)

	effects := r.Receive(other, wire.LOSE(other, types.Duke).String())
	require.NotEmpty(t, effects)

	require.False(t, g.Players[other].Alive)
	require.Equal(t, PhaseEnd, g.Phase)

	found := false
	for _, e := range effects {
		if e.Payload == wire.EXIT().String() {
			found = true
		}
	}
	require.True(t, found)
}

// TestIllegalReplyDoesNotMutateState confirms the idempotence property:
// an ILLEGAL round trip leaves both coins and phase untouched.
func TestIllegalReplyDoesNotMutateState(t *testing.T) {
	r, turn, _ := setupTwoPlayerGame(t, 7)
	g := r.State()
	before := g.Players[turn].Coins

	effects := r.Receive(turn, "BOGUS")
	require.Len(t, effects, 1)
	require.Equal(t, wire.ILLEGAL().String(), effects[0].Payload)
	require.Equal(t, before, g.Players[turn].Coins)
	require.Equal(t, PhaseTurn, g.Phase)
}

// TestDisconnectDuringGameEndsWithOneSurvivor confirms a mid-game
// disconnect is treated as an elimination.
func TestDisconnectDuringGameEndsWithOneSurvivor(t *testing.T) {
	r, _, other := setupTwoPlayerGame(t, 8)
	g := r.State()

	effects := r.Receive(other, wire.Disconnect)
	require.NotEmpty(t, effects)
	require.False(t, g.Players[other].Alive)
	require.Equal(t, PhaseEnd, g.Phase)
}
