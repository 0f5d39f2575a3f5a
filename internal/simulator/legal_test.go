package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tpetri-labs/coup-engine/pkg/types"
)

func TestForcedCoupAtTenCoins(t *testing.T) {
	self := NewPlayerSim(1)
	self.Coins = 10
	self.Phase = PhaseMyTurn
	other := NewPlayerSim(2)
	roster := Roster{1: self, 2: other}

	replies := GenerateReplies(self, roster)
	assert.NotEmpty(t, replies)
	for _, r := range replies {
		assert.Contains(t, r, "ACT 1 C", "forced coup must only offer coup: got %q", r)
	}
}

func TestMyTurnBelowThresholdOffersEconomicActions(t *testing.T) {
	self := NewPlayerSim(1)
	self.Coins = 2
	self.Phase = PhaseMyTurn
	other := NewPlayerSim(2)
	roster := Roster{1: self, 2: other}

	replies := GenerateReplies(self, roster)
	assert.Contains(t, replies, "ACT 1 I")
	assert.Contains(t, replies, "ACT 1 F")
	assert.Contains(t, replies, "ACT 1 T")
	assert.Contains(t, replies, "ACT 1 X")
	assert.Contains(t, replies, "ACT 1 S 2")
	assert.NotContains(t, replies, "ACT 1 A 2", "assassinate requires 3 coins")
	assert.NotContains(t, replies, "ACT 1 C 2", "coup requires 7 coins")
}

func TestChallengeSelfOffersShowForMatchingCard(t *testing.T) {
	self := NewPlayerSim(1)
	self.Hand = []types.Character{types.Duke, types.Captain}
	self.LastClaim = types.Duke
	self.Phase = PhaseChallengeSelf

	replies := GenerateReplies(self, Roster{1: self})
	assert.Contains(t, replies, "SHOW 1 D")
	assert.Contains(t, replies, "LOSE 1 C")
	assert.Len(t, replies, 2)
}

func TestBlockWitnessOffersOKAndChallenge(t *testing.T) {
	self := NewPlayerSim(1)
	self.Phase = PhaseBlockWitness

	replies := GenerateReplies(self, Roster{1: self})
	assert.Contains(t, replies, "OK")
	assert.Contains(t, replies, "CHAL 1")
	assert.Len(t, replies, 2)
}

func TestChallengeOtherOffersOnlyOK(t *testing.T) {
	self := NewPlayerSim(1)
	self.Phase = PhaseChallengeOther

	replies := GenerateReplies(self, Roster{1: self})
	assert.Equal(t, []string{"OK"}, replies)
}

func TestDeadPlayerHasNoReplies(t *testing.T) {
	self := NewPlayerSim(1)
	self.Alive = false
	self.Phase = PhaseMyTurn
	assert.Empty(t, GenerateReplies(self, Roster{1: self}))
}

func TestChooseSizedToPreExchangeHand(t *testing.T) {
	self := NewPlayerSim(1)
	self.Hand = []types.Character{types.Duke}
	self.ExchangeCards = []types.Character{types.Assassin, types.Captain}
	self.PreExchangeHandSize = 1
	self.Phase = PhaseChoose

	replies := GenerateReplies(self, Roster{1: self})
	assert.Len(t, replies, 3) // one KEEP per distinct candidate card
	for _, r := range replies {
		assert.Contains(t, r, "KEEP ")
	}
}
