package bot

import (
	"math/rand"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
)

// Random picks uniformly among the legal replies.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (b *Random) Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	return legal[b.rng.Intn(len(legal))]
}
