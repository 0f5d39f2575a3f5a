package referee

import (
	"math/rand"

	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// NewDeck builds the canonical 15-card starting multiset (three of each
// character) and shuffles it with a Fisher-Yates pass.
func NewDeck(r *rand.Rand) []types.Character {
	deck := make([]types.Character, 0, 15)
	for _, c := range types.Characters {
		for i := 0; i < 3; i++ {
			deck = append(deck, c)
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// draw removes and returns n cards from the top of the deck.
func (g *GameState) draw(n int) []types.Character {
	if n > len(g.Deck) {
		n = len(g.Deck)
	}
	out := append([]types.Character{}, g.Deck[:n]...)
	g.Deck = g.Deck[n:]
	return out
}

// returnAndShuffle places a card back into the deck and reshuffles,
// used when a challenged claim is proven genuine (the shown card is
// returned and replaced by a fresh draw).
func (g *GameState) returnAndShuffle(c types.Character) {
	g.Deck = append(g.Deck, c)
	r := g.rng
	for i := len(g.Deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	}
}
