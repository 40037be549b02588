package domain

import "math/rand"

// NewDeck returns an ordered 52-card deck: clubs, diamonds, spades, hearts,
// each suit running 2 through ace.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := RankTwo; r <= RankAce; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck using the provided
// random source. Callers inject a seeded *rand.Rand for deterministic deals.
func ShuffleDeck(rng *rand.Rand, deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal partitions a shuffled 52-card deck into four 13-card hands.
// The mapping is fixed: cards 0-12 go to seat 0, 13-25 to seat 1,
// 26-38 to seat 2 and 39-51 to seat 3.
func Deal(deck []Card) [4][]Card {
	var hands [4][]Card
	for seat := 0; seat < 4; seat++ {
		hands[seat] = append([]Card{}, deck[seat*13:(seat+1)*13]...)
	}
	return hands
}
