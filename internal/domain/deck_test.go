package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 52 {
		t.Fatalf("deck size = %d, want 52", len(deck))
	}

	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		if !c.Valid() {
			t.Fatalf("invalid card in deck: %+v", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card in deck: %v", c)
		}
		seen[c] = true
	}
}

func TestDealPartitionsDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hands := Deal(ShuffleDeck(rng, NewDeck()))

	seen := make(map[Card]bool, 52)
	for seat, hand := range hands {
		if len(hand) != 13 {
			t.Fatalf("seat %d hand size = %d, want 13", seat, len(hand))
		}
		for _, c := range hand {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	if len(seen) != 52 {
		t.Fatalf("dealt %d distinct cards, want 52", len(seen))
	}
}

func TestDealSeatMappingIsContiguous(t *testing.T) {
	deck := NewDeck() // unshuffled, so slices are predictable
	hands := Deal(deck)

	for seat := 0; seat < 4; seat++ {
		for i, c := range hands[seat] {
			if want := deck[seat*13+i]; c != want {
				t.Fatalf("seat %d card %d = %v, want %v", seat, i, c, want)
			}
		}
	}
}

func TestShuffleDeckIsDeterministicPerSeed(t *testing.T) {
	a := ShuffleDeck(rand.New(rand.NewSource(42)), NewDeck())
	b := ShuffleDeck(rand.New(rand.NewSource(42)), NewDeck())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}
