package domain

import (
	"fmt"
	"sort"
)

// Suit is a one-letter suit code, matching the wire representation.
type Suit string

const (
	SuitClubs    Suit = "C"
	SuitDiamonds Suit = "D"
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
)

// Suits lists the four suits in deck order.
var Suits = [4]Suit{SuitClubs, SuitDiamonds, SuitSpades, SuitHearts}

// Ranks run 2 through 14 with aces high.
const (
	RankTwo   = 2
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
)

// Card is a single playing card. It is a comparable value type so cards can
// be used directly as map keys and compared with ==.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

var (
	// QueenOfSpades carries the thirteen-point penalty.
	QueenOfSpades = Card{Suit: SuitSpades, Rank: RankQueen}
	// TwoOfClubs opens the first trick of every round.
	TwoOfClubs = Card{Suit: SuitClubs, Rank: RankTwo}
)

// IsHeart reports whether the card scores one penalty point.
func (c Card) IsHeart() bool {
	return c.Suit == SuitHearts
}

// IsPointCard reports whether the card carries any penalty points.
func (c Card) IsPointCard() bool {
	return c.IsHeart() || c == QueenOfSpades
}

// Valid reports whether the card is a real member of the 52-card deck.
func (c Card) Valid() bool {
	switch c.Suit {
	case SuitClubs, SuitDiamonds, SuitSpades, SuitHearts:
	default:
		return false
	}
	return c.Rank >= RankTwo && c.Rank <= RankAce
}

func (c Card) String() string {
	names := map[int]string{RankJack: "J", RankQueen: "Q", RankKing: "K", RankAce: "A"}
	if name, ok := names[c.Rank]; ok {
		return name + string(c.Suit)
	}
	return fmt.Sprintf("%d%s", c.Rank, c.Suit)
}

func suitIndex(s Suit) int {
	for i, suit := range Suits {
		if suit == s {
			return i
		}
	}
	return 0
}

// cardPower imposes a total order on cards: rank first, suit as tiebreak.
// It has no gameplay meaning; it exists for deterministic sorting and for
// picking "highest"/"lowest" cards in auto-play.
func cardPower(c Card) int {
	return c.Rank*4 + suitIndex(c.Suit)
}

// ContainsCard reports whether target appears in cards.
func ContainsCard(cards []Card, target Card) bool {
	for _, c := range cards {
		if c == target {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of cards with the first occurrence of target
// removed, and whether it was found.
func RemoveCard(cards []Card, target Card) ([]Card, bool) {
	out := make([]Card, 0, len(cards))
	found := false
	for _, c := range cards {
		if !found && c == target {
			found = true
			continue
		}
		out = append(out, c)
	}
	return out, found
}

// RemoveCards removes every card in targets from cards. Targets not present
// are ignored.
func RemoveCards(cards []Card, targets []Card) []Card {
	out := append([]Card{}, cards...)
	for _, t := range targets {
		out, _ = RemoveCard(out, t)
	}
	return out
}

// SortedHand returns a copy of the hand sorted by ascending power.
func SortedHand(hand []Card) []Card {
	out := append([]Card{}, hand...)
	sort.Slice(out, func(i, j int) bool { return cardPower(out[i]) < cardPower(out[j]) })
	return out
}

// LowestCard returns the lowest-power card of a non-empty slice.
func LowestCard(cards []Card) Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cardPower(c) < cardPower(best) {
			best = c
		}
	}
	return best
}

// HighestCards returns the n highest-power cards of the slice, highest first.
func HighestCards(cards []Card, n int) []Card {
	sorted := SortedHand(cards)
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]Card, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		out = append(out, sorted[i])
	}
	return out
}
