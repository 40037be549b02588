package bot

import (
	"fmt"
	"math/rand"
	"sort"

	"hearts/internal/domain"
)

// EasyBot plays a uniformly random legal card and passes three random cards.
type EasyBot struct {
	Rng *rand.Rand
}

func (b *EasyBot) ChoosePass(hand []domain.Card) []domain.Card {
	idx := b.Rng.Perm(len(hand))
	picks := make([]domain.Card, 0, 3)
	for _, i := range idx[:3] {
		picks = append(picks, hand[i])
	}
	return picks
}

func (b *EasyBot) ChoosePlay(game *domain.Game, seat int) (domain.Card, error) {
	legal, err := legalFor(game, seat)
	if err != nil {
		return domain.Card{}, err
	}
	return legal[b.Rng.Intn(len(legal))], nil
}

// CautiousBot passes away its most dangerous cards and avoids taking tricks.
type CautiousBot struct{}

func (b *CautiousBot) ChoosePass(hand []domain.Card) []domain.Card {
	sorted := append([]domain.Card{}, hand...)
	sort.Slice(sorted, func(i, j int) bool {
		return passDanger(sorted[i]) > passDanger(sorted[j])
	})
	return append([]domain.Card{}, sorted[:3]...)
}

func (b *CautiousBot) ChoosePlay(game *domain.Game, seat int) (domain.Card, error) {
	legal, err := legalFor(game, seat)
	if err != nil {
		return domain.Card{}, err
	}
	if len(legal) == 1 {
		return legal[0], nil
	}

	trick := game.CurrentTrick
	if len(trick) == 0 {
		// Lead low to stay out of trouble.
		return domain.LowestCard(legal), nil
	}

	lead := trick[0].Card.Suit
	if legal[0].Suit == lead {
		// Following suit: duck with the highest card that still loses,
		// otherwise concede with the lowest winner.
		winning := winningRank(trick, lead)
		var duck domain.Card
		haveDuck := false
		for _, c := range legal {
			if c.Rank < winning && (!haveDuck || c.Rank > duck.Rank) {
				duck = c
				haveDuck = true
			}
		}
		if haveDuck {
			return duck, nil
		}
		lowest := legal[0]
		for _, c := range legal[1:] {
			if c.Rank < lowest.Rank {
				lowest = c
			}
		}
		return lowest, nil
	}

	// Void in the lead suit: unload the queen first, then high hearts,
	// then the biggest liability.
	if domain.ContainsCard(legal, domain.QueenOfSpades) {
		return domain.QueenOfSpades, nil
	}
	best := legal[0]
	for _, c := range legal[1:] {
		if passDanger(c) > passDanger(best) {
			best = c
		}
	}
	return best, nil
}

// passDanger ranks how much a card wants to leave the hand.
func passDanger(c domain.Card) int {
	score := c.Rank
	if c == domain.QueenOfSpades {
		score += 100
	}
	if c.Suit == domain.SuitSpades && c.Rank > domain.RankQueen {
		score += 50
	}
	if c.IsHeart() {
		score += 20
	}
	return score
}

func winningRank(trick []domain.TrickEntry, lead domain.Suit) int {
	best := 0
	for _, entry := range trick {
		if entry.Card.Suit == lead && entry.Card.Rank > best {
			best = entry.Card.Rank
		}
	}
	return best
}

func legalFor(game *domain.Game, seat int) ([]domain.Card, error) {
	player := game.PlayerAtSeat(seat)
	if player == nil || len(player.Hand) == 0 {
		return nil, fmt.Errorf("no playable hand at seat %d", seat)
	}
	legal := domain.LegalPlays(player.Hand, game.CurrentTrick, game.HeartsBroken, game.FirstTrick)
	if len(legal) == 0 {
		return nil, fmt.Errorf("no legal plays at seat %d", seat)
	}
	return legal, nil
}
