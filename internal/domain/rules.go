package domain

import "errors"

const (
	// QueenOfSpadesPoints is the penalty for capturing the queen of spades.
	QueenOfSpadesPoints = 13
	// RoundPoints is the total penalty in circulation each round.
	RoundPoints = 26
	// ShootTheMoonPoints is what each opponent scores when one player
	// captures every penalty card in a round.
	ShootTheMoonPoints = 26
	// GameOverScore ends the game once any cumulative score reaches it.
	GameOverScore = 100
	// TricksPerRound is fixed for 4-player Hearts.
	TricksPerRound = 13
	// HeartsInDeck is the number of heart cards a moon shooter must capture.
	HeartsInDeck = 13
)

// ErrIllegalMove is returned when a proposed card is not a legal play.
var ErrIllegalMove = errors.New("illegal move")

// LegalPlays returns the subset of the hand that may legally be played onto
// the trick. For a non-empty hand the result is never empty.
//
// Leading: hearts may not be led until broken, unless the hand is all
// hearts. On the first trick of a round the two of clubs must be led if
// held; failing that any non-heart, non-queen-of-spades card is legal, and
// point cards only from a hand holding nothing else.
//
// Following: the lead suit must be followed if possible. A void hand may
// discard anything, except that point cards may not be discarded on the
// first trick unless the hand holds nothing else.
func LegalPlays(hand []Card, trick []TrickEntry, heartsBroken, firstTrick bool) []Card {
	if len(hand) == 0 {
		return nil
	}

	if len(trick) == 0 {
		return legalLeads(hand, heartsBroken, firstTrick)
	}

	lead := trick[0].Card.Suit
	followers := filterCards(hand, func(c Card) bool { return c.Suit == lead })
	if len(followers) > 0 {
		return followers
	}

	if firstTrick {
		if safe := filterCards(hand, func(c Card) bool { return !c.IsPointCard() }); len(safe) > 0 {
			return safe
		}
	}
	return append([]Card{}, hand...)
}

func legalLeads(hand []Card, heartsBroken, firstTrick bool) []Card {
	if firstTrick {
		if ContainsCard(hand, TwoOfClubs) {
			return []Card{TwoOfClubs}
		}
		// No two of clubs only happens in constructed states; fall back to
		// any card that carries no points.
		if safe := filterCards(hand, func(c Card) bool { return !c.IsPointCard() }); len(safe) > 0 {
			return safe
		}
		return append([]Card{}, hand...)
	}

	if heartsBroken {
		return append([]Card{}, hand...)
	}
	if nonHearts := filterCards(hand, func(c Card) bool { return !c.IsHeart() }); len(nonHearts) > 0 {
		return nonHearts
	}
	return append([]Card{}, hand...)
}

// CheckPlay validates a single proposed card against LegalPlays.
func CheckPlay(hand []Card, trick []TrickEntry, heartsBroken, firstTrick bool, card Card) error {
	if !ContainsCard(LegalPlays(hand, trick, heartsBroken, firstTrick), card) {
		return ErrIllegalMove
	}
	return nil
}

// ResolveTrick returns the winning seat and the penalty points contained in
// a completed trick. The winner is the highest rank of the lead suit.
func ResolveTrick(trick []TrickEntry) (winnerSeat, points int) {
	lead := trick[0].Card.Suit
	winnerSeat = trick[0].Seat
	best := trick[0].Card.Rank
	for _, entry := range trick[1:] {
		if entry.Card.Suit == lead && entry.Card.Rank > best {
			best = entry.Card.Rank
			winnerSeat = entry.Seat
		}
	}
	for _, entry := range trick {
		if entry.Card.IsHeart() {
			points++
		}
		if entry.Card == QueenOfSpades {
			points += QueenOfSpadesPoints
		}
	}
	return winnerSeat, points
}

// TallyTrick folds a completed trick into the winner's round tally.
func TallyTrick(tally RoundTally, trick []TrickEntry) RoundTally {
	for _, entry := range trick {
		if entry.Card.IsHeart() {
			tally.Hearts++
		}
		if entry.Card == QueenOfSpades {
			tally.QueenOfSpades = true
		}
	}
	return tally
}

// ScoreRound converts the per-seat round tallies into round scores,
// applying the shoot-the-moon inversion: a seat that captured all 13 hearts
// and the queen of spades scores zero while everyone else scores 26.
func ScoreRound(tallies [4]RoundTally) [4]int {
	shooter := -1
	for seat, tally := range tallies {
		if tally.Hearts == HeartsInDeck && tally.QueenOfSpades {
			shooter = seat
			break
		}
	}

	var scores [4]int
	if shooter >= 0 {
		for seat := range scores {
			if seat != shooter {
				scores[seat] = ShootTheMoonPoints
			}
		}
		return scores
	}

	for seat, tally := range tallies {
		scores[seat] = tally.Points()
	}
	return scores
}

// NextPassDirection advances the four-round rotation
// left -> right -> across -> none -> left.
func NextPassDirection(current PassDirection) PassDirection {
	switch current {
	case PassLeft:
		return PassRight
	case PassRight:
		return PassAcross
	case PassAcross:
		return PassNone
	default:
		return PassLeft
	}
}

// IsGameOver reports whether any cumulative score has reached the limit.
func IsGameOver(scores [4]int) bool {
	for _, score := range scores {
		if score >= GameOverScore {
			return true
		}
	}
	return false
}

// Winners returns the seats holding the lowest cumulative score. Multiple
// seats tied at the minimum are all co-winners.
func Winners(scores [4]int) []int {
	min := scores[0]
	for _, score := range scores[1:] {
		if score < min {
			min = score
		}
	}
	var winners []int
	for seat, score := range scores {
		if score == min {
			winners = append(winners, seat)
		}
	}
	return winners
}

func filterCards(cards []Card, keep func(Card) bool) []Card {
	var out []Card
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
