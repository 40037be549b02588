package bot

import (
	"hearts/internal/domain"
)

// Brain is the interface all bot strategies implement.
type Brain interface {
	// ChoosePass selects exactly three cards to pass from the hand.
	ChoosePass(hand []domain.Card) []domain.Card
	// ChoosePlay selects one legal card for the seat whose turn it is.
	ChoosePlay(game *domain.Game, seat int) (domain.Card, error)
}
