package bot

import (
	"hearts/internal/domain"
)

// Agent is one autonomous seat: a bot identity bound to a strategy.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// ChoosePass picks three cards for the agent's seat to pass.
func (a *Agent) ChoosePass(game *domain.Game, seat int) []domain.Card {
	player := game.PlayerAtSeat(seat)
	if player == nil || len(player.Hand) < 3 {
		return nil
	}
	return a.Strategy.ChoosePass(player.Hand)
}

// ChoosePlay picks a legal card for the agent's seat.
func (a *Agent) ChoosePlay(game *domain.Game, seat int) (domain.Card, error) {
	return a.Strategy.ChoosePlay(game, seat)
}
