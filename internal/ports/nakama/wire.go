package nakama

import (
	"encoding/json"

	"hearts/internal/domain"
)

// Client request payloads, JSON-encoded in match data messages.

type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

type PassCardsRequest struct {
	Cards []domain.Card `json:"cards"`
}

type PlayCardRequest struct {
	Card domain.Card `json:"card"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

// GameErrorEvent is sent privately to the sender of a rejected action.
type GameErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MatchLabel is the indexed match listing document. quick_match filters on
// open/game/phase, join_game resolves codes through it.
type MatchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
	Code  string `json:"code"`
}

func (l MatchLabel) String() string {
	b, err := json.Marshal(l)
	if err != nil {
		return "{}"
	}
	return string(b)
}
