package app

import (
	"errors"

	"hearts/internal/domain"
)

// Session error taxonomy. Every rejected action maps to exactly one of
// these; validation always precedes mutation so a rejected action leaves
// session state untouched.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session full")
	ErrDuplicateJoin    = errors.New("player already seated")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotAllReady      = errors.New("not all players ready")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidCardCount = errors.New("must pass exactly three cards")
	ErrCardNotOwned     = errors.New("card not in hand")
	ErrAbandonedSession = errors.New("session abandoned")
	ErrDuplicateCode    = errors.New("game code already in use")
)

// ErrorCode returns the wire code reported to clients for an error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionFull):
		return "session_full"
	case errors.Is(err, ErrDuplicateJoin):
		return "duplicate_join"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrNotAllReady):
		return "not_all_ready"
	case errors.Is(err, ErrInvalidCardCount):
		return "invalid_card_count"
	case errors.Is(err, ErrCardNotOwned):
		return "card_not_owned"
	case errors.Is(err, ErrAbandonedSession):
		return "session_abandoned"
	case errors.Is(err, domain.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, ErrInvalidAction):
		return "invalid_action"
	default:
		return "internal"
	}
}
