package app

import "hearts/internal/domain"

// EventKind identifies emitted session events for transport dispatch.
type EventKind string

const (
	EventGameCreated   EventKind = "game_created"
	EventPlayerJoined  EventKind = "player_joined"
	EventPlayerUpdated EventKind = "player_updated"
	EventPlayerLeft    EventKind = "player_left"
	EventGameStarted   EventKind = "game_started"
	EventCardsDealt    EventKind = "cards_dealt"
	EventPassingPhase  EventKind = "passing_phase"
	EventCardsReceived EventKind = "cards_received"
	EventTurnChanged   EventKind = "turn_changed"
	EventCardPlayed    EventKind = "card_played"
	EventTrickComplete EventKind = "trick_complete"
	EventRoundComplete EventKind = "round_complete"
	EventGameOver      EventKind = "game_over"
	EventChatMessage   EventKind = "chat_message"
	EventAbandoned     EventKind = "abandoned"
)

// Event is a session event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast to the session
}

// PlayerInfo is the public projection of a seated player.
type PlayerInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Seat        int    `json:"seat"`
	IsHost      bool   `json:"is_host"`
	IsReady     bool   `json:"is_ready"`
	HandCount   int    `json:"hand_count"`
	Score       int    `json:"score"`
	RoundPoints int    `json:"round_points"`
}

// PlayerScore pairs a player with round and cumulative scores.
type PlayerScore struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	RoundPoints int    `json:"round_points"`
	Total       int    `json:"total"`
}

type GameCreatedPayload struct {
	GameID  string       `json:"game_id"`
	Code    string       `json:"code"`
	Players []PlayerInfo `json:"players"`
}

type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
	Seat   int    `json:"seat"`
}

type GameStartedPayload struct {
	Round     int                  `json:"round"`
	Direction domain.PassDirection `json:"direction"`
	Players   []PlayerInfo         `json:"players"`
}

// CardsDealtPayload is private to the owning player.
type CardsDealtPayload struct {
	Round int           `json:"round"`
	Hand  []domain.Card `json:"hand"`
}

type PassingPhasePayload struct {
	Direction domain.PassDirection `json:"direction"`
}

// CardsReceivedPayload is private, sent after the pass exchange resolves.
type CardsReceivedPayload struct {
	Cards    []domain.Card `json:"cards"`
	FromSeat int           `json:"from_seat"`
}

type TurnChangedPayload struct {
	UserID string `json:"user_id"`
	Seat   int    `json:"seat"`
}

type CardPlayedPayload struct {
	UserID string      `json:"user_id"`
	Seat   int         `json:"seat"`
	Card   domain.Card `json:"card"`
}

type TrickCompletePayload struct {
	WinnerUserID string              `json:"winner_user_id"`
	WinnerSeat   int                 `json:"winner_seat"`
	Points       int                 `json:"points"`
	Trick        []domain.TrickEntry `json:"trick"`
}

type RoundCompletePayload struct {
	Round  int           `json:"round"`
	Scores []PlayerScore `json:"scores"`
}

type GameOverPayload struct {
	FinalScores    []PlayerScore    `json:"final_scores"`
	WinnerUserIDs  []string         `json:"winner_user_ids"`
	WinnerSeats    []int            `json:"winner_seats"`
	BalanceChanges map[string]int64 `json:"balance_changes,omitempty"`
}

type ChatMessagePayload struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

type AbandonedPayload struct {
	LeftUserID string `json:"left_user_id"`
	Reason     string `json:"reason"`
}

// SnapshotPayload is the read-only resync projection sent to one player.
// It never exposes another player's hand, only counts.
type SnapshotPayload struct {
	GameID          string               `json:"game_id"`
	Code            string               `json:"code"`
	Phase           domain.Phase         `json:"phase"`
	Round           int                  `json:"round"`
	Direction       domain.PassDirection `json:"direction"`
	HeartsBroken    bool                 `json:"hearts_broken"`
	CurrentTurnSeat int                  `json:"current_turn_seat"`
	Trick           []domain.TrickEntry  `json:"trick"`
	Players         []PlayerInfo         `json:"players"`
	Hand            []domain.Card        `json:"hand,omitempty"`
	PassStaged      bool                 `json:"pass_staged"`
}
