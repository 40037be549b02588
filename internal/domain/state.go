package domain

// Phase represents the lifecycle stage of a Hearts game session.
type Phase string

const (
	// PhaseWaiting is the lobby state where players join and ready up.
	PhaseWaiting Phase = "waiting"
	// PhasePassing is the pre-round card exchange.
	PhasePassing Phase = "passing"
	// PhasePlaying is active trick play.
	PhasePlaying Phase = "playing"
	// PhaseRoundOver is the pause between a round's scoring and the next deal.
	PhaseRoundOver Phase = "round_over"
	// PhaseGameOver is terminal: a player crossed the score limit.
	PhaseGameOver Phase = "game_over"
	// PhaseAbandoned is terminal: a player left mid-game.
	PhaseAbandoned Phase = "abandoned"
)

// PassDirection determines which seats exchange cards before a round.
type PassDirection string

const (
	PassLeft   PassDirection = "left"
	PassRight  PassDirection = "right"
	PassAcross PassDirection = "across"
	PassNone   PassDirection = "none"
)

// PassSourceSeat returns the seat whose staged cards the given seat receives
// under the direction: left means seat n receives from seat n-1 (mod 4),
// right from n+1, across from n+2.
func PassSourceSeat(seat int, dir PassDirection) int {
	switch dir {
	case PassLeft:
		return (seat + 3) % 4
	case PassRight:
		return (seat + 1) % 4
	case PassAcross:
		return (seat + 2) % 4
	default:
		return seat
	}
}

// Player holds the server-side state for one seat.
type Player struct {
	UserID      string
	DisplayName string
	AvatarURL   string
	Seat        int // 0..3
	IsHost      bool
	IsReady     bool
	Hand        []Card
}

// TrickEntry is one play within the current trick.
type TrickEntry struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// RoundTally tracks the penalty cards a seat has captured this round.
type RoundTally struct {
	Hearts        int
	QueenOfSpades bool
}

// Points returns the penalty points of the tally: one per heart plus
// thirteen for the queen of spades.
func (t RoundTally) Points() int {
	points := t.Hearts
	if t.QueenOfSpades {
		points += QueenOfSpadesPoints
	}
	return points
}

// Game captures the authoritative state for a single Hearts session.
// Mutation is owned by the app layer; everything here is plain data.
type Game struct {
	Phase Phase

	Players map[string]*Player // userID -> player
	Seats   [4]string          // seat index -> userID or ""

	HostUserID string

	Round         int
	PassDirection PassDirection
	HeartsBroken  bool
	FirstTrick    bool
	TricksPlayed  int
	TrickWinners  []int // seat per resolved trick, 13 per round

	CurrentTrick    []TrickEntry
	CurrentTurnSeat int // -1 outside PhasePlaying

	Scores       [4]int // cumulative across rounds
	RoundTallies [4]RoundTally

	StagedPasses map[int][]Card // seat -> exactly 3 staged cards
}

// NewGame returns an empty session state in the waiting phase.
func NewGame() *Game {
	return &Game{
		Phase:           PhaseWaiting,
		Players:         make(map[string]*Player),
		CurrentTurnSeat: -1,
		StagedPasses:    make(map[int][]Card),
	}
}

// SeatOf returns the seat of a user, or -1 if not seated.
func (g *Game) SeatOf(userID string) int {
	if p, ok := g.Players[userID]; ok {
		return p.Seat
	}
	return -1
}

// PlayerAtSeat returns the player occupying a seat, or nil.
func (g *Game) PlayerAtSeat(seat int) *Player {
	if seat < 0 || seat >= len(g.Seats) {
		return nil
	}
	userID := g.Seats[seat]
	if userID == "" {
		return nil
	}
	return g.Players[userID]
}

// SeatedCount returns the number of occupied seats.
func (g *Game) SeatedCount() int {
	count := 0
	for _, userID := range g.Seats {
		if userID != "" {
			count++
		}
	}
	return count
}

// LowestAvailableSeat returns the lowest empty seat index, or -1 when full.
func (g *Game) LowestAvailableSeat() int {
	for i, userID := range g.Seats {
		if userID == "" {
			return i
		}
	}
	return -1
}

// LeadSuit returns the suit of the current trick's first card.
// Only meaningful when the trick is non-empty.
func (g *Game) LeadSuit() Suit {
	return g.CurrentTrick[0].Card.Suit
}

// Active reports whether a round is in progress (cards are out of the deck).
func (g *Game) Active() bool {
	return g.Phase == PhasePassing || g.Phase == PhasePlaying
}
