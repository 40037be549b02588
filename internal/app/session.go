package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"hearts/internal/domain"
)

// Profile is the authenticated identity supplied by the auth boundary.
// The session trusts it but re-validates every seat and turn check itself.
type Profile struct {
	UserID      string
	DisplayName string
	AvatarURL   string
}

// Stakes configures pot settlement at game over.
type Stakes struct {
	BaseBet int64   // ante per seat
	Rake    float64 // house cut of the pot, 0..1
}

// maxChatLength caps relayed chat messages.
const maxChatLength = 500

// Session is the state machine for one Hearts game. All public operations
// serialize on an internal lock, validate phase and actor before mutating,
// and return the events to deliver. A failed operation never changes state.
type Session struct {
	ID   string
	Code string

	mu     sync.Mutex
	rng    *rand.Rand
	game   *domain.Game
	stakes Stakes

	createdAt  time.Time
	lastActive time.Time
}

// NewSession constructs an empty session in the waiting phase. rng may be
// nil to use a time-seeded default; tests inject a seeded source for
// deterministic deals.
func NewSession(id, code string, rng *rand.Rand, stakes Stakes) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := time.Now()
	return &Session{
		ID:         id,
		Code:       code,
		rng:        rng,
		game:       domain.NewGame(),
		stakes:     stakes,
		createdAt:  now,
		lastActive: now,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase
}

// SeatOf returns the seat of a user, or -1 if not seated.
func (s *Session) SeatOf(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.SeatOf(userID)
}

// CurrentTurnUserID returns the user who must act, or "" outside trick play.
func (s *Session) CurrentTurnUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.Phase != domain.PhasePlaying || s.game.CurrentTurnSeat < 0 {
		return ""
	}
	return s.game.Seats[s.game.CurrentTurnSeat]
}

// SeatedCount returns the number of occupied seats.
func (s *Session) SeatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.SeatedCount()
}

// LastActive returns the time of the last accepted mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Evictable reports whether the registry may garbage-collect the session:
// terminal phases after the grace period, or any session idle past maxIdle
// with no seated players.
func (s *Session) Evictable(now time.Time, maxIdle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idle := now.Sub(s.lastActive) >= maxIdle
	switch s.game.Phase {
	case domain.PhaseGameOver, domain.PhaseAbandoned:
		return idle
	default:
		return idle && s.game.SeatedCount() == 0
	}
}

// CanJoin checks admission without mutating. Reconnecting players are
// always admitted for resync.
func (s *Session) CanJoin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seated := s.game.Players[userID]; seated {
		return nil
	}
	if s.game.Phase != domain.PhaseWaiting {
		return fmt.Errorf("%w: game already in progress", ErrInvalidAction)
	}
	if s.game.SeatedCount() >= 4 {
		return ErrSessionFull
	}
	return nil
}

// Join seats a new player, or resyncs a reconnecting one. The first player
// to join becomes host at seat 0.
func (s *Session) Join(p Profile) (int, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.game.Players[p.UserID]; ok {
		// Reconnection: current-state resync only, no seat change.
		ev := Event{
			Kind:       EventGameCreated,
			Payload:    s.snapshotLocked(p.UserID),
			Recipients: []string{p.UserID},
		}
		return existing.Seat, []Event{ev}, nil
	}

	if s.game.Phase != domain.PhaseWaiting {
		return -1, nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhaseWaiting)
	}
	seat := s.game.LowestAvailableSeat()
	if seat < 0 {
		return -1, nil, ErrSessionFull
	}

	isHost := s.game.SeatedCount() == 0
	player := &domain.Player{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Seat:        seat,
		IsHost:      isHost,
	}
	s.game.Players[p.UserID] = player
	s.game.Seats[seat] = p.UserID
	if isHost {
		s.game.HostUserID = p.UserID
	}
	s.touch()

	events := []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{Player: s.playerInfoLocked(player)},
	}}
	if isHost {
		events = append(events, Event{
			Kind: EventGameCreated,
			Payload: GameCreatedPayload{
				GameID:  s.ID,
				Code:    s.Code,
				Players: s.playerListLocked(),
			},
			Recipients: []string{p.UserID},
		})
	}
	return seat, events, nil
}

// SetReady toggles a player's readiness while waiting.
func (s *Session) SetReady(userID string, ready bool) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.game.Players[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.game.Phase != domain.PhaseWaiting {
		return nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhaseWaiting)
	}
	player.IsReady = ready
	s.touch()

	return []Event{{
		Kind:    EventPlayerUpdated,
		Payload: PlayerJoinedPayload{Player: s.playerInfoLocked(player)},
	}}, nil
}

// Start begins round one. Only the host may start, with exactly four
// seated and all ready.
func (s *Session) Start(userID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseWaiting {
		return nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhaseWaiting)
	}
	if userID != s.game.HostUserID {
		return nil, fmt.Errorf("%w: only the host may start the game", ErrInvalidAction)
	}
	if s.game.SeatedCount() < 4 {
		return nil, ErrNotEnoughPlayers
	}
	for _, player := range s.game.Players {
		if !player.IsReady {
			return nil, ErrNotAllReady
		}
	}

	s.game.Round = 1
	s.game.PassDirection = domain.PassLeft
	s.touch()

	events := []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			Round:     s.game.Round,
			Direction: s.game.PassDirection,
			Players:   s.playerListLocked(),
		},
	}}
	return append(events, s.dealLocked()...), nil
}

// PassCards stages exactly three cards for the passing exchange. The
// exchange fires atomically once all four seats have staged; no partial
// exchange is ever observable.
func (s *Session) PassCards(userID string, cards []domain.Card) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.game.Players[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.game.Phase != domain.PhasePassing {
		return nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhasePassing)
	}
	if _, staged := s.game.StagedPasses[player.Seat]; staged {
		return nil, fmt.Errorf("%w: cards already passed", ErrInvalidAction)
	}
	if err := validatePassSelection(player.Hand, cards); err != nil {
		return nil, err
	}

	s.game.StagedPasses[player.Seat] = append([]domain.Card{}, cards...)
	s.touch()

	if len(s.game.StagedPasses) < 4 {
		return nil, nil
	}
	return s.exchangeLocked(), nil
}

func validatePassSelection(hand, cards []domain.Card) error {
	if len(cards) != 3 {
		return ErrInvalidCardCount
	}
	seen := make(map[domain.Card]bool, 3)
	for _, c := range cards {
		if seen[c] {
			return ErrInvalidCardCount
		}
		seen[c] = true
		if !domain.ContainsCard(hand, c) {
			return fmt.Errorf("%w: %v", ErrCardNotOwned, c)
		}
	}
	return nil
}

// exchangeLocked performs the simultaneous four-way card exchange and
// moves the session into trick play.
func (s *Session) exchangeLocked() []Event {
	g := s.game
	for seat, staged := range g.StagedPasses {
		player := g.PlayerAtSeat(seat)
		player.Hand = domain.RemoveCards(player.Hand, staged)
	}

	var events []Event
	for seat := 0; seat < 4; seat++ {
		source := domain.PassSourceSeat(seat, g.PassDirection)
		incoming := g.StagedPasses[source]
		player := g.PlayerAtSeat(seat)
		player.Hand = append(player.Hand, incoming...)
		events = append(events, Event{
			Kind:       EventCardsReceived,
			Payload:    CardsReceivedPayload{Cards: incoming, FromSeat: source},
			Recipients: []string{player.UserID},
		})
	}
	g.StagedPasses = make(map[int][]domain.Card)

	return append(events, s.beginTrickPlayLocked()...)
}

// beginTrickPlayLocked opens a round's trick play: the holder of the two
// of clubs leads the first trick.
func (s *Session) beginTrickPlayLocked() []Event {
	g := s.game
	g.Phase = domain.PhasePlaying
	g.FirstTrick = true
	for seat := 0; seat < 4; seat++ {
		if domain.ContainsCard(g.PlayerAtSeat(seat).Hand, domain.TwoOfClubs) {
			g.CurrentTurnSeat = seat
			break
		}
	}
	return []Event{{
		Kind: EventTurnChanged,
		Payload: TurnChangedPayload{
			UserID: g.Seats[g.CurrentTurnSeat],
			Seat:   g.CurrentTurnSeat,
		},
	}}
}

// PlayCard applies one play for the player whose turn it is.
func (s *Session) PlayCard(userID string, card domain.Card) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.game.Players[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.game.Phase != domain.PhasePlaying {
		return nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhasePlaying)
	}
	if player.Seat != s.game.CurrentTurnSeat {
		return nil, fmt.Errorf("%w: not your turn", ErrInvalidAction)
	}
	return s.playCardLocked(player, card)
}

func (s *Session) playCardLocked(player *domain.Player, card domain.Card) ([]Event, error) {
	g := s.game
	if err := domain.CheckPlay(player.Hand, g.CurrentTrick, g.HeartsBroken, g.FirstTrick, card); err != nil {
		return nil, err
	}

	player.Hand, _ = domain.RemoveCard(player.Hand, card)
	g.CurrentTrick = append(g.CurrentTrick, domain.TrickEntry{Seat: player.Seat, Card: card})
	if card.IsHeart() {
		g.HeartsBroken = true
	}
	s.touch()

	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{UserID: player.UserID, Seat: player.Seat, Card: card},
	}}

	if len(g.CurrentTrick) < 4 {
		g.CurrentTurnSeat = (g.CurrentTurnSeat + 1) % 4
		return append(events, Event{
			Kind: EventTurnChanged,
			Payload: TurnChangedPayload{
				UserID: g.Seats[g.CurrentTurnSeat],
				Seat:   g.CurrentTurnSeat,
			},
		}), nil
	}
	return append(events, s.resolveTrickLocked()...), nil
}

func (s *Session) resolveTrickLocked() []Event {
	g := s.game
	winnerSeat, points := domain.ResolveTrick(g.CurrentTrick)
	g.RoundTallies[winnerSeat] = domain.TallyTrick(g.RoundTallies[winnerSeat], g.CurrentTrick)
	g.TrickWinners = append(g.TrickWinners, winnerSeat)
	g.TricksPlayed++
	trick := g.CurrentTrick
	g.CurrentTrick = nil
	g.FirstTrick = false

	events := []Event{{
		Kind: EventTrickComplete,
		Payload: TrickCompletePayload{
			WinnerUserID: g.Seats[winnerSeat],
			WinnerSeat:   winnerSeat,
			Points:       points,
			Trick:        trick,
		},
	}}

	if g.TricksPlayed < domain.TricksPerRound {
		g.CurrentTurnSeat = winnerSeat
		return append(events, Event{
			Kind: EventTurnChanged,
			Payload: TurnChangedPayload{
				UserID: g.Seats[winnerSeat],
				Seat:   winnerSeat,
			},
		})
	}
	return append(events, s.endRoundLocked()...)
}

func (s *Session) endRoundLocked() []Event {
	g := s.game
	roundScores := domain.ScoreRound(g.RoundTallies)
	for seat, score := range roundScores {
		g.Scores[seat] += score
	}
	g.CurrentTurnSeat = -1

	scores := make([]PlayerScore, 0, 4)
	for seat := 0; seat < 4; seat++ {
		scores = append(scores, PlayerScore{
			UserID:      g.Seats[seat],
			Seat:        seat,
			RoundPoints: roundScores[seat],
			Total:       g.Scores[seat],
		})
	}
	events := []Event{{
		Kind:    EventRoundComplete,
		Payload: RoundCompletePayload{Round: g.Round, Scores: scores},
	}}

	if domain.IsGameOver(g.Scores) {
		return append(events, s.endGameLocked(scores)...)
	}
	g.Phase = domain.PhaseRoundOver
	return events
}

func (s *Session) endGameLocked(finalScores []PlayerScore) []Event {
	g := s.game
	g.Phase = domain.PhaseGameOver

	winnerSeats := domain.Winners(g.Scores)
	winnerIDs := make([]string, 0, len(winnerSeats))
	winners := make(map[int]bool, len(winnerSeats))
	for _, seat := range winnerSeats {
		winnerIDs = append(winnerIDs, g.Seats[seat])
		winners[seat] = true
	}

	return []Event{{
		Kind: EventGameOver,
		Payload: GameOverPayload{
			FinalScores:    finalScores,
			WinnerUserIDs:  winnerIDs,
			WinnerSeats:    winnerSeats,
			BalanceChanges: s.settlementLocked(winners),
		},
	}}
}

// settlementLocked computes net wallet changes: every seat antes the base
// bet and the winners split the pot after the rake.
func (s *Session) settlementLocked(winners map[int]bool) map[string]int64 {
	if s.stakes.BaseBet <= 0 || len(winners) == 0 {
		return nil
	}
	pot := s.stakes.BaseBet * 4
	payout := pot - int64(float64(pot)*s.stakes.Rake)
	share := payout / int64(len(winners))

	changes := make(map[string]int64, 4)
	for seat, userID := range s.game.Seats {
		if userID == "" {
			continue
		}
		changes[userID] = -s.stakes.BaseBet
		if winners[seat] {
			changes[userID] += share
		}
	}
	return changes
}

// AdvanceRound moves a session out of the round-over pause into the next
// round's deal. The transport layer calls this after the display interval.
func (s *Session) AdvanceRound() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseRoundOver {
		return nil, fmt.Errorf("%w: expected phase %s", ErrInvalidAction, domain.PhaseRoundOver)
	}
	s.game.Round++
	s.game.PassDirection = domain.NextPassDirection(s.game.PassDirection)
	s.touch()
	return s.dealLocked(), nil
}

// dealLocked shuffles, deals and enters either the passing phase or, on
// no-pass rounds, trick play directly.
func (s *Session) dealLocked() []Event {
	g := s.game
	hands := domain.Deal(domain.ShuffleDeck(s.rng, domain.NewDeck()))

	g.HeartsBroken = false
	g.TricksPlayed = 0
	g.TrickWinners = nil
	g.CurrentTrick = nil
	g.RoundTallies = [4]domain.RoundTally{}
	g.StagedPasses = make(map[int][]domain.Card)

	var events []Event
	for seat := 0; seat < 4; seat++ {
		player := g.PlayerAtSeat(seat)
		player.Hand = hands[seat]
		events = append(events, Event{
			Kind:       EventCardsDealt,
			Payload:    CardsDealtPayload{Round: g.Round, Hand: domain.SortedHand(player.Hand)},
			Recipients: []string{player.UserID},
		})
	}

	if g.PassDirection == domain.PassNone {
		return append(events, s.beginTrickPlayLocked()...)
	}
	g.Phase = domain.PhasePassing
	g.CurrentTurnSeat = -1
	return append(events, Event{
		Kind:    EventPassingPhase,
		Payload: PassingPhasePayload{Direction: g.PassDirection},
	})
}

// Leave removes a player. Leaving mid-game abandons the session, since
// Hearts requires exactly four active hands.
func (s *Session) Leave(userID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.game.Players[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	g := s.game
	delete(g.Players, userID)
	g.Seats[player.Seat] = ""
	delete(g.StagedPasses, player.Seat)
	s.touch()

	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{UserID: userID, Seat: player.Seat},
	}}

	switch g.Phase {
	case domain.PhaseWaiting:
		if g.HostUserID == userID {
			g.HostUserID = ""
			for seat := 0; seat < 4; seat++ {
				if next := g.PlayerAtSeat(seat); next != nil {
					next.IsHost = true
					g.HostUserID = next.UserID
					events = append(events, Event{
						Kind:    EventPlayerUpdated,
						Payload: PlayerJoinedPayload{Player: s.playerInfoLocked(next)},
					})
					break
				}
			}
		}
	case domain.PhasePassing, domain.PhasePlaying, domain.PhaseRoundOver:
		g.Phase = domain.PhaseAbandoned
		g.CurrentTurnSeat = -1
		events = append(events, Event{
			Kind:    EventAbandoned,
			Payload: AbandonedPayload{LeftUserID: userID, Reason: "player left mid-game"},
		})
	}
	return events, nil
}

// Chat relays a chat message without interpreting it.
func (s *Session) Chat(userID, text string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.game.Players[userID]; !ok {
		return nil, ErrSessionNotFound
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty chat message", ErrInvalidAction)
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	s.touch()
	return []Event{{
		Kind: EventChatMessage,
		Payload: ChatMessagePayload{
			MessageID: uuid.NewString(),
			UserID:    userID,
			Text:      text,
		},
	}}, nil
}

// AutoAct performs the deterministic timeout fallback for an unresponsive
// player: in trick play the current seat plays its lowest legal card, in
// the passing phase every seat that has not staged passes its three
// highest cards. Documented policy, see the session tests.
func (s *Session) AutoAct() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.game
	switch g.Phase {
	case domain.PhasePlaying:
		player := g.PlayerAtSeat(g.CurrentTurnSeat)
		if player == nil {
			return nil, fmt.Errorf("%w: no current player", ErrInvalidAction)
		}
		legal := domain.LegalPlays(player.Hand, g.CurrentTrick, g.HeartsBroken, g.FirstTrick)
		return s.playCardLocked(player, domain.LowestCard(legal))
	case domain.PhasePassing:
		var events []Event
		for seat := 0; seat < 4; seat++ {
			if _, staged := g.StagedPasses[seat]; staged {
				continue
			}
			player := g.PlayerAtSeat(seat)
			g.StagedPasses[seat] = domain.HighestCards(player.Hand, 3)
		}
		s.touch()
		if len(g.StagedPasses) == 4 {
			events = append(events, s.exchangeLocked()...)
		}
		return events, nil
	default:
		return nil, fmt.Errorf("%w: nothing to auto-play in phase %s", ErrInvalidAction, g.Phase)
	}
}

// Inspect runs fn against the live game state under the session lock.
// It exists for read-only consumers such as bot strategies; fn must not
// mutate the state or retain references past the call.
func (s *Session) Inspect(fn func(*domain.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
}

// Snapshot returns the read-only resync projection for one player.
func (s *Session) Snapshot(userID string) SnapshotPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID)
}

func (s *Session) snapshotLocked(userID string) SnapshotPayload {
	g := s.game
	snap := SnapshotPayload{
		GameID:          s.ID,
		Code:            s.Code,
		Phase:           g.Phase,
		Round:           g.Round,
		Direction:       g.PassDirection,
		HeartsBroken:    g.HeartsBroken,
		CurrentTurnSeat: g.CurrentTurnSeat,
		Trick:           append([]domain.TrickEntry{}, g.CurrentTrick...),
		Players:         s.playerListLocked(),
	}
	if player, ok := g.Players[userID]; ok {
		snap.Hand = domain.SortedHand(player.Hand)
		_, snap.PassStaged = g.StagedPasses[player.Seat]
	}
	return snap
}

func (s *Session) playerListLocked() []PlayerInfo {
	players := make([]PlayerInfo, 0, 4)
	for seat := 0; seat < 4; seat++ {
		if player := s.game.PlayerAtSeat(seat); player != nil {
			players = append(players, s.playerInfoLocked(player))
		}
	}
	return players
}

func (s *Session) playerInfoLocked(player *domain.Player) PlayerInfo {
	return PlayerInfo{
		UserID:      player.UserID,
		DisplayName: player.DisplayName,
		AvatarURL:   player.AvatarURL,
		Seat:        player.Seat,
		IsHost:      player.IsHost,
		IsReady:     player.IsReady,
		HandCount:   len(player.Hand),
		Score:       s.game.Scores[player.Seat],
		RoundPoints: s.game.RoundTallies[player.Seat].Points(),
	}
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}
