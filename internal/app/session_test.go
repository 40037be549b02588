package app

import (
	"errors"
	"math/rand"
	"testing"

	"hearts/internal/domain"
)

func card(suit domain.Suit, rank int) domain.Card {
	return domain.Card{Suit: suit, Rank: rank}
}

func testProfiles() []Profile {
	return []Profile{
		{UserID: "u0", DisplayName: "Ada"},
		{UserID: "u1", DisplayName: "Ben"},
		{UserID: "u2", DisplayName: "Cleo"},
		{UserID: "u3", DisplayName: "Dev"},
	}
}

// newLobbySession returns a session with four seated, ready players.
func newLobbySession(t *testing.T, seed int64) *Session {
	t.Helper()
	s := NewSession("game-1", "ABC234", rand.New(rand.NewSource(seed)), Stakes{})
	for i, p := range testProfiles() {
		seat, _, err := s.Join(p)
		if err != nil {
			t.Fatalf("join %s: %v", p.UserID, err)
		}
		if seat != i {
			t.Fatalf("join %s seat = %d, want %d", p.UserID, seat, i)
		}
		if _, err := s.SetReady(p.UserID, true); err != nil {
			t.Fatalf("ready %s: %v", p.UserID, err)
		}
	}
	return s
}

// setPlayingState overwrites the dealt state with fixed hands for rule tests.
func setPlayingState(s *Session, hands [4][]domain.Card, turnSeat int, firstTrick, heartsBroken bool) {
	g := s.game
	g.Phase = domain.PhasePlaying
	g.FirstTrick = firstTrick
	g.HeartsBroken = heartsBroken
	g.CurrentTrick = nil
	g.CurrentTurnSeat = turnSeat
	g.TricksPlayed = 0
	g.TrickWinners = nil
	g.RoundTallies = [4]domain.RoundTally{}
	for seat := 0; seat < 4; seat++ {
		g.PlayerAtSeat(seat).Hand = append([]domain.Card{}, hands[seat]...)
	}
}

func TestJoinSeatsHostAtSeatZero(t *testing.T) {
	s := NewSession("game-1", "ABC234", rand.New(rand.NewSource(1)), Stakes{})

	seat, events, err := s.Join(Profile{UserID: "u0", DisplayName: "Ada"})
	if err != nil || seat != 0 {
		t.Fatalf("Join() = (%d, %v), want seat 0", seat, err)
	}
	created := false
	for _, ev := range events {
		if ev.Kind == EventGameCreated {
			created = true
			if len(ev.Recipients) != 1 || ev.Recipients[0] != "u0" {
				t.Fatalf("game created recipients = %v, want [u0]", ev.Recipients)
			}
		}
	}
	if !created {
		t.Fatal("expected game_created event for the host")
	}
	if s.game.HostUserID != "u0" {
		t.Fatalf("host = %q, want u0", s.game.HostUserID)
	}
}

func TestJoinRejectsFifthPlayer(t *testing.T) {
	s := newLobbySession(t, 1)
	if _, _, err := s.Join(Profile{UserID: "u4"}); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("Join() err = %v, want ErrSessionFull", err)
	}
}

func TestJoinExistingPlayerResyncs(t *testing.T) {
	s := newLobbySession(t, 1)
	seat, events, err := s.Join(Profile{UserID: "u2", DisplayName: "Cleo"})
	if err != nil {
		t.Fatalf("rejoin error: %v", err)
	}
	if seat != 2 {
		t.Fatalf("rejoin seat = %d, want 2", seat)
	}
	if len(events) != 1 || len(events[0].Recipients) != 1 || events[0].Recipients[0] != "u2" {
		t.Fatalf("rejoin should emit one private resync event, got %+v", events)
	}
}

func TestStartValidation(t *testing.T) {
	s := NewSession("game-1", "ABC234", rand.New(rand.NewSource(1)), Stakes{})
	profiles := testProfiles()
	for _, p := range profiles[:3] {
		if _, _, err := s.Join(p); err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := s.SetReady(p.UserID, true); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}

	if _, err := s.Start("u0"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("Start() with 3 players err = %v, want ErrNotEnoughPlayers", err)
	}

	if _, _, err := s.Join(profiles[3]); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := s.Start("u0"); !errors.Is(err, ErrNotAllReady) {
		t.Fatalf("Start() with unready player err = %v, want ErrNotAllReady", err)
	}
	if _, err := s.SetReady("u3", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := s.Start("u1"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("Start() by non-host err = %v, want ErrInvalidAction", err)
	}
}

func TestStartDealsIntoPassingPhase(t *testing.T) {
	s := newLobbySession(t, 42)
	events, err := s.Start("u0")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if got := s.Phase(); got != domain.PhasePassing {
		t.Fatalf("phase = %s, want passing", got)
	}
	if s.game.Round != 1 || s.game.PassDirection != domain.PassLeft {
		t.Fatalf("round/direction = %d/%s, want 1/left", s.game.Round, s.game.PassDirection)
	}

	dealt := 0
	seen := make(map[domain.Card]bool, 52)
	for _, ev := range events {
		if ev.Kind != EventCardsDealt {
			continue
		}
		dealt++
		payload := ev.Payload.(CardsDealtPayload)
		if len(payload.Hand) != 13 {
			t.Fatalf("hand size = %d, want 13", len(payload.Hand))
		}
		if len(ev.Recipients) != 1 {
			t.Fatalf("cards_dealt must be private, recipients = %v", ev.Recipients)
		}
		for _, c := range payload.Hand {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	if dealt != 4 || len(seen) != 52 {
		t.Fatalf("dealt %d hands, %d cards; want 4 hands covering 52 cards", dealt, len(seen))
	}
}

func TestPassValidation(t *testing.T) {
	s := newLobbySession(t, 42)
	if _, err := s.PassCards("u0", nil); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("PassCards() before start err = %v, want ErrInvalidAction", err)
	}
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	hand := s.game.Players["u0"].Hand
	if _, err := s.PassCards("u0", hand[:2]); !errors.Is(err, ErrInvalidCardCount) {
		t.Fatalf("PassCards() with 2 cards err = %v, want ErrInvalidCardCount", err)
	}
	dup := []domain.Card{hand[0], hand[0], hand[1]}
	if _, err := s.PassCards("u0", dup); !errors.Is(err, ErrInvalidCardCount) {
		t.Fatalf("PassCards() with duplicates err = %v, want ErrInvalidCardCount", err)
	}

	foreign := s.game.Players["u1"].Hand[0]
	bad := []domain.Card{hand[0], hand[1], foreign}
	if _, err := s.PassCards("u0", bad); !errors.Is(err, ErrCardNotOwned) {
		t.Fatalf("PassCards() with unowned card err = %v, want ErrCardNotOwned", err)
	}

	if _, err := s.PassCards("u0", hand[:3]); err != nil {
		t.Fatalf("PassCards() error: %v", err)
	}
	if _, err := s.PassCards("u0", hand[3:6]); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("second PassCards() err = %v, want ErrInvalidAction", err)
	}
}

func TestPassExchangeLeft(t *testing.T) {
	s := newLobbySession(t, 42)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	staged := make(map[int][]domain.Card, 4)
	profiles := testProfiles()
	var exchangeEvents []Event
	for seat, p := range profiles {
		hand := s.game.Players[p.UserID].Hand
		selection := append([]domain.Card{}, hand[:3]...)
		staged[seat] = selection
		events, err := s.PassCards(p.UserID, selection)
		if err != nil {
			t.Fatalf("PassCards(%s): %v", p.UserID, err)
		}
		if seat < 3 && len(events) != 0 {
			t.Fatalf("staging seat %d emitted %d events before exchange", seat, len(events))
		}
		exchangeEvents = events
	}

	if got := s.Phase(); got != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing after exchange", got)
	}

	for seat, p := range profiles {
		hand := s.game.Players[p.UserID].Hand
		if len(hand) != 13 {
			t.Fatalf("seat %d hand size = %d, want 13", seat, len(hand))
		}
		// Under left, seat n receives seat (n-1 mod 4)'s submission.
		from := (seat + 3) % 4
		for _, c := range staged[from] {
			if !domain.ContainsCard(hand, c) {
				t.Fatalf("seat %d missing %v passed from seat %d", seat, c, from)
			}
		}
		for _, c := range staged[seat] {
			if domain.ContainsCard(hand, c) {
				t.Fatalf("seat %d still holds passed card %v", seat, c)
			}
		}
	}

	received := 0
	for _, ev := range exchangeEvents {
		if ev.Kind == EventCardsReceived {
			received++
			if len(ev.Recipients) != 1 {
				t.Fatalf("cards_received must be private, recipients = %v", ev.Recipients)
			}
		}
	}
	if received != 4 {
		t.Fatalf("cards_received events = %d, want 4", received)
	}

	// The two of clubs holder leads the first trick.
	leader := s.game.CurrentTurnSeat
	if !domain.ContainsCard(s.game.PlayerAtSeat(leader).Hand, domain.TwoOfClubs) {
		t.Fatalf("seat %d leads but does not hold the two of clubs", leader)
	}
}

func TestFirstTrickOpeningRules(t *testing.T) {
	s := newLobbySession(t, 7)
	hands := [4][]domain.Card{
		{card(domain.SuitClubs, 2), card(domain.SuitHearts, 5), card(domain.SuitDiamonds, 9)},
		{card(domain.SuitClubs, domain.RankKing), card(domain.SuitHearts, 3), card(domain.SuitSpades, 4)},
		{card(domain.SuitClubs, domain.RankAce), card(domain.SuitDiamonds, 2), card(domain.SuitSpades, 5)},
		{card(domain.SuitSpades, domain.RankQueen), card(domain.SuitDiamonds, 7), card(domain.SuitSpades, 6)},
	}
	setPlayingState(s, hands, 0, true, false)

	// The two of clubs must be led when held.
	if _, err := s.PlayCard("u0", card(domain.SuitDiamonds, 9)); !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("opening off the two of clubs err = %v, want ErrIllegalMove", err)
	}
	if _, err := s.PlayCard("u0", domain.TwoOfClubs); err != nil {
		t.Fatalf("leading the two of clubs: %v", err)
	}

	// Following with hearts while holding the lead suit is illegal.
	if _, err := s.PlayCard("u1", card(domain.SuitHearts, 3)); !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("heart while holding clubs err = %v, want ErrIllegalMove", err)
	}
}

func TestOpeningLeadWithoutTwoOfClubs(t *testing.T) {
	s := newLobbySession(t, 7)
	hands := [4][]domain.Card{
		{card(domain.SuitHearts, 5), card(domain.SuitDiamonds, 9), card(domain.SuitDiamonds, 3)},
		{card(domain.SuitClubs, domain.RankKing), card(domain.SuitHearts, 3), card(domain.SuitSpades, 4)},
		{card(domain.SuitClubs, domain.RankAce), card(domain.SuitDiamonds, 2), card(domain.SuitSpades, 5)},
		{card(domain.SuitSpades, domain.RankQueen), card(domain.SuitDiamonds, 7), card(domain.SuitSpades, 6)},
	}
	setPlayingState(s, hands, 0, true, false)

	// Opening with a heart while non-hearts are available is rejected.
	if _, err := s.PlayCard("u0", card(domain.SuitHearts, 5)); !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("heart opening err = %v, want ErrIllegalMove", err)
	}
	// The deterministic fallback opens with the lowest safe card.
	events, err := s.AutoAct()
	if err != nil {
		t.Fatalf("AutoAct() error: %v", err)
	}
	played := events[0].Payload.(CardPlayedPayload)
	if played.Card != card(domain.SuitDiamonds, 3) {
		t.Fatalf("auto-play opened %v, want 3D", played.Card)
	}
}

func TestTrickResolutionWithQueenOfSpades(t *testing.T) {
	s := newLobbySession(t, 7)
	hands := [4][]domain.Card{
		{card(domain.SuitClubs, 2), card(domain.SuitHearts, 5)},
		{card(domain.SuitClubs, domain.RankKing), card(domain.SuitHearts, 3)},
		{card(domain.SuitClubs, domain.RankAce), card(domain.SuitDiamonds, 2)},
		{card(domain.SuitSpades, domain.RankQueen), card(domain.SuitDiamonds, 7)},
	}
	setPlayingState(s, hands, 0, false, false)

	plays := []struct {
		user string
		card domain.Card
	}{
		{"u0", card(domain.SuitClubs, 2)},
		{"u1", card(domain.SuitClubs, domain.RankKing)},
		{"u2", card(domain.SuitClubs, domain.RankAce)},
		{"u3", card(domain.SuitSpades, domain.RankQueen)},
	}

	var last []Event
	for _, play := range plays {
		events, err := s.PlayCard(play.user, play.card)
		if err != nil {
			t.Fatalf("PlayCard(%s, %v): %v", play.user, play.card, err)
		}
		last = events
	}

	var complete *TrickCompletePayload
	for _, ev := range last {
		if ev.Kind == EventTrickComplete {
			payload := ev.Payload.(TrickCompletePayload)
			complete = &payload
		}
	}
	if complete == nil {
		t.Fatal("expected trick_complete event")
	}
	if complete.WinnerSeat != 2 || complete.Points != 13 {
		t.Fatalf("trick resolved (%d, %d), want seat 2 with 13 points", complete.WinnerSeat, complete.Points)
	}
	if s.game.HeartsBroken {
		t.Fatal("hearts must remain unbroken, no heart was played")
	}
	if s.game.CurrentTurnSeat != 2 {
		t.Fatalf("trick winner should lead next, turn = %d", s.game.CurrentTurnSeat)
	}
}

func TestDuplicatePlayRejectedStateUnchanged(t *testing.T) {
	s := newLobbySession(t, 7)
	hands := [4][]domain.Card{
		{card(domain.SuitClubs, 5), card(domain.SuitDiamonds, 5)},
		{card(domain.SuitClubs, domain.RankKing), card(domain.SuitHearts, 3)},
		{card(domain.SuitClubs, domain.RankAce), card(domain.SuitDiamonds, 2)},
		{card(domain.SuitSpades, domain.RankQueen), card(domain.SuitDiamonds, 7)},
	}
	setPlayingState(s, hands, 0, false, false)

	if _, err := s.PlayCard("u0", card(domain.SuitClubs, 5)); err != nil {
		t.Fatalf("first play: %v", err)
	}
	if _, err := s.PlayCard("u0", card(domain.SuitClubs, 5)); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("replayed action err = %v, want ErrInvalidAction", err)
	}
	if len(s.game.CurrentTrick) != 1 {
		t.Fatalf("trick length = %d after rejected replay, want 1", len(s.game.CurrentTrick))
	}
	if s.game.CurrentTurnSeat != 1 {
		t.Fatalf("turn = %d after rejected replay, want 1", s.game.CurrentTurnSeat)
	}
}

func TestHeartsBrokenIsMonotonicWithinRound(t *testing.T) {
	s := newLobbySession(t, 7)
	hands := [4][]domain.Card{
		{card(domain.SuitClubs, 5), card(domain.SuitHearts, 9)},
		{card(domain.SuitHearts, 3), card(domain.SuitDiamonds, 4)},
		{card(domain.SuitClubs, domain.RankAce), card(domain.SuitHearts, 2)},
		{card(domain.SuitClubs, 7), card(domain.SuitHearts, domain.RankKing)},
	}
	setPlayingState(s, hands, 0, false, false)

	mustPlay := func(user string, c domain.Card) {
		t.Helper()
		if _, err := s.PlayCard(user, c); err != nil {
			t.Fatalf("PlayCard(%s, %v): %v", user, c, err)
		}
	}

	mustPlay("u0", card(domain.SuitClubs, 5))
	mustPlay("u1", card(domain.SuitHearts, 3)) // void in clubs, breaks hearts
	if !s.game.HeartsBroken {
		t.Fatal("hearts should break on the off-suit heart")
	}
	mustPlay("u2", card(domain.SuitClubs, domain.RankAce))
	mustPlay("u3", card(domain.SuitClubs, 7))

	// Winner u2 may now lead a heart.
	if s.game.CurrentTurnSeat != 2 {
		t.Fatalf("turn = %d, want 2", s.game.CurrentTurnSeat)
	}
	mustPlay("u2", card(domain.SuitHearts, 2))
	if !s.game.HeartsBroken {
		t.Fatal("hearts broken flag must stay set within the round")
	}
}

// playOutRound drives a started session to round completion via the
// deterministic auto-play path and checks card conservation on the way.
func playOutRound(t *testing.T, s *Session) []Event {
	t.Helper()
	if s.Phase() == domain.PhasePassing {
		if _, err := s.AutoAct(); err != nil {
			t.Fatalf("auto pass: %v", err)
		}
	}
	var last []Event
	for steps := 0; s.Phase() == domain.PhasePlaying; steps++ {
		if steps > 52 {
			t.Fatal("round did not terminate")
		}
		inHands := 0
		for _, p := range s.game.Players {
			inHands += len(p.Hand)
		}
		played := s.game.TricksPlayed*4 + len(s.game.CurrentTrick)
		if inHands+played != 52 {
			t.Fatalf("card conservation violated: %d in hands + %d played", inHands, played)
		}
		events, err := s.AutoAct()
		if err != nil {
			t.Fatalf("auto play: %v", err)
		}
		last = events
	}
	return last
}

func TestFullRoundScoresSumTo26(t *testing.T) {
	s := newLobbySession(t, 11)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	events := playOutRound(t, s)

	var round *RoundCompletePayload
	for _, ev := range events {
		if ev.Kind == EventRoundComplete {
			payload := ev.Payload.(RoundCompletePayload)
			round = &payload
		}
	}
	if round == nil {
		t.Fatal("expected round_complete event")
	}
	total := 0
	for _, score := range round.Scores {
		total += score.RoundPoints
	}
	if total != 26 && total != 78 {
		t.Fatalf("round points total = %d, want 26 (or 78 on a moon shot)", total)
	}
	if s.game.TricksPlayed != 13 {
		t.Fatalf("tricks played = %d, want 13", s.game.TricksPlayed)
	}
}

func TestAdvanceRoundRotatesDirectionAndSkipsPassingOnNone(t *testing.T) {
	s := newLobbySession(t, 11)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	wantDirections := []domain.PassDirection{domain.PassRight, domain.PassAcross, domain.PassNone, domain.PassLeft}
	for _, want := range wantDirections {
		playOutRound(t, s)
		if s.Phase() == domain.PhaseGameOver {
			t.Skip("game ended before the rotation completed under this seed")
		}
		if s.Phase() != domain.PhaseRoundOver {
			t.Fatalf("phase = %s, want round_over", s.Phase())
		}
		if _, err := s.AdvanceRound(); err != nil {
			t.Fatalf("AdvanceRound(): %v", err)
		}
		if s.game.PassDirection != want {
			t.Fatalf("direction = %s, want %s", s.game.PassDirection, want)
		}
		if want == domain.PassNone {
			if s.Phase() != domain.PhasePlaying {
				t.Fatalf("no-pass round phase = %s, want playing", s.Phase())
			}
		} else if s.Phase() != domain.PhasePassing {
			t.Fatalf("phase = %s, want passing", s.Phase())
		}
	}
}

func TestGameOverPicksLowestScore(t *testing.T) {
	s := newLobbySession(t, 11)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Craft the final round: seat 0 crosses 100, seat 1 holds the minimum.
	s.game.Phase = domain.PhasePlaying
	s.game.TricksPlayed = domain.TricksPerRound
	s.game.Scores = [4]int{91, 60, 67, 75}
	s.game.RoundTallies = [4]domain.RoundTally{
		{Hearts: 13}, {}, {QueenOfSpades: true}, {},
	}
	events := s.endRoundLocked()

	if s.game.Phase != domain.PhaseGameOver {
		t.Fatalf("phase = %s, want game_over", s.game.Phase)
	}
	if s.game.Scores != [4]int{104, 60, 80, 75} {
		t.Fatalf("scores = %v, want [104 60 80 75]", s.game.Scores)
	}

	var over *GameOverPayload
	for _, ev := range events {
		if ev.Kind == EventGameOver {
			payload := ev.Payload.(GameOverPayload)
			over = &payload
		}
	}
	if over == nil {
		t.Fatal("expected game_over event")
	}
	if len(over.WinnerUserIDs) != 1 || over.WinnerUserIDs[0] != "u1" {
		t.Fatalf("winners = %v, want [u1]", over.WinnerUserIDs)
	}

	// Terminal session accepts no further play.
	if _, err := s.PlayCard("u1", card(domain.SuitClubs, 2)); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("play after game over err = %v, want ErrInvalidAction", err)
	}
}

func TestShootTheMoonScoring(t *testing.T) {
	s := newLobbySession(t, 11)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.game.Phase = domain.PhasePlaying
	s.game.TricksPlayed = domain.TricksPerRound
	s.game.Scores = [4]int{10, 20, 30, 40}
	s.game.RoundTallies = [4]domain.RoundTally{
		{}, {Hearts: 13, QueenOfSpades: true}, {}, {},
	}
	s.endRoundLocked()

	if s.game.Scores != [4]int{36, 20, 56, 66} {
		t.Fatalf("scores after moon shot = %v, want [36 20 56 66]", s.game.Scores)
	}
}

func TestSettlementSplitsPotAmongWinners(t *testing.T) {
	s := NewSession("game-1", "ABC234", rand.New(rand.NewSource(3)), Stakes{BaseBet: 100, Rake: 0.1})
	for _, p := range testProfiles() {
		if _, _, err := s.Join(p); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	changes := s.settlementLocked(map[int]bool{1: true})
	if changes["u1"] != 260 {
		t.Fatalf("winner change = %d, want +260", changes["u1"])
	}
	for _, loser := range []string{"u0", "u2", "u3"} {
		if changes[loser] != -100 {
			t.Fatalf("%s change = %d, want -100", loser, changes[loser])
		}
	}

	split := s.settlementLocked(map[int]bool{0: true, 2: true})
	if split["u0"] != 80 || split["u2"] != 80 {
		t.Fatalf("split changes = %v, want +80 for both winners", split)
	}
}

func TestLeaveMidRoundAbandonsSession(t *testing.T) {
	s := newLobbySession(t, 13)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	events, err := s.Leave("u2")
	if err != nil {
		t.Fatalf("Leave(): %v", err)
	}
	if s.Phase() != domain.PhaseAbandoned {
		t.Fatalf("phase = %s, want abandoned", s.Phase())
	}
	abandoned := false
	for _, ev := range events {
		if ev.Kind == EventAbandoned {
			abandoned = true
		}
	}
	if !abandoned {
		t.Fatal("expected abandoned event")
	}
	if _, err := s.PassCards("u0", nil); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("action on abandoned session err = %v, want ErrInvalidAction", err)
	}
}

func TestLeaveInLobbyReassignsHost(t *testing.T) {
	s := newLobbySession(t, 13)
	if _, err := s.Leave("u0"); err != nil {
		t.Fatalf("Leave(): %v", err)
	}
	if s.Phase() != domain.PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", s.Phase())
	}
	if s.game.HostUserID != "u1" {
		t.Fatalf("host = %q, want u1", s.game.HostUserID)
	}
	if !s.game.Players["u1"].IsHost {
		t.Fatal("u1 should be flagged as host")
	}
}

func TestChatRelaysWithoutInterpreting(t *testing.T) {
	s := newLobbySession(t, 13)
	events, err := s.Chat("u1", "gl hf")
	if err != nil {
		t.Fatalf("Chat(): %v", err)
	}
	payload := events[0].Payload.(ChatMessagePayload)
	if payload.Text != "gl hf" || payload.UserID != "u1" || payload.MessageID == "" {
		t.Fatalf("chat payload = %+v", payload)
	}
	if _, err := s.Chat("u1", ""); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("empty chat err = %v, want ErrInvalidAction", err)
	}
	if _, err := s.Chat("ghost", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("chat from stranger err = %v, want ErrSessionNotFound", err)
	}
}

func TestAutoActStagesThreeHighestForLaggards(t *testing.T) {
	s := newLobbySession(t, 42)
	if _, err := s.Start("u0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	hand := s.game.Players["u0"].Hand
	if _, err := s.PassCards("u0", hand[:3]); err != nil {
		t.Fatalf("pass: %v", err)
	}

	u1Highest := domain.HighestCards(s.game.Players["u1"].Hand, 3)
	if _, err := s.AutoAct(); err != nil {
		t.Fatalf("AutoAct(): %v", err)
	}
	if s.Phase() != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing after forced exchange", s.Phase())
	}
	// u1's three highest cards went to seat 2 under left.
	for _, c := range u1Highest {
		if !domain.ContainsCard(s.game.Players["u2"].Hand, c) {
			t.Fatalf("seat 2 missing auto-passed card %v", c)
		}
	}
}
