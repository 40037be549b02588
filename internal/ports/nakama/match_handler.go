package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"hearts/internal/app"
	"hearts/internal/bot"
	"hearts/internal/config"
	"hearts/internal/domain"
	"hearts/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// tickRate is ticks per second; timer fields below count ticks, so with a
// rate of 1 they read as seconds.
const tickRate = 1

// terminateGraceTicks keeps a finished match addressable long enough for
// clients to fetch the final state before the handler returns nil.
const terminateGraceTicks = 30

// MatchState holds the per-match runtime state. The session owns all game
// semantics; this layer owns presences, timers and bot agents.
type MatchState struct {
	Session   *app.Session
	Presences map[string]runtime.Presence
	Cfg       *config.GameConfig
	Bots      map[string]*bot.Agent
	Economy   ports.EconomyPort

	Tick int64

	// TurnDeadlineTick fires the idle auto-play; 0 means unarmed.
	TurnDeadlineTick int64
	// PassDeadlineTick auto-passes laggards in the passing phase.
	PassDeadlineTick int64
	// RoundAdvanceTick ends the between-rounds score display.
	RoundAdvanceTick int64
	// LonePlayerSinceTick starts the bot auto-fill countdown.
	LonePlayerSinceTick int64
	// BotActTick delays bot actions so they read as human.
	BotActTick int64
	// TerminateAtTick schedules handler shutdown after terminal phases.
	TerminateAtTick int64

	rng *rand.Rand
}

// HumanSeatedCount counts connected humans that hold a seat.
func (ms *MatchState) HumanSeatedCount() int {
	count := 0
	for userID := range ms.Presences {
		if !bot.IsBot(userID) && ms.Session.SeatOf(userID) >= 0 {
			count++
		}
	}
	return count
}

type matchHandler struct {
	registry *app.Registry
	cfg      *config.GameConfig
}

// NewMatch is the factory registered with Nakama. Each handler shares the
// module-wide registry so RPCs can resolve join codes.
func NewMatch(registry *app.Registry, cfg *config.GameConfig) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{registry: registry, cfg: cfg}, nil
	}
}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}

	code, _ := params["code"].(string)
	if code == "" {
		code = mh.registry.NewCode()
	}
	tier, _ := params["tier"].(string)

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if matchID == "" {
		matchID = uuid.NewString()
	}

	stakes := app.Stakes{BaseBet: mh.cfg.BaseBet(tier), Rake: mh.cfg.RakeRate}
	session := app.NewSession(matchID, code, nil, stakes)
	if err := mh.registry.Register(session); err != nil {
		logger.Error("MatchInit: Failed to register session code %s: %v", code, err)
		return nil, 0, ""
	}

	state := &MatchState{
		Session:   session,
		Presences: make(map[string]runtime.Presence),
		Cfg:       mh.cfg,
		Bots:      make(map[string]*bot.Agent),
		Economy:   NewNakamaEconomyAdapter(nk),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	logger.Info("MatchInit: Hearts table %s ready with code %s", matchID, code)
	return state, tickRate, mh.label(state).String()
}

func (mh *matchHandler) label(state *MatchState) MatchLabel {
	return MatchLabel{
		Open:  4 - state.Session.SeatedCount(),
		Game:  "hearts",
		Phase: string(state.Session.Phase()),
		Code:  state.Session.Code,
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(mh.label(state).String()); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if _, connected := matchState.Presences[userID]; connected {
		return state, false, app.ErrorCode(app.ErrDuplicateJoin)
	}
	if err := matchState.Session.CanJoin(userID); err != nil {
		// A bot seat can still make way for a human before the game starts.
		if errors.Is(err, app.ErrSessionFull) && matchState.canEvictBot() {
			return state, true, ""
		}
		return state, false, app.ErrorCode(err)
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		if matchState.Session.SeatOf(p.GetUserId()) < 0 &&
			matchState.Session.SeatedCount() >= 4 && matchState.canEvictBot() {
			mh.evictBot(ctx, matchState, dispatcher, logger)
		}

		_, events, err := matchState.Session.Join(app.Profile{
			UserID:      p.GetUserId(),
			DisplayName: p.GetUsername(),
		})
		if err != nil {
			logger.Warn("MatchJoin: User %s could not be seated: %v", p.GetUserId(), err)
			mh.sendError(matchState, dispatcher, logger, p.GetUserId(), err)
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)

		// Every joiner gets a private state snapshot so reconnects and
		// late lobby joins render from the same projection.
		mh.sendSnapshot(matchState, dispatcher, logger, p.GetUserId())
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		events, err := matchState.Session.Leave(p.GetUserId())
		if err != nil {
			logger.Warn("MatchLeave: User %s not seated: %v", p.GetUserId(), err)
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.HumanSeatedCount() == 0 {
		logger.Info("MatchLeave: No humans remain, terminating match.")
		mh.registry.Remove(matchState.Session.Code)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg)
	}

	mh.processTimers(ctx, matchState, dispatcher, logger)
	mh.processBots(ctx, matchState, dispatcher, logger)

	if matchState.TerminateAtTick > 0 && tick >= matchState.TerminateAtTick {
		logger.Info("MatchLoop: Match %s finished, shutting down.", matchState.Session.ID)
		mh.registry.Remove(matchState.Session.Code)
		return nil
	}
	return matchState
}

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var events []app.Event
	var err error

	switch msg.GetOpCode() {
	case OpSetReady:
		var req SetReadyRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.Session.SetReady(senderID, req.Ready)
		}
	case OpStartGame:
		events, err = state.Session.Start(senderID)
	case OpPassCards:
		var req PassCardsRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.Session.PassCards(senderID, req.Cards)
		}
	case OpPlayCard:
		var req PlayCardRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.Session.PlayCard(senderID, req.Card)
		}
	case OpChat:
		var req ChatRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.Session.Chat(senderID, req.Text)
		}
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		return
	}

	if err != nil {
		logger.Warn("MatchLoop: op %d from %s rejected: %v", msg.GetOpCode(), senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

// processTimers drives the phase deadlines: idle-turn auto-play, passing
// auto-pass and the between-rounds advance.
func (mh *matchHandler) processTimers(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.TurnDeadlineTick > 0 && state.Tick >= state.TurnDeadlineTick {
		state.TurnDeadlineTick = 0
		if state.Session.Phase() == domain.PhasePlaying {
			events, err := state.Session.AutoAct()
			if err != nil {
				logger.Error("processTimers: Auto-play failed: %v", err)
			} else {
				logger.Info("processTimers: Turn timed out, auto-played for seat holder.")
				mh.dispatchEvents(ctx, state, dispatcher, logger, events)
			}
		}
	}

	if state.PassDeadlineTick > 0 && state.Tick >= state.PassDeadlineTick {
		state.PassDeadlineTick = 0
		if state.Session.Phase() == domain.PhasePassing {
			events, err := state.Session.AutoAct()
			if err != nil {
				logger.Error("processTimers: Auto-pass failed: %v", err)
			} else {
				logger.Info("processTimers: Passing timed out, auto-passed remaining seats.")
				mh.dispatchEvents(ctx, state, dispatcher, logger, events)
			}
		}
	}

	if state.RoundAdvanceTick > 0 && state.Tick >= state.RoundAdvanceTick {
		state.RoundAdvanceTick = 0
		if state.Session.Phase() == domain.PhaseRoundOver {
			events, err := state.Session.AdvanceRound()
			if err != nil {
				logger.Error("processTimers: Round advance failed: %v", err)
			} else {
				mh.dispatchEvents(ctx, state, dispatcher, logger, events)
				mh.updateLabel(state, dispatcher, logger)
			}
		}
	}
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.autofillBots(ctx, state, dispatcher, logger)

	phase := state.Session.Phase()
	switch phase {
	case domain.PhasePlaying:
		currentID := state.Session.CurrentTurnUserID()
		agent, isBot := state.Bots[currentID]
		if !isBot {
			state.BotActTick = 0
			return
		}
		if state.BotActTick == 0 {
			delay := state.rng.Intn(state.Cfg.BotMaxDelaySeconds-state.Cfg.BotMinDelaySeconds+1) + state.Cfg.BotMinDelaySeconds
			state.BotActTick = state.Tick + int64(delay)
			return
		}
		if state.Tick < state.BotActTick {
			return
		}
		state.BotActTick = 0

		seat := state.Session.SeatOf(currentID)
		var card domain.Card
		var err error
		state.Session.Inspect(func(g *domain.Game) {
			card, err = agent.ChoosePlay(g, seat)
		})
		if err != nil {
			logger.Error("processBots: Bot %s failed to choose a card: %v", currentID, err)
			return
		}
		events, err := state.Session.PlayCard(currentID, card)
		if err != nil {
			logger.Error("processBots: Bot %s played illegally: %v", currentID, err)
			return
		}
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	case domain.PhasePassing:
		if len(state.Bots) == 0 {
			return
		}
		if state.BotActTick == 0 {
			delay := state.rng.Intn(state.Cfg.BotMaxDelaySeconds-state.Cfg.BotMinDelaySeconds+1) + state.Cfg.BotMinDelaySeconds
			state.BotActTick = state.Tick + int64(delay)
			return
		}
		if state.Tick < state.BotActTick {
			return
		}
		state.BotActTick = 0

		for botID, agent := range state.Bots {
			if state.Session.Snapshot(botID).PassStaged {
				continue
			}
			var picks []domain.Card
			state.Session.Inspect(func(g *domain.Game) {
				picks = agent.ChoosePass(g, g.SeatOf(botID))
			})
			if len(picks) != 3 {
				continue
			}
			events, err := state.Session.PassCards(botID, picks)
			if err != nil {
				logger.Error("processBots: Bot %s failed to pass: %v", botID, err)
				continue
			}
			mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		}

	default:
		state.BotActTick = 0
	}
}

// canEvictBot reports whether a seated bot can give up its seat for a
// joining human. Only possible before the game starts.
func (ms *MatchState) canEvictBot() bool {
	return ms.Session.Phase() == domain.PhaseWaiting && len(ms.Bots) > 0
}

// evictBot removes one bot to free a seat for a human.
func (mh *matchHandler) evictBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for botID := range state.Bots {
		events, err := state.Session.Leave(botID)
		if err != nil {
			logger.Error("evictBot: Failed to unseat bot %s: %v", botID, err)
			return
		}
		delete(state.Bots, botID)
		logger.Info("evictBot: Bot %s gave up its seat for a human.", botID)
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		return
	}
}

// autofillBots seats bot players when humans have been waiting alone.
func (mh *matchHandler) autofillBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Session.Phase() != domain.PhaseWaiting || state.Session.SeatedCount() >= 4 {
		state.LonePlayerSinceTick = 0
		return
	}
	if state.HumanSeatedCount() == 0 {
		state.LonePlayerSinceTick = 0
		return
	}

	if state.LonePlayerSinceTick == 0 {
		state.LonePlayerSinceTick = state.Tick
		return
	}
	if state.Tick-state.LonePlayerSinceTick < int64(state.Cfg.BotAutoFillDelaySeconds) {
		return
	}
	state.LonePlayerSinceTick = 0

	for seat := state.Session.SeatedCount(); seat < 4; seat++ {
		identity := bot.GetBotIdentity(len(state.Bots))
		botID := identity.UserID

		_, events, err := state.Session.Join(app.Profile{
			UserID:      botID,
			DisplayName: identity.DisplayName,
		})
		if err != nil {
			logger.Error("autofillBots: Failed to seat bot %s: %v", botID, err)
			return
		}
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)

		readyEvents, err := state.Session.SetReady(botID, true)
		if err == nil {
			mh.dispatchEvents(ctx, state, dispatcher, logger, readyEvents)
		}

		state.Bots[botID] = &bot.Agent{
			ID:       botID,
			Name:     identity.DisplayName,
			Strategy: bot.NewBrain(bot.BotLevel(identity.Difficulty), state.rng),
		}
		logger.Info("autofillBots: Seated bot %s (%s)", identity.DisplayName, botID)
	}
	mh.updateLabel(state, dispatcher, logger)
}

// dispatchEvents broadcasts session events and applies their transport
// side effects: timer arming, label refresh and wallet settlement.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)

		switch ev.Kind {
		case app.EventGameStarted:
			mh.updateLabel(state, dispatcher, logger)
		case app.EventTurnChanged:
			state.TurnDeadlineTick = state.Tick + int64(state.Cfg.TurnDurationSeconds)
			state.PassDeadlineTick = 0
		case app.EventPassingPhase:
			state.PassDeadlineTick = state.Tick + int64(state.Cfg.PassDurationSeconds)
			state.TurnDeadlineTick = 0
			mh.updateLabel(state, dispatcher, logger)
		case app.EventRoundComplete:
			state.TurnDeadlineTick = 0
			if state.Session.Phase() == domain.PhaseRoundOver {
				state.RoundAdvanceTick = state.Tick + int64(state.Cfg.RoundIntervalSeconds)
				mh.updateLabel(state, dispatcher, logger)
			}
		case app.EventGameOver:
			state.TurnDeadlineTick = 0
			state.RoundAdvanceTick = 0
			state.TerminateAtTick = state.Tick + terminateGraceTicks
			mh.updateLabel(state, dispatcher, logger)
			if payload, ok := ev.Payload.(app.GameOverPayload); ok {
				mh.settle(ctx, state, logger, payload.BalanceChanges)
			}
		case app.EventAbandoned:
			state.TurnDeadlineTick = 0
			state.PassDeadlineTick = 0
			state.RoundAdvanceTick = 0
			state.TerminateAtTick = state.Tick + terminateGraceTicks
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

// settle applies end-of-game wallet changes, skipping bot seats.
func (mh *matchHandler) settle(ctx context.Context, state *MatchState, logger runtime.Logger, changes map[string]int64) {
	if len(changes) == 0 || state.Economy == nil {
		return
	}

	updates := make([]ports.WalletUpdate, 0, len(changes))
	for userID, amount := range changes {
		if bot.IsBot(userID) {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: userID,
			Amount: amount,
			Metadata: map[string]interface{}{
				"match_id": state.Session.ID,
				"reason":   "game_settlement",
			},
		})
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("settle: Failed to update balances: %v", err)
	}
}

// broadcastEvent maps one session event onto a Nakama broadcast.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, known := opCodeFor(ev.Kind)
	if !known {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// The intended recipients are disconnected or bots: private data
		// must never fall through to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventGameCreated:
		return OpGameCreated, true
	case app.EventPlayerJoined:
		return OpPlayerJoined, true
	case app.EventPlayerUpdated:
		return OpPlayerUpdated, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	case app.EventGameStarted:
		return OpGameStarted, true
	case app.EventCardsDealt:
		return OpCardsDealt, true
	case app.EventPassingPhase:
		return OpPassingPhase, true
	case app.EventCardsReceived:
		return OpCardsReceived, true
	case app.EventTurnChanged:
		return OpTurnChanged, true
	case app.EventCardPlayed:
		return OpCardPlayed, true
	case app.EventTrickComplete:
		return OpTrickComplete, true
	case app.EventRoundComplete:
		return OpRoundComplete, true
	case app.EventGameOver:
		return OpGameOver, true
	case app.EventChatMessage:
		return OpChatMessage, true
	case app.EventAbandoned:
		return OpAbandoned, true
	default:
		return 0, false
	}
}

// sendError reports a rejected action privately to its sender.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(GameErrorEvent{
		Code:    app.ErrorCode(cause),
		Message: cause.Error(),
	})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

// sendSnapshot delivers the private resync projection to one player.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(state.Session.Snapshot(userID))
	if err != nil {
		logger.Error("Failed to marshal snapshot for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send snapshot to %s: %v", userID, err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		mh.registry.Remove(matchState.Session.Code)
	}
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
