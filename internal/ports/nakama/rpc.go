package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"hearts/internal/app"
	"hearts/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// rpcHandlers binds the RPC endpoints to the shared registry.
type rpcHandlers struct {
	registry *app.Registry
	cfg      *config.GameConfig
}

// RegisterRPCs registers the Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, registry *app.Registry, cfg *config.GameConfig) error {
	h := &rpcHandlers{registry: registry, cfg: cfg}

	if err := initializer.RegisterRpc(RpcCreateGame, h.rpcCreateGame); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinGame, h.rpcJoinGame); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcQuickMatch, h.rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVoiceToken, rpcVoiceToken)
}

// CreateGameRequest selects the stakes tier for a private table.
type CreateGameRequest struct {
	Tier string `json:"tier"`
}

// CreateGameResponse carries the match id and shareable join code.
type CreateGameResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
}

func (h *rpcHandlers) rpcCreateGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req CreateGameRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	code := h.registry.NewCode()
	matchID, err := nk.MatchCreate(ctx, MatchNameHearts, map[string]interface{}{
		"code": code,
		"tier": req.Tier,
	})
	if err != nil {
		logger.Error("rpcCreateGame [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("failed to create match", 13) // INTERNAL
	}

	logger.Info("rpcCreateGame [User:%s]: Created match %s with code %s", userID, matchID, code)
	b, _ := json.Marshal(CreateGameResponse{MatchID: matchID, Code: code})
	return string(b), nil
}

// JoinGameRequest resolves a join code shared out of band.
type JoinGameRequest struct {
	Code string `json:"code"`
}

// JoinGameResponse carries the match id to connect to.
type JoinGameResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
}

func (h *rpcHandlers) rpcJoinGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req JoinGameRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", runtime.NewError("code required", 3)
	}

	session, err := h.registry.Lookup(code)
	if err != nil {
		return "", runtime.NewError(app.ErrorCode(err), 5) // NOT_FOUND
	}
	if err := session.CanJoin(userID); err != nil {
		return "", runtime.NewError(app.ErrorCode(err), 9) // FAILED_PRECONDITION
	}

	// The registry validates admission; the match id still comes from the
	// label index since the session does not know its own match.
	query := fmt.Sprintf("+label.game:hearts +label.code:%s", code)
	limit := 1
	authoritative := true
	minSize := 0
	maxSize := 4
	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcJoinGame [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("failed to resolve match", 13)
	}
	if len(matches) == 0 {
		return "", runtime.NewError(app.ErrorCode(app.ErrSessionNotFound), 5)
	}

	b, _ := json.Marshal(JoinGameResponse{MatchID: matches[0].MatchId, Code: code})
	return string(b), nil
}

// QuickMatchResponse is returned to clients looking for any open lobby.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

func (h *rpcHandlers) rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Find any open Hearts lobby that is still waiting for players.
	query := "+label.game:hearts +label.phase:waiting +label.open:>=1"

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := 3 // ensure a seat remains

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch: MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		b, _ := json.Marshal(QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
		return string(b), nil
	}

	// No open lobby; create one. Seat assignment happens in MatchJoin,
	// server-authoritative.
	matchID, err := nk.MatchCreate(ctx, MatchNameHearts, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch: MatchCreate error: %v", err)
		return "", err
	}

	b, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: true})
	return string(b), nil
}
