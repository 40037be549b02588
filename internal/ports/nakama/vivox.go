package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"hearts/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// VoiceTokenRequest asks for a Vivox token. Action "login" signs the voice
// session itself, "join" signs entry into a table's positional channel.
type VoiceTokenRequest struct {
	Action   string `json:"action"`
	GameCode string `json:"game_code"`
}

// VoiceTokenResponse carries the signed token and the channel it targets.
type VoiceTokenResponse struct {
	Token   string `json:"token"`
	Channel string `json:"channel,omitempty"`
}

// rpcVoiceToken signs Vivox access tokens for authenticated players.
// Credentials come from the runtime environment.
func rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}

	var req VoiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env["hearts_vivox_secret"]
	issuer := env["hearts_vivox_issuer"]
	voiceDomain := env["hearts_vivox_domain"]
	if secret == "" || issuer == "" {
		secret = "test-secret"
		issuer = "test-issuer"
		logger.Warn("rpcVoiceToken: Vivox credentials missing from env, using test defaults.")
	}
	if voiceDomain == "" {
		voiceDomain = "tla.vivox.com"
	}

	voice := app.NewVoiceService(secret, issuer, voiceDomain)

	var token string
	var channel string
	var err error
	switch req.Action {
	case "login":
		token, err = voice.LoginToken(userID)
	case "join":
		if req.GameCode == "" {
			return "", runtime.NewError("game_code required for join", 3)
		}
		token, err = voice.TableJoinToken(userID, req.GameCode)
		channel = voice.ChannelName(req.GameCode)
	default:
		return "", runtime.NewError("unknown action", 3)
	}
	if err != nil {
		logger.Error("rpcVoiceToken: Failed to sign token: %v", err)
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}

	b, _ := json.Marshal(VoiceTokenResponse{Token: token, Channel: channel})
	return string(b), nil
}
