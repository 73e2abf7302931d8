package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"belote/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// voiceService is configured once from the runtime environment in InitModule.
var voiceService *app.VoiceService

type voiceTokenRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"matchId,omitempty"`
}

type voiceTokenResponse struct {
	Token string `json:"token"`
}

// RpcGetVoiceToken signs a voice token for the calling user.
// Payload: {"action": "login" | "join", "matchId": "..."}
func RpcGetVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("No user ID in context", 16) // UNAUTHENTICATED
	}

	var req voiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}

	token, err := voiceService.GenerateToken(userID, req.Action, req.MatchID)
	if err != nil {
		logger.Error("RpcGetVoiceToken [User:%s]: %v", userID, err)
		return "", runtime.NewError("Failed to generate voice token", 13) // INTERNAL
	}

	raw, err := json.Marshal(voiceTokenResponse{Token: token})
	if err != nil {
		return "", runtime.NewError("Failed to marshal response", 13)
	}
	return string(raw), nil
}
