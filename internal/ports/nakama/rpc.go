package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"tienlenchat/internal/chat"
	"tienlenchat/internal/render"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ChatParseRequest is the payload of the chat_parse RPC.
type ChatParseRequest struct {
	Message string `json:"message"`
	// Viewer is the display name mentions are highlighted for; defaults to the caller's username.
	Viewer string `json:"viewer"`
}

// ChatParseResponse is returned by the chat_parse RPC.
type ChatParseResponse struct {
	Segments       []chat.Segment `json:"segments"`
	Mentions       []string       `json:"mentions"`
	MentionsViewer bool           `json:"mentions_viewer"`
	HTML           string         `json:"html"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcChatParse, rpcChatParse); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcTableChatJoin, rpcTableChatJoin)
}

// rpcChatParse segments a message and renders it for the viewer.
//
// Payload: {"message": "...", "viewer": "..."}
// Returns: ChatParseResponse as JSON.
func rpcChatParse(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req ChatParseRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", codeInvalidArgument)
	}
	if req.Viewer == "" {
		req.Viewer, _ = ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)
	}

	segments := chat.Parse(req.Message)
	resp := ChatParseResponse{
		Segments: segments,
		Mentions: []string{},
		HTML:     render.HTML(segments, req.Viewer),
	}
	for _, seg := range segments {
		if seg.Kind != chat.KindMention {
			continue
		}
		resp.Mentions = append(resp.Mentions, seg.Name())
		if seg.MentionsViewer(req.Viewer) {
			resp.MentionsViewer = true
		}
	}

	b, err := json.Marshal(resp)
	if err != nil {
		logger.Error("rpcChatParse: Failed to marshal response: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}
