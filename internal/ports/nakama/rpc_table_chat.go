package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tienlenchat/internal/domain"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// TableChatJoinResponse is the payload returned to clients when requesting a table chat.
type TableChatJoinResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// matchLister is the part of runtime.NakamaModule the join RPC needs.
type matchLister interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

func rpcTableChatJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return findOrCreateTableChat(ctx, logger, nk)
}

func findOrCreateTableChat(ctx context.Context, logger runtime.Logger, nk matchLister) (string, error) {
	// Any table chat of our game that still advertises a free seat.
	query := fmt.Sprintf("+label.open:>=1 +label.game:%s +label.state:%s", domain.GameName, domain.PhaseLobby)

	limit := 10
	authoritative := true
	minSize := 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, nil, query)
	if err != nil {
		logger.Error("rpcTableChatJoin: MatchList error: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}

	if len(matches) > 0 {
		resp := TableChatJoinResponse{MatchID: matches[0].GetMatchId(), IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Seats are assigned in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameTableChat, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcTableChatJoin: MatchCreate error: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}

	resp := TableChatJoinResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
