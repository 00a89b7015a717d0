package nakama

import (
	"context"
	"database/sql"

	"tienlenchat/internal/config"
	"tienlenchat/internal/metrics"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadChatConfig(ChatConfigPath); err != nil {
		logger.Warn("Could not load chat config, using defaults: %v", err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTableChat, NewMatch); err != nil {
		return err
	}

	if err := initializer.RegisterAfterRt(HookChannelMessageSend, AfterChannelMessageSend); err != nil {
		return err
	}

	if err := initializer.RegisterHttp(MetricsPath, metrics.Default().Handler().ServeHTTP); err != nil {
		return err
	}

	logger.Info("TienLen chat module loaded.")
	return nil
}
