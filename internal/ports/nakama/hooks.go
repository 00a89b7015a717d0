package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tienlenchat/internal/app"
	"tienlenchat/internal/config"
	"tienlenchat/internal/metrics"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-common/runtime"
)

// channelMessageContent is the JSON content the web client puts in channel messages.
type channelMessageContent struct {
	Message string `json:"message"`
}

// AfterChannelMessageSend alerts players mentioned in a channel message.
// Alert failures are logged and never fail the already-delivered message.
func AfterChannelMessageSend(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out, in *rtapi.Envelope) error {
	send := in.GetChannelMessageSend()
	if send == nil {
		return nil
	}
	text, err := decodeChannelMessage(send.GetContent())
	if err != nil {
		logger.Debug("AfterChannelMessageSend: Skipping content: %v", err)
		return nil
	}

	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	username, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)
	if userID == "" {
		// Server-sent messages have no sender to exclude and nobody to attribute.
		return nil
	}
	sender := app.Participant{UserID: userID, Username: username}

	cfg := runtimeChatConfig(ctx, logger)
	service := app.NewService(
		cfg,
		NewNakamaAccountAdapter(nk),
		NewNakamaNotificationAdapter(nk, cfg.MentionNotificationCode, cfg.NotificationPersistent),
		metrics.Default(),
	)

	sent, err := service.NotifyMentions(ctx, sender, text, send.GetChannelId())
	if err != nil {
		logger.Error("AfterChannelMessageSend: Failed to alert mentions for user %s in %s: %v", userID, send.GetChannelId(), err)
		return nil
	}
	if sent > 0 {
		logger.Debug("AfterChannelMessageSend: Sent %d mention alerts for message from %s.", sent, userID)
	}
	return nil
}

func decodeChannelMessage(content string) (string, error) {
	var c channelMessageContent
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return "", fmt.Errorf("failed to unmarshal channel message content: %w", err)
	}
	return c.Message, nil
}

// runtimeChatConfig returns the loaded chat config with runtime env overrides.
func runtimeChatConfig(ctx context.Context, logger runtime.Logger) config.ChatConfig {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, errs := config.GetChatConfig().WithEnv(env)
	for _, err := range errs {
		logger.Warn("Ignoring chat env override: %v", err)
	}
	return cfg
}
