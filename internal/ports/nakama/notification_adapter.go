package nakama

import (
	"context"
	"fmt"

	"tienlenchat/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const mentionAlertSubject = "You were mentioned"

// notificationSender is the part of runtime.NakamaModule the notification adapter needs.
type notificationSender interface {
	NotificationsSend(ctx context.Context, notifications []*runtime.NotificationSend) error
}

// NakamaNotificationAdapter implements ports.NotificationPort with Nakama in-app notifications.
type NakamaNotificationAdapter struct {
	nk         notificationSender
	code       int
	persistent bool
}

// NewNakamaNotificationAdapter creates a new notification adapter.
// code is the client-facing notification code for mention alerts.
func NewNakamaNotificationAdapter(nk notificationSender, code int, persistent bool) *NakamaNotificationAdapter {
	return &NakamaNotificationAdapter{nk: nk, code: code, persistent: persistent}
}

// SendMentionAlerts sends one notification per alert in a single batch.
func (a *NakamaNotificationAdapter) SendMentionAlerts(ctx context.Context, alerts []ports.MentionAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	notifications := make([]*runtime.NotificationSend, 0, len(alerts))
	for _, alert := range alerts {
		notifications = append(notifications, &runtime.NotificationSend{
			UserID:  alert.RecipientID,
			Subject: mentionAlertSubject,
			Content: map[string]interface{}{
				"channel_id":  alert.ChannelID,
				"sender_id":   alert.SenderID,
				"sender_name": alert.SenderName,
				"message":     alert.Message,
			},
			Code:       a.code,
			Sender:     alert.SenderID,
			Persistent: a.persistent,
		})
	}

	if err := a.nk.NotificationsSend(ctx, notifications); err != nil {
		return fmt.Errorf("failed to send %d mention notifications: %w", len(notifications), err)
	}
	return nil
}

var _ ports.NotificationPort = (*NakamaNotificationAdapter)(nil)
