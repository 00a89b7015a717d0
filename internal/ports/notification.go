package ports

import "context"

// MentionAlert is a single "you were mentioned" alert for one recipient.
type MentionAlert struct {
	RecipientID string
	SenderID    string
	SenderName  string
	ChannelID   string
	Message     string
}

// NotificationPort delivers alerts to players.
type NotificationPort interface {
	// SendMentionAlerts delivers all alerts in one batch.
	SendMentionAlerts(ctx context.Context, alerts []MentionAlert) error
}
