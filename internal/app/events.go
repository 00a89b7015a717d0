package app

import "tienlenchat/internal/chat"

// EventKind identifies emitted chat events for Nakama dispatch.
type EventKind string

const (
	EventChatMessage  EventKind = "chat_message"
	EventMentionAlert EventKind = "mention_alert"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type ChatMessagePayload struct {
	Message *ChatMessage
}

type MentionAlertPayload struct {
	SenderID   string
	SenderName string
	Text       string
	// Segments lets the recipient render the highlighted message without reparsing.
	Segments []chat.Segment
}
