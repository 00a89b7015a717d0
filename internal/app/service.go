package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tienlenchat/internal/chat"
	"tienlenchat/internal/config"
	"tienlenchat/internal/metrics"
	"tienlenchat/internal/ports"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message too long")
	ErrUnknownSender  = errors.New("sender not found")
	ErrNotConfigured  = errors.New("chat service not configured")
)

// Participant is a player who can send or be mentioned in chat.
type Participant struct {
	UserID      string
	Username    string
	DisplayName string
}

// Name returns the name other players see: the display name when set,
// otherwise the username.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// answersTo reports whether a mention name addresses this participant.
func (p Participant) answersTo(name string) bool {
	return strings.EqualFold(name, p.Username) || (p.DisplayName != "" && strings.EqualFold(name, p.DisplayName))
}

// ChatMessage is an accepted, segmented chat message.
type ChatMessage struct {
	SenderID   string
	SenderName string
	Text       string
	Segments   []chat.Segment
	Mentions   []string
	SentAt     time.Time
}

// Service contains chat use-cases.
type Service struct {
	cfg      config.ChatConfig
	accounts ports.AccountPort
	alerts   ports.NotificationPort
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService constructs a chat Service.
// accounts/alerts may be nil when only Compose is used; m may be nil to skip metrics.
func NewService(cfg config.ChatConfig, accounts ports.AccountPort, alerts ports.NotificationPort, m *metrics.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		accounts: accounts,
		alerts:   alerts,
		metrics:  m,
		now:      time.Now,
	}
}

// Compose validates and segments a message sent to a known roster, such as
// the players seated at a table. It returns the accepted message, a broadcast
// chat event and one targeted alert event per mentioned participant.
func (s *Service) Compose(sender Participant, text string, roster []Participant) (*ChatMessage, []Event, error) {
	if sender.UserID == "" {
		s.metrics.RecordMessage(metrics.ResultRejected)
		return nil, nil, ErrUnknownSender
	}
	if err := s.validate(text); err != nil {
		s.metrics.RecordMessage(metrics.ResultRejected)
		return nil, nil, err
	}

	msg := s.newMessage(sender, text)
	events := []Event{
		{
			Kind:    EventChatMessage,
			Payload: ChatMessagePayload{Message: msg},
		},
	}

	if s.cfg.MentionAlertsEnabled {
		for _, p := range mentioned(sender, msg.Mentions, roster) {
			events = append(events, Event{
				Kind: EventMentionAlert,
				Payload: MentionAlertPayload{
					SenderID:   msg.SenderID,
					SenderName: msg.SenderName,
					Text:       msg.Text,
					Segments:   msg.Segments,
				},
				Recipients: []string{p.UserID},
			})
		}
	}

	s.metrics.RecordMessage(metrics.ResultAccepted)
	s.metrics.RecordSegments(msg.Segments)
	s.metrics.RecordMentionAlerts(len(events) - 1)
	return msg, events, nil
}

// NotifyMentions alerts players mentioned in a channel message. The message
// has already been delivered, so it is not validated; mentioned names are
// resolved through the account port. Returns the number of alerts sent.
func (s *Service) NotifyMentions(ctx context.Context, sender Participant, text, channelID string) (int, error) {
	if !s.cfg.MentionAlertsEnabled {
		return 0, nil
	}
	names := uniqueFold(chat.ExtractMentions(text))
	if len(names) == 0 {
		return 0, nil
	}
	if s.accounts == nil || s.alerts == nil {
		return 0, ErrNotConfigured
	}

	profiles, err := s.accounts.LookupUsernames(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("failed to look up mentioned users: %w", err)
	}
	roster := make([]Participant, 0, len(profiles))
	for _, p := range profiles {
		roster = append(roster, Participant{UserID: p.UserID, Username: p.Username, DisplayName: p.DisplayName})
	}

	recipients := mentioned(sender, names, roster)
	if len(recipients) == 0 {
		return 0, nil
	}

	alerts := make([]ports.MentionAlert, 0, len(recipients))
	for _, p := range recipients {
		alerts = append(alerts, ports.MentionAlert{
			RecipientID: p.UserID,
			SenderID:    sender.UserID,
			SenderName:  sender.Name(),
			ChannelID:   channelID,
			Message:     text,
		})
	}
	if err := s.alerts.SendMentionAlerts(ctx, alerts); err != nil {
		return 0, fmt.Errorf("failed to send mention alerts: %w", err)
	}

	s.metrics.RecordMentionAlerts(len(alerts))
	return len(alerts), nil
}

func (s *Service) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxMessageLength {
		return fmt.Errorf("%w: %d runes, limit %d", ErrMessageTooLong, n, s.cfg.MaxMessageLength)
	}
	return nil
}

func (s *Service) newMessage(sender Participant, text string) *ChatMessage {
	segments := chat.Parse(text)
	var names []string
	for _, seg := range segments {
		if seg.Kind == chat.KindMention {
			names = append(names, seg.Name())
		}
	}
	return &ChatMessage{
		SenderID:   sender.UserID,
		SenderName: sender.Name(),
		Text:       text,
		Segments:   segments,
		Mentions:   names,
		SentAt:     s.now().UTC(),
	}
}

// mentioned returns the roster members addressed by names, in mention order,
// without duplicates or the sender, capped at MaxMentionAlertsPerMessage.
func mentioned(sender Participant, names []string, roster []Participant) []Participant {
	var out []Participant
	seen := make(map[string]bool)
	for _, name := range names {
		for _, p := range roster {
			if p.UserID == "" || p.UserID == sender.UserID || seen[p.UserID] || !p.answersTo(name) {
				continue
			}
			seen[p.UserID] = true
			out = append(out, p)
			if len(out) == MaxMentionAlertsPerMessage {
				return out
			}
		}
	}
	return out
}

func uniqueFold(names []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
