package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tienlenchat/internal/chat"
	"tienlenchat/internal/config"
	"tienlenchat/internal/metrics"
	"tienlenchat/internal/ports"
)

type fakeAccountPort struct {
	profiles  []ports.UserProfile
	lookupErr error
	lookups   [][]string
}

func (f *fakeAccountPort) LookupUsernames(ctx context.Context, usernames []string) ([]ports.UserProfile, error) {
	f.lookups = append(f.lookups, usernames)
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []ports.UserProfile
	for _, p := range f.profiles {
		for _, name := range usernames {
			if strings.EqualFold(p.Username, name) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

type fakeNotificationPort struct {
	sendErr error
	sent    []ports.MentionAlert
}

func (f *fakeNotificationPort) SendMentionAlerts(ctx context.Context, alerts []ports.MentionAlert) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, alerts...)
	return nil
}

var (
	alice = Participant{UserID: "user-alice", Username: "alice", DisplayName: "SwiftFox1234"}
	bob   = Participant{UserID: "user-bob", Username: "bob", DisplayName: "CalmBear5678"}
	carol = Participant{UserID: "user-carol", Username: "carol"}
	table = []Participant{alice, bob, carol}
)

func newTestService(m *metrics.Metrics) *Service {
	s := NewService(config.Default(), nil, nil, m)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestCompose_PlainMessage(t *testing.T) {
	s := newTestService(nil)

	msg, events, err := s.Compose(alice, "good game", table)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if msg.SenderID != alice.UserID || msg.SenderName != "SwiftFox1234" {
		t.Fatalf("unexpected sender: %+v", msg)
	}
	if len(msg.Segments) != 1 || msg.Segments[0].Kind != chat.KindText {
		t.Fatalf("expected single text segment, got %+v", msg.Segments)
	}
	if !msg.SentAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("SentAt = %v", msg.SentAt)
	}
	if len(events) != 1 || events[0].Kind != EventChatMessage || len(events[0].Recipients) != 0 {
		t.Fatalf("expected one broadcast chat event, got %+v", events)
	}
}

func TestCompose_MentionAlerts(t *testing.T) {
	m := metrics.New()
	s := newTestService(m)

	msg, events, err := s.Compose(alice, "@BOB and @carol, also @bob again and @alice and @nobody see http://x.io/@carol", table)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	wantMentions := []string{"BOB", "carol", "bob", "alice", "nobody"}
	if !reflect.DeepEqual(msg.Mentions, wantMentions) {
		t.Fatalf("Mentions = %v, want %v", msg.Mentions, wantMentions)
	}

	var recipients []string
	for _, ev := range events[1:] {
		if ev.Kind != EventMentionAlert {
			t.Fatalf("unexpected event kind %s", ev.Kind)
		}
		p := ev.Payload.(MentionAlertPayload)
		if p.SenderID != alice.UserID || p.Text != msg.Text {
			t.Fatalf("unexpected alert payload %+v", p)
		}
		recipients = append(recipients, ev.Recipients...)
	}
	if want := []string{"user-bob", "user-carol"}; !reflect.DeepEqual(recipients, want) {
		t.Fatalf("alert recipients = %v, want %v", recipients, want)
	}

	if got := testutil.ToFloat64(m.MentionAlerts); got != 2 {
		t.Fatalf("alert metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Messages.WithLabelValues(metrics.ResultAccepted)); got != 1 {
		t.Fatalf("accepted metric = %v, want 1", got)
	}
}

func TestCompose_MentionByDisplayName(t *testing.T) {
	s := newTestService(nil)

	_, events, err := s.Compose(bob, "nice bomb @swiftfox1234", table)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if len(events) != 2 || !reflect.DeepEqual(events[1].Recipients, []string{alice.UserID}) {
		t.Fatalf("expected alert for alice, got %+v", events)
	}
}

func TestCompose_AlertsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.MentionAlertsEnabled = false
	s := NewService(cfg, nil, nil, nil)

	_, events, err := s.Compose(alice, "@bob", table)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the chat event, got %d events", len(events))
	}
}

func TestCompose_AlertCap(t *testing.T) {
	s := newTestService(nil)

	var roster []Participant
	var text strings.Builder
	for i := 0; i < MaxMentionAlertsPerMessage+3; i++ {
		name := "p" + string(rune('a'+i))
		roster = append(roster, Participant{UserID: "id-" + name, Username: name})
		text.WriteString("@" + name + " ")
	}

	_, events, err := s.Compose(alice, text.String(), roster)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if got := len(events) - 1; got != MaxMentionAlertsPerMessage {
		t.Fatalf("alerts = %d, want %d", got, MaxMentionAlertsPerMessage)
	}
}

func TestCompose_Rejections(t *testing.T) {
	cfg := config.Default()
	cfg.MaxMessageLength = 5
	m := metrics.New()
	s := NewService(cfg, nil, nil, m)

	tests := []struct {
		name    string
		sender  Participant
		text    string
		wantErr error
	}{
		{name: "empty", sender: alice, text: "", wantErr: ErrEmptyMessage},
		{name: "whitespace", sender: alice, text: " \n\t", wantErr: ErrEmptyMessage},
		{name: "too long", sender: alice, text: "abcdef", wantErr: ErrMessageTooLong},
		{name: "unknown sender", sender: Participant{}, text: "hi", wantErr: ErrUnknownSender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, events, err := s.Compose(tt.sender, tt.text, table)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if msg != nil || events != nil {
				t.Fatal("expected no message or events on rejection")
			}
		})
	}

	if got := testutil.ToFloat64(m.Messages.WithLabelValues(metrics.ResultRejected)); got != 4 {
		t.Fatalf("rejected metric = %v, want 4", got)
	}
}

func TestCompose_LengthCountsRunes(t *testing.T) {
	cfg := config.Default()
	cfg.MaxMessageLength = 5
	s := NewService(cfg, nil, nil, nil)

	if _, _, err := s.Compose(alice, "ch\u1eb7t!", table); err != nil {
		t.Fatalf("five-rune message rejected: %v", err)
	}
}

func TestNotifyMentions(t *testing.T) {
	accounts := &fakeAccountPort{profiles: []ports.UserProfile{
		{UserID: "user-bob", Username: "bob", DisplayName: "CalmBear5678"},
		{UserID: "user-carol", Username: "carol"},
	}}
	alerts := &fakeNotificationPort{}
	m := metrics.New()
	s := NewService(config.Default(), accounts, alerts, m)

	n, err := s.NotifyMentions(context.Background(), alice, "@bob @Bob @carol @ghost @alice", "room.lobby")
	if err != nil {
		t.Fatalf("NotifyMentions returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("sent = %d, want 2", n)
	}
	if want := [][]string{{"bob", "carol", "ghost", "alice"}}; !reflect.DeepEqual(accounts.lookups, want) {
		t.Fatalf("lookups = %v, want %v", accounts.lookups, want)
	}
	if alerts.sent[0].RecipientID != "user-bob" || alerts.sent[1].RecipientID != "user-carol" {
		t.Fatalf("unexpected alerts %+v", alerts.sent)
	}
	if alerts.sent[0].SenderName != "SwiftFox1234" || alerts.sent[0].ChannelID != "room.lobby" {
		t.Fatalf("unexpected alert fields %+v", alerts.sent[0])
	}
	if got := testutil.ToFloat64(m.MentionAlerts); got != 2 {
		t.Fatalf("alert metric = %v, want 2", got)
	}
}

func TestNotifyMentions_NoMentionsSkipsLookup(t *testing.T) {
	accounts := &fakeAccountPort{}
	s := NewService(config.Default(), accounts, &fakeNotificationPort{}, nil)

	n, err := s.NotifyMentions(context.Background(), alice, "see http://x.io/@bob", "room.lobby")
	if err != nil || n != 0 {
		t.Fatalf("NotifyMentions = %d, %v; want 0, nil", n, err)
	}
	if len(accounts.lookups) != 0 {
		t.Fatal("expected no account lookups")
	}
}

func TestNotifyMentions_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := NewService(config.Default(), nil, nil, nil)
		if _, err := s.NotifyMentions(context.Background(), alice, "@bob", "c"); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("err = %v, want ErrNotConfigured", err)
		}
	})
	t.Run("lookup failure", func(t *testing.T) {
		s := NewService(config.Default(), &fakeAccountPort{lookupErr: errors.New("db down")}, &fakeNotificationPort{}, nil)
		if _, err := s.NotifyMentions(context.Background(), alice, "@bob", "c"); err == nil {
			t.Fatal("expected lookup error")
		}
	})
	t.Run("send failure", func(t *testing.T) {
		accounts := &fakeAccountPort{profiles: []ports.UserProfile{{UserID: "user-bob", Username: "bob"}}}
		s := NewService(config.Default(), accounts, &fakeNotificationPort{sendErr: errors.New("offline")}, nil)
		if n, err := s.NotifyMentions(context.Background(), alice, "@bob", "c"); err == nil || n != 0 {
			t.Fatalf("NotifyMentions = %d, %v; want 0 and error", n, err)
		}
	})
	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.MentionAlertsEnabled = false
		s := NewService(cfg, nil, nil, nil)
		if n, err := s.NotifyMentions(context.Background(), alice, "@bob", "c"); err != nil || n != 0 {
			t.Fatalf("NotifyMentions = %d, %v; want 0, nil", n, err)
		}
	})
}
