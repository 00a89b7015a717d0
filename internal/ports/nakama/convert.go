package nakama

import (
	"time"

	"tienlenchat/internal/app"
	"tienlenchat/internal/chat"
	"tienlenchat/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Match payloads are protobuf Struct messages so clients can decode them with
// the well-known types only.

func segmentsToValues(segments []chat.Segment) []interface{} {
	out := make([]interface{}, 0, len(segments))
	for _, seg := range segments {
		v := map[string]interface{}{
			"kind":    seg.Kind.String(),
			"content": seg.Content,
		}
		if seg.Kind == chat.KindURL {
			v["href"] = seg.Href
		}
		out = append(out, v)
	}
	return out
}

func stringsToValues(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func chatMessageToProto(msg *app.ChatMessage) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"sender_id":   msg.SenderID,
		"sender_name": msg.SenderName,
		"text":        msg.Text,
		"sent_at":     msg.SentAt.Format(time.RFC3339Nano),
		"segments":    segmentsToValues(msg.Segments),
		"mentions":    stringsToValues(msg.Mentions),
	})
}

func mentionAlertToProto(p app.MentionAlertPayload) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"sender_id":   p.SenderID,
		"sender_name": p.SenderName,
		"text":        p.Text,
		"segments":    segmentsToValues(p.Segments),
	})
}

func chatErrorToProto(code int, message string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

func rosterToProto(table *domain.Table, participants map[string]app.Participant) (*structpb.Struct, error) {
	players := make([]interface{}, 0, table.Occupied())
	for seat, userID := range table.Seats {
		if userID == "" {
			continue
		}
		p := participants[userID]
		players = append(players, map[string]interface{}{
			"user_id":      userID,
			"username":     p.Username,
			"display_name": p.Name(),
			"seat":         seat,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"seats":   stringsToValues(table.Seats),
		"players": players,
	})
}

// marshalLabel encodes the match label as JSON for Nakama's label index.
func marshalLabel(table *domain.Table) (string, error) {
	label := domain.ComputeLabel(table)
	s, err := structpb.NewStruct(map[string]interface{}{
		"open":  label.Open,
		"game":  label.Game,
		"state": label.State,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func marshalStruct(s *structpb.Struct, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}
