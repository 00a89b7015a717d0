package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies what a Segment holds.
type Kind uint8

const (
	// KindText is unmatched text between (or around) mentions and URLs.
	KindText Kind = iota
	// KindMention is an @name token.
	KindMention
	// KindURL is an http:// or https:// link.
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMention:
		return "mention"
	case KindURL:
		return "url"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalJSON encodes the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its lowercase name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "text":
		*k = KindText
	case "mention":
		*k = KindMention
	case "url":
		*k = KindURL
	default:
		return fmt.Errorf("unknown segment kind %q", name)
	}
	return nil
}

// Segment is one piece of a chat message. Content is always the exact
// substring of the original message.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
	Href    string `json:"href,omitempty"` // set only for KindURL, equal to Content
}

// Name returns the mentioned name without the leading '@', or "" for
// non-mention segments.
func (s Segment) Name() string {
	if s.Kind != KindMention {
		return ""
	}
	return strings.TrimPrefix(s.Content, "@")
}

// MentionsViewer reports whether s is a mention of the viewer's display name.
func (s Segment) MentionsViewer(viewer string) bool {
	if s.Kind != KindMention || viewer == "" {
		return false
	}
	return strings.EqualFold(s.Name(), viewer)
}

// Join concatenates segment contents. For any message m,
// Join(Parse(m)) == m.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Content)
	}
	return b.String()
}
