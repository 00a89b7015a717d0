// Package chat splits chat messages into text, @mention and URL segments.
//
// All functions are pure and safe for concurrent use.
package chat

import "strings"

// Parse partitions message into ordered, non-overlapping segments whose
// contents concatenate back to message. A message with no mentions or URLs,
// including the empty message, yields a single KindText segment.
func Parse(message string) []Segment {
	spans := scan(message)
	if len(spans) == 0 {
		return []Segment{{Kind: KindText, Content: message}}
	}

	segments := make([]Segment, 0, 2*len(spans)+1)
	last := 0
	for _, sp := range spans {
		if sp.start > last {
			segments = append(segments, Segment{Kind: KindText, Content: message[last:sp.start]})
		}
		seg := Segment{Kind: sp.kind, Content: message[sp.start:sp.end]}
		if sp.kind == KindURL {
			seg.Href = seg.Content
		}
		segments = append(segments, seg)
		last = sp.end
	}
	if last < len(message) {
		segments = append(segments, Segment{Kind: KindText, Content: message[last:]})
	}
	return segments
}

// ExtractMentions returns the name of every mention in message, left to
// right, duplicates included. Tokens inside a URL are not mentions.
func ExtractMentions(message string) []string {
	var names []string
	for _, sp := range scan(message) {
		if sp.kind == KindMention {
			names = append(names, message[sp.start+1:sp.end])
		}
	}
	return names
}

// HasMention reports whether message mentions name. Names compare
// case-insensitively and must match the whole token.
func HasMention(message, name string) bool {
	for _, mentioned := range ExtractMentions(message) {
		if strings.EqualFold(mentioned, name) {
			return true
		}
	}
	return false
}
