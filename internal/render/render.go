// Package render turns parsed chat segments into display markup.
package render

import (
	"strings"

	"tienlenchat/internal/chat"

	"github.com/yuin/goldmark/util"
)

const (
	classMention     = "mention"
	classMentionSelf = "mention mention-self"
)

// HTML renders segments as an HTML fragment for the given viewer.
// Mentions of the viewer get the extra "mention-self" class. Links open in a
// new tab with the opener and referrer withheld; the href is written
// verbatim apart from attribute escaping.
func HTML(segments []chat.Segment, viewer string) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case chat.KindMention:
			class := classMention
			if seg.MentionsViewer(viewer) {
				class = classMentionSelf
			}
			b.WriteString(`<span class="`)
			b.WriteString(class)
			b.WriteString(`">`)
			b.Write(util.EscapeHTML([]byte(seg.Content)))
			b.WriteString(`</span>`)
		case chat.KindURL:
			b.WriteString(`<a href="`)
			b.Write(util.EscapeHTML([]byte(seg.Href)))
			b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
			b.Write(util.EscapeHTML([]byte(seg.Content)))
			b.WriteString(`</a>`)
		default:
			b.Write(util.EscapeHTML([]byte(seg.Content)))
		}
	}
	return b.String()
}

// Plain renders segments for a terminal: mentions of the viewer are wrapped
// in ** and links in <>.
func Plain(segments []chat.Segment, viewer string) string {
	var b strings.Builder
	for _, seg := range segments {
		switch {
		case seg.MentionsViewer(viewer):
			b.WriteString("**" + seg.Content + "**")
		case seg.Kind == chat.KindURL:
			b.WriteString("<" + seg.Href + ">")
		default:
			b.WriteString(seg.Content)
		}
	}
	return b.String()
}
