package chat

import (
	"unicode"
	"unicode/utf8"
)

// span is a matched token in the original message, as byte offsets.
type span struct {
	kind       Kind
	start, end int
}

// scan finds every URL and mention token. Each grammar is matched in its
// own left-to-right pass over the whole message, and the two match lists are
// merged by start offset; a match that starts inside an earlier accepted
// match is dropped. Every pass visits each byte a bounded number of times,
// so the cost is linear in len(message) regardless of content.
func scan(message string) []span {
	return merge(scanURLs(message), scanMentions(message))
}

// scanURLs returns the non-overlapping URL matches, leftmost first. Token
// starts are ASCII, and ASCII bytes never occur inside a multi-byte UTF-8
// sequence, so stepping one byte on a miss is safe.
func scanURLs(message string) []span {
	var spans []span
	for i := 0; i < len(message); {
		if end := matchURL(message, i); end > i {
			spans = append(spans, span{kind: KindURL, start: i, end: end})
			i = end
			continue
		}
		i++
	}
	return spans
}

// scanMentions returns the non-overlapping mention matches, leftmost first.
func scanMentions(message string) []span {
	var spans []span
	for i := 0; i < len(message); {
		if end := matchMention(message, i); end > i {
			spans = append(spans, span{kind: KindMention, start: i, end: end})
			i = end
			continue
		}
		i++
	}
	return spans
}

// merge interleaves two sorted match lists by start offset, URLs first on a
// tie, keeping only matches that start at or after the end of the last one
// kept.
func merge(urls, mentions []span) []span {
	out := make([]span, 0, len(urls)+len(mentions))
	last := 0
	for len(urls) > 0 || len(mentions) > 0 {
		var next span
		if len(mentions) == 0 || (len(urls) > 0 && urls[0].start <= mentions[0].start) {
			next, urls = urls[0], urls[1:]
		} else {
			next, mentions = mentions[0], mentions[1:]
		}
		if next.start < last {
			continue
		}
		out = append(out, next)
		last = next.end
	}
	return out
}

// matchURL returns the end offset of a URL starting at i, or i if none does.
func matchURL(s string, i int) int {
	n := schemeLen(s, i)
	if n == 0 {
		return i
	}
	j := i + n
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if isSpace(r) {
			break
		}
		j += size
	}
	if j == i+n {
		// Bare scheme with nothing after it.
		return i
	}
	return j
}

// schemeLen returns len("http://") or len("https://") when s[i:] starts with
// one of them, ignoring ASCII case, and 0 otherwise.
func schemeLen(s string, i int) int {
	if !hasPrefixFold(s, i, "http") {
		return 0
	}
	j := i + 4
	if j < len(s) && (s[j] == 's' || s[j] == 'S') {
		j++
	}
	if !hasPrefixFold(s, j, "://") {
		return 0
	}
	return j + 3 - i
}

func hasPrefixFold(s string, i int, prefix string) bool {
	if len(s)-i < len(prefix) {
		return false
	}
	for k := 0; k < len(prefix); k++ {
		c := s[i+k]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[k] {
			return false
		}
	}
	return true
}

// matchMention returns the end offset of an @name token starting at i, or i
// if none does.
func matchMention(s string, i int) int {
	if s[i] != '@' {
		return i
	}
	j := i + 1
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if j == i+1 {
		return i
	}
	return j
}

// isNameByte reports whether c may appear in a mention name:
// ASCII letters, digits, underscore and hyphen.
func isNameByte(c byte) bool {
	return 'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' ||
		c == '_' || c == '-'
}

// isSpace matches the whitespace set the web client uses to end a link:
// Unicode White_Space minus NEL, plus the byte order mark.
func isSpace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\uFEFF':
		return true
	}
	return unicode.IsSpace(r)
}
