// internal/sanitize/sanitize.go
package sanitize

import (
	"regexp"
	"strings"
)

// tagPattern matches anything bracketed by < and >, including multi-line
// fragments. Chat text renders into HTML on the client, so tags are stripped
// wholesale rather than escaped. Script elements lose their contents too;
// dropping only the tags would leave the payload behind as plain text.
var (
	scriptPattern = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	tagPattern    = regexp.MustCompile(`(?s)<.*?>`)
)

func stripMarkup(raw string) string {
	s := scriptPattern.ReplaceAllString(raw, "")
	return tagPattern.ReplaceAllString(s, "")
}

// emoticons maps ascii shortcuts to their emoji replacements.
var emoticons = map[string]string{
	":)":  "\U0001F642",
	":(":  "\U0001F641",
	":D":  "\U0001F600",
	";)":  "\U0001F609",
	":P":  "\U0001F61B",
	":p":  "\U0001F61B",
	":O":  "\U0001F62E",
	":o":  "\U0001F62E",
	":'(": "\U0001F622",
	"<3":  "❤️",
	"B)":  "\U0001F60E",
	":|":  "\U0001F610",
	":/":  "\U0001F615",
}

// ChatMessage strips markup from a chat line and substitutes emoticon
// shortcuts. Returns the empty string when nothing displayable remains.
func ChatMessage(raw string) string {
	msg := strings.TrimSpace(stripMarkup(raw))
	if msg == "" {
		return ""
	}
	words := strings.Split(msg, " ")
	for i, w := range words {
		if emoji, ok := emoticons[w]; ok {
			words[i] = emoji
		}
	}
	return strings.Join(words, " ")
}

// PlayerName strips markup and surrounding whitespace from a display name.
func PlayerName(raw string) string {
	return strings.TrimSpace(stripMarkup(raw))
}
