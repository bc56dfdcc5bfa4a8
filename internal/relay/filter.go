package relay

import (
	"slices"
	"strings"
)

// ShouldReply reports whether msg warrants a reply from self. Messages
// authored by self are never answered. Everything else is answered only when
// it is a direct message or mentions self.
func ShouldReply(msg IncomingMessage, self Identity) bool {
	if msg.AuthorID == self.ID {
		return false
	}
	return msg.IsDM() || slices.Contains(msg.Mentions, self.ID)
}

// NormalizeText removes every mention of selfID from content, in both the
// plain (<@id>) and nickname (<@!id>) encodings, and trims the result.
func NormalizeText(content, selfID string) string {
	if selfID != "" {
		content = strings.ReplaceAll(content, "<@!"+selfID+">", "")
		content = strings.ReplaceAll(content, "<@"+selfID+">", "")
	}
	return strings.TrimSpace(content)
}
