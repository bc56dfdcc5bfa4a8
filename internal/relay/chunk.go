package relay

// Chunk splits text into consecutive slices of exactly limit characters; the
// last slice may be shorter. Characters are Unicode code points so a slice
// never cuts a multi-byte rune. No attempt is made to break on words.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
