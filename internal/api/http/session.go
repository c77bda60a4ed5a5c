package http

import "unicode/utf8"

// SessionTitle derives a conversation title from the first user message:
// the first 50 characters, with an ellipsis when truncated.
func SessionTitle(content string) string {
	const limit = 50
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit]) + "..."
}
