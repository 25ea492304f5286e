package protocol

import "strings"

// ExtractBetween returns the trimmed text strictly between the first start
// token and the first end token after it. ok is false when either token is
// missing; a block that was opened but never closed counts as missing, not as
// partial content. An empty block yields ("", true).
func ExtractBetween(text, start, end string) (content string, ok bool) {
	if text == "" || start == "" || end == "" {
		return "", false
	}
	startIdx := strings.Index(text, start)
	if startIdx == -1 {
		return "", false
	}
	startIdx += len(start)
	endIdx := strings.Index(text[startIdx:], end)
	if endIdx == -1 {
		return "", false
	}
	return strings.TrimSpace(text[startIdx : startIdx+endIdx]), true
}

// Extract is ExtractBetween for a sentinel pair.
func Extract(text string, b Block) (string, bool) {
	return ExtractBetween(text, b.Start, b.End)
}

// Unwrap returns the block content when text carries the block, and text
// unchanged otherwise. Used to clean stored context before reusing it in a
// new request.
func Unwrap(text string, b Block) string {
	if content, ok := Extract(text, b); ok {
		return content
	}
	return text
}
