package protocol

import (
	"fmt"
	"strings"
)

// FillerPatterns are conversational openers models prepend despite being told
// not to. Order matters: the first pattern matching the head of the text wins.
var FillerPatterns = []string{
	"Thought: I now can give a great answer\n\n",
	"I now can give a great answer\n\n",
	"Thought: I now can give a great answer\n",
	"I now can give a great answer\n",
	"Okay, here is the analysis report:\n",
	"Okay, here's the modified resume:\n",
	"Here is the modified resume:\n",
	"Here's the updated resume:\n",
	"Sure, here is the resume:\n",
	"Okay, here's the analysis:\n",
	"Here is the analysis:\n",
	"Here's the analysis and modified resume:\n",
	"Okay, here's the essay:\n",
	"Here is the essay:\n",
	"Okay, ",
	"Sure, ",
	"Certainly, ",
	"Alright, ",
}

// StandaloneFiller is rejected when it is all that is left of a response.
const StandaloneFiller = "I now can give a great answer"

// FillerOnlyError reports a response that consisted of nothing but filler.
type FillerOnlyError struct {
	Phrase string
}

func (e *FillerOnlyError) Error() string {
	return fmt.Sprintf("output was only filler %q", e.Phrase)
}

// StripFiller trims the response and repeatedly cuts known filler phrases off
// its head, matching case-insensitively. It returns the cleaned text and the
// phrases it removed, in removal order. When the response is nothing but
// filler a *FillerOnlyError is returned instead of an empty string.
//
// The cleaned text is never longer than raw.
func StripFiller(raw string) (string, []string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return cleaned, nil, nil
	}

	var removed []string
	for {
		pattern, ok := matchFiller(cleaned)
		if !ok {
			break
		}
		rest := strings.TrimLeft(cleaned[len(pattern):], " \t\r\n")
		if rest == "" {
			return "", removed, &FillerOnlyError{Phrase: strings.TrimSpace(pattern)}
		}
		removed = append(removed, cleaned[:len(pattern)])
		cleaned = rest
	}

	if cleaned == StandaloneFiller {
		return "", removed, &FillerOnlyError{Phrase: StandaloneFiller}
	}

	return cleaned, removed, nil
}

func matchFiller(text string) (string, bool) {
	for _, pattern := range FillerPatterns {
		if len(text) >= len(pattern) && strings.EqualFold(text[:len(pattern)], pattern) {
			return pattern, true
		}
	}
	return "", false
}
