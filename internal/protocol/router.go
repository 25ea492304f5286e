package protocol

import (
	"strings"
	"unicode"
)

// Intent is the routing decision for a free-text chat message.
type Intent string

const (
	IntentExplanation  Intent = "explanation"
	IntentModification Intent = "modification"
	IntentAmbiguous    Intent = "ambiguous"
)

// TaskKind resolves the intent to the orchestrator that handles it. Ambiguous
// messages are answered, never acted on.
func (i Intent) TaskKind() TaskKind {
	if i == IntentModification {
		return TaskModification
	}
	return TaskExplanation
}

// QuestionStarters mark a message as a question when its leading words are
// one of them. A contraction of the last word counts ("what's").
var QuestionStarters = []string{
	"what", "why", "how", "explain", "did you", "can you tell me",
	"tell me about", "is there", "does it", "do you",
}

// ModificationKeywords mark a message as a change request. Single words match
// whole words only; phrases match as a word sequence.
var ModificationKeywords = []string{
	"change", "modify", "update", "rewrite", "add", "remove", "delete",
	"improve", "enhance", "revise", "make it", "include", "exclude",
	"rephrase", "put", "use",
}

type intentRule struct {
	name   string
	intent Intent
	match  func(normalized string, words []string) bool
}

// intentRules are evaluated in order; the first match decides.
var intentRules = []intentRule{
	{
		name:   "question mark",
		intent: IntentExplanation,
		match: func(s string, _ []string) bool {
			return strings.HasSuffix(s, "?")
		},
	},
	{
		name:   "question starter",
		intent: IntentExplanation,
		match: func(_ string, words []string) bool {
			leading := strings.Join(words, " ") + " "
			for _, starter := range QuestionStarters {
				if strings.HasPrefix(leading, starter+" ") || strings.HasPrefix(leading, starter+"'") {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "modification keyword",
		intent: IntentModification,
		match: func(_ string, words []string) bool {
			joined := " " + strings.Join(words, " ") + " "
			for _, kw := range ModificationKeywords {
				if strings.Contains(joined, " "+kw+" ") {
					return true
				}
			}
			return false
		},
	},
}

// RouteChat classifies a chat message. It returns IntentAmbiguous when no rule
// matches.
func RouteChat(message string) Intent {
	intent, _ := RouteChatRule(message)
	return intent
}

// RouteChatRule is RouteChat that also names the rule that decided, for
// logging.
func RouteChatRule(message string) (Intent, string) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return IntentAmbiguous, ""
	}
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, rule := range intentRules {
		if rule.match(normalized, words) {
			return rule.intent, rule.name
		}
	}
	return IntentAmbiguous, ""
}
