package protocol

import (
	"fmt"
	"strings"
)

// ResultKind tags which variant a Result holds.
type ResultKind string

const (
	KindAnalysis           ResultKind = "analysis"
	KindModifiedResume     ResultKind = "modified_resume"
	KindEssay              ResultKind = "essay"
	KindClarifyingQuestion ResultKind = "clarifying_question"
	KindExplanation        ResultKind = "explanation"
	KindFailure            ResultKind = "failure"
)

// FailureReason is a stable code callers can branch on, e.g. to decide
// whether a retry is worthwhile.
type FailureReason string

const (
	ReasonFillerOnly       FailureReason = "FILLER_ONLY"
	ReasonUnexpectedFormat FailureReason = "UNEXPECTED_RESULT_FORMAT"
	ReasonOracleError      FailureReason = "ORACLE_ERROR"
	ReasonFormatViolation  FailureReason = "FORMAT_VIOLATION"
	ReasonMissingMarkers   FailureReason = "MISSING_MARKERS"
	ReasonMissingInput     FailureReason = "MISSING_INPUT"
	ReasonEmptyResponse    FailureReason = "EMPTY_RESPONSE"
)

// Retryable reports whether running the same request again may help.
func (r FailureReason) Retryable() bool {
	switch r {
	case ReasonFillerOnly, ReasonUnexpectedFormat, ReasonOracleError:
		return true
	}
	return false
}

type Failure struct {
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Result is the single outcome of one orchestrator invocation. Every slot the
// task kind promises is always filled: on failure it carries a placeholder.
//
//   - KindAnalysis: Analysis and Modification.
//   - KindModifiedResume: Modification.
//   - KindEssay, KindClarifyingQuestion, KindExplanation: Text.
//   - KindFailure: Failure, plus placeholders in the slots of the task kind.
type Result struct {
	Kind         ResultKind `json:"kind"`
	Analysis     string     `json:"analysis,omitempty"`
	Modification string     `json:"modification,omitempty"`
	Text         string     `json:"text,omitempty"`
	Failure      *Failure   `json:"failure,omitempty"`
}

// Failed reports whether the result is a Failure.
func (r Result) Failed() bool {
	return r.Kind == KindFailure
}

// Placeholders. Every placeholder starts with PlaceholderPrefix so renderers
// can detect them without re-parsing.
const (
	PlaceholderPrefix = "("

	PlaceholderAnalysisMissing     = "(Analysis could not be extracted - check markers)"
	PlaceholderModificationMissing = "(Modification block could not be extracted - check markers)"
	PlaceholderAnalysisEmpty       = "(Analysis part before modification was empty)"
	PlaceholderNoFeedback          = "(No feedback provided for modification)"
	PlaceholderEssayFormat         = "(Error: AI failed to generate essay in the expected format. Please try again or rephrase.)"
	PlaceholderUnexpectedFormat    = "(Error: Unexpected result format from AI agent.)"
	PlaceholderEmptyExplanation    = "(Explanation was empty)"
)

// IsPlaceholder reports whether s is a failure placeholder rather than content.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.HasPrefix(s, PlaceholderPrefix)
}

func fillerOnlyPlaceholder(phrase string) string {
	return fmt.Sprintf("(Agent Error: Output was only filler '%s')", phrase)
}

func noMarkersPlaceholder(cleaned string) string {
	return fmt.Sprintf("(No markers found in cleaned output: %s)", cleaned)
}

func modificationMarkersPlaceholder(cleaned string) string {
	return fmt.Sprintf("(Modification markers missing in cleaned agent output: %s...)", Truncate(cleaned, 100))
}

// OraclePlaceholder renders an oracle transport error for display.
func OraclePlaceholder(err error) string {
	return fmt.Sprintf("(Error: %v)", err)
}

// MissingInputPlaceholder renders an input that was required but empty.
func MissingInputPlaceholder(what string) string {
	return fmt.Sprintf("(No %s provided)", what)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// NewFailure builds a Failure result for kind, filling every slot the kind
// promises with placeholder.
func NewFailure(kind TaskKind, reason FailureReason, detail, placeholder string) Result {
	r := Result{
		Kind:    KindFailure,
		Failure: &Failure{Reason: reason, Detail: detail},
	}
	switch kind {
	case TaskAnalysis:
		r.Analysis = placeholder
		r.Modification = placeholder
	case TaskModification:
		r.Modification = placeholder
		r.Text = placeholder
	default:
		r.Text = placeholder
	}
	return r
}
