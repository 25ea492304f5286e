package protocol

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ShortResponseLimit is the length below which an unparseable response is
// echoed inside the placeholders to make debugging easier.
const ShortResponseLimit = 200

// Parser turns raw model output into a Result for a given task kind. It never
// fails: every deviation from the contract resolves to a best-effort Result
// plus placeholders for whatever could not be recovered. Parser holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("protocol")}
}

// Parse dispatches raw to the classifier for kind.
func (p *Parser) Parse(kind TaskKind, raw string) Result {
	switch kind {
	case TaskAnalysis:
		return p.AnalysisAndModification(raw)
	case TaskModification:
		return p.FeedbackModification(raw)
	case TaskEssay:
		return p.Essay(raw)
	case TaskExplanation:
		return p.Explanation(raw)
	}
	p.logger.Error("unknown task kind", zap.String("task", string(kind)))
	return NewFailure(kind, ReasonUnexpectedFormat, "unknown task kind "+string(kind), PlaceholderUnexpectedFormat)
}

// Clean strips filler from raw. A non-nil Result means the response was
// nothing but filler and is the final outcome for the task.
func (p *Parser) Clean(kind TaskKind, raw string) (string, *Result) {
	cleaned, removed, err := StripFiller(raw)
	for _, phrase := range removed {
		p.logger.Warn("removed filler phrase",
			zap.String("task", string(kind)),
			zap.String("phrase", strings.TrimSpace(phrase)),
		)
	}

	var fillerErr *FillerOnlyError
	if errors.As(err, &fillerErr) {
		p.logger.Error("response was only filler",
			zap.String("task", string(kind)),
			zap.String("phrase", fillerErr.Phrase),
		)
		r := NewFailure(kind, ReasonFillerOnly, fillerErr.Phrase, fillerOnlyPlaceholder(fillerErr.Phrase))
		return "", &r
	}
	return cleaned, nil
}

// AnalysisAndModification parses the concatenated output of the two-stage
// analysis and modification run.
//
// The analysis slot keeps its sentinels when it had to be synthesized from
// unmarked text; callers use Unwrap before reusing it.
func (p *Parser) AnalysisAndModification(raw string) Result {
	cleaned, failure := p.Clean(TaskAnalysis, raw)
	if failure != nil {
		return *failure
	}
	log := p.logger.With(zap.String("task", string(TaskAnalysis)))

	if modStart := strings.Index(cleaned, ModificationStart); modStart != -1 {
		if modification, ok := Extract(cleaned[modStart:], ModificationBlock); ok {
			if modification == "" {
				log.Warn("modification block is empty")
				modification = PlaceholderModificationMissing
			}
			region := strings.TrimSpace(cleaned[:modStart])
			analysis, ok := Extract(region, AnalysisBlock)
			switch {
			case ok && analysis != "":
			case ok:
				log.Warn("analysis block is empty")
				analysis = PlaceholderAnalysisEmpty
			case region != "":
				log.Warn("analysis markers missing before modification block, wrapping preceding text")
				analysis = AnalysisBlock.Wrap(region)
			default:
				log.Warn("nothing precedes the modification block")
				analysis = PlaceholderAnalysisEmpty
			}
			return Result{Kind: KindAnalysis, Analysis: analysis, Modification: modification}
		}
		log.Warn("modification start marker found without end marker")
	}

	if analysis, ok := Extract(cleaned, AnalysisBlock); ok {
		log.Warn("modification block not extracted, keeping analysis only")
		if analysis == "" {
			log.Warn("analysis block is empty")
			analysis = PlaceholderAnalysisMissing
		}
		return Result{Kind: KindAnalysis, Analysis: analysis, Modification: PlaceholderModificationMissing}
	}

	log.Warn("neither analysis nor modification block found", zap.Int("length", len(cleaned)))
	r := Result{
		Kind:         KindFailure,
		Failure:      &Failure{Reason: ReasonMissingMarkers, Detail: Truncate(cleaned, ShortResponseLimit)},
		Analysis:     PlaceholderAnalysisMissing,
		Modification: PlaceholderModificationMissing,
	}
	if len(cleaned) < ShortResponseLimit {
		r.Analysis = noMarkersPlaceholder(cleaned)
		r.Modification = noMarkersPlaceholder(cleaned)
	}
	return r
}

// FeedbackModification parses the output of a single modification run.
func (p *Parser) FeedbackModification(raw string) Result {
	cleaned, failure := p.Clean(TaskModification, raw)
	if failure != nil {
		return *failure
	}
	log := p.logger.With(zap.String("task", string(TaskModification)))

	if block, ok := Extract(cleaned, ModificationBlock); ok && block != "" {
		return Result{Kind: KindModifiedResume, Modification: block}
	}

	if ContainsLineTag(cleaned) {
		log.Warn("modification markers missing but line tags present, using whole response")
		return Result{Kind: KindModifiedResume, Modification: cleaned}
	}

	log.Warn("modification markers missing and no line tags found", zap.String("output", Truncate(cleaned, 100)))
	return NewFailure(TaskModification, ReasonMissingMarkers, Truncate(cleaned, 100), modificationMarkersPlaceholder(cleaned))
}

// Essay parses an essay response, which is either an enclosed essay or a
// single clarifying question. Unparseable output never reaches the caller.
func (p *Parser) Essay(raw string) Result {
	cleaned, failure := p.Clean(TaskEssay, raw)
	if failure != nil {
		return *failure
	}

	if strings.HasPrefix(cleaned, QuestionPrefix) {
		return Result{Kind: KindClarifyingQuestion, Text: cleaned}
	}

	if essay, ok := Extract(cleaned, EssayBlock); ok && essay != "" {
		return Result{Kind: KindEssay, Text: essay}
	}

	p.logger.Error("essay response violates output format",
		zap.String("task", string(TaskEssay)),
		zap.String("output", cleaned),
	)
	return NewFailure(TaskEssay, ReasonFormatViolation, "response had neither essay markers nor question prefix", PlaceholderEssayFormat)
}

// Explanation only strips filler; explanations are conversational and carry
// no sentinels.
func (p *Parser) Explanation(raw string) Result {
	cleaned, failure := p.Clean(TaskExplanation, raw)
	if failure != nil {
		return *failure
	}
	if cleaned == "" {
		p.logger.Warn("explanation response is empty", zap.String("task", string(TaskExplanation)))
		return NewFailure(TaskExplanation, ReasonEmptyResponse, "", PlaceholderEmptyExplanation)
	}
	return Result{Kind: KindExplanation, Text: cleaned}
}
