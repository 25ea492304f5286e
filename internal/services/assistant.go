package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/config"
	"alfredoptarigan/job-application-agent/internal/protocol"
)

// ApplicationContext is the resume and job posting every task works from.
type ApplicationContext struct {
	Resume         string
	JobTitle       string
	JobDescription string
}

// FeedbackInput drives a modification run. Analysis may still carry its
// block markers; they are removed before use.
type FeedbackInput struct {
	Analysis string
	Feedback string
}

type EssayInput struct {
	Question        string
	UserInput       string
	ExperienceLevel string
}

// ExplanationInput is a question about earlier results. Analysis and
// Modification may still carry their block markers.
type ExplanationInput struct {
	Query        string
	Analysis     string
	Modification string
}

// AssistantService runs one task per call against the text generator and
// always returns exactly one Result. Calls never retry; Result.Failure tells
// the caller whether a retry is worthwhile.
type AssistantService interface {
	AnalyzeAndModify(ctx context.Context, app ApplicationContext) protocol.Result
	ModifyWithFeedback(ctx context.Context, app ApplicationContext, in FeedbackInput) protocol.Result
	WriteEssay(ctx context.Context, app ApplicationContext, in EssayInput) protocol.Result
	Explain(ctx context.Context, app ApplicationContext, in ExplanationInput) protocol.Result
}

type assistantService struct {
	generator     TextGenerator
	retriever     ContextRetriever
	parser        *protocol.Parser
	promptBuilder *PromptBuilder
	cfg           config.AssistantConfig
	logger        *zap.Logger
}

// NewAssistantService wires the task orchestrators. retriever may be nil, in
// which case prompts carry no reference guidance.
func NewAssistantService(
	generator TextGenerator,
	retriever ContextRetriever,
	cfg config.AssistantConfig,
	logger *zap.Logger,
) AssistantService {
	return &assistantService{
		generator:     generator,
		retriever:     retriever,
		parser:        protocol.NewParser(logger),
		promptBuilder: NewPromptBuilder(),
		cfg:           cfg,
		logger:        logger.Named("assistant"),
	}
}

// AnalyzeAndModify runs the analysis prompt, then the modification prompt
// with that analysis as context, and parses both outputs together.
func (a *assistantService) AnalyzeAndModify(ctx context.Context, app ApplicationContext) protocol.Result {
	if r, missing := requireInputs(protocol.TaskAnalysis, app); missing {
		return r
	}
	log := a.logger.With(zap.String("task", string(protocol.TaskAnalysis)))
	guidance := a.guidance(ctx, GuideTypeResume, app)

	log.Info("🤖 Running analysis stage")
	rawAnalysis, err := a.generator.GenerateText(ctx, a.promptBuilder.BuildAnalysisPrompt(app, guidance), a.cfg.AnalysisTemperature)
	if err != nil {
		return a.oracleFailure(protocol.TaskAnalysis, err)
	}

	cleanedAnalysis, failure := a.parser.Clean(protocol.TaskAnalysis, rawAnalysis)
	if failure != nil {
		return *failure
	}

	analysis := protocol.Unwrap(cleanedAnalysis, protocol.AnalysisBlock)

	log.Info("🤖 Running modification stage")
	rawModification, err := a.generator.GenerateText(ctx, a.promptBuilder.BuildModificationPrompt(app, analysis, "", guidance), a.cfg.ModificationTemperature)
	if err != nil {
		log.Warn("⚠️ Modification stage failed, keeping analysis only", zap.Error(err))
		r := a.parser.AnalysisAndModification(cleanedAnalysis)
		if !r.Failed() {
			r.Modification = protocol.OraclePlaceholder(err)
		}
		return r
	}

	cleanedModification, failure := a.parser.Clean(protocol.TaskModification, rawModification)
	if failure != nil {
		log.Warn("⚠️ Modification stage returned only filler", zap.String("phrase", failure.Failure.Detail))
		return a.secondStageFailure(cleanedAnalysis, failure)
	}

	return a.parser.AnalysisAndModification(cleanedAnalysis + "\n\n" + cleanedModification)
}

// ModifyWithFeedback rewrites the resume following the user's feedback. Empty
// feedback is rejected without calling the generator.
func (a *assistantService) ModifyWithFeedback(ctx context.Context, app ApplicationContext, in FeedbackInput) protocol.Result {
	feedback := strings.TrimSpace(in.Feedback)
	if feedback == "" {
		a.logger.Warn("⚠️ Modification requested without feedback")
		return protocol.NewFailure(protocol.TaskModification, protocol.ReasonMissingInput, "feedback", protocol.PlaceholderNoFeedback)
	}
	if r, missing := requireInputs(protocol.TaskModification, app); missing {
		return r
	}

	analysis := contextText(in.Analysis, protocol.AnalysisBlock)
	guidance := a.guidance(ctx, GuideTypeResume, app)

	a.logger.Info("🤖 Running feedback modification", zap.Int("feedback_chars", len(feedback)))
	raw, err := a.generator.GenerateText(ctx, a.promptBuilder.BuildModificationPrompt(app, analysis, feedback, guidance), a.cfg.ModificationTemperature)
	if err != nil {
		return a.oracleFailure(protocol.TaskModification, err)
	}

	return a.parser.FeedbackModification(raw)
}

// WriteEssay answers an application question, or returns a clarifying
// question when the model needs more detail.
func (a *assistantService) WriteEssay(ctx context.Context, app ApplicationContext, in EssayInput) protocol.Result {
	in.Question = strings.TrimSpace(in.Question)
	in.UserInput = strings.TrimSpace(in.UserInput)
	in.ExperienceLevel = strings.TrimSpace(in.ExperienceLevel)

	if in.Question == "" {
		return protocol.NewFailure(protocol.TaskEssay, protocol.ReasonMissingInput, "essay question", protocol.MissingInputPlaceholder("essay question"))
	}
	if r, missing := requireInputs(protocol.TaskEssay, app); missing {
		return r
	}

	guidance := a.guidance(ctx, GuideTypeEssay, app)

	a.logger.Info("🤖 Writing essay", zap.Bool("has_user_input", in.UserInput != ""))
	raw, err := a.generator.GenerateText(ctx, a.promptBuilder.BuildEssayPrompt(app, in, guidance), a.cfg.EssayTemperature)
	if err != nil {
		return a.oracleFailure(protocol.TaskEssay, err)
	}

	return a.parser.Essay(raw)
}

// Explain answers a question about the stored analysis and modified resume.
// At least one of them must hold real content.
func (a *assistantService) Explain(ctx context.Context, app ApplicationContext, in ExplanationInput) protocol.Result {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return protocol.NewFailure(protocol.TaskExplanation, protocol.ReasonMissingInput, "question", protocol.MissingInputPlaceholder("question"))
	}

	in.Query = query
	in.Analysis = contextText(in.Analysis, protocol.AnalysisBlock)
	in.Modification = contextText(in.Modification, protocol.ModificationBlock)
	if in.Analysis == "" && in.Modification == "" {
		return protocol.NewFailure(protocol.TaskExplanation, protocol.ReasonMissingInput, "analysis or modified resume",
			protocol.MissingInputPlaceholder("analysis or modified resume"))
	}

	a.logger.Info("🤖 Explaining", zap.Int("query_chars", len(query)))
	raw, err := a.generator.GenerateText(ctx, a.promptBuilder.BuildExplanationPrompt(app, in), a.cfg.ExplanationTemperature)
	if err != nil {
		return a.oracleFailure(protocol.TaskExplanation, err)
	}

	return a.parser.Explanation(raw)
}

// secondStageFailure reports a failed modification stage under its own
// reason, keeping whatever analysis the first stage produced.
func (a *assistantService) secondStageFailure(cleanedAnalysis string, failure *protocol.Result) protocol.Result {
	r := protocol.NewFailure(protocol.TaskAnalysis, failure.Failure.Reason, failure.Failure.Detail, failure.Modification)
	if partial := a.parser.AnalysisAndModification(cleanedAnalysis); !partial.Failed() {
		r.Analysis = partial.Analysis
	}
	return r
}

func (a *assistantService) guidance(ctx context.Context, docType string, app ApplicationContext) string {
	if a.retriever == nil {
		return ""
	}

	text, err := a.retriever.Retrieve(ctx, a.promptBuilder.BuildGuidanceQuery(docType, app), docType)
	if err != nil {
		a.logger.Warn("⚠️ Guidance retrieval failed, continuing without it",
			zap.String("doc_type", docType),
			zap.Error(err),
		)
		return ""
	}
	return text
}

func (a *assistantService) oracleFailure(kind protocol.TaskKind, err error) protocol.Result {
	if errors.Is(err, ErrUnexpectedResponse) {
		a.logger.Error("❌ Unexpected result format", zap.String("task", string(kind)), zap.Error(err))
		return protocol.NewFailure(kind, protocol.ReasonUnexpectedFormat, err.Error(), protocol.PlaceholderUnexpectedFormat)
	}

	a.logger.Error("❌ Generator call failed", zap.String("task", string(kind)), zap.Error(err))
	return protocol.NewFailure(kind, protocol.ReasonOracleError, err.Error(), protocol.OraclePlaceholder(err))
}

func requireInputs(kind protocol.TaskKind, app ApplicationContext) (protocol.Result, bool) {
	switch {
	case strings.TrimSpace(app.Resume) == "":
		return protocol.NewFailure(kind, protocol.ReasonMissingInput, "resume", protocol.MissingInputPlaceholder("resume")), true
	case strings.TrimSpace(app.JobDescription) == "":
		return protocol.NewFailure(kind, protocol.ReasonMissingInput, "job description", protocol.MissingInputPlaceholder("job description")), true
	}
	return protocol.Result{}, false
}

// contextText strips block markers from stored context and drops
// placeholders, so only real content reaches a prompt.
func contextText(text string, block protocol.Block) string {
	text = strings.TrimSpace(protocol.Unwrap(text, block))
	if protocol.IsPlaceholder(text) {
		return ""
	}
	return text
}
