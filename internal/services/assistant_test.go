package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/config"
	"alfredoptarigan/job-application-agent/internal/protocol"
)

// fakeGenerator replays canned responses in order and records every prompt.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i+1)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeRetriever struct {
	text    string
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, docType string) (string, error) {
	f.queries = append(f.queries, docType+":"+query)
	return f.text, f.err
}

var testApp = ApplicationContext{
	Resume:         "Jane Doe\nBackend engineer, 5 years of Go.",
	JobTitle:       "Platform Engineer",
	JobDescription: "We need Go, Kubernetes and Postgres experience.",
}

func newTestAssistant(gen TextGenerator, retriever ContextRetriever) AssistantService {
	cfg := config.AssistantConfig{
		AnalysisTemperature:     0.3,
		ModificationTemperature: 0.4,
		EssayTemperature:        0.7,
		ExplanationTemperature:  0.5,
	}
	return NewAssistantService(gen, retriever, cfg, zap.NewNop())
}

func TestAnalyzeAndModify_TwoStages(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"Okay, here's the analysis:\n" + protocol.AnalysisBlock.Wrap("Good fit."),
		protocol.ModificationBlock.Wrap("@@NAME@@ Jane"),
	}}

	r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)

	require.Equal(t, protocol.KindAnalysis, r.Kind)
	assert.Equal(t, "Good fit.", r.Analysis)
	assert.Equal(t, "@@NAME@@ Jane", r.Modification)
	require.Equal(t, 2, gen.calls())
	assert.Contains(t, gen.prompts[1], "Good fit.")
	assert.NotContains(t, gen.prompts[1], protocol.AnalysisStart)
}

func TestAnalyzeAndModify_UnmarkedAnalysisIsSynthesized(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"The resume matches most requirements.",
		"Sure, " + protocol.ModificationBlock.Wrap("@@NAME@@ Jane"),
	}}

	r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)

	require.Equal(t, protocol.KindAnalysis, r.Kind)
	assert.Equal(t, protocol.AnalysisBlock.Wrap("The resume matches most requirements."), r.Analysis)
	assert.Equal(t, "@@NAME@@ Jane", r.Modification)
}

func TestAnalyzeAndModify_SecondStageErrorKeepsAnalysis(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{protocol.AnalysisBlock.Wrap("Good fit.")},
		errs:      []error{nil, errors.New("rate limited")},
	}

	r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)

	require.Equal(t, protocol.KindAnalysis, r.Kind)
	assert.Equal(t, "Good fit.", r.Analysis)
	assert.Equal(t, "(Error: rate limited)", r.Modification)
}

func TestAnalyzeAndModify_FillerOnlyStopsAfterFirstStage(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I now can give a great answer"}}

	r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)

	require.True(t, r.Failed())
	assert.Equal(t, protocol.ReasonFillerOnly, r.Failure.Reason)
	assert.Equal(t, 1, gen.calls())
}

func TestAnalyzeAndModify_SecondStageFillerIsRetryable(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		protocol.AnalysisBlock.Wrap("Good fit."),
		"I now can give a great answer",
	}}

	r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)

	require.True(t, r.Failed())
	assert.Equal(t, protocol.ReasonFillerOnly, r.Failure.Reason)
	assert.True(t, r.Failure.Reason.Retryable())
	assert.Equal(t, "Good fit.", r.Analysis)
	assert.True(t, protocol.IsPlaceholder(r.Modification))
	assert.Contains(t, r.Modification, "I now can give a great answer")
	assert.Equal(t, 2, gen.calls())
}

func TestAnalyzeAndModify_MissingInputs(t *testing.T) {
	gen := &fakeGenerator{}
	assistant := newTestAssistant(gen, nil)

	r := assistant.AnalyzeAndModify(context.Background(), ApplicationContext{JobDescription: "jd"})
	require.True(t, r.Failed())
	assert.Equal(t, protocol.ReasonMissingInput, r.Failure.Reason)
	assert.Equal(t, "(No resume provided)", r.Analysis)

	r = assistant.AnalyzeAndModify(context.Background(), ApplicationContext{Resume: "cv"})
	assert.Equal(t, "(No job description provided)", r.Modification)

	assert.Zero(t, gen.calls())
}

func TestAnalyzeAndModify_OracleErrors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		gen := &fakeGenerator{errs: []error{errors.New("connection reset")}}
		r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)
		require.True(t, r.Failed())
		assert.Equal(t, protocol.ReasonOracleError, r.Failure.Reason)
		assert.True(t, protocol.IsPlaceholder(r.Analysis))
	})

	t.Run("unexpected shape", func(t *testing.T) {
		gen := &fakeGenerator{errs: []error{fmt.Errorf("no text: %w", ErrUnexpectedResponse)}}
		r := newTestAssistant(gen, nil).AnalyzeAndModify(context.Background(), testApp)
		require.True(t, r.Failed())
		assert.Equal(t, protocol.ReasonUnexpectedFormat, r.Failure.Reason)
		assert.Equal(t, protocol.PlaceholderUnexpectedFormat, r.Modification)
	})
}

func TestModifyWithFeedback_EmptyFeedbackNeverCallsGenerator(t *testing.T) {
	gen := &fakeGenerator{}

	for _, feedback := range []string{"", "   \n"} {
		r := newTestAssistant(gen, nil).ModifyWithFeedback(context.Background(), testApp, FeedbackInput{Feedback: feedback})

		require.True(t, r.Failed())
		assert.Equal(t, protocol.ReasonMissingInput, r.Failure.Reason)
		assert.Equal(t, protocol.PlaceholderNoFeedback, r.Modification)
	}
	assert.Zero(t, gen.calls())
}

func TestModifyWithFeedback_UsesUnwrappedAnalysis(t *testing.T) {
	gen := &fakeGenerator{responses: []string{protocol.ModificationBlock.Wrap("@@NAME@@ Jane\n@@BULLET@@ - Ran Kubernetes")}}

	r := newTestAssistant(gen, nil).ModifyWithFeedback(context.Background(), testApp, FeedbackInput{
		Analysis: protocol.AnalysisBlock.Wrap("Needs Kubernetes."),
		Feedback: "mention Kubernetes",
	})

	require.Equal(t, protocol.KindModifiedResume, r.Kind)
	assert.Equal(t, "@@NAME@@ Jane\n@@BULLET@@ - Ran Kubernetes", r.Modification)
	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.prompts[0], "Needs Kubernetes.")
	assert.Contains(t, gen.prompts[0], "mention Kubernetes")
	assert.NotContains(t, gen.prompts[0], protocol.AnalysisStart)
}

func TestModifyWithFeedback_PlaceholderAnalysisIsDropped(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"@@NAME@@ Jane"}}

	r := newTestAssistant(gen, nil).ModifyWithFeedback(context.Background(), testApp, FeedbackInput{
		Analysis: protocol.PlaceholderAnalysisMissing,
		Feedback: "shorter",
	})

	assert.Equal(t, protocol.KindModifiedResume, r.Kind)
	assert.NotContains(t, gen.prompts[0], protocol.PlaceholderAnalysisMissing)
}

func TestWriteEssay(t *testing.T) {
	t.Run("clarifying question", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"QUESTION: What metric did you improve?"}}
		r := newTestAssistant(gen, nil).WriteEssay(context.Background(), testApp, EssayInput{Question: "Describe an impact you had."})

		assert.Equal(t, protocol.KindClarifyingQuestion, r.Kind)
		assert.Equal(t, "QUESTION: What metric did you improve?", r.Text)
	})

	t.Run("essay with user input", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{protocol.EssayBlock.Wrap("I cut latency by 40%.")}}
		r := newTestAssistant(gen, nil).WriteEssay(context.Background(), testApp, EssayInput{
			Question:  "Describe an impact you had.",
			UserInput: "latency work at Acme",
		})

		assert.Equal(t, protocol.KindEssay, r.Kind)
		assert.Equal(t, "I cut latency by 40%.", r.Text)
		assert.Contains(t, gen.prompts[0], "latency work at Acme")
	})

	t.Run("experience level without user input", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{protocol.EssayBlock.Wrap("essay")}}
		newTestAssistant(gen, nil).WriteEssay(context.Background(), testApp, EssayInput{
			Question:        "Why us?",
			ExperienceLevel: "3",
		})

		assert.Contains(t, gen.prompts[0], "Assume 3 years of experience.")
	})

	t.Run("format violation", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"My passion for platforms started early."}}
		r := newTestAssistant(gen, nil).WriteEssay(context.Background(), testApp, EssayInput{Question: "Why us?"})

		require.True(t, r.Failed())
		assert.Equal(t, protocol.ReasonFormatViolation, r.Failure.Reason)
		assert.NotContains(t, r.Text, "passion")
	})

	t.Run("missing question", func(t *testing.T) {
		gen := &fakeGenerator{}
		r := newTestAssistant(gen, nil).WriteEssay(context.Background(), testApp, EssayInput{Question: " "})

		require.True(t, r.Failed())
		assert.Equal(t, "(No essay question provided)", r.Text)
		assert.Zero(t, gen.calls())
	})
}

func TestExplain(t *testing.T) {
	t.Run("strips markers from context", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"Sure, I added Kubernetes because the posting asks for it."}}
		r := newTestAssistant(gen, nil).Explain(context.Background(), testApp, ExplanationInput{
			Query:        "Why did you add Kubernetes?",
			Analysis:     protocol.AnalysisBlock.Wrap("Needs Kubernetes."),
			Modification: "@@NAME@@ Jane",
		})

		assert.Equal(t, protocol.KindExplanation, r.Kind)
		assert.Equal(t, "I added Kubernetes because the posting asks for it.", r.Text)
		assert.NotContains(t, gen.prompts[0], protocol.AnalysisStart)
		assert.Contains(t, gen.prompts[0], "Needs Kubernetes.")
	})

	t.Run("no valid context", func(t *testing.T) {
		gen := &fakeGenerator{}
		r := newTestAssistant(gen, nil).Explain(context.Background(), testApp, ExplanationInput{
			Query:        "Why?",
			Analysis:     protocol.PlaceholderAnalysisMissing,
			Modification: "",
		})

		require.True(t, r.Failed())
		assert.Equal(t, protocol.ReasonMissingInput, r.Failure.Reason)
		assert.Zero(t, gen.calls())
	})
}

func TestGuidanceIsAddedWhenRetrieved(t *testing.T) {
	gen := &fakeGenerator{responses: []string{protocol.EssayBlock.Wrap("essay")}}
	retriever := &fakeRetriever{text: "--- Guidance 1 (score 0.90) ---\nLead with the result."}

	newTestAssistant(gen, retriever).WriteEssay(context.Background(), testApp, EssayInput{Question: "Why us?"})

	require.Len(t, retriever.queries, 1)
	assert.True(t, strings.HasPrefix(retriever.queries[0], GuideTypeEssay+":"))
	assert.Contains(t, gen.prompts[0], "Lead with the result.")
}

func TestGuidanceFailureIsNotFatal(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"@@NAME@@ Jane"}}
	retriever := &fakeRetriever{err: errors.New("qdrant down")}

	r := newTestAssistant(gen, retriever).ModifyWithFeedback(context.Background(), testApp, FeedbackInput{Feedback: "shorter"})

	assert.Equal(t, protocol.KindModifiedResume, r.Kind)
	assert.NotContains(t, gen.prompts[0], "REFERENCE GUIDANCE")
}
