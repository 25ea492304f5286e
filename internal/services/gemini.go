package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrUnexpectedResponse is returned when the model answered but the answer
// carried no text to parse.
var ErrUnexpectedResponse = errors.New("unexpected response shape from model")

// TextGenerator is the text-in/text-out oracle the assistant drives.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder turns text into a vector for guidance retrieval.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	TextGenerator
	Embedder
}

type geminiService struct {
	client          *genai.Client
	modelName       string
	embedModel      string
	maxOutputTokens int32
	logger          *zap.Logger
}

const maxEmbeddingInput = 40000

func NewGeminiService(apiKey, modelName, embedModel string, maxOutputTokens int32, logger *zap.Logger) (GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:          client,
		modelName:       modelName,
		embedModel:      embedModel,
		maxOutputTokens: maxOutputTokens,
		logger:          logger.Named("gemini"),
	}, nil
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// ~10k tokens is the embedding model's input ceiling.
	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements TextGenerator. A response without text yields
// ErrUnexpectedResponse instead of a stringified candidate.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxOutputTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.logger.Error("❌ Gemini API error", zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		g.logger.Error("❌ Gemini API returned nil response")
		return "", fmt.Errorf("nil response: %w", ErrUnexpectedResponse)
	}

	text := resp.Text()
	if text == "" {
		var finishReason string
		if len(resp.Candidates) > 0 {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		g.logger.Warn("⚠️ Gemini response had no text",
			zap.Int("candidates", len(resp.Candidates)),
			zap.String("finish_reason", finishReason),
		)
		return "", fmt.Errorf("no text content (finish reason %q): %w", finishReason, ErrUnexpectedResponse)
	}

	g.logger.Debug("📊 Gemini response received",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
	)

	return text, nil
}
