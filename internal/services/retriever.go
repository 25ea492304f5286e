package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const defaultGuidanceLimit = 3

// ContextRetriever looks up reference guidance relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, docType string) (string, error)
}

type guidanceRetriever struct {
	embedder Embedder
	qdrant   QdrantService
	limit    int
	logger   *zap.Logger
}

func NewContextRetriever(embedder Embedder, qdrant QdrantService, limit int, logger *zap.Logger) ContextRetriever {
	if limit <= 0 {
		limit = defaultGuidanceLimit
	}
	return &guidanceRetriever{
		embedder: embedder,
		qdrant:   qdrant,
		limit:    limit,
		logger:   logger.Named("retriever"),
	}
}

// Retrieve implements ContextRetriever. It returns "" when nothing matched.
func (r *guidanceRetriever) Retrieve(ctx context.Context, query string, docType string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.qdrant.SearchSimilar(ctx, embedding, docType, r.limit)
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", docType, err)
	}

	r.logger.Debug("🔍 Guidance retrieved",
		zap.String("doc_type", docType),
		zap.Int("results", len(results)),
	)

	return FormatGuidance(results), nil
}

// FormatGuidance renders search results as numbered excerpts for a prompt.
func FormatGuidance(results []SearchResult) string {
	var parts []string
	for _, result := range results {
		text := strings.TrimSpace(result.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Guidance %d (score %.2f) ---\n%s", len(parts)+1, result.Score, text))
	}

	return strings.Join(parts, "\n\n")
}
