package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// IngestReport summarizes one ingested guidance file.
type IngestReport struct {
	SourceID string
	Pages    int
	Chunks   int
	Stored   int
}

// GuideIngester loads reference guidance into the vector store.
type GuideIngester interface {
	IngestFile(ctx context.Context, path string, docType string) (*IngestReport, error)
}

type guideIngester struct {
	parser   DocumentParserService
	chunker  TextChunker
	embedder Embedder
	qdrant   QdrantService
	logger   *zap.Logger
}

func NewGuideIngester(
	parser DocumentParserService,
	chunker TextChunker,
	embedder Embedder,
	qdrant QdrantService,
	logger *zap.Logger,
) GuideIngester {
	return &guideIngester{
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
		qdrant:   qdrant,
		logger:   logger.Named("ingest"),
	}
}

// SourceID names the chunks of one file. Re-ingesting the same file replaces
// its earlier chunks.
func SourceID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IngestFile implements GuideIngester. Chunks that fail to embed or store are
// skipped; the report says how many made it.
func (g *guideIngester) IngestFile(ctx context.Context, path string, docType string) (*IngestReport, error) {
	if docType != GuideTypeResume && docType != GuideTypeEssay {
		return nil, fmt.Errorf("unknown guide type %q: expected %s or %s", docType, GuideTypeResume, GuideTypeEssay)
	}

	content, err := g.parser.ExtractTextWithMetaData(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	report := &IngestReport{SourceID: SourceID(path), Pages: content.PageCount}

	chunks := g.chunker.ChunkText(content.Text, DefaultChunkSize, DefaultChunkOverlap)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, nil
	}

	if err := g.qdrant.DeleteDocument(ctx, report.SourceID); err != nil {
		return nil, fmt.Errorf("failed to remove previous chunks: %w", err)
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		embedding, err := g.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			g.logger.Warn("⚠️ Failed to embed chunk", zap.String("source", report.SourceID), zap.Int("chunk", i+1), zap.Error(err))
			continue
		}

		if err := g.qdrant.UpsertDocument(ctx, report.SourceID, docType, chunk, embedding); err != nil {
			g.logger.Warn("⚠️ Failed to store chunk", zap.String("source", report.SourceID), zap.Int("chunk", i+1), zap.Error(err))
			continue
		}
		report.Stored++
	}

	g.logger.Info("✅ Guidance ingested",
		zap.String("source", report.SourceID),
		zap.String("doc_type", docType),
		zap.Int("chunks", report.Chunks),
		zap.Int("stored", report.Stored),
	)

	return report, nil
}
