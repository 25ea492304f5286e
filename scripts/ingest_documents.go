package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/config"
	"alfredoptarigan/job-application-agent/internal/services"
)

var (
	guideType string
	guideDir  string
)

var rootCmd = &cobra.Command{
	Use:   "ingest_documents [files...]",
	Short: "Load resume and essay writing guides into Qdrant",
	Long: "Extracts text from PDF/DOCX guides, chunks it, embeds every chunk with Gemini and stores it " +
		"in the Qdrant guidance collection. Without file arguments every supported file in --dir is ingested.",
	RunE: runIngest,
}

func init() {
	rootCmd.Flags().StringVarP(&guideType, "type", "t", services.GuideTypeResume,
		fmt.Sprintf("guide type: %s or %s", services.GuideTypeResume, services.GuideTypeEssay))
	rootCmd.Flags().StringVarP(&guideDir, "dir", "d", "./reference_docs", "directory scanned when no files are given")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("🚀 Starting guidance ingestion", zap.String("doc_type", guideType))

	files := args
	if len(files) == 0 {
		files, err = supportedFiles(guideDir)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no .pdf or .docx files to ingest in %s", guideDir)
	}

	gemini, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, cfg.Gemini.MaxOutputTokens, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini: %w", err)
	}

	qdrant, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Qdrant: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := qdrant.InitCollection(ctx); err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}

	ingester := services.NewGuideIngester(
		services.NewDocumentParserService(),
		services.NewTextChunker(),
		gemini,
		qdrant,
		logger,
	)

	var failed []string
	for _, path := range files {
		logger.Info("📄 Processing guide", zap.String("path", path))

		report, err := ingester.IngestFile(ctx, path, guideType)
		if err != nil {
			logger.Error("❌ Failed to ingest guide", zap.String("path", path), zap.Error(err))
			failed = append(failed, path)
			continue
		}
		if report.Stored < report.Chunks {
			logger.Warn("⚠️ Some chunks were not stored",
				zap.String("path", path),
				zap.Int("stored", report.Stored),
				zap.Int("chunks", report.Chunks),
			)
			failed = append(failed, path)
		}
	}

	logger.Info("📊 Ingestion summary",
		zap.Int("successful", len(files)-len(failed)),
		zap.Int("failed", len(failed)),
	)

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d guides failed: %s", len(failed), len(files), strings.Join(failed, ", "))
	}

	logger.Info("✅ All guides ingested successfully")
	return nil
}

func supportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !services.IsSupportedExtension(strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
