package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/config"
	"alfredoptarigan/job-application-agent/internal/handlers"
	"alfredoptarigan/job-application-agent/internal/repositories"
	"alfredoptarigan/job-application-agent/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("✅ Config loaded successfully",
		zap.String("env", cfg.Server.Env),
		zap.Bool("env_file", cfg.EnvFileLoaded),
	)

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	logger.Info("✅ Repositories initialized successfully")

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		logger.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}
	docParser := services.NewDocumentParserService()

	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		cfg.Gemini.MaxOutputTokens,
		logger,
	)
	if err != nil {
		logger.Fatal("❌ Failed to initialize Gemini AI", zap.Error(err))
	}
	logger.Info("✅ Gemini AI initialized successfully", zap.String("model", cfg.Gemini.Model))

	var retriever services.ContextRetriever
	if cfg.Qdrant.Enabled {
		qdrantService, err := services.NewQdrantService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			logger,
		)
		if err != nil {
			logger.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
		}

		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = qdrantService.InitCollection(initCtx)
		cancel()
		if err != nil {
			logger.Fatal("❌ Failed to initialize Qdrant collection", zap.Error(err))
		}

		retriever = services.NewContextRetriever(geminiService, qdrantService, 0, logger)
		logger.Info("✅ Qdrant guidance retrieval enabled", zap.String("collection", cfg.Qdrant.Collection))
	} else {
		logger.Info("ℹ️ Qdrant disabled, prompts run without reference guidance")
	}

	assistant := services.NewAssistantService(geminiService, retriever, cfg.Assistant, logger)

	runner := services.NewTaskRunner(
		taskRepo,
		sessionRepo,
		assistant,
		services.RetryPolicy{
			MaxAttempts:  cfg.Worker.RetryMaxAttempts,
			InitialDelay: cfg.Worker.RetryInitialDelay,
		},
		logger,
	)

	worker := services.NewWorker(
		taskRepo,
		runner,
		services.WorkerOptions{
			Concurrency: cfg.Worker.Concurrency,
			StuckAfter:  cfg.Worker.StuckAfter,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize, logger)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, docRepo, docParser, logger)
	taskHandler := handlers.NewTaskHandler(sessionRepo, taskRepo, worker, logger)
	resultHandler := handlers.NewResultHandler(taskRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Job Application Agent API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: newErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now(),
			"guidance": cfg.Qdrant.Enabled,
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.HandleCreate)
	sessions.Get("/:id", sessionHandler.HandleGet)
	sessions.Get("/:id/resume", sessionHandler.HandleGetResume)
	sessions.Post("/:id/analyze", taskHandler.HandleAnalyze)
	sessions.Post("/:id/feedback", taskHandler.HandleFeedback)
	sessions.Post("/:id/essay", taskHandler.HandleEssay)
	sessions.Post("/:id/chat", taskHandler.HandleChat)

	api.Get("/tasks/:id", resultHandler.HandleGetResult)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Job Application Agent API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/upload",
				"POST /api/v1/sessions",
				"GET /api/v1/sessions/:id",
				"GET /api/v1/sessions/:id/resume",
				"POST /api/v1/sessions/:id/analyze",
				"POST /api/v1/sessions/:id/feedback",
				"POST /api/v1/sessions/:id/essay",
				"POST /api/v1/sessions/:id/chat",
				"GET /api/v1/tasks/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			logger.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

func newErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("❌ Unhandled request error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}
}
