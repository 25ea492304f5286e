package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
	"alfredoptarigan/job-application-agent/internal/repositories"
)

// TaskQueue accepts task IDs for background processing. services.Worker
// satisfies it.
type TaskQueue interface {
	EnqueueTask(taskID uuid.UUID)
}

type TaskHandler struct {
	sessionRepo repositories.SessionRepository
	taskRepo    repositories.TaskRepository
	queue       TaskQueue
	logger      *zap.Logger
}

func NewTaskHandler(
	sessionRepo repositories.SessionRepository,
	taskRepo repositories.TaskRepository,
	queue TaskQueue,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
		queue:       queue,
		logger:      logger,
	}
}

// HandleAnalyze queues the analysis and modification task for a session.
func (h *TaskHandler) HandleAnalyze(c *fiber.Ctx) error {
	session, err := h.loadSession(c)
	if session == nil {
		return err
	}

	return h.submit(c, &models.Task{
		SessionID: session.ID,
		Kind:      protocol.TaskAnalysis,
	}, "")
}

// HandleFeedback queues a modification of the latest resume using the user's
// feedback.
func (h *TaskHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "feedback is required")
	}

	session, err := h.loadSession(c)
	if session == nil {
		return err
	}

	return h.submit(c, &models.Task{
		SessionID: session.ID,
		Kind:      protocol.TaskModification,
		Input:     req.Feedback,
	}, "")
}

func (h *TaskHandler) HandleEssay(c *fiber.Ctx) error {
	var req models.EssayRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.loadSession(c)
	if session == nil {
		return err
	}

	return h.submit(c, &models.Task{
		SessionID:       session.ID,
		Kind:            protocol.TaskEssay,
		Input:           req.Question,
		UserInput:       req.UserInput,
		ExperienceLevel: req.ExperienceLevel,
	}, "")
}

// HandleChat routes a free-text follow-up to either a modification or an
// explanation. It needs an earlier analysis or modification to refer to.
func (h *TaskHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "message is required")
	}

	session, err := h.loadSession(c)
	if session == nil {
		return err
	}

	if !session.HasContext() {
		return errorJSON(c, fiber.StatusConflict, "run an analysis before chatting about the resume")
	}

	intent, rule := protocol.RouteChatRule(req.Message)
	h.logger.Debug("🧭 Chat message routed",
		zap.String("session_id", session.ID.String()),
		zap.String("intent", string(intent)),
		zap.String("rule", rule),
	)

	return h.submit(c, &models.Task{
		SessionID: session.ID,
		Kind:      intent.TaskKind(),
		Input:     req.Message,
	}, intent)
}

// loadSession returns nil and the already written error response when the
// session cannot be loaded.
func (h *TaskHandler) loadSession(c *fiber.Ctx) (*models.Session, error) {
	id, err := parseIDParam(c, "session")
	if err != nil {
		return nil, err
	}

	session, err := h.sessionRepo.FindByID(id)
	if err != nil {
		return nil, lookupError(c, err, "session")
	}

	return session, nil
}

func (h *TaskHandler) submit(c *fiber.Ctx, task *models.Task, intent protocol.Intent) error {
	now := time.Now()
	task.ID = uuid.New()
	task.Status = models.StatusQueued
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := h.taskRepo.Create(task); err != nil {
		h.logger.Error("❌ Failed to create task", zap.String("kind", string(task.Kind)), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to create task")
	}

	h.queue.EnqueueTask(task.ID)

	h.logger.Info("📥 Task queued",
		zap.String("task_id", task.ID.String()),
		zap.String("session_id", task.SessionID.String()),
		zap.String("kind", string(task.Kind)),
	)

	return c.Status(fiber.StatusAccepted).JSON(models.TaskResponse{
		ID:     task.ID.String(),
		Kind:   string(task.Kind),
		Status: string(task.Status),
		Intent: string(intent),
	})
}
