package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
	"alfredoptarigan/job-application-agent/internal/repositories"
)

// TaskRunner executes one persisted task end to end.
type TaskRunner interface {
	Run(ctx context.Context, taskID uuid.UUID) error
}

// RetryPolicy bounds how often a retryable failure is re-run. The delay grows
// linearly with the attempt number.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

type taskRunner struct {
	taskRepo    repositories.TaskRepository
	sessionRepo repositories.SessionRepository
	assistant   AssistantService
	retry       RetryPolicy
	locks       *sessionLocks
	logger      *zap.Logger
}

func NewTaskRunner(
	taskRepo repositories.TaskRepository,
	sessionRepo repositories.SessionRepository,
	assistant AssistantService,
	retry RetryPolicy,
	logger *zap.Logger,
) TaskRunner {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &taskRunner{
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		assistant:   assistant,
		retry:       retry,
		locks:       newSessionLocks(),
		logger:      logger.Named("runner"),
	}
}

// Run executes the task under its session's lock. Tasks of one session never
// run concurrently since each may read context the previous one writes, and
// they run in creation order: queued tasks of the session created before this
// one are run first.
func (r *taskRunner) Run(ctx context.Context, taskID uuid.UUID) error {
	log := r.logger.With(zap.String("task_id", taskID.String()))

	task, err := r.taskRepo.FindByID(taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status != models.StatusQueued {
		log.Debug("task already claimed, skipping")
		return nil
	}

	unlock := r.locks.lock(task.SessionID)
	defer unlock()

	earlier, err := r.taskRepo.FindQueuedBySession(task.SessionID, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to list session tasks: %w", err)
	}
	for i := range earlier {
		if ctx.Err() != nil {
			break
		}
		if earlier[i].ID == taskID {
			continue
		}
		if err := r.claimAndRun(ctx, &earlier[i]); err != nil {
			log.Error("❌ Earlier session task failed", zap.String("earlier_task_id", earlier[i].ID.String()), zap.Error(err))
		}
	}

	return r.claimAndRun(ctx, task)
}

// claimAndRun runs one task if no other runner claimed it first. The caller
// holds the session lock.
func (r *taskRunner) claimAndRun(ctx context.Context, task *models.Task) error {
	log := r.logger.With(
		zap.String("task_id", task.ID.String()),
		zap.String("kind", string(task.Kind)),
		zap.String("session_id", task.SessionID.String()),
	)

	claimed, err := r.taskRepo.Claim(task.ID)
	if err != nil {
		return fmt.Errorf("failed to claim task: %w", err)
	}
	if !claimed {
		log.Debug("task already claimed, skipping")
		return nil
	}

	// Loaded under the lock so the previous task's context is visible.
	session, err := r.sessionRepo.FindByID(task.SessionID)
	if err != nil {
		r.fail(log, task.ID, fmt.Sprintf("session not found: %v", err))
		return fmt.Errorf("failed to get session: %w", err)
	}

	log.Info("🔄 Running task")
	result, attempts := r.execute(ctx, log, task, session)

	if err := ctx.Err(); err != nil && result.Failed() {
		r.fail(log, task.ID, fmt.Sprintf("cancelled: %v", err))
		return fmt.Errorf("task cancelled: %w", err)
	}

	if err := r.taskRepo.SaveResult(task.ID, result, attempts); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if update := contextUpdate(task.Kind, result); !update.Empty() {
		if err := r.sessionRepo.UpdateContext(task.SessionID, update); err != nil {
			return fmt.Errorf("failed to update session context: %w", err)
		}
	}

	if result.Failed() {
		log.Warn("⚠️ Task completed with failure",
			zap.String("reason", string(result.Failure.Reason)),
			zap.Int("attempts", attempts),
		)
	} else {
		log.Info("✅ Task completed", zap.String("result", string(result.Kind)), zap.Int("attempts", attempts))
	}
	return nil
}

func (r *taskRunner) execute(ctx context.Context, log *zap.Logger, task *models.Task, session *models.Session) (protocol.Result, int) {
	for attempt := 1; ; attempt++ {
		result := r.dispatch(ctx, task, session)
		if !result.Failed() || !result.Failure.Reason.Retryable() || attempt >= r.retry.MaxAttempts || ctx.Err() != nil {
			return result, attempt
		}

		delay := r.retry.InitialDelay * time.Duration(attempt)
		log.Warn("⚠️ Retryable failure, retrying",
			zap.String("reason", string(result.Failure.Reason)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return result, attempt
		case <-time.After(delay):
		}
	}
}

func (r *taskRunner) dispatch(ctx context.Context, task *models.Task, session *models.Session) protocol.Result {
	app := ApplicationContext{
		Resume:         session.ResumeText,
		JobTitle:       session.JobTitle,
		JobDescription: session.JobDescription,
	}

	switch task.Kind {
	case protocol.TaskAnalysis:
		return r.assistant.AnalyzeAndModify(ctx, app)
	case protocol.TaskModification:
		return r.assistant.ModifyWithFeedback(ctx, app, FeedbackInput{
			Analysis: deref(session.Analysis),
			Feedback: task.Input,
		})
	case protocol.TaskEssay:
		return r.assistant.WriteEssay(ctx, app, EssayInput{
			Question:        task.Input,
			UserInput:       task.UserInput,
			ExperienceLevel: task.ExperienceLevel,
		})
	case protocol.TaskExplanation:
		return r.assistant.Explain(ctx, app, ExplanationInput{
			Query:        task.Input,
			Analysis:     deref(session.Analysis),
			Modification: deref(session.Modification),
		})
	}
	return protocol.NewFailure(task.Kind, protocol.ReasonUnexpectedFormat, "unknown task kind "+string(task.Kind), protocol.PlaceholderUnexpectedFormat)
}

func (r *taskRunner) fail(log *zap.Logger, taskID uuid.UUID, msg string) {
	log.Error("❌ Task failed", zap.String("error", msg))
	if err := r.taskRepo.UpdateError(taskID, msg); err != nil {
		log.Error("❌ Failed to record task error", zap.Error(err))
	}
}

// contextUpdate picks the slots of result worth keeping as session context.
// Placeholders never overwrite earlier content.
func contextUpdate(kind protocol.TaskKind, result protocol.Result) *repositories.SessionContextUpdate {
	update := &repositories.SessionContextUpdate{}

	switch {
	case kind == protocol.TaskAnalysis && result.Kind == protocol.KindAnalysis:
		if !protocol.IsPlaceholder(result.Analysis) {
			update.Analysis = &result.Analysis
		}
		if !protocol.IsPlaceholder(result.Modification) {
			update.Modification = &result.Modification
		}
	case kind == protocol.TaskModification && result.Kind == protocol.KindModifiedResume:
		if !protocol.IsPlaceholder(result.Modification) {
			update.Modification = &result.Modification
		}
	}

	return update
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sessionLocks hands out one mutex per session, dropping it once no task
// holds or waits for it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

func (s *sessionLocks) lock(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
