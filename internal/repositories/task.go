package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
)

type TaskRepository interface {
	Create(task *models.Task) error
	FindByID(id uuid.UUID) (*models.Task, error)
	Claim(id uuid.UUID) (bool, error)
	SaveResult(id uuid.UUID, result protocol.Result, attempts int) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingTasks(limit int, olderThan time.Duration) ([]models.Task, error)
	FindQueuedBySession(sessionID uuid.UUID, createdUpTo time.Time) ([]models.Task, error)
	FindStuckTasks(limit int, stuckAfter time.Duration) ([]models.Task, error)
	Requeue(id uuid.UUID, stuckAfter time.Duration) (bool, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *models.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) FindByID(id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Claim moves a queued task to processing. It returns false when another
// worker got there first or the task is no longer queued.
func (r *taskRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Task{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim task: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// SaveResult stores the final result and completes the task. Failure results
// are stored as completed with the failure columns set.
func (r *taskRepository) SaveResult(id uuid.UUID, res protocol.Result, attempts int) error {
	updates := map[string]interface{}{
		"status":      models.StatusCompleted,
		"result_kind": string(res.Kind),
		"attempts":    attempts,
		"updated_at":  time.Now(),
	}

	if res.Analysis != "" {
		updates["analysis"] = res.Analysis
	}
	if res.Modification != "" {
		updates["modification"] = res.Modification
	}
	if res.Text != "" {
		updates["text"] = res.Text
	}
	if res.Failure != nil {
		updates["failure_reason"] = string(res.Failure.Reason)
		updates["failure_detail"] = res.Failure.Detail
	}

	result := r.db.Model(&models.Task{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to save result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *taskRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	return nil
}

// FindPendingTasks returns queued tasks created before olderThan ago, oldest
// first. Fresh tasks are skipped since they are still in the in-memory queue.
func (r *taskRepository) FindPendingTasks(limit int, olderThan time.Duration) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("status = ? AND created_at < ?", models.StatusQueued, time.Now().Add(-olderThan)).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending tasks: %w", err)
	}

	return tasks, nil
}

// FindQueuedBySession returns the session's queued tasks created at or before
// createdUpTo, oldest first.
func (r *taskRepository) FindQueuedBySession(sessionID uuid.UUID, createdUpTo time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("session_id = ? AND status = ? AND created_at <= ?", sessionID, models.StatusQueued, createdUpTo).
		Order("created_at ASC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find session tasks: %w", err)
	}

	return tasks, nil
}

// FindStuckTasks returns processing tasks untouched for longer than
// stuckAfter, typically left behind by a process that died mid-run.
func (r *taskRepository) FindStuckTasks(limit int, stuckAfter time.Duration) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("status = ? AND updated_at < ?", models.StatusProcessing, time.Now().Add(-stuckAfter)).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find stuck tasks: %w", err)
	}

	return tasks, nil
}

// Requeue moves a stuck processing task back to queued. It returns false when
// the task finished or was touched again in the meantime.
func (r *taskRepository) Requeue(id uuid.UUID, stuckAfter time.Duration) (bool, error) {
	result := r.db.Model(&models.Task{}).
		Where("id = ? AND status = ? AND updated_at < ?", id, models.StatusProcessing, time.Now().Add(-stuckAfter)).
		Updates(map[string]interface{}{
			"status":     models.StatusQueued,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to requeue task: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
