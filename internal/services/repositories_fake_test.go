package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
	"alfredoptarigan/job-application-agent/internal/repositories"
)

type memoryTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMemoryTaskRepo(tasks ...*models.Task) *memoryTaskRepo {
	r := &memoryTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *memoryTaskRepo) Create(task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *memoryTaskRepo) FindByID(id uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, repositories.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (r *memoryTaskRepo) Claim(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status != models.StatusQueued {
		return false, nil
	}
	t.Status = models.StatusProcessing
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryTaskRepo) SaveResult(id uuid.UUID, res protocol.Result, attempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	kind := string(res.Kind)
	t.Status = models.StatusCompleted
	t.ResultKind = &kind
	t.Attempts = attempts
	t.Analysis = optional(res.Analysis)
	t.Modification = optional(res.Modification)
	t.Text = optional(res.Text)
	if res.Failure != nil {
		reason := string(res.Failure.Reason)
		t.FailureReason = &reason
		t.FailureDetail = &res.Failure.Detail
	}
	return nil
}

func (r *memoryTaskRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = models.StatusFailed
	t.ErrorMessage = &errorMsg
	return nil
}

func (r *memoryTaskRepo) FindPendingTasks(limit int, olderThan time.Duration) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.Status == models.StatusQueued && time.Since(t.CreatedAt) >= olderThan && len(out) < limit {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memoryTaskRepo) FindQueuedBySession(sessionID uuid.UUID, createdUpTo time.Time) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.SessionID == sessionID && t.Status == models.StatusQueued && !t.CreatedAt.After(createdUpTo) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryTaskRepo) FindStuckTasks(limit int, stuckAfter time.Duration) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.Status == models.StatusProcessing && time.Since(t.UpdatedAt) > stuckAfter && len(out) < limit {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memoryTaskRepo) Requeue(id uuid.UUID, stuckAfter time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status != models.StatusProcessing || time.Since(t.UpdatedAt) <= stuckAfter {
		return false, nil
	}
	t.Status = models.StatusQueued
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryTaskRepo) get(id uuid.UUID) models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tasks[id]
}

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

func newMemorySessionRepo(sessions ...*models.Session) *memorySessionRepo {
	r := &memorySessionRepo{sessions: make(map[uuid.UUID]*models.Session)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *memorySessionRepo) Create(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *memorySessionRepo) FindByID(id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, repositories.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (r *memorySessionRepo) UpdateContext(id uuid.UUID, data *repositories.SessionContextUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if data.Analysis != nil {
		s.Analysis = data.Analysis
	}
	if data.Modification != nil {
		s.Modification = data.Modification
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
