package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
	"alfredoptarigan/job-application-agent/internal/repositories"
	"alfredoptarigan/job-application-agent/internal/services"
)

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

func newStubSessionRepo(sessions ...*models.Session) *stubSessionRepo {
	r := &stubSessionRepo{sessions: make(map[uuid.UUID]*models.Session)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *stubSessionRepo) Create(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *stubSessionRepo) FindByID(id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, repositories.ErrNotFound)
	}
	return s, nil
}

func (r *stubSessionRepo) UpdateContext(uuid.UUID, *repositories.SessionContextUpdate) error {
	return nil
}

type stubTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newStubTaskRepo(tasks ...*models.Task) *stubTaskRepo {
	r := &stubTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *stubTaskRepo) Create(task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

func (r *stubTaskRepo) FindByID(id uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, repositories.ErrNotFound)
	}
	return t, nil
}

func (r *stubTaskRepo) Claim(uuid.UUID) (bool, error) { return false, nil }

func (r *stubTaskRepo) SaveResult(uuid.UUID, protocol.Result, int) error { return nil }

func (r *stubTaskRepo) UpdateError(uuid.UUID, string) error { return nil }

func (r *stubTaskRepo) FindPendingTasks(int, time.Duration) ([]models.Task, error) {
	return nil, nil
}

func (r *stubTaskRepo) FindQueuedBySession(uuid.UUID, time.Time) ([]models.Task, error) {
	return nil, nil
}

func (r *stubTaskRepo) FindStuckTasks(int, time.Duration) ([]models.Task, error) {
	return nil, nil
}

func (r *stubTaskRepo) Requeue(uuid.UUID, time.Duration) (bool, error) { return false, nil }

func (r *stubTaskRepo) only() *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		return t
	}
	return nil
}

type stubDocumentRepo struct {
	docs      map[uuid.UUID]*models.Document
	createErr error
}

func (r *stubDocumentRepo) Create(doc *models.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.docs == nil {
		r.docs = make(map[uuid.UUID]*models.Document)
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *stubDocumentRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, repositories.ErrNotFound)
	}
	return d, nil
}

type stubDocParser struct {
	texts map[string]string
}

func (p *stubDocParser) ExtractText(filePath string) (string, error) {
	text, ok := p.texts[filePath]
	if !ok {
		return "", fmt.Errorf("cannot open %s", filePath)
	}
	return text, nil
}

func (p *stubDocParser) ExtractTextWithMetaData(filePath string) (*services.DocumentContent, error) {
	text, err := p.ExtractText(filePath)
	if err != nil {
		return nil, err
	}
	return &services.DocumentContent{Text: text, FilePath: filePath}, nil
}

type stubStorage struct {
	saved   []string
	deleted []string
}

func (s *stubStorage) SaveFile(file *multipart.FileHeader, fileType string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !services.IsSupportedExtension(ext) {
		return "", "", &services.UnsupportedFileError{Ext: ext}
	}
	name := fileType + "_" + uuid.NewString() + ext
	s.saved = append(s.saved, name)
	return name, "/uploads/" + name, nil
}

func (s *stubStorage) GetFilePath(filename string) string { return "/uploads/" + filename }

func (s *stubStorage) DeleteFile(filename string) error {
	s.deleted = append(s.deleted, filename)
	return nil
}

func (s *stubStorage) EnsureUploadDir() error { return nil }

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingQueue) EnqueueTask(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
}
