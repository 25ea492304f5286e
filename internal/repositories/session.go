package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/job-application-agent/internal/models"
)

type SessionRepository interface {
	Create(session *models.Session) error
	FindByID(id uuid.UUID) (*models.Session, error)
	UpdateContext(id uuid.UUID, data *SessionContextUpdate) error
}

// SessionContextUpdate carries the context slots a finished task produced.
// Nil fields are left untouched.
type SessionContextUpdate struct {
	Analysis     *string
	Modification *string
}

// Empty reports whether the update would change nothing.
func (u *SessionContextUpdate) Empty() bool {
	return u == nil || (u.Analysis == nil && u.Modification == nil)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateContext(id uuid.UUID, data *SessionContextUpdate) error {
	if data.Empty() {
		return nil
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if data.Analysis != nil {
		updates["analysis"] = *data.Analysis
	}
	if data.Modification != nil {
		updates["modification"] = *data.Modification
	}

	result := r.db.Model(&models.Session{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update session context: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	return nil
}
