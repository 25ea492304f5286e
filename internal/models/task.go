package models

import (
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/job-application-agent/internal/protocol"
)

type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Task is one orchestrator run against a session. A run whose result is a
// protocol failure still completes; StatusFailed means the run itself could
// not be carried out.
type Task struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"session_id"`
	Kind            protocol.TaskKind `gorm:"type:text;not null" json:"kind"`
	Status          TaskStatus        `gorm:"not null;default:'queued';index" json:"status"`
	Input           string            `gorm:"type:text" json:"input,omitempty"`
	UserInput       string            `gorm:"type:text" json:"user_input,omitempty"`
	ExperienceLevel string            `gorm:"type:text" json:"experience_level,omitempty"`
	Attempts        int               `gorm:"not null;default:0" json:"attempts"`
	ResultKind      *string           `gorm:"type:text" json:"result_kind,omitempty"`
	Analysis        *string           `gorm:"type:text" json:"analysis,omitempty"`
	Modification    *string           `gorm:"type:text" json:"modification,omitempty"`
	Text            *string           `gorm:"type:text" json:"text,omitempty"`
	FailureReason   *string           `gorm:"type:text" json:"failure_reason,omitempty"`
	FailureDetail   *string           `gorm:"type:text" json:"failure_detail,omitempty"`
	ErrorMessage    *string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}
