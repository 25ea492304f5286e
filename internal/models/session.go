package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one application: a resume aimed at one job posting, plus the
// latest analysis and modified resume produced for it. Analysis and
// Modification only ever hold real content, never failure placeholders.
type Session struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ResumeDocumentID *uuid.UUID `gorm:"type:uuid" json:"resume_document_id,omitempty"`
	JobTitle         string     `gorm:"type:text" json:"job_title"`
	JobDescription   string     `gorm:"type:text;not null" json:"job_description"`
	ResumeText       string     `gorm:"type:text;not null" json:"-"`
	Analysis         *string    `gorm:"type:text" json:"analysis,omitempty"`
	Modification     *string    `gorm:"type:text" json:"modification,omitempty"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	ResumeDocument *Document `gorm:"foreignKey:ResumeDocumentID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// HasContext reports whether the session holds an analysis or a modified
// resume that follow-up tasks can build on.
func (s *Session) HasContext() bool {
	return s.Analysis != nil || s.Modification != nil
}
