package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded resume file kept on local disk. Sessions read its
// text once, at creation.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string    `gorm:"type:text;not null;uniqueIndex" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FileType         string    `gorm:"type:text;not null" json:"file_type"`
	Format           string    `gorm:"type:varchar(8)" json:"format"`
	SizeBytes        int64     `gorm:"not null;default:0" json:"size_bytes"`
	FilePath         string    `gorm:"type:text;not null" json:"-"`
	CreatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
