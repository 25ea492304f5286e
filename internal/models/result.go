package models

import "alfredoptarigan/job-application-agent/internal/protocol"

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
	Format       string `json:"format"`
	SizeBytes    int64  `json:"size_bytes"`
}

// CreateSessionRequest needs either an uploaded resume document or the resume
// as plain text.
type CreateSessionRequest struct {
	ResumeDocumentID string `json:"resume_document_id" validate:"omitempty,uuid"`
	ResumeText       string `json:"resume_text"`
	JobTitle         string `json:"job_title"`
	JobDescription   string `json:"job_description" validate:"required"`
}

type SessionResponse struct {
	ID             string `json:"id"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
	ResumeLength   int    `json:"resume_length"`
	Analysis       string `json:"analysis,omitempty"`
	Modification   string `json:"modification,omitempty"`
	HasContext     bool   `json:"has_context"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ResumeViewResponse struct {
	SessionID string                `json:"session_id"`
	Lines     protocol.MarkedResume `json:"lines"`
	PlainText string                `json:"plain_text"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

type EssayRequest struct {
	Question        string `json:"question"`
	UserInput       string `json:"user_input"`
	ExperienceLevel string `json:"experience_level"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type TaskResponse struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Intent string `json:"intent,omitempty"`
}

type TaskResultResponse struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id"`
	Kind         string           `json:"kind"`
	Status       string           `json:"status"`
	Attempts     int              `json:"attempts"`
	Result       *protocol.Result `json:"result,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
}
