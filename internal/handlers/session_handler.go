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
	"alfredoptarigan/job-application-agent/internal/services"
)

type SessionHandler struct {
	sessionRepo repositories.SessionRepository
	docRepo     repositories.DocumentRepository
	docParser   services.DocumentParserService
	logger      *zap.Logger
}

func NewSessionHandler(
	sessionRepo repositories.SessionRepository,
	docRepo repositories.DocumentRepository,
	docParser services.DocumentParserService,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionRepo: sessionRepo,
		docRepo:     docRepo,
		docParser:   docParser,
		logger:      logger,
	}
}

// HandleCreate opens a session from an uploaded resume or inline resume text
// and the target job description.
func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "job_description is required")
	}

	session := &models.Session{
		ID:             uuid.New(),
		JobTitle:       strings.TrimSpace(req.JobTitle),
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
	}

	switch {
	case req.ResumeDocumentID != "":
		docID, err := uuid.Parse(req.ResumeDocumentID)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid resume_document_id format")
		}

		doc, err := h.docRepo.FindByID(docID)
		if err != nil {
			return lookupError(c, err, "resume document")
		}

		text, err := h.docParser.ExtractText(doc.FilePath)
		if err != nil {
			h.logger.Warn("⚠️ Failed to read resume document", zap.String("document_id", docID.String()), zap.Error(err))
			return errorJSON(c, fiber.StatusUnprocessableEntity, "could not read text from resume document")
		}

		session.ResumeDocumentID = &docID
		session.ResumeText = text
	case strings.TrimSpace(req.ResumeText) == "":
		return errorJSON(c, fiber.StatusBadRequest, "resume_document_id or resume_text is required")
	}

	if strings.TrimSpace(session.ResumeText) == "" {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "resume contains no text")
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := h.sessionRepo.Create(session); err != nil {
		h.logger.Error("❌ Failed to create session", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to create session")
	}

	h.logger.Info("🆕 Session created",
		zap.String("session_id", session.ID.String()),
		zap.String("job_title", session.JobTitle),
	)

	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
}

func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "session")
	if err != nil {
		return err
	}

	session, err := h.sessionRepo.FindByID(id)
	if err != nil {
		return lookupError(c, err, "session")
	}

	return c.JSON(toSessionResponse(session))
}

// HandleGetResume returns the latest modified resume line by line, with the
// change tag of every line.
func (h *SessionHandler) HandleGetResume(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "session")
	if err != nil {
		return err
	}

	session, err := h.sessionRepo.FindByID(id)
	if err != nil {
		return lookupError(c, err, "session")
	}

	if session.Modification == nil {
		return errorJSON(c, fiber.StatusConflict, "session has no modified resume yet")
	}

	lines := protocol.ParseMarkedResume(protocol.Unwrap(*session.Modification, protocol.ModificationBlock))

	return c.JSON(models.ResumeViewResponse{
		SessionID: session.ID.String(),
		Lines:     lines,
		PlainText: lines.PlainText(),
	})
}

func toSessionResponse(s *models.Session) models.SessionResponse {
	resp := models.SessionResponse{
		ID:             s.ID.String(),
		JobTitle:       s.JobTitle,
		JobDescription: s.JobDescription,
		ResumeLength:   len([]rune(s.ResumeText)),
		HasContext:     s.HasContext(),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Analysis != nil {
		resp.Analysis = protocol.Unwrap(*s.Analysis, protocol.AnalysisBlock)
	}
	if s.Modification != nil {
		resp.Modification = protocol.Unwrap(*s.Modification, protocol.ModificationBlock)
	}
	return resp
}
