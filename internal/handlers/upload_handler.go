package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/repositories"
	"alfredoptarigan/job-application-agent/internal/services"
)

const resumeField = "resume"

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
	logger *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		logger:         logger,
	}
}

// HandleUpload stores one resume file sent as the "resume" multipart field.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	files, exists := form.File[resumeField]
	if !exists || len(files) == 0 {
		return errorJSON(c, fiber.StatusBadRequest,
			fmt.Sprintf("No resume uploaded. Please upload '%s' as a PDF or DOCX file.", resumeField))
	}

	file := files[0]
	if file.Size > h.maxFileSize {
		return errorJSON(c, fiber.StatusBadRequest,
			fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize))
	}

	doc, err := h.store(file)
	if err != nil {
		var unsupported *services.UnsupportedFileError
		if errors.As(err, &unsupported) {
			return errorJSON(c, fiber.StatusBadRequest, unsupported.Error())
		}
		h.logger.Error("❌ Failed to store resume", zap.String("filename", file.Filename), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to save resume file")
	}

	h.logger.Info("📄 Resume uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.OriginalFileName),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "File uploaded successfully",
		"documents": []models.UploadResponse{{
			ID:           doc.ID.String(),
			Filename:     doc.Filename,
			OriginalName: doc.OriginalFileName,
			FileType:     doc.FileType,
			Format:       doc.Format,
			SizeBytes:    doc.SizeBytes,
		}},
	})
}

// store saves the file and its record, removing the file again if the record
// cannot be written.
func (h *UploadHandler) store(file *multipart.FileHeader) (*models.Document, error) {
	filename, filePath, err := h.storageService.SaveFile(file, resumeField)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &models.Document{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: file.Filename,
		FileType:         resumeField,
		Format:           strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		SizeBytes:        file.Size,
		FilePath:         filePath,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.docRepo.Create(doc); err != nil {
		if delErr := h.storageService.DeleteFile(filename); delErr != nil {
			h.logger.Warn("⚠️ Failed to clean up orphaned upload", zap.String("filename", filename), zap.Error(delErr))
		}
		return nil, err
	}

	return doc, nil
}
