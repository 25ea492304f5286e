package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, fileType string) (string, string, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

// UnsupportedFileError is returned by SaveFile for files the document parser
// cannot read: an unknown extension, or content that does not match it.
type UnsupportedFileError struct {
	Ext         string
	ContentType string
}

func (e *UnsupportedFileError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("file content (%s) does not match extension %q", e.ContentType, e.Ext)
	}
	return fmt.Sprintf("invalid file extension %q: expected one of %s", e.Ext, strings.Join(SupportedExtensions, ", "))
}

// expectedContentTypes maps an extension to the sniffed type its content must
// have. DOCX files are zip archives.
var expectedContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/zip",
}

// sniffContent checks that the first bytes of src match ext and rewinds src.
func sniffContent(src io.ReadSeeker, ext string) error {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read uploaded file: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	if contentType != expectedContentTypes[ext] {
		return &UnsupportedFileError{Ext: ext, ContentType: contentType}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind uploaded file: %w", err)
	}
	return nil
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveFile copies the upload under a unique name and returns that name and
// the full path.
func (s *storageService) SaveFile(file *multipart.FileHeader, fileType string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !IsSupportedExtension(ext) {
		return "", "", &UnsupportedFileError{Ext: ext}
	}

	uniqueFilename := fmt.Sprintf("%s_%s%s", fileType, uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if err := sniffContent(src, ext); err != nil {
		return "", "", err
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return uniqueFilename, filePath, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filepath.Base(filename))
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
