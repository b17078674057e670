package service

import (
	"context"
	"fmt"
	"io"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/security"
	"github.com/rs/zerolog/log"
)

const defaultContentType = "application/pdf"

// DocumentProcessor hands an uploaded document to the indexing service
type DocumentProcessor interface {
	Process(ctx context.Context, filename string, content io.Reader) (map[string]any, error)
}

// BlobStore persists uploaded files and returns a download URL
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (objectName, url string, err error)
}

// UploadService validates, processes and stores uploaded documents
type UploadService struct {
	validator *security.FileValidator
	processor DocumentProcessor
	blobs     BlobStore
}

// NewUploadService creates a new upload service
func NewUploadService(validator *security.FileValidator, processor DocumentProcessor, blobs BlobStore) *UploadService {
	return &UploadService{
		validator: validator,
		processor: processor,
		blobs:     blobs,
	}
}

// Upload runs the document through the processing service and then stores
// it. Processing failures are reported in the result; storage failures
// fail the upload.
func (s *UploadService) Upload(ctx context.Context, filename, contentType string, size int64, content io.ReadSeeker) (*domain.UploadResult, error) {
	name, err := s.validator.ValidateAndSanitize(filename)
	if err != nil {
		return nil, err
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultContentType
	}

	logger := log.With().Str("file", name).Int64("size", size).Logger()

	processing := domain.ProcessingResult{}
	if out, err := s.processor.Process(ctx, name, content); err != nil {
		logger.Warn().Err(err).Msg("document processing failed, storing file anyway")
		processing.Error = err.Error()
	} else {
		processing.Success = true
		processing.Result = out
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	objectName, url, err := s.blobs.Upload(ctx, name, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	logger.Info().Str("object", objectName).Bool("processed", processing.Success).Msg("file uploaded")

	return &domain.UploadResult{
		Filename:   name,
		ObjectName: objectName,
		URL:        url,
		Size:       size,
		Processing: processing,
	}, nil
}
