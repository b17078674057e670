package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/chatdesk/internal/api/response"
	"github.com/Rrens/chatdesk/internal/service"
	"github.com/rs/zerolog/log"
)

// multipart overhead allowed on top of the file size limit
const formOverhead = 1 << 20

// UploadHandler handles document upload endpoints
type UploadHandler struct {
	uploadService *service.UploadService
	maxSize       int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *service.UploadService, maxSize int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxSize: maxSize}
}

// Upload accepts a multipart "file" field, processes and stores it
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploadService == nil {
		response.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		response.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	result, err := h.uploadService.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Str("file", result.Filename).Str("url", result.URL).Msg("upload complete")
	response.Message(w, http.StatusOK, "file uploaded", result)
}
