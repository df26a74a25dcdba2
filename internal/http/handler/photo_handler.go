package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/verdant-ops/gardenledger/internal/mapper"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

// PhotoHandler handles photo attachments of executions
type PhotoHandler struct {
	photoService *service.PhotoService
	maxUploadMB  int64
	logger       *zap.Logger
}

// NewPhotoHandler creates a new photo handler instance
func NewPhotoHandler(photoService *service.PhotoService, maxUploadMB int64, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		maxUploadMB:  maxUploadMB,
		logger:       logger,
	}
}

// Upload handles POST /plans/{id}/executions/{executionId}/photos (multipart field "file")
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}
	executionID, ok := uuidParam(w, r, "executionId", "execution")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	execution, err := h.photoService.AttachPhoto(r.Context(), planID, executionID, header.Filename, contentType, file)
	if err != nil {
		respondServiceError(w, h.logger, "attach photo", err)
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToExecutionDTO(execution))
}

// Download handles GET /plans/{id}/executions/{executionId}/photos?ref=
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}
	executionID, ok := uuidParam(w, r, "executionId", "execution")
	if !ok {
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		respondWithError(w, http.StatusBadRequest, "ref query parameter is required")
		return
	}

	reader, err := h.photoService.OpenPhoto(r.Context(), planID, executionID, ref)
	if err != nil {
		respondServiceError(w, h.logger, "open photo", err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(ref)))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Failed to stream photo", zap.String("ref", ref), zap.Error(err))
	}
}
