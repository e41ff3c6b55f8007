// Upload HTTP handlers.
//
// Payment proof screenshots arrive as multipart uploads; the binary lands in
// the configured blob store (hosted or local) and a metadata row records it.
//   - POST /uploads  (store a payment proof, returns its public URL)
//   - GET  /uploads  (list stored uploads, paginated)
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
	"github.com/tuneconnect/tuneconnect-backend/internal/services"
	"github.com/tuneconnect/tuneconnect-backend/internal/utils"
)

// UploadService defines upload operations consumed by HTTP handlers.
type UploadService interface {
	// Save stores the binary and records its metadata.
	Save(ctx context.Context, fileName, contentType string, data []byte) (*domain.Upload, error)
	// ListPage returns a page of upload records and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Upload, int64, error)
}

// UploadHandlers groups the HTTP endpoints for payment proof uploads.
type UploadHandlers struct {
	uploadSvc UploadService
}

// NewUploadHandlers constructs an UploadHandlers bound to the given service.
func NewUploadHandlers(uploadSvc UploadService) *UploadHandlers {
	return &UploadHandlers{uploadSvc: uploadSvc}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListUploadsResponse wraps a page of uploads and pagination information.
type ListUploadsResponse struct {
	Uploads    []domain.Upload `json:"uploads"`
	Pagination Pagination      `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// Upload handles POST /uploads (multipart form, field name "file").
//
// Responds 201 with the stored upload record including its public URL, which
// the client then attaches to a song request as paymentProofUrl.
func (h *UploadHandlers) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	up, err := h.uploadSvc.Save(c.Request.Context(), fileHeader.Filename, contentType, data)
	switch {
	case errors.Is(err, services.ErrUploadEmpty):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "uploaded file is empty")
		return
	case errors.Is(err, services.ErrUploadTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeUploadTooLarge, "uploaded file exceeds the size limit")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, up)
}

// ListUploads handles GET /uploads (paginated).
func (h *UploadHandlers) ListUploads(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.uploadSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListUploadsResponse{
		Uploads: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
