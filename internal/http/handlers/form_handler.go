// Form HTTP handlers.
//
// This file exposes the form lifecycle endpoints:
//   - POST   /forms           (create a request form)
//   - GET    /forms?id=…      (fetch a form with its requests)
//   - PUT    /forms?id=…      (submit a song request)
//   - POST   /purge-expired   (delete expired records)
//   - GET    /forms/:id/qr    (QR PNG for the short link)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
	"github.com/tuneconnect/tuneconnect-backend/internal/http/middleware"
	"github.com/tuneconnect/tuneconnect-backend/internal/qr"
	"github.com/tuneconnect/tuneconnect-backend/internal/services"
	"github.com/tuneconnect/tuneconnect-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// FormService defines form lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type FormService interface {
	// Create allocates an identifier and persists a new form record.
	Create(ctx context.Context, profile domain.Profile, expirationMonths int) (*services.CreateResult, error)
	// Get fetches a record; expired records come back with ErrFormExpired.
	Get(ctx context.Context, recordID string) (*domain.Form, error)
	// Append adds a song request to a record and returns the request id.
	Append(ctx context.Context, recordID string, entry domain.SongRequest) (string, error)
	// Resolve maps a short code to the owning form's slug.
	Resolve(ctx context.Context, code string) (string, error)
	// PurgeExpired removes expired records and reports per-item issues.
	PurgeExpired(ctx context.Context) (*services.PurgeResult, error)
	// GetIdempotency fetches a prior submission receipt if one is still valid.
	GetIdempotency(ctx context.Context, clientID, formID, key string, now time.Time) (*domain.Idempotency, error)
	// SaveIdempotency stores a submission receipt for replay detection.
	SaveIdempotency(ctx context.Context, rec domain.Idempotency, ttl time.Duration) error
}

// ModerationService reviews song request content. Review never fails; on any
// backend problem it returns the defaulted approval.
type ModerationService interface {
	Review(ctx context.Context, in services.ModerationInput) domain.ModerationResult
}

//
// Handler wiring
//

// FormHandlers groups the HTTP endpoints for form records and submissions.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type FormHandlers struct {
	formSvc FormService
	modSvc  ModerationService

	// baseURL is the public origin used to construct short and QR URLs.
	baseURL string
	// idemTTL bounds how long a submission receipt stays replayable.
	idemTTL time.Duration
	// defaultMonths is the record lifetime applied when the caller omits one.
	defaultMonths int
}

// NewFormHandlers constructs a FormHandlers bound to the given services.
func NewFormHandlers(formSvc FormService, modSvc ModerationService, baseURL string, idemTTL time.Duration, defaultMonths int) *FormHandlers {
	return &FormHandlers{
		formSvc:       formSvc,
		modSvc:        modSvc,
		baseURL:       strings.TrimRight(baseURL, "/"),
		idemTTL:       idemTTL,
		defaultMonths: defaultMonths,
	}
}

//
// DTOs
//

// CreateFormRequest is the JSON payload for creating a form.
type CreateFormRequest struct {
	DisplayName string            `json:"displayName" binding:"required,min=1,max=255"`
	Bio         string            `json:"bio"`
	Payment     map[string]string `json:"payment"`
	WhatsApp    string            `json:"whatsapp"`
	// ExpirationMonths selects the record lifetime; 0 uses the default.
	ExpirationMonths int `json:"expirationMonths" binding:"omitempty,min=1,max=24"`
}

// CreateFormResponse echoes the created record's addressing details.
type CreateFormResponse struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	ShortURL      string    `json:"shortUrl"`
	QRCodeURL     string    `json:"qrCodeUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
	StorageMethod string    `json:"storageMethod"`
}

// GetFormResponse wraps the fetched record. Expired carries the staleness
// marker when the record is returned informationally with a 410.
type GetFormResponse struct {
	Data    *domain.Form `json:"data"`
	Expired bool         `json:"expired,omitempty"`
}

// SubmitRequest is the JSON payload for submitting a song request.
type SubmitRequest struct {
	ID      string            `json:"id" binding:"required"`
	Request SubmitRequestBody `json:"request" binding:"required"`
}

// SubmitRequestBody carries the requester-facing fields of a submission.
type SubmitRequestBody struct {
	Song            string `json:"song" binding:"required,min=1,max=500"`
	Artist          string `json:"artist" binding:"omitempty,max=500"`
	RequesterName   string `json:"requesterName" binding:"omitempty,max=255"`
	PaymentChannel  string `json:"paymentChannel" binding:"omitempty,max=100"`
	Message         string `json:"message" binding:"omitempty,max=2000"`
	PaymentProofURL string `json:"paymentProofUrl" binding:"omitempty,max=2048"`
}

// SubmitResponse returns the identifier assigned to the stored request.
type SubmitResponse struct {
	RequestID string `json:"requestId"`
	// Replayed is true when an idempotent retry was served from the receipt.
	Replayed bool `json:"replayed,omitempty"`
}

//
// Handlers
//

// CreateForm handles POST /forms.
//
// On success it responds 201 with the record id, slug, short URL, QR URL,
// expiry, and which storage backend took the write.
func (h *FormHandlers) CreateForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	profile := domain.Profile{
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         strings.TrimSpace(req.Bio),
		Payment:     req.Payment,
		WhatsApp:    strings.TrimSpace(req.WhatsApp),
	}

	months := req.ExpirationMonths
	if months <= 0 {
		months = h.defaultMonths
	}

	res, err := h.formSvc.Create(c.Request.Context(), profile, months)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "displayName required")
		return
	case errors.Is(err, services.ErrIDAllocationFailed):
		fail(c, http.StatusInternalServerError, ErrCodeIDAllocationFailed, "could not allocate a unique form id")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("form_id", res.Form.ID).
		Str("storage_method", res.StorageMethod).
		Msg("form created")

	ok(c, http.StatusCreated, CreateFormResponse{
		ID:            res.Form.ID,
		Slug:          res.Form.Slug,
		ShortURL:      h.baseURL + "/u/" + res.Form.Slug + "?id=" + res.Form.ID,
		QRCodeURL:     h.baseURL + "/forms/" + res.Form.ID + "/qr",
		ExpiresAt:     res.Form.ExpiresAt,
		StorageMethod: res.StorageMethod,
	})
}

// GetForm handles GET /forms?id=….
//
// Unknown or malformed ids respond 404; expired records respond 410 while
// still carrying the stale record so the frontend can show a useful page.
func (h *FormHandlers) GetForm(c *gin.Context) {
	formID := strings.TrimSpace(c.Query("id"))
	if formID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id query parameter required")
		return
	}

	form, err := h.formSvc.Get(c.Request.Context(), formID)
	switch {
	case errors.Is(err, services.ErrFormExpired):
		c.JSON(http.StatusGone, GetFormResponse{Data: form, Expired: true})
		return
	case errors.Is(err, services.ErrFormNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, GetFormResponse{Data: form})
}

// SubmitRequest handles PUT /forms.
//
// Submissions run through content moderation first; the verdict is attached
// to the stored entry but never blocks acceptance. When an Idempotency-Key is
// supplied, completed submissions are replayed instead of duplicated.
func (h *FormHandlers) SubmitRequest(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	clientID := middleware.ClientIDFromCtx(c)

	// Serve replays from the stored receipt.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		prior, err := h.formSvc.GetIdempotency(ctx, clientID, req.ID, key, time.Now().UTC())
		if err == nil && prior != nil {
			ok(c, http.StatusOK, SubmitResponse{RequestID: prior.RequestID, Replayed: true})
			return
		}
	}

	verdict := h.modSvc.Review(ctx, services.ModerationInput{
		Song:          req.Request.Song,
		Artist:        req.Request.Artist,
		RequesterName: req.Request.RequesterName,
		Message:       req.Request.Message,
	})

	entry := domain.SongRequest{
		Song:            strings.TrimSpace(req.Request.Song),
		Artist:          strings.TrimSpace(req.Request.Artist),
		RequesterName:   strings.TrimSpace(req.Request.RequesterName),
		PaymentChannel:  strings.TrimSpace(req.Request.PaymentChannel),
		Message:         strings.TrimSpace(req.Request.Message),
		PaymentProofURL: strings.TrimSpace(req.Request.PaymentProofURL),
		Moderation:      &verdict,
	}

	requestID, err := h.formSvc.Append(ctx, req.ID, entry)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "song required")
		return
	case errors.Is(err, services.ErrFormExpired):
		fail(c, http.StatusGone, ErrCodeExpired, "form has expired")
		return
	case errors.Is(err, services.ErrFormNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		return
	}

	// Best effort: a failed receipt write only costs replay detection.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		now := time.Now().UTC()
		rec := domain.Idempotency{
			ClientID:  clientID,
			FormID:    req.ID,
			Key:       key,
			RequestID: requestID,
			Status:    http.StatusOK,
			CreatedAt: now,
			ExpiresAt: now.Add(h.idemTTL),
		}
		if err := h.formSvc.SaveIdempotency(ctx, rec, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).
				Str("form_id", req.ID).
				Msg("idempotency receipt write failed")
		}
	}

	middleware.LoggerFrom(c).Info().
		Str("form_id", req.ID).
		Str("request_id_field", requestID).
		Bool("moderation_defaulted", verdict.Defaulted).
		Msg("request submitted")

	ok(c, http.StatusOK, SubmitResponse{RequestID: requestID})
}

// PurgeExpired handles POST /purge-expired.
//
// The sweep is best effort: the response always reports how many records
// were removed and any per-item problems encountered.
func (h *FormHandlers) PurgeExpired(c *gin.Context) {
	res, err := h.formSvc.PurgeExpired(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePurgeFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// QRCode handles GET /forms/:id/qr.
//
// It renders a PNG pointing at the form's short URL. The size query
// parameter is clamped inside the qr package.
func (h *FormHandlers) QRCode(c *gin.Context) {
	formID := c.Param("id")
	form, err := h.formSvc.Get(c.Request.Context(), formID)
	switch {
	case errors.Is(err, services.ErrFormExpired):
		fail(c, http.StatusGone, ErrCodeExpired, "form has expired")
		return
	case errors.Is(err, services.ErrFormNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	size := utils.AtoiDefault(c.Query("size"), qr.DefaultSize)
	shortURL := h.baseURL + "/u/" + form.Slug + "?id=" + form.ID

	png, err := qr.PNG(shortURL, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQRFailed, err.Error())
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
