// Health endpoint.
//
// GET /health reports the storage posture of the service: whether a durable
// KV backend is configured and reachable, how many records the in-process
// fallback currently holds, and whether the upload metadata database answers
// a ping. The response includes operator-facing recommendations when the
// service is running degraded.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tuneconnect/tuneconnect-backend/internal/storage"
)

// healthCheckTimeout bounds the probe round-trip so a hung backend cannot
// stall the health endpoint.
const healthCheckTimeout = 3 * time.Second

// HealthChecks is the per-dependency breakdown inside a health response.
type HealthChecks struct {
	KVConfigured  bool `json:"kvConfigured"`
	KVReachable   bool `json:"kvReachable"`
	MemoryRecords int  `json:"memoryRecords"`
	Database      bool `json:"database"`
}

// HealthResponse is the GET /health response body.
type HealthResponse struct {
	Status          string       `json:"status"` // "healthy" or "degraded"
	Checks          HealthChecks `json:"checks"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// HealthHandlers serves the health endpoint. DB may be nil when the upload
// store is not wired (e.g., in tests).
type HealthHandlers struct {
	Store *storage.Fallback
	DB    *gorm.DB
}

// NewHealthHandlers constructs a HealthHandlers.
func NewHealthHandlers(store *storage.Fallback, db *gorm.DB) *HealthHandlers {
	return &HealthHandlers{Store: store, DB: db}
}

// Health handles GET /health.
//
// The endpoint always answers 200; degradation is conveyed in the body so
// that load balancers keep routing while operators get actionable detail.
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := HealthChecks{
		KVConfigured:  h.Store.Durable(),
		MemoryRecords: h.Store.Memory().Len(),
		Database:      h.pingDB(ctx),
	}
	if checks.KVConfigured {
		checks.KVReachable = h.Store.Probe(ctx)
	}

	var recs []string
	if !checks.KVConfigured {
		recs = append(recs, "no durable KV backend configured; set KV_URL so forms survive restarts")
	} else if !checks.KVReachable {
		recs = append(recs, "KV backend unreachable; new writes are landing in process memory only")
	}
	if !checks.Database {
		recs = append(recs, "upload metadata database is not responding; uploads are unavailable")
	}

	status := "healthy"
	if len(recs) > 0 {
		status = "degraded"
	}

	ok(c, http.StatusOK, HealthResponse{
		Status:          status,
		Checks:          checks,
		Recommendations: recs,
	})
}

// pingDB reports whether the upload metadata database answers a ping.
func (h *HealthHandlers) pingDB(ctx context.Context) bool {
	if h.DB == nil {
		return false
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}
