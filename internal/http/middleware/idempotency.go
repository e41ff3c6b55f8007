// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods. Song
// request submissions are retried aggressively by mobile clients on flaky
// venue Wi-Fi, so PUT /forms accepts an Idempotency-Key header. The
// middleware validates the header, optionally performs a lookup to detect
// previously completed submissions, and annotates the request context so
// downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays decoupled behind the narrow IdempotencyLookup function
// type; the handler remains in control of how to serve replays.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations.
//
// The value is expected to be stable for a given semantic operation so that
// retries (network, client, or server initiated) can be safely deduplicated.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderClientID identifies the submitting client. The frontend generates a
// stable per-device identifier; absent that, the client IP stands in.
const HeaderClientID = "X-Client-ID"

// Context keys used internally to stash idempotency state.
// These keys are intentionally unexported and referenced via accessor helpers.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
//
// Handlers should prefer this function over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the middleware detected that this request would
// replay a previously completed submission (based on client, form, and key).
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation behavior for
// IdempotencyValidator. TTL enforcement is intentionally out of scope here and
// should be implemented inside the provided lookup function.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid result exists
// for (clientID, formID, key) at the given time. Implementations typically
// consult a stored record containing the previous response metadata and TTL
// window.
//
// Return exists=true when the prior response can be replayed; return an error
// only for lookup failures (which should not block normal processing).
type IdempotencyLookup func(ctx context.Context, clientID, formID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a prior
// completed submission via the supplied lookup. When a replay is detected it
// marks the context so downstream components can detect replay via IsReplay
// and bypass rate limiting.
//
// Behavior:
//   - If the header is absent: the middleware is a no-op.
//   - If the header fails validation: responds 400 with a compact error body.
//   - If lookup indicates a replay: sets replay + rate-bypass flags.
//   - Always invokes the next handler unless validation fails.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		// Stash the normalized key for downstream use.
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			clientID := ClientIDFromCtx(c)
			formID := formIDFromRequest(c)
			now := time.Now().UTC()

			if exists, _ := lookup(c.Request.Context(), clientID, formID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true) // let RL middleware skip limiting
			}
		}

		c.Next()
	}
}

// formIDFromRequest finds the form id the request addresses. Most routes
// carry it in the query string or path; the submission route carries it in
// the JSON body, which is peeked and restored so downstream binding still
// sees the full payload.
func formIDFromRequest(c *gin.Context) string {
	if id := c.Query("id"); id != "" {
		return id
	}
	if id := c.Param("id"); id != "" {
		return id
	}
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return ""
	}
	buf, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}
	var peek struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(buf, &peek); err != nil {
		return ""
	}
	return peek.ID
}

// ClientIDFromCtx extracts the client identifier from the X-Client-ID header,
// falling back to the client IP when the frontend did not send one.
func ClientIDFromCtx(c *gin.Context) string {
	if id := c.GetHeader(HeaderClientID); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}
