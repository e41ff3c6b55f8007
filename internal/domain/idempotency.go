// Package domain defines the core entities of the application.
package domain

import "time"

// Idempotency records the result of a previously processed unsafe request,
// keyed by (client id, form id, idempotency key). It is stored in the
// key/value layer as JSON and enables safe retries of POST/PUT operations
// without re-executing side effects.
type Idempotency struct {
	ClientID  string    `json:"client_id"`
	FormID    string    `json:"form_id"`
	Key       string    `json:"key"`
	RequestID string    `json:"request_id"` // song-request id produced by the original call
	Status    int       `json:"status"`     // HTTP status of the original response
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the record can still be replayed at the given time.
func (i *Idempotency) Valid(now time.Time) bool {
	return now.Before(i.ExpiresAt)
}
