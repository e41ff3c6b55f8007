// Package services implements the business logic for request forms, song
// requests, short-code resolution, moderation, and uploads. This file
// centralizes service-level error values so they can be consistently
// returned by service methods and mapped to HTTP statuses at the handler
// layer.
package services

import "errors"

var (
	// ErrInvalidInput is returned when a caller-supplied profile or request
	// is missing a required field after trimming.
	ErrInvalidInput = errors.New("missing required field")

	// ErrFormNotFound indicates that no record exists under the identifier.
	ErrFormNotFound = errors.New("form not found")

	// ErrFormExpired indicates the record exists but its TTL has passed.
	// Reads may still surface the stale record alongside this error for
	// informational display; writes must treat it as terminal.
	ErrFormExpired = errors.New("form expired")

	// ErrIDAllocationFailed is returned when the bounded collision retry
	// budget is exhausted without finding a free identifier. The client may
	// retry the whole creation request.
	ErrIDAllocationFailed = errors.New("could not allocate a unique identifier")

	// ErrUploadTooLarge is returned when a payment-proof upload exceeds the
	// configured size cap.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrUploadEmpty is returned for uploads with no content.
	ErrUploadEmpty = errors.New("upload is empty")
)
