// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes give
// clients a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, not_found) mirror common HTTP status
//     semantics to aid interoperability.
//   - Domain-specific codes (e.g., id_allocation_failed, expired) are reserved
//     for business outcomes that cannot be conveyed by status alone.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "expired",
//	  "message": "form has expired"
//	}
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeExpired            = "expired"
	ErrCodeCreateFailed       = "create_failed"
	ErrCodeIDAllocationFailed = "id_allocation_failed"
	ErrCodeSubmitFailed       = "submit_failed"
	ErrCodePurgeFailed        = "purge_failed"
	ErrCodeUploadFailed       = "upload_failed"
	ErrCodeUploadTooLarge     = "upload_too_large"
	ErrCodeListFailed         = "list_failed"
	ErrCodeQRFailed           = "qr_failed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
