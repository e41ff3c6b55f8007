// Package domain defines the core entities of the application: request
// forms (the records DJs create), the song-request entries appended to
// them, and the upload metadata rows for payment proofs.
//
// Forms live in the key/value storage layer and are serialized as JSON;
// uploads are relational rows mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// RecordKind discriminates record flavors inside the unified keyspace.
// Historically forms and short codes were two parallel identifier spaces;
// they now share one keyspace with this tag.
type RecordKind string

const (
	// KindForm marks a full request-form record.
	KindForm RecordKind = "form"
	// KindCode marks a short-code record that only resolves to a slug. New
	// records are always KindForm; this kind is reserved for data migrated
	// from the legacy short-code keyspace, which resolve the same way.
	KindCode RecordKind = "code"
)

// RequestStatus is the moderation/administration state of a song request.
// The core only ever initializes it to StatusPending; transitions are owned
// by an external workflow.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Profile carries the DJ-supplied presentation and payout details of a form.
// Beyond DisplayName (validated non-empty and used to derive the slug) the
// contents are opaque to the record lifecycle.
type Profile struct {
	// DisplayName is the public DJ name shown on the request page.
	DisplayName string `json:"display_name"`
	// Bio is an optional free-text introduction.
	Bio string `json:"bio,omitempty"`
	// Payment maps a payment channel name to a handle or URL
	// (e.g. "paypal" -> "paypal.me/djvibe"). Not interpreted by the core.
	Payment map[string]string `json:"payment,omitempty"`
	// WhatsApp is the notification target for incoming requests.
	WhatsApp string `json:"whatsapp,omitempty"`
}

// ModerationResult is the fixed-shape outcome of the external moderation
// call for a song request. When the call times out, a defaulted "approved"
// result is attached instead (Defaulted=true).
type ModerationResult struct {
	Appropriate bool   `json:"appropriate"`
	Duplicate   bool   `json:"duplicate"`
	Complete    bool   `json:"complete"`
	Reason      string `json:"reason,omitempty"`
	Defaulted   bool   `json:"defaulted,omitempty"`
}

// SongRequest is a single request entry appended to a form. Entries are
// append-only: once persisted they are never mutated by the core.
type SongRequest struct {
	ID              string            `json:"id"`
	Song            string            `json:"song"`
	Artist          string            `json:"artist,omitempty"`
	RequesterName   string            `json:"requester_name,omitempty"`
	PaymentChannel  string            `json:"payment_channel,omitempty"`
	Message         string            `json:"message,omitempty"`
	PaymentProofURL string            `json:"payment_proof_url,omitempty"`
	Status          RequestStatus     `json:"status"`
	Timestamp       time.Time         `json:"timestamp"`
	Moderation      *ModerationResult `json:"moderation,omitempty"`
}

// Form is the persisted record representing a DJ's public request form,
// keyed by an 8-character identifier in the unified keyspace.
type Form struct {
	ID               string        `json:"id"`
	Kind             RecordKind    `json:"kind"`
	Profile          Profile       `json:"profile"`
	Slug             string        `json:"slug"`
	CreatedAt        time.Time     `json:"created_at"`
	ExpiresAt        time.Time     `json:"expires_at"`
	ExpirationMonths int           `json:"expiration_months"`
	Requests         []SongRequest `json:"requests"`
}

// Expired reports whether the form's TTL has passed at the given instant.
// Expired forms are rejected at read time but physically remain in storage
// until an explicit purge.
func (f *Form) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}

// Upload records metadata for a stored payment-proof image. The bytes live
// in the blob store (or the local filesystem fallback); this row is the
// queryable index over them.
type Upload struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	FileName    string         `json:"file_name"    gorm:"type:varchar(255);not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(128)"`
	SizeBytes   int64          `json:"size_bytes"   gorm:"not null"`
	URL         string         `json:"url"          gorm:"type:text;not null"`
	Storage     string         `json:"storage"      gorm:"type:varchar(16);not null"` // "blob" or "local"
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Upload.
func (Upload) TableName() string { return "uploads" }
