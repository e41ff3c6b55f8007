// Package services – FormService
//
// This file implements FormService, the record lifecycle manager. It owns
// identifier allocation (bounded collision retry against storage), slug
// derivation, calendar-based expiration, song-request appends, short-code
// resolution, and the explicit purge of expired records.
//
// All persistence goes through the storage.Fallback composed store, so a
// durable-backend outage degrades to the in-process map without surfacing
// errors to callers (the accepted best-effort write policy).
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the record identifier where applicable.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
	"github.com/tuneconnect/tuneconnect-backend/internal/id"
	"github.com/tuneconnect/tuneconnect-backend/internal/slug"
	"github.com/tuneconnect/tuneconnect-backend/internal/storage"
)

const (
	// recordPrefix namespaces the unified record keyspace. Forms and legacy
	// short codes share it, discriminated by domain.RecordKind.
	recordPrefix = "record:"

	// idemPrefix namespaces idempotency replay records.
	idemPrefix = "idem:"

	// maxIDAttempts bounds the identifier collision retry loop.
	maxIDAttempts = 10

	// defaultExpirationMonths applies when the caller supplies no (or a
	// non-positive) expiration.
	defaultExpirationMonths = 6

	// appendLockShards sizes the striped per-identifier lock table that
	// serializes read-modify-write appends to the same record.
	appendLockShards = 64
)

// recordKey builds the storage key for a record identifier.
func recordKey(recordID string) string { return recordPrefix + recordID }

// FormService manages the lifecycle of request-form records.
type FormService struct {
	// Store is the composed dual-backend key/value store.
	Store *storage.Fallback
	// IDs produces candidate identifiers; a test double can force collisions.
	IDs id.Generator
	// Now returns the current time; overridable in tests. Defaults to
	// time.Now when nil.
	Now func() time.Time

	// locks stripes per-identifier mutexes for AppendRequest. Two requests
	// for the same record always map to the same shard, so concurrent
	// appends cannot lose updates to the whole-record overwrite.
	locks [appendLockShards]sync.Mutex
}

// NewFormService constructs a FormService with the default generator wiring.
func NewFormService(store *storage.Fallback) *FormService {
	return &FormService{
		Store: store,
		IDs:   id.RandGenerator{},
		Now:   time.Now,
	}
}

func (s *FormService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// lockFor returns the stripe mutex guarding the given record identifier.
func (s *FormService) lockFor(recordID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recordID))
	return &s.locks[h.Sum32()%appendLockShards]
}

// CreateResult is the outcome of a successful record creation.
type CreateResult struct {
	Form *domain.Form
	// StorageMethod reports which backend took the write ("kv" or "memory").
	StorageMethod string
}

// Create validates the profile, allocates a free identifier with a bounded
// retry, computes slug and expiration, and persists the record.
//
// expirationMonths <= 0 selects the default (6). Expiration uses calendar
// month arithmetic via time.AddDate, which rolls day-of-month overflow into
// the next month (Jan 31 + 1 month = Mar 2/3). The record write succeeds as
// long as either backend accepted it.
func (s *FormService) Create(ctx context.Context, profile domain.Profile, expirationMonths int) (*CreateResult, error) {
	tr := otel.Tracer("services/FormService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	if strings.TrimSpace(profile.DisplayName) == "" {
		return nil, ErrInvalidInput
	}
	if expirationMonths <= 0 {
		expirationMonths = defaultExpirationMonths
	}

	// One explicit probe per creation; the result only feeds logs/metrics,
	// the per-operation fallback choice is made inside the store.
	_ = s.Store.Probe(ctx)

	recordID, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("record.id", recordID))

	createdAt := s.now()
	form := &domain.Form{
		ID:               recordID,
		Kind:             domain.KindForm,
		Profile:          profile,
		Slug:             slug.Build(profile.DisplayName),
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.AddDate(0, expirationMonths, 0),
		ExpirationMonths: expirationMonths,
		Requests:         []domain.SongRequest{},
	}

	method, err := s.persist(ctx, form)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Form: form, StorageMethod: method}, nil
}

// allocateID generates candidates until one is free in storage, up to
// maxIDAttempts. Exhaustion returns ErrIDAllocationFailed with nothing
// persisted.
func (s *FormService) allocateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := s.IDs.Generate()
		if _, err := s.Store.Get(ctx, recordKey(candidate)); err != nil {
			// Any miss means the identifier is free.
			return candidate, nil
		}
	}
	return "", ErrIDAllocationFailed
}

// persist marshals and writes the whole record, returning the storage
// method that took the write.
func (s *FormService) persist(ctx context.Context, form *domain.Form) (string, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", form.ID, err)
	}
	return s.Store.Set(ctx, recordKey(form.ID), raw)
}

// Get resolves a record by identifier.
//
// Returns ErrFormNotFound for unknown or malformed identifiers. For expired
// records it returns the record together with ErrFormExpired: the caller
// decides whether to surface the stale data informationally. The record is
// not deleted on this path; purge is a separate explicit operation.
func (s *FormService) Get(ctx context.Context, recordID string) (*domain.Form, error) {
	tr := otel.Tracer("services/FormService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("record.id", recordID)))
	defer span.End()

	normalized, ok := id.Normalize(recordID)
	if !ok {
		return nil, ErrFormNotFound
	}

	raw, err := s.Store.Get(ctx, recordKey(normalized))
	if err != nil {
		return nil, ErrFormNotFound
	}
	var form domain.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", normalized, err)
	}
	if form.Expired(s.now()) {
		return &form, ErrFormExpired
	}
	return &form, nil
}

// Append adds a song request to a record.
//
// The entry gets a fresh identifier (unique within the record),
// timestamp=now, and status=pending; prior entries are never reordered or
// mutated. The full record is written back under a per-identifier lock so
// concurrent appends to the same record cannot overwrite each other.
func (s *FormService) Append(ctx context.Context, recordID string, entry domain.SongRequest) (string, error) {
	tr := otel.Tracer("services/FormService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(attribute.String("record.id", recordID)))
	defer span.End()

	if strings.TrimSpace(entry.Song) == "" {
		return "", ErrInvalidInput
	}

	mu := s.lockFor(recordID)
	mu.Lock()
	defer mu.Unlock()

	form, err := s.Get(ctx, recordID)
	if err != nil {
		return "", err
	}

	entry.ID = s.freshRequestID(form)
	entry.Timestamp = s.now()
	entry.Status = domain.StatusPending
	form.Requests = append(form.Requests, entry)

	if _, err := s.persist(ctx, form); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// freshRequestID draws identifiers until one differs from every request id
// already issued within the record. Cross-record uniqueness is not checked;
// request ids only need to be unique inside their parent.
func (s *FormService) freshRequestID(form *domain.Form) string {
	used := make(map[string]struct{}, len(form.Requests))
	for _, r := range form.Requests {
		used[r.ID] = struct{}{}
	}
	for {
		candidate := s.IDs.Generate()
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// PurgeResult summarizes an explicit purge run.
type PurgeResult struct {
	DeletedCount int      `json:"deletedCount"`
	Errors       []string `json:"errors"`
}

// PurgeExpired enumerates the record keyspace and deletes every record
// whose TTL has passed. It is best-effort: per-item failures are collected
// and reported, never fatal to the run. Non-expired records are untouched.
func (s *FormService) PurgeExpired(ctx context.Context) (*PurgeResult, error) {
	tr := otel.Tracer("services/FormService")
	ctx, span := tr.Start(ctx, "PurgeExpired")
	defer span.End()

	keys, err := s.Store.Keys(ctx, recordPrefix)
	if err != nil {
		return nil, err
	}

	res := &PurgeResult{Errors: []string{}}
	now := s.now()
	for _, key := range keys {
		raw, err := s.Store.Get(ctx, key)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: read: %v", key, err))
			continue
		}
		var form domain.Form
		if err := json.Unmarshal(raw, &form); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: decode: %v", key, err))
			continue
		}
		if !form.Expired(now) {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: delete: %v", key, err))
			continue
		}
		res.DeletedCount++
	}
	return res, nil
}

// Resolve maps a short code to the stored slug for redirect construction.
// Every failure mode (malformed code, unknown identifier, expired record)
// collapses into ErrFormNotFound: the redirect layer never distinguishes
// failure subtypes.
func (s *FormService) Resolve(ctx context.Context, code string) (string, error) {
	tr := otel.Tracer("services/FormService")
	ctx, span := tr.Start(ctx, "Resolve")
	defer span.End()

	normalized, ok := id.Normalize(code)
	if !ok {
		return "", ErrFormNotFound
	}
	form, err := s.Get(ctx, normalized)
	if err != nil {
		return "", ErrFormNotFound
	}
	return form.Slug, nil
}

//
// Idempotency replay records
//

func idemKey(clientID, formID, key string) string {
	return idemPrefix + clientID + ":" + formID + ":" + key
}

// GetIdempotency returns a still-valid replay record for (clientID, formID,
// key), or nil when none exists. Lookup failures are reported but should not
// block normal processing.
func (s *FormService) GetIdempotency(ctx context.Context, clientID, formID, key string, now time.Time) (*domain.Idempotency, error) {
	raw, err := s.Store.Get(ctx, idemKey(clientID, formID, key))
	if err != nil {
		return nil, nil // absent or unreachable: treat as no replay
	}
	var rec domain.Idempotency
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	if !rec.Valid(now) {
		return nil, nil
	}
	return &rec, nil
}

// SaveIdempotency stores a replay record with the given TTL. Failures are
// returned for logging only; request processing already succeeded.
func (s *FormService) SaveIdempotency(ctx context.Context, rec domain.Idempotency, ttl time.Duration) error {
	rec.CreatedAt = s.now()
	rec.ExpiresAt = rec.CreatedAt.Add(ttl)
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Set(ctx, idemKey(rec.ClientID, rec.FormID, rec.Key), raw)
	return err
}
