// Package services – UploadService
//
// This file implements payment-proof image uploads. Bytes go to the blob
// store (a hosted object store when its token is configured, else a local
// filesystem directory) and a metadata row is recorded so uploads can be
// listed and audited.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
	"github.com/tuneconnect/tuneconnect-backend/internal/repo"
)

// BlobStore persists raw upload bytes and returns a public URL.
type BlobStore interface {
	// Put stores data under a name derived from fileName and returns the
	// URL clients can fetch it from.
	Put(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	// Name identifies the store flavor ("blob" or "local") for metadata.
	Name() string
}

// LocalBlobStore writes uploads to a directory on disk. It is the fallback
// when no hosted object-store token is configured.
type LocalBlobStore struct {
	// Dir is the destination directory; it must exist.
	Dir string
	// PublicBase prefixes returned URLs (e.g. "/uploads/files").
	PublicBase string
}

// Name returns "local".
func (s *LocalBlobStore) Name() string { return "local" }

// Put writes data to Dir under a collision-proof name and returns the
// public URL.
func (s *LocalBlobStore) Put(_ context.Context, fileName, _ string, data []byte) (string, error) {
	name := uuid.NewString() + "-" + sanitizeFileName(fileName)
	dst := filepath.Join(s.Dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(s.PublicBase, name), nil
}

// RemoteBlobStore uploads bytes to a hosted object store over HTTP with a
// bearer token. The store answers with the public URL of the stored object.
type RemoteBlobStore struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
}

// Name returns "blob".
func (s *RemoteBlobStore) Name() string { return "blob" }

// Put streams data to the object store and returns the URL it reports.
func (s *RemoteBlobStore) Put(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	url := strings.TrimRight(s.Endpoint, "/") + "/" + sanitizeFileName(fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("blob store returned %d", resp.StatusCode)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode blob response: %w", err)
	}
	return out.URL, nil
}

// sanitizeFileName strips path components and characters that have no
// business in an object name.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// UploadRepo defines the metadata persistence contract for UploadService.
type UploadRepo interface {
	CreateUpload(ctx context.Context, db *gorm.DB, fileName, contentType, url, storage string, sizeBytes int64) (*domain.Upload, error)
	CountUploads(ctx context.Context, db *gorm.DB) (int64, error)
	ListUploadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Upload, error)
}

// gormUploadRepo adapts the repo free functions to the UploadRepo interface.
type gormUploadRepo struct{}

func (gormUploadRepo) CreateUpload(ctx context.Context, db *gorm.DB, fileName, contentType, url, storage string, sizeBytes int64) (*domain.Upload, error) {
	return repo.CreateUpload(ctx, db, fileName, contentType, url, storage, sizeBytes)
}

func (gormUploadRepo) CountUploads(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUploads(ctx, db)
}

func (gormUploadRepo) ListUploadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Upload, error) {
	return repo.ListUploadsPage(ctx, db, offset, limit)
}

// UploadService stores payment-proof images and their metadata.
type UploadService struct {
	DB   *gorm.DB
	Repo UploadRepo
	Blob BlobStore

	// MaxBytes caps accepted upload sizes; <= 0 disables the cap.
	MaxBytes int64
}

// NewUploadService constructs an UploadService bound to the gorm-backed
// metadata repository.
func NewUploadService(db *gorm.DB, blob BlobStore) *UploadService {
	return &UploadService{
		DB:       db,
		Repo:     gormUploadRepo{},
		Blob:     blob,
		MaxBytes: 5 << 20, // 5 MiB, generous for a payment screenshot
	}
}

// Save validates and stores an upload, returning its metadata row.
func (s *UploadService) Save(ctx context.Context, fileName, contentType string, data []byte) (*domain.Upload, error) {
	if len(data) == 0 {
		return nil, ErrUploadEmpty
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, ErrUploadTooLarge
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "upload"
	}

	url, err := s.Blob.Put(ctx, fileName, contentType, data)
	if err != nil {
		return nil, err
	}
	return s.Repo.CreateUpload(ctx, s.DB, sanitizeFileName(fileName), contentType, url, s.Blob.Name(), int64(len(data)))
}

// ListPage returns a page of upload metadata plus the total count. Invalid
// paging values fall back to defaults.
func (s *UploadService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Upload, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountUploads(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Upload{}, 0, nil
	}
	items, err := s.Repo.ListUploadsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}
