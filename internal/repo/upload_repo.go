// Package repo implements the relational persistence layer, backed by GORM.
// This file provides repository functions for the Upload model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUpload inserts a new upload metadata row. The ID is a randomly
// generated UUID and CreatedAt is set to UTC.
func CreateUpload(ctx context.Context, db *gorm.DB, fileName, contentType, url, storage string, sizeBytes int64) (*domain.Upload, error) {
	u := &domain.Upload{
		ID:          uuid.NewString(),
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		URL:         url,
		Storage:     storage,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUpload fetches a single upload row by ID, or ErrNotFound.
func GetUpload(ctx context.Context, db *gorm.DB, id string) (*domain.Upload, error) {
	var u domain.Upload
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUploads returns the total number of upload rows for pagination.
func CountUploads(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Upload{}).Count(&n).Error
	return n, err
}

// ListUploadsPage returns a page of upload rows ordered by creation time
// descending.
func ListUploadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Upload, error) {
	var out []domain.Upload
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
