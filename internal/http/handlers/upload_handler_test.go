package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
	"github.com/tuneconnect/tuneconnect-backend/internal/services"
)

type stubUploadService struct {
	saved    *domain.Upload
	saveErr  error
	gotName  string
	gotCT    string
	gotBytes int

	items   []domain.Upload
	total   int64
	listErr error
}

func (s *stubUploadService) Save(_ context.Context, fileName, contentType string, data []byte) (*domain.Upload, error) {
	s.gotName = fileName
	s.gotCT = contentType
	s.gotBytes = len(data)
	return s.saved, s.saveErr
}

func (s *stubUploadService) ListPage(_ context.Context, page, pageSize int) ([]domain.Upload, int64, error) {
	return s.items, s.total, s.listErr
}

func newUploadRouter(svc *stubUploadService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUploadHandlers(svc)
	r := gin.New()
	r.POST("/uploads", h.Upload)
	r.GET("/uploads", h.ListUploads)
	return r
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	svc := &stubUploadService{saved: &domain.Upload{
		ID: "u-1", FileName: "proof.png", URL: "/uploads/files/u-1_proof.png",
	}}
	r := newUploadRouter(svc)

	body, ct := multipartBody(t, "file", "proof.png", []byte("binarydata"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotName != "proof.png" || svc.gotBytes != len("binarydata") {
		t.Fatalf("service received wrong file: name=%q bytes=%d", svc.gotName, svc.gotBytes)
	}
	var resp domain.Upload
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.URL == "" {
		t.Fatalf("response should carry the public URL: %+v", resp)
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	r := newUploadRouter(&stubUploadService{})

	req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	svc := &stubUploadService{saveErr: services.ErrUploadTooLarge}
	r := newUploadRouter(svc)

	body, ct := multipartBody(t, "file", "big.png", []byte("xxxx"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeUploadTooLarge {
		t.Fatalf("unexpected code: %q", resp.Code)
	}
}

func TestListUploads_Pagination(t *testing.T) {
	svc := &stubUploadService{
		items: []domain.Upload{{ID: "a"}, {ID: "b"}},
		total: 42,
	}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads?page=2&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ListUploadsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Pagination.Total != 42 || resp.Pagination.TotalPages != 21 || !resp.Pagination.HasNext {
		t.Fatalf("pagination: %+v", resp.Pagination)
	}
	if len(resp.Uploads) != 2 {
		t.Fatalf("uploads: %+v", resp.Uploads)
	}
}

func TestClampPagination_Bounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/uploads?page=-1&page_size=9999", nil)

	page, pageSize := clampPagination(c)
	if page != 1 {
		t.Fatalf("page clamped to 1, got %d", page)
	}
	if pageSize != 100 {
		t.Fatalf("pageSize capped at 100, got %d", pageSize)
	}
}
