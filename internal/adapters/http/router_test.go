package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

type uploaderFake struct {
	uploadErr    error
	reingestErr  error
	reingestedID string
}

func (f *uploaderFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:        "doc-1",
		Filename:  filename,
		MimeType:  mimeType,
		SourceRef: "doc-1_file.txt",
		Status:    domain.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (f *uploaderFake) Reingest(_ context.Context, documentID string) error {
	if f.reingestErr != nil {
		return f.reingestErr
	}
	f.reingestedID = documentID
	return nil
}

type readerFake struct {
	doc *domain.Document
	err error
}

func (f *readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func newTestHandler(uploader *uploaderFake, reader *readerFake, opts Options) http.Handler {
	return NewRouter(uploader, reader, nil, opts).Handler()
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(&uploaderFake{}, &readerFake{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadDocumentAccepted(t *testing.T) {
	handler := newTestHandler(&uploaderFake{}, &readerFake{}, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartUpload(t, "scan.pdf", "%PDF-1.4"))

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
	if docResp["status"] != string(domain.StatusProcessing) {
		t.Fatalf("expected processing status, got %v", docResp["status"])
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestHandler(&uploaderFake{}, &readerFake{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(&uploaderFake{}, &readerFake{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestGetDocumentStatusOmitsExtractedText(t *testing.T) {
	text := "page one text"
	tokens := int64(3)
	reader := &readerFake{doc: &domain.Document{
		ID:            "doc-2",
		Filename:      "scan.pdf",
		Status:        domain.StatusComplete,
		ExtractedText: &text,
		TokenCount:    &tokens,
	}}
	handler := newTestHandler(&uploaderFake{}, reader, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["status"] != string(domain.StatusComplete) {
		t.Fatalf("expected complete status, got %v", docResp["status"])
	}
	if docResp["token_count"] != float64(3) {
		t.Fatalf("expected token_count 3, got %v", docResp["token_count"])
	}
	if _, ok := docResp["extracted_text"]; ok {
		t.Fatalf("status response must not carry extracted text: %+v", docResp)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no rows"))}
	handler := newTestHandler(&uploaderFake{}, reader, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestReingestDocumentAccepted(t *testing.T) {
	uploader := &uploaderFake{}
	handler := newTestHandler(uploader, &readerFake{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-3/reingest", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if uploader.reingestedID != "doc-3" {
		t.Fatalf("expected reingest of doc-3, got %q", uploader.reingestedID)
	}
}

func TestReingestDocumentNotFound(t *testing.T) {
	uploader := &uploaderFake{
		reingestErr: domain.WrapError(domain.ErrDocumentNotFound, "reingest", errors.New("no rows")),
	}
	handler := newTestHandler(uploader, &readerFake{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/missing/reingest", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadUnsupportedFormatMapsTo415(t *testing.T) {
	uploader := &uploaderFake{
		uploadErr: domain.WrapError(domain.ErrUnsupportedFormat, "upload", errors.New("no extractor for .zip")),
	}
	handler := newTestHandler(uploader, &readerFake{}, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartUpload(t, "archive.zip", "PK"))

	if res.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", res.Code)
	}
}
