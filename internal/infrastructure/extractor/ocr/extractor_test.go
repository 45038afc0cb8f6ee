package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

type engineFake struct {
	byImage map[string]string
	err     error
	calls   int
}

func (f *engineFake) Recognize(_ context.Context, image []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.byImage[string(image)], nil
}

type rasterFake struct {
	pages [][]byte
	err   error
}

func (f *rasterFake) Pages(context.Context, []byte) ([][]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func TestExtractSingleImageHasNoPageLabels(t *testing.T) {
	engine := &engineFake{byImage: map[string]string{"imgdata": "scanned words"}}
	ex := NewExtractor(engine, &rasterFake{})

	got, err := ex.Extract(context.Background(), "scan.png", []byte("imgdata"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "scanned words" {
		t.Fatalf("Extract() = %q", got)
	}
	if engine.calls != 1 {
		t.Fatalf("expected a single OCR pass, got %d", engine.calls)
	}
	if strings.Contains(got, "Page") {
		t.Fatalf("single image output must not carry page labels: %q", got)
	}
}

func TestExtractPDFSkipsBlankPages(t *testing.T) {
	engine := &engineFake{byImage: map[string]string{
		"p1": "first page text",
		"p2": "  \n\t ",
		"p3": "third page text",
	}}
	raster := &rasterFake{pages: [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}}
	ex := NewExtractor(engine, raster)

	got, err := ex.Extract(context.Background(), "doc.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Page 1:\nfirst page text\n\nPage 3:\nthird page text"
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
	if strings.Contains(got, "Page 2") {
		t.Fatalf("blank page must contribute no section: %q", got)
	}
}

func TestExtractPDFAllBlankPagesYieldsEmptyText(t *testing.T) {
	engine := &engineFake{byImage: map[string]string{"p1": "", "p2": " "}}
	raster := &rasterFake{pages: [][]byte{[]byte("p1"), []byte("p2")}}
	ex := NewExtractor(engine, raster)

	got, err := ex.Extract(context.Background(), "doc.pdf", nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	ex := NewExtractor(&engineFake{}, &rasterFake{})
	_, err := ex.Extract(context.Background(), "notes.txt", []byte("hello"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractWrapsRasterizerFailure(t *testing.T) {
	ex := NewExtractor(&engineFake{}, &rasterFake{err: errors.New("corrupt pdf")})
	_, err := ex.Extract(context.Background(), "broken.pdf", []byte("not a pdf"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractWrapsEngineFailure(t *testing.T) {
	engine := &engineFake{err: errors.New("tesseract crashed")}
	raster := &rasterFake{pages: [][]byte{[]byte("p1")}}
	ex := NewExtractor(engine, raster)

	_, err := ex.Extract(context.Background(), "doc.pdf", nil)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if _, err := ex.Extract(context.Background(), "scan.jpg", []byte("x")); !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction for image path, got %v", err)
	}
}
