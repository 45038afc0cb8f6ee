// Package ocr extracts text from raster images and PDFs via optical
// character recognition.
package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

type Extractor struct {
	engine Engine
	raster Rasterizer
}

func NewExtractor(engine Engine, raster Rasterizer) *Extractor {
	return &Extractor{engine: engine, raster: raster}
}

// Extract runs OCR on the source bytes. Single images get one recognition
// pass; PDFs are rasterized and recognized page by page.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return e.extractPDF(ctx, data)
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif":
		text, err := e.engine.Recognize(ctx, data)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "ocr image", err)
		}
		return text, nil
	default:
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "ocr extract",
			fmt.Errorf("no OCR support for %q", ext))
	}
}

// extractPDF recognizes each rendered page in order. Pages whose OCR output
// is blank contribute no section at all; the rest become "Page N:" sections
// joined by a blank line.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	pages, err := e.raster.Pages(ctx, data)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "rasterize pdf", err)
	}

	sections := make([]string, 0, len(pages))
	for i, img := range pages {
		text, err := e.engine.Recognize(ctx, img)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction,
				fmt.Sprintf("ocr pdf page %d", i+1), err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("Page %d:\n%s", i+1, text))
	}
	return strings.Join(sections, "\n\n"), nil
}
