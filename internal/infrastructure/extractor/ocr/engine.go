package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine runs optical character recognition on a single raster image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractEngine recognizes text with a local tesseract installation via
// gosseract. A fresh client per call keeps the engine safe for concurrent
// workers; gosseract clients are not goroutine-safe.
type TesseractEngine struct {
	language string
}

func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language}
}

func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("set ocr language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image for ocr: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("run ocr: %w", err)
	}
	return text, nil
}
