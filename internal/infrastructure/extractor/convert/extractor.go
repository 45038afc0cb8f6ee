// Package convert extracts text from document, markup, e-mail and
// spreadsheet formats via generic document conversion.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract converts the source bytes to plain text and returns the converter's
// text payload as-is, without page segmentation. Workbooks go through a
// dedicated reader since docconv has no spreadsheet converter.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" {
		text, err := extractWorkbook(data)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "read workbook", err)
		}
		return text, nil
	}

	mimeType := docconv.MimeTypeByExtension(filename)
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction,
			fmt.Sprintf("convert %s", mimeType), err)
	}
	return res.Body, nil
}

func extractWorkbook(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sheets []string
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", name, err)
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		sheets = append(sheets, strings.Join(lines, "\n"))
	}
	return strings.Join(sheets, "\n\n"), nil
}
