package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"
)

// Runner lets tests stub the external rasterizer command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Rasterizer renders a PDF into one image per page, in page order.
type Rasterizer interface {
	Pages(ctx context.Context, pdfData []byte) ([][]byte, error)
}

// PopplerRasterizer shells out to pdftoppm. The PDF is parsed first so that
// corrupt input fails before any subprocess is spawned.
type PopplerRasterizer struct {
	runner   Runner
	binary   string
	dpi      int
	maxPages int
}

func NewPopplerRasterizer(binary string, dpi, maxPages int) *PopplerRasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &PopplerRasterizer{
		runner:   execRunner{},
		binary:   binary,
		dpi:      dpi,
		maxPages: maxPages,
	}
}

func (r *PopplerRasterizer) Pages(ctx context.Context, pdfData []byte) ([][]byte, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	tmpDir, err := os.MkdirTemp("", "paperbox-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf for rasterizing: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", r.dpi), "-png"}
	if r.maxPages > 0 && total > r.maxPages {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", r.maxPages))
	}
	args = append(args, input, prefix)

	if _, errb, err := r.runner.Run(ctx, r.binary, args...); err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w: %s", err, bytes.TrimSpace(errb))
	}

	// pdftoppm zero-pads page numbers, so a lexical sort preserves page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("rasterizer produced no pages")
	}

	pages := make([][]byte, 0, len(matches))
	for _, path := range matches {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rendered page: %w", err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
