package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/paperbox-app/paperbox/internal/core/domain"
	"github.com/paperbox-app/paperbox/internal/core/ports"
	"github.com/paperbox-app/paperbox/internal/infrastructure/extractor"
	"github.com/paperbox-app/paperbox/internal/infrastructure/textproc"
)

// DispatchUseCase is the ingestion dispatcher: the single entry point invoked
// once per delivered task. It classifies the source format, extracts and
// sanitizes text, counts tokens, and commits exactly one terminal state per
// invocation. Content-processing failures become an errored document; only
// persistence failures escape to the queue layer.
type DispatchUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractors map[extractor.Strategy]ports.TextExtractor
	tokens     ports.TokenCounter
}

func NewDispatchUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractors map[extractor.Strategy]ports.TextExtractor,
	tokens ports.TokenCounter,
) *DispatchUseCase {
	return &DispatchUseCase{
		repo:       repo,
		storage:    storage,
		extractors: extractors,
		tokens:     tokens,
	}
}

func (uc *DispatchUseCase) Dispatch(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			// Deletion races are benign: the task targets a document that no
			// longer exists, so there is nothing to update.
			slog.Info("document gone before dispatch", "document_id", documentID)
			return nil
		}
		return domain.WrapError(domain.ErrPersistence, "load document", err)
	}

	result := uc.process(ctx, doc)

	if err := uc.repo.FinishIngest(ctx, doc.ID, result); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			// Another dispatch already committed a terminal state, or the
			// document was deleted mid-flight. Last committed write wins.
			slog.Warn("ingest result discarded, document no longer processing",
				"document_id", doc.ID, "status", result.Status)
			return nil
		}
		return domain.WrapError(domain.ErrPersistence, "persist ingest result", err)
	}

	if result.Status == domain.StatusErrored {
		slog.Info("document errored", "document_id", doc.ID, "error", *result.ErrorMessage)
	} else {
		slog.Info("document complete", "document_id", doc.ID, "tokens", *result.TokenCount)
	}
	return nil
}

// process derives the terminal outcome for a document. It never returns an
// error: every classification or extraction failure is captured in the
// result so the caller persists exactly once, at its single exit point.
func (uc *DispatchUseCase) process(ctx context.Context, doc *domain.Document) domain.IngestResult {
	raw, err := uc.extract(ctx, doc)
	if err != nil {
		return domain.IngestErrored(err.Error())
	}

	text := textproc.Sanitize(raw)
	tokens := int64(uc.tokens.Count(text))
	return domain.IngestComplete(text, tokens)
}

func (uc *DispatchUseCase) extract(ctx context.Context, doc *domain.Document) (string, error) {
	strategy := extractor.ForFilename(doc.SourceRef)
	ex, ok := uc.extractors[strategy]
	if !ok {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "classify format",
			fmt.Errorf("no extraction strategy for %q", doc.SourceRef))
	}

	reader, err := uc.storage.Open(ctx, doc.SourceRef)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open source bytes", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read source bytes", err)
	}

	text, err := ex.Extract(ctx, doc.SourceRef, data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}
