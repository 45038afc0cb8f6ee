package ports

import (
	"context"
	"io"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// MarkProcessing resets a document for re-ingestion: status back to
	// processing, extraction fields cleared.
	MarkProcessing(ctx context.Context, id string) error
	// FinishIngest commits the terminal outcome of a dispatch attempt as one
	// atomic update, and only while the document is still processing.
	FinishIngest(ctx context.Context, id string, res domain.IngestResult) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// IngestHandler handles one delivered task.
type IngestHandler func(ctx context.Context, task domain.IngestTask) error

// TaskQueue publishes and consumes ingestion tasks with at-least-once
// delivery semantics.
type TaskQueue interface {
	PublishIngestTask(ctx context.Context, task domain.IngestTask) error
	ConsumeIngestTasks(ctx context.Context, workers int, handler IngestHandler) error
}

// TextExtractor turns stored source bytes into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// TokenCounter measures sanitized text for downstream context budgeting.
type TokenCounter interface {
	Count(text string) int
}
