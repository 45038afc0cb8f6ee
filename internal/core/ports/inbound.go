package ports

import (
	"context"
	"io"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

// DocumentUploader is the inbound contract for document upload orchestration.
type DocumentUploader interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
	Reingest(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for status polling.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// IngestDispatcher is the inbound contract for asynchronous ingestion, the
// single entry point invoked by the task queue per delivered task.
type IngestDispatcher interface {
	Dispatch(ctx context.Context, documentID string) error
}
