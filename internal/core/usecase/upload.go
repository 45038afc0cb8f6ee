package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperbox-app/paperbox/internal/core/domain"
	"github.com/paperbox-app/paperbox/internal/core/ports"
)

// UploadUseCase stores source bytes, creates the document record in
// processing state and enqueues the ingestion task.
type UploadUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	queue      ports.TaskQueue
	dispatcher ports.IngestDispatcher
	sync       bool
}

func NewUploadUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.TaskQueue,
	dispatcher ports.IngestDispatcher,
	sync bool,
) *UploadUseCase {
	return &UploadUseCase{
		repo:       repo,
		storage:    storage,
		queue:      queue,
		dispatcher: dispatcher,
		sync:       sync,
	}
}

func (uc *UploadUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	sourceRef := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, sourceRef, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:        id,
		Filename:  filename,
		MimeType:  mimeType,
		SourceRef: sourceRef,
		Status:    domain.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.submit(ctx, doc.ID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Reingest resets a document back to processing and enqueues a fresh task.
// The dispatcher treats the new task identically to first-time ingestion.
func (uc *UploadUseCase) Reingest(ctx context.Context, documentID string) error {
	if err := uc.repo.MarkProcessing(ctx, documentID); err != nil {
		return fmt.Errorf("reset document for re-ingestion: %w", err)
	}
	return uc.submit(ctx, documentID)
}

// submit enqueues the task, or in synchronous mode runs the dispatch inline
// and maps the task's own failure directly onto the document status.
func (uc *UploadUseCase) submit(ctx context.Context, documentID string) error {
	if uc.sync {
		if err := uc.dispatcher.Dispatch(ctx, documentID); err != nil {
			_ = uc.repo.FinishIngest(ctx, documentID, domain.IngestErrored(err.Error()))
			return fmt.Errorf("synchronous ingest: %w", err)
		}
		return nil
	}

	task := domain.IngestTask{
		DocumentID: documentID,
		Name:       fmt.Sprintf("ingest-%s", documentID),
		Group:      domain.TaskGroupIngest,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishIngestTask(ctx, task); err != nil {
		return fmt.Errorf("publish ingest task: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
