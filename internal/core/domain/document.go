package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusComplete   DocumentStatus = "complete"
	StatusErrored    DocumentStatus = "errored"
)

// IsTerminal reports whether a status admits no further automatic transition.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusErrored
}

// CanTransition reports whether the ingestion lifecycle allows moving a
// document from one status to another. Processing is entered only at creation
// or on an explicit re-ingestion request, never automatically.
func CanTransition(from, to DocumentStatus) bool {
	return from == StatusProcessing && to.IsTerminal()
}

type Document struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	SourceRef     string         `json:"source_ref"`
	Status        DocumentStatus `json:"status"`
	ExtractedText *string        `json:"-"`
	TokenCount    *int64         `json:"token_count,omitempty"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

const TaskGroupIngest = "ingest"

// IngestTask is the queued unit of work. Group and Name are observability
// labels only; Attempt is managed by the queue, not by the document.
type IngestTask struct {
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Group      string    `json:"group"`
	Attempt    int       `json:"-"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// IngestResult is the terminal outcome of one dispatch attempt, persisted
// exactly once at the dispatcher's single exit point.
type IngestResult struct {
	Status        DocumentStatus
	ExtractedText *string
	TokenCount    *int64
	ErrorMessage  *string
}

func IngestComplete(text string, tokens int64) IngestResult {
	return IngestResult{
		Status:        StatusComplete,
		ExtractedText: &text,
		TokenCount:    &tokens,
	}
}

func IngestErrored(message string) IngestResult {
	return IngestResult{
		Status:       StatusErrored,
		ErrorMessage: &message,
	}
}
