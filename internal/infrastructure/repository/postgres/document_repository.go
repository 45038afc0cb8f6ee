package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/paperbox-app/paperbox/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	status TEXT NOT NULL,
	extracted_text TEXT,
	token_count BIGINT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, source_ref, status, extracted_text, token_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.SourceRef, string(doc.Status),
		doc.ExtractedText, doc.TokenCount, doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, source_ref, status, extracted_text, token_count, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string
	var text sql.NullString
	var tokens sql.NullInt64
	var errMsg sql.NullString

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.SourceRef, &status,
		&text, &tokens, &errMsg, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if text.Valid {
		doc.ExtractedText = &text.String
	}
	if tokens.Valid {
		doc.TokenCount = &tokens.Int64
	}
	if errMsg.Valid {
		doc.ErrorMessage = &errMsg.String
	}
	return &doc, nil
}

// MarkProcessing resets a document for re-ingestion, clearing all extraction
// fields in the same update.
func (r *DocumentRepository) MarkProcessing(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, extracted_text = NULL, token_count = NULL, error_message = NULL, updated_at = $3
WHERE id = $1
`, id, string(domain.StatusProcessing), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document processing: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "mark processing",
			fmt.Errorf("no document with id %s", id))
	}
	return nil
}

// FinishIngest commits the terminal outcome of a dispatch attempt as one
// atomic update. The status guard makes the transition a compare-and-swap:
// if another dispatch already committed a terminal state, or the document was
// deleted, no row matches and ErrConflict is returned.
func (r *DocumentRepository) FinishIngest(ctx context.Context, id string, res domain.IngestResult) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, extracted_text = $3, token_count = $4, error_message = $5, updated_at = $6
WHERE id = $1 AND status = $7
`, id, string(res.Status), res.ExtractedText, res.TokenCount, res.ErrorMessage,
		time.Now().UTC(), string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("finish ingest: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish ingest rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrConflict, "finish ingest",
			fmt.Errorf("document %s is not processing", id))
	}
	return nil
}
