package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/rag-content-pipeline/internal/core/domain"
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
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source_key TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	category TEXT NOT NULL,
	language TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
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
	id, source_key, title, body, category, language, published_at, content_hash, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.SourceKey, doc.Title, doc.Text, doc.Category, doc.Language, doc.PublishedAt,
		doc.ContentHash, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return r.getByField(ctx, "id", id)
}

func (r *DocumentRepository) GetBySourceKey(ctx context.Context, sourceKey string) (*domain.Document, error) {
	return r.getByField(ctx, "source_key", sourceKey)
}

func (r *DocumentRepository) getByField(ctx context.Context, field, value string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, source_key, title, body, category, language, published_at, content_hash, status, error_message, created_at, updated_at
FROM documents
WHERE %s = $1
`, field), value)

	var doc domain.Document
	var status string

	err := row.Scan(
		&doc.ID, &doc.SourceKey, &doc.Title, &doc.Text, &doc.Category, &doc.Language,
		&doc.PublishedAt, &doc.ContentHash, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "repository.get", fmt.Errorf("%s=%s", field, value))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// Update rewrites the mutable content fields after a resubmission of
// an existing source key.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET title = $2, body = $3, category = $4, language = $5, published_at = $6, content_hash = $7, status = $8, error_message = $9, updated_at = $10
WHERE id = $1
`, doc.ID, doc.Title, doc.Text, doc.Category, doc.Language, doc.PublishedAt,
		doc.ContentHash, string(doc.Status), doc.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res, doc.ID)
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "repository.update", fmt.Errorf("id=%s", id))
	}
	return nil
}
