package postgres

import (
	"context"
	"database/sql"

	"github.com/XF2S/document-service/internal/model"
	"github.com/XF2S/document-service/internal/repository"
)

const documentColumns = `id, application_id, file_name, mime_type, storage_path, file_size, uploaded_at, status, verification_status`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.FileName,
		&d.MimeType,
		&d.StoragePath,
		&d.FileSize,
		&d.UploadedAt,
		&d.Status,
		&d.VerificationStatus,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, application_id, file_name, mime_type, storage_path, file_size, uploaded_at, status, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ApplicationID,
		doc.FileName,
		doc.MimeType,
		doc.StoragePath,
		doc.FileSize,
		doc.UploadedAt,
		doc.Status,
		doc.VerificationStatus,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByStoragePath fetches the document owning the given object key.
func (r *DocumentPostgres) FindByStoragePath(ctx context.Context, storagePath string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE storage_path = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, storagePath))
}

// ListByApplication returns documents for one application using LIMIT/OFFSET
// pagination and a total count, newest first.
func (r *DocumentPostgres) ListByApplication(ctx context.Context, applicationID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE application_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, applicationID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE application_id = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.listPage(ctx, total, qList, applicationID, pq.Limit, pq.Offset)
}

// ListByStatus returns documents in the given lifecycle state.
func (r *DocumentPostgres) ListByStatus(ctx context.Context, status model.DocumentStatus, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE status = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, status).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.listPage(ctx, total, qList, status, pq.Limit, pq.Offset)
}

func (r *DocumentPostgres) listPage(ctx context.Context, total int, query string, args ...any) (*repository.PageResult[model.Document], error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// UpdateStatus sets the lifecycle status. Returns sql.ErrNoRows when the
// document does not exist.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus) error {
	const q = `UPDATE documents SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateVerification sets the verification status. Returns sql.ErrNoRows when
// the document does not exist.
func (r *DocumentPostgres) UpdateVerification(ctx context.Context, id string, vs model.VerificationStatus) error {
	const q = `UPDATE documents SET verification_status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, vs)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
