package repository

import (
	"context"

	"github.com/XF2S/document-service/internal/model"
)

// DocumentRepository defines data access for document metadata using SQL
// queries only. No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// The id must be unique; the database enforces it.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByStoragePath returns the document owning the given object key.
	FindByStoragePath(ctx context.Context, storagePath string) (*model.Document, error)

	// ListByApplication returns a page of documents for one application,
	// newest first, with the total row count for the filter.
	ListByApplication(ctx context.Context, applicationID string, pq PageQuery) (*PageResult[model.Document], error)

	// ListByStatus returns a page of documents in the given lifecycle state.
	ListByStatus(ctx context.Context, status model.DocumentStatus, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus sets the lifecycle status of a document.
	// Returns sql.ErrNoRows if no row matched.
	UpdateStatus(ctx context.Context, id string, status model.DocumentStatus) error

	// UpdateVerification sets the verification status of a document.
	// Returns sql.ErrNoRows if no row matched.
	UpdateVerification(ctx context.Context, id string, vs model.VerificationStatus) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
