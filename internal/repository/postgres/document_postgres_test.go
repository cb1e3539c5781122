package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/XF2S/document-service/internal/model"
	"github.com/XF2S/document-service/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentCols = []string{
	"id", "application_id", "file_name", "mime_type", "storage_path",
	"file_size", "uploaded_at", "status", "verification_status",
}

func sampleDocument() *model.Document {
	return &model.Document{
		ID:                 "7b5f2f0a-9f2e-4f6a-8c3d-1a2b3c4d5e6f",
		ApplicationID:      "0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f",
		FileName:           "transcript.pdf",
		MimeType:           "application/pdf",
		StoragePath:        "documents/0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f/7b5f2f0a-9f2e-4f6a-8c3d-1a2b3c4d5e6f/transcript.pdf",
		FileSize:           2048,
		UploadedAt:         time.Now().UTC(),
		Status:             model.StatusUploaded,
		VerificationStatus: model.VerificationUnverified,
	}
}

func docRows(doc *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentCols).AddRow(
		doc.ID, doc.ApplicationID, doc.FileName, doc.MimeType, doc.StoragePath,
		doc.FileSize, doc.UploadedAt, doc.Status, doc.VerificationStatus,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := sampleDocument()

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.ApplicationID, doc.FileName, doc.MimeType, doc.StoragePath,
			doc.FileSize, doc.UploadedAt, doc.Status, doc.VerificationStatus).
		WillReturnRows(docRows(doc))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, doc.StoragePath, result.StoragePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := sampleDocument()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
			WithArgs(doc.ID).
			WillReturnRows(docRows(doc))

		result, err := repo.FindByID(ctx, doc.ID)

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, doc.ApplicationID, result.ApplicationID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		result, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, result)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByStoragePath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := sampleDocument()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE storage_path =").
		WithArgs(doc.StoragePath).
		WillReturnRows(docRows(doc))

	result, err := repo.FindByStoragePath(context.Background(), doc.StoragePath)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := sampleDocument()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE application_id =").
		WithArgs(doc.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("(?s)SELECT (.+) FROM documents\\s+WHERE application_id =").
		WithArgs(doc.ApplicationID, 10, 0).
		WillReturnRows(docRows(doc))

	result, err := repo.ListByApplication(context.Background(), doc.ApplicationID, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Total)
	assert.Len(t, result.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := sampleDocument()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE status =").
		WithArgs(model.StatusUploaded).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("(?s)SELECT (.+) FROM documents\\s+WHERE status =").
		WithArgs(model.StatusUploaded, 5, 0).
		WillReturnRows(docRows(doc))

	result, err := repo.ListByStatus(context.Background(), model.StatusUploaded, repository.PageQuery{Limit: 5, Offset: 0})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET status =").
			WithArgs("doc-1", model.StatusDeleted).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateStatus(ctx, "doc-1", model.StatusDeleted))
	})

	t.Run("no row matched", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET status =").
			WithArgs("missing", model.StatusDeleted).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", model.StatusDeleted), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET verification_status =").
			WithArgs("doc-1", model.VerificationVerified).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateVerification(ctx, "doc-1", model.VerificationVerified))
	})

	t.Run("no row matched", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET verification_status =").
			WithArgs("missing", model.VerificationRejected).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateVerification(ctx, "missing", model.VerificationRejected), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
