package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/XF2S/document-service/internal/model"
	"github.com/XF2S/document-service/internal/repository"
	"github.com/XF2S/document-service/internal/storage"
	"github.com/XF2S/document-service/internal/validator"
)

// UploadInput carries an upload request into the service.
type UploadInput struct {
	Content       []byte
	FileName      string
	MimeType      string
	ApplicationID string
	// Checksum is an optional caller-supplied SHA-256 hex digest; when present
	// it must match the hash computed over Content.
	Checksum string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents. Each
// operation runs its stages strictly in order: no side effect happens before
// the prior stage succeeded.
type DocumentService interface {
	// Upload validates the content, writes the object with server-side
	// encryption, then persists the metadata record.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// Get returns the metadata record by document id.
	Get(ctx context.Context, id string) (*model.Document, error)

	// ListByApplication returns documents owned by one application.
	ListByApplication(ctx context.Context, applicationID string, limit, offset int) (*DocumentListResult, error)

	// ListByStatus returns documents in one lifecycle status across all
	// applications, for review and reconciliation workflows.
	ListByStatus(ctx context.Context, status model.DocumentStatus, limit, offset int) (*DocumentListResult, error)

	// Download fetches the content and verifies it against the hash recorded
	// at upload time. Returns the bytes and the content type.
	Download(ctx context.Context, id string) ([]byte, string, error)

	// Delete removes the object and soft-deletes the metadata record.
	Delete(ctx context.Context, id string) error

	// Verify records a verification decision, independent of upload/delete.
	Verify(ctx context.Context, id string, vs model.VerificationStatus) (*model.Document, error)

	// Presign returns a time-limited read URL. The expiry is clamped to the
	// configured bounds regardless of the requested value.
	Presign(ctx context.Context, id string, expiry time.Duration) (string, error)
}

// Options configure a documentService beyond its collaborators.
type Options struct {
	MaxFileSize      int64
	PresignMinExpiry time.Duration
	PresignMaxExpiry time.Duration
	// Registerer receives the document_operations_total counter; nil skips
	// registration (the counter still works, useful in tests).
	Registerer prometheus.Registerer
	// LogWriter receives JSON log lines; defaults to the standard logger.
	LogWriter io.Writer
}

// documentService is a concrete implementation of DocumentService.
// It holds only reused client handles, all safe for concurrent use.
type documentService struct {
	validator *validator.FileValidator
	store     storage.ObjectStore
	repo      repository.DocumentRepository
	opts      Options
	ops       *prometheus.CounterVec
}

// NewDocumentService constructs a new DocumentService. Collaborators are
// injected explicitly so tests can substitute fakes without global state.
func NewDocumentService(v *validator.FileValidator, store storage.ObjectStore, repo repository.DocumentRepository, opts Options) DocumentService {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_operations_total",
			Help: "Document operations count by operation and outcome.",
		},
		[]string{"operation", "status"},
	)
	if opts.Registerer != nil {
		opts.Registerer.MustRegister(ops)
	}
	return &documentService{validator: v, store: store, repo: repo, opts: opts, ops: ops}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (doc *model.Document, err error) {
	defer s.track("upload", &err)

	if _, err := uuid.Parse(in.ApplicationID); err != nil {
		return nil, fmt.Errorf("%w: invalid application id %q", ErrFileValidation, in.ApplicationID)
	}

	// Stage 1: validation. Fails fast with no side effects and is never retried.
	ok, reason, meta := s.validator.Validate(ctx, in.Content, in.MimeType, in.FileName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileValidation, reason)
	}
	if in.Checksum != "" && !strings.EqualFold(in.Checksum, meta.FileHash) {
		return nil, fmt.Errorf("%w: checksum does not match content", ErrFileValidation)
	}

	// Stage 2: derive identity and storage path; re-check every invariant on
	// the record before any backend write.
	docID := uuid.NewString()
	storagePath := model.StoragePathFor(in.ApplicationID, docID, meta.SanitizedFilename)
	doc = &model.Document{
		ID:                 docID,
		ApplicationID:      in.ApplicationID,
		FileName:           meta.SanitizedFilename,
		MimeType:           in.MimeType,
		StoragePath:        storagePath,
		FileSize:           meta.FileSizeBytes,
		UploadedAt:         time.Now().UTC(),
		Status:             model.StatusUploaded,
		VerificationStatus: model.VerificationUnverified,
	}
	if err := doc.Validate(s.opts.MaxFileSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileValidation, err)
	}

	// Stage 3: single object creation call, encrypted at rest, carrying the
	// content hash and owner in object metadata.
	_, err = retryBackend(ctx, func() (storage.ObjectInfo, error) {
		return s.store.Put(ctx, storagePath, bytes.NewReader(in.Content), storage.PutObjectOptions{
			Size:                 meta.FileSizeBytes,
			ContentType:          in.MimeType,
			ServerSideEncryption: true,
			Metadata: map[string]string{
				storage.MetaFileHash:      meta.FileHash,
				storage.MetaApplicationID: in.ApplicationID,
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Stage 4: persist the metadata record. If this exhausts its retries the
	// stored object is orphaned; log the divergence so an out-of-band
	// reconciliation job can pick it up.
	stored, err := retryBackend(ctx, func() (*model.Document, error) {
		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		// The insert may have landed even though its response was lost; a
		// record under this path means the upload actually completed.
		if existing, ferr := s.repo.FindByStoragePath(ctx, storagePath); ferr == nil {
			return existing, nil
		}
		s.logDivergence("orphaned_object", doc.ID, storagePath, "object_store")
		return nil, fmt.Errorf("metadata save failed: %w", err)
	}
	return stored, nil
}

// Get returns a document projection by ID.
func (s *documentService) Get(ctx context.Context, id string) (doc *model.Document, err error) {
	defer s.track("get", &err)
	return s.findByID(ctx, id)
}

// ListByApplication returns paginated documents for one application.
func (s *documentService) ListByApplication(ctx context.Context, applicationID string, limit, offset int) (res *DocumentListResult, err error) {
	defer s.track("list", &err)

	if _, err := uuid.Parse(applicationID); err != nil {
		return nil, fmt.Errorf("%w: invalid application id %q", ErrFileValidation, applicationID)
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	page, err := retryBackend(ctx, func() (*repository.PageResult[model.Document], error) {
		return s.repo.ListByApplication(ctx, applicationID, repository.PageQuery{Limit: limit, Offset: offset})
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: page.Items, Total: page.Total}, nil
}

// ListByStatus returns paginated documents in one lifecycle status.
func (s *documentService) ListByStatus(ctx context.Context, status model.DocumentStatus, limit, offset int) (res *DocumentListResult, err error) {
	defer s.track("list", &err)

	switch status {
	case model.StatusPending, model.StatusUploaded, model.StatusFailed, model.StatusDeleted:
	default:
		return nil, fmt.Errorf("%w: invalid status %q", ErrFileValidation, status)
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	page, err := retryBackend(ctx, func() (*repository.PageResult[model.Document], error) {
		return s.repo.ListByStatus(ctx, status, repository.PageQuery{Limit: limit, Offset: offset})
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: page.Items, Total: page.Total}, nil
}

func (s *documentService) Download(ctx context.Context, id string) (content []byte, mimeType string, err error) {
	defer s.track("download", &err)

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	// Deleted and never-completed documents have no retrievable object.
	if doc.Status != model.StatusUploaded {
		return nil, "", ErrNotFound
	}
	if err := checkStoragePath(doc.StoragePath); err != nil {
		return nil, "", err
	}

	var info storage.ObjectInfo
	rc, err := retryBackend(ctx, func() (io.ReadCloser, error) {
		r, i, gerr := s.store.Get(ctx, doc.StoragePath)
		if gerr != nil {
			return nil, gerr
		}
		info = i
		return r, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("download from storage: %w", err)
	}
	defer rc.Close()

	content, err = io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read object content: %w", err)
	}

	// Integrity check: recompute the hash and compare with the value stored
	// as object metadata at upload time. Tampered or corrupted content must
	// never be returned.
	if stored := metaValue(info.Metadata, storage.MetaFileHash); stored != "" {
		if !strings.EqualFold(validator.HashContent(content), stored) {
			s.logDivergence("integrity_mismatch", doc.ID, doc.StoragePath, "object_store")
			return nil, "", ErrIntegrityCheck
		}
	}

	mimeType = info.ContentType
	if mimeType == "" {
		mimeType = doc.MimeType
	}
	return content, mimeType, nil
}

func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	defer s.track("delete", &err)

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == model.StatusDeleted {
		return ErrNotFound
	}
	if !doc.Status.CanTransitionTo(model.StatusDeleted) {
		return ErrNotUploaded
	}
	if err := checkStoragePath(doc.StoragePath); err != nil {
		return err
	}

	// Object deletion happens first; the two backends are not covered by a
	// single transaction.
	if _, err := retryBackend(ctx, func() (struct{}, error) {
		return struct{}{}, s.store.Delete(ctx, doc.StoragePath)
	}); err != nil {
		return fmt.Errorf("delete from storage: %w", err)
	}

	// Soft delete: the record is retained and marked deleted. If this fails
	// the object is already gone while the record still reads uploaded, an
	// inconsistency that must be observable, not swallowed.
	if _, err := retryBackend(ctx, func() (struct{}, error) {
		return struct{}{}, s.repo.UpdateStatus(ctx, doc.ID, model.StatusDeleted)
	}); err != nil {
		s.logDivergence("stale_metadata_after_delete", doc.ID, doc.StoragePath, "metadata_store")
		return fmt.Errorf("metadata update failed: %w", err)
	}
	return nil
}

func (s *documentService) Verify(ctx context.Context, id string, vs model.VerificationStatus) (doc *model.Document, err error) {
	defer s.track("verify", &err)

	if vs != model.VerificationVerified && vs != model.VerificationRejected {
		return nil, fmt.Errorf("%w: invalid verification decision %q", ErrFileValidation, vs)
	}

	doc, err = s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusUploaded {
		return nil, ErrNotUploaded
	}
	if doc.VerificationStatus.Terminal() {
		return nil, ErrVerificationFinal
	}

	if _, err := retryBackend(ctx, func() (struct{}, error) {
		return struct{}{}, s.repo.UpdateVerification(ctx, doc.ID, vs)
	}); err != nil {
		return nil, fmt.Errorf("metadata update failed: %w", err)
	}

	doc.VerificationStatus = vs
	return doc, nil
}

func (s *documentService) Presign(ctx context.Context, id string, expiry time.Duration) (url string, err error) {
	defer s.track("presign", &err)

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.Status != model.StatusUploaded {
		return "", ErrNotFound
	}
	if err := checkStoragePath(doc.StoragePath); err != nil {
		return "", err
	}

	// Clamp to the configured bounds regardless of the requested value.
	if expiry < s.opts.PresignMinExpiry {
		expiry = s.opts.PresignMinExpiry
	}
	if expiry > s.opts.PresignMaxExpiry {
		expiry = s.opts.PresignMaxExpiry
	}

	url, err = retryBackend(ctx, func() (string, error) {
		return s.store.PresignGet(ctx, doc.StoragePath, expiry)
	})
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return url, nil
}

func (s *documentService) findByID(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := retryBackend(ctx, func() (*model.Document, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// checkStoragePath rejects keys outside the documents/ prefix or containing
// traversal sequences. Paths are server-generated; this is defense in depth.
func checkStoragePath(path string) error {
	if !strings.HasPrefix(path, model.StoragePathPrefix) || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidStoragePath, path)
	}
	return nil
}

// metaValue reads a user-metadata key tolerating the header-name
// canonicalization some object stores apply.
func metaValue(meta map[string]string, key string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	if v, ok := meta[textproto.CanonicalMIMEHeaderKey(key)]; ok {
		return v
	}
	return meta[strings.ToLower(key)]
}

func (s *documentService) track(operation string, err *error) {
	status := "success"
	if *err != nil {
		status = "failed"
	}
	s.ops.WithLabelValues(operation, status).Inc()
}

// logDivergence emits a structured line marking a consistency divergence
// between the object store and the metadata store: which document, which
// path, and which side holds the truth. Reconciliation happens out-of-band.
func (s *documentService) logDivergence(kind, documentID, storagePath, succeededSide string) {
	entry := map[string]any{
		"ts":           time.Now().UTC().Format(time.RFC3339Nano),
		"level":        "error",
		"event":        "consistency_divergence",
		"kind":         kind,
		"document_id":  documentID,
		"storage_path": storagePath,
		"succeeded":    succeededSide,
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if s.opts.LogWriter != nil {
		s.opts.LogWriter.Write(append(b, '\n'))
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
