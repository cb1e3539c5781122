package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AllowedMimeTypes is the security-vetted list of content types accepted for upload.
var AllowedMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// StoragePathPrefix is the fixed prefix every object key must carry.
const StoragePathPrefix = "documents/"

// DocumentStatus tracks a document through its lifecycle.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusUploaded DocumentStatus = "uploaded"
	StatusFailed   DocumentStatus = "failed"
	StatusDeleted  DocumentStatus = "deleted"
)

// VerificationStatus tracks the independent verification lifecycle.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// CanTransitionTo reports whether the status state machine permits the move.
// pending -> uploaded | failed; uploaded -> deleted; failed and deleted are terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusUploaded || next == StatusFailed
	case StatusUploaded:
		return next == StatusDeleted
	default:
		return false
	}
}

// Terminal reports whether a verification status can no longer change.
func (v VerificationStatus) Terminal() bool {
	return v == VerificationVerified || v == VerificationRejected
}

// Document is the metadata record for a stored file.
// This is a pure domain model with no database-specific dependencies or tags;
// persistence and validation live in separate packages.
type Document struct {
	ID                 string             `json:"id"`
	ApplicationID      string             `json:"application_id"`
	FileName           string             `json:"file_name"`
	MimeType           string             `json:"mime_type"`
	StoragePath        string             `json:"storage_path"`
	FileSize           int64              `json:"file_size"`
	UploadedAt         time.Time          `json:"uploaded_at"`
	Status             DocumentStatus     `json:"status"`
	VerificationStatus VerificationStatus `json:"verification_status"`
}

// StoragePathFor derives the object key for a document. This is the only place
// a storage path is produced; the path is never independently settable.
func StoragePathFor(applicationID, documentID, sanitizedFileName string) string {
	return fmt.Sprintf("%s%s/%s/%s", StoragePathPrefix, applicationID, documentID, sanitizedFileName)
}

var (
	ErrInvalidFileName     = errors.New("invalid file name")
	ErrMimeTypeNotAllowed  = errors.New("unsupported mime type")
	ErrFileSizeOutOfBounds = errors.New("file size out of bounds")
	ErrInvalidStoragePath  = errors.New("invalid storage path")
	ErrInvalidID           = errors.New("invalid document or application id")
	ErrInvalidTimestamp    = errors.New("invalid upload timestamp")
	ErrInvalidStatus       = errors.New("invalid document status")
)

// MimeTypeAllowed reports whether mt is on the upload allow-list.
func MimeTypeAllowed(mt string) bool {
	for _, allowed := range AllowedMimeTypes {
		if strings.EqualFold(mt, allowed) {
			return true
		}
	}
	return false
}

// Validate re-checks every security invariant on the record. Any violation is
// a hard failure; values are never coerced. maxFileSize is in bytes.
func (d *Document) Validate(maxFileSize int64) error {
	if d.FileName == "" || strings.ContainsAny(d.FileName, `/\`) || strings.Contains(d.FileName, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, d.FileName)
	}
	if !MimeTypeAllowed(d.MimeType) {
		return fmt.Errorf("%w: %s", ErrMimeTypeNotAllowed, d.MimeType)
	}
	if d.FileSize < 0 || d.FileSize > maxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileSizeOutOfBounds, d.FileSize, maxFileSize)
	}
	if !strings.HasPrefix(d.StoragePath, StoragePathPrefix) || strings.Contains(d.StoragePath, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidStoragePath, d.StoragePath)
	}
	if _, err := uuid.Parse(d.ID); err != nil {
		return fmt.Errorf("%w: id %q", ErrInvalidID, d.ID)
	}
	if _, err := uuid.Parse(d.ApplicationID); err != nil {
		return fmt.Errorf("%w: application_id %q", ErrInvalidID, d.ApplicationID)
	}
	if d.UploadedAt.IsZero() || d.UploadedAt.Location() != time.UTC {
		return ErrInvalidTimestamp
	}
	switch d.Status {
	case StatusPending, StatusUploaded, StatusFailed, StatusDeleted:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidStatus, d.Status)
	}
	switch d.VerificationStatus {
	case VerificationUnverified, VerificationVerified, VerificationRejected:
	default:
		return fmt.Errorf("%w: verification_status %q", ErrInvalidStatus, d.VerificationStatus)
	}
	return nil
}
