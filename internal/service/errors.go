package service

import "errors"

var (
	// ErrIDRequired is returned when an operation is called without a document id.
	ErrIDRequired = errors.New("id is required")
	// ErrNotFound is returned when no usable document matches the identifier.
	ErrNotFound = errors.New("document not found")
	// ErrFileValidation wraps the first failing reason from the validation
	// pipeline. Deterministic and client-attributable; never retried.
	ErrFileValidation = errors.New("file validation failed")
	// ErrIntegrityCheck signals that downloaded content does not match the
	// hash recorded at upload time. Treated as server-side data corruption;
	// the content is never returned.
	ErrIntegrityCheck = errors.New("file integrity check failed")
	// ErrInvalidStoragePath signals a path outside the documents/ prefix or
	// containing traversal sequences. Paths are server-generated, so this is
	// defense in depth.
	ErrInvalidStoragePath = errors.New("invalid storage path")
	// ErrNotUploaded is returned when an operation requires the uploaded state.
	ErrNotUploaded = errors.New("document is not in uploaded state")
	// ErrVerificationFinal is returned when a verification decision was
	// already made; verified and rejected are terminal.
	ErrVerificationFinal = errors.New("verification status is final")
)
