package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the object-store abstraction used for document
// binaries. Implementations must avoid local disk and rely on streaming I/O.

// User-metadata keys attached to every stored object.
const (
	// MetaFileHash carries the SHA-256 content hash computed at upload time.
	MetaFileHash = "File-Hash"
	// MetaApplicationID carries the owning application identifier.
	MetaApplicationID = "Application-Id"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; -1 lets the backend
// buffer/chunk as supported.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	// ServerSideEncryption asks the backend to encrypt the object at rest.
	ServerSideEncryption bool
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStore is a reusable object storage client interface, safe for
// concurrent use. Errors are opaque; callers decide their own retry policy.
type ObjectStore interface {
	// Put uploads an object under the given key. The write is atomic from the
	// caller's perspective: no partial object is ever visible.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL granting read access without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
