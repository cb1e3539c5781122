package validator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/XF2S/document-service/internal/scanner"
)

// Metadata is derived from the content during validation. It is filled
// incrementally, so on failure it carries everything computed up to the
// failing stage.
type Metadata struct {
	OriginalFilename  string        `json:"original_filename"`
	SanitizedFilename string        `json:"sanitized_filename"`
	FileSizeBytes     int64         `json:"file_size_bytes"`
	MimeType          string        `json:"mime_type"`
	FileHash          string        `json:"file_hash"`
	ValidationTime    time.Duration `json:"validation_time"`
}

// FileValidator runs the multi-stage upload check: emptiness, filename
// sanitization, content-type sniffing, size limit, content hash, and an
// optional malware scan. It is stateless and safe for concurrent use.
type FileValidator struct {
	maxFileSize  int64
	allowedTypes []string
	scanner      scanner.Scanner
}

// New creates a FileValidator. maxFileSize is in bytes. A nil scanner
// disables the malware stage.
func New(maxFileSize int64, allowedTypes []string, scan scanner.Scanner) *FileValidator {
	return &FileValidator{
		maxFileSize:  maxFileSize,
		allowedTypes: allowedTypes,
		scanner:      scan,
	}
}

// Validate runs all stages in order, short-circuiting on the first failure.
// It returns the verdict, a human-readable reason for the first failure, and
// the metadata derived so far. Validation has no side effects and its
// failures are deterministic, so callers must never retry it.
func (v *FileValidator) Validate(ctx context.Context, content []byte, claimedMimeType, fileName string) (bool, string, *Metadata) {
	start := time.Now()
	meta := &Metadata{
		OriginalFilename: fileName,
		FileSizeBytes:    int64(len(content)),
		MimeType:         claimedMimeType,
	}
	defer func() { meta.ValidationTime = time.Since(start) }()

	if len(content) == 0 {
		return false, "Empty file content", meta
	}

	meta.SanitizedFilename = SanitizeFilename(fileName)

	detected := mimetype.Detect(content)
	if !detected.Is(claimedMimeType) {
		return false, fmt.Sprintf("MIME type mismatch: claimed %s, detected %s", claimedMimeType, detected.String()), meta
	}
	if !v.typeAllowed(detected) {
		return false, fmt.Sprintf("MIME type %s not allowed", detected.String()), meta
	}

	if meta.FileSizeBytes > v.maxFileSize {
		return false, fmt.Sprintf("File size %.2fMB exceeds maximum allowed size of %dMB",
			float64(meta.FileSizeBytes)/(1<<20), v.maxFileSize>>20), meta
	}

	meta.FileHash = HashContent(content)

	if v.scanner != nil {
		res, err := v.scanner.Scan(ctx, content)
		if err != nil {
			return false, fmt.Sprintf("Virus scan error: %v", err), meta
		}
		if res.Infected {
			return false, fmt.Sprintf("Virus detected: %s", res.Signature), meta
		}
	}

	return true, "", meta
}

func (v *FileValidator) typeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range v.allowedTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

// forbidden holds the path and shell metacharacter sequences stripped from
// uploaded filenames.
var forbidden = []string{"/", `\`, "..", ";", "&", "|", "*", "?", "<", ">", "^", "$"}

// SanitizeFilename strips directory components and removes forbidden
// characters. Removal repeats until the name is stable, so a dangerous
// sequence can never be re-assembled by an earlier removal and sanitizing an
// already-sanitized name is a no-op.
func SanitizeFilename(fileName string) string {
	name := filepath.Base(filepath.ToSlash(fileName))
	for {
		prev := name
		for _, seq := range forbidden {
			name = strings.ReplaceAll(name, seq, "")
		}
		if name == prev {
			return name
		}
	}
}

// HashContent returns the hex-encoded SHA-256 digest of content, stored at
// upload time and compared at download time for integrity verification.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
