package validator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/XF2S/document-service/internal/scanner"
	scannerMocks "github.com/XF2S/document-service/internal/scanner/mocks"
)

var allowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
}

// pdfContent returns bytes that sniff as application/pdf, padded to size.
func pdfContent(size int) []byte {
	header := []byte("%PDF-1.4\n")
	if size < len(header) {
		return header[:size]
	}
	return append(header, bytes.Repeat([]byte{' '}, size-len(header))...)
}

func TestFileValidator_Validate(t *testing.T) {
	ctx := context.Background()
	v := New(1<<20, allowedTypes, nil)

	t.Run("valid pdf", func(t *testing.T) {
		content := pdfContent(128)

		ok, reason, meta := v.Validate(ctx, content, "application/pdf", "transcript.pdf")

		assert.True(t, ok)
		assert.Empty(t, reason)
		assert.Equal(t, "transcript.pdf", meta.SanitizedFilename)
		assert.Equal(t, int64(128), meta.FileSizeBytes)
		assert.Equal(t, HashContent(content), meta.FileHash)
		assert.Greater(t, meta.ValidationTime.Nanoseconds(), int64(0))
	})

	t.Run("empty content", func(t *testing.T) {
		ok, reason, meta := v.Validate(ctx, nil, "application/pdf", "empty.pdf")

		assert.False(t, ok)
		assert.Equal(t, "Empty file content", reason)
		assert.Empty(t, meta.FileHash)
	})

	t.Run("mime mismatch", func(t *testing.T) {
		// Plain text claiming to be a PDF.
		ok, reason, meta := v.Validate(ctx, []byte("just some text"), "application/pdf", "fake.pdf")

		assert.False(t, ok)
		assert.Contains(t, reason, "MIME type mismatch")
		assert.Contains(t, reason, "claimed application/pdf")
		// The hash stage was never reached.
		assert.Empty(t, meta.FileHash)
	})

	t.Run("mismatch fails even when claimed type is not on the allow-list", func(t *testing.T) {
		ok, reason, _ := v.Validate(ctx, pdfContent(64), "application/zip", "a.zip")

		assert.False(t, ok)
		assert.Contains(t, reason, "MIME type mismatch")
	})

	t.Run("sniffed type not allowed", func(t *testing.T) {
		ok, reason, _ := v.Validate(ctx, []byte("plain text body"), "text/plain", "notes.txt")

		assert.False(t, ok)
		assert.Contains(t, reason, "not allowed")
	})

	t.Run("size exactly at limit passes", func(t *testing.T) {
		limit := 4096
		vs := New(int64(limit), allowedTypes, nil)

		ok, reason, _ := vs.Validate(ctx, pdfContent(limit), "application/pdf", "max.pdf")

		assert.True(t, ok, reason)
	})

	t.Run("one byte over limit fails with size reason", func(t *testing.T) {
		limit := 4096
		vs := New(int64(limit), allowedTypes, nil)

		ok, reason, _ := vs.Validate(ctx, pdfContent(limit+1), "application/pdf", "over.pdf")

		assert.False(t, ok)
		assert.Contains(t, reason, "exceeds maximum allowed size")
	})
}

func TestFileValidator_MalwareScan(t *testing.T) {
	ctx := context.Background()
	content := pdfContent(64)

	t.Run("clean", func(t *testing.T) {
		mScan := new(scannerMocks.MockScanner)
		mScan.On("Scan", ctx, content).Return(scanner.Result{}, nil)

		v := New(1<<20, allowedTypes, mScan)
		ok, reason, _ := v.Validate(ctx, content, "application/pdf", "a.pdf")

		assert.True(t, ok, reason)
		mScan.AssertExpectations(t)
	})

	t.Run("infected surfaces the signature", func(t *testing.T) {
		mScan := new(scannerMocks.MockScanner)
		mScan.On("Scan", ctx, content).
			Return(scanner.Result{Infected: true, Signature: "Eicar-Test-Signature"}, nil)

		v := New(1<<20, allowedTypes, mScan)
		ok, reason, meta := v.Validate(ctx, content, "application/pdf", "a.pdf")

		assert.False(t, ok)
		assert.Equal(t, "Virus detected: Eicar-Test-Signature", reason)
		// Hash was computed before the scan stage.
		assert.NotEmpty(t, meta.FileHash)
		mScan.AssertExpectations(t)
	})

	t.Run("scan error fails validation", func(t *testing.T) {
		mScan := new(scannerMocks.MockScanner)
		mScan.On("Scan", ctx, mock.Anything).
			Return(scanner.Result{}, errors.New("clamd unreachable"))

		v := New(1<<20, allowedTypes, mScan)
		ok, reason, _ := v.Validate(ctx, content, "application/pdf", "a.pdf")

		assert.False(t, ok)
		assert.Contains(t, reason, "Virus scan error")
	})

	t.Run("nil scanner skips the stage", func(t *testing.T) {
		v := New(1<<20, allowedTypes, nil)
		ok, _, _ := v.Validate(ctx, content, "application/pdf", "a.pdf")
		assert.True(t, ok)
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/file.pdf", "file.pdf"},
		{`back\slash.pdf`, "backslash.pdf"},
		{"semi;colon&pipe|.pdf", "semicolonpipe.pdf"},
		{"wild*card?.pdf", "wildcard.pdf"},
		{"angle<bra>cket.pdf", "anglebracket.pdf"},
		{"caret^dollar$.pdf", "caretdollar.pdf"},
		{"dots..dots.pdf", "dotsdots.pdf"},
		// Removing ';' joins two single dots into '..', which must also go.
		{"a.;.b", "ab"},
		{"....", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeFilename(tt.in)
			assert.Equal(t, tt.want, got)

			// Idempotence: sanitizing an already-sanitized name is a no-op.
			assert.Equal(t, got, SanitizeFilename(got))

			// The result never carries separators or traversal sequences.
			assert.False(t, strings.ContainsAny(got, `/\`))
			assert.NotContains(t, got, "..")
		})
	}
}

func TestHashContent(t *testing.T) {
	content := []byte("hello world")
	sum := sha256.Sum256(content)

	assert.Equal(t, hex.EncodeToString(sum[:]), HashContent(content))
	// Deterministic.
	assert.Equal(t, HashContent(content), HashContent([]byte("hello world")))
}
