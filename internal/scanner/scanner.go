package scanner

import "context"

// Result is the outcome of a malware scan.
type Result struct {
	Infected bool
	// Signature is the scanner's name for the detected threat, empty when clean.
	Signature string
}

// Scanner submits raw content to a malware scanning backend.
// Implementations must be safe for concurrent use.
type Scanner interface {
	Scan(ctx context.Context, content []byte) (Result, error)
}
