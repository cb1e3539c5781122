package scanner

import (
	"bytes"
	"context"
	"fmt"

	clamd "github.com/dutchcoders/go-clamd"
)

// clamavScanner scans content with a ClamAV daemon over its INSTREAM protocol.
// The clamd client holds no connection state, so the scanner is safe for
// concurrent use.
type clamavScanner struct {
	client *clamd.Clamd
}

// NewClamAV creates a Scanner backed by a ClamAV daemon.
// address uses clamd URL syntax, e.g. "tcp://localhost:3310" or "/var/run/clamav/clamd.ctl".
func NewClamAV(address string) (Scanner, error) {
	if address == "" {
		return nil, fmt.Errorf("clamav address is required")
	}
	return &clamavScanner{client: clamd.NewClamd(address)}, nil
}

// Ping verifies the daemon is reachable. Called once at startup.
func Ping(s Scanner) error {
	cs, ok := s.(*clamavScanner)
	if !ok {
		return nil
	}
	return cs.client.Ping()
}

func (s *clamavScanner) Scan(ctx context.Context, content []byte) (Result, error) {
	abort := make(chan bool)
	defer close(abort)

	responses, err := s.client.ScanStream(bytes.NewReader(content), abort)
	if err != nil {
		return Result{}, fmt.Errorf("clamav scan stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case res, ok := <-responses:
			if !ok {
				return Result{}, nil
			}
			switch res.Status {
			case clamd.RES_FOUND:
				return Result{Infected: true, Signature: res.Description}, nil
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				return Result{}, fmt.Errorf("clamav scan error: %s", res.Raw)
			}
		}
	}
}
