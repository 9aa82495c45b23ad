// Package lotw holds the pieces that talk to the outside world on
// behalf of the sync jobs: the tqsl signing pipeline and the HTTP
// transport for uploads and confirmation downloads.
package lotw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SigningError reports a failed tqsl invocation, carrying whatever the
// tool wrote to stderr.
type SigningError struct {
	Err    error
	Stderr string
}

func (e *SigningError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("tqsl: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("tqsl: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// SignResult is the outcome of one signing call. When tqsl is missing
// or fails, Payload is the original unsigned document, Degraded is set
// and Reason holds the primary failure so callers can surface that
// signatures may be absent.
type SignResult struct {
	Payload  string
	Degraded bool
	Reason   string
}

// Signer runs the external tqsl tool over a per-call temporary scope.
// Each call uses uniquely named artifacts, so concurrent signings do
// not collide.
type Signer struct {
	tqslPath string
	tempDir  string
	timeout  time.Duration
}

// NewSigner builds a Signer. Empty arguments fall back to "tqsl" on
// PATH and the system temp directory. A positive timeout bounds each
// tool invocation; zero leaves the caller's context in charge.
func NewSigner(tqslPath, tempDir string, timeout time.Duration) *Signer {
	if tqslPath == "" {
		tqslPath = "tqsl"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Signer{tqslPath: tqslPath, tempDir: tempDir, timeout: timeout}
}

// Sign writes the payload and certificate to a private scope, invokes
// tqsl and returns the signed output. Every transient artifact is
// removed before return on all paths; removal failures are logged and
// never replace the primary outcome. An unresponsive tool is killed
// once the configured timeout elapses and reported as a degraded
// result.
func (s *Signer) Sign(ctx context.Context, adif string, cert []byte, callsign string) (result *SignResult, err error) {
	if len(cert) == 0 {
		return nil, errors.New("certificate is empty, refusing to sign")
	}
	if callsign == "" {
		return nil, errors.New("callsign is required for signing")
	}

	scope := filepath.Join(s.tempDir, "lotw-sign-"+uuid.NewString())
	if err := os.MkdirAll(scope, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create signing scope: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scope); rmErr != nil {
			log.Printf("failed to clean up signing scope %s: %v", scope, rmErr)
		}
	}()

	adifFile := filepath.Join(scope, "upload.adi")
	certFile := filepath.Join(scope, "station.p12")
	signedFile := filepath.Join(scope, "upload.tq8")

	if err := os.WriteFile(adifFile, []byte(adif), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write payload: %w", err)
	}
	if err := os.WriteFile(certFile, cert, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write certificate: %w", err)
	}

	if err := s.runTQSL(ctx, adifFile, certFile, signedFile, callsign); err != nil {
		log.Printf("tqsl signing failed for %s, returning unsigned payload: %v", callsign, err)
		return &SignResult{Payload: adif, Degraded: true, Reason: err.Error()}, nil
	}

	signed, err := os.ReadFile(signedFile)
	if err != nil {
		log.Printf("tqsl produced no readable output for %s, returning unsigned payload: %v", callsign, err)
		return &SignResult{Payload: adif, Degraded: true, Reason: err.Error()}, nil
	}

	return &SignResult{Payload: string(signed)}, nil
}

// runTQSL invokes the signing tool. Success is the exit status alone;
// any spawn failure or non-zero exit becomes a SigningError.
func (s *Signer) runTQSL(ctx context.Context, adifFile, certFile, outputFile, callsign string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.tqslPath,
		"-d",
		"-l", callsign,
		"-c", certFile,
		"-o", outputFile,
		adifFile,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &SigningError{Err: err, Stderr: stderr.String()}
	}
	return nil
}
