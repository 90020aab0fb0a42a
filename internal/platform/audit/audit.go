// Package audit persists raw model responses for offline diagnosis.
// Entries are write-only; nothing in the service reads them back.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

type Entry struct {
	RequirementID string
	Attempt       int
	Raw           string
	At            time.Time
}

type Sink interface {
	// Record stores one raw response and returns a reference (file name).
	Record(ctx context.Context, e Entry) (string, error)
}

type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "logs/ai_responses"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir %q: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is "<req_id>_<UTC timestamp>_attempt<N>.txt" with the requirement
// id reduced to filesystem-safe characters.
func FileName(e Entry) string {
	req := unsafeChars.ReplaceAllString(e.RequirementID, "_")
	if req == "" {
		req = "unknown"
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s_%s_attempt%d.txt", req, at.UTC().Format("20060102T150405.000Z"), e.Attempt)
}

func (s *FileSink) Record(_ context.Context, e Entry) (string, error) {
	name := FileName(e)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open audit file: %w", err)
	}
	if _, err := f.WriteString(e.Raw); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write audit file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

type nopSink struct{}

func (nopSink) Record(context.Context, Entry) (string, error) { return "", nil }

func Nop() Sink { return nopSink{} }
