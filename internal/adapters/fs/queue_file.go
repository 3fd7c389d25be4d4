package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/mailship/internal/domain"
)

// QueueFileName is the queue file name inside the data directory.
const QueueFileName = "Emails.txt"

// QueueFile implements ports.Queue as a newline-delimited text file.
// The accumulator only appends; the dispatcher rewrites with matching lines
// filtered out, so lines added by hand while a run is in progress survive.
type QueueFile struct {
	path string
}

// NewQueueFile creates a queue backed by the file at path.
func NewQueueFile(path string) *QueueFile {
	return &QueueFile{path: path}
}

// Path returns the full path to the queue file.
func (q *QueueFile) Path() string {
	return q.path
}

// Ensure creates the parent directory and an empty queue file if missing.
func (q *QueueFile) Ensure(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o700); err != nil {
		return fmt.Errorf("queue dir: %w", err)
	}
	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	return f.Close()
}

// Load returns the queued addresses in file order.
// A missing file yields an error wrapping domain.ErrQueueMissing.
func (q *QueueFile) Load(ctx context.Context) ([]domain.Address, error) {
	b, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQueueMissing, q.path)
		}
		return nil, fmt.Errorf("read queue: %w", err)
	}

	var out []domain.Address
	for _, line := range strings.Split(string(b), "\n") {
		if a := domain.NormalizeAddress(line); a != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

// Append writes addr as a new line and syncs the file.
func (q *QueueFile) Append(ctx context.Context, addr domain.Address) error {
	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer f.Close()

	line := addr.String() + "\n"
	needsSep, err := missingTrailingNewline(f)
	if err != nil {
		return fmt.Errorf("inspect queue: %w", err)
	}
	if needsSep {
		line = "\n" + line
	}

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append queue: %w", err)
	}
	return f.Sync()
}

// Remove rewrites the queue without any line equal to addr (after
// normalisation). Other lines keep their order and original text.
func (q *QueueFile) Remove(ctx context.Context, addr domain.Address) error {
	b, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read queue: %w", err)
	}

	target := domain.NormalizeAddress(addr.String())
	kept := make([]string, 0)
	for _, line := range strings.Split(string(b), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || domain.NormalizeAddress(trimmed) == target {
			continue
		}
		kept = append(kept, trimmed)
	}

	out := strings.Join(kept, "\n")
	if out != "" {
		out += "\n"
	}
	if err := writeFileAtomic(q.path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("rewrite queue: %w", err)
	}
	return nil
}

// missingTrailingNewline reports whether f is non-empty and its last byte is
// not a newline.
func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
