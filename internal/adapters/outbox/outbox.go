// Package outbox is a dry-run mail transport. Each message is rendered as an
// RFC 5322 file in a directory instead of being handed to a relay, so a run
// can be inspected before any mail leaves the machine.
package outbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// Extension is the file extension of written messages.
const Extension = ".eml"

// Writer is a ports.MailTransport that writes messages to Dir.
type Writer struct {
	dir    string
	from   string
	now    func() time.Time
	logger ports.Logger
}

// NewWriter creates the outbox directory if needed.
func NewWriter(dir, from string, logger ports.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: outbox directory not set", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create outbox %s: %w", dir, err)
	}
	return &Writer{dir: dir, from: from, now: time.Now, logger: logger}, nil
}

// Dir returns the outbox directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Send renders msg and writes it to a new file. The file name is returned as
// the message id.
func (w *Writer) Send(ctx context.Context, msg domain.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e := email.NewEmail()
	e.From = w.from
	e.To = []string{msg.To.String()}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	if msg.AttachmentPath != "" {
		if _, err := e.AttachFile(msg.AttachmentPath); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrAttachmentMissing, err)
		}
	}

	raw, err := e.Bytes()
	if err != nil {
		return "", fmt.Errorf("render message for %s: %w", msg.To, err)
	}

	name := fileName(w.now(), msg.To)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.Debug("message written to outbox",
		ports.String("path", path),
		ports.Int("bytes", len(raw)),
	)
	return name, nil
}

// fileName is sortable by creation time and unique per recipient.
func fileName(t time.Time, to domain.Address) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == '@':
			return '_'
		default:
			return '-'
		}
	}, to.String())
	return fmt.Sprintf("%s-%s%s", t.UTC().Format("20060102T150405.000000000"), safe, Extension)
}
