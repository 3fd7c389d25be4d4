// Package smtp delivers messages through an SMTP relay using gomail.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net/textproto"
	"os"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// Defaults for a Gmail app-password relay.
const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultRetries = 2
)

// Config holds relay settings for the Sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From defaults to Username.
	From       string
	SenderName string

	// Retries is the number of extra attempts after a transient failure.
	Retries        int
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	InsecureSkipVerify bool
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender is a ports.MailTransport backed by an SMTP relay.
type Sender struct {
	dialer   dialer
	host     string
	from     string
	name     string
	retries  int
	backoffs func() *backoff
	logger   ports.Logger
}

// NewSender creates a sender. It fails with domain.ErrMissingCredentials if
// the username or password is empty.
func NewSender(cfg Config, logger ports.Logger) (*Sender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, domain.ErrMissingCredentials
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = DefaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS verification disabled for SMTP relay", ports.String("host", cfg.Host))
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}
	}

	logger.Debug("smtp sender configured",
		ports.String("host", cfg.Host),
		ports.Int("port", cfg.Port),
		ports.String("user", cfg.Username),
		ports.Int("retries", cfg.Retries),
	)

	initial, max := cfg.BackoffInitial, cfg.BackoffMax
	return &Sender{
		dialer:   d,
		host:     cfg.Host,
		from:     cfg.From,
		name:     cfg.SenderName,
		retries:  cfg.Retries,
		backoffs: func() *backoff { return newBackoff(initial, max) },
		logger:   logger,
	}, nil
}

// Send delivers msg and returns the Message-Id header it was sent with.
// Transient failures are retried with backoff; permanent SMTP replies (5xx)
// are returned immediately.
func (s *Sender) Send(ctx context.Context, msg domain.Message) (string, error) {
	if msg.AttachmentPath != "" {
		if _, err := os.Stat(msg.AttachmentPath); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrAttachmentMissing, err)
		}
	}

	id := s.messageID()
	m := s.compose(msg, id)

	bo := s.backoffs()
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := s.dialer.DialAndSend(m)
		if err == nil {
			return id, nil
		}
		lastErr = err

		if permanent(err) || attempt == s.retries {
			break
		}
		s.logger.Warn("smtp send attempt failed, retrying",
			ports.String("address", msg.To.String()),
			ports.Int("attempt", attempt+1),
			ports.Duration("backoff", bo.Current()),
			ports.Err(err),
		)
		if err := bo.Sleep(ctx); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("smtp %s: %w", s.host, lastErr)
}

func (s *Sender) compose(msg domain.Message, id string) *gomail.Message {
	m := gomail.NewMessage()
	if s.name != "" {
		m.SetAddressHeader("From", s.from, s.name)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", msg.To.String())
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-Id", id)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", msg.Body)
	if msg.AttachmentPath != "" {
		m.Attach(msg.AttachmentPath)
	}
	return m
}

func (s *Sender) messageID() string {
	host := domain.Address(s.from).Domain()
	if host == "" {
		host = s.host
	}
	return fmt.Sprintf("<%d.%d@%s>", time.Now().UnixNano(), rand.Int63(), host)
}

// permanent reports whether err is a 5xx SMTP reply.
func permanent(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code >= 500
}
