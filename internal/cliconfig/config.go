package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/mailship/internal/domain"
)

// Defaults for settings that have no derivation rule.
const (
	DefaultSubject     = "Application – QA / Software Testing Role"
	DefaultSearchRole  = "QA role"
	DefaultResumeFile  = "resume.pdf"
	DefaultSMTPHost    = "smtp.gmail.com"
	DefaultSMTPPort    = 587
	DefaultSMTPRetries = 2
	DefaultLogLevel    = "info"

	// PlaceholderPassword is the sample value shipped in example env files.
	PlaceholderPassword = "your_google_app_password_here"
)

// DefaultBody is used when neither a template file nor a configured body exists.
const DefaultBody = `Hello,

I came across your post and would like to be considered for QA / software testing roles on your team.
Please find my resume attached.

Best regards`

// Config holds CLI configuration for mailship.
type Config struct {
	DataDir      string
	QueuePath    string
	LedgerPath   string
	TemplatePath string
	ResumeFile   string
	SnapshotDir  string
	PostSelector string
	OutboxDir    string
	DryRun       bool

	SMTPHost    string
	SMTPPort    int
	SMTPRetries int
	EmailUser   string
	EmailPass   string
	SenderName  string
	Subject     string
	Body        string

	SearchRole string

	Cooldown     time.Duration
	MaxCycles    int
	IdleCycles   int
	SettleDelay  time.Duration
	SendInterval time.Duration
	Timeout      time.Duration

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:      ".",
		ResumeFile:   DefaultResumeFile,
		SMTPHost:     DefaultSMTPHost,
		SMTPPort:     DefaultSMTPPort,
		SMTPRetries:  DefaultSMTPRetries,
		Subject:      DefaultSubject,
		SearchRole:   DefaultSearchRole,
		Cooldown:     96 * time.Hour,
		MaxCycles:    25,
		IdleCycles:   5,
		SettleDelay:  4 * time.Second,
		SendInterval: time.Second,
		LogLevel:     DefaultLogLevel,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// File locations default to well-known names inside DataDir.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data-dir is required", domain.ErrInvalidConfig)
	}

	if c.QueuePath == "" {
		c.QueuePath = filepath.Join(c.DataDir, "Emails.txt")
	}
	if c.LedgerPath == "" {
		c.LedgerPath = filepath.Join(c.DataDir, "SentEmails.json")
	}
	if c.TemplatePath == "" {
		c.TemplatePath = filepath.Join(c.DataDir, "EmailTemplate.txt")
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = filepath.Join(c.DataDir, "snapshots", Slug(c.SearchRole))
	}
	if c.OutboxDir == "" {
		c.OutboxDir = filepath.Join(c.DataDir, "outbox")
	}
	if c.ResumeFile == "" {
		c.ResumeFile = DefaultResumeFile
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}

	if c.Cooldown <= 0 {
		return fmt.Errorf("%w: cooldown must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxCycles <= 0 {
		return fmt.Errorf("%w: max-cycles must be positive", domain.ErrInvalidConfig)
	}
	if c.IdleCycles <= 0 {
		return fmt.Errorf("%w: idle-cycles must be positive", domain.ErrInvalidConfig)
	}
	if c.SendInterval < 0 {
		return fmt.Errorf("%w: send-interval must not be negative", domain.ErrInvalidConfig)
	}
	if c.SMTPRetries < 0 {
		return fmt.Errorf("%w: smtp-retries must not be negative", domain.ErrInvalidConfig)
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("%w: smtp-port %d out of range", domain.ErrInvalidConfig, c.SMTPPort)
	}

	return nil
}

// MailCredentials returns the SMTP user and password. The placeholder
// password counts as unset.
func (c *Config) MailCredentials() (user, pass string, err error) {
	if c.EmailUser == "" || c.EmailPass == "" {
		return "", "", domain.ErrMissingCredentials
	}
	if c.EmailPass == PlaceholderPassword {
		return "", "", domain.ErrPlaceholderCredential
	}
	return c.EmailUser, c.EmailPass, nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.EmailPass != "" {
		c.EmailPass = "****"
	}
	return c
}

// Slug turns a free-text search role into a directory name.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "default"
	}
	return out
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setCount sets a non-negative count from a pointer if not nil and flag not
// changed. Zero is a valid value.
func (s *configSetter) setCount(flag string, value *int, dst *int) {
	if value == nil || *value < 0 || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setCountFromString parses a non-negative count from a string. Unlike
// setIntFromString it applies zero.
func (s *configSetter) setCountFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return fmt.Errorf("parse %s: %d is negative", flag, i)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
