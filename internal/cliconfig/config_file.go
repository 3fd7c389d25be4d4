package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir      string `toml:"data_dir"`
	QueueFile    string `toml:"queue_file"`
	LedgerFile   string `toml:"ledger_file"`
	TemplateFile string `toml:"template_file"`
	ResumeFile   string `toml:"resume_file"`
	SnapshotDir  string `toml:"snapshot_dir"`
	PostSelector string `toml:"post_selector"`
	OutboxDir    string `toml:"outbox_dir"`
	DryRun       *bool  `toml:"dry_run"`

	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPRetries  *int   `toml:"smtp_retries"`
	EmailUser    string `toml:"email_user"`
	EmailPass    string `toml:"email_pass"`
	SenderName   string `toml:"sender_name"`
	EmailSubject string `toml:"email_subject"`
	EmailBody    string `toml:"email_body"`

	SearchRole string `toml:"search_role"`

	Cooldown     string `toml:"cooldown"`
	MaxCycles    int    `toml:"max_cycles"`
	IdleCycles   int    `toml:"idle_cycles"`
	SettleDelay  string `toml:"settle_delay"`
	SendInterval string `toml:"send_interval"`
	Timeout      string `toml:"timeout"`

	LogLevel string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.mailship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".mailship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("queue-file", fc.QueueFile, &cfg.QueuePath)
	s.setString("ledger-file", fc.LedgerFile, &cfg.LedgerPath)
	s.setString("template-file", fc.TemplateFile, &cfg.TemplatePath)
	s.setString("resume-file", fc.ResumeFile, &cfg.ResumeFile)
	s.setString("snapshot-dir", fc.SnapshotDir, &cfg.SnapshotDir)
	s.setString("post-selector", fc.PostSelector, &cfg.PostSelector)
	s.setString("outbox-dir", fc.OutboxDir, &cfg.OutboxDir)
	s.setString("smtp-host", fc.SMTPHost, &cfg.SMTPHost)
	s.setString("email-user", fc.EmailUser, &cfg.EmailUser)
	s.setString("email-pass", fc.EmailPass, &cfg.EmailPass)
	s.setString("sender-name", fc.SenderName, &cfg.SenderName)
	s.setString("subject", fc.EmailSubject, &cfg.Subject)
	s.setString("body", fc.EmailBody, &cfg.Body)
	s.setString("search-role", fc.SearchRole, &cfg.SearchRole)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("cooldown", fc.Cooldown, &cfg.Cooldown); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", fc.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setDuration("send-interval", fc.SendInterval, &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}

	s.setInt("smtp-port", fc.SMTPPort, &cfg.SMTPPort)
	s.setCount("smtp-retries", fc.SMTPRetries, &cfg.SMTPRetries)
	s.setInt("max-cycles", fc.MaxCycles, &cfg.MaxCycles)
	s.setInt("idle-cycles", fc.IdleCycles, &cfg.IdleCycles)

	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
