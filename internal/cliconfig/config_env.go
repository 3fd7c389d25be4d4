package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (MAILSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("MAILSHIP_DATA_DIR"), &cfg.DataDir)
	s.setString("snapshot-dir", os.Getenv("MAILSHIP_SNAPSHOT_DIR"), &cfg.SnapshotDir)
	s.setString("outbox-dir", os.Getenv("MAILSHIP_OUTBOX_DIR"), &cfg.OutboxDir)
	s.setString("smtp-host", os.Getenv("MAILSHIP_SMTP_HOST"), &cfg.SMTPHost)
	s.setString("email-user", os.Getenv("MAILSHIP_EMAIL_USER"), &cfg.EmailUser)
	s.setString("email-pass", os.Getenv("MAILSHIP_EMAIL_PASS"), &cfg.EmailPass)
	s.setString("sender-name", os.Getenv("MAILSHIP_SENDER_NAME"), &cfg.SenderName)
	s.setString("subject", os.Getenv("MAILSHIP_EMAIL_SUBJECT"), &cfg.Subject)
	s.setString("body", os.Getenv("MAILSHIP_EMAIL_BODY"), &cfg.Body)
	s.setString("search-role", os.Getenv("MAILSHIP_SEARCH_ROLE"), &cfg.SearchRole)
	s.setString("log-level", os.Getenv("MAILSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("cooldown", os.Getenv("MAILSHIP_COOLDOWN"), &cfg.Cooldown); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", os.Getenv("MAILSHIP_SETTLE_DELAY"), &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setDuration("send-interval", os.Getenv("MAILSHIP_SEND_INTERVAL"), &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("MAILSHIP_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}

	if err := s.setIntFromString("smtp-port", os.Getenv("MAILSHIP_SMTP_PORT"), &cfg.SMTPPort); err != nil {
		return err
	}
	if err := s.setCountFromString("smtp-retries", os.Getenv("MAILSHIP_SMTP_RETRIES"), &cfg.SMTPRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("max-cycles", os.Getenv("MAILSHIP_MAX_CYCLES"), &cfg.MaxCycles); err != nil {
		return err
	}
	if err := s.setIntFromString("idle-cycles", os.Getenv("MAILSHIP_IDLE_CYCLES"), &cfg.IdleCycles); err != nil {
		return err
	}

	s.setBoolFromString("dry-run", os.Getenv("MAILSHIP_DRY_RUN"), &cfg.DryRun)

	return nil
}
