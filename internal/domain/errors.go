package domain

import "errors"

// Domain errors represent error conditions in the mailship domain.
// These errors are returned by the application layer and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("mailship: invalid configuration")

	// ErrMissingCredentials is returned when the mail account user or password is unset.
	ErrMissingCredentials = errors.New("mailship: mail credentials not set")

	// ErrPlaceholderCredential is returned when the mail password still holds the
	// sample value shipped in example env files.
	ErrPlaceholderCredential = errors.New("mailship: mail password is the placeholder value")

	// ErrQueueMissing is returned when the dispatch phase finds no queue file.
	ErrQueueMissing = errors.New("mailship: queue file not found")

	// ErrAttachmentMissing is returned when the resume attachment cannot be read.
	ErrAttachmentMissing = errors.New("mailship: attachment not found")

	// ErrPartialFailure is returned when a run completed but at least one send failed.
	ErrPartialFailure = errors.New("mailship: one or more sends failed")

	// ErrInvalidTransition is returned when a run phase change is not allowed.
	ErrInvalidTransition = errors.New("mailship: invalid phase transition")
)
