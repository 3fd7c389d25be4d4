package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bft-labs/mailship/internal/domain"
)

// TemplateFileName is the body template file name inside the data directory.
const TemplateFileName = "EmailTemplate.txt"

const resumeSuffix = "resume.pdf"

// TemplateSource describes where the message template comes from.
type TemplateSource struct {
	// BodyPath is the template file. Used when it exists.
	BodyPath string

	// BodyFallback is used when BodyPath is missing. Literal "\n" sequences
	// are turned into newlines.
	BodyFallback string

	// DefaultBody is used when neither of the above yields text.
	DefaultBody string

	Subject string

	// AttachmentPath is the resolved attachment (see DiscoverResume).
	AttachmentPath string
}

// LoadTemplate resolves the message template. The attachment must exist and
// be a regular file.
func LoadTemplate(src TemplateSource) (domain.Template, error) {
	body, err := resolveBody(src)
	if err != nil {
		return domain.Template{}, err
	}

	info, err := os.Stat(src.AttachmentPath)
	if err != nil || !info.Mode().IsRegular() {
		return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrAttachmentMissing, src.AttachmentPath)
	}

	return domain.Template{
		Subject:        src.Subject,
		Body:           body,
		AttachmentPath: src.AttachmentPath,
	}, nil
}

func resolveBody(src TemplateSource) (string, error) {
	if src.BodyPath != "" {
		b, err := os.ReadFile(src.BodyPath)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read template: %w", err)
		}
	}
	if body := UnescapeNewlines(src.BodyFallback); body != "" {
		return body, nil
	}
	return src.DefaultBody, nil
}

// UnescapeNewlines turns literal backslash-n sequences into newlines, as
// written in single-line env files.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// DiscoverResume returns the first file in dir, by name, whose name ends in
// "resume.pdf" (case-insensitive). If there is none, or dir cannot be read, it
// returns dir joined with fallback.
func DiscoverResume(dir, fallback string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return filepath.Join(dir, fallback), false
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), resumeSuffix) {
			return filepath.Join(dir, name), true
		}
	}
	return filepath.Join(dir, fallback), false
}
