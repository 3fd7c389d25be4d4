// Package snapshot implements a post source over a directory of saved search
// result pages. A browser session (or any other tool) drops page snapshots
// into the directory; each scan cycle reads the snapshots it has not seen yet.
//
// HTML snapshots are split into one blob per post using a CSS selector.
// Any other file is treated as a single plain-text blob.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/mailship/internal/ports"
)

// DefaultPostSelector matches feed updates, people search results and
// generic articles on a results page.
const DefaultPostSelector = `div[data-view-name="feed-full-update"], li.reusable-search__result-container, article`

// DefaultSettleDelay bounds how long Reveal waits for a new snapshot.
const DefaultSettleDelay = 4 * time.Second

// quietPeriod is how long a file must stay unmodified before it is read, so a
// snapshot still being written is not read half-done.
const quietPeriod = 150 * time.Millisecond

// Config configures a Source.
type Config struct {
	Dir         string
	Selector    string
	SettleDelay time.Duration
}

// Source is a ports.PostSource backed by a snapshot directory.
type Source struct {
	dir     string
	matcher goquery.Matcher
	settle  time.Duration
	logger  ports.Logger

	watcher *fsnotify.Watcher
	seen    map[string]struct{}
	now     func() time.Time
}

// NewSource creates the directory if needed and starts watching it.
// Close releases the watcher.
func NewSource(cfg Config, logger ports.Logger) (*Source, error) {
	if cfg.Selector == "" {
		cfg.Selector = DefaultPostSelector
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	matcher, err := cascadia.Compile(cfg.Selector)
	if err != nil {
		return nil, fmt.Errorf("compile post selector %q: %w", cfg.Selector, err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(cfg.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}

	return &Source{
		dir:     cfg.Dir,
		matcher: matcher,
		settle:  cfg.SettleDelay,
		logger:  logger,
		watcher: watcher,
		seen:    make(map[string]struct{}),
		now:     time.Now,
	}, nil
}

// Close stops watching the directory.
func (s *Source) Close() error {
	return s.watcher.Close()
}

// Posts returns the blobs of every snapshot not returned before, in file name
// order. A snapshot that cannot be read or parsed is logged and skipped.
// Empty files and files modified within the quiet period are left for a later
// call.
func (s *Source) Posts(ctx context.Context) ([]string, error) {
	names, err := s.unseen()
	if err != nil {
		return nil, err
	}

	var posts []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return posts, err
		}
		s.seen[name] = struct{}{}

		blobs, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot",
				ports.String("file", name),
				ports.Err(err),
			)
			continue
		}
		s.logger.Debug("read snapshot",
			ports.String("file", name),
			ports.Int("posts", len(blobs)),
		)
		posts = append(posts, blobs...)
	}
	return posts, nil
}

// Reveal waits until a new snapshot has been written and gone quiet, or until
// the settle delay passes. Timing out is not an error: it means the results
// are exhausted for now.
func (s *Source) Reveal(ctx context.Context) error {
	settle := time.NewTimer(s.settle)
	defer settle.Stop()

	var quiet <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-settle.C:
			return nil

		case <-quiet:
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, ok := s.seen[filepath.Base(event.Name)]; ok {
				continue
			}
			quiet = time.After(quietPeriod)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("snapshot watcher error", ports.Err(err))
		}
	}
}

func (s *Source) unseen() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	now := s.now()
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := s.seen[name]; ok {
			continue
		}
		if info, err := e.Info(); err == nil && e.Type().IsRegular() {
			if info.Size() == 0 || now.Sub(info.ModTime()) < quietPeriod {
				s.logger.Debug("snapshot not settled yet", ports.String("file", name))
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return s.splitHTML(data)
	default:
		if text := strings.TrimSpace(string(data)); text != "" {
			return []string{text}, nil
		}
		return nil, nil
	}
}

// splitHTML returns one blob per element matching the post selector, or the
// page body when nothing matches. Addresses that only appear in mailto links
// are appended to the blob text.
func (s *Source) splitHTML(data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sel := doc.FindMatcher(s.matcher)
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}

	var blobs []string
	sel.Each(func(_ int, post *goquery.Selection) {
		if text := postText(post); text != "" {
			blobs = append(blobs, text)
		}
	})
	return blobs, nil
}

func postText(post *goquery.Selection) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(post.Text()))

	post.Find(`a[href^="mailto:"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		b.WriteByte('\n')
		b.WriteString(addr)
	})
	return strings.TrimSpace(b.String())
}
