package ports

import "context"

// PostSource provides post text from the scraped search results.
// Implementations track a high-water mark so a post is returned once.
type PostSource interface {
	// Posts returns the text of posts that became visible since the last call,
	// one blob per post. A failure on a single post is handled by the
	// implementation; an error here ends the scan.
	Posts(ctx context.Context) ([]string, error)

	// Reveal asks the source to expose more content (scroll, load more, next
	// page) and waits for it to settle.
	Reveal(ctx context.Context) error
}
