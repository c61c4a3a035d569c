package session

import (
	"context"
	"net/http"

	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/logging"
	"golang.org/x/sync/errgroup"
)

// RSSSource is a subscribed RSS/Atom feed merged into the briefing.
type RSSSource struct {
	Name string
	URL  string
}

// NewLoader builds a Loader that loads the primary briefing feed and
// appends stories from the configured RSS sources, fetched in parallel.
// The primary feed decides the daily goal; a failing RSS source is
// logged and skipped, a failing primary fails the whole load so the
// caller can keep its current feed.
func NewLoader(primary Loader, client *http.Client, sources []RSSSource) Loader {
	if len(sources) == 0 {
		return primary
	}

	return func(ctx context.Context) (feed.Feed, error) {
		base, err := primary(ctx)
		if err != nil {
			return feed.Feed{}, err
		}

		// Each goroutine writes its own slot, so no lock is needed
		extra := make([][]feed.Story, len(sources))

		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			g.Go(func() error {
				stories, err := feed.FromRSS(gctx, client, src.Name, src.URL)
				if err != nil {
					// One dead subscription must not sink the briefing
					logging.Warn("rss source skipped", "name", src.Name, "error", err)
					return nil
				}
				extra[i] = stories
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return feed.Feed{}, err
		}

		// Merge in configured order so the traversal stays stable
		for _, stories := range extra {
			base.Stories = append(base.Stories, stories...)
		}
		base.Normalize()
		return base, nil
	}
}
