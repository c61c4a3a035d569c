package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Reading-speed assumptions for converting an RSS entry into a timed
// story. 200 words per minute, clamped so every story gets a countdown
// that is neither instant nor endless.
const (
	readWordsPerMinute = 200
	minRSSDurationSec  = 20
	maxRSSDurationSec  = 180
)

// FromRSS fetches an RSS/Atom feed and converts its entries into
// stories. The source name doubles as the mastery topic so a subscribed
// feed builds its own mastery track.
func FromRSS(ctx context.Context, client *http.Client, name, url string) ([]Story, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrUnavailable, name, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, name, err)
	}

	stories := make([]Story, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		stories = append(stories, convertRSSItem(item, name))
	}
	return stories, nil
}

// convertRSSItem maps one gofeed item onto a Story.
func convertRSSItem(item *gofeed.Item, sourceName string) Story {
	summary := item.Description
	if summary == "" && item.Content != "" {
		summary = item.Content
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	s := Story{
		Title:       item.Title,
		URL:         item.Link,
		Author:      author,
		Topic:       sourceName,
		Summary:     summary,
		DurationSec: estimateDuration(summary),
		Source:      sourceName,
	}
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		s.PublishedAt = &t
	}
	if item.GUID != "" {
		s.ID = hashString(item.GUID)
	} else {
		s.ID = deriveID(s)
	}
	return s
}

// estimateDuration turns summary length into a countdown, clamped to
// [minRSSDurationSec, maxRSSDurationSec].
func estimateDuration(summary string) int {
	words := len(strings.Fields(summary))
	sec := words * 60 / readWordsPerMinute
	if sec < minRSSDurationSec {
		return minRSSDurationSec
	}
	if sec > maxRSSDurationSec {
		return maxRSSDurationSec
	}
	return sec
}
