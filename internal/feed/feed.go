// Package feed provides the briefing feed model and its sources.
//
// A feed is an ordered list of short stories plus a daily minutes goal.
// All defaulting and clamping of story fields happens here, once, at
// ingestion - consumers never see a zero duration or an empty topic.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrUnavailable indicates the feed could not be fetched or decoded.
// Callers recover with Fallback; it is never fatal.
var ErrUnavailable = errors.New("feed unavailable")

const (
	// DefaultGoalMinutes is the daily reading goal when the feed omits one.
	DefaultGoalMinutes = 10

	// DefaultDurationSec is assumed for stories with a missing or
	// non-positive duration.
	DefaultDurationSec = 20

	// GeneralTopic buckets stories without a topic label.
	GeneralTopic = "General"
)

// Story is a single briefing item with a fixed reading duration.
type Story struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Topic       string     `json:"topic,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	DurationSec int        `json:"durationSec"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// Minutes returns the whole minutes this story credits on completion,
// rounded up so even a 20-second story is worth one minute.
func (s Story) Minutes() int {
	return (s.DurationSec + 59) / 60
}

// Feed is the ordered story list plus the daily goal.
type Feed struct {
	GeneratedAt      *time.Time `json:"generatedAt,omitempty"`
	DailyGoalMinutes int        `json:"dailyGoalMinutes"`
	Stories          []Story    `json:"stories"`
}

// Decode reads a feed document from r and normalizes it. An empty story
// list is reported as ErrUnavailable so the caller substitutes the
// fallback seed.
func Decode(r io.Reader) (Feed, error) {
	var f Feed
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Feed{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	f.Normalize()
	if len(f.Stories) == 0 {
		return Feed{}, fmt.Errorf("%w: no stories", ErrUnavailable)
	}
	return f, nil
}

// Normalize applies all defaulting in one place: goal, story durations,
// topics, and missing IDs.
func (f *Feed) Normalize() {
	if f.DailyGoalMinutes <= 0 {
		f.DailyGoalMinutes = DefaultGoalMinutes
	}
	for i := range f.Stories {
		s := &f.Stories[i]
		if s.DurationSec <= 0 {
			s.DurationSec = DefaultDurationSec
		}
		if s.Topic == "" {
			s.Topic = GeneralTopic
		}
		if s.ID == "" {
			s.ID = deriveID(*s)
		}
	}
}

// deriveID creates a deterministic ID for a story missing one.
// Prefers the URL, falls back to title + published time.
func deriveID(s Story) string {
	key := s.URL
	if key == "" {
		key = s.Title
		if s.PublishedAt != nil {
			key += s.PublishedAt.String()
		}
	}
	return hashString(key)
}

// hashString creates a short hash of a string for use as an ID.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8]) // 16 character hex string
}

// Fallback returns the built-in single-story seed used when no source is
// reachable. Guarantees the engine always has at least one story.
func Fallback() Feed {
	f := Feed{
		DailyGoalMinutes: DefaultGoalMinutes,
		Stories: []Story{{
			ID:          "seed-1",
			Title:       "Welcome to Brief",
			URL:         "https://www.boston.com/",
			Author:      "Boston.com Staff",
			Topic:       "Local",
			Summary:     "This is a short sample. Tap Next or wait for auto-advance.",
			DurationSec: 20,
			Source:      "Boston.com",
		}},
	}
	f.Normalize()
	return f
}
