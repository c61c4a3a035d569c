package ui

import "github.com/abelbrown/brief/internal/feed"

// CountdownTick delivers one elapsed second to the playback engine.
// Token guards against stale ticks from cancelled countdowns.
type CountdownTick struct {
	Token uint64
}

// FeedLoaded carries the result of a feed refresh.
type FeedLoaded struct {
	Feed feed.Feed
	Err  error
}

// frameMsg drives the scroll animation while the spring settles.
type frameMsg struct{}
