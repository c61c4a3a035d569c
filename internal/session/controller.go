// Package session composes the feed, the playback engine, and the
// ledgers into one running briefing.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/logging"
	"github.com/abelbrown/brief/internal/playback"
	"github.com/abelbrown/brief/internal/progress"
	"golang.org/x/time/rate"
)

// refreshInterval is the minimum spacing between feed reloads.
const refreshInterval = 30 * time.Second

// ErrRefreshThrottled indicates a refresh was requested too soon after
// the previous one.
var ErrRefreshThrottled = errors.New("refresh throttled")

// Loader produces a fresh feed. Injected from main so the controller
// does not care whether stories come from a JSON file, an HTTP feed, or
// RSS sources.
type Loader func(ctx context.Context) (feed.Feed, error)

// Controller owns the story list and the current position in it.
type Controller struct {
	feed     feed.Feed
	index    int
	engine   *playback.Engine
	progress *progress.Ledger
	loader   Loader
	limiter  *rate.Limiter
	streak   int
	booted   bool
}

// New creates a Controller over a non-empty feed. The refresh limiter
// allows one reload per 30 seconds; manual refreshes beyond that are
// rejected rather than queued.
func New(f feed.Feed, engine *playback.Engine, pl *progress.Ledger, loader Loader) *Controller {
	c := &Controller{
		feed:     f,
		engine:   engine,
		progress: pl,
		loader:   loader,
		limiter:  rate.NewLimiter(rate.Every(refreshInterval), 1),
	}
	engine.SetOnComplete(c.handleComplete)
	return c
}

// Boot bumps the streak for today (exactly once per process) and starts
// the first story.
func (c *Controller) Boot() {
	if c.booted {
		logging.Warn("boot called twice, ignoring")
		return
	}
	c.booted = true

	streak, err := c.progress.BumpStreakIfNewDay()
	if err != nil {
		logging.Error("streak update failed", "error", err)
	}
	c.streak = streak

	c.SelectIndex(0)
}

// Feed returns the current feed.
func (c *Controller) Feed() feed.Feed { return c.feed }

// Engine returns the playback engine for the renderer to drive.
func (c *Controller) Engine() *playback.Engine { return c.engine }

// Index returns the current story index.
func (c *Controller) Index() int { return c.index }

// Streak returns the streak computed at boot.
func (c *Controller) Streak() int { return c.streak }

// GoalMinutes returns the feed's daily goal.
func (c *Controller) GoalMinutes() int { return c.feed.DailyGoalMinutes }

// SelectIndex starts playback of the story at i. Out-of-range indexes
// are a logged no-op; the current story keeps playing.
func (c *Controller) SelectIndex(i int) {
	if i < 0 || i >= len(c.feed.Stories) {
		logging.Warn("select out of range", "index", i, "stories", len(c.feed.Stories))
		return
	}
	c.index = i
	c.engine.Select(c.feed.Stories[i])
}

// Advance moves to the next story, wrapping at the end of the feed.
// There is no terminal state: completing the last story loops back to
// the first.
func (c *Controller) Advance() {
	if len(c.feed.Stories) == 0 {
		return
	}
	c.SelectIndex((c.index + 1) % len(c.feed.Stories))
}

// handleComplete is the engine's completion callback. With auto-advance
// on, the next story starts immediately; otherwise the engine stays
// idle until the reader picks something.
func (c *Controller) handleComplete(s feed.Story) {
	logging.Debug("story completed", "id", s.ID, "topic", s.Topic)
	if c.engine.AutoAdvance() {
		c.Advance()
	}
}

// AllowRefresh consumes one slot from the refresh limiter. Callers that
// fetch through their own command pipeline (the TUI) gate on this before
// loading.
func (c *Controller) AllowRefresh() bool {
	return c.limiter.Allow()
}

// Refresh reloads the feed through the injected loader, throttled by the
// rate limiter. On failure the current feed stays; on success the
// reader's position follows the current story's ID if it survived the
// reload, otherwise playback restarts at the top.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.loader == nil {
		return nil
	}
	if !c.AllowRefresh() {
		return ErrRefreshThrottled
	}

	fresh, err := c.loader(ctx)
	if err != nil {
		logging.Warn("feed refresh failed, keeping current feed", "error", err)
		return err
	}
	c.Replace(fresh)
	return nil
}

// Replace swaps in a new feed, preserving position by story ID when
// possible.
func (c *Controller) Replace(fresh feed.Feed) {
	currentID := ""
	if c.index >= 0 && c.index < len(c.feed.Stories) {
		currentID = c.feed.Stories[c.index].ID
	}

	c.feed = fresh
	for i, s := range fresh.Stories {
		if s.ID == currentID {
			c.index = i
			return
		}
	}
	c.SelectIndex(0)
}
