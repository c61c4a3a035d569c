package ui

import (
	"strings"
	"testing"

	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/mastery"
	"github.com/abelbrown/brief/internal/playback"
	"github.com/abelbrown/brief/internal/progress"
	"github.com/abelbrown/brief/internal/session"
	"github.com/abelbrown/brief/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

func testFeed() feed.Feed {
	f := feed.Feed{
		DailyGoalMinutes: 10,
		Stories: []feed.Story{
			{ID: "a", Title: "Snow closes schools", Topic: "Local", DurationSec: 20},
			{ID: "b", Title: "Sox win opener", Topic: "Sports", DurationSec: 30},
		},
	}
	f.Normalize()
	return f
}

func newTestApp(t *testing.T) App {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pl := progress.New(st)
	ml := mastery.New(st)
	engine := playback.New(pl, ml, nil)
	ctrl := session.New(testFeed(), engine, pl, nil)
	ctrl.Boot()

	return NewApp(AppConfig{Session: ctrl, Ledger: pl, Mastery: ml})
}

// size delivers a window size so the view renders.
func size(t *testing.T, a App) App {
	t.Helper()
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m.(App)
}

func TestInitArmsFirstTick(t *testing.T) {
	a := newTestApp(t)
	if cmd := a.Init(); cmd == nil {
		t.Fatal("Init returned no command while a story is counting")
	}
}

func TestViewBeforeSizeShowsLoading(t *testing.T) {
	a := newTestApp(t)
	if !strings.Contains(a.View(), "Loading") {
		t.Error("unsized view should show the loading line")
	}
}

func TestViewShowsStoriesAndStreak(t *testing.T) {
	a := size(t, newTestApp(t))
	view := a.View()

	for _, want := range []string{"Snow closes schools", "Sox win opener", "BRIEF", "1 day"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCountdownTickDecrements(t *testing.T) {
	a := size(t, newTestApp(t))
	engine := a.cfg.Session.Engine()

	token, ok := engine.ArmTick()
	if !ok {
		t.Fatal("engine not counting after boot")
	}
	m, _ := a.Update(CountdownTick{Token: token})
	a = m.(App)

	if got := engine.SecondsLeft(); got != 19 {
		t.Errorf("secondsLeft = %d, want 19", got)
	}
}

func TestStaleTickLeavesCountdownAlone(t *testing.T) {
	a := size(t, newTestApp(t))
	engine := a.cfg.Session.Engine()

	stale, _ := engine.ArmTick()
	engine.ArmTick() // supersedes

	m, _ := a.Update(CountdownTick{Token: stale})
	a = m.(App)
	if got := engine.SecondsLeft(); got != 20 {
		t.Errorf("stale tick decremented countdown to %d", got)
	}
}

func TestNextKeyCompletesAndRefreshesStats(t *testing.T) {
	a := size(t, newTestApp(t))

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	a = m.(App)

	if a.stats.minutesToday != 1 {
		t.Errorf("minutesToday after completion = %d, want 1", a.stats.minutesToday)
	}
	if a.cfg.Session.Index() != 1 {
		t.Errorf("session index = %d, want auto-advanced to 1", a.cfg.Session.Index())
	}
	if a.stats.levels["Local"] != 1 {
		t.Errorf("Local level = %d, want 1", a.stats.levels["Local"])
	}
}

func TestCursorMovesWithinBounds(t *testing.T) {
	a := size(t, newTestApp(t))

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	a = m.(App)
	if a.cursor != 0 {
		t.Errorf("cursor moved above first story: %d", a.cursor)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	a = m.(App)
	if a.cursor != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor)
	}
	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	a = m.(App)
	if a.cursor != 1 {
		t.Errorf("cursor moved past last story: %d", a.cursor)
	}
}

func TestFeedLoadedFailureKeepsStories(t *testing.T) {
	a := size(t, newTestApp(t))

	m, _ := a.Update(FeedLoaded{Err: feed.ErrUnavailable})
	a = m.(App)

	if got := len(a.cfg.Session.Feed().Stories); got != 2 {
		t.Errorf("failed refresh changed story count to %d", got)
	}
	if a.status == "" {
		t.Error("failed refresh left no status message")
	}
}

func TestFeedLoadedSwapsFeed(t *testing.T) {
	a := size(t, newTestApp(t))

	fresh := feed.Feed{
		DailyGoalMinutes: 10,
		Stories:          []feed.Story{{ID: "z", Title: "Flash update", DurationSec: 25}},
	}
	fresh.Normalize()
	m, _ := a.Update(FeedLoaded{Feed: fresh})
	a = m.(App)

	if !strings.Contains(a.View(), "Flash update") {
		t.Error("view does not show the refreshed story")
	}
}
