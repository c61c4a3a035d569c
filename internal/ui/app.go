// Package ui renders the briefing in the terminal. The App is a
// read-only projection of the session: it drives the engine through key
// and tick messages but keeps no playback state of its own.
package ui

import (
	"time"

	"github.com/abelbrown/brief/internal/mastery"
	"github.com/abelbrown/brief/internal/playback"
	briefprogress "github.com/abelbrown/brief/internal/progress"
	"github.com/abelbrown/brief/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

// AppConfig carries injected command factories so App never touches the
// network or the store directly.
type AppConfig struct {
	Session *session.Controller
	Ledger  *briefprogress.Ledger
	Mastery *mastery.Ledger

	// RefreshFeed returns a Cmd that reloads the feed and yields a
	// FeedLoaded message. May be nil when no loader is configured.
	RefreshFeed func() tea.Cmd
}

// stats is the cached read-only projection of the ledgers. Recomputed
// on boot, completion, and refresh instead of querying the store every
// frame.
type stats struct {
	minutesToday int
	goalPercent  float64
	streak       int
	levels       map[string]int
}

// App is the root Bubble Tea model.
type App struct {
	cfg  AppConfig
	keys keyMap

	help    help.Model
	spinner spinner.Model
	goalbar progressbar.Model

	cursor  int
	stats   stats
	status  string
	width   int
	height  int
	ready   bool
	loading bool

	// Smooth sidebar scrolling with harmonica spring physics
	scrollSpring   harmonica.Spring
	scrollPos      float64
	scrollVelocity float64
	scrollTarget   float64
}

// NewApp creates the root model over an already-booted session.
func NewApp(cfg AppConfig) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	bar := progressbar.New(
		progressbar.WithGradient("#d29922", "#3fb950"),
		progressbar.WithoutPercentage(),
	)
	bar.Width = 20

	a := App{
		cfg:          cfg,
		keys:         defaultKeyMap(),
		help:         help.New(),
		spinner:      s,
		goalbar:      bar,
		cursor:       cfg.Session.Index(),
		scrollSpring: harmonica.NewSpring(harmonica.FPS(30), 6.0, 0.8),
	}
	a.stats = a.readStats()
	return a
}

// Init arms the first countdown tick.
func (a App) Init() tea.Cmd {
	return a.armTick()
}

// armTick schedules the next one-second tick if the engine is counting.
func (a App) armTick() tea.Cmd {
	token, ok := a.cfg.Session.Engine().ArmTick()
	if !ok {
		return nil
	}
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return CountdownTick{Token: token}
	})
}

// animate keeps frame messages flowing while the scroll spring settles.
func (a App) animate() tea.Cmd {
	return tea.Tick(time.Second/30, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// readStats re-reads the ledgers for display.
func (a App) readStats() stats {
	levels := make(map[string]int)
	for _, tm := range a.cfg.Mastery.Snapshot() {
		levels[tm.Topic] = tm.Level
	}
	return stats{
		minutesToday: a.cfg.Ledger.MinutesToday(),
		goalPercent:  a.cfg.Ledger.DailyProgressPercent(a.cfg.Session.GoalMinutes()),
		streak:       a.cfg.Session.Streak(),
		levels:       levels,
	}
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case CountdownTick:
		res := a.cfg.Session.Engine().Tick(msg.Token)
		if !res.Live {
			return a, nil
		}
		if res.Completed {
			a.stats = a.readStats()
			a.cursor = a.cfg.Session.Index()
			a.scrollTarget = float64(a.cursor)
			if err := a.cfg.Session.Engine().TakeErr(); err != nil {
				a.status = "progress not saved: " + err.Error()
			}
			return a, tea.Batch(a.armTick(), a.animate())
		}
		return a, a.armTick()

	case FeedLoaded:
		a.loading = false
		if msg.Err != nil {
			a.status = "refresh failed, keeping current stories"
			return a, nil
		}
		a.cfg.Session.Replace(msg.Feed)
		a.cursor = a.cfg.Session.Index()
		a.scrollTarget = float64(a.cursor)
		a.stats = a.readStats()
		a.status = ""
		return a, a.armTick()

	case frameMsg:
		a.scrollPos, a.scrollVelocity = a.scrollSpring.Update(a.scrollPos, a.scrollVelocity, a.scrollTarget)
		if a.isScrolling() {
			return a, a.animate()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	engine := a.cfg.Session.Engine()
	storyCount := len(a.cfg.Session.Feed().Stories)

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if a.cursor < storyCount-1 {
			a.cursor++
			a.scrollTarget = float64(a.cursor)
		}
		return a, a.animate()

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
			a.scrollTarget = float64(a.cursor)
		}
		return a, a.animate()

	case key.Matches(msg, a.keys.Select):
		a.cfg.Session.SelectIndex(a.cursor)
		a.status = ""
		return a, a.armTick()

	case key.Matches(msg, a.keys.PauseResume):
		switch engine.State() {
		case playback.StateCounting:
			engine.Pause()
			return a, nil
		case playback.StatePaused:
			engine.Resume()
			return a, a.armTick()
		}
		return a, nil

	case key.Matches(msg, a.keys.Next):
		engine.ForceComplete()
		a.stats = a.readStats()
		a.cursor = a.cfg.Session.Index()
		a.scrollTarget = float64(a.cursor)
		if err := engine.TakeErr(); err != nil {
			a.status = "progress not saved: " + err.Error()
		}
		return a, tea.Batch(a.armTick(), a.animate())

	case key.Matches(msg, a.keys.AutoAdvance):
		engine.SetAutoAdvance(!engine.AutoAdvance())
		return a, a.armTick()

	case key.Matches(msg, a.keys.Refresh):
		if a.cfg.RefreshFeed == nil || a.loading {
			return a, nil
		}
		if !a.cfg.Session.AllowRefresh() {
			a.status = "refreshed moments ago"
			return a, nil
		}
		a.loading = true
		a.status = ""
		return a, tea.Batch(a.cfg.RefreshFeed(), a.spinner.Tick)

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}

	return a, nil
}

func (a App) isScrolling() bool {
	d := a.scrollPos - a.scrollTarget
	return d > 0.01 || d < -0.01
}
