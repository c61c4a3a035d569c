// Command brief runs the daily briefing in the terminal: a story list,
// a per-story countdown, and persistent reading progress under ~/.brief.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/brief/internal/config"
	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/logging"
	"github.com/abelbrown/brief/internal/mastery"
	"github.com/abelbrown/brief/internal/playback"
	"github.com/abelbrown/brief/internal/progress"
	"github.com/abelbrown/brief/internal/session"
	"github.com/abelbrown/brief/internal/store"
	"github.com/abelbrown/brief/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(config.DataDir(), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "brief: failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "brief: failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		// Load falls back to defaults; a hard error here means the file
		// exists but cannot be read at all
		logging.Warn("config unreadable, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataDir(), "brief.db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		logging.Fatal("failed to open database", "path", dbPath, "error", err)
	}
	defer st.Close()

	progressLedger := progress.New(st)
	masteryLedger := mastery.New(st)

	engine := playback.New(progressLedger, masteryLedger, nil)
	engine.SetAutoAdvance(cfg.AutoAdvance)

	client := &http.Client{Timeout: 30 * time.Second}
	loader := newLoader(cfg, client)

	// The briefing always opens with something to read
	f, err := loader(ctx)
	if err != nil {
		logging.Warn("feed unavailable, using fallback briefing", "error", err)
		f = feed.Fallback()
	}
	if cfg.DailyGoalMinutes > 0 {
		f.DailyGoalMinutes = cfg.DailyGoalMinutes
	}

	ctrl := session.New(f, engine, progressLedger, loader)
	ctrl.Boot()

	app := ui.NewApp(ui.AppConfig{
		Session: ctrl,
		Ledger:  progressLedger,
		Mastery: masteryLedger,
		RefreshFeed: func() tea.Cmd {
			return func() tea.Msg {
				fresh, err := loader(ctx)
				if err == nil && cfg.DailyGoalMinutes > 0 {
					fresh.DailyGoalMinutes = cfg.DailyGoalMinutes
				}
				return ui.FeedLoaded{Feed: fresh, Err: err}
			}
		},
	})

	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logging.Error("program exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "brief: %v\n", err)
		os.Exit(1)
	}
}

// newLoader wires the configured primary feed source and any RSS
// subscriptions into a single loader.
func newLoader(cfg *config.Config, client *http.Client) session.Loader {
	var primary session.Loader
	if cfg.FeedURL != "" {
		url := cfg.FeedURL
		primary = func(ctx context.Context) (feed.Feed, error) {
			return feed.FetchHTTP(ctx, client, url)
		}
	} else {
		path := cfg.FeedPath
		primary = func(context.Context) (feed.Feed, error) {
			return feed.LoadFile(path)
		}
	}

	sources := make([]session.RSSSource, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, session.RSSSource{Name: s.Name, URL: s.URL})
	}
	return session.NewLoader(primary, client, sources)
}
