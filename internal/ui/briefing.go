package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/playback"
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorAccent = lipgloss.Color("#58a6ff")
	colorText   = lipgloss.Color("#c9d1d9")
	colorDim    = lipgloss.Color("#8b949e")
	colorFaint  = lipgloss.Color("#484f58")
	colorGood   = lipgloss.Color("#3fb950")
	colorWarn   = lipgloss.Color("#d29922")
	colorAlert  = lipgloss.Color("#f85149")
	colorBg     = lipgloss.Color("#0d1117")
	selectionBg = lipgloss.Color("#1f3a5f")
)

// Topic colors for the sidebar badges
var topicColors = map[string]lipgloss.Color{
	"Local":    lipgloss.Color("#7ee787"),
	"Sports":   lipgloss.Color("#ffa657"),
	"Business": lipgloss.Color("#d2a8ff"),
	"Arts":     lipgloss.Color("#f778ba"),
	"Politics": lipgloss.Color("#ff7b72"),
	"Science":  lipgloss.Color("#7ee787"),
	"Tech":     lipgloss.Color("#58a6ff"),
	"General":  lipgloss.Color("#8b949e"),
}

func topicColor(topic string) lipgloss.Color {
	if c, ok := topicColors[topic]; ok {
		return c
	}
	return colorDim
}

const sidebarWidth = 38

// View renders the full briefing screen.
func (a App) View() string {
	if !a.ready {
		return "Loading briefing..."
	}

	header := a.renderHeader()
	sidebar := a.renderSidebar()
	detail := a.renderDetail()

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, detail)
	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderHeader shows the brand, the streak, and the daily goal bar.
func (a App) renderHeader() string {
	brand := lipgloss.NewStyle().
		Foreground(colorBg).
		Background(colorAccent).
		Bold(true).
		Padding(0, 1).
		Render("BRIEF")

	streakStyle := lipgloss.NewStyle().Foreground(colorAlert).Bold(true)
	suffix := "days"
	if a.stats.streak == 1 {
		suffix = "day"
	}
	streak := streakStyle.Render(fmt.Sprintf("🔥 %d %s", a.stats.streak, suffix))

	goal := lipgloss.NewStyle().Foreground(colorDim).Render(
		fmt.Sprintf("%dm/%dm today ", a.stats.minutesToday, a.cfg.Session.GoalMinutes()))
	bar := a.goalbar.ViewAs(a.stats.goalPercent / 100)

	spin := ""
	if a.loading {
		spin = " " + a.spinner.View()
	}

	left := brand + "  " + streak + spin
	right := goal + bar

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

// renderSidebar shows the story list with topic badges and mastery levels.
func (a App) renderSidebar() string {
	stories := a.cfg.Session.Feed().Stories
	playing := a.cfg.Session.Index()
	engineState := a.cfg.Session.Engine().State()

	// Scroll window follows the animated spring position
	visible := a.height - 6
	if visible < 3 {
		visible = 3
	}
	start := int(a.scrollPos) - visible/2
	if start > len(stories)-visible {
		start = len(stories) - visible
	}
	if start < 0 {
		start = 0
	}

	var lines []string
	for i := start; i < len(stories) && i < start+visible; i++ {
		lines = append(lines, a.renderStoryRow(stories[i], i, i == playing && engineState != playback.StateIdle))
	}

	listStyle := lipgloss.NewStyle().
		Width(sidebarWidth).
		PaddingRight(1)
	return listStyle.Render(strings.Join(lines, "\n"))
}

func (a App) renderStoryRow(s feed.Story, i int, playing bool) string {
	badge := lipgloss.NewStyle().
		Foreground(colorBg).
		Background(topicColor(s.Topic)).
		Padding(0, 1).
		Render(truncate(s.Topic, 8))

	level := lipgloss.NewStyle().Foreground(colorWarn).Render(
		fmt.Sprintf("L%d", a.levelFor(s.Topic)))

	mins := lipgloss.NewStyle().Foreground(colorFaint).Render(
		fmt.Sprintf("%dm", s.Minutes()))

	titleWidth := sidebarWidth - lipgloss.Width(badge) - 10
	titleStyle := lipgloss.NewStyle().Foreground(colorText)
	marker := "  "
	if i == a.cursor {
		marker = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("▶ ")
		titleStyle = titleStyle.Bold(true)
	}
	if playing {
		titleStyle = titleStyle.Foreground(colorAccent)
	}

	return fmt.Sprintf("%s%s %s %s %s", marker, badge,
		titleStyle.Render(truncate(s.Title, titleWidth)), level, mins)
}

func (a App) levelFor(topic string) int {
	if lvl, ok := a.stats.levels[topic]; ok {
		return lvl
	}
	return 1
}

// renderDetail shows the current story and its countdown.
func (a App) renderDetail() string {
	engine := a.cfg.Session.Engine()
	width := a.width - sidebarWidth - 4
	if width < 20 {
		width = 20
	}

	style := lipgloss.NewStyle().Width(width).PaddingLeft(2)

	if engine.State() == playback.StateIdle {
		idle := lipgloss.NewStyle().Foreground(colorDim).Render(
			"Story finished. Press enter to read another, or a to turn auto-advance back on.")
		return style.Render(idle)
	}

	s := engine.Story()

	title := lipgloss.NewStyle().Foreground(colorText).Bold(true).Render(s.Title)

	var meta []string
	if s.Author != "" {
		meta = append(meta, s.Author)
	}
	meta = append(meta, s.Topic)
	if s.Source != "" {
		meta = append(meta, s.Source)
	}
	metaLine := lipgloss.NewStyle().Foreground(colorDim).Render(strings.Join(meta, " · "))

	summary := lipgloss.NewStyle().Foreground(colorText).Width(width - 2).Render(s.Summary)

	countdown := a.renderCountdown()

	parts := []string{title, metaLine, "", summary, "", countdown}
	if s.URL != "" {
		link := lipgloss.NewStyle().Foreground(colorAccent).Underline(true).Render(s.URL)
		parts = append(parts, "", link)
	}
	return style.Render(strings.Join(parts, "\n"))
}

func (a App) renderCountdown() string {
	engine := a.cfg.Session.Engine()
	secs := engine.SecondsLeft()

	var state string
	switch engine.State() {
	case playback.StateCounting:
		if engine.AutoAdvance() {
			state = lipgloss.NewStyle().Foreground(colorGood).Render(
				fmt.Sprintf("auto-advance in %ds", secs))
		} else {
			state = lipgloss.NewStyle().Foreground(colorGood).Render(
				fmt.Sprintf("%ds left", secs))
		}
	case playback.StatePaused:
		state = lipgloss.NewStyle().Foreground(colorWarn).Render(
			fmt.Sprintf("paused · %ds left", secs))
	default:
		return ""
	}
	return state
}

// renderFooter shows the status line and key help.
func (a App) renderFooter() string {
	var parts []string
	if a.status != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarn).Render(a.status))
	}
	auto := "auto-advance off"
	if a.cfg.Session.Engine().AutoAdvance() {
		auto = "auto-advance on"
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(colorFaint).Render(auto))
	parts = append(parts, a.help.View(a.keys))
	return "\n" + strings.Join(parts, "  ")
}

// truncate shortens a string to maxLen runes, adding ".." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-2]) + ".."
}
