// Package playback drives the countdown for the currently selected story.
//
// The engine is a plain state machine; it never owns a timer. Whoever
// hosts it (the TUI's one-second tea.Tick, or a test calling Tick
// directly) arms ticks against a generation token. Every transition that
// leaves Counting invalidates the token, so a tick from a cancelled
// countdown lands as a no-op. That is what keeps "at most one live
// timer" true: only the most recently armed token is ever honored.
package playback

import (
	"github.com/abelbrown/brief/internal/feed"
	"github.com/abelbrown/brief/internal/logging"
)

// ProgressLedger is the slice of the progress ledger the engine mutates.
type ProgressLedger interface {
	CreditMinutes(n int) error
}

// MasteryLedger is the slice of the mastery ledger the engine mutates.
type MasteryLedger interface {
	RecordCompletion(topic string) error
}

// State is the engine's lifecycle position.
type State int

const (
	// StateIdle means no story is selected; nothing counts down.
	StateIdle State = iota
	// StateCounting means the current story's countdown is running.
	StateCounting
	// StatePaused means a story is selected with its countdown frozen.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCounting:
		return "counting"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TickResult tells the host what to do after delivering a tick.
type TickResult struct {
	// Live is false when the tick carried a stale token and was ignored.
	Live bool
	// Completed is true when this tick finished the story.
	Completed bool
	// Rearm is true when the countdown continues and the host should
	// schedule the next tick with a fresh token.
	Rearm bool
}

// Engine runs the per-story countdown and fires the completion side
// effects exactly once per completion.
type Engine struct {
	progress ProgressLedger
	mastery  MasteryLedger

	// onComplete is invoked after the ledgers are updated, with the
	// finished story. The session controller uses it to advance.
	onComplete func(feed.Story)

	state       State
	story       feed.Story
	secondsLeft int
	autoAdvance bool

	// token is the current tick generation. armed marks whether the
	// host has an outstanding tick for it.
	token uint64
	armed bool

	// lastErr holds the most recent ledger write failure so the UI can
	// surface it; it never breaks the state machine.
	lastErr error
}

// New creates an Engine wired to the two ledgers. onComplete may be nil.
func New(pl ProgressLedger, ml MasteryLedger, onComplete func(feed.Story)) *Engine {
	return &Engine{
		progress:    pl,
		mastery:     ml,
		onComplete:  onComplete,
		autoAdvance: true,
	}
}

// SetOnComplete installs the completion callback. The session
// controller sets this after construction since each needs the other.
func (e *Engine) SetOnComplete(fn func(feed.Story)) {
	e.onComplete = fn
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Story returns the currently selected story. Only meaningful outside
// StateIdle.
func (e *Engine) Story() feed.Story { return e.story }

// SecondsLeft returns the remaining countdown for the selected story.
func (e *Engine) SecondsLeft() int { return e.secondsLeft }

// AutoAdvance reports whether new selections start counting immediately.
func (e *Engine) AutoAdvance() bool { return e.autoAdvance }

// SetAutoAdvance flips the session's auto-advance setting. It also
// unfreezes or freezes the current story to match, so toggling behaves
// like the switch it is rather than only applying to the next story.
func (e *Engine) SetAutoAdvance(on bool) {
	e.autoAdvance = on
	switch {
	case on && e.state == StatePaused:
		e.Resume()
	case !on && e.state == StateCounting:
		e.Pause()
	}
}

// TakeErr returns and clears the most recent ledger write failure.
func (e *Engine) TakeErr() error {
	err := e.lastErr
	e.lastErr = nil
	return err
}

// Select makes story current, cancelling any pending tick first. The
// countdown starts at max(1, durationSec): counting if auto-advance is
// on, frozen at its initial value otherwise.
func (e *Engine) Select(story feed.Story) {
	e.cancelPending()

	e.story = story
	e.secondsLeft = story.DurationSec
	if e.secondsLeft < 1 {
		e.secondsLeft = 1
	}

	if e.autoAdvance {
		e.state = StateCounting
	} else {
		e.state = StatePaused
	}
}

// ArmTick hands out the token the next tick must carry. Only valid while
// Counting; anything else reports false and arms nothing. Arming again
// before the previous tick landed invalidates the previous one.
func (e *Engine) ArmTick() (uint64, bool) {
	if e.state != StateCounting {
		return 0, false
	}
	e.token++
	e.armed = true
	return e.token, true
}

// Tick delivers one elapsed second. Ticks carrying a stale token, or
// arriving outside Counting, are dropped.
func (e *Engine) Tick(token uint64) TickResult {
	if e.state != StateCounting || !e.armed || token != e.token {
		return TickResult{}
	}
	e.armed = false

	e.secondsLeft--
	if e.secondsLeft <= 0 {
		e.complete()
		return TickResult{Live: true, Completed: true}
	}
	return TickResult{Live: true, Rearm: true}
}

// Pause freezes the countdown, preserving SecondsLeft exactly.
func (e *Engine) Pause() {
	if e.state != StateCounting {
		logging.Warn("pause ignored", "state", e.state.String())
		return
	}
	e.cancelPending()
	e.state = StatePaused
}

// Resume restarts a paused countdown from where it stopped. The host
// must arm a fresh tick afterwards.
func (e *Engine) Resume() {
	if e.state != StatePaused {
		logging.Warn("resume ignored", "state", e.state.String())
		return
	}
	e.state = StateCounting
}

// ForceComplete finishes the current story immediately, regardless of
// remaining time. Valid from Counting or Paused.
func (e *Engine) ForceComplete() {
	if e.state != StateCounting && e.state != StatePaused {
		logging.Warn("force-complete ignored", "state", e.state.String())
		return
	}
	e.complete()
}

// complete runs the completion effects exactly once, in order: mastery,
// minutes, then the controller callback. Ledger write failures are
// recorded and logged but never interrupt the sequence - losing one
// store write must not strand the machine.
func (e *Engine) complete() {
	e.cancelPending()

	story := e.story
	if err := e.mastery.RecordCompletion(story.Topic); err != nil {
		logging.Error("mastery write failed", "topic", story.Topic, "error", err)
		e.lastErr = err
	}
	if err := e.progress.CreditMinutes(story.Minutes()); err != nil {
		logging.Error("minutes write failed", "story", story.ID, "error", err)
		e.lastErr = err
	}

	e.state = StateIdle
	e.story = feed.Story{}
	e.secondsLeft = 0

	if e.onComplete != nil {
		e.onComplete(story)
	}
}

// cancelPending invalidates the outstanding tick, if any.
func (e *Engine) cancelPending() {
	e.token++
	e.armed = false
}
