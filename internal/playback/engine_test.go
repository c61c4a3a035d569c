package playback

import (
	"errors"
	"testing"

	"github.com/abelbrown/brief/internal/feed"
)

// recordingLedgers capture side-effect calls in arrival order.
type recordingLedgers struct {
	calls   []string
	minutes []int
	topics  []string
	fail    error
}

func (r *recordingLedgers) CreditMinutes(n int) error {
	r.calls = append(r.calls, "credit")
	r.minutes = append(r.minutes, n)
	return r.fail
}

func (r *recordingLedgers) RecordCompletion(topic string) error {
	r.calls = append(r.calls, "mastery")
	r.topics = append(r.topics, topic)
	return r.fail
}

func newTestEngine(onComplete func(feed.Story)) (*Engine, *recordingLedgers) {
	rec := &recordingLedgers{}
	return New(rec, rec, onComplete), rec
}

// drain runs the countdown to completion, arming one tick at a time the
// way the UI does, and returns how many ticks it delivered.
func drain(t *testing.T, e *Engine) int {
	t.Helper()
	ticks := 0
	for e.State() == StateCounting {
		token, ok := e.ArmTick()
		if !ok {
			t.Fatal("ArmTick refused while counting")
		}
		res := e.Tick(token)
		if !res.Live {
			t.Fatal("freshly armed tick was dropped")
		}
		ticks++
		if ticks > 1000 {
			t.Fatal("countdown never completed")
		}
	}
	return ticks
}

func TestSelectStartsCounting(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 30})
	if e.State() != StateCounting {
		t.Fatalf("state = %v, want counting", e.State())
	}
	if e.SecondsLeft() != 30 {
		t.Errorf("secondsLeft = %d, want 30", e.SecondsLeft())
	}
}

func TestSelectClampsDuration(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 0})
	if e.SecondsLeft() != 1 {
		t.Errorf("secondsLeft = %d, want 1 for zero duration", e.SecondsLeft())
	}
	e.Select(feed.Story{ID: "s2", DurationSec: -5})
	if e.SecondsLeft() != 1 {
		t.Errorf("secondsLeft = %d, want 1 for negative duration", e.SecondsLeft())
	}
}

func TestSelectWithoutAutoAdvancePausesAtInitial(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.SetAutoAdvance(false)

	e.Select(feed.Story{ID: "s1", DurationSec: 40})
	if e.State() != StatePaused {
		t.Fatalf("state = %v, want paused", e.State())
	}
	if e.SecondsLeft() != 40 {
		t.Errorf("secondsLeft = %d, want frozen at 40", e.SecondsLeft())
	}
}

func TestCompletionOrderAndExactlyOnce(t *testing.T) {
	var completed []feed.Story
	e, rec := newTestEngine(func(s feed.Story) { completed = append(completed, s) })

	e.Select(feed.Story{ID: "s1", Topic: "Local", DurationSec: 20})
	ticks := drain(t, e)

	if ticks != 20 {
		t.Errorf("ticks to complete = %d, want 20", ticks)
	}
	// Mastery before minutes, each exactly once
	want := []string{"mastery", "credit"}
	if len(rec.calls) != 2 || rec.calls[0] != want[0] || rec.calls[1] != want[1] {
		t.Errorf("side-effect calls = %v, want %v", rec.calls, want)
	}
	if rec.topics[0] != "Local" {
		t.Errorf("topic = %q, want Local", rec.topics[0])
	}
	// ceil(20/60) = 1 minute
	if rec.minutes[0] != 1 {
		t.Errorf("credited minutes = %d, want 1", rec.minutes[0])
	}
	if len(completed) != 1 || completed[0].ID != "s1" {
		t.Errorf("completion callback got %v", completed)
	}
	if e.State() != StateIdle {
		t.Errorf("state after completion = %v, want idle", e.State())
	}
}

func TestForceCompleteSkipsCountdown(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", Topic: "Sports", DurationSec: 90})
	e.ForceComplete()

	if len(rec.calls) != 2 {
		t.Fatalf("side-effect calls = %v", rec.calls)
	}
	// ceil(90/60) = 2 minutes
	if rec.minutes[0] != 2 {
		t.Errorf("credited minutes = %d, want 2", rec.minutes[0])
	}
	if e.State() != StateIdle {
		t.Errorf("state = %v, want idle", e.State())
	}
}

func TestForceCompleteFromPaused(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 30})
	e.Pause()
	e.ForceComplete()

	if len(rec.calls) != 2 {
		t.Errorf("paused force-complete ran %d effects, want 2", len(rec.calls))
	}
}

func TestForceCompleteFromIdleIsNoop(t *testing.T) {
	e, rec := newTestEngine(nil)
	e.ForceComplete()
	if len(rec.calls) != 0 {
		t.Errorf("idle force-complete ran effects: %v", rec.calls)
	}
}

func TestPauseResumePreservesSeconds(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 10})
	token, _ := e.ArmTick()
	e.Tick(token)
	token, _ = e.ArmTick()
	e.Tick(token)
	if e.SecondsLeft() != 8 {
		t.Fatalf("secondsLeft = %d, want 8", e.SecondsLeft())
	}

	e.Pause()
	if e.State() != StatePaused || e.SecondsLeft() != 8 {
		t.Fatalf("after pause: state=%v seconds=%d", e.State(), e.SecondsLeft())
	}

	e.Resume()
	if e.State() != StateCounting || e.SecondsLeft() != 8 {
		t.Fatalf("after resume: state=%v seconds=%d", e.State(), e.SecondsLeft())
	}
}

func TestStaleTickAfterPauseIsDropped(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 10})
	token, _ := e.ArmTick()
	e.Pause()
	e.Resume()

	// The pre-pause tick arrives late; it must not decrement
	res := e.Tick(token)
	if res.Live {
		t.Error("stale tick was honored after pause/resume")
	}
	if e.SecondsLeft() != 10 {
		t.Errorf("secondsLeft = %d, want 10", e.SecondsLeft())
	}
}

func TestReselectionInvalidatesPendingTick(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 1})
	token, _ := e.ArmTick()

	// User picks another story before the tick lands
	e.Select(feed.Story{ID: "s2", DurationSec: 30})

	res := e.Tick(token)
	if res.Live {
		t.Error("tick for the replaced story was honored")
	}
	if len(rec.calls) != 0 {
		t.Errorf("replaced story completed: %v", rec.calls)
	}
	if e.SecondsLeft() != 30 {
		t.Errorf("secondsLeft = %d, want 30", e.SecondsLeft())
	}
}

func TestSingleLiveTickToken(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 10})

	// Arm repeatedly without ticking: only the newest token may fire
	t1, _ := e.ArmTick()
	t2, _ := e.ArmTick()
	t3, _ := e.ArmTick()

	if e.Tick(t1).Live || e.Tick(t2).Live {
		t.Error("superseded token was honored")
	}
	if !e.Tick(t3).Live {
		t.Error("latest token was dropped")
	}
	if e.SecondsLeft() != 9 {
		t.Errorf("secondsLeft = %d, want exactly one decrement", e.SecondsLeft())
	}

	// A consumed token cannot fire twice
	if e.Tick(t3).Live {
		t.Error("token fired twice")
	}
}

func TestArmTickOnlyWhileCounting(t *testing.T) {
	e, _ := newTestEngine(nil)

	if _, ok := e.ArmTick(); ok {
		t.Error("ArmTick armed while idle")
	}
	e.Select(feed.Story{ID: "s1", DurationSec: 5})
	e.Pause()
	if _, ok := e.ArmTick(); ok {
		t.Error("ArmTick armed while paused")
	}
}

func TestLedgerFailureDoesNotStrandEngine(t *testing.T) {
	var completed int
	e, rec := newTestEngine(func(feed.Story) { completed++ })
	rec.fail = errors.New("disk full")

	e.Select(feed.Story{ID: "s1", Topic: "Local", DurationSec: 20})
	e.ForceComplete()

	if completed != 1 {
		t.Errorf("completion callback ran %d times, want 1", completed)
	}
	if e.State() != StateIdle {
		t.Errorf("state = %v, want idle", e.State())
	}
	if err := e.TakeErr(); err == nil {
		t.Error("write failure was not surfaced")
	}
	if err := e.TakeErr(); err != nil {
		t.Error("TakeErr did not clear the error")
	}

	// The engine must still accept new work
	e.Select(feed.Story{ID: "s2", DurationSec: 5})
	if e.State() != StateCounting {
		t.Errorf("engine stranded after write failure: %v", e.State())
	}
}

func TestSetAutoAdvanceTogglesCurrentStory(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Select(feed.Story{ID: "s1", DurationSec: 30})
	e.SetAutoAdvance(false)
	if e.State() != StatePaused {
		t.Errorf("turning auto-advance off mid-count: state = %v", e.State())
	}
	e.SetAutoAdvance(true)
	if e.State() != StateCounting {
		t.Errorf("turning auto-advance back on: state = %v", e.State())
	}
}
