// package timer implements the two-phase pomodoro countdown state machine.
package timer

// Phase identifies which side of the focus/break cycle the timer is on.
type Phase int

const (
	Focus Phase = iota
	Break
)

func (p Phase) String() string {
	if p == Break {
		return "break"
	}
	return "focus"
}

// Default phase durations in seconds.
const (
	DefaultFocusSeconds = 25 * 60
	DefaultBreakSeconds = 5 * 60
)

// Completion is emitted when a phase counts down to zero, tagged with the
// phase that just ended. Only Focus completions feed the progression engine.
type Completion struct {
	Phase Phase
}

// Timer is the countdown state machine. Initial state is Focus, paused, with
// the full focus duration remaining. Not safe for concurrent use; drive it
// from a single ticker.
type Timer struct {
	phase        Phase
	remaining    int
	running      bool
	focusSeconds int
	breakSeconds int
}

// New creates a Timer with the given phase durations in seconds.
// Non-positive durations fall back to the defaults.
func New(focusSeconds, breakSeconds int) *Timer {
	if focusSeconds <= 0 {
		focusSeconds = DefaultFocusSeconds
	}
	if breakSeconds <= 0 {
		breakSeconds = DefaultBreakSeconds
	}
	return &Timer{
		phase:        Focus,
		remaining:    focusSeconds,
		focusSeconds: focusSeconds,
		breakSeconds: breakSeconds,
	}
}

func (t *Timer) Phase() Phase   { return t.phase }
func (t *Timer) Remaining() int { return t.remaining }
func (t *Timer) Running() bool  { return t.running }

// Duration returns the full duration of the current phase in seconds.
func (t *Timer) Duration() int {
	if t.phase == Break {
		return t.breakSeconds
	}
	return t.focusSeconds
}

// Tick advances the countdown by one second when running.
//
// When the countdown reaches zero the timer stops, flips to the other phase
// with its full duration (paused until resumed), and returns the completion
// event for the phase that just ended with ok = true.
func (t *Timer) Tick() (Completion, bool) {
	if !t.running || t.remaining <= 0 {
		return Completion{}, false
	}

	t.remaining--
	if t.remaining > 0 {
		return Completion{}, false
	}

	done := Completion{Phase: t.phase}
	t.running = false
	t.flip()
	return done, true
}

// Toggle flips the running flag without touching the countdown.
func (t *Timer) Toggle() {
	t.running = !t.running
}

// Reset restores the current phase's full duration and stops the timer.
func (t *Timer) Reset() {
	t.remaining = t.Duration()
	t.running = false
}

// SwitchPhase flips to the other phase immediately, bypassing the countdown.
// No completion event is emitted.
func (t *Timer) SwitchPhase() {
	t.running = false
	t.flip()
}

func (t *Timer) flip() {
	if t.phase == Focus {
		t.phase = Break
	} else {
		t.phase = Focus
	}
	t.remaining = t.Duration()
}
