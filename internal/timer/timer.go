// Package timer implements the Pomodoro countdown: a work period followed by
// a break, each ending in a paused state so the next one starts on demand.
package timer

import (
	"fmt"
	"sync"
	"time"
)

type Mode string

const (
	Work  Mode = "work"
	Break Mode = "break"
)

const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

// State is a point-in-time view of the timer.
type State struct {
	Mode      Mode
	Remaining time.Duration
	Running   bool
}

// Timer counts down in whole seconds. It is safe for concurrent use.
type Timer struct {
	work     time.Duration
	brk      time.Duration
	onFinish func(finished, next Mode)

	mu        sync.Mutex
	mode      Mode
	remaining time.Duration
	running   bool
}

// New returns a paused timer at the start of a work period. Non-positive
// durations fall back to the defaults.
func New(work, brk time.Duration) *Timer {
	work = work.Truncate(time.Second)
	brk = brk.Truncate(time.Second)
	if work <= 0 {
		work = DefaultWork
	}
	if brk <= 0 {
		brk = DefaultBreak
	}
	return &Timer{work: work, brk: brk, mode: Work, remaining: work}
}

// OnFinish registers fn to run after a period ends. It is called outside
// the timer's lock.
func (t *Timer) OnFinish(fn func(finished, next Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFinish = fn
}

func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Reset stops the timer and returns to a full work period.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.mode = Work
	t.remaining = t.work
}

// Tick advances the countdown by one second. A paused timer ignores it.
// A tick at 00:00 switches to the other mode, loads its full duration and
// pauses; Tick then reports true.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return false
	}
	if t.remaining > 0 {
		t.remaining -= time.Second
		t.mu.Unlock()
		return false
	}

	finished := t.mode
	next := Break
	t.remaining = t.brk
	if finished == Break {
		next = Work
		t.remaining = t.work
	}
	t.mode = next
	t.running = false
	fn := t.onFinish
	t.mu.Unlock()

	if fn != nil {
		fn(finished, next)
	}
	return true
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Mode: t.mode, Remaining: t.remaining, Running: t.running}
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Progress is the elapsed share of the current period in percent.
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.work
	if t.mode == Break {
		total = t.brk
	}
	return float64(total-t.remaining) / float64(total) * 100
}

// String formats the remaining time as MM:SS.
func (t *Timer) String() string {
	s := t.State()
	secs := int(s.Remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
