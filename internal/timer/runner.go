package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler registers and removes periodic jobs.
// *service.SchedulerService implements it.
type Scheduler interface {
	ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// Runner ticks a Timer once per second while it runs. At most one tick job
// is registered at any time.
type Runner struct {
	timer *Timer
	sched Scheduler

	mu     sync.Mutex
	entry  cron.EntryID
	active bool
}

func NewRunner(t *Timer, sched Scheduler) *Runner {
	return &Runner{timer: t, sched: sched}
}

func (r *Runner) Timer() *Timer {
	return r.timer
}

// Start resumes the countdown and registers the tick job if needed.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Start()
	if r.active {
		return nil
	}
	id, err := r.sched.ScheduleInterval(time.Second, r.tick)
	if err != nil {
		r.timer.Pause()
		return fmt.Errorf("schedule timer tick: %w", err)
	}
	r.entry = id
	r.active = true
	return nil
}

func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Pause()
	r.stopLocked()
}

func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Reset()
	r.stopLocked()
}

// Active reports whether a tick job is registered.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Runner) tick() {
	r.timer.Tick()

	r.mu.Lock()
	defer r.mu.Unlock()
	// Start may have resumed the timer since the tick; check under r.mu.
	if !r.timer.Running() {
		r.stopLocked()
	}
}

func (r *Runner) stopLocked() {
	if !r.active {
		return
	}
	r.sched.Remove(r.entry)
	r.active = false
}
