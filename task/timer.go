package task

import (
	"sync"
	"time"
)

// pausePollInterval is the cadence at which a paused task checks for
// unpause; it does not need to be the same as the pause-sampling cadence
// PauseAll uses on the initiator side.
const pausePollInterval = 10 * time.Millisecond

func pollTicker() *time.Ticker {
	return time.NewTicker(pausePollInterval)
}

// TimerSet manages a task's named timers, delivering TimerExpired onto
// the owning task's own mailbox via time.AfterFunc. Timers keep firing at
// the OS level while the task is paused; the mailbox channel is what
// defers their effect until the task drains it again.
type TimerSet struct {
	owner Task

	mtx    sync.Mutex
	timers map[int]*time.Timer
}

// NewTimerSet creates a timer set that pushes expiries to owner.
func NewTimerSet(owner Task) *TimerSet {
	return &TimerSet{
		owner:  owner,
		timers: make(map[int]*time.Timer),
	}
}

// Start arms (or re-arms) the timer identified by id.
func (t *TimerSet) Start(id int, delay time.Duration) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if existing, ok := t.timers[id]; ok {
		existing.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		t.mtx.Lock()
		if t.timers[id] == timer {
			delete(t.timers, id)
		}
		t.mtx.Unlock()
		t.owner.Push(TimerExpired{ID: id})
	})
	t.timers[id] = timer
}

// Stop cancels the timer identified by id, if running.
func (t *TimerSet) Stop(id int) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

// StopAll cancels every timer in the set; used on task Quit.
func (t *TimerSet) StopAll() {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

// IsRunning reports whether the timer identified by id is currently armed.
func (t *TimerSet) IsRunning(id int) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	_, ok := t.timers[id]
	return ok
}
