// Package task implements the cooperating single-threaded task runtime
// shared by the gNB and UE nodes: every long-lived component is a goroutine
// draining its own mailbox, never calling into another task directly.
package task

import (
	"sync/atomic"
)

// TimerExpired is delivered onto a task's own mailbox when one of its
// timers fires. It is never sent across task boundaries.
type TimerExpired struct {
	ID int
}

// Task is the interface every long-lived node component implements.
type Task interface {
	Push(msg any)
	RequestPause()
	RequestUnpause()
	IsPauseConfirmed() bool
	Quit()
}

// Base is the embeddable task implementation: a buffered mailbox, the
// atomic requested/confirmed pause flags, and a quit channel. Embedders
// provide the handle function and call Run in their own goroutine.
type Base struct {
	mailbox chan any
	quitCh  chan struct{}

	pauseRequested atomic.Bool
	pauseConfirmed atomic.Bool
}

// NewBase allocates a Base with the given mailbox capacity.
func NewBase(mailboxSize int) Base {
	return Base{
		mailbox: make(chan any, mailboxSize),
		quitCh:  make(chan struct{}),
	}
}

func (b *Base) Push(msg any) {
	select {
	case b.mailbox <- msg:
	case <-b.quitCh:
	}
}

func (b *Base) RequestPause() {
	b.pauseRequested.Store(true)
}

func (b *Base) RequestUnpause() {
	b.pauseRequested.Store(false)
	b.pauseConfirmed.Store(false)
}

func (b *Base) IsPauseConfirmed() bool {
	return b.pauseConfirmed.Load()
}

func (b *Base) Quit() {
	close(b.quitCh)
}

// Run drives the event loop: dispatch messages to handle until Quit, and
// while a pause is requested, mark confirmed and stop dispatching until
// unpaused. onQuit runs once, as the loop exits, to release task-scoped
// resources (sockets, timers, file descriptors). A quit received while
// running drains the queued messages first; a quit received while paused
// returns without dispatching them.
func (b *Base) Run(handle func(msg any), onQuit func()) {
	defer func() {
		if onQuit != nil {
			onQuit()
		}
	}()

	for {
		if b.pauseRequested.Load() {
			b.pauseConfirmed.Store(true)
			if !b.waitForUnpauseOrQuit() {
				return
			}
			continue
		}

		select {
		case <-b.quitCh:
			b.drain(handle)
			return
		case msg := <-b.mailbox:
			handle(msg)
		}
	}
}

// waitForUnpauseOrQuit blocks until RequestUnpause clears the requested
// flag or the task is asked to quit. It returns false on quit.
func (b *Base) waitForUnpauseOrQuit() bool {
	ticker := pollTicker()
	defer ticker.Stop()

	for {
		select {
		case <-b.quitCh:
			return false
		case <-ticker.C:
			if !b.pauseRequested.Load() {
				return true
			}
		}
	}
}

func (b *Base) drain(handle func(msg any)) {
	for {
		select {
		case msg := <-b.mailbox:
			handle(msg)
		default:
			return
		}
	}
}
