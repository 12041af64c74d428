package task

import (
	"testing"
	"time"

	assert "github.com/go-playground/assert/v2"
)

type echoTask struct {
	Base
	received chan any
}

func newEchoTask() *echoTask {
	t := &echoTask{
		Base:     NewBase(8),
		received: make(chan any, 8),
	}
	go t.Run(func(msg any) {
		t.received <- msg
	}, nil)
	return t
}

func TestBasePushAndHandle(t *testing.T) {
	et := newEchoTask()
	defer et.Quit()

	et.Push("hello")

	select {
	case msg := <-et.received:
		assert.Equal(t, msg, "hello")
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestPauseAllConfirmsWhenAllPause(t *testing.T) {
	tasks := []Task{newEchoTask(), newEchoTask(), newEchoTask()}
	defer func() {
		for _, tk := range tasks {
			tk.Quit()
		}
	}()

	confirmed := PauseAll(tasks, 3*time.Second)
	assert.Equal(t, confirmed, true)

	UnpauseAll(tasks)
	for _, tk := range tasks {
		assert.Equal(t, tk.IsPauseConfirmed(), false)
	}
}

func TestTimerSetDeliversExpiry(t *testing.T) {
	et := newEchoTask()
	defer et.Quit()

	timers := NewTimerSet(et)
	timers.Start(1, 10*time.Millisecond)

	select {
	case msg := <-et.received:
		expired, ok := msg.(TimerExpired)
		assert.Equal(t, ok, true)
		assert.Equal(t, expired.ID, 1)
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}
}

func TestTimerSetStopPreventsDelivery(t *testing.T) {
	et := newEchoTask()
	defer et.Quit()

	timers := NewTimerSet(et)
	timers.Start(2, 50*time.Millisecond)
	timers.Stop(2)

	select {
	case msg := <-et.received:
		t.Fatalf("unexpected delivery after stop: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
