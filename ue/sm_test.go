package ue

import (
	"net"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
)

type recordingTask struct {
	task.Base
	received chan any
}

func newRecordingTask() *recordingTask {
	rt := &recordingTask{Base: task.NewBase(8), received: make(chan any, 8)}
	go rt.Base.Run(func(msg any) { rt.received <- msg }, nil)
	return rt
}

func TestAllocatePduSessionIdLowestFree(t *testing.T) {
	n := &NasTask{}
	assert.Equal(t, n.allocatePduSessionId(), uint8(1))

	n.sessions[1] = &pduSessionSlot{psi: 1}
	assert.Equal(t, n.allocatePduSessionId(), uint8(2))

	n.sessions[2] = &pduSessionSlot{psi: 2}
	n.freePsi(1)
	assert.Equal(t, n.allocatePduSessionId(), uint8(1))
}

func TestAllocatePduSessionIdExhausted(t *testing.T) {
	n := &NasTask{}
	for i := minPsi; i <= maxPsi; i++ {
		n.sessions[i] = &pduSessionSlot{psi: uint8(i)}
	}
	assert.Equal(t, n.allocatePduSessionId(), uint8(0))
}

func TestAllocatePtiLowestFree(t *testing.T) {
	n := &NasTask{}
	assert.Equal(t, n.allocatePti(), uint8(1))

	n.ptis[1] = &ptiEntry{inUse: true, psi: 1}
	assert.Equal(t, n.allocatePti(), uint8(2))

	n.freePti(1)
	assert.Equal(t, n.allocatePti(), uint8(1))
}

func TestFreePsiZeroPanics(t *testing.T) {
	n := &NasTask{}
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected freePsi(0) to panic")
		}
	}()
	n.freePsi(0)
}

func TestFreePtiZeroIsNoop(t *testing.T) {
	n := &NasTask{}
	n.freePti(0) // must not panic
}

func TestLocalReleaseSessionPushesWhenEstablished(t *testing.T) {
	app := newRecordingTask()
	defer app.Quit()

	n := &NasTask{app: app}
	n.sessions[3] = &pduSessionSlot{psi: 3, isEstablished: true}

	n.localReleaseSession(3)
	assert.Equal(t, n.sessions[3], (*pduSessionSlot)(nil))

	select {
	case msg := <-app.received:
		assert.Equal(t, msg, message.SessionRelease{Psi: 3})
	case <-time.After(time.Second):
		t.Fatal("expected SessionRelease to be pushed")
	}
}

func TestLocalReleaseSessionSkipsPushWhenNotEstablished(t *testing.T) {
	app := newRecordingTask()
	defer app.Quit()

	n := &NasTask{app: app}
	n.sessions[4] = &pduSessionSlot{psi: 4, isEstablished: false}

	n.localReleaseSession(4)
	assert.Equal(t, n.sessions[4], (*pduSessionSlot)(nil))

	select {
	case <-app.received:
		t.Fatal("did not expect a SessionRelease push")
	default:
	}
}

func TestLocalReleaseAllSessionsClearsEveryOccupiedSlot(t *testing.T) {
	app := newRecordingTask()
	defer app.Quit()

	n := &NasTask{app: app}
	n.sessions[1] = &pduSessionSlot{psi: 1, isEstablished: true}
	n.sessions[5] = &pduSessionSlot{psi: 5, isEstablished: true}

	n.localReleaseAllSessions()

	for i := minPsi; i <= maxPsi; i++ {
		assert.Equal(t, n.sessions[i], (*pduSessionSlot)(nil))
	}
}

func TestExtractPduAddress(t *testing.T) {
	payload := []byte{0x2e, 0x01, 0x00, 0xc2, 0x01, 0x00, 0x29, 0x05, 0x01, 10, 0, 0, 5}
	addr := extractPduAddress(payload)
	assert.Equal(t, addr.Equal(net.IPv4(10, 0, 0, 5)), true)
}

func TestExtractPduAddressMissingIeReturnsZero(t *testing.T) {
	payload := []byte{0x2e, 0x01, 0x00, 0xc2}
	addr := extractPduAddress(payload)
	assert.Equal(t, addr.Equal(net.IPv4zero), true)
}
