package ue

import (
	"testing"
	"time"

	"github.com/free5gc/nas/security"
	"github.com/go-playground/assert/v2"

	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
)

// silentLogger discards everything; it exists only to satisfy
// loggergoModel.LoggerInterface in tests that never assert on log output.
type silentLogger struct{}

func (silentLogger) Infof(format string, args ...any)  {}
func (silentLogger) Infoln(args ...any)                {}
func (silentLogger) Warnf(format string, args ...any)  {}
func (silentLogger) Warnln(args ...any)                {}
func (silentLogger) Errorf(format string, args ...any) {}
func (silentLogger) Errorln(args ...any)               {}
func (silentLogger) Debugf(format string, args ...any) {}
func (silentLogger) Debugln(args ...any)               {}
func (silentLogger) Tracef(format string, args ...any) {}
func (silentLogger) Traceln(args ...any)               {}

func newTestNasTask() *NasTask {
	n := &NasTask{
		Base:     task.NewBase(16),
		log:      silentLogger{},
		mmState:  MmStateDeregistered,
		rmState:  RmDeregistered,
		cmState:  CmIdle,
		simValid: true,
	}
	n.timers = task.NewTimerSet(n)
	go n.Base.Run(func(msg any) {}, nil) // drain PERFORM_MM_CYCLE pushes triggered by switch*State
	return n
}

func TestSwitchMmStateLeavingDeregisteredWipesSecurity(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.sec.available = true
	n.sec.kAmf = []byte{1, 2, 3}

	n.switchMmState(MmStateDeregistered, DeregisteredNA)
	n.switchMmState(MmStateRegisteredInitiated, MmSubNullNA)

	assert.Equal(t, n.sec.available, false)
	assert.Equal(t, n.nonCurrentSec, (*securityContext)(nil))
}

func TestSwitchMmStateDeregisteredToNullDoesNotWipe(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateDeregistered
	n.sec.available = true

	n.switchMmState(MmStateNull, MmSubNullNA)

	assert.Equal(t, n.sec.available, true)
}

func TestOnSwitchCmStateAbortsDeregistrationOnIdleWhileInitiated(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateDeregisteredInitiated
	n.cmState = CmConnected
	n.lastDeregIsSwitchOff = false
	n.timers.Start(timerT3521, time.Hour)

	n.switchCmState(CmIdle)

	assert.Equal(t, n.mmState, MmStateDeregistered)
	assert.Equal(t, n.mmSubState, DeregisteredNA)
	assert.Equal(t, n.timers.IsRunning(timerT3521), false)
}

func TestAbortDeregistrationDueToDisable5gGoesNull(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateDeregisteredInitiated
	n.lastDeregDueToDisable5g = true

	n.abortDeregistration()

	assert.Equal(t, n.mmState, MmStateNull)
}

func TestT3521RetriesThenAbortsAfterMaxAttempts(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateDeregisteredInitiated
	n.lastDeregistrationRequest = []byte{0x7e, 0x00, 0x45}
	n.rrc = newRecordingTask()
	defer n.rrc.(*recordingTask).Quit()

	for i := 1; i < maxAbnormalRegAttempts; i++ {
		n.onT3521Expired()
		assert.Equal(t, n.t3521RetryCount, i)
		assert.Equal(t, n.mmState, MmStateDeregisteredInitiated)
	}

	n.onT3521Expired()
	assert.Equal(t, n.mmState, MmStateDeregistered)
}

func TestHandleRegistrationRejectSuspendsAfterFifthFailure(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateRegisteredInitiated
	n.pending = procedureAwaitingAuthentication

	for i := 1; i < maxAbnormalRegAttempts; i++ {
		n.handleRegistrationReject()
		assert.Equal(t, n.regAttemptCounter, i)
		assert.Equal(t, n.regSuspended, false)
	}

	n.handleRegistrationReject()
	assert.Equal(t, n.regAttemptCounter, maxAbnormalRegAttempts)
	assert.Equal(t, n.regSuspended, true)
	assert.Equal(t, n.mmState, MmStateDeregistered)
	assert.Equal(t, n.mmSubState, DeregisteredNoSupi)
}

func TestStartDeregistrationOnNeverRegisteredUeClearsSuspension(t *testing.T) {
	n := newTestNasTask()
	defer n.Quit()
	n.mmState = MmStateDeregistered
	n.mmSubState = DeregisteredNoSupi
	n.rmState = RmDeregistered
	n.regSuspended = true
	n.regAttemptCounter = maxAbnormalRegAttempts

	n.startDeregistration(false, false)

	assert.Equal(t, n.regSuspended, false)
	assert.Equal(t, n.regAttemptCounter, 0)
	assert.Equal(t, n.mmSubState, DeregisteredNormalService)
}

func TestSelectCipheringAlgorithmPicksHighestEnabled(t *testing.T) {
	ie := model.CipheringAlgorithmIE{Nea0: true, Nea1: true, Nea2: true}
	assert.Equal(t, selectCipheringAlgorithm(ie), security.AlgCiphering128NEA2)
}

func TestSelectCipheringAlgorithmDefaultsToNea0(t *testing.T) {
	assert.Equal(t, selectCipheringAlgorithm(model.CipheringAlgorithmIE{}), security.AlgCiphering128NEA0)
}

func TestSelectIntegrityAlgorithmPicksHighestEnabled(t *testing.T) {
	ie := model.IntegrityAlgorithmIE{Nia1: true, Nia3: true}
	assert.Equal(t, selectIntegrityAlgorithm(ie), security.AlgIntegrity128NIA3)
}
