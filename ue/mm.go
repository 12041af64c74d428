package ue

import (
	"encoding/hex"
	"time"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
	"github.com/free5gc/nas/security"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
)

// EMmState is the UE's primary mobility management state, per spec.md §3.
type EMmState int

const (
	MmStateNull EMmState = iota
	MmStateDeregistered
	MmStateRegisteredInitiated
	MmStateRegistered
	MmStateDeregisteredInitiated
	MmStateServiceRequestInitiated
)

// EMmSubState refines EMmState, per spec.md §3's non-exhaustive example list.
type EMmSubState int

const (
	MmSubNullNA EMmSubState = iota
	DeregisteredNA
	DeregisteredPlmnSearch
	DeregisteredNoCellAvailable
	DeregisteredNormalService
	DeregisteredNoSupi
	RegisteredNormalService
	RegisteredNoCellAvailable
)

type ERmState int

const (
	RmDeregistered ERmState = iota
	RmRegistered
)

type ECmState int

const (
	CmIdle ECmState = iota
	CmConnected
)

type E5UState int

const (
	U1Updated E5UState = iota
	U2NotUpdated
	U3RoamingNotAllowed
)

// 3GPP timer codes, used directly as task.TimerSet ids per spec.md §3.
const (
	timerT3346 = 3346
	timerT3512 = 3512
	timerT3521 = 3521

	t3346Delay = 5 * time.Second
	t3512Delay = 30 * time.Second
	t3521Delay = 2 * time.Second

	plmnSearchThrottle = 50 * time.Millisecond
	switchOffDelay     = 500 * time.Millisecond

	// maxAbnormalRegAttempts is the supplemented abnormal-case retry
	// ceiling from SPEC_FULL.md §6.6 (original_source/src/ue/mm/base.cpp).
	maxAbnormalRegAttempts = 5
)

// pendingProcedure names the NAS-MM procedure NasTask is mid-flight on,
// so an arriving DownlinkNasDelivery is routed to the right handler
// without blocking the task loop the way the teacher's synchronous
// net.Conn reads did.
type pendingProcedure int

const (
	procedureNone pendingProcedure = iota
	procedureAwaitingAuthentication
	procedureAwaitingSecurityMode
	procedureAwaitingRegistrationAccept
	procedureAwaitingDeregistrationAccept
)

// NasTask is the UE's combined NAS-MM/NAS-SM task. MM and SM share one
// task, rather than one each, because both depend on the same NAS
// security context and sequencing them through message passing would
// reintroduce the cross-task mutable state the runtime forbids.
type NasTask struct {
	task.Base

	cfg *model.UeConfig
	log loggergoModelLogger

	rrc task.Task
	app task.Task

	timers *task.TimerSet

	// MM registers, spec.md §3.
	mmState    EMmState
	mmSubState EMmSubState
	rmState    ERmState
	cmState    ECmState
	uState     E5UState

	simValid      bool
	autoBehaviour bool
	supi          string

	guti           string
	lastVisitedTai string
	taiList        []string

	sec          securityContext
	nonCurrentSec *securityContext

	pending pendingProcedure

	lastPlmnSearch time.Time

	regAttemptCounter int
	regSuspended      bool

	lastDeregistrationRequest []byte
	lastDeregDueToDisable5g   bool
	lastDeregIsSwitchOff      bool
	t3521RetryCount           int

	// NAS-SM state, spec.md §4.6; implemented in sm.go.
	sessions [16]*pduSessionSlot
	ptis     [255]*ptiEntry
}

// loggergoModelLogger aliases the tagged logger interface so this file's
// struct field doesn't need to import logger-go under two names.
type loggergoModelLogger = loggergoModel.LoggerInterface

func NewNasTask(cfg *model.UeConfig, log loggergoModel.LoggerInterface) *NasTask {
	n := &NasTask{
		Base:          task.NewBase(64),
		cfg:           cfg,
		log:           log,
		mmState:       MmStateDeregistered,
		mmSubState:    DeregisteredNA,
		rmState:       RmDeregistered,
		cmState:       CmIdle,
		uState:        U2NotUpdated,
		simValid:      true,
		autoBehaviour: cfg.Ue.AutoBehaviour,
		supi:          cfg.Ue.Msin,
	}
	n.timers = task.NewTimerSet(n)

	n.sec.supi = cfg.Ue.Msin
	n.sec.cipheringAlgorithm = selectCipheringAlgorithm(cfg.Ue.CipheringAlgorithm)
	n.sec.integrityAlgorithm = selectIntegrityAlgorithm(cfg.Ue.IntegrityAlgorithm)

	return n
}

func selectCipheringAlgorithm(ie model.CipheringAlgorithmIE) uint8 {
	switch {
	case ie.Nea3:
		return security.AlgCiphering128NEA3
	case ie.Nea2:
		return security.AlgCiphering128NEA2
	case ie.Nea1:
		return security.AlgCiphering128NEA1
	default:
		return security.AlgCiphering128NEA0
	}
}

func selectIntegrityAlgorithm(ie model.IntegrityAlgorithmIE) uint8 {
	switch {
	case ie.Nia3:
		return security.AlgIntegrity128NIA3
	case ie.Nia2:
		return security.AlgIntegrity128NIA2
	case ie.Nia1:
		return security.AlgIntegrity128NIA1
	default:
		return security.AlgIntegrity128NIA0
	}
}

func (n *NasTask) Run() {
	go n.Base.Run(n.handle, n.onQuit)
}

// SetRrc/SetApp wire this task's peers once the UE's task graph is fully
// constructed, mirroring the gNB's Set* wiring pattern.
func (n *NasTask) SetRrc(rrc task.Task) { n.rrc = rrc }
func (n *NasTask) SetApp(app task.Task) { n.app = app }

func (n *NasTask) onQuit() {
	n.timers.StopAll()
}

func (n *NasTask) handle(msg any) {
	switch m := msg.(type) {
	case message.PerformMmCycle:
		n.performMmCycle()
	case task.TimerExpired:
		n.handleTimerExpired(m.ID)
	case message.DownlinkNasDelivery:
		n.handleDownlinkNas(m.Pdu)
	case message.DeRegisterCmd:
		n.startDeregistration(m.IsSwitchOff, m.DueToDisable5g)
	case message.EstablishSessionCmd:
		n.sendEstablishmentRequest(m.Dnn, m.Sst, m.Sd)
	}
}

// triggerMmCycle enqueues PERFORM_MM_CYCLE on this task's own mailbox,
// per spec.md §4.5's trigger surface.
func (n *NasTask) triggerMmCycle() {
	n.Push(message.PerformMmCycle{})
}

// performMmCycle implements the six cycle steps of spec.md §4.5.
func (n *NasTask) performMmCycle() {
	if n.mmState == MmStateNull {
		return
	}

	if n.mmSubState == DeregisteredNA {
		switch {
		case n.simValid && n.cmState == CmIdle:
			n.switchMmSubState(DeregisteredPlmnSearch)
		case n.simValid:
			n.switchMmSubState(DeregisteredNormalService)
		default:
			n.switchMmSubState(DeregisteredNoSupi)
		}
		return
	}

	switch n.mmSubState {
	case DeregisteredPlmnSearch, DeregisteredNoCellAvailable, RegisteredNoCellAvailable:
		if time.Since(n.lastPlmnSearch) >= plmnSearchThrottle {
			n.lastPlmnSearch = time.Now()
			if n.rrc != nil {
				n.rrc.Push(message.PlmnSearchRequest{})
			}
		}
		return
	}

	if n.mmSubState == DeregisteredNormalService {
		if n.autoBehaviour && !n.regSuspended && !n.timers.IsRunning(timerT3346) {
			n.sendInitialRegistration()
		}
		return
	}

	switch n.mmState {
	case MmStateRegisteredInitiated, MmStateDeregisteredInitiated, MmStateServiceRequestInitiated:
		return
	case MmStateRegistered:
		if n.mmSubState == RegisteredNormalService {
			return
		}
	}
	if n.mmSubState == DeregisteredNoSupi {
		return
	}

	if n.autoBehaviour {
		n.log.Warnf("unhandled MM state %v/%v", n.mmState, n.mmSubState)
	}
}

func (n *NasTask) handleTimerExpired(id int) {
	switch id {
	case timerT3346:
		if n.autoBehaviour && !n.regSuspended && n.mmSubState == DeregisteredNormalService {
			n.sendInitialRegistration()
		}
	case timerT3512:
		if n.autoBehaviour && n.mmState == MmStateRegistered && n.cmState == CmConnected {
			n.sendPeriodicRegistrationUpdating()
		}
	case timerT3521:
		n.onT3521Expired()
	}
}

// switchMmState updates the primary register, fires onSwitchMmState,
// logs on change and re-triggers the cycle, per spec.md §4.5.
func (n *NasTask) switchMmState(next EMmState, subState EMmSubState) {
	changed := n.mmState != next || n.mmSubState != subState
	prev := n.mmState
	n.mmState = next
	n.mmSubState = subState
	n.onSwitchMmState(prev, next)
	if changed {
		n.log.Infof("MM state -> %v/%v", next, subState)
	}
	n.triggerMmCycle()
}

func (n *NasTask) switchMmSubState(subState EMmSubState) {
	n.switchMmState(n.mmState, subState)
}

// onSwitchMmState wipes both NAS security contexts whenever the UE
// leaves DEREGISTERED for anything but NULL, per the contract in
// spec.md §4.5 and invariant I3.
func (n *NasTask) onSwitchMmState(prev, next EMmState) {
	if prev == MmStateDeregistered && next != MmStateNull && next != MmStateDeregistered {
		n.wipeSecurityContexts()
	}
}

func (n *NasTask) switchRmState(next ERmState) {
	if n.rmState == next {
		return
	}
	n.rmState = next
	n.log.Infof("RM state -> %v", next)
	n.triggerMmCycle()
}

func (n *NasTask) switchCmState(next ECmState) {
	if n.cmState == next {
		return
	}
	prev := n.cmState
	n.cmState = next
	n.onSwitchCmState(prev, next)
	n.log.Infof("CM state -> %v", next)
	n.triggerMmCycle()
}

// onSwitchCmState implements the CM_CONNECTED->CM_IDLE-while-de-registering
// contract of spec.md §4.5.
func (n *NasTask) onSwitchCmState(prev, next ECmState) {
	if prev == CmConnected && next == CmIdle && n.mmState == MmStateDeregisteredInitiated {
		n.abortDeregistration()
	}
}

func (n *NasTask) switchUState(next E5UState) {
	if n.uState == next {
		return
	}
	n.uState = next
	n.log.Infof("5U state -> %v", next)
	n.triggerMmCycle()
}

// abortDeregistration implements the terminal transition shared by
// onSwitchCmState's abnormal case and T3521's 5th-expiry abort.
func (n *NasTask) abortDeregistration() {
	n.timers.Stop(timerT3521)
	n.t3521RetryCount = 0

	switch {
	case n.lastDeregDueToDisable5g:
		n.switchMmState(MmStateNull, MmSubNullNA)
	case !n.lastDeregIsSwitchOff:
		n.switchMmState(MmStateDeregistered, DeregisteredNA)
	default:
		n.switchMmState(MmStateNull, MmSubNullNA)
	}

	n.lastDeregistrationRequest = nil
	n.lastDeregDueToDisable5g = false
}

// wipeSecurityContexts clears both the current and non-current NAS
// security context, per invariant I3.
func (n *NasTask) wipeSecurityContexts() {
	n.sec = securityContext{
		supi:               n.sec.supi,
		cipheringAlgorithm: n.sec.cipheringAlgorithm,
		integrityAlgorithm: n.sec.integrityAlgorithm,
	}
	n.nonCurrentSec = nil
}

// invalidateSim wipes stored GUTI/TAI/security state and marks the SIM
// invalid, per spec.md §4.5.
func (n *NasTask) invalidateSim() {
	n.guti = ""
	n.lastVisitedTai = ""
	n.taiList = nil
	n.wipeSecurityContexts()
	n.simValid = false
	n.triggerMmCycle()
}

// sendInitialRegistration builds and sends the first Registration
// Request of spec.md §4.5 step 4, following the teacher's
// processUeRegistration up through the initial send. FOR_PENDING (the
// follow-on request bit) is set unconditionally: this simulator only
// drives the AKA/security/registration-complete sequence, never a
// stand-alone Registration Request with nothing pending after it.
func (n *NasTask) sendInitialRegistration() {
	mobileIdentity := buildSuciIdentity(n.cfg.Ue.PlmnId.Mcc, n.cfg.Ue.PlmnId.Mnc, n.cfg.Ue.Msin)
	secCap := buildUeSecurityCapability(n.sec.cipheringAlgorithm, n.sec.integrityAlgorithm)

	req, err := buildRegistrationRequest(nasMessage.RegistrationType5GSInitialRegistration, mobileIdentity, secCap, nil)
	if err != nil {
		n.log.Errorf("error building registration request: %v", err)
		return
	}

	n.switchMmState(MmStateRegisteredInitiated, MmSubNullNA)
	n.pending = procedureAwaitingAuthentication
	n.sendUplinkNas(req)
}

func (n *NasTask) sendPeriodicRegistrationUpdating() {
	mobileIdentity := buildSuciIdentity(n.cfg.Ue.PlmnId.Mcc, n.cfg.Ue.PlmnId.Mnc, n.cfg.Ue.Msin)
	secCap := buildUeSecurityCapability(n.sec.cipheringAlgorithm, n.sec.integrityAlgorithm)

	req, err := buildRegistrationRequest(nasMessage.RegistrationType5GSPeriodicRegistrationUpdating, mobileIdentity, secCap, nil)
	if err != nil {
		n.log.Errorf("error building periodic registration request: %v", err)
		return
	}

	encoded, err := encodeNasPduWithSecurity(n, req, nas.SecurityHeaderTypeIntegrityProtected, n.sec.available, false)
	if err != nil {
		n.log.Errorf("error encoding periodic registration request: %v", err)
		return
	}

	n.switchMmState(MmStateRegisteredInitiated, MmSubNullNA)
	n.pending = procedureAwaitingRegistrationAccept
	n.sendUplinkNas(encoded)
}

func (n *NasTask) sendUplinkNas(pdu []byte) {
	if n.rrc == nil {
		n.log.Warnln("no rrc task wired, dropping uplink NAS")
		return
	}
	n.rrc.Push(message.UplinkNasRequest{Pdu: pdu})
}

// handleDownlinkNas decodes and routes a NAS PDU received from RRC,
// dispatching on n.pending the way the teacher's synchronous read loop
// dispatched on the next expected message type.
func (n *NasTask) handleDownlinkNas(raw []byte) {
	nasPdu, err := nasDecode(n, nas.GetSecurityHeaderType(raw), raw)
	if err != nil {
		n.log.Errorf("error decoding downlink NAS: %v", err)
		return
	}

	switch nasPdu.GmmHeader.GetMessageType() {
	case nas.MsgTypeAuthenticationRequest:
		n.handleAuthenticationRequest(nasPdu)
	case nas.MsgTypeSecurityModeCommand:
		n.handleSecurityModeCommand()
	case nas.MsgTypeRegistrationAccept:
		n.handleRegistrationAccept()
	case nas.MsgTypeRegistrationReject:
		n.handleRegistrationReject()
	case nas.MsgTypeDLNASTransport:
		n.handleDlNasTransport(nasPdu)
	case nas.MsgTypeDeregistrationAcceptUEOriginatingDeregistration:
		n.handleDeregistrationAccept()
	default:
		n.log.Warnf("unhandled downlink NAS message type %v", nasPdu.GmmHeader.GetMessageType())
	}
}

func (n *NasTask) handleAuthenticationRequest(nasPdu *nas.Message) {
	if n.pending != procedureAwaitingAuthentication {
		n.log.Warnln("unexpected authentication request")
	}

	// AUTN's SQN⊕AK is not unwound here: this simulator keeps the
	// authentication subscription's SQN static from configuration rather
	// than tracking USIM-side resynchronisation, mirroring the teacher's
	// own single-shot AKA run.
	rand := nasPdu.AuthenticationRequest.GetRANDValue()

	sqn, err := hex.DecodeString(n.cfg.Ue.AuthenticationSubscription.SequenceNumber)
	if err != nil {
		n.log.Errorf("error decoding configured sqn: %v", err)
		return
	}
	amf, err := hex.DecodeString(n.cfg.Ue.AuthenticationSubscription.AuthenticationManagementField)
	if err != nil {
		n.log.Errorf("error decoding configured amf field: %v", err)
		return
	}
	k, err := hex.DecodeString(n.cfg.Ue.AuthenticationSubscription.EncPermanentKey)
	if err != nil {
		n.log.Errorf("error decoding configured permanent key: %v", err)
		return
	}
	opc, err := hex.DecodeString(n.cfg.Ue.AuthenticationSubscription.EncOpcKey)
	if err != nil {
		n.log.Errorf("error decoding configured opc key: %v", err)
		return
	}

	snName := "5G:mnc" + n.cfg.Ue.PlmnId.Mnc + ".mcc" + n.cfg.Ue.PlmnId.Mcc + ".3gppnetwork.org"
	kAmf, kenc, kint, resStar, err := deriveResStarAndSetKey(
		"supi-"+n.supi, n.sec.cipheringAlgorithm, n.sec.integrityAlgorithm, sqn, amf, k, opc, rand[:], snName)
	if err != nil {
		n.log.Errorf("error deriving res*: %v", err)
		return
	}

	n.sec.kAmf = kAmf
	copy(n.sec.kNasEnc[:], kenc[16:32])
	copy(n.sec.kNasInt[:], kint[16:32])

	resp, err := buildAuthenticationResponse(resStar)
	if err != nil {
		n.log.Errorf("error building authentication response: %v", err)
		return
	}

	n.pending = procedureAwaitingSecurityMode
	n.sendUplinkNas(resp)
}

func (n *NasTask) handleSecurityModeCommand() {
	if n.pending != procedureAwaitingSecurityMode {
		n.log.Warnln("unexpected security mode command")
	}

	mobileIdentity := buildSuciIdentity(n.cfg.Ue.PlmnId.Mcc, n.cfg.Ue.PlmnId.Mnc, n.cfg.Ue.Msin)
	secCap := buildUeSecurityCapability(n.sec.cipheringAlgorithm, n.sec.integrityAlgorithm)
	registrationRequestWithCaps, err := buildRegistrationRequest(nasMessage.RegistrationType5GSInitialRegistration, mobileIdentity, secCap, nil)
	if err != nil {
		n.log.Errorf("error rebuilding registration request for security mode complete: %v", err)
		return
	}

	complete, err := buildSecurityModeComplete(registrationRequestWithCaps)
	if err != nil {
		n.log.Errorf("error building security mode complete: %v", err)
		return
	}

	encoded, err := encodeNasPduWithSecurity(n, complete, nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext, true, true)
	if err != nil {
		n.log.Errorf("error encoding security mode complete: %v", err)
		return
	}
	n.sec.available = true

	n.pending = procedureAwaitingRegistrationAccept
	n.sendUplinkNas(encoded)
}

func (n *NasTask) handleRegistrationAccept() {
	if n.pending != procedureAwaitingRegistrationAccept {
		n.log.Warnln("unexpected registration accept")
	}

	complete, err := buildRegistrationComplete()
	if err != nil {
		n.log.Errorf("error building registration complete: %v", err)
		return
	}
	encoded, err := encodeNasPduWithSecurity(n, complete, nas.SecurityHeaderTypeIntegrityProtectedAndCiphered, true, false)
	if err != nil {
		n.log.Errorf("error encoding registration complete: %v", err)
		return
	}

	n.pending = procedureNone
	n.regAttemptCounter = 0
	n.sendUplinkNas(encoded)

	n.switchRmState(RmRegistered)
	n.switchCmState(CmConnected)
	n.switchUState(U1Updated)
	n.switchMmState(MmStateRegistered, RegisteredNormalService)
	n.timers.Start(timerT3512, t3512Delay)

	for _, sess := range n.cfg.Ue.Sessions {
		n.sendEstablishmentRequest(sess.Dnn, sstFromString(sess.Sst), sess.Sd)
	}
}

// handleRegistrationReject implements the abnormal-case counter
// supplemented from original_source/src/ue/mm/base.cpp: on the 5th
// consecutive Initial Registration failure, auto-retry is suspended
// until an operator DE_REGISTER or restart (3GPP TS 24.501 §5.5.1.2.7
// case (f)).
func (n *NasTask) handleRegistrationReject() {
	n.pending = procedureNone
	n.wipeSecurityContexts()
	n.regAttemptCounter++
	n.log.Warnf("registration rejected, attempt %d/%d", n.regAttemptCounter, maxAbnormalRegAttempts)

	if n.regAttemptCounter >= maxAbnormalRegAttempts {
		n.regSuspended = true
		n.log.Errorln("abnormal registration failure limit reached, suspending auto-retry")
		n.switchMmState(MmStateDeregistered, DeregisteredNoSupi)
		return
	}
	n.switchMmState(MmStateDeregistered, DeregisteredNormalService)
}

func (n *NasTask) handleDeregistrationAccept() {
	n.timers.Stop(timerT3521)
	n.t3521RetryCount = 0
	n.lastDeregistrationRequest = nil
	n.localReleaseAllSessions()
	n.switchRmState(RmDeregistered)

	if n.lastDeregDueToDisable5g {
		n.switchMmState(MmStateNull, MmSubNullNA)
	} else {
		n.switchMmState(MmStateDeregistered, DeregisteredNA)
	}
	n.lastDeregDueToDisable5g = false
}

// startDeregistration begins UE-initiated de-registration, delivered
// from the CLI DE_REGISTER command per spec.md §4.7.
func (n *NasTask) startDeregistration(isSwitchOff, dueToDisable5g bool) {
	if n.mmState == MmStateDeregisteredInitiated {
		n.log.Warnln("de-registration already in progress")
		return
	}

	// An operator DE_REGISTER on a UE that was never registered (e.g.
	// after the abnormal registration-failure limit suspended
	// auto-retry) has nothing to tear down on the network side; treat
	// it as clearing the suspension instead of sending a request.
	if n.rmState == RmDeregistered {
		n.regSuspended = false
		n.regAttemptCounter = 0
		n.switchMmState(MmStateDeregistered, DeregisteredNormalService)
		return
	}

	deregType := uint8(nasMessage.AccessType3GPP)
	if isSwitchOff {
		deregType |= 0x08 // switch-off bit, TS 24.501 9.11.3.20
	}

	mobileIdentity := buildSuciIdentity(n.cfg.Ue.PlmnId.Mcc, n.cfg.Ue.PlmnId.Mnc, n.cfg.Ue.Msin)
	req, err := buildDeregistrationRequest(deregType, mobileIdentity)
	if err != nil {
		n.log.Errorf("error building deregistration request: %v", err)
		return
	}
	encoded, err := encodeNasPduWithSecurity(n, req, nas.SecurityHeaderTypeIntegrityProtectedAndCiphered, n.sec.available, false)
	if err != nil {
		n.log.Errorf("error encoding deregistration request: %v", err)
		return
	}

	n.lastDeregistrationRequest = encoded
	n.lastDeregDueToDisable5g = dueToDisable5g
	n.lastDeregIsSwitchOff = isSwitchOff
	n.t3521RetryCount = 0
	n.pending = procedureAwaitingDeregistrationAccept

	n.switchMmState(MmStateDeregisteredInitiated, MmSubNullNA)
	n.sendUplinkNas(encoded)
	n.timers.Start(timerT3521, t3521Delay)
}

// onT3521Expired implements the retransmit/abort contract of spec.md
// §4.5: retransmit and restart on the first four expiries, abort on the
// fifth.
func (n *NasTask) onT3521Expired() {
	n.t3521RetryCount++
	if n.t3521RetryCount >= maxAbnormalRegAttempts {
		n.abortDeregistration()
		return
	}
	if n.lastDeregistrationRequest != nil {
		n.sendUplinkNas(n.lastDeregistrationRequest)
	}
	n.timers.Start(timerT3521, t3521Delay)
}

func (n *NasTask) handleDlNasTransport(nasPdu *nas.Message) {
	n.receiveDlNasTransport(nasPdu)
}

func sstFromString(sst string) uint8 {
	if len(sst) == 0 {
		return 0
	}
	b, err := hex.DecodeString(sst)
	if err != nil || len(b) == 0 {
		return 0
	}
	return b[0]
}
