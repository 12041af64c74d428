package ue

import (
	"net"

	"github.com/free5gc/nas"

	"github.com/go5gran/ransim/message"
)

// pduSessionSlot is one entry of the UE's fixed 16-slot PDU session
// table, spec.md §3. Slot 0 is reserved and never allocated.
type pduSessionSlot struct {
	psi           uint8
	pti           uint8
	dnn           string
	sst           uint8
	sd            string
	isEstablished bool
	ueAddress     net.IP
}

// ptiEntry tracks the SM procedure a procedure transaction id is
// currently part of.
type ptiEntry struct {
	inUse bool
	psi   uint8
}

const (
	minPsi = 1
	maxPsi = 15
	minPti = 1
	maxPti = 254

	pduSessionTypeIPv4 = 0x01
	sscModeOne         = 1
	requestTypeInitial = 1

	msgTypePduSessionEstablishmentAccept = 0xC2
	msgTypePduSessionEstablishmentReject = 0xC3
)

// allocatePduSessionId returns the lowest free PSI in 1..15, or 0 if the
// table is full, per invariant I5.
func (n *NasTask) allocatePduSessionId() uint8 {
	for i := minPsi; i <= maxPsi; i++ {
		if n.sessions[i] == nil {
			return uint8(i)
		}
	}
	return 0
}

// allocatePti returns the lowest free PTI in 1..254, or 0 if exhausted.
func (n *NasTask) allocatePti() uint8 {
	for i := minPti; i <= maxPti; i++ {
		if !n.ptis[i].inUseOrNil() {
			return uint8(i)
		}
	}
	return 0
}

func (e *ptiEntry) inUseOrNil() bool {
	return e != nil && e.inUse
}

func (n *NasTask) freePti(pti uint8) {
	if pti == 0 {
		return
	}
	n.ptis[pti] = nil
}

// freePsi frees slot psi. freePsi(0) is undefined per spec.md §4.6 and
// is rejected rather than silently ignored.
func (n *NasTask) freePsi(psi uint8) {
	if psi == 0 {
		panic("freePsi(0) is undefined")
	}
	n.sessions[psi] = nil
}

// localReleaseSession pushes SESSION_RELEASE to App if the slot is
// established, then frees it, per spec.md §4.6.
func (n *NasTask) localReleaseSession(psi uint8) {
	slot := n.sessions[psi]
	if slot == nil {
		return
	}
	if slot.isEstablished && n.app != nil {
		n.app.Push(message.SessionRelease{Psi: int(psi)})
	}
	n.freePsi(psi)
}

// localReleaseAllSessions iterates the table and local-releases every
// occupied slot, per spec.md §4.6 and invariant I4.
func (n *NasTask) localReleaseAllSessions() {
	for i := minPsi; i <= maxPsi; i++ {
		if n.sessions[i] != nil {
			n.localReleaseSession(uint8(i))
		}
	}
}

// sendEstablishmentRequest allocates a PTI and a free PSI, builds a PDU
// Session Establishment Request wrapped in UL NAS TRANSPORT, and hands
// it to the transport path, per spec.md §4.6.
func (n *NasTask) sendEstablishmentRequest(dnn string, sst uint8, sd string) {
	psi := n.allocatePduSessionId()
	if psi == 0 {
		n.log.Errorln("no free PDU session slot")
		return
	}
	pti := n.allocatePti()
	if pti == 0 {
		n.log.Errorln("no free procedure transaction id")
		return
	}

	n.sessions[psi] = &pduSessionSlot{psi: psi, pti: pti, dnn: dnn, sst: sst, sd: sd}
	n.ptis[pti] = &ptiEntry{inUse: true, psi: psi}

	establishReq := buildPduSessionEstablishmentRequest(psi, pti, pduSessionTypeIPv4, sscModeOne)

	ulTransport, err := buildUlNasTransport(establishReq, psi, requestTypeInitial, dnn, sst, sd)
	if err != nil {
		n.log.Errorf("error building ul nas transport: %v", err)
		n.freePsi(psi)
		n.freePti(pti)
		return
	}

	encoded, err := encodeNasPduWithSecurity(n, ulTransport, nas.SecurityHeaderTypeIntegrityProtectedAndCiphered, n.sec.available, false)
	if err != nil {
		n.log.Errorf("error encoding ul nas transport: %v", err)
		n.freePsi(psi)
		n.freePti(pti)
		return
	}

	n.sendUplinkNas(encoded)
}

// receiveDlNasTransport extracts the 5GSM payload container of a DL NAS
// TRANSPORT message and dispatches on its message type, symmetric with
// buildPduSessionEstablishmentRequest's raw-TLV encoding.
func (n *NasTask) receiveDlNasTransport(nasPdu *nas.Message) {
	transport := nasPdu.DLNASTransport
	if transport == nil || transport.PayloadContainer == nil {
		n.log.Warnln("dl nas transport missing payload container")
		return
	}
	payload := transport.PayloadContainer.GetPayloadContainerContents()
	if len(payload) < 4 {
		n.log.Warnln("dl nas transport payload container too short")
		return
	}

	psi := payload[1]
	msgType := payload[3]

	switch msgType {
	case msgTypePduSessionEstablishmentAccept:
		n.receivePduSessionEstablishmentAccept(psi, payload)
	case msgTypePduSessionEstablishmentReject:
		n.receivePduSessionEstablishmentReject(psi, payload)
	default:
		n.log.Warnf("unhandled 5GSM message type 0x%02x", msgType)
	}
}

// receivePduSessionEstablishmentAccept binds the PDU address, marks the
// slot established, and emits SESSION_ESTABLISHMENT to App, per spec.md
// §4.6. The PDU address is located by extractPduAddress, which scans the
// payload for the PDU address IEI rather than reading a fixed offset; no
// other IE of the accept is interpreted.
func (n *NasTask) receivePduSessionEstablishmentAccept(psi uint8, payload []byte) {
	slot := n.sessions[psi]
	if slot == nil {
		n.log.Errorf("pdu session establishment accept for unknown psi %d", psi)
		return
	}

	addr := extractPduAddress(payload)
	slot.isEstablished = true
	slot.ueAddress = addr

	n.app.Push(message.SessionEstablishment{Summary: message.PduSessionSummary{
		Psi:     int(psi),
		Dnn:     slot.dnn,
		Sst:     slot.sst,
		Sd:      slot.sd,
		UeIP:    addr.String(),
		TunName: "",
	}})
}

// receivePduSessionEstablishmentReject frees the PTI and PSI and logs
// the SM cause, per spec.md §4.6.
func (n *NasTask) receivePduSessionEstablishmentReject(psi uint8, payload []byte) {
	slot := n.sessions[psi]
	if slot != nil {
		n.freePti(slot.pti)
	}
	n.freePsi(psi)

	cause := uint8(0)
	if len(payload) > 4 {
		cause = payload[4]
	}
	n.log.Errorf("pdu session establishment rejected for psi %d, cause 0x%02x", psi, cause)
}

// extractPduAddress reads the four-byte IPv4 address of the first byte
// equal to the PDU address IEI (0x29) at offset 5 or later in a PDU
// Session Establishment Accept payload, following the
// type|length|address-type|octets layout 3GPP TS 24.501 §9.11.4.10 uses
// for the single-address IPv4 case.
func extractPduAddress(payload []byte) net.IP {
	const ieTag = 0x29
	for i := 5; i+7 <= len(payload); i++ {
		if payload[i] == ieTag {
			return net.IPv4(payload[i+3], payload[i+4], payload[i+5], payload[i+6])
		}
	}
	return net.IPv4zero
}
