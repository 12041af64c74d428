package gnb

import (
	"github.com/go5gran/ransim/message"
)

// handoverPreparation is invoked from the CLI/App layer to begin an
// Xn-based handover for ueId, surfaced for observability per the Open
// Question decision recorded in SPEC_FULL.md.
func (n *NgapTask) handoverPreparation(ueID int) {
	ctx, ok := n.ues.Get(ueID)
	if !ok {
		n.log.Warnf("handoverPreparation for unknown ue %d", ueID)
		return
	}
	ctx.ProcedureInProgress = "HandoverPreparation"
	if n.app != nil {
		n.app.Push(message.NgapHandoverPreparationRequested{UeID: ueID})
	}
}

// handleXnHandover runs a manually-triggered Path Switch Request for the
// given UE-associated identifiers, adapted from the teacher's
// xnPduSessionResourceSetupRequestProcessor sequencing but generalised
// to the NGAP Path Switch procedure rather than a bespoke XN socket
// exchange; it notifies the target AMF and allocates no TEID. The PDU is
// built and constraint-checked by encodePathSwitchRequest; a UE whose
// PathSwitchRequest fails to encode is left on its prior AMF association
// rather than silently reassigned to one it never actually notified.
func (n *NgapTask) handleXnHandover(targetAmfID int, amfUeNgapID, ranUeNgapID int64, ctxtID int, uplinkStream uint16, amfName string) {
	amf, ok := n.amfs.Get(targetAmfID)
	if !ok || amf.State != AmfConnected {
		n.log.Warnf("handleXnHandover: target amf %d not connected", targetAmfID)
		return
	}

	ctx, ok := n.ues.GetByRanUeID(ranUeNgapID)
	if !ok {
		n.log.Warnf("handleXnHandover: unknown ranUeId %d", ranUeNgapID)
		return
	}

	pdu, err := encodePathSwitchRequest(amfUeNgapID, ranUeNgapID, n.gnbID, n.plmnID, n.tai)
	if err != nil {
		n.log.Errorf("handleXnHandover: dropping invalid PathSwitchRequest for ue %d: %v", ctx.UeID, err)
		return
	}

	ctx.AmfID = targetAmfID
	ctx.AmfUeNgapID = amfUeNgapID
	ctx.UplinkStream = uplinkStream
	ctx.ProcedureInProgress = ""

	n.sctp.Push(message.SctpDataReq{AmfID: targetAmfID, Stream: uplinkStream, Data: pdu})
	n.log.Infof("Handover of ue %d to amf %d (%s) via context %d complete", ctx.UeID, targetAmfID, amfName, ctxtID)
}

// HandoverDebugStub runs the parameterless debug form of handleXnHandover
// named by the Open Question decision: it only fires when
// GnbConfig.Gnb.Debug.EnableHandoverStub is set, and picks the first UE
// in the table and the first connected AMF other than that UE's current
// AMF rather than requiring an operator to name them.
func (n *NgapTask) HandoverDebugStub() {
	if !n.cfg.Debug.EnableHandoverStub {
		n.log.Warnf("HandoverDebugStub invoked but debug.enableHandoverStub is false")
		return
	}

	all := n.ues.All()
	if len(all) == 0 {
		n.log.Warnf("HandoverDebugStub: no UE contexts to hand over")
		return
	}
	ctx := all[0]

	for _, amf := range n.amfs.All() {
		if amf.State == AmfConnected && amf.AmfID != ctx.AmfID {
			n.handleXnHandover(amf.AmfID, ctx.AmfUeNgapID, ctx.RanUeNgapID, 0, ctx.UplinkStream, amf.AmfName)
			return
		}
	}
	n.log.Warnf("HandoverDebugStub: no alternate connected AMF found")
}
