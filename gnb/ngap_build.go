package gnb

import (
	"encoding/binary"
	"time"

	"github.com/free5gc/aper"
	"github.com/free5gc/ngap"
	"github.com/free5gc/ngap/ngapConvert"
	"github.com/free5gc/ngap/ngapType"
)

// ntpEpochOffset converts a Unix timestamp to the NTP epoch (1900-01-01)
// the NGAP TimeStamp IE is defined against.
const ntpEpochOffset = 2208988800

func ngapTimeStamp() aper.OctetString {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(time.Now().Unix()+ntpEpochOffset))
	return aper.OctetString(buf)
}

// buildNgSetupRequest lays out its IE list the way the teacher's
// buildNgapSetupRequest already does, generalised to whatever slices a
// config carries instead of a single hard-coded SNSSAI.
func buildNgSetupRequest(gnbID []byte, gnbName string, plmnID ngapType.PLMNIdentity, tai ngapType.TAI, snssais []ngapType.SNSSAI, pagingDrx ngapType.PagingDRX) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	im := pdu.InitiatingMessage
	im.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	im.Criticality.Value = ngapType.CriticalityPresentReject
	im.Value.Present = ngapType.InitiatingMessagePresentNGSetupRequest
	im.Value.NGSetupRequest = new(ngapType.NGSetupRequest)

	req := im.Value.NGSetupRequest
	ies := &req.ProtocolIEs

	ie := ngapType.NGSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDGlobalRANNodeID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupRequestIEsPresentGlobalRANNodeID
	ie.Value.GlobalRANNodeID = new(ngapType.GlobalRANNodeID)
	ie.Value.GlobalRANNodeID.Present = ngapType.GlobalRANNodeIDPresentGlobalGNBID
	ie.Value.GlobalRANNodeID.GlobalGNBID = new(ngapType.GlobalGNBID)
	ie.Value.GlobalRANNodeID.GlobalGNBID.PLMNIdentity.Value = plmnID.Value
	ie.Value.GlobalRANNodeID.GlobalGNBID.GNBID.Present = ngapType.GNBIDPresentGNBID
	ie.Value.GlobalRANNodeID.GlobalGNBID.GNBID.GNBID = &aper.BitString{
		Bytes:     gnbID,
		BitLength: uint64(len(gnbID) * 8),
	}
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANNodeName
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupRequestIEsPresentRANNodeName
	ie.Value.RANNodeName = new(ngapType.RANNodeName)
	ie.Value.RANNodeName.Value = gnbName
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDSupportedTAList
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupRequestIEsPresentSupportedTAList
	ie.Value.SupportedTAList = new(ngapType.SupportedTAList)

	taItem := ngapType.SupportedTAItem{}
	taItem.TAC.Value = tai.TAC.Value

	plmnItem := ngapType.BroadcastPLMNItem{}
	plmnItem.PLMNIdentity.Value = tai.PLMNIdentity.Value
	for _, snssai := range snssais {
		sliceItem := ngapType.SliceSupportItem{}
		sliceItem.SNSSAI.SST.Value = snssai.SST.Value
		if snssai.SD != nil {
			sliceItem.SNSSAI.SD = new(ngapType.SD)
			sliceItem.SNSSAI.SD.Value = snssai.SD.Value
		}
		plmnItem.TAISliceSupportList.List = append(plmnItem.TAISliceSupportList.List, sliceItem)
	}
	taItem.BroadcastPLMNList.List = append(taItem.BroadcastPLMNList.List, plmnItem)
	ie.Value.SupportedTAList.List = append(ie.Value.SupportedTAList.List, taItem)
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDDefaultPagingDRX
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupRequestIEsPresentDefaultPagingDRX
	ie.Value.DefaultPagingDRX = &pagingDrx
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeNgSetupRequest(gnbID []byte, gnbName string, plmnID ngapType.PLMNIdentity, tai ngapType.TAI, snssais []ngapType.SNSSAI, pagingDrx ngapType.PagingDRX) ([]byte, error) {
	return ngap.Encoder(buildNgSetupRequest(gnbID, gnbName, plmnID, tai, snssais, pagingDrx))
}

// buildInitialUEMessage carries a freshly-received RRC/NAS registration
// request up to the AMF, tagged with the newly-allocated ranUeNgapId.
func buildInitialUEMessage(ranUeNgapID int64, nasPdu []byte, tai ngapType.TAI, plmnID ngapType.PLMNIdentity) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	im := pdu.InitiatingMessage
	im.ProcedureCode.Value = ngapType.ProcedureCodeInitialUEMessage
	im.Criticality.Value = ngapType.CriticalityPresentIgnore
	im.Value.Present = ngapType.InitiatingMessagePresentInitialUEMessage
	im.Value.InitialUEMessage = new(ngapType.InitialUEMessage)

	msg := im.Value.InitialUEMessage
	ies := &msg.ProtocolIEs

	ie := ngapType.InitialUEMessageIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialUEMessageIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialUEMessageIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialUEMessageIEsPresentNASPDU
	ie.Value.NASPDU = new(ngapType.NASPDU)
	ie.Value.NASPDU.Value = nasPdu
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialUEMessageIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUserLocationInformation
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialUEMessageIEsPresentUserLocationInformation
	ie.Value.UserLocationInformation = new(ngapType.UserLocationInformation)
	ie.Value.UserLocationInformation.Present = ngapType.UserLocationInformationPresentUserLocationInformationNR
	ie.Value.UserLocationInformation.UserLocationInformationNR = new(ngapType.UserLocationInformationNR)
	ie.Value.UserLocationInformation.UserLocationInformationNR.TAI = tai
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialUEMessageIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRRCEstablishmentCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.InitialUEMessageIEsPresentRRCEstablishmentCause
	ie.Value.RRCEstablishmentCause = new(ngapType.RRCEstablishmentCause)
	ie.Value.RRCEstablishmentCause.Value = ngapType.RRCEstablishmentCausePresentMoSignalling
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeInitialUEMessage(ranUeNgapID int64, nasPdu []byte, tai ngapType.TAI, plmnID ngapType.PLMNIdentity) ([]byte, error) {
	return ngap.Encoder(buildInitialUEMessage(ranUeNgapID, nasPdu, tai, plmnID))
}

// buildUplinkNASTransport wraps a NAS PDU already associated with an
// established UE-associated signalling connection.
func buildUplinkNASTransport(amfUeNgapID, ranUeNgapID int64, nasPdu []byte, tai ngapType.TAI) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	im := pdu.InitiatingMessage
	im.ProcedureCode.Value = ngapType.ProcedureCodeUplinkNASTransport
	im.Criticality.Value = ngapType.CriticalityPresentIgnore
	im.Value.Present = ngapType.InitiatingMessagePresentUplinkNASTransport
	im.Value.UplinkNASTransport = new(ngapType.UplinkNASTransport)

	msg := im.Value.UplinkNASTransport
	ies := &msg.ProtocolIEs

	ie := ngapType.UplinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UplinkNASTransportIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = new(ngapType.AMFUENGAPID)
	ie.Value.AMFUENGAPID.Value = amfUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.UplinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UplinkNASTransportIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.UplinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UplinkNASTransportIEsPresentNASPDU
	ie.Value.NASPDU = new(ngapType.NASPDU)
	ie.Value.NASPDU.Value = nasPdu
	ies.List = append(ies.List, ie)

	ie = ngapType.UplinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUserLocationInformation
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UplinkNASTransportIEsPresentUserLocationInformation
	ie.Value.UserLocationInformation = new(ngapType.UserLocationInformation)
	ie.Value.UserLocationInformation.Present = ngapType.UserLocationInformationPresentUserLocationInformationNR
	ie.Value.UserLocationInformation.UserLocationInformationNR = new(ngapType.UserLocationInformationNR)
	ie.Value.UserLocationInformation.UserLocationInformationNR.TAI = tai
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeUplinkNASTransport(amfUeNgapID, ranUeNgapID int64, nasPdu []byte, tai ngapType.TAI) ([]byte, error) {
	return ngap.Encoder(buildUplinkNASTransport(amfUeNgapID, ranUeNgapID, nasPdu, tai))
}

// buildInitialContextSetupResponse confirms an Initial Context Setup
// Request; no PDU session list is populated, mirroring the teacher's
// bare-acknowledgement getNgapInitialContextSetupResponse contract.
func buildInitialContextSetupResponse(amfUeNgapID, ranUeNgapID int64) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	so := pdu.SuccessfulOutcome
	so.ProcedureCode.Value = ngapType.ProcedureCodeInitialContextSetup
	so.Criticality.Value = ngapType.CriticalityPresentReject
	so.Value.Present = ngapType.SuccessfulOutcomePresentInitialContextSetupResponse
	so.Value.InitialContextSetupResponse = new(ngapType.InitialContextSetupResponse)

	msg := so.Value.InitialContextSetupResponse
	ies := &msg.ProtocolIEs

	ie := ngapType.InitialContextSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.InitialContextSetupResponseIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = new(ngapType.AMFUENGAPID)
	ie.Value.AMFUENGAPID.Value = amfUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialContextSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.InitialContextSetupResponseIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeInitialContextSetupResponse(amfUeNgapID, ranUeNgapID int64) ([]byte, error) {
	return ngap.Encoder(buildInitialContextSetupResponse(amfUeNgapID, ranUeNgapID))
}

// buildPDUSessionResourceSetupResponseTransfer builds the DL transport
// layer information the AMF forwards to the UPF's N3 endpoint.
func buildPDUSessionResourceSetupResponseTransfer(dlTeid aper.OctetString, ranN3Ip string) ([]byte, error) {
	transfer := ngapType.PDUSessionResourceSetupResponseTransfer{}
	transfer.DLQosFlowPerTNLInformation.UPTransportLayerInformation.Present = ngapType.UPTransportLayerInformationPresentGTPTunnel
	transfer.DLQosFlowPerTNLInformation.UPTransportLayerInformation.GTPTunnel = new(ngapType.GTPTunnel)
	transfer.DLQosFlowPerTNLInformation.UPTransportLayerInformation.GTPTunnel.GTPTEID.Value = dlTeid
	transfer.DLQosFlowPerTNLInformation.UPTransportLayerInformation.GTPTunnel.TransportLayerAddress = ngapConvert.IPAddressToNgap(ranN3Ip, "")

	qosItem := ngapType.AssociatedQosFlowItem{}
	qosItem.QosFlowIdentifier.Value = 1
	transfer.DLQosFlowPerTNLInformation.AssociatedQosFlowList.List = append(transfer.DLQosFlowPerTNLInformation.AssociatedQosFlowList.List, qosItem)

	return aper.MarshalWithParams(transfer, "valueExt")
}

func buildPDUSessionResourceSetupResponse(amfUeNgapID, ranUeNgapID int64, psi int64, transfer []byte) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	so := pdu.SuccessfulOutcome
	so.ProcedureCode.Value = ngapType.ProcedureCodePDUSessionResourceSetup
	so.Criticality.Value = ngapType.CriticalityPresentReject
	so.Value.Present = ngapType.SuccessfulOutcomePresentPDUSessionResourceSetupResponse
	so.Value.PDUSessionResourceSetupResponse = new(ngapType.PDUSessionResourceSetupResponse)

	msg := so.Value.PDUSessionResourceSetupResponse
	ies := &msg.ProtocolIEs

	ie := ngapType.PDUSessionResourceSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.PDUSessionResourceSetupResponseIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = new(ngapType.AMFUENGAPID)
	ie.Value.AMFUENGAPID.Value = amfUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.PDUSessionResourceSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.PDUSessionResourceSetupResponseIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.PDUSessionResourceSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDPDUSessionResourceSetupListSURes
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PDUSessionResourceSetupResponseIEsPresentPDUSessionResourceSetupListSURes
	ie.Value.PDUSessionResourceSetupListSURes = new(ngapType.PDUSessionResourceSetupListSURes)

	item := ngapType.PDUSessionResourceSetupItemSURes{}
	item.PDUSessionID.Value = psi
	item.PDUSessionResourceSetupResponseTransfer = transfer
	ie.Value.PDUSessionResourceSetupListSURes.List = append(ie.Value.PDUSessionResourceSetupListSURes.List, item)
	ies.List = append(ies.List, ie)

	return pdu
}

func encodePDUSessionResourceSetupResponse(amfUeNgapID, ranUeNgapID, psi int64, dlTeid aper.OctetString, ranN3Ip string) ([]byte, error) {
	transfer, err := buildPDUSessionResourceSetupResponseTransfer(dlTeid, ranN3Ip)
	if err != nil {
		return nil, err
	}
	return ngap.Encoder(buildPDUSessionResourceSetupResponse(amfUeNgapID, ranUeNgapID, psi, transfer))
}

// buildUEContextReleaseComplete answers a UE Context Release Command,
// echoing the AMF and RAN UE NGAP IDs of the released context.
func buildUEContextReleaseComplete(amfUeNgapID, ranUeNgapID int64) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	so := pdu.SuccessfulOutcome
	so.ProcedureCode.Value = ngapType.ProcedureCodeUEContextRelease
	so.Criticality.Value = ngapType.CriticalityPresentReject
	so.Value.Present = ngapType.SuccessfulOutcomePresentUEContextReleaseComplete
	so.Value.UEContextReleaseComplete = new(ngapType.UEContextReleaseComplete)

	msg := so.Value.UEContextReleaseComplete
	ies := &msg.ProtocolIEs

	ie := ngapType.UEContextReleaseCompleteIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.UEContextReleaseCompleteIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = new(ngapType.AMFUENGAPID)
	ie.Value.AMFUENGAPID.Value = amfUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.UEContextReleaseCompleteIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.UEContextReleaseCompleteIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeUEContextReleaseComplete(amfUeNgapID, ranUeNgapID int64) ([]byte, error) {
	return ngap.Encoder(buildUEContextReleaseComplete(amfUeNgapID, ranUeNgapID))
}

// buildErrorIndication carries an out-of-band problem back to the AMF
// when a UE-associated procedure cannot be honoured.
func buildErrorIndication(amfUeNgapID, ranUeNgapID *int64, cause ngapType.Cause) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	im := pdu.InitiatingMessage
	im.ProcedureCode.Value = ngapType.ProcedureCodeErrorIndication
	im.Criticality.Value = ngapType.CriticalityPresentIgnore
	im.Value.Present = ngapType.InitiatingMessagePresentErrorIndication
	im.Value.ErrorIndication = new(ngapType.ErrorIndication)

	ies := &im.Value.ErrorIndication.ProtocolIEs
	if amfUeNgapID != nil {
		ie := ngapType.ErrorIndicationIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.ErrorIndicationIEsPresentAMFUENGAPID
		ie.Value.AMFUENGAPID = new(ngapType.AMFUENGAPID)
		ie.Value.AMFUENGAPID.Value = *amfUeNgapID
		ies.List = append(ies.List, ie)
	}
	if ranUeNgapID != nil {
		ie := ngapType.ErrorIndicationIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.ErrorIndicationIEsPresentRANUENGAPID
		ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
		ie.Value.RANUENGAPID.Value = *ranUeNgapID
		ies.List = append(ies.List, ie)
	}

	ie := ngapType.ErrorIndicationIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.ErrorIndicationIEsPresentCause
	ie.Value.Cause = &cause
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeErrorIndication(amfUeNgapID, ranUeNgapID *int64, cause ngapType.Cause) ([]byte, error) {
	return ngap.Encoder(buildErrorIndication(amfUeNgapID, ranUeNgapID, cause))
}

// buildNGResetAcknowledge acknowledges an NG Reset, listing the RAN UE
// NGAP IDs of the contexts actually released (every context of that AMF
// for a full reset); the list IE is omitted when it is empty.
func buildNGResetAcknowledge(ranUeNgapIDs []int64) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	so := pdu.SuccessfulOutcome
	so.ProcedureCode.Value = ngapType.ProcedureCodeNGReset
	so.Criticality.Value = ngapType.CriticalityPresentReject
	so.Value.Present = ngapType.SuccessfulOutcomePresentNGResetAcknowledge
	so.Value.NGResetAcknowledge = new(ngapType.NGResetAcknowledge)

	if len(ranUeNgapIDs) > 0 {
		ie := ngapType.NGResetAcknowledgeIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDUEAssociatedLogicalNGConnectionList
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.NGResetAcknowledgeIEsPresentUEAssociatedLogicalNGConnectionList
		ie.Value.UEAssociatedLogicalNGConnectionList = new(ngapType.UEAssociatedLogicalNGConnectionList)

		for _, ranUeID := range ranUeNgapIDs {
			item := ngapType.UEAssociatedLogicalNGConnectionItem{}
			item.RANUENGAPID = new(ngapType.RANUENGAPID)
			item.RANUENGAPID.Value = ranUeID
			ie.Value.UEAssociatedLogicalNGConnectionList.List = append(ie.Value.UEAssociatedLogicalNGConnectionList.List, item)
		}

		so.Value.NGResetAcknowledge.ProtocolIEs.List = append(so.Value.NGResetAcknowledge.ProtocolIEs.List, ie)
	}

	return pdu
}

func encodeNGResetAcknowledge(ranUeNgapIDs []int64) ([]byte, error) {
	return ngap.Encoder(buildNGResetAcknowledge(ranUeNgapIDs))
}

// buildPathSwitchRequest reports an Xn-based handover to the target AMF.
// UserLocationInformationNR is laid out the same way
// buildInitialUEMessage's already is, and the NR-CGI's cell identity is
// derived from the gNB's own ID the way GlobalGNBID.GNBID already is in
// buildNgSetupRequest, padded to the fixed 36-bit NRCellIdentity length.
// UE Security Capabilities are reported as "every algorithm supported"
// (all-ones bitstrings), since this simulator does not carry the
// negotiated algorithm set on the RAN side of a handover.
func buildPathSwitchRequest(amfUeNgapID, ranUeNgapID int64, gnbID []byte, plmnID ngapType.PLMNIdentity, tai ngapType.TAI) ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	im := pdu.InitiatingMessage
	im.ProcedureCode.Value = ngapType.ProcedureCodePathSwitchRequest
	im.Criticality.Value = ngapType.CriticalityPresentReject
	im.Value.Present = ngapType.InitiatingMessagePresentPathSwitchRequest
	im.Value.PathSwitchRequest = new(ngapType.PathSwitchRequest)

	msg := im.Value.PathSwitchRequest
	ies := &msg.ProtocolIEs

	ie := ngapType.PathSwitchRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PathSwitchRequestIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = new(ngapType.RANUENGAPID)
	ie.Value.RANUENGAPID.Value = ranUeNgapID
	ies.List = append(ies.List, ie)

	ie = ngapType.PathSwitchRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDSourceAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PathSwitchRequestIEsPresentSourceAMFUENGAPID
	ie.Value.SourceAMFUENGAPID = new(ngapType.AMFUENGAPID)
	ie.Value.SourceAMFUENGAPID.Value = amfUeNgapID
	ies.List = append(ies.List, ie)

	cellBytes := make([]byte, 5)
	copy(cellBytes, gnbID)

	ie = ngapType.PathSwitchRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUserLocationInformation
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PathSwitchRequestIEsPresentUserLocationInformation
	ie.Value.UserLocationInformation = new(ngapType.UserLocationInformation)
	ie.Value.UserLocationInformation.Present = ngapType.UserLocationInformationPresentUserLocationInformationNR
	ie.Value.UserLocationInformation.UserLocationInformationNR = new(ngapType.UserLocationInformationNR)
	ie.Value.UserLocationInformation.UserLocationInformationNR.NRCGI.PLMNIdentity.Value = plmnID.Value
	ie.Value.UserLocationInformation.UserLocationInformationNR.NRCGI.NRCellIdentity.Value = aper.BitString{
		Bytes:     cellBytes,
		BitLength: 36,
	}
	ie.Value.UserLocationInformation.UserLocationInformationNR.TAI = tai
	ie.Value.UserLocationInformation.UserLocationInformationNR.TimeStamp = new(ngapType.TimeStamp)
	ie.Value.UserLocationInformation.UserLocationInformationNR.TimeStamp.Value = ngapTimeStamp()
	ies.List = append(ies.List, ie)

	fullBitmap := aper.BitString{Bytes: []byte{0xFF, 0xFF}, BitLength: 16}
	secCap := ngapType.UESecurityCapabilities{}
	secCap.NRencryptionAlgorithms.Value = fullBitmap
	secCap.NRintegrityProtectionAlgorithms.Value = fullBitmap
	secCap.EUTRAencryptionAlgorithms.Value = fullBitmap
	secCap.EUTRAintegrityProtectionAlgorithms.Value = fullBitmap

	ie = ngapType.PathSwitchRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUESecurityCapabilities
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.PathSwitchRequestIEsPresentUESecurityCapabilities
	ie.Value.UESecurityCapabilities = &secCap
	ies.List = append(ies.List, ie)

	return pdu
}

// encodePathSwitchRequest is where constraint validation actually
// happens: aper.MarshalWithParams (invoked by ngap.Encoder) checks every
// SIZE/range constraint on the way to wire bytes, so a caller that
// treats a non-nil error as "drop and log" is already doing the
// constraint check the procedure requires.
func encodePathSwitchRequest(amfUeNgapID, ranUeNgapID int64, gnbID []byte, plmnID ngapType.PLMNIdentity, tai ngapType.TAI) ([]byte, error) {
	return ngap.Encoder(buildPathSwitchRequest(amfUeNgapID, ranUeNgapID, gnbID, plmnID, tai))
}

// buildAMFConfigurationUpdateAcknowledge confirms an AMF Configuration
// Update that carried no TNL association changes, with an empty
// TNLAssociationSetupList since this gNB has nothing to set up.
func buildAMFConfigurationUpdateAcknowledge() ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	so := pdu.SuccessfulOutcome
	so.ProcedureCode.Value = ngapType.ProcedureCodeAMFConfigurationUpdate
	so.Criticality.Value = ngapType.CriticalityPresentReject
	so.Value.Present = ngapType.SuccessfulOutcomePresentAMFConfigurationUpdateAcknowledge
	so.Value.AMFConfigurationUpdateAcknowledge = new(ngapType.AMFConfigurationUpdateAcknowledge)

	msg := so.Value.AMFConfigurationUpdateAcknowledge
	ies := &msg.ProtocolIEs

	ie := ngapType.AMFConfigurationUpdateAcknowledgeIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDTNLAssociationSetupList
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.AMFConfigurationUpdateAcknowledgeIEsPresentTNLAssociationSetupList
	ie.Value.TNLAssociationSetupList = new(ngapType.TNLAssociationSetupList)
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeAMFConfigurationUpdateAcknowledge() ([]byte, error) {
	return ngap.Encoder(buildAMFConfigurationUpdateAcknowledge())
}

// buildAMFConfigurationUpdateFailure rejects an AMF Configuration Update
// that tried to change this gNB's TNL associations, which this
// simulator never renegotiates mid-session.
func buildAMFConfigurationUpdateFailure() ngapType.NGAPPDU {
	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentUnsuccessfulOutcome
	pdu.UnsuccessfulOutcome = new(ngapType.UnsuccessfulOutcome)

	uo := pdu.UnsuccessfulOutcome
	uo.ProcedureCode.Value = ngapType.ProcedureCodeAMFConfigurationUpdate
	uo.Criticality.Value = ngapType.CriticalityPresentReject
	uo.Value.Present = ngapType.UnsuccessfulOutcomePresentAMFConfigurationUpdateFailure
	uo.Value.AMFConfigurationUpdateFailure = new(ngapType.AMFConfigurationUpdateFailure)

	msg := uo.Value.AMFConfigurationUpdateFailure
	ies := &msg.ProtocolIEs

	cause := ngapType.Cause{Present: ngapType.CausePresentTransport}
	cause.Transport = new(ngapType.CauseTransport)
	cause.Transport.Value = ngapType.CauseTransportPresentUnspecified

	ie := ngapType.AMFConfigurationUpdateFailureIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.AMFConfigurationUpdateFailureIEsPresentCause
	ie.Value.Cause = &cause
	ies.List = append(ies.List, ie)

	return pdu
}

func encodeAMFConfigurationUpdateFailure() ([]byte, error) {
	return ngap.Encoder(buildAMFConfigurationUpdateFailure())
}
