package gnb

import (
	"encoding/hex"

	"github.com/free5gc/ngap"
	"github.com/free5gc/ngap/ngapType"
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

// NgapTask owns every AMF association and every gNB-side UE context. It
// is the sole writer of AmfTable/UeTable, matching invariant I1 from the
// data model: everything else reaches these tables only via messages.
// Adapted from the teacher's sequential gnb.go/ngap.go flow, restructured
// as a mailbox-driven task per the redesigned concurrency model.
type NgapTask struct {
	task.Base

	cfg *model.GnbIE
	log loggergoModel.LoggerInterface

	sctp task.Task
	rrc  task.Task
	app  task.Task
	mr   task.Task

	amfs     *AmfTable
	ues      *UeTable
	ranUeIDs *RanUeIDGenerator
	teids    *TeidGenerator

	gnbID  []byte
	plmnID ngapType.PLMNIdentity
	tai    ngapType.TAI

	upFlag bool
}

func NewNgapTask(cfg *model.GnbIE, gnbID []byte, plmnID ngapType.PLMNIdentity, tai ngapType.TAI, sctp task.Task, log loggergoModel.LoggerInterface) *NgapTask {
	return &NgapTask{
		Base:     task.NewBase(128),
		teids:    NewTeidGenerator(),
		cfg:      cfg,
		log:      log,
		sctp:     sctp,
		amfs:     NewAmfTable(),
		ues:      NewUeTable(),
		ranUeIDs: NewRanUeIDGenerator(),
		gnbID:    gnbID,
		plmnID:   plmnID,
		tai:      tai,
	}
}

func (n *NgapTask) SetRrc(rrc task.Task) { n.rrc = rrc }
func (n *NgapTask) SetApp(app task.Task) { n.app = app }
func (n *NgapTask) SetMr(mr task.Task)   { n.mr = mr }

func (n *NgapTask) Run() {
	go n.Base.Run(n.handle, func() {})
}

// StartAssociations builds the initial AMF table, one NOT_CONNECTED entry
// per configured peer; the SCTP dial itself is issued by Gnb.Start.
func (n *NgapTask) StartAssociations() {
	for _, amfCfg := range n.cfg.AmfConfigs {
		n.amfs.Add(&AmfContext{AmfID: amfCfg.AmfId, Ip: amfCfg.Ip, Port: amfCfg.Port, State: AmfNotConnected})
	}
}

func (n *NgapTask) handle(msg any) {
	switch m := msg.(type) {
	case message.SctpAssociationUp:
		n.onAssociationUp(m)
	case message.SctpAssociationDown:
		n.onAssociationDown(m)
	case message.SctpDataInd:
		n.onData(m)
	case message.UplinkNasDelivery:
		n.onUplinkNas(m)
	case message.RadioLinkFailure:
		n.onRadioLinkFailure(m)
	case message.NgapHandoverPrepareCmd:
		n.handoverPreparation(m.UeID)
	case message.NgapHandoverCmd:
		n.handleXnHandover(m.AsAmfID, m.AmfUeNgapID, m.RanUeNgapID, m.CtxtID, m.UplinkStream, m.AmfName)
	}
}

func (n *NgapTask) onAssociationUp(m message.SctpAssociationUp) {
	amf, ok := n.amfs.Get(m.AmfID)
	if !ok {
		n.log.Warnf("SctpAssociationUp for unconfigured amf %d", m.AmfID)
		return
	}
	amf.InStreams, amf.OutStreams = m.InStreams, m.OutStreams
	amf.State = AmfWaitingNgSetup

	var snssais []ngapType.SNSSAI
	for _, s := range n.cfg.Nssais {
		snssai, err := util.SNssaiToNgap(s.Sst, s.Sd)
		if err != nil {
			n.log.Warnf("skipping invalid nssai %+v: %v", s, err)
			continue
		}
		snssais = append(snssais, snssai)
	}

	req, err := encodeNgSetupRequest(n.gnbID, n.cfg.GnbName, n.plmnID, n.tai, snssais, pagingDrxFromString(n.cfg.PagingDrx))
	if err != nil {
		n.log.Errorf("Error encoding NG Setup Request for amf %d: %v", m.AmfID, err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: m.AmfID, Stream: 0, Data: req})
}

func (n *NgapTask) onAssociationDown(m message.SctpAssociationDown) {
	if amf, ok := n.amfs.Get(m.AmfID); ok {
		amf.State = AmfNotConnected
	}
	for _, ctx := range n.ues.AllForAmf(m.AmfID) {
		n.ues.Remove(ctx.UeID)
		n.ranUeIDs.Release(ctx.RanUeNgapID)
	}
}

func (n *NgapTask) onData(m message.SctpDataInd) {
	pdu, err := ngap.Decoder(m.Data)
	if err != nil {
		n.log.Warnf("Error decoding NGAP PDU from amf %d: %v", m.AmfID, err)
		return
	}

	switch pdu.Present {
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		n.handleSuccessfulOutcome(m.AmfID, pdu.SuccessfulOutcome)
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		n.handleUnsuccessfulOutcome(m.AmfID, pdu.UnsuccessfulOutcome)
	case ngapType.NGAPPDUPresentInitiatingMessage:
		n.handleInitiatingMessage(m.AmfID, pdu.InitiatingMessage)
	}
}

func (n *NgapTask) handleSuccessfulOutcome(amfID int, so *ngapType.SuccessfulOutcome) {
	switch so.ProcedureCode.Value {
	case ngapType.ProcedureCodeNGSetup:
		amf, ok := n.amfs.Get(amfID)
		if !ok {
			return
		}
		amf.State = AmfConnected
		n.applyNgSetupResponse(amf, so.Value.NGSetupResponse)
		n.log.Infof("NG Setup succeeded with amf %d (%s)", amfID, amf.AmfName)
		if n.amfs.AllConnected() && !n.upFlag {
			n.upFlag = true
			if n.app != nil {
				n.app.Push(message.NgapIsUp{})
			}
			if n.rrc != nil {
				n.rrc.Push(message.NgapLayerInitialized{})
			}
		}
	}
}

// applyNgSetupResponse stores the AMF's advertised identity into its
// context, following the same "range the IE list, switch on Id.Value"
// shape onDownlinkNasTransport and its neighbours already use.
func (n *NgapTask) applyNgSetupResponse(amf *AmfContext, resp *ngapType.NGSetupResponse) {
	if resp == nil {
		return
	}
	for _, ie := range resp.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFName:
			if ie.Value.AMFName != nil {
				amf.AmfName = ie.Value.AMFName.Value
			}
		case ngapType.ProtocolIEIDRelativeAMFCapacity:
			if ie.Value.RelativeAMFCapacity != nil {
				amf.RelativeCapacity = ie.Value.RelativeAMFCapacity.Value
			}
		case ngapType.ProtocolIEIDServedGUAMIList:
			if ie.Value.ServedGUAMIList != nil {
				amf.ServedGuamiList = ie.Value.ServedGUAMIList.List
			}
		case ngapType.ProtocolIEIDPLMNSupportList:
			if ie.Value.PLMNSupportList != nil {
				amf.PlmnSupportList = ie.Value.PLMNSupportList.List
			}
		}
	}
}

func (n *NgapTask) handleUnsuccessfulOutcome(amfID int, uo *ngapType.UnsuccessfulOutcome) {
	switch uo.ProcedureCode.Value {
	case ngapType.ProcedureCodeNGSetup:
		n.log.Errorf("NG Setup rejected by amf %d", amfID)
	}
}

func (n *NgapTask) handleInitiatingMessage(amfID int, im *ngapType.InitiatingMessage) {
	switch im.ProcedureCode.Value {
	case ngapType.ProcedureCodeDownlinkNASTransport:
		n.onDownlinkNasTransport(amfID, im.Value.DownlinkNASTransport)
	case ngapType.ProcedureCodeInitialContextSetup:
		n.onInitialContextSetupRequest(amfID, im.Value.InitialContextSetupRequest)
	case ngapType.ProcedureCodeUEContextRelease:
		n.onUeContextReleaseCommand(amfID, im.Value.UEContextReleaseCommand)
	case ngapType.ProcedureCodePDUSessionResourceSetup:
		n.onPduSessionResourceSetupRequest(amfID, im.Value.PDUSessionResourceSetupRequest)
	case ngapType.ProcedureCodeAMFConfigurationUpdate:
		n.onAmfConfigurationUpdate(amfID, im.Value.AMFConfigurationUpdate)
	case ngapType.ProcedureCodeOverloadStart:
		n.onOverloadStart(amfID, im.Value.OverloadStart)
	case ngapType.ProcedureCodeOverloadStop:
		n.onOverloadStop(amfID)
	case ngapType.ProcedureCodeNGReset:
		n.handleNgReset(amfID, im.Value.NGReset)
	case ngapType.ProcedureCodeErrorIndication:
		n.log.Warnf("Received NGAP Error Indication from amf %d", amfID)
	}
}

func (n *NgapTask) onDownlinkNasTransport(amfID int, dl *ngapType.DownlinkNASTransport) {
	if dl == nil {
		return
	}
	var amfUeID, ranUeID int64
	var nasPdu []byte
	for _, ie := range dl.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			amfUeID = ie.Value.AMFUENGAPID.Value
		case ngapType.ProtocolIEIDRANUENGAPID:
			ranUeID = ie.Value.RANUENGAPID.Value
		case ngapType.ProtocolIEIDNASPDU:
			if ie.Value.NASPDU != nil {
				nasPdu = ie.Value.NASPDU.Value
			}
		}
	}

	ctx, ok := n.ues.GetByRanUeID(ranUeID)
	if !ok {
		n.log.Warnf("DownlinkNASTransport for unknown ranUeId %d", ranUeID)
		return
	}
	ctx.AmfUeNgapID = amfUeID

	if n.rrc != nil {
		n.rrc.Push(message.DownlinkNasDelivery{UeID: ctx.UeID, Pdu: nasPdu})
	}
}

func (n *NgapTask) onInitialContextSetupRequest(amfID int, req *ngapType.InitialContextSetupRequest) {
	if req == nil {
		return
	}
	var amfUeID, ranUeID int64
	for _, ie := range req.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			amfUeID = ie.Value.AMFUENGAPID.Value
		case ngapType.ProtocolIEIDRANUENGAPID:
			ranUeID = ie.Value.RANUENGAPID.Value
		}
	}

	ctx, ok := n.ues.GetByRanUeID(ranUeID)
	if !ok {
		n.log.Warnf("InitialContextSetupRequest for unknown ranUeId %d", ranUeID)
		return
	}
	ctx.AmfUeNgapID = amfUeID

	resp, err := encodeInitialContextSetupResponse(amfUeID, ranUeID)
	if err != nil {
		n.log.Errorf("Error encoding InitialContextSetupResponse: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: amfID, Stream: ctx.UplinkStream, Data: resp})
}

func (n *NgapTask) onUeContextReleaseCommand(amfID int, cmd *ngapType.UEContextReleaseCommand) {
	if cmd == nil {
		return
	}
	var amfUeID, ranUeID int64
	for _, ie := range cmd.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			if ie.Value.UENGAPIDs != nil && ie.Value.UENGAPIDs.Present == ngapType.UENGAPIDsPresentUENGAPIDPair {
				amfUeID = ie.Value.UENGAPIDs.UENGAPIDPair.AMFUENGAPID.Value
				ranUeID = ie.Value.UENGAPIDs.UENGAPIDPair.RANUENGAPID.Value
			}
		}
	}

	ctx, ok := n.ues.GetByRanUeID(ranUeID)
	if ok {
		n.ues.Remove(ctx.UeID)
		n.ranUeIDs.Release(ctx.RanUeNgapID)
		if n.rrc != nil {
			n.rrc.Push(message.RrcRelease{UeID: ctx.UeID})
		}
	}

	resp, err := encodeUEContextReleaseComplete(amfUeID, ranUeID)
	if err != nil {
		n.log.Errorf("Error encoding UEContextReleaseComplete: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: amfID, Stream: 0, Data: resp})
}

// onPduSessionResourceSetupRequest allocates a fresh DL TEID for the
// requested session and answers with the transport-layer information
// the AMF forwards to the UPF, mirroring the teacher's
// getPduSessionResourceSetupResponseTransfer/getPduSessionResourceSetupResponse
// call sequence in gnb.go's processUePduSessionEstablishment.
func (n *NgapTask) onPduSessionResourceSetupRequest(amfID int, req *ngapType.PDUSessionResourceSetupRequest) {
	if req == nil {
		return
	}
	var amfUeID, ranUeID int64
	var psi int64 = -1
	for _, ie := range req.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			amfUeID = ie.Value.AMFUENGAPID.Value
		case ngapType.ProtocolIEIDRANUENGAPID:
			ranUeID = ie.Value.RANUENGAPID.Value
		case ngapType.ProtocolIEIDPDUSessionResourceSetupListSUReq:
			if ie.Value.PDUSessionResourceSetupListSUReq != nil && len(ie.Value.PDUSessionResourceSetupListSUReq.List) > 0 {
				psi = ie.Value.PDUSessionResourceSetupListSUReq.List[0].PDUSessionID.Value
			}
		}
	}
	if psi < 0 {
		n.log.Warnf("PDUSessionResourceSetupRequest with no session item")
		return
	}

	ctx, ok := n.ues.GetByRanUeID(ranUeID)
	if !ok {
		n.log.Warnf("PDUSessionResourceSetupRequest for unknown ranUeId %d", ranUeID)
		return
	}

	dlTeid := n.teids.Allocate()
	resp, err := encodePDUSessionResourceSetupResponse(amfUeID, ranUeID, psi, dlTeid, n.cfg.RanN3Ip)
	if err != nil {
		n.log.Errorf("Error encoding PDUSessionResourceSetupResponse: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: amfID, Stream: ctx.UplinkStream, Data: resp})

	if n.mr != nil {
		n.mr.Push(message.BindUeTeidCmd{UeID: ctx.UeID, Teid: hex.EncodeToString(dlTeid)})
	}
}

// onAmfConfigurationUpdate rejects any attempt to add, remove or update
// this gNB's TNL associations (this simulator carries exactly one N2
// endpoint per AMF, fixed at startup) and otherwise re-acknowledges the
// current, unchanged configuration.
func (n *NgapTask) onAmfConfigurationUpdate(amfID int, upd *ngapType.AMFConfigurationUpdate) {
	if upd == nil {
		return
	}

	var tnlChanged bool
	for _, ie := range upd.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFTNLAssociationToAddList:
			if ie.Value.AMFTNLAssociationToAddList != nil && len(ie.Value.AMFTNLAssociationToAddList.List) > 0 {
				tnlChanged = true
			}
		case ngapType.ProtocolIEIDAMFTNLAssociationToRemoveList:
			if ie.Value.AMFTNLAssociationToRemoveList != nil && len(ie.Value.AMFTNLAssociationToRemoveList.List) > 0 {
				tnlChanged = true
			}
		case ngapType.ProtocolIEIDAMFTNLAssociationToUpdateList:
			if ie.Value.AMFTNLAssociationToUpdateList != nil && len(ie.Value.AMFTNLAssociationToUpdateList.List) > 0 {
				tnlChanged = true
			}
		}
	}

	var pdu []byte
	var err error
	if tnlChanged {
		n.log.Warnf("Rejecting AMF Configuration Update from amf %d: TNL association changes unsupported", amfID)
		pdu, err = encodeAMFConfigurationUpdateFailure()
	} else {
		n.log.Debugf("Acknowledging AMF Configuration Update from amf %d", amfID)
		pdu, err = encodeAMFConfigurationUpdateAcknowledge()
	}
	if err != nil {
		n.log.Errorf("Error encoding AMF Configuration Update response for amf %d: %v", amfID, err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: amfID, Stream: 0, Data: pdu})
}

// onOverloadStart records the requested overload action, load reduction
// percentage and, if present, the set of slices it applies to.
func (n *NgapTask) onOverloadStart(amfID int, ov *ngapType.OverloadStart) {
	amf, ok := n.amfs.Get(amfID)
	if !ok || ov == nil {
		return
	}
	amf.Overload.Active = true

	for _, ie := range ov.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFOverloadResponse:
			if ie.Value.AMFOverloadResponse != nil {
				amf.Overload.Action = OverloadAction(ie.Value.AMFOverloadResponse.OverloadAction.Value)
			}
		case ngapType.ProtocolIEIDOverloadStartNSSAIList:
			if ie.Value.OverloadStartNSSAIList != nil {
				var nssais []ngapType.SNSSAI
				for _, item := range ie.Value.OverloadStartNSSAIList.List {
					for _, slice := range item.SliceOverloadList.List {
						nssais = append(nssais, slice.SNSSAI)
					}
				}
				amf.Overload.NssaiList = nssais
			}
		case ngapType.ProtocolIEIDTrafficLoadReductionIndication:
			if ie.Value.TrafficLoadReductionIndication != nil {
				amf.Overload.ReductionPercent = int(ie.Value.TrafficLoadReductionIndication.Value)
			}
		}
	}

	n.log.Warnf("Overload Start received from amf %d: action=%d reduction=%d%%", amfID, amf.Overload.Action, amf.Overload.ReductionPercent)
}

func (n *NgapTask) onOverloadStop(amfID int) {
	if amf, ok := n.amfs.Get(amfID); ok {
		amf.Overload = OverloadInfo{}
	}
	n.log.Infof("Overload Stop received from amf %d", amfID)
}

func (n *NgapTask) onUplinkNas(m message.UplinkNasDelivery) {
	ctx, ok := n.ues.Get(m.UeID)
	if !ok {
		n.log.Warnf("UplinkNasDelivery for unknown ueId %d", m.UeID)
		return
	}

	if ctx.AmfUeNgapID == 0 && ctx.AmfID == 0 {
		n.initialAccess(ctx, m.Pdu)
		return
	}

	pdu, err := encodeUplinkNASTransport(ctx.AmfUeNgapID, ctx.RanUeNgapID, m.Pdu, ctx.Tai)
	if err != nil {
		n.log.Errorf("Error encoding UplinkNASTransport: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: ctx.AmfID, Stream: ctx.UplinkStream, Data: pdu})
}

// initialAccess allocates a fresh UE context and forwards the first NAS
// message up via Initial UE Message, choosing the first connected AMF.
func (n *NgapTask) initialAccess(ctx *UeContext, nasPdu []byte) {
	var chosen *AmfContext
	for _, amf := range n.amfs.All() {
		if amf.State == AmfConnected {
			chosen = amf
			break
		}
	}
	if chosen == nil {
		n.log.Warnf("No connected AMF for initial access of ue %d", ctx.UeID)
		return
	}

	ctx.AmfID = chosen.AmfID
	ctx.RanUeNgapID = n.ranUeIDs.Allocate()
	n.ues.New(ctx)

	pdu, err := encodeInitialUEMessage(ctx.RanUeNgapID, nasPdu, n.tai, n.plmnID)
	if err != nil {
		n.log.Errorf("Error encoding InitialUEMessage: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: chosen.AmfID, Stream: 0, Data: pdu})
}

func (n *NgapTask) onRadioLinkFailure(m message.RadioLinkFailure) {
	ctx, ok := n.ues.Get(m.UeID)
	if !ok {
		return
	}
	cause := ngapType.Cause{Present: ngapType.CausePresentRadioNetwork}
	cause.RadioNetwork = new(ngapType.CauseRadioNetwork)
	cause.RadioNetwork.Value = ngapType.CauseRadioNetworkPresentRadioConnectionWithUeLost

	pdu, err := encodeErrorIndication(&ctx.AmfUeNgapID, &ctx.RanUeNgapID, cause)
	if err != nil {
		n.log.Errorf("Error encoding ErrorIndication: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: ctx.AmfID, Stream: ctx.UplinkStream, Data: pdu})

	n.ues.Remove(ctx.UeID)
	n.ranUeIDs.Release(ctx.RanUeNgapID)
}

// handleNgReset supplements the distilled procedure list with the
// original gNB's NGReset handling, per SPEC_FULL.md §6.3.
func (n *NgapTask) handleNgReset(amfID int, reset *ngapType.NGReset) {
	if reset == nil {
		return
	}

	var targeted []int64
	full := true
	for _, ie := range reset.ProtocolIEs.List {
		if ie.Id.Value == ngapType.ProtocolIEIDUEAssociatedLogicalNGConnectionList && ie.Value.UEAssociatedLogicalNGConnectionList != nil {
			full = false
			for _, item := range ie.Value.UEAssociatedLogicalNGConnectionList.List {
				if item.RANUENGAPID != nil {
					targeted = append(targeted, item.RANUENGAPID.Value)
				}
			}
		}
	}

	var released []int64
	if full {
		for _, ctx := range n.ues.AllForAmf(amfID) {
			released = append(released, ctx.RanUeNgapID)
			n.ues.Remove(ctx.UeID)
			n.ranUeIDs.Release(ctx.RanUeNgapID)
		}
	} else {
		for _, ranUeID := range targeted {
			if ctx, ok := n.ues.GetByRanUeID(ranUeID); ok {
				released = append(released, ranUeID)
				n.ues.Remove(ctx.UeID)
				n.ranUeIDs.Release(ctx.RanUeNgapID)
			}
		}
	}

	ack, err := encodeNGResetAcknowledge(released)
	if err != nil {
		n.log.Errorf("Error encoding NGResetAcknowledge: %v", err)
		return
	}
	n.sctp.Push(message.SctpDataReq{AmfID: amfID, Stream: 0, Data: ack})
}

func pagingDrxFromString(s string) ngapType.PagingDRX {
	drx := ngapType.PagingDRX{}
	switch s {
	case "v32":
		drx.Value = ngapType.PagingDRXPresentV32
	case "v64":
		drx.Value = ngapType.PagingDRXPresentV64
	case "v256":
		drx.Value = ngapType.PagingDRXPresentV256
	default:
		drx.Value = ngapType.PagingDRXPresentV128
	}
	return drx
}
