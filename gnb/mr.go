package gnb

import (
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
)

// MrTask is the gNB's media relay: it routes payloads the GTP task
// decapsulated from N3 to the UE bound to that TEID, and hands a UE's
// uplink frames to the GTP task with the UE's TEID for encapsulation
// toward the UPF. Adapted from the teacher's inline forwarding calls
// in gnb.go's processUeInitialization/N3 handling.
type MrTask struct {
	task.Base

	gtp task.Task
	rrc task.Task
	log loggergoModel.LoggerInterface

	// teidByUe/ueByTeid maps a UE's PDU session to the hex TEID the gNB
	// allocated for its N3 tunnel, so a downlink N3 packet arriving on
	// that TEID can be routed back to the right Uu connection and an
	// uplink frame from the UE can be encapsulated with the right TEID.
	teidByUe map[int]string
	ueByTeid map[string]int
}

func NewMrTask(gtp task.Task, log loggergoModel.LoggerInterface) *MrTask {
	return &MrTask{
		Base:     task.NewBase(64),
		gtp:      gtp,
		log:      log,
		teidByUe: make(map[int]string),
		ueByTeid: make(map[string]int),
	}
}

func (m *MrTask) Run() {
	go m.Base.Run(m.handle, func() {})
}

// SetRrc wires the RRC task once the Uu listener is available, mirroring
// NgapTask.SetRrc/SetApp's late-binding pattern in gnb.go's construction
// order.
func (m *MrTask) SetRrc(rrc task.Task) { m.rrc = rrc }

func (m *MrTask) BindUeTeid(ueID int, teid string) {
	m.teidByUe[ueID] = teid
	m.ueByTeid[teid] = ueID
}

func (m *MrTask) handle(msg any) {
	switch v := msg.(type) {
	case message.BindUeTeidCmd:
		m.BindUeTeid(v.UeID, v.Teid)
	case message.GtpUplinkPdu:
		ueID, ok := m.ueByTeid[v.Teid]
		if !ok {
			m.log.Warnf("downlink N3 PDU on unbound teid %s", v.Teid)
			return
		}
		if m.rrc == nil {
			m.log.Warnf("downlink N3 PDU for ue %d with no Uu listener wired", ueID)
			return
		}
		m.rrc.Push(message.MrDownlinkUserData{UeID: ueID, Payload: v.Payload})
	case message.MrUplinkUserData:
		teid, ok := m.teidByUe[v.UeID]
		if !ok {
			m.log.Warnf("MrUplinkUserData for unbound ue %d", v.UeID)
			return
		}
		m.gtp.Push(message.GtpDownlinkPdu{Teid: teid, Payload: v.Payload})
	}
}
