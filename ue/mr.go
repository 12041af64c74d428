package ue

import (
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
)

// MrTask is the UE's stub media relay: it tags/untags user-plane frames
// with their PSI so App and RRC never need to agree on framing
// themselves, per the "stub MR protocol...tagged with PSI" boundary of
// spec.md §6.
type MrTask struct {
	task.Base

	log loggergoModel.LoggerInterface

	rrc task.Task
	app task.Task
}

func NewMrTask(log loggergoModel.LoggerInterface) *MrTask {
	return &MrTask{
		Base: task.NewBase(256),
		log:  log,
	}
}

func (m *MrTask) SetRrc(rrc task.Task) { m.rrc = rrc }
func (m *MrTask) SetApp(app task.Task) { m.app = app }

func (m *MrTask) Run() {
	go m.Base.Run(m.handle, func() {})
}

func (m *MrTask) handle(msg any) {
	switch v := msg.(type) {
	case message.AppToMrData:
		if v.Psi < 0 || v.Psi > 255 || m.rrc == nil {
			return
		}
		frame := append([]byte{byte(v.Psi)}, v.Data...)
		m.rrc.Push(message.MrUplinkUserData{Payload: frame})
	case message.MrDownlinkUserData:
		if len(v.Payload) < 1 || m.app == nil {
			m.log.Warnln("dropping malformed downlink user-plane frame")
			return
		}
		m.app.Push(message.MrToAppData{Psi: int(v.Payload[0]), Data: v.Payload[1:]})
	}
}
