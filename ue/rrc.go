package ue

import (
	"net"
	"strconv"
	"sync"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

// Frame type tags, mirroring gnb/rrc.go's frameType* constants so both
// ends of the Uu socket agree on the wire framing.
const (
	frameTypeNasDelivery byte = iota
	frameTypeReconfiguration
	frameTypeRelease
	frameTypePaging
	frameTypeUserData
)

// RrcTask is the UE's client side of the Uu link: it dials the gNB's RRC
// listener once and multiplexes NAS carriage and user-plane frames over
// the one connection, symmetric with gnb/rrc.go's server side.
type RrcTask struct {
	task.Base

	ranIp   string
	ranPort int
	log     loggergoModel.LoggerInterface

	nas task.Task
	mr  task.Task

	mtx  sync.Mutex
	conn net.Conn
}

func NewRrcTask(ranIp string, ranPort int, nas task.Task, log loggergoModel.LoggerInterface) *RrcTask {
	return &RrcTask{
		Base:    task.NewBase(128),
		ranIp:   ranIp,
		ranPort: ranPort,
		nas:     nas,
		log:     log,
	}
}

func (r *RrcTask) SetMr(mr task.Task) { r.mr = mr }

func (r *RrcTask) Run() {
	go r.Base.Run(r.handle, r.onQuit)
}

// Connect dials the gNB's Uu listener and starts the receive loop,
// mirroring the teacher's ue.go dial-once-at-boot connection model.
func (r *RrcTask) Connect() error {
	conn, err := net.Dial("tcp", net.JoinHostPort(r.ranIp, strconv.Itoa(r.ranPort)))
	if err != nil {
		return err
	}

	r.mtx.Lock()
	r.conn = conn
	r.mtx.Unlock()

	go r.receiveLoop(conn)
	r.log.Infof("connected to gNB Uu at %s:%d", r.ranIp, r.ranPort)
	return nil
}

func (r *RrcTask) receiveLoop(conn net.Conn) {
	for {
		typ, payload, err := util.ReadFrame(conn)
		if err != nil {
			r.log.Debugf("Uu connection closed: %v", err)
			return
		}
		switch typ {
		case frameTypeNasDelivery, frameTypeReconfiguration:
			r.nas.Push(message.DownlinkNasDelivery{Pdu: payload})
		case frameTypeRelease:
			r.log.Infoln("received RRC release")
		case frameTypePaging:
			r.log.Infoln("received RRC paging")
		case frameTypeUserData:
			if r.mr != nil {
				r.mr.Push(message.MrDownlinkUserData{Payload: payload})
			}
		}
	}
}

func (r *RrcTask) handle(msg any) {
	switch m := msg.(type) {
	case message.UplinkNasRequest:
		r.sendFrame(frameTypeNasDelivery, m.Pdu)
	case message.PlmnSearchRequest:
		// Stub air interface: PLMN search has no wire representation on
		// the UE side beyond driving the MM cycle that requested it.
	case message.MrUplinkUserData:
		r.sendFrame(frameTypeUserData, m.Payload)
	}
}

func (r *RrcTask) sendFrame(typ byte, payload []byte) {
	r.mtx.Lock()
	conn := r.conn
	r.mtx.Unlock()
	if conn == nil {
		r.log.Warnln("no Uu connection, dropping frame")
		return
	}
	if err := util.WriteFrame(conn, typ, payload); err != nil {
		r.log.Errorf("error writing frame: %v", err)
	}
}

func (r *RrcTask) onQuit() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.conn != nil {
		r.conn.Close()
	}
}
