package gnb

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"sync"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

// Frame type tags multiplexed over the Uu socket, mirroring the
// teacher's raw net.Conn NAS shuttling in gnb.go's processUeInitialization
// but generalised to also carry the RRC procedures of spec.md §4.3.
const (
	frameTypeNasDelivery byte = iota
	frameTypeReconfiguration
	frameTypeRelease
	frameTypePaging
	frameTypeUserData
)

// RrcTask owns the Uu listener and one connection per attached UE. It
// never touches NGAP or AMF state directly; every NAS PDU it receives
// crosses to NgapTask as a message, and every downlink PDU arrives the
// same way.
type RrcTask struct {
	task.Base

	ranIp   string
	ranPort int
	log     loggergoModel.LoggerInterface

	ngap task.Task
	mr   task.Task

	listener net.Listener

	mtx      sync.Mutex
	connByUe map[int]net.Conn
	ueByConn map[net.Conn]int
	nextUeID int
}

func NewRrcTask(ranIp string, ranPort int, ngap task.Task, log loggergoModel.LoggerInterface) *RrcTask {
	return &RrcTask{
		Base:     task.NewBase(128),
		ranIp:    ranIp,
		ranPort:  ranPort,
		ngap:     ngap,
		log:      log,
		connByUe: make(map[int]net.Conn),
		ueByConn: make(map[net.Conn]int),
	}
}

func (r *RrcTask) Run() {
	go r.Base.Run(r.handle, r.onQuit)
}

// SetMr wires the MR task once a UPF connection exists, so uplink
// user-plane frames arriving over Uu can be forwarded to it.
func (r *RrcTask) SetMr(mr task.Task) { r.mr = mr }

func (r *RrcTask) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(r.ranIp, strconv.Itoa(r.ranPort)))
	if err != nil {
		return err
	}
	r.listener = listener
	r.log.Infof("RRC listener started on %s:%d", r.ranIp, r.ranPort)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go r.serveConn(conn)
		}
	}()
	return nil
}

func (r *RrcTask) serveConn(conn net.Conn) {
	r.mtx.Lock()
	r.nextUeID++
	ueID := r.nextUeID
	r.connByUe[ueID] = conn
	r.ueByConn[conn] = ueID
	r.mtx.Unlock()

	r.log.Infof("UE %d attached over Uu from %v", ueID, conn.RemoteAddr())

	for {
		typ, payload, err := util.ReadFrame(conn)
		if err != nil {
			r.log.Debugf("UE %d Uu connection closed: %v", ueID, err)
			r.detach(conn, ueID)
			r.ngap.Push(message.RadioLinkFailure{UeID: ueID})
			return
		}
		switch typ {
		case frameTypeNasDelivery:
			r.ngap.Push(message.UplinkNasDelivery{UeID: ueID, Pdu: payload})
		case frameTypeUserData:
			if r.mr != nil {
				r.mr.Push(message.MrUplinkUserData{UeID: ueID, Payload: payload})
			}
		}
	}
}

func (r *RrcTask) detach(conn net.Conn, ueID int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.connByUe, ueID)
	delete(r.ueByConn, conn)
}

func (r *RrcTask) handle(msg any) {
	switch m := msg.(type) {
	case message.DownlinkNasDelivery:
		r.sendFrame(m.UeID, frameTypeNasDelivery, m.Pdu)
	case message.RrcRelease:
		r.sendFrame(m.UeID, frameTypeRelease, nil)
		r.closeUe(m.UeID)
	case message.RrcPaging:
		r.broadcastPaging(m)
	case message.MrDownlinkUserData:
		r.sendFrame(m.UeID, frameTypeUserData, m.Payload)
	}
}

// sendFrame writes one typed frame (NAS delivery, release or user data)
// to the UE's Uu connection. No frame of type frameTypeReconfiguration
// is ever sent: this task has no RRC Reconfiguration procedure.
func (r *RrcTask) sendFrame(ueID int, typ byte, payload []byte) {
	r.mtx.Lock()
	conn, ok := r.connByUe[ueID]
	r.mtx.Unlock()
	if !ok {
		r.log.Warnf("no Uu connection for ue %d", ueID)
		return
	}
	if err := util.WriteFrame(conn, typ, payload); err != nil {
		r.log.Errorf("Error writing frame to ue %d: %v", ueID, err)
	}
}

func (r *RrcTask) broadcastPaging(m message.RrcPaging) {
	buf := make([]byte, 7)
	binary.BigEndian.PutUint16(buf, m.AmfSetID)
	buf[2] = m.AmfPtr
	binary.BigEndian.PutUint32(buf[3:], m.Tmsi5G)

	r.mtx.Lock()
	conns := make([]net.Conn, 0, len(r.connByUe))
	for _, c := range r.connByUe {
		conns = append(conns, c)
	}
	r.mtx.Unlock()

	for _, c := range conns {
		util.WriteFrame(c, frameTypePaging, buf)
	}
}

func (r *RrcTask) closeUe(ueID int) {
	r.mtx.Lock()
	conn, ok := r.connByUe[ueID]
	if ok {
		delete(r.connByUe, ueID)
		delete(r.ueByConn, conn)
	}
	r.mtx.Unlock()
	if ok {
		conn.Close()
	}
}

func (r *RrcTask) onQuit() {
	if r.listener != nil {
		r.listener.Close()
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, conn := range r.connByUe {
		conn.Close()
	}
}
