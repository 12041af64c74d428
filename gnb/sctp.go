package gnb

import (
	"fmt"
	"net"
	"sync"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"github.com/free5gc/sctp"
)

const ngapPpid uint32 = 0x3c000000

// SctpTask owns one SCTP association per configured AMF, surfacing
// connection up/down and inbound payloads, and accepting send requests.
// Adapted from the teacher's gnb.go connectToAmf/getAmfAndGnbSctpN2Addr.
type SctpTask struct {
	task.Base

	gnbN2Ip string
	target  task.Task // NGAP task, notified of association events and data

	log loggergoModel.LoggerInterface

	mtx   sync.Mutex
	conns map[int]*sctp.SCTPConn
}

func NewSctpTask(gnbN2Ip string, target task.Task, log loggergoModel.LoggerInterface) *SctpTask {
	return &SctpTask{
		Base:    task.NewBase(64),
		gnbN2Ip: gnbN2Ip,
		target:  target,
		log:     log,
		conns:   make(map[int]*sctp.SCTPConn),
	}
}

func (s *SctpTask) Run() {
	go s.Base.Run(s.handle, s.onQuit)
}

// Associate dials the AMF at amfIp:amfPort and, on success, posts a
// SctpAssociationUp for amfID and starts a read loop delivering
// SctpDataInd for it.
func (s *SctpTask) Associate(amfID int, amfIp string, amfPort int) error {
	amfAddr, gnbAddr, err := s.resolveAddrs(amfIp, amfPort)
	if err != nil {
		return err
	}

	conn, err := sctp.DialSCTP("sctp", gnbAddr, amfAddr)
	if err != nil {
		return fmt.Errorf("dialing AMF %s: %w", amfAddr, err)
	}

	info, err := conn.GetDefaultSentParam()
	if err == nil {
		info.PPID = ngapPpid
		conn.SetDefaultSentParam(info)
	}

	s.mtx.Lock()
	s.conns[amfID] = conn
	s.mtx.Unlock()

	s.target.Push(message.SctpAssociationUp{AmfID: amfID, InStreams: 1, OutStreams: 1})

	go s.readLoop(amfID, conn)
	return nil
}

func (s *SctpTask) readLoop(amfID int, conn *sctp.SCTPConn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			s.log.Warnf("SCTP association to amf %d lost: %v", amfID, err)
			s.target.Push(message.SctpAssociationDown{AmfID: amfID})
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.target.Push(message.SctpDataInd{AmfID: amfID, Stream: 0, Data: payload})
	}
}

func (s *SctpTask) resolveAddrs(amfIp string, amfPort int) (*sctp.SCTPAddr, *sctp.SCTPAddr, error) {
	gnbAddr, err := net.ResolveIPAddr("ip", s.gnbN2Ip)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving gNB N2 address %q: %w", s.gnbN2Ip, err)
	}
	amfHost, err := net.ResolveIPAddr("ip", amfIp)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving AMF N2 address %q: %w", amfIp, err)
	}

	return &sctp.SCTPAddr{IPAddrs: []net.IPAddr{*amfHost}, Port: amfPort},
		&sctp.SCTPAddr{IPAddrs: []net.IPAddr{*gnbAddr}, Port: 0}, nil
}

func (s *SctpTask) handle(msg any) {
	switch m := msg.(type) {
	case message.SctpDataReq:
		s.mtx.Lock()
		conn, ok := s.conns[m.AmfID]
		s.mtx.Unlock()
		if !ok {
			s.log.Warnf("SctpDataReq for unknown amf %d", m.AmfID)
			return
		}
		if _, err := conn.Write(m.Data); err != nil {
			s.log.Errorf("Error writing to amf %d: %v", m.AmfID, err)
		}
	case message.SctpConnectionClose:
		s.mtx.Lock()
		conn, ok := s.conns[m.AmfID]
		delete(s.conns, m.AmfID)
		s.mtx.Unlock()
		if ok {
			conn.Close()
		}
	}
}

func (s *SctpTask) onQuit() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}
