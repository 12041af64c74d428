package gnb

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"sync"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"github.com/free5gc/aper"
)

// TeidGenerator allocates TEID values 1..65535 as raw 4-byte big-endian
// octet strings, adapted from the teacher's gnb/gtp.go TeidGenerator.
type TeidGenerator struct {
	mtx   sync.Mutex
	teids map[int64]bool
}

func NewTeidGenerator() *TeidGenerator {
	return &TeidGenerator{teids: make(map[int64]bool)}
}

func (t *TeidGenerator) Allocate() aper.OctetString {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	for i := int64(1); i <= 65535; i++ {
		if !t.teids[i] {
			t.teids[i] = true
			teid, _ := hex.DecodeString(fmt.Sprintf("%08x", i))
			return aper.OctetString(teid)
		}
	}
	return aper.OctetString{}
}

func (t *TeidGenerator) Release(teid aper.OctetString) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if v, err := strconv.ParseInt(hex.EncodeToString(teid), 16, 64); err == nil {
		delete(t.teids, v)
	}
}

// GtpTask owns the gNB's per-UE/per-PDU-session tunnel table over the N3
// UDP connection to the UPF, encapsulating UE traffic handed down as
// GtpDownlinkPdu and decapsulating packets from the UPF into
// GtpUplinkPdu. Adapted from the teacher's gnb/gtp.go framing helpers.
type GtpTask struct {
	task.Base

	n3Conn *net.UDPConn
	target task.Task // MR task, receiving decapsulated N3 payloads as GtpUplinkPdu

	log loggergoModel.LoggerInterface

	mtx        sync.RWMutex
	teidToConn map[string]net.Conn
}

func NewGtpTask(n3Conn *net.UDPConn, target task.Task, log loggergoModel.LoggerInterface) *GtpTask {
	return &GtpTask{
		Base:       task.NewBase(64),
		n3Conn:     n3Conn,
		target:     target,
		log:        log,
		teidToConn: make(map[string]net.Conn),
	}
}

func (g *GtpTask) Run() {
	go g.Base.Run(g.handle, g.onQuit)
	go g.readN3Loop()
}

func (g *GtpTask) onQuit() {
	g.n3Conn.Close()
	g.mtx.Lock()
	defer g.mtx.Unlock()
	for _, conn := range g.teidToConn {
		conn.Close()
	}
}

func (g *GtpTask) BindTeid(teid string, conn net.Conn) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.teidToConn[teid] = conn
}

func (g *GtpTask) handle(msg any) {
	switch m := msg.(type) {
	case message.GtpDownlinkPdu:
		g.encapAndSend(m.Teid, m.Payload)
	}
}

func (g *GtpTask) encapAndSend(teid string, payload []byte) {
	teidBytes, err := hex.DecodeString(teid)
	if err != nil {
		g.log.Warnf("Bad teid %q: %v", teid, err)
		return
	}

	header := make([]byte, 12)
	header[0] = 0x32
	header[1] = 0xff
	binary.BigEndian.PutUint16(header[2:], uint16(len(payload)+4))
	copy(header[4:], teidBytes)

	packet := append(header, payload...)
	if _, err := g.n3Conn.Write(packet); err != nil {
		g.log.Errorf("Error writing GTP-U packet to N3: %v", err)
	}
}

func (g *GtpTask) readN3Loop() {
	buf := make([]byte, 4096)
	for {
		n, err := g.n3Conn.Read(buf)
		if err != nil {
			return
		}
		teid, payload, err := parseGtpPacket(buf[:n])
		if err != nil {
			g.log.Warnf("Error parsing GTP-U packet: %v", err)
			continue
		}
		g.target.Push(message.GtpUplinkPdu{Teid: teid, Payload: payload})
	}
}

// parseGtpPacket returns the hex TEID and payload, handling the PDU
// session container extension header (type 0x85) the way the teacher's
// gnb/gtp.go parseGtpPacket already did.
func parseGtpPacket(packet []byte) (string, []byte, error) {
	if len(packet) < 8 {
		return "", nil, fmt.Errorf("short GTP-U packet: %d bytes", len(packet))
	}
	basicHeader, headerLength := packet[:8], 8

	const pduSessionExtType = 0x85
	const extLenUnit = 2

	if basicHeader[0]&0x02 != 0 {
		headerLength += 3
	}

	for {
		if headerLength >= len(packet) {
			return "", nil, fmt.Errorf("truncated GTP-U extension headers")
		}
		if packet[headerLength] == 0x00 {
			headerLength++
			break
		}
		switch packet[headerLength] {
		case pduSessionExtType:
			extLen := packet[headerLength+1]
			headerLength += 2 + int(extLen)*extLenUnit
		default:
			return "", nil, fmt.Errorf("unknown GTP extension header type: %d", packet[headerLength])
		}
	}

	return hex.EncodeToString(basicHeader[4:8]), packet[headerLength:], nil
}
