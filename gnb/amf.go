package gnb

import (
	"sync"

	"github.com/free5gc/ngap/ngapType"
)

// AmfAssocState is the association lifecycle of one configured AMF.
type AmfAssocState int

const (
	AmfNotConnected AmfAssocState = iota
	AmfWaitingNgSetup
	AmfConnected
)

// OverloadAction mirrors the four actions §4.2 names for Overload Start.
type OverloadAction int

const (
	OverloadRejectNonEmergencyMoData OverloadAction = iota
	OverloadRejectSignalling
	OverloadOnlyEmergencyAndMt
	OverloadOnlyHighPriAndMt
)

// OverloadInfo is stored on an AMF context after an Overload Start,
// cleared on Overload Stop.
type OverloadInfo struct {
	Active           bool
	Action           OverloadAction
	ReductionPercent int
	NssaiList        []ngapType.SNSSAI
}

// AmfContext is the gNB's view of one configured AMF. Owned exclusively
// by the NGAP task; never mutated from any other goroutine.
type AmfContext struct {
	AmfID int
	Ip    string
	Port  int

	State AmfAssocState

	InStreams  uint16
	OutStreams uint16

	AmfName             string
	RelativeCapacity    int64
	ServedGuamiList     []ngapType.ServedGUAMIItem
	PlmnSupportList     []ngapType.PLMNSupportItem
	DefaultUplinkStream uint16

	Overload OverloadInfo
}

// AmfTable is the NGAP task's keyed AMF context table.
type AmfTable struct {
	mtx  sync.RWMutex
	byID map[int]*AmfContext
}

func NewAmfTable() *AmfTable {
	return &AmfTable{byID: make(map[int]*AmfContext)}
}

func (t *AmfTable) Add(ctx *AmfContext) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.byID[ctx.AmfID] = ctx
}

func (t *AmfTable) Get(amfID int) (*AmfContext, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	ctx, ok := t.byID[amfID]
	return ctx, ok
}

func (t *AmfTable) Remove(amfID int) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	delete(t.byID, amfID)
}

func (t *AmfTable) All() []*AmfContext {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	out := make([]*AmfContext, 0, len(t.byID))
	for _, ctx := range t.byID {
		out = append(out, ctx)
	}
	return out
}

// AllConnected reports whether the table is non-empty and every entry
// has reached AmfConnected.
func (t *AmfTable) AllConnected() bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	if len(t.byID) == 0 {
		return false
	}
	for _, ctx := range t.byID {
		if ctx.State != AmfConnected {
			return false
		}
	}
	return true
}
