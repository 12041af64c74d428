package gnb

import (
	"sync"

	"github.com/free5gc/ngap/ngapType"
)

// RanUeIDGenerator allocates ranUeNgapId values unique within the gNB,
// adapted from the teacher's RanUeNgapIdGenerator.
type RanUeIDGenerator struct {
	mtx  sync.Mutex
	used map[int64]bool
}

func NewRanUeIDGenerator() *RanUeIDGenerator {
	return &RanUeIDGenerator{used: make(map[int64]bool)}
}

func (g *RanUeIDGenerator) Allocate() int64 {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	for i := int64(1); i <= 65535; i++ {
		if !g.used[i] {
			g.used[i] = true
			return i
		}
	}
	return -1
}

func (g *RanUeIDGenerator) Release(id int64) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	delete(g.used, id)
}

// UeContext is the gNB-side per-UE context of spec.md §3, keyed by a
// process-unique ueId. Owned exclusively by the NGAP task.
type UeContext struct {
	UeID int

	AmfID       int
	AmfUeNgapID int64
	RanUeNgapID int64

	UplinkStream   uint16
	DownlinkStream uint16

	SecurityCapabilities ngapType.UESecurityCapabilities
	CellIdentity         ngapType.NRCellIdentity
	Tai                  ngapType.TAI

	// ProcedureInProgress names the outstanding NGAP UE-associated
	// procedure, if any (empty when idle).
	ProcedureInProgress string

	RrcConnected bool
}

// UeTable is the NGAP task's keyed UE context table (invariant I1: one
// entry per ueId, ranUeNgapId unique within the gNB).
type UeTable struct {
	mtx      sync.RWMutex
	byUeID   map[int]*UeContext
	byRanID  map[int64]int
	nextUeID int
}

func NewUeTable() *UeTable {
	return &UeTable{
		byUeID:  make(map[int]*UeContext),
		byRanID: make(map[int64]int),
	}
}

// New allocates a fresh ueId and stores ctx under it.
func (t *UeTable) New(ctx *UeContext) int {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.nextUeID++
	ctx.UeID = t.nextUeID
	t.byUeID[ctx.UeID] = ctx
	t.byRanID[ctx.RanUeNgapID] = ctx.UeID
	return ctx.UeID
}

func (t *UeTable) Get(ueID int) (*UeContext, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	ctx, ok := t.byUeID[ueID]
	return ctx, ok
}

func (t *UeTable) GetByRanUeID(ranUeID int64) (*UeContext, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	ueID, ok := t.byRanID[ranUeID]
	if !ok {
		return nil, false
	}
	ctx, ok := t.byUeID[ueID]
	return ctx, ok
}

func (t *UeTable) Remove(ueID int) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if ctx, ok := t.byUeID[ueID]; ok {
		delete(t.byRanID, ctx.RanUeNgapID)
		delete(t.byUeID, ueID)
	}
}

func (t *UeTable) Count() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.byUeID)
}

func (t *UeTable) All() []*UeContext {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	out := make([]*UeContext, 0, len(t.byUeID))
	for _, ctx := range t.byUeID {
		out = append(out, ctx)
	}
	return out
}

// AllForAmf returns every UE context associated with amfID, used by the
// NG Reset handler when the reset's UE-associated list is absent.
func (t *UeTable) AllForAmf(amfID int) []*UeContext {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	out := make([]*UeContext, 0)
	for _, ctx := range t.byUeID {
		if ctx.AmfID == amfID {
			out = append(out, ctx)
		}
	}
	return out
}
