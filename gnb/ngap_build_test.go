package gnb

import (
	"testing"

	"github.com/free5gc/aper"
	"github.com/free5gc/ngap/ngapType"
	"github.com/go-playground/assert/v2"
)

func TestBuildNgSetupRequest(t *testing.T) {
	plmnID := ngapType.PLMNIdentity{Value: aper.OctetString{0x02, 0xf8, 0x39}}
	tai := ngapType.TAI{
		PLMNIdentity: plmnID,
		TAC:          ngapType.TAC{Value: aper.OctetString{0x00, 0x00, 0x01}},
	}
	snssai := ngapType.SNSSAI{SST: ngapType.SST{Value: aper.OctetString{0x01}}}

	pdu := buildNgSetupRequest([]byte{0x00, 0x00, 0x01}, "gnb1", plmnID, tai, []ngapType.SNSSAI{snssai}, pagingDrxFromString("v128"))

	assert.Equal(t, pdu.Present, ngapType.NGAPPDUPresentInitiatingMessage)
	assert.Equal(t, pdu.InitiatingMessage.ProcedureCode.Value, ngapType.ProcedureCodeNGSetup)
	assert.Equal(t, pdu.InitiatingMessage.Value.Present, ngapType.InitiatingMessagePresentNGSetupRequest)

	ies := pdu.InitiatingMessage.Value.NGSetupRequest.ProtocolIEs.List
	assert.Equal(t, len(ies) > 0, true)
}

func TestBuildInitialUEMessage(t *testing.T) {
	plmnID := ngapType.PLMNIdentity{Value: aper.OctetString{0x02, 0xf8, 0x39}}
	tai := ngapType.TAI{PLMNIdentity: plmnID}

	pdu := buildInitialUEMessage(7, []byte{0xde, 0xad}, tai, plmnID)

	assert.Equal(t, pdu.Present, ngapType.NGAPPDUPresentInitiatingMessage)
	assert.Equal(t, pdu.InitiatingMessage.ProcedureCode.Value, ngapType.ProcedureCodeInitialUEMessage)

	var sawRanUeID, sawNasPdu bool
	for _, ie := range pdu.InitiatingMessage.Value.InitialUEMessage.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDRANUENGAPID:
			sawRanUeID = true
			assert.Equal(t, ie.Value.RANUENGAPID.Value, int64(7))
		case ngapType.ProtocolIEIDNASPDU:
			sawNasPdu = true
		}
	}
	assert.Equal(t, sawRanUeID, true)
	assert.Equal(t, sawNasPdu, true)
}

func TestTeidGeneratorAllocateRelease(t *testing.T) {
	gen := NewTeidGenerator()
	first := gen.Allocate()
	second := gen.Allocate()
	assert.NotEqual(t, first, second)

	gen.Release(first)
	third := gen.Allocate()
	assert.Equal(t, third, first)
}
