package message

// NgapIsUp is posted by the NGAP task to App exactly once per run, the
// first moment every configured AMF has reached CONNECTED.
type NgapIsUp struct{}

// NgapLayerInitialized is posted by the NGAP task to RRC alongside
// NgapIsUp. The gNB RRC task has no case for it and ignores it.
type NgapLayerInitialized struct{}

// NgapHandoverPreparationRequested is posted to App for observability
// when handoverPreparation(ueId) is invoked; it does not itself carry a
// protocol PDU (see the Open Question decision on handoverPreparation).
type NgapHandoverPreparationRequested struct {
	UeID int
}

// NgapHandoverPrepareCmd asks the NGAP task to run handoverPreparation
// for ueId. Delivered from the App/CLI handler.
type NgapHandoverPrepareCmd struct {
	UeID int
}

// NgapHandoverCmd asks the NGAP task to run handleXnHandover with the
// parameters of a manually-triggered Path Switch.
type NgapHandoverCmd struct {
	AsAmfID      int
	AmfUeNgapID  int64
	RanUeNgapID  int64
	CtxtID       int
	UplinkStream uint16
	AmfName      string
}
