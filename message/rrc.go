package message

// UplinkNasDelivery is posted by the gNB's RRC task to NGAP whenever a
// UE's dedicated NAS message arrives over the Uu link.
type UplinkNasDelivery struct {
	UeID int
	Pdu  []byte
}

// DownlinkNasDelivery is posted by NGAP to RRC (gNB side) to carry a NAS
// PDU down to the UE over dlInformationTransfer, and by RRC to NAS (UE
// side) to surface a NAS PDU received from the gNB.
type DownlinkNasDelivery struct {
	UeID int
	Pdu  []byte
}

// UplinkNasRequest is posted by the UE's NAS task to its RRC task,
// asking it to carry pdu up to the gNB as dedicated NAS.
type UplinkNasRequest struct {
	Pdu []byte
}

// RadioLinkFailure is posted by RRC to NGAP (gNB side) when a UE's
// connection is lost without an explicit release.
type RadioLinkFailure struct {
	UeID int
}

// RrcRelease asks the gNB's RRC task to release the named UE's RRC
// context: it sends a release frame with an empty payload and closes the
// UE's Uu connection. No RRC transaction id is allocated or carried.
type RrcRelease struct {
	UeID int
}

// RrcPaging asks the gNB's RRC task to page a UE identified by its
// 5G-S-TMSI components.
type RrcPaging struct {
	AmfSetID  uint16
	AmfPtr    uint8
	Tmsi5G    uint32
}

// PlmnSearchRequest is posted by the UE's NAS-MM task to its RRC task
// when the MM cycle enters a searching sub-state.
type PlmnSearchRequest struct{}
