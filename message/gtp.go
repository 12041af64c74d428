package message

// GtpUplinkPdu is posted by the GTP task up to MR once it has
// decapsulated a packet received from the UPF over N3, i.e. user-plane
// traffic headed toward the UE.
type GtpUplinkPdu struct {
	Teid    string
	Payload []byte
}

// GtpDownlinkPdu is posted down from MR, asking the GTP task to
// encapsulate a UE's uplink payload in a GTP-U header addressed to teid
// and forward it to the UPF over N3.
type GtpDownlinkPdu struct {
	Teid    string
	Payload []byte
}

// MrUplinkUserData is the stub air-interface carrying a UE's uplink
// user-plane frame from RRC to MR.
type MrUplinkUserData struct {
	UeID    int
	Payload []byte
}

// MrDownlinkUserData is the stub air-interface carrying a UE's downlink
// user-plane frame from MR to RRC.
type MrDownlinkUserData struct {
	UeID    int
	Payload []byte
}

// BindUeTeidCmd asks the gNB's MR task to remember which N3 TEID a UE's
// PDU session was assigned, so a downlink packet arriving on that TEID
// can be routed back to the right Uu connection.
type BindUeTeidCmd struct {
	UeID int
	Teid string
}
