package ue

import (
	"bytes"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
	"github.com/free5gc/nas/nasType"
	"github.com/free5gc/nas/security"
	"github.com/free5gc/ngap/ngapType"

	"github.com/go5gran/ransim/util"
)

// buildSuciIdentity builds the SUCI mobile identity carried in the first
// Registration Request, per the teacher's buildUeMobileIdentity5GS but
// generalised to take the PLMN/MSIN triple rather than a pre-formatted
// supi string, since this codebase's null-scheme SUCI encoder needs the
// digit groups separately.
func buildSuciIdentity(mcc, mnc, msin string) nasType.MobileIdentity5GS {
	buf := util.SupiToSuciBytes(mcc, mnc, msin)
	return nasType.MobileIdentity5GS{
		Len:    uint16(len(buf)),
		Buffer: buf,
	}
}

func buildUeSecurityCapability(cipheringAlgorithm, integrityAlgorithm uint8) nasType.UESecurityCapability {
	cap := nasType.UESecurityCapability{
		Iei:    nasMessage.RegistrationRequestUESecurityCapabilityType,
		Len:    2,
		Buffer: []byte{0x00, 0x00},
	}

	switch cipheringAlgorithm {
	case security.AlgCiphering128NEA0:
		cap.SetEA0_5G(1)
	case security.AlgCiphering128NEA1:
		cap.SetEA1_128_5G(1)
	case security.AlgCiphering128NEA2:
		cap.SetEA2_128_5G(1)
	case security.AlgCiphering128NEA3:
		cap.SetEA3_128_5G(1)
	}

	switch integrityAlgorithm {
	case security.AlgIntegrity128NIA0:
		cap.SetIA0_5G(1)
	case security.AlgIntegrity128NIA1:
		cap.SetIA1_128_5G(1)
	case security.AlgIntegrity128NIA2:
		cap.SetIA2_128_5G(1)
	case security.AlgIntegrity128NIA3:
		cap.SetIA3_128_5G(1)
	}

	return cap
}

// buildRegistrationRequest mirrors the teacher's buildUeRegistrationRequest.
func buildRegistrationRequest(registrationType uint8, mobileIdentity5GS nasType.MobileIdentity5GS, ueSecurityCapability nasType.UESecurityCapability, nasMessageContainer []byte) ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeRegistrationRequest)

	req := nasMessage.NewRegistrationRequest(0)
	req.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	req.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	req.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0x00)
	req.RegistrationRequestMessageIdentity.SetMessageType(nas.MsgTypeRegistrationRequest)
	req.NgksiAndRegistrationType5GS.SetTSC(nasMessage.TypeOfSecurityContextFlagNative)
	req.NgksiAndRegistrationType5GS.SetNasKeySetIdentifiler(0x7)
	req.NgksiAndRegistrationType5GS.SetFOR(1)
	req.NgksiAndRegistrationType5GS.SetRegistrationType5GS(registrationType)
	req.MobileIdentity5GS = mobileIdentity5GS
	req.UESecurityCapability = &ueSecurityCapability

	if nasMessageContainer != nil {
		req.NASMessageContainer = nasType.NewNASMessageContainer(nasMessage.RegistrationRequestNASMessageContainerType)
		req.NASMessageContainer.SetLen(uint16(len(nasMessageContainer)))
		req.NASMessageContainer.SetNASMessageContainerContents(nasMessageContainer)
	}

	m.GmmMessage.RegistrationRequest = req

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildAuthenticationResponse mirrors the teacher's buildAuthenticationResponse.
func buildAuthenticationResponse(resStar []byte) ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeAuthenticationResponse)

	resp := nasMessage.NewAuthenticationResponse(0)
	resp.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	resp.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	resp.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	resp.AuthenticationResponseMessageIdentity.SetMessageType(nas.MsgTypeAuthenticationResponse)

	if len(resStar) > 0 {
		resp.AuthenticationResponseParameter = nasType.NewAuthenticationResponseParameter(nasMessage.AuthenticationResponseAuthenticationResponseParameterType)
		resp.AuthenticationResponseParameter.SetLen(uint8(len(resStar)))
		copy(resp.AuthenticationResponseParameter.Octet[:], resStar[:16])
	}

	m.GmmMessage.AuthenticationResponse = resp

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildSecurityModeComplete mirrors the teacher's buildNasSecurityModeCompleteMessage.
func buildSecurityModeComplete(nasMessageContainer []byte) ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeSecurityModeComplete)

	complete := nasMessage.NewSecurityModeComplete(0)
	complete.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	complete.SecurityModeCompleteMessageIdentity.SetMessageType(nas.MsgTypeSecurityModeComplete)

	if nasMessageContainer != nil {
		complete.NASMessageContainer = nasType.NewNASMessageContainer(nasMessage.SecurityModeCompleteNASMessageContainerType)
		complete.NASMessageContainer.SetLen(uint16(len(nasMessageContainer)))
		complete.NASMessageContainer.SetNASMessageContainerContents(nasMessageContainer)
	}

	m.GmmMessage.SecurityModeComplete = complete

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildRegistrationComplete mirrors the teacher's buildNasRegistrationCompleteMessage.
func buildRegistrationComplete() ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeRegistrationComplete)

	complete := nasMessage.NewRegistrationComplete(0)
	complete.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	complete.RegistrationCompleteMessageIdentity.SetMessageType(nas.MsgTypeRegistrationComplete)

	m.GmmMessage.RegistrationComplete = complete

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildDeregistrationRequest builds a UE-originating de-registration
// request, supplementing the teacher's registration-only builder set
// with the message NAS-MM's DE_REGISTER path needs (spec.md §4.5).
func buildDeregistrationRequest(deregistrationType uint8, mobileIdentity5GS nasType.MobileIdentity5GS) ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeDeregistrationRequestUEOriginatingDeregistration)

	req := nasMessage.NewDeregistrationRequestUEOriginatingDeregistration(0)
	req.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	req.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	req.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	req.DeregistrationRequestMessageIdentity.SetMessageType(nas.MsgTypeDeregistrationRequestUEOriginatingDeregistration)
	req.NgksiAndDeregistrationType.SetTSC(nasMessage.TypeOfSecurityContextFlagNative)
	req.NgksiAndDeregistrationType.SetNasKeySetIdentifiler(0x7)
	req.NgksiAndDeregistrationType.SetDeregistrationType(deregistrationType)
	req.MobileIdentity5GS = mobileIdentity5GS

	m.GmmMessage.DeregistrationRequestUEOriginatingDeregistration = req

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildPduSessionEstablishmentRequest builds the 5GSM message content
// carried inside a UL NAS TRANSPORT payload container. Built as a raw
// TLV byte sequence per 3GPP TS 24.501 §8.3.1 rather than through
// nasType/nasMessage, the same way the teacher treats NAS message
// containers as opaque []byte payloads it never decodes field-by-field.
func buildPduSessionEstablishmentRequest(psi, pti uint8, pduSessionType uint8, sscMode uint8) []byte {
	const (
		epd5GSM               = 0x2E
		msgTypeEstablishReq   = 0xC1
		integrityMaxDataRate  = 0xFFFF
		iePduSessionType      = 0x90
		ieSscMode             = 0xA0
	)

	buf := []byte{
		epd5GSM,
		psi,
		pti,
		msgTypeEstablishReq,
		byte(integrityMaxDataRate >> 8), byte(integrityMaxDataRate),
	}
	buf = append(buf, iePduSessionType|pduSessionType)
	buf = append(buf, ieSscMode|sscMode)
	return buf
}

// buildUlNasTransport wraps a 5GSM payload container in a UL NAS
// TRANSPORT GMM message, following the same nasType construction style
// the teacher uses for GMM messages.
func buildUlNasTransport(payloadContainer []byte, psi uint8, requestType uint8, dnn string, sst uint8, sd string) ([]byte, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeULNASTransport)

	transport := nasMessage.NewULNASTransport(0)
	transport.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	transport.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	transport.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	transport.ULNASTransportMessageIdentity.SetMessageType(nas.MsgTypeULNASTransport)
	transport.SetPayloadContainerType(nasMessage.PayloadContainerTypeN1SMInfo)

	transport.PayloadContainer = nasType.NewPayloadContainer(nasMessage.ULNASTransportPayloadContainerType)
	transport.PayloadContainer.SetLen(uint16(len(payloadContainer)))
	transport.PayloadContainer.SetPayloadContainerContents(payloadContainer)

	transport.PDUSessionID2Value = nasType.NewPDUSessionID2Value(nasMessage.ULNASTransportPDUSessionID2ValueType)
	transport.PDUSessionID2Value.SetPDUSessionID2Value(psi)

	transport.RequestType = nasType.NewRequestType(nasMessage.ULNASTransportRequestTypeType)
	transport.RequestType.SetRequestTypeValue(requestType)

	transport.DNN = nasType.NewDNN(nasMessage.ULNASTransportDNNType)
	transport.DNN.SetLen(uint8(len(dnn)))
	transport.DNN.SetDNN(dnn)

	transport.SNSSAI = nasType.NewSNSSAI(nasMessage.ULNASTransportSNSSAIType)
	transport.SNSSAI.SetLen(1)
	transport.SNSSAI.SetSST(sst)

	m.GmmMessage.ULNASTransport = transport

	buf := new(bytes.Buffer)
	if err := m.GmmMessageEncode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ueSecurityCapabilitiesToNgap builds an NGAP UE Security Capabilities
// value whose four algorithm fields are each 0xFF 0x00. Nothing in this
// tree calls it; the gNB's PathSwitchRequest builds its own bitmask.
func ueSecurityCapabilitiesToNgap() ngapType.UESecurityCapabilities {
	var caps ngapType.UESecurityCapabilities
	caps.NRencryptionAlgorithms.Value = []byte{0xFF, 0x00}
	caps.NRintegrityProtectionAlgorithms.Value = []byte{0xFF, 0x00}
	caps.EUTRAencryptionAlgorithms.Value = []byte{0xFF, 0x00}
	caps.EUTRAintegrityProtectionAlgorithms.Value = []byte{0xFF, 0x00}
	return caps
}
