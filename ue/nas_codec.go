package ue

import (
	"reflect"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/security"
	"github.com/pkg/errors"
)

// nasDecode mirrors the teacher's ue/nas.go nasDecode: it strips and
// verifies the security header (integrity, then optional ciphering)
// before handing the plain payload to the free5gc decoder.
func nasDecode(n *NasTask, securityHeaderType uint8, payload []byte) (*nas.Message, error) {
	if payload == nil {
		return nil, errors.New("nas payload is nil")
	}

	msg := new(nas.Message)
	msg.SecurityHeaderType = uint8(nas.GetSecurityHeaderType(payload) & 0x0f)

	if securityHeaderType == nas.SecurityHeaderTypePlainNas {
		return msg, msg.PlainNasDecode(&payload)
	}

	if !n.sec.available {
		return nil, errors.New("nas security context not established")
	}

	securityHeader := payload[0:6]
	sequenceNumber := payload[6]
	receivedMac32 := securityHeader[2:]
	payload = payload[6:]

	ciphered := false
	switch msg.SecurityHeaderType {
	case nas.SecurityHeaderTypeIntegrityProtected:
	case nas.SecurityHeaderTypeIntegrityProtectedAndCiphered:
		ciphered = true
	case nas.SecurityHeaderTypeIntegrityProtectedWithNew5gNasSecurityContext:
		n.sec.dlCount.Set(0, 0)
	case nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext:
		ciphered = true
		n.sec.dlCount.Set(0, 0)
	default:
		return nil, errors.Errorf("unknown security header type 0x%02x", msg.SecurityHeaderType)
	}

	if n.sec.dlCount.SQN() > sequenceNumber {
		n.sec.dlCount.SetOverflow(n.sec.dlCount.Overflow() + 1)
	}
	n.sec.dlCount.SetSQN(sequenceNumber)

	mac32, err := security.NASMacCalculate(n.sec.integrityAlgorithm, n.sec.kNasInt[:], n.sec.dlCount.Get(), n.sec.getBearerType(), security.DirectionDownlink, payload)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(mac32, receivedMac32) {
		return nil, errors.Errorf("NAS MAC verification failed (0x%x != 0x%x)", mac32, receivedMac32)
	}

	payload = payload[1:]
	if ciphered {
		if err := security.NASEncrypt(n.sec.cipheringAlgorithm, n.sec.kNasEnc[:], n.sec.dlCount.Get(), n.sec.getBearerType(), security.DirectionDownlink, payload); err != nil {
			return nil, err
		}
	}

	return msg, msg.PlainNasDecode(&payload)
}

// nasEncode mirrors the teacher's ue/nas.go nasEncode: plain encode when
// no security context is available yet, otherwise cipher (if the header
// asks for it), MAC, and prepend the sequence number and security header.
func nasEncode(nasMsg *nas.Message, securityContextAvailable, newSecurityContext bool, n *NasTask) ([]byte, error) {
	if nasMsg == nil {
		return nil, errors.New("nasMsg is nil")
	}

	if !securityContextAvailable {
		return nasMsg.PlainNasEncode()
	}

	if newSecurityContext {
		n.sec.ulCount.Set(0, 0)
		n.sec.dlCount.Set(0, 0)
	}

	sequenceNumber := n.sec.ulCount.SQN()
	payload, err := nasMsg.PlainNasEncode()
	if err != nil {
		return nil, err
	}

	if nasMsg.SecurityHeader.SecurityHeaderType != nas.SecurityHeaderTypeIntegrityProtected &&
		nasMsg.SecurityHeader.SecurityHeaderType != nas.SecurityHeaderTypePlainNas {
		if err := security.NASEncrypt(n.sec.cipheringAlgorithm, n.sec.kNasEnc[:], n.sec.ulCount.Get(), n.sec.getBearerType(), security.DirectionUplink, payload); err != nil {
			return nil, err
		}
	}

	payload = append([]byte{sequenceNumber}, payload...)

	mac32, err := security.NASMacCalculate(n.sec.integrityAlgorithm, n.sec.kNasInt[:], n.sec.ulCount.Get(), n.sec.getBearerType(), security.DirectionUplink, payload)
	if err != nil {
		return nil, err
	}
	payload = append(mac32, payload...)

	msgSecurityHeader := []byte{nasMsg.SecurityHeader.ProtocolDiscriminator, nasMsg.SecurityHeader.SecurityHeaderType}
	payload = append(msgSecurityHeader, payload...)

	n.sec.ulCount.AddOne()

	return payload, nil
}
