package ue

import (
	"regexp"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
	"github.com/free5gc/nas/security"
	"github.com/free5gc/util/milenage"
	"github.com/free5gc/util/ueauth"
	"github.com/pkg/errors"
)

var supiRegexp = regexp.MustCompile(`(?:imsi|supi)-([0-9]{5,15})`)

// securityContext is the UE's NAS security state, adapted from the
// teacher's authentication struct in ue/ue.go but embedded directly in
// NasTask rather than the monolithic Ue struct.
type securityContext struct {
	supi string

	cipheringAlgorithm uint8
	integrityAlgorithm uint8

	kNasEnc [16]byte
	kNasInt [16]byte
	kAmf    []byte

	ulCount security.Count
	dlCount security.Count

	available bool
}

func (s *securityContext) getBearerType() uint8 {
	return security.Bearer3GPP
}

// deriveKAmf follows the teacher's ue/security.go deriveKAmf verbatim in
// structure, operating on a supi string and key material.
func deriveKAmf(supi string, key []byte, snName string, sqn, ak []byte) ([]byte, error) {
	sqnXorAk := make([]byte, 6)
	for i := 0; i < len(sqn); i++ {
		sqnXorAk[i] = sqn[i] ^ ak[i]
	}

	p0 := []byte(snName)
	kausf, err := ueauth.GetKDFValue(key, ueauth.FC_FOR_KAUSF_DERIVATION, p0, ueauth.KDFLen(p0), sqnXorAk, ueauth.KDFLen(sqnXorAk))
	if err != nil {
		return nil, errors.Wrap(err, "deriving Kausf")
	}

	kseaf, err := ueauth.GetKDFValue(kausf, ueauth.FC_FOR_KSEAF_DERIVATION, p0, ueauth.KDFLen(p0))
	if err != nil {
		return nil, errors.Wrap(err, "deriving Kseaf")
	}

	groups := supiRegexp.FindStringSubmatch(supi)
	if groups == nil {
		return nil, errors.Errorf("malformed supi %q", supi)
	}

	p0 = []byte(groups[1])
	p1 := []byte{0x00, 0x00}
	return ueauth.GetKDFValue(kseaf, ueauth.FC_FOR_KAMF_DERIVATION, p0, ueauth.KDFLen(p0), p1, ueauth.KDFLen(p1))
}

// deriveAlgorithmKey mirrors the teacher's deriveAlgorithmKey.
func deriveAlgorithmKey(kAmf []byte, cipheringAlgorithm, integrityAlgorithm uint8) ([]byte, []byte, error) {
	p0 := []byte{security.NNASEncAlg}
	p1 := []byte{cipheringAlgorithm}
	kenc, err := ueauth.GetKDFValue(kAmf, ueauth.FC_FOR_ALGORITHM_KEY_DERIVATION, p0, ueauth.KDFLen(p0), p1, ueauth.KDFLen(p1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "deriving Kenc")
	}

	p0 = []byte{security.NNASIntAlg}
	p1 = []byte{integrityAlgorithm}
	kint, err := ueauth.GetKDFValue(kAmf, ueauth.FC_FOR_ALGORITHM_KEY_DERIVATION, p0, ueauth.KDFLen(p0), p1, ueauth.KDFLen(p1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "deriving Kint")
	}

	return kenc, kint, nil
}

// deriveResStarAndSetKey mirrors the teacher's deriveResStarAndSetKey,
// running the Milenage f1-f5 functions against a 5G-AKA authentication
// vector and returning Kamf/Kenc/Kint/RES*.
func deriveResStarAndSetKey(supi string, cipheringAlgorithm, integrityAlgorithm uint8, sqn, amf, k, opc []byte, rand []byte, snName string) ([]byte, []byte, []byte, []byte, error) {
	macA, macS := make([]byte, 8), make([]byte, 8)
	ck, ik := make([]byte, 16), make([]byte, 16)
	res := make([]byte, 8)
	ak, akStar := make([]byte, 6), make([]byte, 6)

	if err := milenage.F1(opc, k, rand, sqn, amf, macA, macS); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "milenage F1")
	}
	if err := milenage.F2345(opc, k, rand, res, ck, ik, ak, akStar); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "milenage F2345")
	}

	key := append(append([]byte{}, ck...), ik...)
	p0 := []byte(snName)
	p1 := rand
	p2 := res

	kAmf, err := deriveKAmf(supi, key, snName, sqn, ak)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	kenc, kint, err := deriveAlgorithmKey(kAmf, cipheringAlgorithm, integrityAlgorithm)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	resStarKdf, err := ueauth.GetKDFValue(key, ueauth.FC_FOR_RES_STAR_XRES_STAR_DERIVATION,
		p0, ueauth.KDFLen(p0), p1, ueauth.KDFLen(p1), p2, ueauth.KDFLen(p2))
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "deriving RES*")
	}

	return kAmf, kenc, kint, resStarKdf[len(resStarKdf)/2:], nil
}

// encodeNasPduWithSecurity wraps a plain NAS PDU in a security header and
// runs it through nasEncode, following the teacher's function of the
// same name.
func encodeNasPduWithSecurity(n *NasTask, nasPdu []byte, securityHeaderType uint8, securityContextAvailable, newSecurityContext bool) ([]byte, error) {
	m := nas.NewMessage()
	if err := m.PlainNasDecode(&nasPdu); err != nil {
		return nil, err
	}

	m.SecurityHeader = nas.SecurityHeader{
		ProtocolDiscriminator: nasMessage.Epd5GSMobilityManagementMessage,
		SecurityHeaderType:    securityHeaderType,
	}

	return nasEncode(m, securityContextAvailable, newSecurityContext, n)
}
