package util

import (
	"encoding/hex"
	"strconv"

	"github.com/free5gc/aper"
	"github.com/free5gc/ngap/ngapConvert"
	"github.com/free5gc/ngap/ngapType"
	"github.com/free5gc/openapi/models"
	"github.com/pkg/errors"
)

// PlmnIdToNgap wraps ngapConvert.PlmnIdToNgap with the error-returning
// shape the rest of this codebase expects from config-time conversions.
func PlmnIdToNgap(plmnId models.PlmnId) (ngapType.PLMNIdentity, error) {
	if len(plmnId.Mcc) != 3 || (len(plmnId.Mnc) != 2 && len(plmnId.Mnc) != 3) {
		return ngapType.PLMNIdentity{}, errors.Errorf("invalid plmnId: %+v", plmnId)
	}
	return ngapConvert.PlmnIdToNgap(plmnId), nil
}

// TaiToNgap builds a ngapType.TAI from a TAC hex string and a PLMN,
// following the same field layout buildNgSetupRequest already
// constructs its SupportedTAList entries with.
func TaiToNgap(tac string, plmnId models.PlmnId) (ngapType.TAI, error) {
	var tai ngapType.TAI

	tacBytes, err := hex.DecodeString(tac)
	if err != nil {
		return tai, errors.Wrapf(err, "decoding tac %q", tac)
	}

	plmn, err := PlmnIdToNgap(plmnId)
	if err != nil {
		return tai, err
	}

	tai.TAC.Value = aper.OctetString(tacBytes)
	tai.PLMNIdentity.Value = plmn.Value
	return tai, nil
}

// SNssaiToNgap builds a ngapType.SNSSAI from an SST string (decimal) and
// an optional hex-encoded SD.
func SNssaiToNgap(sst string, sd string) (ngapType.SNSSAI, error) {
	var snssai ngapType.SNSSAI

	sstInt, err := strconv.Atoi(sst)
	if err != nil {
		return snssai, errors.Wrapf(err, "parsing sst %q", sst)
	}
	if sstInt < 0 || sstInt > 255 {
		return snssai, errors.Errorf("sst %d out of range", sstInt)
	}
	snssai.SST.Value = aper.OctetString([]byte{byte(sstInt)})

	if sd != "" {
		sdBytes, err := hex.DecodeString(sd)
		if err != nil {
			return snssai, errors.Wrapf(err, "decoding sd %q", sd)
		}
		snssai.SD = new(ngapType.SD)
		snssai.SD.Value = aper.OctetString(sdBytes)
	}

	return snssai, nil
}
