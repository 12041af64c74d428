package util

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// WriteFrame writes a 1-byte message type, a 4-byte big-endian length,
// then payload, to w. Used by the gNB/UE RRC tasks to multiplex NAS
// carriage and RRC procedures (Reconfiguration, Release, Paging) over
// one Uu socket.
func WriteFrame(w io.Writer, msgType byte, payload []byte) error {
	header := make([]byte, 5)
	header[0] = msgType
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing frame header")
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return errors.Wrap(err, "writing frame payload")
		}
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader) (byte, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	length := binary.BigEndian.Uint32(header[1:])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, errors.Wrap(err, "reading frame payload")
		}
	}
	return header[0], payload, nil
}
