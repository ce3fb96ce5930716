package bsc

import (
	"bytes"
	"fmt"
)

// Encode builds a data frame with the default sync preamble and no block check:
//
//	SYN SYN DLE STX <payload> DLE <term>
//
// payload must already be in host code. It is not escaped, so a payload containing
// a raw DLE byte is rejected with ErrInvalidPayload. term must be ETX, ETB, EM or EOT.
func Encode(payload []byte, term ControlByte) ([]byte, error) {
	return encodeFrame(payload, term, DefaultSyncCount, false)
}

func encodeFrame(payload []byte, term ControlByte, syncCount int, withBCC bool) ([]byte, error) {
	if !isBlockEnd(term) && term != EOT {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTerminator, term)
	}
	if i := bytes.IndexByte(payload, byte(DLE)); i >= 0 {
		return nil, fmt.Errorf("%w at offset %d", ErrInvalidPayload, i)
	}

	frame := make([]byte, 0, syncCount+len(payload)+6)
	frame = appendSync(frame, syncCount)
	frame = append(frame, byte(DLE), byte(STX))
	frame = append(frame, payload...)
	frame = append(frame, byte(DLE), byte(term))

	if withBCC && term != EOT {
		frame = appendBlockCheck(frame, payload, term)
	}

	return frame, nil
}

// DialSequence returns the line bid that opens a session: the sync preamble
// followed by ENQ.
func DialSequence(syncCount int) []byte {
	frame := appendSync(make([]byte, 0, syncCount+1), syncCount)

	return append(frame, byte(ENQ))
}

// AckFrame returns the sync preamble followed by the acknowledgement for parity.
func AckFrame(syncCount int, parity AckParity) []byte {
	frame := appendSync(make([]byte, 0, syncCount+2), syncCount)

	return append(frame, byte(DLE), byte(parity.Ack()))
}

func appendSync(dst []byte, n int) []byte {
	for range n {
		dst = append(dst, byte(SYN))
	}

	return dst
}
