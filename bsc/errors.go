package bsc

import "errors"

var (
	// ErrTransportDisconnect reports a short read from the transport or a NUL
	// sentinel where a handshake token was expected. It is fatal for the session.
	ErrTransportDisconnect = errors.New("bsc: transport disconnected")

	// ErrUnexpectedControl reports a DLE sequence this link does not speak.
	ErrUnexpectedControl = errors.New("bsc: unexpected control sequence")

	// ErrInvalidPayload reports an outbound payload containing a raw DLE byte.
	ErrInvalidPayload = errors.New("bsc: payload contains DLE")

	// ErrInvalidTerminator reports a frame terminator outside ETX, ETB, EM and EOT.
	ErrInvalidTerminator = errors.New("bsc: invalid frame terminator")

	// ErrParityMismatch reports an acknowledgement with the wrong parity. Only
	// returned when parity verification is enabled.
	ErrParityMismatch = errors.New("bsc: acknowledgement parity mismatch")

	// ErrEndOfTransmission reports that the remote ended the transmission with EOT.
	// It is the normal end of a retrieval and is distinct from ErrTransportDisconnect.
	ErrEndOfTransmission = errors.New("bsc: end of transmission")

	// ErrBlockCheck reports a CRC mismatch on a received block.
	ErrBlockCheck = errors.New("bsc: block check mismatch")
)
