package rje

import "errors"

var (
	// ErrNegativeAck reports a NAK during Submit under the AbortOnNegative policy.
	ErrNegativeAck = errors.New("rje: frame rejected by remote")

	// ErrSendFailure reports that retries were exhausted under the RetryOnNegative policy.
	ErrSendFailure = errors.New("rje: frame send failure, retries exhausted")

	// ErrSinkWrite reports a failure writing the print or punch sink.
	ErrSinkWrite = errors.New("rje: output sink write failed")

	// ErrInvalidJobNumber reports a job number outside 0..MaxJobNumber.
	ErrInvalidJobNumber = errors.New("rje: invalid job number")

	// errRemoteDisconnect ends the current operation cleanly when the remote sends EOT.
	errRemoteDisconnect = errors.New("rje: remote ended transmission")
)
