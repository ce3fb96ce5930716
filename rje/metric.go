package rje

import "sync/atomic"

// SessionMetrics contains counters for an RJE session.
type SessionMetrics struct {
	// FrameSendCount indicates the number of frames accepted by the remote during Submit.
	FrameSendCount atomic.Uint64
	// CardSendCount indicates the number of deck cards transmitted.
	CardSendCount atomic.Uint64
	// NegativeCount indicates the number of NAK responses observed during Submit.
	NegativeCount atomic.Uint64
	// RetryCount indicates the number of frames resent after NAK.
	RetryCount atomic.Uint64

	// LineCount indicates the number of print lines written.
	LineCount atomic.Uint64
	// PunchRecordCount indicates the number of punch records written.
	PunchRecordCount atomic.Uint64
	// MalformedCount indicates the number of print lines skipped as malformed.
	MalformedCount atomic.Uint64
	// UnknownCodeCount indicates the number of unrecognized carriage-control codes.
	UnknownCodeCount atomic.Uint64
}

func (m *SessionMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *SessionMetrics) incCardSendCount() {
	m.CardSendCount.Add(1)
}

func (m *SessionMetrics) incNegativeCount() {
	m.NegativeCount.Add(1)
}

func (m *SessionMetrics) incRetryCount() {
	m.RetryCount.Add(1)
}

func (m *SessionMetrics) incLineCount() {
	m.LineCount.Add(1)
}

func (m *SessionMetrics) incPunchRecordCount() {
	m.PunchRecordCount.Add(1)
}

func (m *SessionMetrics) incMalformedCount() {
	m.MalformedCount.Add(1)
}

func (m *SessionMetrics) incUnknownCodeCount() {
	m.UnknownCodeCount.Add(1)
}
