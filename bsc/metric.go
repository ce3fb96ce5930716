package bsc

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// LinkMetrics contains counters for a BSC link.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type LinkMetrics struct {
	// FrameSendCount indicates the number of frames written, including acknowledgements.
	FrameSendCount atomic.Uint64
	// BlockRecvCount indicates the number of data blocks received and acknowledged.
	BlockRecvCount atomic.Uint64
	// AckSendCount indicates the number of acknowledgements sent.
	AckSendCount atomic.Uint64
	// NakSendCount indicates the number of blocks rejected on block check.
	NakSendCount atomic.Uint64
	// NoiseCount indicates the number of bytes ignored while waiting for a handshake token.
	NoiseCount atomic.Uint64
	// ByteSendCount and ByteRecvCount count raw bytes on the wire.
	ByteSendCount atomic.Uint64
	ByteRecvCount atomic.Uint64

	outcomes *xsync.MapOf[Outcome, *xsync.Counter]
}

func newLinkMetrics() *LinkMetrics {
	return &LinkMetrics{outcomes: xsync.NewMapOf[Outcome, *xsync.Counter]()}
}

// OutcomeCount returns how many times the remote responded with o.
func (m *LinkMetrics) OutcomeCount(o Outcome) int64 {
	c, ok := m.outcomes.Load(o)
	if !ok {
		return 0
	}

	return c.Value()
}

func (m *LinkMetrics) incOutcome(o Outcome) {
	c, _ := m.outcomes.LoadOrCompute(o, xsync.NewCounter)
	c.Inc()
}

func (m *LinkMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *LinkMetrics) incBlockRecvCount() {
	m.BlockRecvCount.Add(1)
}

func (m *LinkMetrics) incAckSendCount() {
	m.AckSendCount.Add(1)
}

func (m *LinkMetrics) incNakSendCount() {
	m.NakSendCount.Add(1)
}

func (m *LinkMetrics) incNoiseCount() {
	m.NoiseCount.Add(1)
}

func (m *LinkMetrics) addByteSendCount(n int) {
	m.ByteSendCount.Add(uint64(n)) //nolint:gosec // n is a write length
}

func (m *LinkMetrics) incByteRecvCount() {
	m.ByteRecvCount.Add(1)
}
