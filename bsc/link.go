package bsc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/arloliu/go-rje/logger"
)

// Link is the handshake engine of a BSC line.
//
// It writes frames, classifies the remote's responses and emits acknowledgements
// with alternating parity. The line is half-duplex: Link is NOT goroutine-safe and
// the caller must ensure only one operation is active at a time.
type Link struct {
	reader *bufio.Reader
	writer io.Writer
	cfg    *LinkConfig
	logger logger.Logger

	// sendParity is the parity expected on the next acknowledgement of a sent frame.
	sendParity AckParity
	// recvParity is the parity of the next acknowledgement this end emits.
	recvParity AckParity
	// lastAck is the most recent acknowledgement emitted, repeated on ENQ.
	lastAck  AckParity
	hasAcked bool

	metrics *LinkMetrics
}

// NewLink creates a link over rw. A nil cfg uses the defaults of NewLinkConfig.
func NewLink(rw io.ReadWriter, cfg *LinkConfig) *Link {
	if cfg == nil {
		cfg, _ = NewLinkConfig()
	}

	return &Link{
		reader:  bufio.NewReader(rw),
		writer:  rw,
		cfg:     cfg,
		logger:  cfg.logger,
		metrics: newLinkMetrics(),
	}
}

// Config returns the link configuration.
func (l *Link) Config() *LinkConfig {
	return l.cfg
}

// GetMetrics returns the metrics of the link.
func (l *Link) GetMetrics() *LinkMetrics {
	return l.metrics
}

// RecvParity returns the parity of the next acknowledgement this end will emit.
func (l *Link) RecvParity() AckParity {
	return l.recvParity
}

// --- Low-level I/O helpers ---

// readByte reads one byte. Any read failure, including a clean EOF, is a transport
// disconnect.
func (l *Link) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransportDisconnect, err)
	}
	l.metrics.incByteRecvCount()

	return b, nil
}

// write writes one complete frame.
func (l *Link) write(frame []byte) error {
	l.logger.Debug("bsc: send", "bytes", fmt.Sprintf("% X", frame))

	n, err := l.writer.Write(frame)
	l.metrics.addByteSendCount(n)
	if err != nil {
		return fmt.Errorf("bsc: write frame: %w", err)
	}
	l.metrics.incFrameSendCount()

	return nil
}

// --- Send ---

// Encode builds a data frame using the link's sync preamble and block check setting.
func (l *Link) Encode(payload []byte, term ControlByte) ([]byte, error) {
	return encodeFrame(payload, term, l.cfg.syncCount, l.cfg.blockCheck)
}

// Send writes frame without waiting for a response.
func (l *Link) Send(frame []byte) error {
	return l.write(frame)
}

// SendAndAwait writes frame and classifies the remote's response.
func (l *Link) SendAndAwait(frame []byte) (Outcome, error) {
	if err := l.write(frame); err != nil {
		return Negative, err
	}

	return l.Await()
}

// Await reads from the line until one handshake token is recognized:
//
//   - DLE ACK0, DLE ACK1 → Affirmative
//   - ENQ                → AffirmativeRequest
//   - DLE RVI            → AffirmativeRVI
//   - NAK                → Negative
//   - EOT                → NegativeDisconnect
//
// A NUL byte, bare or after DLE, fails with ErrTransportDisconnect. Any other
// byte, including a repeated DLE, is noise: it is logged at debug level and
// reading continues.
func (l *Link) Await() (Outcome, error) {
	for {
		b, err := l.readByte()
		if err != nil {
			return Negative, err
		}

		switch ControlByte(b) {
		case DLE:
			next, err := l.readByte()
			if err != nil {
				return Negative, err
			}

			switch ControlByte(next) {
			case Ack0:
				return l.affirm(Affirmative, EvenParity)
			case Ack1:
				return l.affirm(Affirmative, OddParity)
			case RVI:
				return l.affirm(AffirmativeRVI, l.sendParity)
			case NUL:
				return Negative, fmt.Errorf("%w: DLE NUL received while awaiting response", ErrTransportDisconnect)
			default:
				// DLE DLE is a literal DLE, not a handshake token.
				l.noise(b, next)
			}

		case ENQ:
			return l.classified(AffirmativeRequest), nil
		case NAK:
			return l.classified(Negative), nil
		case EOT:
			return l.classified(NegativeDisconnect), nil
		case NUL:
			return Negative, fmt.Errorf("%w: NUL received while awaiting response", ErrTransportDisconnect)
		case SYN:
			continue
		default:
			l.noise(b)
		}
	}
}

func (l *Link) affirm(o Outcome, parity AckParity) (Outcome, error) {
	if l.cfg.verifyParity && parity != l.sendParity {
		l.metrics.incOutcome(o)

		return o, fmt.Errorf("%w: got %s, want %s", ErrParityMismatch, parity, l.sendParity)
	}
	l.sendParity = l.sendParity.Next()

	return l.classified(o), nil
}

func (l *Link) classified(o Outcome) Outcome {
	l.metrics.incOutcome(o)
	l.logger.Debug("bsc: response", "outcome", o.String())

	return o
}

func (l *Link) noise(b ...byte) {
	l.metrics.incNoiseCount()
	l.logger.Debug("bsc: ignoring byte while awaiting response", "bytes", fmt.Sprintf("% X", b))
}

// --- Acknowledgement ---

// SendAck emits the sync preamble and DLE followed by the acknowledgement for parity.
func (l *Link) SendAck(parity AckParity) error {
	if err := l.write(AckFrame(l.cfg.syncCount, parity)); err != nil {
		return err
	}
	l.lastAck = parity
	l.hasAcked = true
	l.metrics.incAckSendCount()

	return nil
}

// Acknowledge emits the acknowledgement for the current receive parity and
// advances the parity.
func (l *Link) Acknowledge() error {
	if err := l.SendAck(l.recvParity); err != nil {
		return err
	}
	l.recvParity = l.recvParity.Next()

	return nil
}

// RepeatAck re-sends the most recent acknowledgement without advancing the
// parity. It answers an ENQ from a sender that missed the response. With no
// acknowledgement sent yet it behaves like Acknowledge.
func (l *Link) RepeatAck() error {
	if !l.hasAcked {
		return l.Acknowledge()
	}

	return l.SendAck(l.lastAck)
}

// ResetReceive starts a new receive sequence: the next acknowledgement emitted is
// even and there is no previous acknowledgement to repeat.
func (l *Link) ResetReceive() {
	l.recvParity = EvenParity
	l.lastAck = EvenParity
	l.hasAcked = false
}

// SendNak rejects the block just received.
func (l *Link) SendNak() error {
	if err := l.write([]byte{byte(NAK)}); err != nil {
		return err
	}
	l.metrics.incNakSendCount()

	return nil
}
