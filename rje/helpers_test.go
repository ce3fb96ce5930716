package rje

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
	"github.com/stretchr/testify/require"
)

// hostPeer is the remote end of a session in tests.
type hostPeer struct {
	conn   net.Conn
	reader *bufio.Reader
}

// newPipeSession creates a session connected to a host peer over net.Pipe.
func newPipeSession(t *testing.T, job int, opts ...SessionOption) (*Session, *hostPeer) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})

	opts = append([]SessionOption{WithLogger(logger.NewSlog(io.Discard, logger.DebugLevel, false))}, opts...)
	cfg, err := NewSessionConfig(job, opts...)
	require.NoError(t, err)

	s, err := NewSession(local, cfg)
	require.NoError(t, err)

	return s, &hostPeer{conn: remote, reader: bufio.NewReader(remote)}
}

// readFrame reads one outbound frame: a line bid up to ENQ, or a data frame up to
// its terminator. Block checks are not expected.
func (p *hostPeer) readFrame() ([]byte, error) {
	var frame []byte
	inText := false
	for {
		b, err := p.reader.ReadByte()
		if err != nil {
			return frame, err
		}
		frame = append(frame, b)

		if !inText && bsc.ControlByte(b) == bsc.ENQ {
			return frame, nil
		}
		if bsc.ControlByte(b) != bsc.DLE {
			continue
		}

		next, err := p.reader.ReadByte()
		if err != nil {
			return frame, err
		}
		frame = append(frame, next)

		switch bsc.ControlByte(next) {
		case bsc.STX:
			inText = true
		case bsc.ETX, bsc.ETB, bsc.EM, bsc.EOT:
			return frame, nil
		}
	}
}

// readN reads exactly n bytes, such as an acknowledgement frame.
func (p *hostPeer) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(p.reader, buf)

	return buf, err
}

func (p *hostPeer) write(b []byte) error {
	_, err := p.conn.Write(b)

	return err
}

// wire concatenates control bytes, raw bytes and local text encoded to host code.
func wire(parts ...any) []byte {
	var buf bytes.Buffer
	for _, part := range parts {
		switch v := part.(type) {
		case bsc.ControlByte:
			buf.WriteByte(byte(v))
		case byte:
			buf.WriteByte(v)
		case []byte:
			buf.Write(v)
		case string:
			buf.Write(ebcdic.Encode(v))
		default:
			panic("wire: unsupported part")
		}
	}

	return buf.Bytes()
}

// dataFrame wraps payload in SYN SYN DLE STX ... DLE term.
func dataFrame(term bsc.ControlByte, payload ...any) []byte {
	return wire(bsc.SYN, bsc.SYN, bsc.DLE, bsc.STX, wire(payload...), bsc.DLE, term)
}

func ackBytes(parity bsc.AckParity) []byte {
	return bsc.AckFrame(bsc.DefaultSyncCount, parity)
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrShortWrite }
