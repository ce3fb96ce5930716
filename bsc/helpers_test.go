package bsc

import (
	"bytes"
	"io"
	"testing"

	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
)

// bufferConn is an in-memory duplex stream: reads drain in, writes collect in out.
type bufferConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func (c *bufferConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *bufferConn) Write(p []byte) (int, error) { return c.out.Write(p) }

var _ io.ReadWriter = (*bufferConn)(nil)

// newTestConfig creates a LinkConfig with a quiet logger.
func newTestConfig(t *testing.T, opts ...LinkOption) *LinkConfig {
	t.Helper()

	defaults := []LinkOption{WithLogger(logger.NewSlog(io.Discard, logger.DebugLevel, false))}

	cfg, err := NewLinkConfig(append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newBufferLink creates a Link reading the given inbound bytes.
// Returns the link and the connection collecting everything the link writes.
func newBufferLink(t *testing.T, inbound []byte, opts ...LinkOption) (*Link, *bufferConn) {
	t.Helper()

	conn := &bufferConn{in: bytes.NewReader(inbound)}

	return NewLink(conn, newTestConfig(t, opts...)), conn
}

// wire concatenates control bytes, raw byte slices and local text (translated to host code).
func wire(parts ...any) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case ControlByte:
			out = append(out, byte(v))
		case byte:
			out = append(out, v)
		case []byte:
			out = append(out, v...)
		case string:
			out = append(out, ebcdic.Encode(v)...)
		default:
			panic("wire: unsupported part")
		}
	}

	return out
}

// host translates a single local character to host code.
func host(r rune) byte {
	b, _ := ebcdic.EncodeByte(r)
	return b
}

func ackBytes(parity AckParity) []byte {
	return AckFrame(DefaultSyncCount, parity)
}
