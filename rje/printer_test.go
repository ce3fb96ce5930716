package rje

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/cctape"
	"github.com/arloliu/go-rje/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *SessionMetrics) {
	t.Helper()

	metrics := &SessionMetrics{}
	l := logger.NewSlog(io.Discard, logger.DebugLevel, false)

	return newPrinter(cctape.MustBuild(cctape.DefaultSpec), l, metrics), metrics
}

// printRecord builds a host-code print record from code/text pairs.
func printRecord(lines ...string) []byte {
	parts := make([]any, 0, len(lines)*4)
	for _, ln := range lines {
		code, text, _ := strings.Cut(ln, "\t")
		parts = append(parts, code, bsc.FieldSeparator, text, bsc.LineTerminator)
	}

	return wire(parts...)
}

func TestPrinter_Spacing(t *testing.T) {
	p, metrics := newTestPrinter(t)

	var out bytes.Buffer
	require.NoError(t, p.PrintRecord(&out, printRecord("/\tA", "S\tB", "T\tC")))

	assert.Equal(t, "A\nB\n\nC\n\n\n", out.String())
	assert.Equal(t, 6, p.Line())
	assert.Equal(t, uint64(3), metrics.LineCount.Load())
}

func TestPrinter_ChannelSkip(t *testing.T) {
	p, _ := newTestPrinter(t)

	var out bytes.Buffer
	require.NoError(t, p.PrintRecord(&out, printRecord("/\tA", "C\tTOTALS")))
	assert.Equal(t, 65, p.Line())
	assert.Equal(t, "A\nTOTALS\n"+strings.Repeat("\n", 63), out.String())

	out.Reset()
	require.NoError(t, p.PrintRecord(&out, printRecord("H\tPAGE 2")))
	assert.Equal(t, 0, p.Line())
	assert.Equal(t, "PAGE 2\n", out.String())
}

func TestPrinter_MissingFinalTerminator(t *testing.T) {
	p, _ := newTestPrinter(t)

	var out bytes.Buffer
	rec := wire("/", bsc.FieldSeparator, "ONE", bsc.LineTerminator, "/", bsc.FieldSeparator, "TWO")
	require.NoError(t, p.PrintRecord(&out, rec))
	assert.Equal(t, "ONE\nTWO\n", out.String())
}

func TestPrinter_TrimsTrailingBlanks(t *testing.T) {
	p, _ := newTestPrinter(t)

	var out bytes.Buffer
	require.NoError(t, p.PrintLine(&out, '/', "REPORT    "))
	assert.Equal(t, "REPORT\n", out.String())
}

func TestPrinter_MalformedLineSkipped(t *testing.T) {
	m := logger.NewMockLogger()
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Warn", "rje: skipping malformed print line", mock.Anything).Once()

	metrics := &SessionMetrics{}
	p := newPrinter(cctape.MustBuild(cctape.DefaultSpec), m, metrics)

	var out bytes.Buffer
	rec := wire("GARBAGE", bsc.LineTerminator, "/", bsc.FieldSeparator, "OK", bsc.LineTerminator)
	require.NoError(t, p.PrintRecord(&out, rec))

	assert.Equal(t, "OK\n", out.String())
	assert.Equal(t, 1, p.Line())
	assert.Equal(t, uint64(1), metrics.MalformedCount.Load())
	m.AssertExpectations(t)
}

func TestPrinter_UnknownCodeSingleSpaces(t *testing.T) {
	m := logger.NewMockLogger()
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Warn", "rje: unknown carriage control, single spacing", mock.Anything).Twice()

	metrics := &SessionMetrics{}
	p := newPrinter(cctape.MustBuild(cctape.DefaultSpec), m, metrics)

	var out bytes.Buffer
	require.NoError(t, p.PrintLine(&out, '?', "ODD"))
	require.NoError(t, p.PrintLine(&out, 'é', "ACCENT"))

	assert.Equal(t, "ODD\nACCENT\n", out.String())
	assert.Equal(t, 2, p.Line())
	assert.Equal(t, uint64(2), metrics.UnknownCodeCount.Load())
	m.AssertExpectations(t)
}

func TestPrinter_Wraparound(t *testing.T) {
	p, _ := newTestPrinter(t)

	for range cctape.PageLength {
		require.NoError(t, p.PrintLine(io.Discard, rune(cctape.SingleSpace), "X"))
	}
	assert.Equal(t, 0, p.Line())
}

func TestPrinter_SinkFailure(t *testing.T) {
	p, metrics := newTestPrinter(t)

	err := p.PrintLine(failingWriter{}, rune(cctape.DoubleSpace), "LOST")
	require.ErrorIs(t, err, ErrSinkWrite)
	assert.Equal(t, 0, p.Line())
	assert.Zero(t, metrics.LineCount.Load())
}
