package rje

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/cctape"
	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
)

// malformedPreview is the number of host bytes of a malformed line included in the warning.
const malformedPreview = 8

// Printer formats print records onto a print sink.
//
// It keeps the physical line position of the form across records; the position
// advances through the carriage-control tape after every printed line.
type Printer struct {
	tape    *cctape.Tape
	line    int
	logger  logger.Logger
	metrics *SessionMetrics
}

func newPrinter(tape *cctape.Tape, l logger.Logger, metrics *SessionMetrics) *Printer {
	return &Printer{tape: tape, logger: l, metrics: metrics}
}

// Line returns the current physical line, 0 to cctape.PageLength-1.
func (p *Printer) Line() int {
	return p.line
}

// PrintRecord writes every line of a print record to w.
//
// A record holds lines of the form code, field separator, text, each ended by a
// line terminator; the last terminator may be missing. Lines without a one-byte
// code and a field separator are logged and skipped.
func (p *Printer) PrintRecord(w io.Writer, data []byte) error {
	for _, ln := range bytes.Split(data, []byte{bsc.LineTerminator}) {
		if len(ln) == 0 {
			continue
		}
		if len(ln) < 2 || ln[1] != bsc.FieldSeparator {
			p.metrics.incMalformedCount()
			p.logger.Warn("rje: skipping malformed print line",
				"line", p.line,
				"bytes", fmt.Sprintf("% X", ln[:min(len(ln), malformedPreview)]),
			)

			continue
		}

		code := ebcdic.DecodeByte(ln[0])
		if err := p.PrintLine(w, code, ebcdic.Decode(ln[2:])); err != nil {
			return err
		}
	}

	return nil
}

// PrintLine writes text followed by the line breaks the carriage-control code
// calls for, and advances the line position. An unknown code is logged and
// treated as a single space.
func (p *Printer) PrintLine(w io.Writer, code rune, text string) error {
	var skip cctape.Skip
	var err error
	if code > 0x7F {
		skip, err = p.tape.Resolve(p.line, cctape.SingleSpace)
		err = errors.Join(err, fmt.Errorf("%w: %q", cctape.ErrUnknownCode, code))
	} else {
		skip, err = p.tape.Resolve(p.line, byte(code))
	}

	if err != nil {
		if !errors.Is(err, cctape.ErrUnknownCode) {
			return err
		}
		p.metrics.incUnknownCodeCount()
		p.logger.Warn("rje: unknown carriage control, single spacing", "code", string(code), "line", p.line)
	}

	p.logger.Debug("rje: carriage control",
		"code", string(code),
		"line", p.line,
		"dest", skip.Destination,
		"blank", skip.Blank,
	)

	var sb strings.Builder
	sb.Grow(len(text) + skip.Blank + 1)
	sb.WriteString(strings.TrimRight(text, " "))
	sb.WriteByte('\n')
	for range skip.Blank {
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("%w: print: %w", ErrSinkWrite, err)
	}

	p.line = skip.Next
	p.metrics.incLineCount()

	return nil
}
