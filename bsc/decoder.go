package bsc

import (
	"errors"
	"fmt"
	"iter"

	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/internal/util"
	"github.com/arloliu/go-rje/logger"
)

// Separators inserted into print records, in host code. They translate to '\n'
// and '\t' in local text.
const (
	LineTerminator byte = 0x25
	FieldSeparator byte = 0x05
)

// decodeState is the interpretation context of the next inbound byte.
type decodeState int

const (
	stateNormal   decodeState = iota
	stateDLE                  // after DLE: frame delimiter, literal DLE or idle
	stateESC                  // after ESC: one carriage-control code
	stateSOH                  // after SOH: ESC starts a preamble, anything else is addressing
	stateSOHESC               // after SOH ESC: component identifier
	stateSOHESCID             // after SOH ESC id: carriage-control code
)

func (s decodeState) String() string {
	switch s {
	case stateNormal:
		return "normal"
	case stateDLE:
		return "after-DLE"
	case stateESC:
		return "after-ESC"
	case stateSOH:
		return "after-SOH"
	case stateSOHESC:
		return "after-SOH-ESC"
	case stateSOHESCID:
		return "after-SOH-ESC-id"
	default:
		return "unknown"
	}
}

// Record is one decoded block.
type Record struct {
	// Data holds host-code bytes. For print records, each line is a one-byte
	// carriage-control code, FieldSeparator, the text and LineTerminator.
	// For punch records it is the raw card image data.
	Data []byte
	// Punch reports whether the block was received in punch mode.
	Punch bool
	// Terminator is the control byte that ended the block.
	Terminator ControlByte
}

// Decoder is a pull-based cursor over the inbound byte stream of one session.
//
// Each call to Next consumes bytes until a block terminator, acknowledges the block
// through the link and returns its record. A Decoder is finite per transmission and
// not restartable.
type Decoder struct {
	link   *Link
	logger logger.Logger

	state decodeState
	// punch is set once the host selects the punch component.
	punch bool
	// extended is set once an SOH ESC preamble has been seen; SYN bytes inside a
	// frame are data from then on.
	extended bool
	// inText is set between the start-of-text marker and the block terminator.
	inText bool
	// blockPunch and blockExtended hold the modes in force when the block started,
	// restored when the block is rejected.
	blockPunch    bool
	blockExtended bool
	// firstCode is true until the first carriage-control code of the current block.
	firstCode bool
	// soh holds the component identifier of the current SOH ESC preamble.
	soh byte

	rec []byte
	// raw is the block text exactly as received, for the block check.
	raw []byte
}

// NewDecoder creates a decoder that acknowledges blocks through link.
func NewDecoder(link *Link) *Decoder {
	return &Decoder{
		link:   link,
		logger: link.logger,
		rec:    make([]byte, 0, 256),
		raw:    make([]byte, 0, 256),
	}
}

// InPunchMode reports whether the transmission has switched to punch output.
func (d *Decoder) InPunchMode() bool {
	return d.punch
}

// Next decodes the next block.
//
// It returns ErrEndOfTransmission when the remote ends the transmission with EOT; no
// acknowledgement is sent in that case. Transport failures are wrapped in
// ErrTransportDisconnect and unrecognized DLE sequences in ErrUnexpectedControl.
func (d *Decoder) Next() (*Record, error) {
	d.reset()

	for {
		b, err := d.link.readByte()
		if err != nil {
			return nil, err
		}

		rec, done, err := d.step(b)
		if err != nil || done {
			return rec, err
		}
	}
}

// Records returns an iterator over the blocks of one transmission. Iteration stops
// after EOT or the first error.
func (d *Decoder) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := d.Next()
			if errors.Is(err, ErrEndOfTransmission) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (d *Decoder) reset() {
	d.state = stateNormal
	d.firstCode = true
	d.inText = false
	d.blockPunch = d.punch
	d.blockExtended = d.extended
	d.rec = d.rec[:0]
	d.raw = d.raw[:0]
}

// step applies one byte to the state machine. done reports that a block ended.
func (d *Decoder) step(b byte) (*Record, bool, error) {
	c := ControlByte(b)

	switch d.state {
	case stateNormal:
		return d.stepNormal(b)

	case stateDLE:
		d.state = stateNormal
		switch {
		case c == STX:
			d.raw = d.raw[:0]
			d.inText = true
		case isBlockEnd(c):
			return d.endBlock(c)
		case c == EOT:
			return nil, true, ErrEndOfTransmission
		case c == DLE:
			d.appendData(b)
		case c == SYN:
			// transparent idle fill
		default:
			return nil, true, fmt.Errorf("%w: DLE %s in %s state", ErrUnexpectedControl, c, stateDLE)
		}

	case stateESC:
		d.state = stateNormal
		d.raw = append(d.raw, b)
		d.carriageControl(b)

	case stateSOH:
		d.raw = append(d.raw, b)
		if c == ESC {
			d.state = stateSOHESC
			d.extended = true
		} else {
			d.state = stateNormal
			d.rec = append(d.rec, b)
		}

	case stateSOHESC:
		d.raw = append(d.raw, b)
		d.soh = b
		d.state = stateSOHESCID

	case stateSOHESCID:
		d.raw = append(d.raw, b)
		d.state = stateNormal
		d.logger.Debug("bsc: printer preamble", "component", fmt.Sprintf("%02X", d.soh), "code", fmt.Sprintf("%02X", b))
		d.carriageControl(b)
	}

	return nil, false, nil
}

func (d *Decoder) stepNormal(b byte) (*Record, bool, error) {
	c := ControlByte(b)

	switch c {
	case SYN:
		// padding ahead of the start-of-text marker never reaches the record
		d.raw = append(d.raw, b)
		if d.extended && d.inText {
			d.rec = append(d.rec, b)
		}
	case DLE:
		d.state = stateDLE
	case STX:
		if len(d.rec) == 0 {
			d.raw = d.raw[:0]
		}
		d.inText = true
	case SOH:
		d.raw = append(d.raw, b)
		d.state = stateSOH
	case IUS:
		d.raw = append(d.raw, b)
		if !d.punch {
			d.rec = append(d.rec, LineTerminator)
		}
	case ESC:
		d.raw = append(d.raw, b)
		d.state = stateESC
	case ETX, ETB, EM:
		return d.endBlock(c)
	case EOT:
		return nil, true, ErrEndOfTransmission
	case ENQ:
		if len(d.rec) == 0 {
			d.logger.Debug("bsc: enquiry, repeating last acknowledgement")
			if err := d.link.RepeatAck(); err != nil {
				return nil, true, err
			}

			return nil, false, nil
		}
		d.appendData(b)
	default:
		d.appendData(b)
	}

	return nil, false, nil
}

func (d *Decoder) appendData(b byte) {
	d.raw = append(d.raw, b)
	d.rec = append(d.rec, b)
}

// carriageControl handles the code following ESC. The punch marker as the first
// code of a block discards what was gathered so far and selects punch output.
func (d *Decoder) carriageControl(code byte) {
	first := d.firstCode
	d.firstCode = false

	if first && code == d.link.cfg.punchMarker {
		if !d.punch {
			d.logger.Info("bsc: punch component selected")
		}
		d.rec = d.rec[:0]
		d.punch = true

		return
	}

	if !d.punch {
		d.rec = append(d.rec, code, FieldSeparator)
	}
}

// endBlock verifies the block check, acknowledges the block and returns its record.
// A block failing the check is rejected with NAK and decoding continues with the
// retransmission.
func (d *Decoder) endBlock(term ControlByte) (*Record, bool, error) {
	if d.link.cfg.blockCheck {
		ok, err := d.verifyBlockCheck(term)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			if err := d.link.SendNak(); err != nil {
				return nil, true, err
			}
			d.punch = d.blockPunch
			d.extended = d.blockExtended
			d.reset()

			return nil, false, nil
		}
	}

	if err := d.link.Acknowledge(); err != nil {
		return nil, true, err
	}
	d.link.metrics.incBlockRecvCount()

	rec := &Record{
		Data:       util.CloneSlice(d.rec, 0),
		Punch:      d.punch,
		Terminator: term,
	}
	d.logger.Debug("bsc: block received",
		"terminator", term.String(),
		"punch", rec.Punch,
		"text", ebcdic.Decode(rec.Data),
	)

	return rec, true, nil
}

func (d *Decoder) verifyBlockCheck(term ControlByte) (bool, error) {
	lo, err := d.link.readByte()
	if err != nil {
		return false, err
	}
	hi, err := d.link.readByte()
	if err != nil {
		return false, err
	}

	want := blockCheck(d.raw, term)
	got := uint16(lo) | uint16(hi)<<8
	if got != want {
		d.logger.Warn("bsc: block check mismatch, sending NAK",
			"error", ErrBlockCheck,
			"got", fmt.Sprintf("%04X", got),
			"want", fmt.Sprintf("%04X", want),
		)

		return false, nil
	}

	return true, nil
}
