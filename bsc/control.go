package bsc

import "fmt"

// ControlByte is a value from the BSC control alphabet (EBCDIC line codes).
//
// The interpretation of a byte depends on the decode state: Ack0, Ack1 and RVI are
// only control characters when they follow DLE.
type ControlByte byte

const (
	NUL ControlByte = 0x00 // null, fatal disconnect sentinel at top level
	SOH ControlByte = 0x01 // start of heading
	STX ControlByte = 0x02 // start of text
	ETX ControlByte = 0x03 // end of text
	DLE ControlByte = 0x10 // data link escape
	EM  ControlByte = 0x19 // end of message
	IUS ControlByte = 0x1F // inter-block marker, end of printed line
	ETB ControlByte = 0x26 // end of transmission block
	ESC ControlByte = 0x27 // escape, introduces a carriage-control code
	ENQ ControlByte = 0x2D // enquiry
	SYN ControlByte = 0x32 // synchronous idle (pad)
	EOT ControlByte = 0x37 // end of transmission
	NAK ControlByte = 0x3D // negative acknowledgement

	Ack0 ControlByte = 0x61 // DLE 0x61, even acknowledgement
	Ack1 ControlByte = 0x70 // DLE 0x70, odd acknowledgement
	RVI  ControlByte = 0x7C // DLE 0x7C, reverse interrupt
)

// String returns the mnemonic of the control byte.
func (c ControlByte) String() string {
	switch c {
	case NUL:
		return "NUL"
	case SOH:
		return "SOH"
	case STX:
		return "STX"
	case ETX:
		return "ETX"
	case DLE:
		return "DLE"
	case EM:
		return "EM"
	case IUS:
		return "IUS"
	case ETB:
		return "ETB"
	case ESC:
		return "ESC"
	case ENQ:
		return "ENQ"
	case SYN:
		return "SYN"
	case EOT:
		return "EOT"
	case NAK:
		return "NAK"
	case Ack0:
		return "ACK0"
	case Ack1:
		return "ACK1"
	case RVI:
		return "RVI"
	default:
		return fmt.Sprintf("0x%02X", byte(c))
	}
}

// isBlockEnd reports whether c ends a data block that must be acknowledged.
func isBlockEnd(c ControlByte) bool {
	return c == ETX || c == ETB || c == EM
}

// AckParity is the alternating acknowledgement bit.
type AckParity uint8

const (
	EvenParity AckParity = 0
	OddParity  AckParity = 1
)

// Next returns the opposite parity.
func (p AckParity) Next() AckParity {
	return p ^ 1
}

// Ack returns the DLE-second byte acknowledging a block with this parity.
func (p AckParity) Ack() ControlByte {
	if p == EvenParity {
		return Ack0
	}

	return Ack1
}

func (p AckParity) String() string {
	if p == EvenParity {
		return "even"
	}

	return "odd"
}

// Outcome classifies the remote's response to a transmitted frame.
type Outcome int

const (
	Affirmative        Outcome = iota // DLE ACK0 / DLE ACK1
	AffirmativeRequest                // ENQ, remote wants to interrupt
	AffirmativeRVI                    // DLE RVI
	Negative                          // NAK
	NegativeDisconnect                // EOT
)

// IsAffirmative reports whether the remote accepted the frame.
func (o Outcome) IsAffirmative() bool {
	return o == Affirmative || o == AffirmativeRequest || o == AffirmativeRVI
}

func (o Outcome) String() string {
	switch o {
	case Affirmative:
		return "Affirmative"
	case AffirmativeRequest:
		return "AffirmativeRequest"
	case AffirmativeRVI:
		return "AffirmativeRVI"
	case Negative:
		return "Negative"
	case NegativeDisconnect:
		return "NegativeDisconnect"
	default:
		return "Unknown"
	}
}
