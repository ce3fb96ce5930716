// Package bsc implements the subset of Binary Synchronous Communications (bisync)
// spoken between the RJE terminal and the host spooling service.
//
// # Protocol Overview
//
// The link is half-duplex: exactly one side transmits at a time. A frame on the
// wire is
//
//	SYN SYN DLE STX <payload> DLE <terminator> [BCC BCC]
//
// where the terminator is ETX, ETB or EM for a data block and EOT for the last
// frame of a transmission. After each frame the sender waits for the receiver's
// response:
//
//   - DLE 0x61 / DLE 0x70: affirmative acknowledgement, even / odd parity
//   - DLE 0x7C: affirmative with reverse interrupt (RVI)
//   - ENQ: affirmative, the remote requests the line
//   - NAK: negative acknowledgement
//   - EOT: negative, the remote disconnects
//
// Acknowledgement parity alternates on every accepted block so the sender can
// detect a lost or duplicated block.
//
// # Decoding
//
// Inbound bytes are interpreted by a [Decoder], an explicit state machine whose
// states (normal, after DLE, after SOH, after ESC) each have a closed transition
// table. The same byte means different things in different states: an ESC introduces
// a carriage-control code, an SOH ESC pair a printer preamble, and a DLE selects
// frame delimiters. Print records come out as lines of "code<TAB>text"; once the
// host selects the punch component, records are raw card images.
//
// Unrecognized DLE sequences inside a frame fail with [ErrUnexpectedControl] rather
// than being guessed at.
package bsc
