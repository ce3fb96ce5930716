package bsc

import (
	"github.com/sigurn/crc16"
)

// bccTable computes the BSC block check (CRC-16, polynomial 0x8005, reflected).
var bccTable = crc16.MakeTable(crc16.CRC16_ARC)

// blockCheck returns the CRC over the text and its terminator.
func blockCheck(text []byte, term ControlByte) uint16 {
	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, byte(term))

	return crc16.Checksum(buf, bccTable)
}

// appendBlockCheck appends the two block check characters, low byte first.
func appendBlockCheck(dst, text []byte, term ControlByte) []byte {
	crc := blockCheck(text, term)

	return append(dst, byte(crc), byte(crc>>8))
}
