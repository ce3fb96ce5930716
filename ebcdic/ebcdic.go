// Package ebcdic translates between local text and the host's 8-bit card code.
//
// The host side of the RJE link uses EBCDIC (IBM code page 037). Characters with no
// host representation are replaced by the host substitute character rather than
// failing the translation.
package ebcdic

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// CardWidth is the number of columns in a card image.
const CardWidth = 80

// Space is the host code for a blank column.
const Space byte = 0x40

// Encode translates local text into host code.
func Encode(text string) []byte {
	out, err := encoding.ReplaceUnsupported(charmap.CodePage037.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		// ReplaceUnsupported never reports unsupported runes; only invalid
		// UTF-8 reaches here and is translated rune by rune instead.
		return encodeRunes(text)
	}

	return out
}

// Decode translates host code into local text. Every host byte maps to a rune.
func Decode(data []byte) string {
	out, err := charmap.CodePage037.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}

	return string(out)
}

// EncodeByte translates a single local character into host code.
// ok is false when the character has no host representation.
func EncodeByte(r rune) (byte, bool) {
	return charmap.CodePage037.EncodeRune(r)
}

// DecodeByte translates a single host code byte into a local character.
func DecodeByte(b byte) rune {
	return charmap.CodePage037.DecodeByte(b)
}

// Card translates text into an 80-column host card image, padding with host blanks
// or truncating as needed.
func Card(text string) []byte {
	card := make([]byte, CardWidth)
	n := copy(card, Encode(text))
	for i := n; i < CardWidth; i++ {
		card[i] = Space
	}

	return card
}

func encodeRunes(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := EncodeByte(r)
		if !ok {
			b = 0x3F // host SUB
		}
		out = append(out, b)
	}

	return out
}
