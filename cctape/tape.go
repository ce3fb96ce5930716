// Package cctape models the carriage-control tape of the emulated line printer.
//
// A tape is punched in up to eight channels (A through H). Skipping to a channel
// advances the paper to the next line punched in that channel, wrapping onto the
// next page when no punch remains below the current line. Destination lines above
// the last line of the page encode "next page": line K of the next page is stored
// as K+PageLength.
package cctape

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// PageLength is the number of physical lines on a page.
	PageLength = 66

	// NumChannels is the number of punchable channels on the tape.
	NumChannels = 8

	// DefaultSpec punches channel H at the top of form, channel A at line 3
	// and channel C at the last line of the page.
	DefaultSpec = "0:H,3:A,65:C"
)

// Spacing codes carried by print records. Channel skips use the channel letters.
const (
	SingleSpace byte = '/'
	DoubleSpace byte = 'S'
	TripleSpace byte = 'T'
)

var (
	// ErrInvalidSpec reports a malformed "line:channel" tape specification.
	ErrInvalidSpec = errors.New("cctape: invalid tape specification")

	// ErrUnknownCode reports a carriage-control code that is neither a spacing code
	// nor a channel. Resolve returns it together with a single-space Skip.
	ErrUnknownCode = errors.New("cctape: unrecognized carriage-control code")

	// ErrLineRange reports a line outside 0 to PageLength-1.
	ErrLineRange = errors.New("cctape: line number out of range")
)

// Tape answers "on line L, skip to channel C: which line do I land on?".
//
// A Tape is immutable after Build and safe for concurrent use.
type Tape struct {
	spec string
	dest [PageLength][NumChannels]int
}

// Skip is the result of resolving a carriage-control code on a line.
type Skip struct {
	// Destination is the raw destination line; values above PageLength-1 are on the next page.
	Destination int
	// Blank is the number of blank lines to emit after the printed line's own line break.
	Blank int
	// Next is Destination normalized back onto the page, the line number for the next lookup.
	Next int
}

type punch struct {
	line    int
	channel int
}

// Build constructs a tape from a comma-separated "line:channel" specification,
// for example DefaultSpec. A line of 0 or less means bottom-of-form wraparound and
// is stored as line PageLength.
func Build(spec string) (*Tape, error) {
	punches, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	// Earliest upcoming punch wins, so punches are applied in line order.
	sort.SliceStable(punches, func(i, j int) bool { return punches[i].line < punches[j].line })

	t := &Tape{spec: spec}
	first := [NumChannels]int{}
	for ch := range first {
		first[ch] = -1
	}

	for _, p := range punches {
		if first[p.channel] < 0 {
			first[p.channel] = p.line
		}
		for line := 0; line < p.line && line < PageLength; line++ {
			if t.dest[line][p.channel] == 0 {
				t.dest[line][p.channel] = p.line
			}
		}
	}

	for ch := range NumChannels {
		for line := range PageLength {
			if t.dest[line][ch] != 0 {
				continue
			}
			if first[ch] < 0 {
				// Unpunched channel behaves like a plain newline.
				t.dest[line][ch] = line + 1
			} else {
				t.dest[line][ch] = first[ch] + PageLength
			}
		}
	}

	return t, nil
}

// MustBuild is like Build but panics if the specification is invalid.
func MustBuild(spec string) *Tape {
	t, err := Build(spec)
	if err != nil {
		panic(err)
	}

	return t
}

func parseSpec(spec string) ([]punch, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	entries := strings.Split(spec, ",")
	punches := make([]punch, 0, len(entries))
	for _, entry := range entries {
		lineStr, chStr, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q is not line:channel", ErrInvalidSpec, entry)
		}

		line, err := strconv.Atoi(strings.TrimSpace(lineStr))
		if err != nil {
			return nil, fmt.Errorf("%w: bad line in %q: %w", ErrInvalidSpec, entry, err)
		}
		if line >= PageLength {
			return nil, fmt.Errorf("%w: line %d beyond page length %d", ErrInvalidSpec, line, PageLength)
		}
		if line <= 0 {
			line = PageLength
		}

		chStr = strings.ToUpper(strings.TrimSpace(chStr))
		if len(chStr) != 1 || !IsChannel(chStr[0]) {
			return nil, fmt.Errorf("%w: bad channel %q in %q", ErrInvalidSpec, chStr, entry)
		}

		punches = append(punches, punch{line: line, channel: int(chStr[0] - 'A')})
	}

	return punches, nil
}

// IsChannel reports whether code is a skip-to-channel code (A through H).
func IsChannel(code byte) bool {
	return code >= 'A' && code < 'A'+NumChannels
}

// String returns the specification the tape was built from.
func (t *Tape) String() string {
	return t.spec
}

// Destination returns the raw destination line for a skip to channel from line.
func (t *Tape) Destination(line int, channel byte) (int, error) {
	if line < 0 || line >= PageLength {
		return 0, fmt.Errorf("%w: %d", ErrLineRange, line)
	}
	if !IsChannel(channel) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCode, channel)
	}

	return t.dest[line][channel-'A'], nil
}

// Resolve computes where the paper lands after printing on line with the given
// carriage-control code.
//
// An unrecognized code resolves as a single space and is reported with ErrUnknownCode
// alongside the valid Skip, so callers can warn and continue.
func (t *Tape) Resolve(line int, code byte) (Skip, error) {
	if line < 0 || line >= PageLength {
		return Skip{}, fmt.Errorf("%w: %d", ErrLineRange, line)
	}

	var dest int
	var err error
	switch {
	case code == SingleSpace:
		dest = line + 1
	case code == DoubleSpace:
		dest = line + 2
	case code == TripleSpace:
		dest = line + 3
	case IsChannel(code):
		dest = t.dest[line][code-'A']
	default:
		dest = line + 1
		err = fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}

	return Skip{
		Destination: dest,
		Blank:       dest - line - 1,
		Next:        Normalize(dest),
	}, err
}

// Normalize folds a destination line onto the page.
func Normalize(line int) int {
	if line >= PageLength {
		return line - PageLength
	}

	return line
}
