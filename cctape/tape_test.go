package cctape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultSpec(t *testing.T) {
	tape, err := Build(DefaultSpec)
	require.NoError(t, err)
	assert.Equal(t, DefaultSpec, tape.String())

	tests := []struct {
		name  string
		line  int
		code  byte
		dest  int
		blank int
		next  int
	}{
		{name: "A from top", line: 0, code: 'A', dest: 3, blank: 2, next: 3},
		{name: "A from its own line wraps", line: 3, code: 'A', dest: 69, blank: 65, next: 3},
		{name: "C mid page", line: 4, code: 'C', dest: 65, blank: 60, next: 65},
		{name: "C from last line is a full page", line: 65, code: 'C', dest: 131, blank: 65, next: 65},
		{name: "H is top of next form", line: 4, code: 'H', dest: 66, blank: 61, next: 0},
		{name: "H from top", line: 0, code: 'H', dest: 66, blank: 65, next: 0},
		{name: "single", line: 10, code: SingleSpace, dest: 11, blank: 0, next: 11},
		{name: "double", line: 10, code: DoubleSpace, dest: 12, blank: 1, next: 12},
		{name: "triple near bottom", line: 64, code: TripleSpace, dest: 67, blank: 2, next: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, err := tape.Resolve(tt.line, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.dest, skip.Destination)
			assert.Equal(t, tt.blank, skip.Blank)
			assert.Equal(t, tt.next, skip.Next)
		})
	}
}

func TestBuild_UnpunchedChannelIsNewline(t *testing.T) {
	tape := MustBuild(DefaultSpec)

	for _, ch := range []byte{'B', 'D', 'E', 'F', 'G'} {
		for line := range PageLength {
			dest, err := tape.Destination(line, ch)
			require.NoError(t, err)
			assert.Equal(t, line+1, dest, "channel %c line %d", ch, line)
		}
	}
}

func TestBuild_EveryEntryDefined(t *testing.T) {
	tape := MustBuild("10:B,20:B,0:H")

	for line := range PageLength {
		for ch := byte('A'); ch < 'A'+NumChannels; ch++ {
			dest, err := tape.Destination(line, ch)
			require.NoError(t, err)
			assert.Greater(t, dest, line)
		}
	}

	dest, _ := tape.Destination(5, 'B')
	assert.Equal(t, 10, dest)
	dest, _ = tape.Destination(10, 'B')
	assert.Equal(t, 20, dest)
	dest, _ = tape.Destination(25, 'B')
	assert.Equal(t, 10+PageLength, dest)
}

func TestBuild_UnorderedEntries(t *testing.T) {
	ordered := MustBuild("3:A,30:A,65:C")
	unordered := MustBuild("65:C,30:A,3:A")

	assert.Equal(t, ordered.dest, unordered.dest)
}

func TestBuild_Idempotent(t *testing.T) {
	first := MustBuild(DefaultSpec)
	second := MustBuild(first.String())

	assert.Equal(t, first.dest, second.dest)
}

func TestBuild_NegativeLineIsBottomOfForm(t *testing.T) {
	tape := MustBuild("-1:D")

	dest, err := tape.Destination(0, 'D')
	require.NoError(t, err)
	assert.Equal(t, PageLength, dest)
}

func TestBuild_EmptySpec(t *testing.T) {
	tape, err := Build("")
	require.NoError(t, err)

	skip, err := tape.Resolve(7, 'H')
	require.NoError(t, err)
	assert.Equal(t, 8, skip.Destination)
}

func TestBuild_InvalidSpec(t *testing.T) {
	specs := []string{
		"3A",
		"x:A",
		"3:Z",
		"3:AB",
		"66:A",
		"3:A,",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			_, err := Build(spec)
			require.ErrorIs(t, err, ErrInvalidSpec)
		})
	}

	assert.Panics(t, func() { MustBuild("bad") })
}

func TestResolve_UnknownCode(t *testing.T) {
	tape := MustBuild(DefaultSpec)

	skip, err := tape.Resolve(5, 'Q')
	require.ErrorIs(t, err, ErrUnknownCode)
	assert.Equal(t, 6, skip.Destination)
	assert.Equal(t, 0, skip.Blank)
	assert.Equal(t, 6, skip.Next)
}

func TestResolve_LineRange(t *testing.T) {
	tape := MustBuild(DefaultSpec)

	_, err := tape.Resolve(PageLength, SingleSpace)
	require.ErrorIs(t, err, ErrLineRange)

	_, err = tape.Destination(-1, 'A')
	require.ErrorIs(t, err, ErrLineRange)
}

func TestResolve_SingleSpaceWraparound(t *testing.T) {
	tape := MustBuild(DefaultSpec)

	line := 0
	for range PageLength {
		skip, err := tape.Resolve(line, SingleSpace)
		require.NoError(t, err)
		line = skip.Next
	}
	assert.Equal(t, 0, line)
}

func TestIsChannel(t *testing.T) {
	assert.True(t, IsChannel('A'))
	assert.True(t, IsChannel('H'))
	assert.False(t, IsChannel('I'))
	assert.False(t, IsChannel('/'))
}
