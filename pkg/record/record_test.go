package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single line", "alpha secret1\n"},
		{"sorted file", "alpha secret1\nmu s3\nzeta secret2\n"},
		{"no trailing newline", "alpha secret1\nzeta secret2"},
		{"crlf endings", "alpha secret1\r\nzeta secret2\r\n"},
		{"bare cr endings", "alpha secret1\rzeta secret2\r"},
		{"mixed endings", "alpha secret1\r\nbeta b\rzeta secret2\n"},
		{"blank lines", "\nalpha secret1\n   \n\nzeta secret2\n"},
		{"tabs and runs of spaces", "alpha\t\tsecret1\nbeta    with inner  spaces  \n"},
		{"malformed kept", "alpha secret1\njustoneword\nzeta secret2\n"},
		{"leading whitespace", "   alpha secret1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := Parse([]byte(tt.input))
			assert.Equal(t, tt.input, string(f.Bytes()))
		})
	}
}

func TestParseRecords(t *testing.T) {
	input := "GitHub  ghp secret with spaces  \n\nbroken\n  gitlab\tglpat\n"

	f, malformed := Parse([]byte(input))

	require.Equal(t, 4, f.Len())
	assert.Equal(t, []Record{
		{Name: "GitHub", Secret: "ghp secret with spaces"},
		{Name: "gitlab", Secret: "glpat"},
	}, f.Records())

	require.Len(t, malformed, 1)
	assert.Equal(t, 3, malformed[0].Number)
	assert.True(t, errors.Is(malformed[0], ErrMalformedRecord))
	assert.NotContains(t, malformed[0].Error(), "broken")

	kinds := make([]LineKind, 0, f.Len())
	for _, l := range f.Lines() {
		kinds = append(kinds, l.Kind)
	}
	assert.Equal(t, []LineKind{LineRecord, LineBlank, LineMalformed, LineRecord}, kinds)
}

func TestParseBareCarriageReturns(t *testing.T) {
	f, malformed := Parse([]byte("alpha a\rbeta b\r\ngamma c"))

	require.Empty(t, malformed)
	assert.Equal(t, []Record{
		{Name: "alpha", Secret: "a"},
		{Name: "beta", Secret: "b"},
		{Name: "gamma", Secret: "c"},
	}, f.Records())
	assert.Equal(t, []string{"b"}, Lookup(f.Records(), "BETA"))
}

func TestNames(t *testing.T) {
	f, _ := Parse([]byte("zeta a\nGitHub b\ngithub c\nAlpha d\n"))
	assert.Equal(t, []string{"alpha", "github", "zeta"}, f.Names())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "github", Key("GitHub"))
	// Composed and decomposed forms compare equal.
	assert.Equal(t, Key("caf\u00e9"), Key("cafe\u0301"))
}

func TestOutOfOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"sorted", "alpha a\nbeta b\n", nil},
		{"case insensitive sorted", "Alpha a\nbeta b\nGamma c\n", nil},
		{"one violation", "beta b\nalpha a\ngamma c\n", []int{2}},
		{"malformed lines skipped", "alpha a\nzzz\nbeta b\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := Parse([]byte(tt.input))
			assert.Equal(t, tt.want, OutOfOrder(f))
		})
	}
}
