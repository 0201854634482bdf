package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	f, _ := Parse([]byte("alpha a1\nGitHub g1\nbeta b\ngithub g2\n"))

	tests := []struct {
		name string
		key  string
		want []string
	}{
		{"single", "alpha", []string{"a1"}},
		{"duplicates in order", "github", []string{"g1", "g2"}},
		{"case insensitive", "GITHUB", []string{"g1", "g2"}},
		{"missing", "gamma", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(f.Records(), tt.key))
		})
	}
}

func TestSearch(t *testing.T) {
	records := []Record{{Name: "GitHub", Secret: "x"}, {Name: "gitlab", Secret: "y"}, {Name: "bank", Secret: "z"}}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"substring", "git", []string{"github", "gitlab"}},
		{"uppercase pattern", "GIT", []string{"github", "gitlab"}},
		{"anchored", "^git.*lab$", []string{"gitlab"}},
		{"anywhere in name", "ank", []string{"bank"}},
		{"no match", "mail", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Search(records, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchDeduplicates(t *testing.T) {
	records := []Record{{Name: "GitHub", Secret: "x"}, {Name: "github", Secret: "y"}}

	got, err := Search(records, "hub")
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, got)
}

func TestSearchInvalidPattern(t *testing.T) {
	_, err := Search(nil, "git(")
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = CompilePattern("[a-")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
