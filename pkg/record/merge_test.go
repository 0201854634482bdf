package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertScenarios(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		key    string
		secret string
		want   string
		op     Op
		line   int
	}{
		{
			name:   "insert before greater name",
			input:  "alpha secret1\nzeta secret2\n",
			key:    "mu",
			secret: "s3",
			want:   "alpha secret1\nmu s3\nzeta secret2\n",
			op:     OpInsert,
			line:   1,
		},
		{
			name:   "replace existing name",
			input:  "alpha secret1\nzeta secret2\n",
			key:    "alpha",
			secret: "newsecret",
			want:   "alpha newsecret\nzeta secret2\n",
			op:     OpReplace,
			line:   0,
		},
		{
			name:   "insert keeps bare carriage returns",
			input:  "alpha secret1\rzeta secret2\r",
			key:    "mu",
			secret: "s3",
			want:   "alpha secret1\rmu s3\rzeta secret2\r",
			op:     OpInsert,
			line:   1,
		},
		{
			name:   "insert before last line",
			input:  "beta s\n",
			key:    "alpha",
			secret: "s2",
			want:   "alpha s2\nbeta s\n",
			op:     OpInsert,
			line:   0,
		},
		{
			name:   "append after last line",
			input:  "alpha s\n",
			key:    "beta",
			secret: "s2",
			want:   "alpha s\nbeta s2\n",
			op:     OpAppend,
			line:   1,
		},
		{
			name:   "empty file appends",
			input:  "",
			key:    "alpha",
			secret: "s",
			want:   "alpha s\n",
			op:     OpAppend,
			line:   0,
		},
		{
			name:   "append terminates unterminated last line",
			input:  "alpha s",
			key:    "beta",
			secret: "s2",
			want:   "alpha s\nbeta s2\n",
			op:     OpAppend,
			line:   1,
		},
		{
			name:   "replace is case insensitive and keeps the given name",
			input:  "GitHub old\n",
			key:    "github",
			secret: "new",
			want:   "github new\n",
			op:     OpReplace,
			line:   0,
		},
		{
			name:   "secret is stripped",
			input:  "alpha a\n",
			key:    "beta",
			secret: "  padded secret \t",
			want:   "alpha a\nbeta padded secret\n",
			op:     OpAppend,
			line:   1,
		},
		{
			name:   "crlf files get crlf lines",
			input:  "alpha a\r\nzeta z\r\n",
			key:    "mu",
			secret: "m",
			want:   "alpha a\r\nmu m\r\nzeta z\r\n",
			op:     OpInsert,
			line:   1,
		},
		{
			name:   "malformed and blank lines are skipped for comparison",
			input:  "alpha a\n\nbroken\nzeta z\n",
			key:    "mu",
			secret: "m",
			want:   "alpha a\n\nbroken\nmu m\nzeta z\n",
			op:     OpInsert,
			line:   3,
		},
		{
			name:   "only first duplicate is replaced",
			input:  "alpha one\nalpha two\n",
			key:    "alpha",
			secret: "three",
			want:   "alpha three\nalpha two\n",
			op:     OpReplace,
			line:   0,
		},
		{
			name:   "unsorted input inserts before first greater name",
			input:  "zeta z\nalpha a\n",
			key:    "mu",
			secret: "m",
			want:   "mu m\nzeta z\nalpha a\n",
			op:     OpInsert,
			line:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := Parse([]byte(tt.input))

			got, change, err := Upsert(f, tt.key, tt.secret)
			require.NoError(t, err)

			assert.Equal(t, tt.want, string(got.Bytes()))
			assert.Equal(t, tt.op, change.Op)
			assert.Equal(t, tt.line, change.Line)
			assert.Equal(t, tt.key, change.Name)

			// Input is not modified.
			assert.Equal(t, tt.input, string(f.Bytes()))
		})
	}
}

func TestUpsertReplaceReportsPreviousSecret(t *testing.T) {
	f, _ := Parse([]byte("alpha secret1\n"))

	_, change, err := Upsert(f, "ALPHA", "x")
	require.NoError(t, err)
	assert.Equal(t, OpReplace, change.Op)
	assert.Equal(t, "secret1", change.Replaced)
}

func TestUpsertSingleMutation(t *testing.T) {
	inputs := []string{
		"",
		"alpha a\n",
		"alpha a\nbeta b\ngamma c\n",
		"gamma c\nalpha a\nbeta b\n",
		"alpha a\nalpha b\n\nbroken\nzeta z",
	}
	names := []string{"alpha", "Beta", "delta", "zzz", "aaa"}

	for _, input := range inputs {
		for _, name := range names {
			f, _ := Parse([]byte(input))
			got, change, err := Upsert(f, name, "new")
			require.NoError(t, err)

			before := f.Records()
			after := got.Records()

			switch change.Op {
			case OpReplace:
				require.Len(t, after, len(before), "input %q name %q", input, name)
				diff := 0
				for i := range before {
					if before[i] != after[i] {
						diff++
					}
				}
				assert.LessOrEqual(t, diff, 1, "input %q name %q", input, name)
			default:
				require.Len(t, after, len(before)+1, "input %q name %q", input, name)
				// Removing the new record yields the original records.
				var rest []Record
				removed := false
				for _, r := range after {
					if !removed && r.Key() == Key(name) && r.Secret == "new" {
						removed = true
						continue
					}
					rest = append(rest, r)
				}
				assert.Equal(t, before, rest, "input %q name %q", input, name)
			}
		}
	}
}

func TestUpsertIdempotentReplace(t *testing.T) {
	f, _ := Parse([]byte("alpha a\nzeta z\n"))

	once, _, err := Upsert(f, "mu", "s1")
	require.NoError(t, err)
	twice, change, err := Upsert(once, "MU", "s2")
	require.NoError(t, err)

	assert.Equal(t, OpReplace, change.Op)
	assert.Equal(t, []string{"s2"}, Lookup(twice.Records(), "mu"))
	assert.Equal(t, once.Len(), twice.Len())
}

func TestUpsertValidation(t *testing.T) {
	f, _ := Parse([]byte("alpha a\n"))

	tests := []struct {
		name    string
		key     string
		secret  string
		wantErr error
	}{
		{"empty name", "", "s", ErrInvalidName},
		{"name with space", "my app", "s", ErrInvalidName},
		{"name with tab", "my\tapp", "s", ErrInvalidName},
		{"empty secret", "app", "", ErrInvalidSecret},
		{"whitespace secret", "app", "   ", ErrInvalidSecret},
		{"multi-line secret", "app", "one\ntwo", ErrInvalidSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Upsert(f, tt.key, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPosition(t *testing.T) {
	f, _ := Parse([]byte("alpha a\nzeta z\n"))

	assert.Equal(t, Change{Op: OpReplace, Line: 1, Name: "Zeta", Replaced: "z"}, Position(f, "Zeta"))
	assert.Equal(t, Change{Op: OpInsert, Line: 1, Name: "mu"}, Position(f, "mu"))
	assert.Equal(t, Change{Op: OpAppend, Line: 2, Name: "zz"}, Position(f, "zz"))
}
