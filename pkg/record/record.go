// Package record implements the credential record file: a text blob of
// "name secret" lines kept in case-insensitive name order.
//
// The package is pure. Parsing never fails, serialization reproduces the
// parsed bytes exactly, and Upsert returns a new File instead of modifying
// its input.
//
// # Line Format
//
//	<name><run of whitespace><secret>\n
//
// Names are compared by Key (NFC normalized, lowercased). Secrets may hold
// inner spaces and are stripped of surrounding whitespace. Lines that do not
// split into two tokens are kept verbatim and ignored for matching.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Errors
var (
	ErrMalformedRecord = errors.New("record: malformed line")
	ErrInvalidPattern  = errors.New("record: invalid search pattern")
	ErrInvalidName     = errors.New("record: name must be non-empty and contain no whitespace")
	ErrInvalidSecret   = errors.New("record: secret must be non-empty and fit on one line")
)

// LineKind classifies a raw line of the record file.
type LineKind int

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = iota
	// LineRecord is a well-formed name/secret pair.
	LineRecord
	// LineMalformed could not be split into name and secret.
	LineMalformed
)

// String returns the kind name.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineRecord:
		return "record"
	case LineMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Record is one application name and its secret.
type Record struct {
	Name   string
	Secret string
}

// Key returns the comparison key for the record name.
func (r Record) Key() string {
	return Key(r.Name)
}

// Key returns the case-insensitive comparison key for a name.
func Key(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// Line is one raw line of the record file.
type Line struct {
	// Text is the line exactly as stored, terminator included.
	Text string
	// Kind classifies Text.
	Kind LineKind
	// Record is set when Kind is LineRecord.
	Record Record
}

// terminator returns the line ending of l ("" for an unterminated last line).
func (l Line) terminator() string {
	switch {
	case strings.HasSuffix(l.Text, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(l.Text, "\n"):
		return "\n"
	case strings.HasSuffix(l.Text, "\r"):
		return "\r"
	default:
		return ""
	}
}

// MalformedLine reports a line that could not be parsed.
// It does not carry the line content, which may hold a secret.
type MalformedLine struct {
	// Number is the 1-based line number.
	Number int
}

func (m MalformedLine) Error() string {
	return fmt.Sprintf("record: malformed line %d", m.Number)
}

// Unwrap returns ErrMalformedRecord.
func (m MalformedLine) Unwrap() error {
	return ErrMalformedRecord
}

// File is an immutable, ordered view of a record file.
type File struct {
	lines []Line
}

// Parse splits data into lines ending in "\n", "\r\n" or a bare "\r" and
// classifies each of them.
// It never fails: malformed lines are kept in place and also returned so the
// caller can report them.
func Parse(data []byte) (File, []MalformedLine) {
	var (
		lines     []Line
		malformed []MalformedLine
	)

	rest := data
	for len(rest) > 0 {
		var raw []byte
		switch i := bytes.IndexAny(rest, "\r\n"); {
		case i < 0:
			raw, rest = rest, nil
		case rest[i] == '\r' && i+1 < len(rest) && rest[i+1] == '\n':
			raw, rest = rest[:i+2], rest[i+2:]
		default:
			raw, rest = rest[:i+1], rest[i+1:]
		}

		line := parseLine(string(raw))
		if line.Kind == LineMalformed {
			malformed = append(malformed, MalformedLine{Number: len(lines) + 1})
		}
		lines = append(lines, line)
	}

	return File{lines: lines}, malformed
}

// parseLine classifies a single raw line.
func parseLine(text string) Line {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Line{Text: text, Kind: LineBlank}
	}

	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return Line{Text: text, Kind: LineMalformed}
	}

	return Line{
		Text: text,
		Kind: LineRecord,
		Record: Record{
			Name:   trimmed[:i],
			Secret: strings.TrimSpace(trimmed[i:]),
		},
	}
}

// Lines returns a copy of the raw lines.
func (f File) Lines() []Line {
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out
}

// Len returns the number of raw lines, blank and malformed lines included.
func (f File) Len() int {
	return len(f.lines)
}

// Records returns the well-formed records in file order.
func (f File) Records() []Record {
	var records []Record
	for _, l := range f.lines {
		if l.Kind == LineRecord {
			records = append(records, l.Record)
		}
	}
	return records
}

// Bytes serializes the file. For a File returned by Parse it reproduces the
// input exactly.
func (f File) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range f.lines {
		buf.WriteString(l.Text)
	}
	return buf.Bytes()
}

// Names returns the distinct lowercase record names, sorted.
func (f File) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range f.Records() {
		k := r.Key()
		if !seen[k] {
			seen[k] = true
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// newline returns the line ending used for inserted lines: the terminator of
// the first terminated line, or "\n".
func (f File) newline() string {
	for _, l := range f.lines {
		if t := l.terminator(); t != "" {
			return t
		}
	}
	return "\n"
}
