package record

import (
	"strings"
	"unicode"
)

// Op is the kind of mutation performed by Upsert.
type Op int

const (
	// OpReplace overwrote the secret of an existing record.
	OpReplace Op = iota
	// OpInsert placed a new record before the first greater name.
	OpInsert
	// OpAppend added a new record after the last line.
	OpAppend
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpReplace:
		return "replace"
	case OpInsert:
		return "insert"
	case OpAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Change describes the single mutation made by Upsert.
type Change struct {
	Op Op
	// Line is the 0-based index of the new or rewritten line.
	Line int
	// Name is the upserted name as given by the caller.
	Name string
	// Replaced is the previous secret when Op is OpReplace.
	Replaced string
}

// Position reports where Upsert would place name, without building the new
// file. The returned Change has no Replaced value filled in for inserts and
// appends.
func Position(f File, name string) Change {
	key := Key(name)

	for i, l := range f.lines {
		if l.Kind != LineRecord {
			continue
		}
		switch k := l.Record.Key(); {
		case k == key:
			return Change{Op: OpReplace, Line: i, Name: name, Replaced: l.Record.Secret}
		case k > key:
			return Change{Op: OpInsert, Line: i, Name: name}
		}
	}

	return Change{Op: OpAppend, Line: len(f.lines), Name: name}
}

// Upsert returns a copy of f in which name holds secret, and the change that
// produced it.
//
// The records are scanned once in file order: the first record with an equal
// key is replaced, otherwise the new record is inserted before the first
// record with a greater key, otherwise it is appended. Exactly one line
// changes or is added. Unsorted input is not re-sorted.
func Upsert(f File, name, secret string) (File, Change, error) {
	if err := ValidateName(name); err != nil {
		return File{}, Change{}, err
	}
	secret = strings.TrimSpace(secret)
	if err := ValidateSecret(secret); err != nil {
		return File{}, Change{}, err
	}

	change := Position(f, name)
	nl := f.newline()

	lines := make([]Line, 0, len(f.lines)+1)
	switch change.Op {
	case OpReplace:
		lines = append(lines, f.lines...)
		old := lines[change.Line]
		term := old.terminator()
		lines[change.Line] = newLine(name, secret, term)

	case OpInsert:
		lines = append(lines, f.lines[:change.Line]...)
		lines = append(lines, newLine(name, secret, nl))
		lines = append(lines, f.lines[change.Line:]...)

	case OpAppend:
		lines = append(lines, f.lines...)
		if n := len(lines); n > 0 && lines[n-1].terminator() == "" {
			last := lines[n-1]
			last.Text += nl
			lines[n-1] = last
		}
		lines = append(lines, newLine(name, secret, nl))
	}

	return File{lines: lines}, change, nil
}

func newLine(name, secret, term string) Line {
	return Line{
		Text:   name + " " + secret + term,
		Kind:   LineRecord,
		Record: Record{Name: name, Secret: secret},
	}
}

// ValidateName checks that name can be stored as the first token of a line.
func ValidateName(name string) error {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return ErrInvalidName
	}
	return nil
}

// ValidateSecret checks that an already trimmed secret fits on one line.
func ValidateSecret(secret string) error {
	if secret == "" || strings.ContainsAny(secret, "\r\n") {
		return ErrInvalidSecret
	}
	return nil
}
