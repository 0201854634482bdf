// Package security analyses the secrets of a record file: strength of
// individual secrets, reuse across applications, and an overall score.
package security

import "unicode/utf8"

// PasswordStrength represents the strength level of a secret.
type PasswordStrength int

const (
	// PasswordWeak is a secret shorter than 8 characters.
	PasswordWeak PasswordStrength = iota
	PasswordFair
	PasswordGood
	PasswordStrong
)

// levels holds, per strength, its label, its score points and the minimum
// length in characters.
var levels = [...]struct {
	label     string
	points    int
	minLength int
}{
	PasswordWeak:   {"Weak", 0, 0},
	PasswordFair:   {"Fair", 17, 8},
	PasswordGood:   {"Good", 35, 14},
	PasswordStrong: {"Strong", 50, 20},
}

func (s PasswordStrength) valid() bool {
	return s >= 0 && int(s) < len(levels)
}

func (s PasswordStrength) String() string {
	if !s.valid() {
		return "Unknown"
	}
	return levels[s].label
}

// Points returns the contribution of one secret to the strength component.
func (s PasswordStrength) Points() int {
	if !s.valid() {
		return 0
	}
	return levels[s].points
}

// CalculateStrength rates a secret by its length in characters.
// Composition is not scored.
func CalculateStrength(value string) PasswordStrength {
	n := utf8.RuneCountInString(value)
	for s := PasswordStrong; s > PasswordWeak; s-- {
		if n >= levels[s].minLength {
			return s
		}
	}
	return PasswordWeak
}

// IsWeak reports whether a user-chosen secret should trigger a warning.
func IsWeak(value string) bool {
	return CalculateStrength(value) == PasswordWeak
}
