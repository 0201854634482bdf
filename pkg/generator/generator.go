// Package generator produces random alphanumeric secrets that satisfy
// composition constraints: at least one lowercase letter, one uppercase
// letter and three digits.
//
// Secrets are drawn with rejection sampling from a cryptographically secure
// source. Each attempt is a fresh, independent draw of the whole secret.
package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"go.uber.org/zap"
)

// Character set and length constants
const (
	charsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	charsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetDigits    = "0123456789"

	// Charset is the alphabet secrets are drawn from.
	Charset = charsetLowercase + charsetUppercase + charsetDigits

	MinLength     = 8
	MaxLength     = 100
	DefaultLength = 15

	// MinDigits is the minimum number of digits in a secret.
	MinDigits = 3

	// DefaultMaxAttempts bounds the rejection sampling loop.
	DefaultMaxAttempts = 1000
)

// Errors
var (
	ErrConstraintUnsatisfiable = errors.New("generator: no secret satisfied the constraints within the attempt limit")
)

// Generator draws constrained secrets.
type Generator struct {
	rand        io.Reader
	maxAttempts int
	log         *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source. It must be cryptographically secure
// outside of tests.
func WithRand(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithMaxAttempts bounds the number of rejected draws.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for range warnings.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New returns a Generator reading from crypto/rand.
func New(opts ...Option) *Generator {
	g := &Generator{
		rand:        rand.Reader,
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a secret of the given length. A length outside
// [MinLength, MaxLength] is replaced by DefaultLength with a warning.
func (g *Generator) Generate(length int) (string, error) {
	length = g.checkLength(length)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		secret, err := g.draw(length)
		if err != nil {
			return "", err
		}
		if Satisfies(secret) {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%w (length %d, %d attempts)", ErrConstraintUnsatisfiable, length, g.maxAttempts)
}

// checkLength applies the documented fallback for out-of-range lengths.
func (g *Generator) checkLength(length int) int {
	if length < MinLength || length > MaxLength {
		g.log.Warn("generated secret length out of range, using default",
			zap.Int("length", length),
			zap.Int("min", MinLength),
			zap.Int("max", MaxLength),
			zap.Int("default", DefaultLength))
		return DefaultLength
	}
	return length
}

// draw returns length characters chosen uniformly from Charset.
func (g *Generator) draw(length int) (string, error) {
	charsetLen := big.NewInt(int64(len(Charset)))
	secret := make([]byte, length)

	for i := 0; i < length; i++ {
		idx, err := rand.Int(g.rand, charsetLen)
		if err != nil {
			return "", fmt.Errorf("generator: failed to generate random number: %w", err)
		}
		secret[i] = Charset[idx.Int64()]
	}

	return string(secret), nil
}

// Satisfies reports whether s meets the composition constraints.
func Satisfies(s string) bool {
	var lower, upper, digits int
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= 'a' && c <= 'z':
			lower++
		case c >= 'A' && c <= 'Z':
			upper++
		case c >= '0' && c <= '9':
			digits++
		}
	}
	return lower >= 1 && upper >= 1 && digits >= MinDigits
}
