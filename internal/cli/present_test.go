package cli

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHiddenColour(t *testing.T) {
	tests := []struct {
		name       string
		visibility float64
		wantSeq    string
		warnings   int
	}{
		{"default", 0.6, "\x1b[38;5;245m", 0},
		{"black", 0, "\x1b[38;5;232m", 0},
		{"white", 1, "\x1b[38;5;255m", 0},
		{"too bright clamps", 4, "\x1b[38;5;255m", 1},
		{"negative uses magnitude", -0.5, "\x1b[38;5;243m", 1},
		{"nan", math.NaN(), "\x1b[38;5;232m", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			c := HiddenColour(tt.visibility, zap.New(core))
			c.EnableColor()

			got := c.Sprint("pw")
			assert.True(t, strings.HasPrefix(got, tt.wantSeq+"pw\x1b["), "got %q", got)
			assert.Equal(t, tt.warnings, logs.Len())
		})
	}
}

func TestPresenter(t *testing.T) {
	var buf bytes.Buffer
	hidden := HiddenColour(0.6, nil)
	hidden.EnableColor()
	p := NewPresenter(&buf, hidden)

	p.Println("1 password found for github.")
	p.Secret("s3cret")
	p.List([]string{"alpha", "beta"})

	out := buf.String()
	assert.Contains(t, out, "1 password found for github.\n")
	assert.Contains(t, out, "\x1b[38;5;245ms3cret\x1b[")
	assert.Contains(t, out, "  alpha\n  beta\n")
}
