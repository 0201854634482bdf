package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"DEBUG", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"Warning", zapcore.WarnLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"ERROR", zapcore.ErrorLevel, false},
		{"CRITICAL", zapcore.DPanicLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	require.NoError(t, l.Init("WARNING"))

	l.Log.Info("hidden")
	l.Log.Warn("shown")
	l.Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestInitInvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	assert.Error(t, l.Init("loud"))

	l.Log.Info("info is on")
	l.Log.Debug("debug is off")
	l.Sync()

	out := buf.String()
	assert.Contains(t, out, "invalid logging level, using INFO")
	assert.Contains(t, out, "info is on")
	assert.NotContains(t, out, "debug is off")
}

func TestNewIsSilent(t *testing.T) {
	l := New()
	assert.NotPanics(t, func() { l.Log.Error("dropped") })
}
