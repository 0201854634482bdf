// Package clipboard copies secrets to the system clipboard or an X selection.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// X selections accepted by xclip.
const (
	SelectionPrimary   = "primary"
	SelectionSecondary = "secondary"
	SelectionClipboard = "clipboard"
)

// DefaultTimeout bounds a copy.
const DefaultTimeout = 5 * time.Second

// Errors
var (
	ErrUnavailable = errors.New("clipboard: no clipboard tool available")
	ErrCopyFailed  = errors.New("clipboard: copy failed")
)

// Sink receives copied text.
type Sink interface {
	Copy(ctx context.Context, text string) error
}

// Command is a Sink that pipes text into an external program.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration
	log     *zap.Logger
}

// Copy runs the program with text on stdin.
func (c *Command) Copy(ctx context.Context, text string) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s timed out after %s", ErrCopyFailed, c.Name, timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s: %s", ErrCopyFailed, c.Name, msg)
		}
		return fmt.Errorf("%w: %s: %w", ErrCopyFailed, c.Name, err)
	}

	if c.log != nil {
		c.log.Debug("copied to clipboard", zap.String("tool", c.Name))
	}
	return nil
}

// ValidSelection returns selection lowercased when it names an X selection,
// and SelectionPrimary with a warning otherwise.
func ValidSelection(selection string, log *zap.Logger) string {
	switch s := strings.ToLower(strings.TrimSpace(selection)); s {
	case SelectionPrimary, SelectionSecondary, SelectionClipboard:
		return s
	default:
		if log != nil {
			log.Warn("invalid selection, using primary",
				zap.String("selection", selection),
				zap.Strings("valid", []string{SelectionPrimary, SelectionSecondary, SelectionClipboard}))
		}
		return SelectionPrimary
	}
}

// New returns the Sink for the current platform. On X11 systems selection
// picks the X selection; it is ignored elsewhere.
func New(selection string, log *zap.Logger) (Sink, error) {
	return newFor(runtime.GOOS, selection, exec.LookPath, log)
}

func newFor(goos, selection string, lookPath func(string) (string, error), log *zap.Logger) (Sink, error) {
	switch goos {
	case "darwin":
		return &Command{Name: "pbcopy", log: log}, nil
	case "windows":
		return &Command{Name: "clip", log: log}, nil
	}

	selection = ValidSelection(selection, log)
	if _, err := lookPath("xclip"); err == nil {
		return &Command{Name: "xclip", Args: []string{"-sel", selection}, log: log}, nil
	}
	if _, err := lookPath("xsel"); err == nil {
		return &Command{Name: "xsel", Args: []string{"--" + selection, "--input"}, log: log}, nil
	}
	return nil, fmt.Errorf("%w: install xclip or xsel", ErrUnavailable)
}
