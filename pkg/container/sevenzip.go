package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultSevenZipBinary is the 7-Zip executable looked up on PATH.
const DefaultSevenZipBinary = "7z"

// waitDelay bounds how long a killed 7z may keep its pipes open.
const waitDelay = time.Second

// SevenZip stores members in a password-protected 7z archive by running the
// 7z executable. Member data travels over stdin/stdout and never touches the
// disk unencrypted.
type SevenZip struct {
	binary string
	log    *zap.Logger
}

// NewSevenZip returns a backend running binary ("7z" when empty).
func NewSevenZip(binary string, log *zap.Logger) *SevenZip {
	if binary == "" {
		binary = DefaultSevenZipBinary
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SevenZip{binary: binary, log: log}
}

// writePath returns the archive path for commands that write. 7z appends
// ".7z" to archive names without that extension unless they end in ".".
func writePath(archive string) string {
	if strings.HasSuffix(archive, ".7z") {
		return archive
	}
	return archive + "."
}

func passArg(passphrase []byte) string {
	return "-p" + string(passphrase)
}

// Extract lists the archive before extracting, since 7z exits cleanly with
// no output when asked for a member it does not hold.
func (z *SevenZip) Extract(ctx context.Context, archive, member string, passphrase []byte) ([]byte, error) {
	if err := checkExists(archive); err != nil {
		return nil, err
	}

	// 1. Check the member is present
	listing, err := z.run(ctx, OpExtract, nil, "l", "-slt", archive, member, passArg(passphrase))
	if err != nil {
		return nil, err
	}
	if !listed(listing, member) {
		return nil, fmt.Errorf("%w: member %q", ErrNotFound, member)
	}

	// 2. Extract to stdout
	return z.run(ctx, OpExtract, nil, "e", archive, member, "-so", passArg(passphrase))
}

// listed reports whether a "7z l -slt" listing holds an entry named member.
// Entries follow the "----------" separator; the lines above it describe
// the archive itself.
func listed(listing []byte, member string) bool {
	want := "Path = " + member
	entries := false
	for _, line := range strings.Split(string(listing), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "----------":
			entries = true
		case entries && line == want:
			return true
		}
	}
	return false
}

func (z *SevenZip) Update(ctx context.Context, archive, member string, passphrase []byte, data []byte) error {
	if err := checkExists(archive); err != nil {
		return err
	}
	_, err := z.run(ctx, OpUpdate, data, "u", writePath(archive), "-si"+member, "-mhe", passArg(passphrase))
	return err
}

func (z *SevenZip) Delete(ctx context.Context, archive, member string, passphrase []byte) error {
	if err := checkExists(archive); err != nil {
		return err
	}
	_, err := z.run(ctx, OpDelete, nil, "d", writePath(archive), member, passArg(passphrase))
	return err
}

func (z *SevenZip) Create(ctx context.Context, archive, member string, passphrase []byte) error {
	if _, err := os.Stat(archive); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, archive)
	}
	if err := os.MkdirAll(filepath.Dir(archive), 0o700); err != nil {
		return fmt.Errorf("%w: failed to create archive directory: %w", ErrBackendFailure, err)
	}
	_, err := z.run(ctx, OpCreate, []byte{}, "a", writePath(archive), "-si"+member, "-mhe", passArg(passphrase))
	return err
}

func checkExists(archive string) error {
	if _, err := os.Stat(archive); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, archive)
		}
		return fmt.Errorf("%w: %w", ErrBackendFailure, err)
	}
	return nil
}

// run executes 7z with args. Output on stderr is treated as failure, since
// 7z reports a wrong password there while still exiting cleanly in some
// versions.
func (z *SevenZip) run(ctx context.Context, op Op, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, z.binary, args...)
	cmd.WaitDelay = waitDelay
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	z.log.Debug("7z process finished",
		zap.String("op", string(op)),
		zap.Strings("args", redact(args)),
		zap.Int("exit_code", cmd.ProcessState.ExitCode()))

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: 7z %s", ErrBackendTimeout, op)
		}
		return nil, ctxErr
	}

	msg := strings.TrimSpace(stderr.String())
	if strings.Contains(msg, "Wrong password") {
		return nil, fmt.Errorf("%w: 7z %s", ErrInvalidPassphrase, op)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: 7z %s: %v: %s", ErrBackendFailure, op, err, msg)
	}
	if msg != "" {
		return nil, fmt.Errorf("%w: 7z %s: %s", ErrBackendFailure, op, msg)
	}

	return stdout.Bytes(), nil
}

// redact hides the passphrase argument from logs.
func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "-p") {
			a = "-p***"
		}
		out[i] = a
	}
	return out
}
