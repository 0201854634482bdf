package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// prompter reads answers from the user. Secrets are read without echo when
// input is a terminal, and as plain lines otherwise.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// terminalFd returns the descriptor of in when it is a terminal.
func (p *prompter) terminalFd() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd()) //nolint:gosec
	return fd, term.IsTerminal(fd)
}

// line prints prompt and reads one line, without its terminator. It returns
// io.EOF once input is exhausted.
func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
		return "", io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	value := strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(value, "\r"), nil
}

// secret prints prompt and reads a line without echo.
func (p *prompter) secret(prompt string) (string, error) {
	fd, ok := p.terminalFd()
	if !ok {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// confirmed asks a yes-by-default question: Enter answers yes, anything else
// or end of input no.
func (p *prompter) confirmed(prompt string) (bool, error) {
	answer, err := p.line(prompt + " ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return answer == "", nil
}

// newPassphrase asks for a new archive passphrase twice.
func (p *prompter) newPassphrase(name string) (string, error) {
	// 1. Prompt for passphrase
	first, err := p.secret(fmt.Sprintf("New password for archive %s: ", name))
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("%w: archive password must not be empty", errUsage)
	}

	// 2. Confirm passphrase
	second, err := p.secret("Confirm password: ")
	if err != nil {
		return "", err
	}

	// 3. Check passphrases match
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

// isPrintableASCII reports whether s holds printable ASCII only, space
// included.
func isPrintableASCII(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// askNewSecret runs the new password dialogue for application name.
//
// With offerGenerate an empty first answer returns "", asking the caller to
// generate one. Answers must be printable ASCII without surrounding spaces;
// with confirm the answer must be typed twice. "q" quits with errQuit.
func askNewSecret(p *prompter, name string, offerGenerate, confirm bool, log *zap.Logger) (string, error) {
	quitPrompt := fmt.Sprintf("New password for %s (q to quit): ", name)
	prompt := quitPrompt
	if offerGenerate {
		prompt = fmt.Sprintf("New password for %s (enter nothing to generate one): ", name)
	}

	first := ""
	for {
		answer, err := p.secret(prompt)
		if err != nil {
			return "", fmt.Errorf("no password entered: %w", err)
		}
		if offerGenerate && answer == "" {
			return "", nil
		}
		if offerGenerate {
			// Only the very first answer may ask for generation.
			offerGenerate = false
			prompt = quitPrompt
		}

		stripped := strings.TrimSpace(answer)
		switch {
		case stripped == "q":
			return "", errQuit
		case stripped == "":
			if first == "" {
				fmt.Fprintln(p.out, "Password cannot be empty.")
				continue
			}
		case !isPrintableASCII(stripped):
			fmt.Fprintln(p.out, "Password cannot contain non-printable characters.")
			continue
		case answer != stripped:
			fmt.Fprintln(p.out, "Password cannot begin or end with a space.")
			continue
		}

		if confirm {
			if first == "" {
				first = stripped
				prompt = fmt.Sprintf("Confirm password for %s (q to quit): ", name)
				continue
			}
			if first != stripped {
				fmt.Fprintln(p.out, "Passwords do not match. Please retry.")
				first = ""
				prompt = quitPrompt
				continue
			}
		}

		if strings.Contains(stripped, " ") {
			log.Warn("password contains one or more spaces (permitted)")
		}
		return stripped, nil
	}
}

// usageArgs wraps a positional argument validator so violations exit with
// the usage code.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}
