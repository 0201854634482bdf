package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAskNewSecret(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		offerGenerate bool
		confirm       bool
		want          string
		wantErr       error
		wantOutput    string
	}{
		{
			name:          "empty answer asks for generation",
			input:         "\n",
			offerGenerate: true,
			confirm:       true,
			want:          "",
		},
		{
			name:    "quit",
			input:   "q\n",
			confirm: true,
			wantErr: errQuit,
		},
		{
			name:    "quit on confirmation",
			input:   "secret1\nq\n",
			confirm: true,
			wantErr: errQuit,
		},
		{
			name:    "confirmed",
			input:   "secret1\nsecret1\n",
			confirm: true,
			want:    "secret1",
		},
		{
			name:  "no confirmation",
			input: "secret1\n",
			want:  "secret1",
		},
		{
			name:       "non-printable rejected",
			input:      "bad\x01\nsecret1\nsecret1\n",
			confirm:    true,
			want:       "secret1",
			wantOutput: "Password cannot contain non-printable characters.",
		},
		{
			name:       "non-ascii rejected",
			input:      "café\nsecret1\n",
			want:       "secret1",
			wantOutput: "Password cannot contain non-printable characters.",
		},
		{
			name:       "surrounding space rejected",
			input:      " secret1\nsecret1\n",
			want:       "secret1",
			wantOutput: "Password cannot begin or end with a space.",
		},
		{
			name:       "mismatch retries",
			input:      "one1\ntwo2\nthree3\nthree3\n",
			confirm:    true,
			want:       "three3",
			wantOutput: "Passwords do not match. Please retry.",
		},
		{
			name:          "generation offered only first",
			input:         "bad\x01\n\nsecret1\n",
			offerGenerate: true,
			want:          "secret1",
			wantOutput:    "Password cannot be empty.",
		},
		{
			name:    "end of input",
			input:   "secret1\n",
			confirm: true,
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)

			got, err := askNewSecret(p, "app", tt.offerGenerate, tt.confirm, zap.NewNop())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("askNewSecret() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("askNewSecret() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("askNewSecret() = %q, want %q", got, tt.want)
			}
			if tt.wantOutput != "" && !strings.Contains(out.String(), tt.wantOutput) {
				t.Errorf("output %q does not contain %q", out.String(), tt.wantOutput)
			}
		})
	}
}

func TestAskNewSecretWarnsOnSpaces(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := newPrompter(strings.NewReader("two words\ntwo words\n"), io.Discard)

	got, err := askNewSecret(p, "app", false, true, zap.New(core))
	if err != nil {
		t.Fatalf("askNewSecret() unexpected error: %v", err)
	}
	if got != "two words" {
		t.Errorf("askNewSecret() = %q, want %q", got, "two words")
	}
	if n := logs.FilterMessage("password contains one or more spaces (permitted)").Len(); n != 1 {
		t.Errorf("got %d space warnings, want 1", n)
	}
}

func TestPrompterLine(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("first\r\nlast"), &out)

	got, err := p.line("> ")
	if err != nil || got != "first" {
		t.Fatalf("line() = %q, %v", got, err)
	}
	got, err = p.line("> ")
	if err != nil || got != "last" {
		t.Fatalf("line() = %q, %v", got, err)
	}
	if _, err = p.line("> "); !errors.Is(err, io.EOF) {
		t.Fatalf("line() at end of input error = %v, want EOF", err)
	}
	if !strings.HasPrefix(out.String(), "> > ") {
		t.Errorf("prompts not written: %q", out.String())
	}
}

func TestConfirmed(t *testing.T) {
	p := newPrompter(strings.NewReader("\nno\n"), io.Discard)

	for i, want := range []bool{true, false, false} {
		got, err := p.confirmed("?")
		if err != nil {
			t.Fatalf("confirmed() unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("answer %d: confirmed() = %v, want %v", i, got, want)
		}
	}
}

func TestNewPassphrase(t *testing.T) {
	p := newPrompter(strings.NewReader("pass\npass\n\n"), io.Discard)

	got, err := p.newPassphrase("a.7z")
	if err != nil || got != "pass" {
		t.Fatalf("newPassphrase() = %q, %v", got, err)
	}

	_, err = p.newPassphrase("a.7z")
	if !errors.Is(err, errUsage) {
		t.Errorf("empty passphrase error = %v, want usage error", err)
	}
}

func TestValidateArchiveName(t *testing.T) {
	for _, name := range []string{"a.7z", "records", "my vault.db"} {
		if err := validateArchiveName(name); err != nil {
			t.Errorf("validateArchiveName(%q) unexpected error: %v", name, err)
		}
	}
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := validateArchiveName(name); !errors.Is(err, errUsage) {
			t.Errorf("validateArchiveName(%q) error = %v, want usage error", name, err)
		}
	}
}
