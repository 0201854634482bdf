// Package main provides the pwctl CLI application.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/forest6511/pwctl/pkg/record"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command with args and maps the outcome to an exit
// code.
func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if logs != nil {
		logs.Sync()
	}
	code := exitCode(err)
	if err != nil && code != exitOK {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return code
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, errQuit):
		return exitOK
	case errors.Is(err, errUsage),
		errors.Is(err, record.ErrInvalidPattern),
		errors.Is(err, record.ErrInvalidName),
		errors.Is(err, record.ErrInvalidSecret):
		return exitUsage
	default:
		return exitFailure
	}
}
