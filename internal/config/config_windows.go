//go:build windows

package config

import (
	"fmt"
	"os"
)

// openConfigFile opens the settings file on Windows.
// Windows doesn't have O_NOFOLLOW, but symlinks require special privileges
// to create there.
func openConfigFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("config: failed to open settings file: %w", err)
	}
	return f, nil
}

// checkFilePermissions on Windows is a no-op; access is governed by ACLs.
func checkFilePermissions(_ string, _ os.FileInfo) error {
	return nil
}
