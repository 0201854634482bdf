// Package container defines the encrypted container backend the record
// store is persisted in, and ships the 7-Zip and in-memory implementations.
//
// A container is an opaque encrypted archive addressed by path. It holds
// named members; the record file is one member and its backup another.
// Every call is blocking; wrap a Backend with WithTimeout to bound it.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Member names and timing defaults.
const (
	// DefaultMember is the member holding the record file.
	DefaultMember = "passes"

	// BackupSuffix is appended to a member name to form its backup member.
	BackupSuffix = ".bak"

	// DefaultTimeout bounds every backend call.
	DefaultTimeout = 5 * time.Second
)

// Errors
var (
	ErrNotFound       = errors.New("container: not found")
	ErrAlreadyExists  = errors.New("container: already exists")
	ErrBackendFailure = errors.New("container: backend failure")
	ErrBackendTimeout = errors.New("container: backend timed out")

	// ErrInvalidPassphrase is a BackendFailure caused by a wrong passphrase.
	ErrInvalidPassphrase = fmt.Errorf("%w: invalid passphrase", ErrBackendFailure)
)

// Op names a backend operation.
type Op string

// Backend operations
const (
	OpExtract Op = "extract"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpCreate  Op = "create"
)

// Backend is an encrypted container store.
//
// Extract returns ErrNotFound when the container or member does not exist.
// Update creates or overwrites a member. Create makes a new container holding
// one empty member and returns ErrAlreadyExists rather than overwrite.
type Backend interface {
	Extract(ctx context.Context, container, member string, passphrase []byte) ([]byte, error)
	Update(ctx context.Context, container, member string, passphrase []byte, data []byte) error
	Delete(ctx context.Context, container, member string, passphrase []byte) error
	Create(ctx context.Context, container, member string, passphrase []byte) error
}

// BackupMember returns the backup member name for member.
func BackupMember(member string) string {
	return member + BackupSuffix
}
