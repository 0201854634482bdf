// Package update commits a new record file to an encrypted container without
// ever leaving the container without a readable copy of the previous one.
//
// A commit runs three steps against the backend, in order:
//
//  1. Backup: the prior bytes are written to the backup member. A failure
//     aborts the commit before anything destructive happens.
//  2. Write: the new bytes overwrite the primary member. A failure leaves
//     the backup member in place for manual recovery.
//  3. Prune: the backup member is deleted. A failure is only a warning.
//
// No rollback of step 2 is attempted.
package update

import (
	"context"
	"fmt"

	"github.com/forest6511/pwctl/pkg/container"
	"go.uber.org/zap"
)

// Step identifies a commit step.
type Step string

// Commit steps
const (
	StepBackup Step = "backup"
	StepWrite  Step = "write"
	StepPrune  Step = "prune"
)

// Error is returned when the backup or write step fails.
type Error struct {
	Step   Step
	Member string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("update: %s of member %q failed: %v", e.Step, e.Member, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Target addresses the member being committed.
type Target struct {
	Container  string
	Member     string
	Passphrase []byte
}

// Result describes a successful commit.
type Result struct {
	// BackupMember is the name of the backup member.
	BackupMember string
	// BackupKept is true when pruning failed and the backup is still present.
	BackupKept bool
	// PruneErr is the prune failure, if any.
	PruneErr error
}

// Protocol runs commits against a backend.
type Protocol struct {
	backend container.Backend
	log     *zap.Logger
}

// New returns a Protocol using backend. A nil logger discards warnings.
func New(backend container.Backend, log *zap.Logger) *Protocol {
	if log == nil {
		log = zap.NewNop()
	}
	return &Protocol{backend: backend, log: log}
}

// Commit replaces the target member's content prior with next.
func (p *Protocol) Commit(ctx context.Context, t Target, prior, next []byte) (*Result, error) {
	backup := container.BackupMember(t.Member)
	log := p.log.With(zap.String("container", t.Container), zap.String("member", t.Member))

	// 1. Backup prior content
	if err := p.backend.Update(ctx, t.Container, backup, t.Passphrase, prior); err != nil {
		return nil, &Error{Step: StepBackup, Member: backup, Err: err}
	}
	log.Debug("backup member written", zap.String("backup", backup), zap.Int("bytes", len(prior)))

	// 2. Overwrite primary member
	if err := p.backend.Update(ctx, t.Container, t.Member, t.Passphrase, next); err != nil {
		log.Error("primary member write failed, backup left in place",
			zap.String("backup", backup), zap.Error(err))
		return nil, &Error{Step: StepWrite, Member: t.Member, Err: err}
	}
	log.Debug("primary member written", zap.Int("bytes", len(next)))

	// 3. Prune backup
	result := &Result{BackupMember: backup}
	if err := p.backend.Delete(ctx, t.Container, backup, t.Passphrase); err != nil {
		log.Warn("failed to remove backup member", zap.String("backup", backup), zap.Error(err))
		result.BackupKept = true
		result.PruneErr = err
	}

	return result, nil
}
