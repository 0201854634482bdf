package update

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forest6511/pwctl/pkg/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testContainer = "vault.7z"
	prior         = "alpha secret1\nzeta secret2\n"
	next          = "alpha secret1\nmu s3\nzeta secret2\n"
)

var testPass = []byte("pw")

func seeded() *container.Memory {
	m := container.NewMemory()
	m.Seed(testContainer, testPass, map[string][]byte{container.DefaultMember: []byte(prior)})
	return m
}

func target() Target {
	return Target{Container: testContainer, Member: container.DefaultMember, Passphrase: testPass}
}

func TestCommitSuccess(t *testing.T) {
	m := seeded()

	result, err := New(m, nil).Commit(context.Background(), target(), []byte(prior), []byte(next))
	require.NoError(t, err)
	assert.False(t, result.BackupKept)
	assert.Equal(t, "passes.bak", result.BackupMember)

	data, ok := m.Member(testContainer, container.DefaultMember)
	require.True(t, ok)
	assert.Equal(t, next, string(data))

	_, ok = m.Member(testContainer, "passes.bak")
	assert.False(t, ok, "backup should be pruned")

	assert.Equal(t, []container.Call{
		{Op: container.OpUpdate, Container: testContainer, Member: "passes.bak"},
		{Op: container.OpUpdate, Container: testContainer, Member: "passes"},
		{Op: container.OpDelete, Container: testContainer, Member: "passes.bak"},
	}, m.Calls())
}

func TestCommitBackupFailureAbortsBeforeWrite(t *testing.T) {
	m := seeded()
	m.FailOn(container.OpUpdate, "passes.bak", container.ErrBackendFailure)

	_, err := New(m, nil).Commit(context.Background(), target(), []byte(prior), []byte(next))
	require.Error(t, err)

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, StepBackup, uerr.Step)
	assert.ErrorIs(t, err, container.ErrBackendFailure)

	data, _ := m.Member(testContainer, container.DefaultMember)
	assert.Equal(t, prior, string(data))
	assert.Len(t, m.Calls(), 1, "write step must not run")
}

func TestCommitBackupTimeoutAbortsBeforeWrite(t *testing.T) {
	m := seeded()
	m.SetHook(func(ctx context.Context, c container.Call) error {
		if c.Member == "passes.bak" {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	backend := container.WithTimeout(m, 20*time.Millisecond)

	_, err := New(backend, nil).Commit(context.Background(), target(), []byte(prior), []byte(next))
	assert.ErrorIs(t, err, container.ErrBackendTimeout)

	data, _ := m.Member(testContainer, container.DefaultMember)
	assert.Equal(t, prior, string(data))
	for _, c := range m.Calls() {
		assert.NotEqual(t, container.DefaultMember, c.Member, "primary member must not be touched")
	}
}

func TestCommitWriteFailureKeepsBackup(t *testing.T) {
	m := seeded()
	m.FailOn(container.OpUpdate, container.DefaultMember, container.ErrBackendFailure)

	core, logs := observer.New(zap.ErrorLevel)
	_, err := New(m, zap.New(core)).Commit(context.Background(), target(), []byte(prior), []byte(next))
	require.Error(t, err)

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, StepWrite, uerr.Step)
	assert.ErrorIs(t, err, container.ErrBackendFailure)

	backup, ok := m.Member(testContainer, "passes.bak")
	require.True(t, ok, "backup must survive a failed write")
	assert.Equal(t, prior, string(backup))

	for _, c := range m.Calls() {
		assert.NotEqual(t, container.OpDelete, c.Op, "prune must not run after a failed write")
	}
	assert.Equal(t, 1, logs.Len())
}

func TestCommitPruneFailureIsWarning(t *testing.T) {
	m := seeded()
	m.FailOn(container.OpDelete, "passes.bak", container.ErrBackendFailure)

	core, logs := observer.New(zap.WarnLevel)
	result, err := New(m, zap.New(core)).Commit(context.Background(), target(), []byte(prior), []byte(next))
	require.NoError(t, err)
	assert.True(t, result.BackupKept)
	assert.ErrorIs(t, result.PruneErr, container.ErrBackendFailure)

	data, _ := m.Member(testContainer, container.DefaultMember)
	assert.Equal(t, next, string(data))
	assert.Equal(t, 1, logs.FilterMessage("failed to remove backup member").Len())
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Step: StepWrite, Member: "passes", Err: container.ErrBackendTimeout}
	assert.Equal(t, `update: write of member "passes" failed: container: backend timed out`, err.Error())
}
