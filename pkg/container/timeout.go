package container

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// timeoutBackend bounds each call of the wrapped Backend.
type timeoutBackend struct {
	next    Backend
	timeout time.Duration
}

// WithTimeout returns a Backend whose calls fail with ErrBackendTimeout once
// d has elapsed. The wrapped call receives a context carrying the deadline;
// a call that ignores it is abandoned, not waited for. A non-positive d
// returns b unchanged.
func WithTimeout(b Backend, d time.Duration) Backend {
	if d <= 0 {
		return b
	}
	return &timeoutBackend{next: b, timeout: d}
}

type result struct {
	data []byte
	err  error
}

func (t *timeoutBackend) do(ctx context.Context, op Op, member string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		data, err := fn(ctx)
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(r.err, ErrBackendTimeout) {
			return nil, t.timeoutError(op, member)
		}
		return r.data, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, t.timeoutError(op, member)
		}
		return nil, ctx.Err()
	}
}

func (t *timeoutBackend) timeoutError(op Op, member string) error {
	return fmt.Errorf("%w: %s of %q did not complete within %s", ErrBackendTimeout, op, member, t.timeout)
}

func (t *timeoutBackend) Extract(ctx context.Context, container, member string, passphrase []byte) ([]byte, error) {
	return t.do(ctx, OpExtract, member, func(ctx context.Context) ([]byte, error) {
		return t.next.Extract(ctx, container, member, passphrase)
	})
}

func (t *timeoutBackend) Update(ctx context.Context, container, member string, passphrase []byte, data []byte) error {
	_, err := t.do(ctx, OpUpdate, member, func(ctx context.Context) ([]byte, error) {
		return nil, t.next.Update(ctx, container, member, passphrase, data)
	})
	return err
}

func (t *timeoutBackend) Delete(ctx context.Context, container, member string, passphrase []byte) error {
	_, err := t.do(ctx, OpDelete, member, func(ctx context.Context) ([]byte, error) {
		return nil, t.next.Delete(ctx, container, member, passphrase)
	})
	return err
}

func (t *timeoutBackend) Create(ctx context.Context, container, member string, passphrase []byte) error {
	_, err := t.do(ctx, OpCreate, member, func(ctx context.Context) ([]byte, error) {
		return nil, t.next.Create(ctx, container, member, passphrase)
	})
	return err
}
