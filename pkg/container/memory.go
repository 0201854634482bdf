package container

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// Call records one invocation of a Memory backend.
type Call struct {
	Op        Op
	Container string
	Member    string
}

// Hook runs before every Memory operation. A non-nil error fails the
// operation without touching the stored members.
type Hook func(ctx context.Context, call Call) error

type memContainer struct {
	passphrase []byte
	members    map[string][]byte
}

// Memory is an in-memory Backend for tests and dry runs.
type Memory struct {
	mu         sync.Mutex
	containers map[string]*memContainer
	calls      []Call
	hook       Hook
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{containers: make(map[string]*memContainer)}
}

// Seed stores a container with the given members, replacing any existing one.
func (m *Memory) Seed(container string, passphrase []byte, members map[string][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &memContainer{
		passphrase: append([]byte(nil), passphrase...),
		members:    make(map[string][]byte, len(members)),
	}
	for name, data := range members {
		c.members[name] = append([]byte(nil), data...)
	}
	m.containers[container] = c
}

// Member returns a copy of a stored member without checking the passphrase.
func (m *Memory) Member(container, member string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[container]
	if !ok {
		return nil, false
	}
	data, ok := c.members[member]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Calls returns the operations attempted so far, failed ones included.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// SetHook installs h to run before every operation.
func (m *Memory) SetHook(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

// FailOn makes every op on member fail with err.
func (m *Memory) FailOn(op Op, member string, err error) {
	m.SetHook(func(_ context.Context, c Call) error {
		if c.Op == op && c.Member == member {
			return err
		}
		return nil
	})
}

// begin records the call and runs the hook outside the lock, so a hook may
// block on ctx without stalling other callers.
func (m *Memory) begin(ctx context.Context, call Call) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// open returns the container after checking the passphrase. Callers hold mu.
func (m *Memory) open(container string, passphrase []byte) (*memContainer, error) {
	c, ok := m.containers[container]
	if !ok {
		return nil, fmt.Errorf("%w: container %q", ErrNotFound, container)
	}
	if !bytes.Equal(c.passphrase, passphrase) {
		return nil, ErrInvalidPassphrase
	}
	return c, nil
}

func (m *Memory) Extract(ctx context.Context, container, member string, passphrase []byte) ([]byte, error) {
	if err := m.begin(ctx, Call{Op: OpExtract, Container: container, Member: member}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.open(container, passphrase)
	if err != nil {
		return nil, err
	}
	data, ok := c.members[member]
	if !ok {
		return nil, fmt.Errorf("%w: member %q", ErrNotFound, member)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Update(ctx context.Context, container, member string, passphrase []byte, data []byte) error {
	if err := m.begin(ctx, Call{Op: OpUpdate, Container: container, Member: member}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.open(container, passphrase)
	if err != nil {
		return err
	}
	c.members[member] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, container, member string, passphrase []byte) error {
	if err := m.begin(ctx, Call{Op: OpDelete, Container: container, Member: member}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.open(container, passphrase)
	if err != nil {
		return err
	}
	if _, ok := c.members[member]; !ok {
		return fmt.Errorf("%w: member %q", ErrNotFound, member)
	}
	delete(c.members, member)
	return nil
}

func (m *Memory) Create(ctx context.Context, container, member string, passphrase []byte) error {
	if err := m.begin(ctx, Call{Op: OpCreate, Container: container, Member: member}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.containers[container]; ok {
		return fmt.Errorf("%w: container %q", ErrAlreadyExists, container)
	}
	m.containers[container] = &memContainer{
		passphrase: append([]byte(nil), passphrase...),
		members:    map[string][]byte{member: {}},
	}
	return nil
}
