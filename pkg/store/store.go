// Package store is the credential record store: it composes a container
// backend, the record parser, the merge engine, the password generator and
// the update protocol into the lookup, search and upsert operations.
//
// Every operation extracts the record file afresh; nothing is cached between
// calls.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/forest6511/pwctl/pkg/container"
	"github.com/forest6511/pwctl/pkg/generator"
	"github.com/forest6511/pwctl/pkg/record"
	"github.com/forest6511/pwctl/pkg/security"
	"github.com/forest6511/pwctl/pkg/update"
	"go.uber.org/zap"
)

// Target addresses the record file inside a container.
type Target = update.Target

// SecretFunc supplies the secret for an upsert. It receives the position the
// record will take. Returning "" asks the store to generate one.
type SecretFunc func(ctx context.Context, change record.Change) (string, error)

// UpsertResult describes a committed upsert.
type UpsertResult struct {
	// Secret is the stored secret, trimmed.
	Secret string
	// Generated is true when Secret came from the generator.
	Generated bool
	Change    record.Change
	// BackupKept is true when the backup member could not be removed.
	BackupKept bool
}

// Report is a read-only health report of the record file.
type Report struct {
	// Records is the number of well-formed records.
	Records int
	// Malformed holds the line numbers of malformed lines.
	Malformed []int
	// Duplicates lists names that occur on more than one line.
	Duplicates []string
	// OutOfOrder holds the line numbers of records sorting before their
	// predecessor.
	OutOfOrder []int
	// BackupPresent is true when a backup member left by an interrupted
	// update is still in the container.
	BackupPresent bool
	// Security is the strength and reuse analysis of the secrets.
	Security *security.SecurityScore
}

// Clean reports whether the file has no structural defects.
func (r *Report) Clean() bool {
	return len(r.Malformed) == 0 && len(r.Duplicates) == 0 && len(r.OutOfOrder) == 0
}

// Store is the credential record store.
type Store struct {
	backend   container.Backend
	target    Target
	protocol  *update.Protocol
	generator *generator.Generator
	length    int
	log       *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithGenerator replaces the password generator.
func WithGenerator(g *generator.Generator) Option {
	return func(s *Store) {
		s.generator = g
	}
}

// WithGeneratedLength sets the length of generated secrets. Out of range
// values fall back to generator.DefaultLength with a warning when used.
func WithGeneratedLength(n int) Option {
	return func(s *Store) {
		s.length = n
	}
}

// New returns a Store reading and writing target through backend.
func New(backend container.Backend, target Target, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		target:  target,
		length:  generator.DefaultLength,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.target.Member == "" {
		s.target.Member = container.DefaultMember
	}
	if s.generator == nil {
		s.generator = generator.New(generator.WithLogger(s.log))
	}
	s.protocol = update.New(backend, s.log)
	return s
}

// load extracts and parses the record file. It returns the raw bytes too so
// the update protocol can back them up verbatim.
func (s *Store) load(ctx context.Context) (record.File, []byte, error) {
	data, err := s.backend.Extract(ctx, s.target.Container, s.target.Member, s.target.Passphrase)
	if errors.Is(err, container.ErrNotFound) {
		s.log.Warn("record file is missing or empty, treating it as empty",
			zap.String("container", s.target.Container), zap.String("member", s.target.Member))
		return record.File{}, nil, nil
	}
	if err != nil {
		return record.File{}, nil, fmt.Errorf("store: failed to read records: %w", err)
	}
	if len(data) == 0 {
		s.log.Warn("record file is empty", zap.String("container", s.target.Container))
	}

	f, malformed := record.Parse(data)
	for _, m := range malformed {
		s.log.Warn("skipping malformed record line", zap.Int("line", m.Number))
	}
	return f, data, nil
}

// Lookup returns every secret stored under name, compared case-insensitively,
// in file order.
func (s *Store) Lookup(ctx context.Context, name string) ([]string, error) {
	f, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return record.Lookup(f.Records(), name), nil
}

// Search returns the sorted lowercase names matching pattern anywhere,
// case-insensitively. A bad pattern is rejected before the backend is called.
func (s *Store) Search(ctx context.Context, pattern string) ([]string, error) {
	re, err := record.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}

	f, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return record.Match(f.Records(), re), nil
}

// Names returns all distinct lowercase names, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	f, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return f.Names(), nil
}

// UpsertInteractive stores a secret for name and commits it.
//
// supply is called once the merge position is known; an empty answer makes
// the store generate a secret. The file is committed through the update
// protocol only after the new content has been built.
func (s *Store) UpsertInteractive(ctx context.Context, name string, supply SecretFunc) (*UpsertResult, error) {
	if err := record.ValidateName(name); err != nil {
		return nil, err
	}

	// 1. Extract and parse
	f, prior, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Ask for the secret
	position := record.Position(f, name)
	secret, err := supply(ctx, position)
	if err != nil {
		return nil, err
	}

	// 3. Generate when empty
	generated := false
	if secret == "" {
		secret, err = s.generator.Generate(s.length)
		if err != nil {
			return nil, fmt.Errorf("store: failed to generate secret: %w", err)
		}
		generated = true
	}

	// 4. Merge
	next, change, err := record.Upsert(f, name, secret)
	if err != nil {
		return nil, err
	}

	// 5. Commit
	result, err := s.protocol.Commit(ctx, s.target, prior, next.Bytes())
	if err != nil {
		return nil, err
	}

	s.log.Info("record stored",
		zap.String("name", name),
		zap.Stringer("op", change.Op),
		zap.Int("line", change.Line+1),
		zap.Bool("generated", generated))

	return &UpsertResult{
		Secret:     next.Lines()[change.Line].Record.Secret,
		Generated:  generated,
		Change:     change,
		BackupKept: result.BackupKept,
	}, nil
}

// Check builds a read-only health report of the record file.
func (s *Store) Check(ctx context.Context) (*Report, error) {
	data, err := s.backend.Extract(ctx, s.target.Container, s.target.Member, s.target.Passphrase)
	if err != nil && !errors.Is(err, container.ErrNotFound) {
		return nil, fmt.Errorf("store: failed to read records: %w", err)
	}

	f, malformed := record.Parse(data)
	records := f.Records()

	report := &Report{
		Records:    len(records),
		Duplicates: duplicateNames(records),
		OutOfOrder: record.OutOfOrder(f),
	}
	for _, m := range malformed {
		report.Malformed = append(report.Malformed, m.Number)
	}

	backup := container.BackupMember(s.target.Member)
	if _, err := s.backend.Extract(ctx, s.target.Container, backup, s.target.Passphrase); err == nil {
		report.BackupPresent = true
	} else if !errors.Is(err, container.ErrNotFound) {
		s.log.Debug("could not probe backup member", zap.String("member", backup), zap.Error(err))
	}

	report.Security, err = security.NewCalculator().CalculateScore(records)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Init creates the container with an empty record file.
func (s *Store) Init(ctx context.Context) error {
	if err := s.backend.Create(ctx, s.target.Container, s.target.Member, s.target.Passphrase); err != nil {
		return fmt.Errorf("store: failed to create container: %w", err)
	}
	s.log.Info("container created", zap.String("container", s.target.Container))
	return nil
}

// duplicateNames returns the sorted keys that occur more than once.
func duplicateNames(records []record.Record) []string {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Key()]++
	}

	var out []string
	for k, n := range counts {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
