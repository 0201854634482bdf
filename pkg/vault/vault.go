// Package vault is a local encrypted container backend: a single SQLite file
// holding AES-256-GCM encrypted members.
//
// Key hierarchy:
//
//	passphrase --Argon2id(salt, params)--> KEK --wraps--> DEK --seals--> members
//
// The salt, the Argon2id parameters and the wrapped DEK live in the
// container_keys table, so a container file is self-describing. Each member
// is sealed with its name as associated data, which prevents swapping the
// ciphertexts of two members (for example the record file and its backup).
package vault

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/forest6511/pwctl/pkg/container"
	"github.com/forest6511/pwctl/pkg/crypto"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Constants
const (
	DEKLength = 32 // 256-bit DEK
	FileMode  = 0600
	DirMode   = 0700

	// MinDiskSpaceBytes is the free space required before any write.
	MinDiskSpaceBytes = 1024 * 1024
	// DiskWarningPercent triggers a low-space warning.
	DiskWarningPercent = 90

	driverName = "sqlite"
	dekAAD     = "pwctl:dek"
)

// Errors
var (
	ErrCorrupted        = errors.New("vault: container is corrupted")
	ErrInsufficientDisk = errors.New("vault: insufficient disk space")
)

// Container implements container.Backend on SQLite files.
type Container struct {
	params crypto.KDFParams
	log    *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithKDFParams sets the Argon2id parameters used for newly created
// containers. Existing containers keep the parameters they were created with.
func WithKDFParams(p crypto.KDFParams) Option {
	return func(c *Container) {
		c.params = p
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a Container backend.
func New(opts ...Option) *Container {
	c := &Container{
		params: crypto.DefaultKDFParams(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ container.Backend = (*Container)(nil)

// session is an open container with its DEK.
type session struct {
	db  *sql.DB
	dek []byte
}

func (s *session) close() {
	crypto.SecureWipe(s.dek)
	s.db.Close()
}

func backendErr(action string, err error) error {
	return fmt.Errorf("%w: vault: failed to %s: %w", container.ErrBackendFailure, action, err)
}

// open opens an existing container and unwraps its DEK.
func (c *Container) open(ctx context.Context, path string, passphrase []byte) (*session, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", container.ErrNotFound, path)
		}
		return nil, backendErr("stat container", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, backendErr("open container", err)
	}

	// A file without a schema is not a container; only Create lays one down.
	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		db.Close()
		return nil, backendErr("read schema version", err)
	}
	if version == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: %w: no schema", container.ErrBackendFailure, ErrCorrupted)
	}
	if version != CurrentSchemaVersion {
		if err := migrateSchema(ctx, db); err != nil {
			db.Close()
			return nil, backendErr("migrate schema", err)
		}
	}

	// 1. Load key material
	var (
		salt, wrapped, nonce []byte
		params               crypto.KDFParams
	)
	err = db.QueryRowContext(ctx, `
		SELECT salt, kdf_memory, kdf_time, kdf_threads, encrypted_dek, dek_nonce
		FROM container_keys WHERE id = 1
	`).Scan(&salt, &params.Memory, &params.Time, &params.Threads, &wrapped, &nonce)
	if err != nil {
		db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %w: no key material", container.ErrBackendFailure, ErrCorrupted)
		}
		return nil, backendErr("load key material", err)
	}

	// 2. Derive KEK
	kek, err := crypto.DeriveKey(passphrase, salt, params)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w: %w", container.ErrBackendFailure, ErrCorrupted, err)
	}
	defer crypto.SecureWipe(kek)

	// 3. Unwrap DEK
	dek, err := crypto.Decrypt(kek, wrapped, nonce, []byte(dekAAD))
	if err != nil {
		db.Close()
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, container.ErrInvalidPassphrase
		}
		return nil, fmt.Errorf("%w: %w: %w", container.ErrBackendFailure, ErrCorrupted, err)
	}

	return &session{db: db, dek: dek}, nil
}

// Create makes a new container at path holding an empty member.
func (c *Container) Create(ctx context.Context, path, member string, passphrase []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", container.ErrAlreadyExists, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return backendErr("create container directory", err)
	}
	if err := c.checkDiskSpaceForWrite(dir, 0); err != nil {
		return fmt.Errorf("%w: %w", container.ErrBackendFailure, err)
	}

	// 1. Generate salt and derive KEK
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return backendErr("generate salt", err)
	}
	kek, err := crypto.DeriveKey(passphrase, salt, c.params)
	if err != nil {
		return backendErr("derive key", err)
	}
	defer crypto.SecureWipe(kek)

	// 2. Generate and wrap DEK
	dek := make([]byte, DEKLength)
	if _, err := rand.Read(dek); err != nil {
		return backendErr("generate DEK", err)
	}
	defer crypto.SecureWipe(dek)

	wrapped, nonce, err := crypto.Encrypt(kek, dek, []byte(dekAAD))
	if err != nil {
		return backendErr("wrap DEK", err)
	}

	// 3. Seal the empty member
	ciphertext, memberNonce, err := crypto.Encrypt(dek, []byte{}, []byte(member))
	if err != nil {
		return backendErr("seal member", err)
	}

	// 4. Write the database
	db, err := sql.Open(driverName, path)
	if err != nil {
		return backendErr("create container", err)
	}
	defer db.Close()

	if err := migrateSchema(ctx, db); err != nil {
		os.Remove(path)
		return backendErr("create schema", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		os.Remove(path)
		return backendErr("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO container_keys (id, salt, kdf_memory, kdf_time, kdf_threads, encrypted_dek, dek_nonce)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`, salt, c.params.Memory, c.params.Time, c.params.Threads, wrapped, nonce)
	if err != nil {
		os.Remove(path)
		return backendErr("save key material", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO members (name, ciphertext, nonce) VALUES (?, ?, ?)",
		member, ciphertext, memberNonce); err != nil {
		os.Remove(path)
		return backendErr("save member", err)
	}

	if err := tx.Commit(); err != nil {
		os.Remove(path)
		return backendErr("commit transaction", err)
	}

	if err := os.Chmod(path, FileMode); err != nil {
		c.log.Warn("failed to restrict container permissions", zap.String("path", path), zap.Error(err))
	}

	c.log.Debug("container created", zap.String("path", path), zap.String("member", member))
	return nil
}

// Extract returns the decrypted content of member.
func (c *Container) Extract(ctx context.Context, path, member string, passphrase []byte) ([]byte, error) {
	s, err := c.open(ctx, path, passphrase)
	if err != nil {
		return nil, err
	}
	defer s.close()

	var ciphertext, nonce []byte
	err = s.db.QueryRowContext(ctx, "SELECT ciphertext, nonce FROM members WHERE name = ?", member).
		Scan(&ciphertext, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %q", container.ErrNotFound, member)
	}
	if err != nil {
		return nil, backendErr("read member", err)
	}

	plaintext, err := crypto.Decrypt(s.dek, ciphertext, nonce, []byte(member))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: member %q: %w", container.ErrBackendFailure, ErrCorrupted, member, err)
	}
	return plaintext, nil
}

// Update creates or overwrites member with data.
func (c *Container) Update(ctx context.Context, path, member string, passphrase []byte, data []byte) error {
	s, err := c.open(ctx, path, passphrase)
	if err != nil {
		return err
	}
	defer s.close()

	if err := c.checkDiskSpaceForWrite(filepath.Dir(path), len(data)); err != nil {
		return fmt.Errorf("%w: %w", container.ErrBackendFailure, err)
	}

	ciphertext, nonce, err := crypto.Encrypt(s.dek, data, []byte(member))
	if err != nil {
		return backendErr("seal member", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO members (name, ciphertext, nonce) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = CURRENT_TIMESTAMP
	`, member, ciphertext, nonce)
	if err != nil {
		return backendErr("write member", err)
	}

	c.log.Debug("member written", zap.String("path", path), zap.String("member", member), zap.Int("bytes", len(data)))
	return nil
}

// Delete removes member.
func (c *Container) Delete(ctx context.Context, path, member string, passphrase []byte) error {
	s, err := c.open(ctx, path, passphrase)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE name = ?", member)
	if err != nil {
		return backendErr("delete member", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return backendErr("delete member", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: member %q", container.ErrNotFound, member)
	}
	return nil
}

// DiskSpaceInfo describes the filesystem holding a container.
type DiskSpaceInfo struct {
	Total     uint64
	Free      uint64
	Available uint64
	UsedPct   int
}

// checkDiskSpaceForWrite verifies sufficient disk space before write operations
func (c *Container) checkDiskSpaceForWrite(dir string, dataSize int) error {
	info, err := CheckDiskSpace(dir)
	if err != nil {
		c.log.Warn("failed to check disk space", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	// Need at least MinDiskSpaceBytes or 2x the data size, whichever is larger
	required := uint64(MinDiskSpaceBytes)
	if uint64(dataSize*2) > required {
		required = uint64(dataSize * 2)
	}

	if info.Available < required {
		return fmt.Errorf("%w: only %d bytes available, need at least %d",
			ErrInsufficientDisk, info.Available, required)
	}

	if info.UsedPct >= DiskWarningPercent {
		c.log.Warn("disk is nearly full", zap.String("dir", dir), zap.Int("used_pct", info.UsedPct))
	}

	return nil
}
