package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Schema version constants
const (
	// SchemaVersion1 is the initial container layout.
	SchemaVersion1 = 1
	// CurrentSchemaVersion is the current schema version
	CurrentSchemaVersion = SchemaVersion1
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS container_keys (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	salt BLOB NOT NULL,
	kdf_memory INTEGER NOT NULL,
	kdf_time INTEGER NOT NULL,
	kdf_threads INTEGER NOT NULL,
	encrypted_dek BLOB NOT NULL,
	dek_nonce BLOB NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS members (
	name TEXT PRIMARY KEY,
	ciphertext BLOB NOT NULL,
	nonce BLOB NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// ErrSchemaTooNew is returned for containers written by a newer release.
var ErrSchemaTooNew = errors.New("vault: container schema is newer than supported")

// getSchemaVersion returns the stored schema version, or 0 for a fresh file.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vault: failed to check schema_version table: %w", err)
	}

	var version int
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vault: failed to get schema version: %w", err)
	}

	return version, nil
}

// setSchemaVersion records version in the schema_version table.
func setSchemaVersion(ctx context.Context, db *sql.DB, version int) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			migrated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("vault: failed to create schema_version table: %w", err)
	}

	_, err = db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", version)
	if err != nil {
		return fmt.Errorf("vault: failed to set schema version: %w", err)
	}

	return nil
}

// migrateSchema brings db up to CurrentSchemaVersion.
func migrateSchema(ctx context.Context, db *sql.DB) error {
	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	if version > CurrentSchemaVersion {
		return fmt.Errorf("%w: %d > %d", ErrSchemaTooNew, version, CurrentSchemaVersion)
	}
	if version == CurrentSchemaVersion {
		return nil
	}

	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("vault: failed to create tables: %w", err)
	}

	return setSchemaVersion(ctx, db, CurrentSchemaVersion)
}
