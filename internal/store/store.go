package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when no notebook has the requested id.
	ErrNotFound = errors.New("notebook not found")

	// ErrChecksumMismatch is returned when a stored blob does not match
	// its recorded checksum.
	ErrChecksumMismatch = errors.New("notebook checksum mismatch")

	// ErrNewerSchema is returned when a library was written by a build that
	// knows more migrations than this one.
	ErrNewerSchema = errors.New("library schema is newer than this build")
)

// libraryPragmas are set on the single connection of every Store.
var libraryPragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migrations[v] upgrades a library from user_version v to v+1.
// schema.sql is version 0.
var migrations = []func(*sql.Tx) error{
	indexTransitionsByAnnotation,
}

// Store is a notebook library backed by one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the library at path, creating it if needed, and brings its
// schema up to date. Opening the same path repeatedly is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	// One connection: pragmas are per connection and SQLite has one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepareLibrary(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepareLibrary(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range libraryPragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

// migrate runs every migration past the library's user_version. Each step
// commits together with its version bump.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("%w: v%d, expected at most v%d", ErrNewerSchema, version, len(migrations))
	}
	for v := version; v < len(migrations); v++ {
		if err := migrateStep(db, v); err != nil {
			return fmt.Errorf("migrate v%d to v%d: %w", v, v+1, err)
		}
	}
	return nil
}

func migrateStep(db *sql.DB, v int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrations[v](tx); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
		return err
	}
	return tx.Commit()
}

// indexTransitionsByAnnotation serves per-annotation history queries.
func indexTransitionsByAnnotation(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transitions_annotation
		ON transitions(notebook_id, annotation_id, seq)
	`)
	return err
}
