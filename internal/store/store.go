package store

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	libsql "github.com/tursodatabase/go-libsql"
)

// Mode identifies how a store was opened.
type Mode string

const (
	// ModeLocal is a plain local SQLite file with no remote.
	ModeLocal Mode = "local"
	// ModeReplica is an embedded replica of a remote libSQL database.
	ModeReplica Mode = "replica"
)

// Options configures Open.
type Options struct {
	// Path is the local database file. Parent directories are created.
	Path string

	// RemoteURL and AuthToken form the remote connection descriptor.
	// Both must be set for replica mode; if either is empty the store
	// opens in local mode and Sync returns ErrSyncDisabled.
	RemoteURL string
	AuthToken string

	// ReadYourWrites makes writes through the replica visible to
	// subsequent local reads before the next sync.
	ReadYourWrites bool

	// Syncer overrides the syncer derived from the connection mode.
	// Used by tests to substitute the replication primitive with a stub.
	Syncer Syncer

	// Logger receives non-fatal notices (failed background syncs,
	// checkpoint warnings). Nil discards them.
	Logger *log.Logger
}

// DefaultOptions returns Options for the given path with defaults applied.
func DefaultOptions(path string) Options {
	return Options{
		Path:           path,
		ReadYourWrites: true,
	}
}

// Store wraps the embedded database with typed item operations and the
// synchronization primitive. Construct with Open, release with Close.
type Store struct {
	conn      *sql.DB
	connector *libsql.Connector
	syncer    Syncer
	path      string
	mode      Mode
	logger    *log.Logger
}

// Open opens (creating if necessary) the database file described by opts.
//
// With a complete remote descriptor the file becomes an embedded replica of
// the remote primary; otherwise it is a plain local SQLite file. Either way
// the caller MUST call Close when done and should run EnsureSchema before
// any other operation.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Store{
		path:   opts.Path,
		logger: logger,
	}

	if opts.RemoteURL != "" && opts.AuthToken != "" {
		connector, err := libsql.NewEmbeddedReplicaConnector(opts.Path, opts.RemoteURL,
			libsql.WithAuthToken(opts.AuthToken),
			libsql.WithReadYourWrites(opts.ReadYourWrites),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded replica: %w", err)
		}
		s.conn = sql.OpenDB(connector)
		s.connector = connector
		s.mode = ModeReplica
		s.syncer = &replicaSyncer{connector: connector}
	} else {
		conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", opts.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.conn = conn
		s.mode = ModeLocal
		s.syncer = disabledSyncer{}
	}

	if opts.Syncer != nil {
		s.syncer = opts.Syncer
	}

	if err := s.conn.Ping(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s.conn.SetMaxOpenConns(25)
	s.conn.SetMaxIdleConns(5)
	s.conn.SetConnMaxLifetime(5 * time.Minute)

	if err := s.applyPragmas(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// applyPragmas sets the per-database pragmas. The replica connector manages
// its own journal, so journal_mode is only forced in local mode.
func (s *Store) applyPragmas() error {
	if s.mode == ModeLocal {
		if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return nil
}

// Path returns the local database file path.
func (s *Store) Path() string {
	return s.path
}

// Mode reports whether the store is a plain local file or an embedded replica.
func (s *Store) Mode() Mode {
	return s.mode
}

// RemoteConfigured reports whether a remote descriptor was supplied at Open.
func (s *Store) RemoteConfigured() bool {
	return s.mode == ModeReplica
}

// SyncEnabled reports whether Sync can do useful work, either through
// the replica connector or an injected syncer.
func (s *Store) SyncEnabled() bool {
	_, disabled := s.syncer.(disabledSyncer)
	return !disabled
}

// RawDB returns the underlying sql.DB for integration with other libraries.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close checkpoints and closes the database. Safe to call more than once.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing so the main file is current. The
	// replica connector checkpoints as part of its own shutdown.
	if s.mode == ModeLocal {
		if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.Printf("warning: failed to checkpoint WAL: %v", err)
		}
	}

	err := s.conn.Close()
	s.conn = nil

	if s.connector != nil {
		if cerr := s.connector.Close(); err == nil {
			err = cerr
		}
		s.connector = nil
	}

	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
