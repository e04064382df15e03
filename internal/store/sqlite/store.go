// Package sqlite implements the relay's two external store contracts on a
// SQLite database: the subscription proof store and the peer directory.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding subscription proofs and peer
// connection records. The table names come from configuration so deployments
// can share a database with other tooling.
type Store struct {
	db *sql.DB

	proofsTable string
	peersTable  string
}

const defaultMaxOpenConns = 10
const defaultMaxIdleConns = 10

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open creates or opens the SQLite database at path, runs migrations, and
// enables WAL mode. Table names are interpolated into SQL and therefore must
// be plain identifiers.
func Open(path, proofsTable, peersTable string) (*Store, error) {
	if !identRe.MatchString(proofsTable) {
		return nil, fmt.Errorf("invalid proofs table name %q", proofsTable)
	}
	if !identRe.MatchString(peersTable) {
		return nil, fmt.Errorf("invalid peers table name %q", peersTable)
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	// Append per-connection PRAGMAs to the DSN so every pooled connection gets them.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=synchronous(normal)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)

	// journal_mode and busy_timeout are database-wide; set them once here.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite setup (%s): %w", pragma, err)
		}
	}

	s := &Store{
		db:          db,
		proofsTable: proofsTable,
		peersTable:  peersTable,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	did        TEXT NOT NULL,
	proof      TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (did, proof)
)`, s.proofsTable),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	peer_id       TEXT PRIMARY KEY,
	did           TEXT NOT NULL,
	connection_id TEXT NOT NULL,
	endpoint      TEXT NOT NULL,
	status        TEXT NOT NULL,
	connected_at  INTEGER NOT NULL
)`, s.peersTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_did ON %s (did)`, s.peersTable, s.peersTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
