// Package cache stores lint results keyed by file content so unchanged
// files are not sent to the engine again.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/justrnr500/buildlint/internal/lint"
)

const schema = `
CREATE TABLE IF NOT EXISTS lint_results (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	results TEXT NOT NULL DEFAULT '[]',
	error_count INTEGER NOT NULL DEFAULT 0,
	warning_count INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lint_results_fingerprint ON lint_results(fingerprint);

CREATE TABLE IF NOT EXISTS ignore_verdicts (
	path TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	ignored INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store wraps the SQLite cache database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Entry is one cached lint outcome.
type Entry struct {
	Path        string
	ContentHash string
	Fingerprint string
	Results     []lint.Result
	UpdatedAt   time.Time
}

// Get returns the cached results for path when both the content hash and
// the configuration fingerprint match. ok is false on a miss.
func (s *Store) Get(path, contentHash, fingerprint string) (results []lint.Result, ok bool, err error) {
	var data []byte
	err = s.db.QueryRow(`
		SELECT results FROM lint_results
		WHERE path = ? AND content_hash = ? AND fingerprint = ?
	`, path, contentHash, fingerprint).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached results: %w", err)
	}
	return results, true, nil
}

// Put records results for path, replacing any earlier entry.
func (s *Store) Put(e Entry) error {
	if e.Results == nil {
		e.Results = []lint.Result{}
	}
	data, err := json.Marshal(e.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	errs, warns := lint.Counts(e.Results)

	_, err = s.db.Exec(`
		INSERT INTO lint_results (path, content_hash, fingerprint, results, error_count, warning_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			fingerprint = excluded.fingerprint,
			results = excluded.results,
			error_count = excluded.error_count,
			warning_count = excluded.warning_count,
			updated_at = excluded.updated_at
	`,
		e.Path, e.ContentHash, e.Fingerprint, data, errs, warns,
		e.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// GetIgnored returns the stored ignore verdict for path under fingerprint.
// ok is false on a miss.
func (s *Store) GetIgnored(path, fingerprint string) (ignored, ok bool, err error) {
	err = s.db.QueryRow(`
		SELECT ignored FROM ignore_verdicts
		WHERE path = ? AND fingerprint = ?
	`, path, fingerprint).Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("query ignore verdict: %w", err)
	}
	return ignored, true, nil
}

// PutIgnored records the ignore verdict for path.
func (s *Store) PutIgnored(path, fingerprint string, ignored bool) error {
	_, err := s.db.Exec(`
		INSERT INTO ignore_verdicts (path, fingerprint, ignored, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			ignored = excluded.ignored,
			updated_at = excluded.updated_at
	`, path, fingerprint, ignored, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write ignore verdict: %w", err)
	}
	return nil
}

// Delete removes everything stored for path and reports whether anything
// was.
func (s *Store) Delete(path string) (bool, error) {
	var n int64
	for _, table := range []string{"lint_results", "ignore_verdicts"} {
		result, err := s.db.Exec("DELETE FROM "+table+" WHERE path = ?", path)
		if err != nil {
			return false, fmt.Errorf("delete cache entry: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("rows affected: %w", err)
		}
		n += rows
	}
	return n > 0, nil
}

// Clear removes every entry and returns how many lint results were removed.
func (s *Store) Clear() (int64, error) {
	if _, err := s.db.Exec("DELETE FROM ignore_verdicts"); err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	result, err := s.db.Exec("DELETE FROM lint_results")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries  int
	Flagged  int
	Errors   int
	Warnings int
}

// Stats returns entry counts across the whole cache.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN error_count > 0 OR warning_count > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(error_count), 0),
			COALESCE(SUM(warning_count), 0)
		FROM lint_results
	`).Scan(&st.Entries, &st.Flagged, &st.Errors, &st.Warnings)
	if err != nil {
		return Stats{}, fmt.Errorf("query cache stats: %w", err)
	}
	return st, nil
}

// HashContent returns the hex sha256 of content.
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// Fingerprint hashes the settings that change lint output, so entries
// written under other settings miss.
func Fingerprint(parts ...string) string {
	return HashContent(strings.Join(parts, "\x00"))
}
