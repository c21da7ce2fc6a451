package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name   string
	driver string
	schema []string
	// placeholder returns the bind parameter for the n-th argument (1-based).
	placeholder func(n int) string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

var (
	sqliteDialect = dialect{
		name:   DriverSQLite,
		driver: "sqlite3",
		schema: []string{`
CREATE TABLE IF NOT EXISTS lint_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT NOT NULL,
	path TEXT NOT NULL,
	state TEXT NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	warning_count INTEGER NOT NULL DEFAULT 0,
	fixed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_lint_reports_build ON lint_reports(build_id)`,
		},
		placeholder: questionMark,
	}

	mysqlDialect = dialect{
		name:   DriverMySQL,
		driver: "mysql",
		schema: []string{`
CREATE TABLE IF NOT EXISTS lint_reports (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	build_id VARCHAR(64) NOT NULL,
	path VARCHAR(1024) NOT NULL,
	state VARCHAR(32) NOT NULL,
	error_count INT NOT NULL DEFAULT 0,
	warning_count INT NOT NULL DEFAULT 0,
	fixed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at VARCHAR(40) NOT NULL,
	INDEX idx_lint_reports_build (build_id)
)`,
		},
		placeholder: questionMark,
	}

	postgresDialect = dialect{
		name:   DriverPostgres,
		driver: "postgres",
		schema: []string{`
CREATE TABLE IF NOT EXISTS lint_reports (
	id BIGSERIAL PRIMARY KEY,
	build_id TEXT NOT NULL,
	path TEXT NOT NULL,
	state TEXT NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	warning_count INTEGER NOT NULL DEFAULT 0,
	fixed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_lint_reports_build ON lint_reports(build_id)`,
		},
		placeholder: dollar,
	}
)

// SQL stores records in a lint_reports table.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens or creates a SQLite report database at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return openSQL(ctx, sqliteDialect, path+"?_journal_mode=WAL&_busy_timeout=5000")
}

// OpenMySQL connects to MySQL. A "mysql://" prefix is stripped, since
// go-sql-driver expects its own DSN format.
func OpenMySQL(ctx context.Context, dsn string) (*SQL, error) {
	return openSQL(ctx, mysqlDialect, strings.TrimPrefix(dsn, "mysql://"))
}

// OpenPostgres connects to PostgreSQL using a URL or key=value DSN.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s report: empty dsn", d.name)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", d.name, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize %s report schema: %w", d.name, err)
		}
	}
	return &SQL{db: db, dialect: d}, nil
}

// Driver returns the report driver name.
func (s *SQL) Driver() string {
	return s.dialect.name
}

// bind rewrites "?" placeholders for the dialect.
func (s *SQL) bind(query string) string {
	if s.dialect.placeholder(1) == "?" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			sb.WriteString(s.dialect.placeholder(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Record inserts r.
func (s *SQL) Record(ctx context.Context, r Record) error {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO lint_reports (build_id, path, state, error_count, warning_count, fixed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		r.BuildID, r.Path, r.State, r.Errors, r.Warnings, r.Fixed,
		r.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report record: %w", err)
	}
	return nil
}

// Records returns the records of buildID, or of the latest build.
func (s *SQL) Records(ctx context.Context, buildID string) ([]Record, error) {
	if buildID == "" {
		err := s.db.QueryRowContext(ctx,
			"SELECT build_id FROM lint_reports ORDER BY id DESC LIMIT 1",
		).Scan(&buildID)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("query latest build: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, s.bind(`
		SELECT build_id, path, state, error_count, warning_count, fixed, created_at
		FROM lint_reports WHERE build_id = ?
		ORDER BY id
	`), buildID)
	if err != nil {
		return nil, fmt.Errorf("query report records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err := rows.Scan(&r.BuildID, &r.Path, &r.State, &r.Errors, &r.Warnings, &r.Fixed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report record: %w", err)
		}
		r.Time, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}
