// Package report persists the outcome of every file in a build pass.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Record is the outcome of one file's lint cycle.
type Record struct {
	BuildID  string    `json:"build_id"`
	Path     string    `json:"path"`
	State    string    `json:"state"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Fixed    bool      `json:"fixed"`
	Time     time.Time `json:"time"`
}

// Sink stores records.
type Sink interface {
	// Record stores one record.
	Record(ctx context.Context, r Record) error
	// Records returns the records of a build, oldest first. An empty
	// buildID selects the most recent build.
	Records(ctx context.Context, buildID string) ([]Record, error)
	// Close releases the sink.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverJSONL    = "jsonl"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown report driver")

// Drivers lists the supported driver names.
func Drivers() []string {
	return []string{DriverJSONL, DriverSQLite, DriverMySQL, DriverPostgres}
}

// Open returns the sink for driver. For jsonl and sqlite the dsn is a file
// path. An empty driver returns Discard.
func Open(ctx context.Context, driver, dsn string, fs afero.Fs) (Sink, error) {
	switch strings.ToLower(driver) {
	case "", "none":
		return Discard, nil
	case DriverJSONL:
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewJSONL(fs, dsn), nil
	}

	var (
		s   *SQL
		err error
	)
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		s, err = OpenSQLite(ctx, dsn)
	case DriverMySQL:
		s, err = OpenMySQL(ctx, dsn)
	case DriverPostgres, "postgresql", "pg":
		s, err = OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Discard drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Record) error             { return nil }
func (discard) Records(context.Context, string) ([]Record, error) { return nil, nil }
func (discard) Close() error                                      { return nil }

// Totals aggregates a build's records.
type Totals struct {
	Files    int
	Flagged  int
	Errors   int
	Warnings int
	Fixed    int
	States   map[string]int
}

// Summarize totals records.
func Summarize(records []Record) Totals {
	t := Totals{States: make(map[string]int)}
	for _, r := range records {
		t.Files++
		t.Errors += r.Errors
		t.Warnings += r.Warnings
		if r.Errors > 0 || r.Warnings > 0 {
			t.Flagged++
		}
		if r.Fixed {
			t.Fixed++
		}
		t.States[r.State]++
	}
	return t
}

// latestBuild returns the build ID of the newest record.
func latestBuild(records []Record) string {
	var id string
	var newest time.Time
	for _, r := range records {
		if id == "" || !r.Time.Before(newest) {
			id, newest = r.BuildID, r.Time
		}
	}
	return id
}

func sortByTime(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
}
