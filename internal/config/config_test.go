package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justrnr500/buildlint/internal/report"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.ThrowOnError || cfg.ThrowOnWarning || cfg.Fix {
		t.Errorf("unexpected policy defaults: %+v", cfg)
	}
	if cfg.Formatter != "stylish" {
		t.Errorf("Formatter = %q, want stylish", cfg.Formatter)
	}

	include, exclude, err := cfg.Patterns()
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if len(include) != 6 || len(exclude) != 4 {
		t.Errorf("len(include)=%d len(exclude)=%d", len(include), len(exclude))
	}
	if !exclude[2].IsRegexp() || !exclude[3].IsRegexp() {
		t.Error("virtual module excludes should be regular expressions")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)

	cfg := Default()
	cfg.Fix = true
	cfg.Timeout = 30 * time.Second
	cfg.Report.Driver = report.DriverSQLite
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Fix || got.Timeout != 30*time.Second || got.Report.Driver != report.DriverSQLite {
		t.Errorf("round trip lost values: %+v", got)
	}
	if len(got.Exclude) != 4 || got.Exclude[2] != `/^\x00/` {
		t.Errorf("Exclude = %q", got.Exclude)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	data := "throwOnWarning: true\ninclude:\n  - \"/\\\\.js$/\"\ntimeout: 1m\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.ThrowOnWarning || !cfg.ThrowOnError {
		t.Errorf("ThrowOnWarning=%v ThrowOnError=%v", cfg.ThrowOnWarning, cfg.ThrowOnError)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", cfg.Timeout)
	}
	if len(cfg.Exclude) != 4 {
		t.Errorf("Exclude should keep defaults, got %q", cfg.Exclude)
	}

	include, _, err := cfg.Patterns()
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if len(include) != 1 || include[0].String() != `/\.js$/` {
		t.Errorf("include = %v", include)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), ConfigFile)
	os.WriteFile(path, []byte("include: [unterminated"), 0644)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Exclude = append(cfg.Exclude, "/(/")
	cfg.Report.Driver = "oracle"
	cfg.Concurrency = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(err, report.ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver in %v", err)
	}
	for _, want := range []string{"parse exclude", "concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestResolvePaths(t *testing.T) {
	p := ResolvePaths("/proj")
	if p.Root != filepath.Join("/proj", DirName) {
		t.Errorf("Root = %q", p.Root)
	}
	if p.Cache != filepath.Join("/proj", DirName, CacheFile) {
		t.Errorf("Cache = %q", p.Cache)
	}
	if p.Env != filepath.Join("/proj", EnvFile) {
		t.Errorf("Env = %q", p.Env)
	}

	cfg := Default()
	if cfg.CachePath(p) != p.Cache {
		t.Errorf("CachePath default = %q", cfg.CachePath(p))
	}
	cfg.CacheLocation = "tmp/lint.db"
	if cfg.CachePath(p) != filepath.Join("/proj", "tmp", "lint.db") {
		t.Errorf("CachePath = %q", cfg.CachePath(p))
	}
}

func TestReportDSN(t *testing.T) {
	p := ResolvePaths("/proj")
	cfg := Default()

	tests := []struct {
		driver string
		path   string
		want   string
	}{
		{"", "", ""},
		{report.DriverJSONL, "", p.Report},
		{report.DriverJSONL, "out/lint.jsonl", filepath.Join("/proj", "out", "lint.jsonl")},
		{report.DriverSQLite, "", filepath.Join(p.Root, ReportDBFile)},
	}
	for _, tt := range tests {
		cfg.Report.Driver = tt.driver
		cfg.Report.Path = tt.path
		got, err := cfg.ReportDSN(p)
		if err != nil {
			t.Fatalf("ReportDSN(%s): %v", tt.driver, err)
		}
		if got != tt.want {
			t.Errorf("ReportDSN(%s) = %q, want %q", tt.driver, got, tt.want)
		}
	}

	cfg.Report.Driver = report.DriverPostgres
	cfg.Report.DSNEnv = "BUILDLINT_TEST_DSN_UNSET"
	if _, err := cfg.ReportDSN(p); err == nil {
		t.Error("expected error for unset DSN variable")
	}

	t.Setenv("BUILDLINT_TEST_DSN", "postgres://localhost/lint")
	cfg.Report.DSNEnv = "BUILDLINT_TEST_DSN"
	got, err := cfg.ReportDSN(p)
	if err != nil || got != "postgres://localhost/lint" {
		t.Errorf("ReportDSN(postgres) = %q, %v", got, err)
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	if got != root {
		t.Errorf("FindRoot = %q, want %q", got, root)
	}
	if !Exists(root) || Exists(nested) {
		t.Error("Exists mismatch")
	}
}

func TestWorkers(t *testing.T) {
	cfg := Default()
	if cfg.Workers() < 1 {
		t.Errorf("Workers() = %d", cfg.Workers())
	}
	cfg.Concurrency = 3
	if cfg.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", cfg.Workers())
	}
}
