// Package config handles buildlint configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justrnr500/buildlint/internal/pattern"
	"github.com/justrnr500/buildlint/internal/report"
)

const (
	// DirName is the name of the buildlint directory.
	DirName = ".buildlint"
	// ConfigFile is the name of the config file.
	ConfigFile = "config.yaml"
	// CacheFile is the name of the SQLite lint cache.
	CacheFile = "cache.db"
	// ReportFile is the name of the JSONL report file.
	ReportFile = "report.jsonl"
	// ReportDBFile is the name of the SQLite report database.
	ReportDBFile = "report.db"
	// EnvFile is the dotenv file loaded from the project root.
	EnvFile = ".env"
	// GitIgnoreFile is the name of the gitignore file.
	GitIgnoreFile = ".gitignore"

	// DefaultDSNEnv holds the report DSN for mysql and postgres.
	DefaultDSNEnv = "BUILDLINT_REPORT_DSN"
)

// Config represents the buildlint configuration.
type Config struct {
	Include            []string      `yaml:"include"`
	Exclude            []string      `yaml:"exclude"`
	Fix                bool          `yaml:"fix"`
	ThrowOnError       bool          `yaml:"throwOnError"`
	ThrowOnWarning     bool          `yaml:"throwOnWarning"`
	StrictConfigErrors bool          `yaml:"strictConfigErrors"`
	Formatter          string        `yaml:"formatter"`
	ConfigFile         string        `yaml:"configFile,omitempty"`
	EslintPath         string        `yaml:"eslintPath,omitempty"`
	Timeout            time.Duration `yaml:"timeout,omitempty"`
	Cache              bool          `yaml:"cache"`
	CacheLocation      string        `yaml:"cacheLocation,omitempty"`
	Report             ReportConfig  `yaml:"report"`
	Concurrency        int           `yaml:"concurrency,omitempty"`
}

// ReportConfig selects where build outcomes are stored.
type ReportConfig struct {
	// Driver is jsonl, sqlite, mysql or postgres. Empty disables reports.
	Driver string `yaml:"driver,omitempty"`
	// Path is the file for jsonl and sqlite, relative to the project root.
	Path string `yaml:"path,omitempty"`
	// DSNEnv names the environment variable holding the mysql or postgres DSN.
	DSNEnv string `yaml:"dsnEnv,omitempty"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Include: []string{
			"src/**.js",
			"src/**.jsx",
			"src/**.ts",
			"src/**.tsx",
			"src/**.vue",
			"src/**.svelte",
		},
		Exclude: []string{
			"node_modules/**",
			"**/node_modules/**",
			`/^\x00/`,
			"/^virtual:/",
		},
		ThrowOnError: true,
		Formatter:    "stylish",
		Report: ReportConfig{
			DSNEnv: DefaultDSNEnv,
		},
	}
}

// Load reads the configuration from a file. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Patterns parses the include and exclude lists.
func (c *Config) Patterns() (include, exclude []pattern.Pattern, err error) {
	include, err = pattern.ParseAll(c.Include)
	if err != nil {
		return nil, nil, fmt.Errorf("parse include: %w", err)
	}
	exclude, err = pattern.ParseAll(c.Exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("parse exclude: %w", err)
	}
	return include, exclude, nil
}

// Workers returns the configured concurrency, defaulting to the CPU count.
func (c *Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.NumCPU()
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.Patterns(); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %s", c.Timeout))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative: %d", c.Concurrency))
	}
	if c.Report.Driver != "" && !knownDriver(c.Report.Driver) {
		errs = append(errs, fmt.Errorf("%w: %q", report.ErrUnknownDriver, c.Report.Driver))
	}
	return errors.Join(errs...)
}

func knownDriver(name string) bool {
	for _, d := range report.Drivers() {
		if d == name {
			return true
		}
	}
	return false
}

// Paths holds the resolved paths for a buildlint project.
type Paths struct {
	Project string // project root
	Root    string // .buildlint directory
	Config  string // config.yaml
	Cache   string // cache.db
	Report  string // report.jsonl
	Env     string // .env in the project root
}

// ResolvePaths returns the paths for a project rooted at the given directory.
func ResolvePaths(root string) *Paths {
	dir := filepath.Join(root, DirName)
	return &Paths{
		Project: root,
		Root:    dir,
		Config:  filepath.Join(dir, ConfigFile),
		Cache:   filepath.Join(dir, CacheFile),
		Report:  filepath.Join(dir, ReportFile),
		Env:     filepath.Join(root, EnvFile),
	}
}

// CachePath returns the cache file, honoring cacheLocation.
func (c *Config) CachePath(p *Paths) string {
	if c.CacheLocation == "" {
		return p.Cache
	}
	return resolve(p.Project, c.CacheLocation)
}

// ReportDSN returns the DSN for the configured report driver. jsonl and
// sqlite resolve to files under the project; mysql and postgres read the
// DSN from the environment.
func (c *Config) ReportDSN(p *Paths) (string, error) {
	switch c.Report.Driver {
	case "":
		return "", nil
	case report.DriverJSONL:
		if c.Report.Path == "" {
			return p.Report, nil
		}
		return resolve(p.Project, c.Report.Path), nil
	case report.DriverSQLite:
		if c.Report.Path == "" {
			return filepath.Join(p.Root, ReportDBFile), nil
		}
		return resolve(p.Project, c.Report.Path), nil
	}

	env := c.Report.DSNEnv
	if env == "" {
		env = DefaultDSNEnv
	}
	dsn := os.Getenv(env)
	if dsn == "" {
		return "", fmt.Errorf("%s report: %s is not set", c.Report.Driver, env)
	}
	return dsn, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// FindRoot searches for a .buildlint directory starting from the given path
// and walking up the directory tree.
func FindRoot(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	current := absPath
	for {
		if Exists(current) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("not a buildlint project (or any parent): %s", startPath)
		}
		current = parent
	}
}

// Exists checks if a buildlint project exists at the given path.
func Exists(path string) bool {
	info, err := os.Stat(filepath.Join(path, DirName))
	return err == nil && info.IsDir()
}
