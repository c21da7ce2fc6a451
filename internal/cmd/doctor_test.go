package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/justrnr500/buildlint/internal/config"
)

func setupDoctorProject(t *testing.T, mutate func(*config.Config)) *project {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	if err := initProject(io.Discard, root, cfg); err != nil {
		t.Fatalf("init project: %v", err)
	}
	proj, err := openProject(root, true)
	if err != nil {
		t.Fatalf("open project: %v", err)
	}
	return proj
}

func TestCheckConfigValidity(t *testing.T) {
	proj := setupDoctorProject(t, nil)

	if r := checkConfigValidity(proj.paths.Config, true); !r.Passed {
		t.Errorf("expected pass, got issues: %v", r.Issues)
	}
	if r := checkConfigValidity(filepath.Join(t.TempDir(), "missing.yaml"), true); !r.Passed {
		t.Errorf("missing config should fall back to defaults, got %v", r.Issues)
	}
	if r := checkConfigValidity("", false); !r.Passed {
		t.Errorf("uninitialized project should pass, got %v", r.Issues)
	}
}

func TestCheckConfigValidity_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "include: [unclosed\n"},
		{"bad regexp", "include:\n  - \"/[/\"\n"},
		{"unknown driver", "report:\n  driver: redis\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			os.WriteFile(path, []byte(tt.content), 0644)

			r := checkConfigValidity(path, true)
			if r.Passed {
				t.Error("expected fail")
			}
			if len(r.Issues) == 0 {
				t.Error("expected issues")
			}
		})
	}
}

func TestCheckEngine_Missing(t *testing.T) {
	proj := setupDoctorProject(t, func(c *config.Config) {
		c.EslintPath = "/nonexistent/eslint"
	})

	r := checkEngine(proj, afero.NewOsFs(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if r.Passed {
		t.Error("expected fail for missing eslint")
	}
}

func TestCheckFormatter(t *testing.T) {
	if r := checkFormatter(""); !r.Passed {
		t.Errorf("default formatter should pass: %v", r.Issues)
	}
	if r := checkFormatter("compact"); !r.Passed {
		t.Errorf("compact should pass: %v", r.Issues)
	}
	if r := checkFormatter("checkstyle"); r.Passed {
		t.Error("expected fail for unknown formatter")
	}
}

func TestCheckCache(t *testing.T) {
	disabled := setupDoctorProject(t, nil)
	r := checkCache(disabled)
	if !r.Passed || !strings.Contains(r.Name, "disabled") {
		t.Errorf("got %+v, want disabled pass", r)
	}

	enabled := setupDoctorProject(t, func(c *config.Config) { c.Cache = true })
	r = checkCache(enabled)
	if !r.Passed {
		t.Fatalf("expected pass, got issues: %v", r.Issues)
	}
	if !strings.Contains(r.Name, "0 cached files") {
		t.Errorf("name = %q", r.Name)
	}
}

func TestCheckReport(t *testing.T) {
	fs := afero.NewOsFs()

	none := setupDoctorProject(t, nil)
	if r := checkReport(t.Context(), none, fs); !r.Passed {
		t.Errorf("disabled report should pass: %v", r.Issues)
	}

	jsonl := setupDoctorProject(t, func(c *config.Config) { c.Report.Driver = "jsonl" })
	if r := checkReport(t.Context(), jsonl, fs); !r.Passed {
		t.Errorf("jsonl report should pass: %v", r.Issues)
	}

	t.Setenv("BUILDLINT_DOCTOR_DSN", "")
	pg := setupDoctorProject(t, func(c *config.Config) {
		c.Report.Driver = "postgres"
		c.Report.DSNEnv = "BUILDLINT_DOCTOR_DSN"
	})
	if r := checkReport(t.Context(), pg, fs); r.Passed {
		t.Error("expected fail when DSN is unset")
	}
}

func TestWriteDoctorOutput(t *testing.T) {
	var buf bytes.Buffer
	ok := writeDoctorOutput(&buf, []CheckResult{
		{Name: "Config valid", Passed: true},
		{Name: "Lint engine available", Passed: false, Issues: []string{"eslint not found"}},
	})
	if ok {
		t.Error("expected failure")
	}
	out := buf.String()
	for _, want := range []string{"Config valid", "Lint engine available", "    eslint not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
