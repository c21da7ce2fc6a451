package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/lint/linttest"
	"github.com/justrnr500/buildlint/internal/pattern"
	"github.com/justrnr500/buildlint/internal/plugin"
	"github.com/justrnr500/buildlint/internal/policy"
)

func sourceTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/proj/src/app.js",
		"/proj/src/util/strings.ts",
		"/proj/src/styles.css",
		"/proj/src/App.vue",
		"/proj/node_modules/lodash/index.js",
		"/proj/.buildlint/config.yaml",
		"/proj/scripts/build.mjs",
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	return fs
}

func TestDiscover(t *testing.T) {
	fs := sourceTree(t)

	tests := []struct {
		name    string
		targets []string
		globs   []string
		want    []string
	}{
		{
			name:  "default globs",
			globs: DefaultGlobs,
			want: []string{
				"/proj/scripts/build.mjs",
				"/proj/src/App.vue",
				"/proj/src/app.js",
				"/proj/src/util/strings.ts",
			},
		},
		{
			name:    "directory target",
			targets: []string{"/proj/src/util"},
			globs:   DefaultGlobs,
			want:    []string{"/proj/src/util/strings.ts"},
		},
		{
			name:  "custom glob",
			globs: []string{"src/**/*.vue"},
			want:  []string{"/proj/src/App.vue"},
		},
		{
			name:    "explicit file skips globs",
			targets: []string{"/proj/src/styles.css", "/proj/src/styles.css"},
			globs:   DefaultGlobs,
			want:    []string{"/proj/src/styles.css"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := discover(fs, "/proj", tt.targets, tt.globs)
			if err != nil {
				t.Fatalf("discover: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	fs := sourceTree(t)

	if _, err := discover(fs, "/proj", nil, []string{"src/[*.js"}); err == nil {
		t.Error("expected error for invalid glob")
	}
	if _, err := discover(fs, "/proj", []string{"/proj/missing"}, DefaultGlobs); err == nil {
		t.Error("expected error for missing target")
	}
}

func newRunPlugin(t *testing.T, fake *linttest.Engine, throwOnError bool) (*plugin.Plugin, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts := plugin.DefaultOptions()
	opts.Include = pattern.List(pattern.Regexp(regexp.MustCompile(`\.(js|ts)$`)))
	opts.Exclude = nil
	opts.ThrowOnError = throwOnError
	opts.Output = &out
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.NewEngine = func(context.Context, string, *plugin.Options) (lint.Engine, error) {
		return fake, nil
	}

	p := plugin.New(opts)
	if err := p.ConfigResolved(context.Background(), plugin.ResolvedConfig{Root: "/proj"}); err != nil {
		t.Fatalf("config resolved: %v", err)
	}
	return p, &out
}

func TestBuildPass(t *testing.T) {
	fs := sourceTree(t)
	fake := linttest.New()
	fake.SetResults("src/app.js", linttest.Finding("src/app.js", 2, 1))
	fake.SetResults("src/util/strings.ts", lint.Result{FilePath: "/proj/src/util/strings.ts"})

	p, out := newRunPlugin(t, fake, false)
	files := []string{"/proj/src/app.js", "/proj/src/util/strings.ts", "/proj/src/App.vue"}

	sum, err := buildPass(context.Background(), p, fs, files, 2)
	if err != nil {
		t.Fatalf("build pass: %v", err)
	}
	if sum.Files != 3 {
		t.Errorf("files = %d, want 3", sum.Files)
	}
	if sum.States[policy.Flagged] != 1 || sum.States[policy.Clean] != 1 || sum.States[policy.FilteredOut] != 1 {
		t.Errorf("states = %v", sum.States)
	}
	if sum.Errors != 2 || sum.Warnings != 1 {
		t.Errorf("counts = %d/%d, want 2/1", sum.Errors, sum.Warnings)
	}
	if !strings.Contains(out.String(), "src/app.js") {
		t.Errorf("findings not reported:\n%s", out.String())
	}
}

func TestBuildPass_Halts(t *testing.T) {
	fs := sourceTree(t)
	fake := linttest.New()
	fake.SetResults("src/app.js", linttest.Finding("src/app.js", 1, 0))

	p, _ := newRunPlugin(t, fake, true)

	_, err := buildPass(context.Background(), p, fs, []string{"/proj/src/app.js"}, 1)
	if !policy.IsFinding(err) {
		t.Fatalf("err = %v, want finding error", err)
	}
	if !strings.HasPrefix(err.Error(), "src/app.js: 1 error") {
		t.Errorf("err = %q", err)
	}
}

func TestBuildPass_ReadError(t *testing.T) {
	p, _ := newRunPlugin(t, linttest.New(), true)

	_, err := buildPass(context.Background(), p, afero.NewMemMapFs(), []string{"/proj/src/gone.js"}, 1)
	if err == nil || !strings.Contains(err.Error(), "read /proj/src/gone.js") {
		t.Errorf("err = %v", err)
	}
}

func TestWriteBuildSummary(t *testing.T) {
	sum := &buildSummary{
		Files:    4,
		States:   map[policy.State]int{policy.Clean: 2, policy.Flagged: 1, policy.FilteredOut: 1},
		Errors:   1,
		Warnings: 3,
		Fixed:    1,
	}

	var buf bytes.Buffer
	writeBuildSummary(&buf, "0123456789abcdef", sum, nil)
	out := buf.String()
	for _, want := range []string{"3 files linted", "2 clean, 1 flagged, 1 filtered-out", "01234567", "1 error and 3 warnings", "1 file fixed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "build halted") {
		t.Error("unexpected halt line")
	}

	buf.Reset()
	empty := &buildSummary{States: map[policy.State]int{}}
	writeBuildSummary(&buf, "id", empty, &policy.FindingError{Path: "a.js", Errors: 1})
	out = buf.String()
	if !strings.Contains(out, "nothing to lint") || !strings.Contains(out, "build halted") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	cfgErr := policy.NewConfigError(policy.StageLint, lint.NewEngineError("eslint", lint.ErrEngineFailed))
	writeBuildSummary(&buf, "id", empty, cfgErr)
	out = buf.String()
	if !strings.Contains(out, "configuration error") || strings.Contains(out, "build halted") {
		t.Errorf("config error output = %q", out)
	}

	buf.Reset()
	writeBuildSummary(&buf, "id", &buildSummary{States: map[policy.State]int{policy.Flagged: 1}, Errors: 2, Fixable: 2}, nil)
	if !strings.Contains(buf.String(), "2 problems fixable with --fix") {
		t.Errorf("fixable output = %q", buf.String())
	}
}

func TestBuildSummaryFixable(t *testing.T) {
	sum := &buildSummary{States: map[policy.State]int{}}

	unfixed := linttest.Finding("a.js", 2, 1)
	unfixed.FixableErrorCount = 1
	unfixed.FixableWarningCount = 1
	sum.add(&plugin.TransformResult{State: policy.Flagged, Results: []lint.Result{unfixed}})

	fixed := linttest.Finding("b.js", 1, 0)
	fixed.FixableErrorCount = 1
	sum.add(&plugin.TransformResult{State: policy.Flagged, Results: []lint.Result{fixed}, Fixed: true})

	if sum.Fixable != 2 {
		t.Errorf("Fixable = %d, want 2", sum.Fixable)
	}
	if sum.Fixed != 1 || sum.Errors != 3 || sum.Warnings != 1 {
		t.Errorf("summary = %+v", sum)
	}
}
