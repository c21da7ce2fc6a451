package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/justrnr500/buildlint/internal/filter"
	"github.com/justrnr500/buildlint/internal/pattern"
	"github.com/justrnr500/buildlint/internal/report"
)

func TestMatchID(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "src", "app.ts")
	os.MkdirAll(filepath.Dir(file), 0755)
	os.WriteFile(file, []byte("x"), 0644)

	if got := matchID(root, file); got != "src/app.ts" {
		t.Errorf("existing file = %q, want src/app.ts", got)
	}
	if got := matchID(root, "virtual:entry?raw"); got != "virtual:entry" {
		t.Errorf("virtual id = %q", got)
	}
}

func TestWriteMatchOutput(t *testing.T) {
	verdicts := []filter.Verdict{
		{Path: "src/app.ts", Included: true, Reason: filter.ReasonIncluded, Pattern: "src/**.ts"},
		{Path: "node_modules/x.js", Included: false, Reason: filter.ReasonExcluded, Pattern: "node_modules/**"},
	}

	var buf bytes.Buffer
	if err := writeMatchOutput(&buf, verdicts, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "src/app.ts  included") || !strings.Contains(lines[0], "src/**.ts") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "excluded") {
		t.Errorf("line 1 = %q", lines[1])
	}

	buf.Reset()
	if err := writeMatchOutput(&buf, verdicts, true); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded []filter.Verdict
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[1].Reason != filter.ReasonExcluded {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWritePatterns(t *testing.T) {
	f := filter.New(
		pattern.Globs("src/**.ts"),
		pattern.List(pattern.Glob("node_modules/**"), pattern.Regexp(regexp.MustCompile(`^virtual:`))),
	)

	var buf bytes.Buffer
	writePatterns(&buf, f)
	want := "Include:\n  src/**.ts\nExclude:\n  node_modules/**\n  /^virtual:/\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	writePatterns(&buf, filter.New(nil, nil))
	if !strings.Contains(buf.String(), "every path not excluded is linted") {
		t.Errorf("empty include output = %q", buf.String())
	}
}

func TestWriteFormatters(t *testing.T) {
	var buf bytes.Buffer
	writeFormatters(&buf, []string{"compact", "stylish"}, "stylish")
	out := buf.String()
	if !strings.HasPrefix(out, "compact\n") || !strings.Contains(out, "stylish (default)") {
		t.Errorf("output = %q", out)
	}
}

func TestWriteReportOutput(t *testing.T) {
	now := time.Now()
	records := []report.Record{
		{BuildID: "b1", Path: "src/z.js", State: "flagged", Errors: 1, Time: now},
		{BuildID: "b1", Path: "src/a.js", State: "clean", Time: now},
		{BuildID: "b1", Path: "src/m.js", State: "flagged", Warnings: 2, Fixed: true, Time: now},
	}

	var buf bytes.Buffer
	writeReportOutput(&buf, records, false)
	out := buf.String()
	for _, want := range []string{"Build b1: 3 files, 2 flagged", "1 error and 2 warnings", "1 file fixed", "src/m.js  2 warnings", "(fixed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "src/a.js") {
		t.Error("clean file listed without --all")
	}
	if strings.Index(out, "src/m.js") > strings.Index(out, "src/z.js") {
		t.Error("files not sorted by path")
	}

	buf.Reset()
	writeReportOutput(&buf, records, true)
	if !strings.Contains(buf.String(), "src/a.js") {
		t.Error("clean file missing with --all")
	}

	buf.Reset()
	writeReportOutput(&buf, nil, false)
	if !strings.Contains(buf.String(), "No records found.") {
		t.Errorf("empty output = %q", buf.String())
	}
}
