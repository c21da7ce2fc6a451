package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justrnr500/buildlint/internal/config"
)

func TestInitProject(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Cache = true

	var buf bytes.Buffer
	if err := initProject(&buf, root, cfg); err != nil {
		t.Fatalf("init: %v", err)
	}

	paths := config.ResolvePaths(root)
	for _, p := range []string{paths.Config, paths.Cache, filepath.Join(paths.Root, config.GitIgnoreFile)} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}

	loaded, err := config.Load(paths.Config)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Cache {
		t.Error("cache setting not saved")
	}

	data, _ := os.ReadFile(filepath.Join(root, ".gitignore"))
	if !strings.Contains(string(data), ".env") {
		t.Errorf("root .gitignore = %q, want .env entry", data)
	}

	buf.Reset()
	if err := initProject(&buf, root, cfg); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(buf.String(), "Already initialized") {
		t.Errorf("second init output = %q", buf.String())
	}
}

func TestInitProject_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Report.Driver = "redis"

	if err := initProject(&bytes.Buffer{}, root, cfg); err == nil {
		t.Fatal("expected error for unknown report driver")
	}
	if config.Exists(root) {
		t.Error("invalid config should not create the project")
	}
}

func TestEnsureGitignoreEntry(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"new file", "", ".env\n"},
		{"append", "dist/\n", "dist/\n.env\n"},
		{"append without newline", "dist/", "dist/\n.env\n"},
		{"already present", "dist/\n .env \n", "dist/\n .env \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".gitignore")
			if tt.existing != "" {
				os.WriteFile(path, []byte(tt.existing), 0644)
			}

			ensureGitignoreEntry(path, ".env")

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}
}
