package lint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Fingerprinter is implemented by engines that can identify the
// configuration their results depend on. Cached results are only reused
// under an equal fingerprint.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// fingerprintFiles are read from the working directory when present. Lock
// files cover shareable configs and plugins installed under node_modules.
var fingerprintFiles = []string{
	"eslint.config.js",
	"eslint.config.mjs",
	"eslint.config.cjs",
	"eslint.config.ts",
	"eslint.config.mts",
	"eslint.config.cts",
	".eslintrc",
	".eslintrc.js",
	".eslintrc.cjs",
	".eslintrc.yaml",
	".eslintrc.yml",
	".eslintrc.json",
	".eslintignore",
	"package.json",
	"package-lock.json",
	"npm-shrinkwrap.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
}

// Fingerprint hashes the eslint version together with the configuration,
// ignore and lock files it resolves from, so editing any of them or
// upgrading eslint changes the result.
func (e *ESLint) Fingerprint(ctx context.Context) (string, error) {
	version, err := e.version(ctx)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", e.command, version)

	files := fingerprintFiles
	if e.configFile != "" {
		files = append([]string{e.configFile}, files...)
	}
	for _, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.cwd, path)
		}
		data, err := afero.ReadFile(e.fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", name, len(data))
		h.Write(data)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// version runs eslint --version.
func (e *ESLint) version(ctx context.Context) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command, "--version")
	cmd.Dir = e.cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", NewEngineError(e.command, ErrEngineTimeout)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewEngineError(e.command, ErrEngineFailed).WithOutput(strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
