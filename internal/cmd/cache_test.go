package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justrnr500/buildlint/internal/cache"
	"github.com/justrnr500/buildlint/internal/lint"
	"github.com/justrnr500/buildlint/internal/lint/linttest"
)

func seededCache(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fp := cache.Fingerprint("test")
	for _, path := range []string{"src/a.js", "src/b.js", "src/c.js"} {
		err := store.Put(cache.Entry{
			Path:        path,
			ContentHash: cache.HashContent(path),
			Fingerprint: fp,
			Results:     []lint.Result{linttest.Finding(path, 0, 1)},
		})
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return store
}

func TestClearCache_All(t *testing.T) {
	store := seededCache(t)

	var buf bytes.Buffer
	if err := clearCache(&buf, store, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(buf.String(), "Cleared 3 cached files") {
		t.Errorf("output = %q", buf.String())
	}
	if st, _ := store.Stats(); st.Entries != 0 {
		t.Errorf("Entries = %d after clear", st.Entries)
	}
}

func TestClearCache_Paths(t *testing.T) {
	store := seededCache(t)

	var buf bytes.Buffer
	if err := clearCache(&buf, store, []string{"src/a.js", "src/missing.js"}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Cleared src/a.js") || !strings.Contains(out, "src/missing.js (not cached)") {
		t.Errorf("output = %q", out)
	}
	if st, _ := store.Stats(); st.Entries != 2 {
		t.Errorf("Entries = %d, want 2", st.Entries)
	}
}
