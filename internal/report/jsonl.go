package report

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// JSONL appends records to a JSON-lines file.
type JSONL struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewJSONL creates a JSONL sink for the given file path.
func NewJSONL(fs afero.Fs, path string) *JSONL {
	return &JSONL{fs: fs, path: path}
}

// Path returns the JSONL file path.
func (j *JSONL) Path() string {
	return j.path
}

// Record appends r as one line.
func (j *JSONL) Record(_ context.Context, r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	dir := filepath.Dir(j.path)
	if err := j.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := j.fs.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode record %s: %w", r.Path, err)
	}
	return nil
}

// ReadAll reads every record in the file.
func (j *JSONL) ReadAll() ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := j.fs.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	return records, nil
}

// Records returns the records of buildID, or of the latest build.
func (j *JSONL) Records(_ context.Context, buildID string) ([]Record, error) {
	all, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	if buildID == "" {
		buildID = latestBuild(all)
	}

	var out []Record
	for _, r := range all {
		if r.BuildID == buildID {
			out = append(out, r)
		}
	}
	sortByTime(out)
	return out, nil
}

// Close is a no-op; every Record call opens and closes the file.
func (j *JSONL) Close() error {
	return nil
}
