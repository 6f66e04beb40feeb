// Implements a keyed, append-only JSONL table with an in-memory index.

package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// maxLineSize bounds one row. Rows holding whole block trees get large.
const maxLineSize = 64 << 20

// Row is a value stored in a Table.
type Row interface {
	// Key identifies the row. A later row with the same key replaces the earlier one.
	Key() string
}

// Table stores rows as one JSON document per line.
//
// Put appends to the file, so the file may hold stale versions of a row until Compact rewrites
// it. Reads are served from memory.
type Table[T Row] struct {
	path string

	mu    sync.RWMutex
	rows  []T
	index map[string]int
}

// Open loads the table at path, creating its directory if needed. A missing file is an empty
// table.
func Open[T Row](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	t := &Table[T]{path: path}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table[T]) load() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = nil
	t.index = map[string]int{}

	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open table file %s: %w", t.path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	var pending error
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if pending != nil {
			// Only the last line may be damaged.
			return pending
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			pending = fmt.Errorf("failed to unmarshal row %d in %s: %w", lineNo, t.path, err)
			continue
		}
		t.set(row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read table file %s: %w", t.path, err)
	}
	if pending != nil {
		slog.Warn("jsonl: dropping truncated last row", "path", t.path, "line", lineNo, "err", pending)
	}
	return nil
}

// set inserts or replaces row in memory. The caller holds mu.
func (t *Table[T]) set(row T) {
	k := row.Key()
	if i, ok := t.index[k]; ok {
		t.rows[i] = row
		return
	}
	t.index[k] = len(t.rows)
	t.rows = append(t.rows, row)
}

// Len returns the number of distinct keys.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns the latest row stored under key.
func (t *Table[T]) Get(key string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

// Put persists row and makes it the current version of its key.
func (t *Table[T]) Put(row T) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302: 0o644 is intentional
	if err != nil {
		return fmt.Errorf("failed to open table file for append: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	t.set(row)
	return nil
}

// Compact rewrites the file with only the current version of each row.
func (t *Table[T]) Compact() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rewrite()
}

// rewrite writes the in-memory rows to a temporary file and renames it over the table file. The
// caller holds mu.
func (t *Table[T]) rewrite() error {
	f, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	_ = f.Chmod(0o644) //nolint:gosec // G302: 0o644 is intentional

	w := bufio.NewWriter(f)
	for _, row := range t.rows {
		data, err := json.Marshal(row)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}
