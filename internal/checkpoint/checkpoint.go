// Package checkpoint persists per-item batch results to a JSON file so a
// partial run can resume without recomputing succeeded items.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Entry statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry is one item's persisted outcome
type Entry struct {
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Manager reads and writes the checkpoint file. Every successful item is
// flushed immediately, so a crash loses at most the in-flight item.
// Safe for concurrent use.
type Manager struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
}

// NewManager opens a checkpoint file, loading existing entries if present
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return m, nil
}

// Processed reports whether an item already succeeded. Failed items are not
// processed; a re-run retries them.
func (m *Manager) Processed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	return ok && entry.Status == StatusSucceeded
}

// Save records a successful result and flushes the file
func (m *Manager) Save(id string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result for %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = Entry{
		Status:    StatusSucceeded,
		Result:    raw,
		UpdatedAt: time.Now().UTC(),
	}
	return m.flushLocked()
}

// Fail records a permanently failed item and flushes the file
func (m *Manager) Fail(id string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = Entry{
		Status:    StatusFailed,
		Error:     cause.Error(),
		UpdatedAt: time.Now().UTC(),
	}
	return m.flushLocked()
}

// Result unmarshals a succeeded item's stored result into v. The boolean is
// false when the item has no stored success.
func (m *Manager) Result(id string, v any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	m.mu.Unlock()

	if !ok || entry.Status != StatusSucceeded {
		return false, nil
	}
	if err := json.Unmarshal(entry.Result, v); err != nil {
		return false, fmt.Errorf("unmarshal checkpoint result for %s: %w", id, err)
	}
	return true, nil
}

// IDs returns all recorded item ids with the given status, sorted
func (m *Manager) IDs(status string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, entry := range m.entries {
		if entry.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Stats returns succeeded and failed entry counts
func (m *Manager) Stats() (succeeded, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.entries {
		switch entry.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		}
	}
	return succeeded, failed
}

// flushLocked writes the whole entry map atomically (temp file + rename).
// Caller holds m.mu.
func (m *Manager) flushLocked() error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
