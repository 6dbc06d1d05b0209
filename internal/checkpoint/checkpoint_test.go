package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Save("phase1/AAPL", map[string]int{"claims": 3}); err != nil {
		t.Fatal(err)
	}
	if err := m.Fail("phase1/MSFT", errors.New("rate limited")); err != nil {
		t.Fatal(err)
	}

	if !m.Processed("phase1/AAPL") {
		t.Error("expected AAPL to be processed")
	}
	if m.Processed("phase1/MSFT") {
		t.Error("failed item must not count as processed")
	}
	if m.Processed("phase1/JPM") {
		t.Error("unknown item must not count as processed")
	}

	// Reload from disk, as a restarted run would
	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Processed("phase1/AAPL") {
		t.Error("expected processed state to survive reload")
	}

	var result map[string]int
	found, err := reloaded.Result("phase1/AAPL", &result)
	if err != nil {
		t.Fatal(err)
	}
	if !found || result["claims"] != 3 {
		t.Errorf("expected stored result, got found=%v result=%v", found, result)
	}

	succeeded, failed := reloaded.Stats()
	if succeeded != 1 || failed != 1 {
		t.Errorf("expected 1 succeeded / 1 failed, got %d / %d", succeeded, failed)
	}
}

func TestManager_ResultMissing(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"))
	if err != nil {
		t.Fatal(err)
	}

	var v struct{}
	found, err := m.Result("nope", &v)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected no result for unknown item")
	}
}

func TestManager_OverwriteFailedWithSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Fail("phase2/JPM", errors.New("timeout")); err != nil {
		t.Fatal(err)
	}
	if err := m.Save("phase2/JPM", "ok"); err != nil {
		t.Fatal(err)
	}

	if !m.Processed("phase2/JPM") {
		t.Error("expected retried item to be processed after success")
	}
	succeeded, failed := m.Stats()
	if succeeded != 1 || failed != 0 {
		t.Errorf("expected 1/0, got %d/%d", succeeded, failed)
	}
}

func TestManager_IDs(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"))
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Save("b", 1)
	_ = m.Save("a", 2)
	_ = m.Fail("c", errors.New("x"))

	got := m.IDs(StatusSucceeded)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected sorted succeeded ids [a b], got %v", got)
	}
	if failed := m.IDs(StatusFailed); len(failed) != 1 || failed[0] != "c" {
		t.Errorf("expected failed ids [c], got %v", failed)
	}
}

func TestNewManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Error("expected error for corrupt checkpoint file")
	}
}
