package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validUniverse = `{
	"tickers": [
		{"ticker": "AAPL", "gics_sector": "Information Technology"},
		{"ticker": "MSFT", "gics_sector": "Information Technology"},
		{"ticker": "JPM", "gics_sector": "Financials"}
	]
}`

const validBenchmark = `{
	"weights": {
		"Information Technology": 0.6,
		"Financials": 0.4
	}
}`

func writeConfigDir(t *testing.T, universe, benchmark string) string {
	t.Helper()
	dir := t.TempDir()
	if universe != "" {
		if err := os.WriteFile(filepath.Join(dir, "universe.json"), []byte(universe), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if benchmark != "" {
		if err := os.WriteFile(filepath.Join(dir, "benchmark_weights.json"), []byte(benchmark), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNewRepository_MissingDir(t *testing.T) {
	if _, err := NewRepository(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNewRepository_MissingFiles(t *testing.T) {
	dir := writeConfigDir(t, validUniverse, "")
	if _, err := NewRepository(dir); err == nil {
		t.Error("expected error for missing benchmark_weights.json")
	}

	dir = writeConfigDir(t, "", validBenchmark)
	if _, err := NewRepository(dir); err == nil {
		t.Error("expected error for missing universe.json")
	}
}

func TestRepository_Universe(t *testing.T) {
	dir := writeConfigDir(t, validUniverse, validBenchmark)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatal(err)
	}

	universe, err := repo.Universe()
	if err != nil {
		t.Fatal(err)
	}
	if len(universe.Tickers) != 3 {
		t.Errorf("expected 3 tickers, got %d", len(universe.Tickers))
	}

	sector, ok := universe.SectorOf("JPM")
	if !ok || sector != "Financials" {
		t.Errorf("expected JPM in Financials, got %q ok=%v", sector, ok)
	}
}

func TestRepository_Memoizes(t *testing.T) {
	dir := writeConfigDir(t, validUniverse, validBenchmark)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatal(err)
	}

	first, err := repo.Universe()
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the file after the first read; a memoized repository must not
	// go back to disk.
	if err := os.WriteFile(filepath.Join(dir, "universe.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	second, err := repo.Universe()
	if err != nil {
		t.Fatalf("expected memoized read, got error: %v", err)
	}
	if first != second {
		t.Error("expected the same cached instance on repeated reads")
	}
}

func TestRepository_BenchmarkWeightsSumValidation(t *testing.T) {
	badBenchmark := `{"weights": {"Information Technology": 0.6, "Financials": 0.3}}`
	dir := writeConfigDir(t, validUniverse, badBenchmark)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.BenchmarkWeights(); err == nil {
		t.Error("expected error for weights not summing to 1.0")
	}
}

func TestRepository_DuplicateTicker(t *testing.T) {
	dup := `{"tickers": [
		{"ticker": "AAPL", "gics_sector": "Information Technology"},
		{"ticker": "AAPL", "gics_sector": "Information Technology"}
	]}`
	dir := writeConfigDir(t, dup, validBenchmark)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Universe(); err == nil {
		t.Error("expected error for duplicate ticker")
	}
}
