// Package config loads the static universe and benchmark definitions.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	gocache "github.com/patrickmn/go-cache"

	"github.com/moatscan/moatscan/internal/model"
)

const (
	universeFile  = "universe.json"
	benchmarkFile = "benchmark_weights.json"

	keyUniverse  = "universe"
	keyBenchmark = "benchmark"

	weightTolerance = 1e-6
)

// Repository loads and memoizes universe.json and benchmark_weights.json
// from a config directory. Both files are read at most once per instance.
type Repository struct {
	dir  string
	memo *gocache.Cache
}

// NewRepository creates a repository rooted at dir. It fails immediately if
// the directory or either config file is missing; configuration errors are
// fatal per the pipeline's error taxonomy.
func NewRepository(dir string) (*Repository, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory: %s is not a directory", dir)
	}

	for _, name := range []string{universeFile, benchmarkFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("config file %s: %w", name, err)
		}
	}

	return &Repository{
		dir:  dir,
		memo: gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// Universe returns the ticker universe, reading the file on first use
func (r *Repository) Universe() (*model.UniverseConfig, error) {
	if cached, found := r.memo.Get(keyUniverse); found {
		return cached.(*model.UniverseConfig), nil
	}

	data, err := os.ReadFile(filepath.Join(r.dir, universeFile))
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	var universe model.UniverseConfig
	if err := json.Unmarshal(data, &universe); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if err := validateUniverse(&universe); err != nil {
		return nil, fmt.Errorf("validate universe: %w", err)
	}

	r.memo.Set(keyUniverse, &universe, gocache.NoExpiration)
	return &universe, nil
}

// BenchmarkWeights returns the benchmark sector weights, reading the file on
// first use
func (r *Repository) BenchmarkWeights() (*model.BenchmarkWeights, error) {
	if cached, found := r.memo.Get(keyBenchmark); found {
		return cached.(*model.BenchmarkWeights), nil
	}

	data, err := os.ReadFile(filepath.Join(r.dir, benchmarkFile))
	if err != nil {
		return nil, fmt.Errorf("read benchmark weights: %w", err)
	}

	var weights model.BenchmarkWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("parse benchmark weights: %w", err)
	}
	if err := validateBenchmark(&weights); err != nil {
		return nil, fmt.Errorf("validate benchmark weights: %w", err)
	}

	r.memo.Set(keyBenchmark, &weights, gocache.NoExpiration)
	return &weights, nil
}

func validateUniverse(u *model.UniverseConfig) error {
	if len(u.Tickers) == 0 {
		return fmt.Errorf("universe has no tickers")
	}
	seen := make(map[string]bool, len(u.Tickers))
	for i, t := range u.Tickers {
		if t.Ticker == "" {
			return fmt.Errorf("ticker %d has empty symbol", i)
		}
		if t.GICSSector == "" {
			return fmt.Errorf("ticker %s has empty gics_sector", t.Ticker)
		}
		if seen[t.Ticker] {
			return fmt.Errorf("duplicate ticker %s", t.Ticker)
		}
		seen[t.Ticker] = true
	}
	return nil
}

func validateBenchmark(b *model.BenchmarkWeights) error {
	if len(b.Weights) == 0 {
		return fmt.Errorf("benchmark has no sectors")
	}
	for sector, w := range b.Weights {
		if w < 0 {
			return fmt.Errorf("sector %s has negative weight %f", sector, w)
		}
	}
	if sum := b.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %f, expected 1.0", sum)
	}
	return nil
}
