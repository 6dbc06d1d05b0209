package model

import "sort"

// UniverseTicker is one universe member with its GICS sector
type UniverseTicker struct {
	Ticker     string `json:"ticker"`
	GICSSector string `json:"gics_sector"`
}

// UniverseConfig is the fixed ticker universe, immutable for a run
type UniverseConfig struct {
	Tickers []UniverseTicker `json:"tickers"`
}

// SectorOf returns the GICS sector for a ticker
func (u *UniverseConfig) SectorOf(ticker string) (string, bool) {
	for _, t := range u.Tickers {
		if t.Ticker == ticker {
			return t.GICSSector, true
		}
	}
	return "", false
}

// Symbols returns all universe tickers in file order
func (u *UniverseConfig) Symbols() []string {
	symbols := make([]string, 0, len(u.Tickers))
	for _, t := range u.Tickers {
		symbols = append(symbols, t.Ticker)
	}
	return symbols
}

// BenchmarkWeight is one sector's benchmark allocation
type BenchmarkWeight struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"`
}

// BenchmarkWeights maps sector to benchmark weight; weights sum to 1.0
type BenchmarkWeights struct {
	Weights map[string]float64 `json:"weights"`
}

// Sum returns the total of all sector weights
func (b BenchmarkWeights) Sum() float64 {
	total := 0.0
	for _, w := range b.Weights {
		total += w
	}
	return total
}

// Sorted returns the weights as a list in sector-alphabetical order
func (b BenchmarkWeights) Sorted() []BenchmarkWeight {
	sectors := make([]string, 0, len(b.Weights))
	for sector := range b.Weights {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	weights := make([]BenchmarkWeight, 0, len(sectors))
	for _, sector := range sectors {
		weights = append(weights, BenchmarkWeight{Sector: sector, Weight: b.Weights[sector]})
	}
	return weights
}
