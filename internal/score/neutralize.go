package score

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/moatscan/moatscan/internal/model"
)

// Neutralizer converts raw stock scores into sector-relative rankings so
// cross-sector comparisons don't conflate sector effects with stock signal
type Neutralizer struct {
	warn io.Writer
}

// NewNeutralizer creates a neutralizer. warn defaults to stderr.
func NewNeutralizer(warn io.Writer) *Neutralizer {
	if warn == nil {
		warn = os.Stderr
	}
	return &Neutralizer{warn: warn}
}

// Neutralize Z-scores each ticker within its GICS sector and ranks sectors
// internally, best first. Ties break by ticker alphabetical order so ranks
// are deterministic. Tickers absent from the universe are dropped with a
// warning. Output is ordered sector-alphabetically, then by rank.
func (n *Neutralizer) Neutralize(scores map[string]model.StockScore, universe *model.UniverseConfig) []model.RankedStock {
	bySector := make(map[string][]model.RankedStock)
	for ticker, score := range scores {
		sector, ok := universe.SectorOf(ticker)
		if !ok {
			fmt.Fprintf(n.warn, "Warning: ticker %s has a score but is not in the universe, dropping\n", ticker)
			continue
		}
		bySector[sector] = append(bySector[sector], model.RankedStock{
			StockScore: score,
			GICSSector: sector,
		})
	}

	sectors := make([]string, 0, len(bySector))
	for sector := range bySector {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	var ranked []model.RankedStock
	for _, sector := range sectors {
		group := bySector[sector]
		zScoreGroup(group)

		sort.Slice(group, func(i, j int) bool {
			if group[i].ZScore != group[j].ZScore {
				return group[i].ZScore > group[j].ZScore
			}
			return group[i].Ticker < group[j].Ticker
		})
		for i := range group {
			group[i].SectorRank = i + 1
		}
		ranked = append(ranked, group...)
	}
	return ranked
}

// zScoreGroup assigns population Z-scores in place. Sectors with fewer than
// two members (or zero variance) get Z=0 to avoid division by zero.
func zScoreGroup(group []model.RankedStock) {
	if len(group) < 2 {
		for i := range group {
			group[i].ZScore = 0
		}
		return
	}

	mean := 0.0
	for _, s := range group {
		mean += s.AggregateScore
	}
	mean /= float64(len(group))

	variance := 0.0
	for _, s := range group {
		d := s.AggregateScore - mean
		variance += d * d
	}
	variance /= float64(len(group))

	if variance == 0 {
		for i := range group {
			group[i].ZScore = 0
		}
		return
	}

	std := math.Sqrt(variance)
	for i := range group {
		group[i].ZScore = (group[i].AggregateScore - mean) / std
	}
}
