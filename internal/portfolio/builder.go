// Package portfolio builds the benchmark-relative portfolio from ranked
// stocks and evaluates it against realized returns and analyst scores.
package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/moatscan/moatscan/internal/model"
)

// Builder constructs sector-allocated portfolios
type Builder struct {
	topN int
}

// NewBuilder creates a builder selecting up to topN stocks per sector
func NewBuilder(topN int) *Builder {
	if topN <= 0 {
		topN = 1
	}
	return &Builder{topN: topN}
}

// Build selects the top-N ranked stocks in each benchmark sector and weights
// them by aggregate score within the sector's benchmark allocation. Sectors
// with no candidates get zero allocation; the shortfall stays unallocated
// rather than being redistributed, so the result is honest about coverage.
func (b *Builder) Build(ranked []model.RankedStock, benchmark model.BenchmarkWeights, asOf time.Time) *model.PortfolioResult {
	bySector := make(map[string][]model.RankedStock)
	for _, stock := range ranked {
		bySector[stock.GICSSector] = append(bySector[stock.GICSSector], stock)
	}

	result := &model.PortfolioResult{
		AsOfDate:          asOf,
		SectorAllocations: make(map[string]float64, len(benchmark.Weights)),
	}

	for _, bw := range benchmark.Sorted() {
		candidates := bySector[bw.Sector]
		if len(candidates) == 0 {
			result.SectorAllocations[bw.Sector] = 0
			result.UnallocatedWeight += bw.Weight
			continue
		}

		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].SectorRank < candidates[j].SectorRank
		})
		selected := candidates
		if len(selected) > b.topN {
			selected = selected[:b.topN]
		}

		scoreSum := 0.0
		for _, s := range selected {
			scoreSum += s.AggregateScore
		}

		for _, s := range selected {
			// Score-proportional intra-sector weight; equal-weight when all
			// selected scores are zero
			intra := 1.0 / float64(len(selected))
			if scoreSum > 0 {
				intra = s.AggregateScore / scoreSum
			}
			result.Holdings = append(result.Holdings, model.PortfolioHolding{
				Ticker:           s.Ticker,
				Weight:           intra * bw.Weight,
				Sector:           bw.Sector,
				Score:            s.AggregateScore,
				ClaimCount:       s.ClaimCount,
				StructuralWeight: s.StructuralWeight,
				RationaleSummary: fmt.Sprintf("sector rank %d of %d, score %.3f from %d claims",
					s.SectorRank, len(candidates), s.AggregateScore, s.ClaimCount),
			})
		}
		result.SectorAllocations[bw.Sector] = bw.Weight
	}

	return result
}
