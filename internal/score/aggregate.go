package score

import (
	"github.com/moatscan/moatscan/internal/model"
)

// Structural-advantage rules from the dogma framework
const (
	RuleStructuralAdvantage = "rule_6"  // Weight 1.5
	RuleIndustryStructure   = "rule_11" // Weight 2.0
)

const (
	weightDefault     = 1.0
	weightRule6       = 1.5
	weightRule11      = 2.0
	cagrHighCutoff    = 0.7 // A cagr_connection claim at or above this is "high quality"
	cagrBonusFactor   = 1.10
	cagrMissingFactor = 0.90
)

// Aggregator folds scored claims into one StockScore per ticker
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate computes rule-weighted scores per ticker. Tickers with zero
// claims are excluded from the output, not zero-scored.
func (a *Aggregator) Aggregate(claimsByTicker map[string][]model.ScoredClaim) map[string]model.StockScore {
	scores := make(map[string]model.StockScore, len(claimsByTicker))
	for ticker, claims := range claimsByTicker {
		if len(claims) == 0 {
			continue
		}
		scores[ticker] = a.scoreTicker(ticker, claims)
	}
	return scores
}

func (a *Aggregator) scoreTicker(ticker string, claims []model.ScoredClaim) model.StockScore {
	var weightedSum, weightTotal float64
	structural := 0
	hasHighCAGR := false
	hasCAGR := false

	for _, c := range claims {
		w := claimWeight(c)
		if w != weightDefault {
			structural++
		}
		weightedSum += c.FinalConfidence * w
		weightTotal += w

		if c.Type == model.ClaimCAGRConnection {
			hasCAGR = true
			if c.FinalConfidence >= cagrHighCutoff {
				hasHighCAGR = true
			}
		}
	}

	aggregate := weightedSum / weightTotal

	// CAGR-connection quality adjustment: a high-confidence growth linkage
	// earns a bonus, a score with no growth linkage at all takes a haircut.
	switch {
	case hasHighCAGR:
		aggregate *= cagrBonusFactor
	case !hasCAGR:
		aggregate *= cagrMissingFactor
	}
	aggregate = clamp01(aggregate)

	return model.StockScore{
		Ticker:           ticker,
		AggregateScore:   aggregate,
		ClaimCount:       len(claims),
		StructuralWeight: float64(structural) / float64(len(claims)),
	}
}

// claimWeight returns the rule-based weight for one claim; rule_11 dominates
// when both structural rules apply
func claimWeight(c model.ScoredClaim) float64 {
	if c.RuleEvaluation.HasRule(RuleIndustryStructure) {
		return weightRule11
	}
	if c.RuleEvaluation.HasRule(RuleStructuralAdvantage) {
		return weightRule6
	}
	return weightDefault
}
