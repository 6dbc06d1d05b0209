package model

import "time"

// PortfolioHolding is one position in the built portfolio
type PortfolioHolding struct {
	Ticker           string  `json:"ticker"`
	Weight           float64 `json:"weight"`
	Sector           string  `json:"sector"`
	Score            float64 `json:"score"` // Aggregate score that earned the position
	RationaleSummary string  `json:"rationale_summary,omitempty"`
	ClaimCount       int     `json:"claim_count"`
	StructuralWeight float64 `json:"structural_weight"`
}

// PortfolioResult is the benchmark-relative portfolio for one as-of date.
// If every benchmark sector has at least one candidate the holding weights
// sum to 1.0; otherwise the shortfall is recorded in UnallocatedWeight and
// is deliberately not redistributed.
type PortfolioResult struct {
	AsOfDate          time.Time          `json:"as_of_date"`
	Holdings          []PortfolioHolding `json:"holdings"`
	SectorAllocations map[string]float64 `json:"sector_allocations"`
	UnallocatedWeight float64            `json:"unallocated_weight"`
}

// TotalWeight sums all holding weights
func (p *PortfolioResult) TotalWeight() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.Weight
	}
	return total
}

// AnalystScore carries two independent analyst rating scales; either may be nil
type AnalystScore struct {
	Ticker string   `json:"ticker"`
	KY     *float64 `json:"ky,omitempty"`
	AK     *float64 `json:"ak,omitempty"`
}

// PerformanceMetrics are realized-return risk metrics vs the benchmark
type PerformanceMetrics struct {
	SharpeRatio      float64 `json:"sharpe_ratio"` // Annualized
	MaxDrawdown      float64 `json:"max_drawdown"` // Fraction, e.g. 0.25 = -25%
	Beta             float64 `json:"beta"`
	InformationRatio float64 `json:"information_ratio"`
}

// CorrelationMetrics compare strategy scores against one analyst scale.
// Fields are nil when the overlapping sample has fewer than two members.
type CorrelationMetrics struct {
	Correlation *float64 `json:"correlation"` // Spearman rank correlation
	PValue      *float64 `json:"p_value"`
	HitRate     *float64 `json:"hit_rate"` // Top-quintile overlap fraction
	SampleSize  int      `json:"sample_size"`
}

// TransparencyMetrics summarize how much claim evidence backs the portfolio
type TransparencyMetrics struct {
	MeanClaimCount       float64 `json:"mean_claim_count"`
	MeanStructuralWeight float64 `json:"mean_structural_weight"`
}

// EvaluationResult is the full strategy evaluation
type EvaluationResult struct {
	Performance        PerformanceMetrics            `json:"performance"`
	AnalystCorrelation map[string]CorrelationMetrics `json:"analyst_correlation"` // Keyed "ky", "ak"
	Transparency       TransparencyMetrics           `json:"transparency"`
}
