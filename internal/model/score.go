package model

// StockScore aggregates all scored claims for one ticker
type StockScore struct {
	Ticker           string  `json:"ticker"`
	AggregateScore   float64 `json:"aggregate_score"`
	ClaimCount       int     `json:"claim_count"`
	StructuralWeight float64 `json:"structural_weight"` // Fraction of claims with rule_6 or rule_11
}

// RankedStock is a stock score after sector neutralization
type RankedStock struct {
	StockScore
	GICSSector string  `json:"gics_sector"`
	ZScore     float64 `json:"z_score"`     // Sector-relative Z-score of aggregate_score
	SectorRank int     `json:"sector_rank"` // 1 = best in sector
}
