package model

// ClaimType categorizes the nature of a claim
type ClaimType string

const (
	ClaimCompetitiveAdvantage ClaimType = "competitive_advantage" // Durable-moat assertion
	ClaimCAGRConnection       ClaimType = "cagr_connection"       // Advantage linked to growth trajectory
	ClaimFactual              ClaimType = "factual_claim"         // Verifiable factual statement
)

// Valid reports whether t is one of the allowed claim types
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimCompetitiveAdvantage, ClaimCAGRConnection, ClaimFactual:
		return true
	}
	return false
}

// RuleEvaluation records which dogma rules were applied to a claim
type RuleEvaluation struct {
	AppliedRules []string        `json:"applied_rules"`         // Rule ids, e.g. "rule_6"
	Results      map[string]bool `json:"results,omitempty"`     // Per-rule pass/fail
	Confidence   float64         `json:"confidence"`            // In [0,1]
	Adjustments  []string        `json:"adjustments,omitempty"` // Ordered adjustment notes
}

// HasRule reports whether the given rule id is among the applied rules
func (r RuleEvaluation) HasRule(id string) bool {
	for _, applied := range r.AppliedRules {
		if applied == id {
			return true
		}
	}
	return false
}

// Claim is a discrete assertion extracted from one transcript
type Claim struct {
	ID             string         `json:"id"`
	Type           ClaimType      `json:"claim_type"`
	Text           string         `json:"claim"`
	Evidence       string         `json:"evidence,omitempty"` // Supporting quote from the transcript
	RuleEvaluation RuleEvaluation `json:"rule_evaluation"`
}

// ScoredClaim is a claim after Phase 2 rule-compliance scoring
type ScoredClaim struct {
	Claim
	FinalConfidence float64  `json:"final_confidence"`      // In [0,1], clamped
	Adjustments     []string `json:"adjustments,omitempty"` // Scoring-time adjustment notes
}
