// Package cost accounts for LLM token usage per pipeline phase. The tracker
// is an explicit collaborator handed to every call site rather than process
// state, so parallel runs and tests stay isolated.
package cost

import (
	"sort"
	"sync"
)

// Rates price token usage in USD per 1000 tokens
type Rates struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// PhaseUsage accumulates token counts for one phase
type PhaseUsage struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	EstimatedUSD     float64 `json:"estimated_usd"`
}

// Tracker accumulates token usage across phases. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	rates  Rates
	phases map[string]*PhaseUsage
}

// NewTracker creates a tracker pricing usage at the given rates
func NewTracker(rates Rates) *Tracker {
	return &Tracker{
		rates:  rates,
		phases: make(map[string]*PhaseUsage),
	}
}

// Record adds one call's token counts under the given phase
func (t *Tracker) Record(phase string, promptTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	usage, ok := t.phases[phase]
	if !ok {
		usage = &PhaseUsage{}
		t.phases[phase] = usage
	}
	usage.Calls++
	usage.PromptTokens += promptTokens
	usage.CompletionTokens += completionTokens
	usage.EstimatedUSD = t.price(usage)
}

// Usage returns a copy of the accumulated usage for one phase
func (t *Tracker) Usage(phase string) PhaseUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	if usage, ok := t.phases[phase]; ok {
		return *usage
	}
	return PhaseUsage{}
}

// Report is the end-of-run cost summary
type Report struct {
	Phases map[string]PhaseUsage `json:"phases"`
	Total  PhaseUsage            `json:"total"`
}

// Report snapshots all phases plus a grand total
func (t *Tracker) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := Report{Phases: make(map[string]PhaseUsage, len(t.phases))}
	for phase, usage := range t.phases {
		report.Phases[phase] = *usage
		report.Total.Calls += usage.Calls
		report.Total.PromptTokens += usage.PromptTokens
		report.Total.CompletionTokens += usage.CompletionTokens
	}
	report.Total.EstimatedUSD = t.price(&report.Total)
	return report
}

// PhaseNames returns recorded phase names in sorted order
func (t *Tracker) PhaseNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.phases))
	for phase := range t.phases {
		names = append(names, phase)
	}
	sort.Strings(names)
	return names
}

func (t *Tracker) price(u *PhaseUsage) float64 {
	return float64(u.PromptTokens)/1000*t.rates.PromptPer1K +
		float64(u.CompletionTokens)/1000*t.rates.CompletionPer1K
}
