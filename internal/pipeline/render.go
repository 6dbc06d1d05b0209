package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/moatscan/moatscan/internal/cost"
	"github.com/moatscan/moatscan/internal/model"
)

const (
	portfolioFile  = "portfolio.json"
	evaluationFile = "evaluation.json"
)

// Renderer writes pipeline outputs under the output directory
type Renderer struct {
	outputDir string
}

// NewRenderer creates a renderer rooted at outputDir
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// WritePortfolio writes the built portfolio as indented JSON
func (r *Renderer) WritePortfolio(p *model.PortfolioResult) error {
	return r.writeJSON(portfolioFile, p)
}

// WriteEvaluation writes the strategy evaluation as indented JSON
func (r *Renderer) WriteEvaluation(e *model.EvaluationResult) error {
	return r.writeJSON(evaluationFile, e)
}

func (r *Renderer) writeJSON(name string, v any) error {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// RenderSummary prints a human-readable run summary
func (r *Renderer) RenderSummary(w io.Writer, result *RunResult) {
	fmt.Fprintf(w, "\nPortfolio as of %s\n", result.Portfolio.AsOfDate.Format("2006-01-02"))
	fmt.Fprintf(w, "%-8s %-28s %8s %7s %7s\n", "TICKER", "SECTOR", "WEIGHT", "SCORE", "CLAIMS")
	for _, h := range result.Portfolio.Holdings {
		fmt.Fprintf(w, "%-8s %-28s %7.2f%% %7.3f %7d\n",
			h.Ticker, h.Sector, h.Weight*100, h.Score, h.ClaimCount)
	}
	if result.Portfolio.UnallocatedWeight > 0 {
		fmt.Fprintf(w, "Unallocated: %.2f%% (sectors without candidates)\n",
			result.Portfolio.UnallocatedWeight*100)
	}

	if len(result.FailedPhase1) > 0 {
		fmt.Fprintf(w, "\nExtraction failed for: %v\n", result.FailedPhase1)
	}
	if len(result.FailedPhase2) > 0 {
		fmt.Fprintf(w, "Scoring failed for: %v\n", result.FailedPhase2)
	}

	fmt.Fprintf(w, "\nLLM usage:\n")
	for _, name := range sortedPhases(result.Costs.Phases) {
		usage := result.Costs.Phases[name]
		fmt.Fprintf(w, "  %-8s %d calls, %d prompt + %d completion tokens ($%.4f)\n",
			name, usage.Calls, usage.PromptTokens, usage.CompletionTokens, usage.EstimatedUSD)
	}
	fmt.Fprintf(w, "  total    $%.4f\n", result.Costs.Total.EstimatedUSD)
}

func sortedPhases(phases map[string]cost.PhaseUsage) []string {
	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
