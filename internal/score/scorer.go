// Package score implements Phase 2 (rule-compliance scoring of extracted
// claims) and the downstream aggregation into sector-neutral stock scores.
package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moatscan/moatscan/internal/cost"
	"github.com/moatscan/moatscan/internal/kb"
	"github.com/moatscan/moatscan/internal/llm"
	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pit"
)

const (
	phase = "phase2"

	kbBudget = 6000

	scoredFile = "scored.json"

	systemInstruction = `You are an equity analyst scoring competitive-advantage claims against a
fixed rule framework. Score only the claims provided. Respond with JSON only.`
)

// Scorer scores all of one ticker's claims with a single batched LLM call
type Scorer struct {
	provider  llm.Provider
	library   *kb.Library
	costs     *cost.Tracker
	outputDir string
	warn      io.Writer
}

// NewScorer creates a scorer writing results under outputDir. warn defaults
// to stderr.
func NewScorer(provider llm.Provider, library *kb.Library, costs *cost.Tracker, outputDir string, warn io.Writer) *Scorer {
	if warn == nil {
		warn = os.Stderr
	}
	return &Scorer{
		provider:  provider,
		library:   library,
		costs:     costs,
		outputDir: outputDir,
		warn:      warn,
	}
}

// Score scores the ticker's claims, clamps out-of-range confidences, and
// persists the result to {outputDir}/{ticker}/scored.json. All claims go in
// one call; batching keeps the LLM call count at one per ticker.
func (s *Scorer) Score(ctx context.Context, ticker string, claims []model.Claim, cutoff time.Time) ([]model.ScoredClaim, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	prompt, err := s.buildPrompt(ticker, claims, cutoff)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Complete(ctx, llm.Request{
		System:       systemInstruction,
		Prompt:       prompt,
		Temperature:  0.1,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("score claims for %s: %w", ticker, err)
	}
	s.costs.Record(phase, resp.PromptTokens, resp.CompletionTokens)

	scored, err := s.parseScored(ticker, claims, resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parse scores for %s: %w", ticker, err)
	}

	if err := s.persist(ticker, scored); err != nil {
		return nil, err
	}
	return scored, nil
}

func (s *Scorer) buildPrompt(ticker string, claims []model.Claim, cutoff time.Time) (string, error) {
	claimsJSON, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal claims for %s: %w", ticker, err)
	}

	var b strings.Builder
	b.WriteString(pit.PromptContext(cutoff))
	b.WriteString("\n\n")
	b.WriteString(s.library.ScoringContext(kbBudget))
	b.WriteString("\n\nCLAIMS FOR ")
	b.WriteString(ticker)
	b.WriteString(":\n")
	b.Write(claimsJSON)
	b.WriteString(`

Score every claim above for confidence and rule compliance under the rule
framework. Respond with a JSON object:
{"scores": [{"id": "<claim id>", "final_confidence": <0..1>, "applied_rules": ["rule_N", ...], "adjustments": ["<note>", ...]}]}`)

	return b.String(), nil
}

// scoredEntry is one claim's score in the LLM response
type scoredEntry struct {
	ID              string   `json:"id"`
	FinalConfidence float64  `json:"final_confidence"`
	AppliedRules    []string `json:"applied_rules"`
	Adjustments     []string `json:"adjustments"`
}

type scoredEnvelope struct {
	Scores []scoredEntry `json:"scores"`
}

func (s *Scorer) parseScored(ticker string, claims []model.Claim, text string) ([]model.ScoredClaim, error) {
	raw := stripCodeFence(text)

	var envelope scoredEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		var bare []scoredEntry
		if bareErr := json.Unmarshal([]byte(raw), &bare); bareErr != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		envelope.Scores = bare
	}

	byID := make(map[string]scoredEntry, len(envelope.Scores))
	for _, entry := range envelope.Scores {
		byID[entry.ID] = entry
	}

	scored := make([]model.ScoredClaim, 0, len(claims))
	for _, claim := range claims {
		entry, ok := byID[claim.ID]
		if !ok {
			// The model dropped a claim; keep the batch, skip the claim
			fmt.Fprintf(s.warn, "Warning: %s claim %s missing from scoring response, skipping\n", ticker, claim.ID)
			continue
		}

		sc := model.ScoredClaim{
			Claim:           claim,
			FinalConfidence: entry.FinalConfidence,
			Adjustments:     entry.Adjustments,
		}
		if len(entry.AppliedRules) > 0 {
			sc.RuleEvaluation.AppliedRules = entry.AppliedRules
		}
		if sc.FinalConfidence < 0 || sc.FinalConfidence > 1 {
			// Out-of-range scores are clamped rather than rejected
			clamped := clamp01(sc.FinalConfidence)
			sc.Adjustments = append(sc.Adjustments,
				fmt.Sprintf("confidence %.3f out of range, clamped to %.1f", sc.FinalConfidence, clamped))
			sc.FinalConfidence = clamped
		}
		scored = append(scored, sc)
	}
	return scored, nil
}

func (s *Scorer) persist(ticker string, scored []model.ScoredClaim) error {
	dir := filepath.Join(s.outputDir, ticker)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", ticker, err)
	}

	data, err := json.MarshalIndent(scored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scored claims for %s: %w", ticker, err)
	}

	path := filepath.Join(dir, scoredFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
