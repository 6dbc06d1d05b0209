// Package extract implements Phase 1: pulling structured competitive-advantage
// claims out of one earnings-call transcript with a single LLM call.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moatscan/moatscan/internal/cost"
	"github.com/moatscan/moatscan/internal/kb"
	"github.com/moatscan/moatscan/internal/llm"
	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pit"
)

const (
	phase = "phase1"

	// kbBudget bounds each knowledge-base excerpt in the prompt
	kbBudget = 6000

	systemInstruction = `You are an equity analyst extracting competitive-advantage claims from
earnings-call transcripts. Extract only statements actually made in the
transcript. Respond with JSON only.`
)

// Extractor turns one transcript into structured claims via an LLM call
type Extractor struct {
	provider llm.Provider
	library  *kb.Library
	costs    *cost.Tracker
	warn     io.Writer
}

// NewExtractor creates an extractor. warn defaults to stderr.
func NewExtractor(provider llm.Provider, library *kb.Library, costs *cost.Tracker, warn io.Writer) *Extractor {
	if warn == nil {
		warn = os.Stderr
	}
	return &Extractor{
		provider: provider,
		library:  library,
		costs:    costs,
		warn:     warn,
	}
}

// Extract issues one LLM call for the transcript and parses the response into
// claims. Malformed claims are skipped with a warning rather than failing the
// transcript; an unparseable response fails the whole call.
func (e *Extractor) Extract(ctx context.Context, t model.Transcript, filingContext string, cutoff time.Time) ([]model.Claim, error) {
	prompt := e.buildPrompt(t, filingContext, cutoff)

	resp, err := e.provider.Complete(ctx, llm.Request{
		System:       systemInstruction,
		Prompt:       prompt,
		Temperature:  0.1,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract claims for %s: %w", t.Metadata.Ticker, err)
	}
	e.costs.Record(phase, resp.PromptTokens, resp.CompletionTokens)

	claims, err := e.parseClaims(t.Metadata.Ticker, resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parse claims for %s: %w", t.Metadata.Ticker, err)
	}
	return claims, nil
}

func (e *Extractor) buildPrompt(t model.Transcript, filingContext string, cutoff time.Time) string {
	var b strings.Builder

	b.WriteString(pit.PromptContext(cutoff))
	b.WriteString("\n\n")
	b.WriteString(e.library.ExtractionContext(kbBudget))
	b.WriteString("\n\nTRANSCRIPT (")
	b.WriteString(t.Metadata.Ticker)
	b.WriteString(", ")
	b.WriteString(t.Metadata.FiscalQuarter)
	b.WriteString(", ")
	b.WriteString(t.Metadata.EventDate.Format("2006-01-02"))
	b.WriteString("):\n")
	b.WriteString(t.Text())

	if filingContext != "" {
		b.WriteString("\n\nSEC FILING CONTEXT:\n")
		b.WriteString(filingContext)
	}

	b.WriteString(`

Extract every competitive-advantage statement, CAGR connection, and factual
claim from the transcript. Respond with a JSON object:
{"claims": [{"id": "<short id>", "claim_type": "competitive_advantage" | "cagr_connection" | "factual_claim", "claim": "<the assertion>", "evidence": "<supporting quote>", "rule_evaluation": {"applied_rules": ["rule_N", ...], "confidence": <0..1>}}]}`)

	return b.String()
}

// claimEnvelope accepts either {"claims": [...]} or a bare array
type claimEnvelope struct {
	Claims []model.Claim `json:"claims"`
}

func (e *Extractor) parseClaims(ticker, text string) ([]model.Claim, error) {
	raw := stripCodeFence(text)

	var envelope claimEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		var bare []model.Claim
		if bareErr := json.Unmarshal([]byte(raw), &bare); bareErr != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		envelope.Claims = bare
	}

	seen := make(map[string]bool, len(envelope.Claims))
	valid := make([]model.Claim, 0, len(envelope.Claims))
	for i, c := range envelope.Claims {
		if !c.Type.Valid() {
			fmt.Fprintf(e.warn, "Warning: %s claim %d has unknown claim_type %q, skipping\n", ticker, i, c.Type)
			continue
		}
		if strings.TrimSpace(c.Text) == "" {
			fmt.Fprintf(e.warn, "Warning: %s claim %d has empty claim text, skipping\n", ticker, i)
			continue
		}
		if c.ID == "" || seen[c.ID] {
			// Recoverable: the model omitted or reused an id
			c.ID = uuid.NewString()
		}
		seen[c.ID] = true
		c.RuleEvaluation.Confidence = clamp01(c.RuleEvaluation.Confidence)
		valid = append(valid, c)
	}
	return valid, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models emit
// even when asked for raw JSON
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
