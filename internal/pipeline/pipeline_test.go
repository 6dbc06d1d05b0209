package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moatscan/moatscan/internal/checkpoint"
	"github.com/moatscan/moatscan/internal/config"
	"github.com/moatscan/moatscan/internal/cost"
	"github.com/moatscan/moatscan/internal/extract"
	"github.com/moatscan/moatscan/internal/kb"
	"github.com/moatscan/moatscan/internal/llm"
	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/portfolio"
	"github.com/moatscan/moatscan/internal/score"
	"github.com/moatscan/moatscan/internal/transcript"
	"github.com/moatscan/moatscan/internal/worker"
)

const claimsResponse = `{"claims": [
	{"id": "c1", "claim_type": "competitive_advantage", "claim": "Switching costs lock in customers", "evidence": "98% retention"}
]}`

const scoresResponse = `{"scores": [
	{"id": "c1", "final_confidence": 0.8, "applied_rules": ["rule_6"]}
]}`

// phaseStub answers extraction and scoring prompts with canned JSON
type phaseStub struct {
	calls int
	err   error
}

func (s *phaseStub) Name() string { return "stub" }

func (s *phaseStub) IsAvailable(ctx context.Context) bool { return true }

func (s *phaseStub) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	text := claimsResponse
	if strings.Contains(req.Prompt, "CLAIMS FOR") {
		text = scoresResponse
	}
	return &llm.Response{Text: text, PromptTokens: 100, CompletionTokens: 50}, nil
}

func writeFixture(t *testing.T, root string) {
	t.Helper()

	configDir := filepath.Join(root, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	universe := `{"tickers": [
		{"ticker": "AAA", "gics_sector": "Information Technology"},
		{"ticker": "BBB", "gics_sector": "Financials"}
	]}`
	benchmark := `{"weights": {"Information Technology": 0.6, "Financials": 0.4}}`
	mustWrite(t, filepath.Join(configDir, "universe.json"), universe)
	mustWrite(t, filepath.Join(configDir, "benchmark_weights.json"), benchmark)

	kbDir := filepath.Join(root, "knowledge")
	if err := os.MkdirAll(kbDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{kb.KB1, kb.KB2, kb.KB3, kb.Dogma} {
		mustWrite(t, filepath.Join(kbDir, name), "rules for "+name)
	}

	for _, ticker := range []string{"AAA", "BBB"} {
		dir := filepath.Join(root, "transcripts", ticker)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		body := `{
			"metadata": {"ticker": "` + ticker + `", "event_date": "2024-02-01", "fiscal_quarter": "2024Q1"},
			"sections": [
				{"speaker": "CEO", "role": "CEO", "section_type": "prepared_remarks", "content": "Our moat deepened this quarter."}
			]
		}`
		mustWrite(t, filepath.Join(dir, "2024-02_earnings_call.json"), body)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(root string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Paths.ConfigDir = filepath.Join(root, "config")
	cfg.Paths.TranscriptDir = filepath.Join(root, "transcripts")
	cfg.Paths.KnowledgeDir = filepath.Join(root, "knowledge")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.CheckpointFile = filepath.Join(root, "output", "checkpoint.json")
	cfg.Portfolio.CutoffDate = "2024-03-31"
	cfg.Portfolio.TopN = 1
	cfg.RateLimiting.RequestsPerSecond = 1000
	cfg.RateLimiting.BurstSize = 1000
	cfg.Batch.MaxRetries = 0
	return cfg
}

func testPipeline(t *testing.T, cfg *model.Config, provider llm.Provider) *Pipeline {
	t.Helper()

	repo, err := config.NewRepository(cfg.Paths.ConfigDir)
	if err != nil {
		t.Fatal(err)
	}
	library, err := kb.Load(cfg.Paths.KnowledgeDir)
	if err != nil {
		t.Fatal(err)
	}
	checkpoints, err := checkpoint.NewManager(cfg.Paths.CheckpointFile)
	if err != nil {
		t.Fatal(err)
	}

	warn := &bytes.Buffer{}
	costs := cost.NewTracker(cost.Rates{PromptPer1K: 0.001, CompletionPer1K: 0.002})
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	return &Pipeline{
		cfg:         cfg,
		repo:        repo,
		loader:      transcript.NewLoader(cfg.Paths.TranscriptDir),
		extractor:   extract.NewExtractor(provider, library, costs, warn),
		scorer:      score.NewScorer(provider, library, costs, cfg.Paths.OutputDir, warn),
		aggregator:  score.NewAggregator(),
		neutralizer: score.NewNeutralizer(warn),
		builder:     portfolio.NewBuilder(cfg.Portfolio.TopN),
		batch:       worker.NewBatchProcessor(checkpoints, limiter, cfg.Batch, warn),
		checkpoints: checkpoints,
		costs:       costs,
		renderer:    NewRenderer(cfg.Paths.OutputDir),
		warn:        warn,
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	cfg := testConfig(root)

	stub := &phaseStub{}
	p := testPipeline(t, cfg, stub)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Portfolio.Holdings) != 2 {
		t.Fatalf("holdings = %d, want 2", len(result.Portfolio.Holdings))
	}
	weights := map[string]float64{}
	for _, h := range result.Portfolio.Holdings {
		weights[h.Ticker] = h.Weight
	}
	if weights["AAA"] != 0.6 || weights["BBB"] != 0.4 {
		t.Errorf("weights = %v, want AAA 0.6 / BBB 0.4", weights)
	}
	if math.Abs(result.Portfolio.TotalWeight()-1.0) > 1e-6 {
		t.Errorf("total weight = %v, want 1.0", result.Portfolio.TotalWeight())
	}

	// One extraction call and one scoring call per ticker
	if stub.calls != 4 {
		t.Errorf("LLM calls = %d, want 4", stub.calls)
	}
	if result.Costs.Total.Calls != 4 {
		t.Errorf("recorded calls = %d, want 4", result.Costs.Total.Calls)
	}
	if _, ok := result.Costs.Phases["phase1"]; !ok {
		t.Error("missing phase1 usage")
	}
	if _, ok := result.Costs.Phases["phase2"]; !ok {
		t.Error("missing phase2 usage")
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "portfolio.json")); err != nil {
		t.Errorf("portfolio.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "AAA", "scored.json")); err != nil {
		t.Errorf("AAA scored.json not written: %v", err)
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	cfg := testConfig(root)

	first := testPipeline(t, cfg, &phaseStub{})
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run: every item is checkpointed, so a dead provider must not
	// matter and no new LLM calls may happen
	dead := &phaseStub{err: errors.New("provider down")}
	second := testPipeline(t, cfg, dead)
	result, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if dead.calls != 0 {
		t.Errorf("resumed run made %d LLM calls, want 0", dead.calls)
	}
	if len(result.Portfolio.Holdings) != 2 {
		t.Errorf("resumed holdings = %d, want 2", len(result.Portfolio.Holdings))
	}
}

func TestRunFailedTickerExcluded(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	cfg := testConfig(root)

	stub := &phaseStub{err: errors.New("model overloaded")}
	p := testPipeline(t, cfg, stub)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.FailedPhase1) != 2 {
		t.Errorf("failed phase1 = %v, want both tickers", result.FailedPhase1)
	}
	if len(result.Portfolio.Holdings) != 0 {
		t.Errorf("holdings = %d, want 0 when extraction fails", len(result.Portfolio.Holdings))
	}
	if result.Portfolio.UnallocatedWeight != 1.0 {
		t.Errorf("unallocated = %v, want 1.0", result.Portfolio.UnallocatedWeight)
	}
}

func TestRunRequiresCutoffDate(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	cfg := testConfig(root)
	cfg.Portfolio.CutoffDate = ""

	p := testPipeline(t, cfg, &phaseStub{})
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error for missing cutoff date")
	}
}

func TestCutoffExcludesLaterTranscripts(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	cfg := testConfig(root)
	cfg.Portfolio.CutoffDate = "2024-01-15" // Before both transcripts

	stub := &phaseStub{}
	p := testPipeline(t, cfg, stub)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stub.calls != 0 {
		t.Errorf("LLM calls = %d, want 0 with all transcripts past cutoff", stub.calls)
	}
	if len(result.Portfolio.Holdings) != 0 {
		t.Errorf("holdings = %d, want 0", len(result.Portfolio.Holdings))
	}
}

func TestCutoffParsing(t *testing.T) {
	p := &Pipeline{cfg: &model.Config{Portfolio: model.PortfolioConfig{CutoffDate: "2024-03-31"}}}
	got, err := p.cutoff()
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("cutoff = %v, want %v", got, want)
	}

	p.cfg.Portfolio.CutoffDate = "31/03/2024"
	if _, err := p.cutoff(); err == nil {
		t.Error("expected error for malformed date")
	}
}
