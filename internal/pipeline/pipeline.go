// Package pipeline orchestrates the full scan: load transcripts as of the
// cutoff, extract and score claims through the LLM with checkpointed batches,
// aggregate per ticker, neutralize within sectors, and build the portfolio.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/moatscan/moatscan/internal/checkpoint"
	"github.com/moatscan/moatscan/internal/config"
	"github.com/moatscan/moatscan/internal/cost"
	"github.com/moatscan/moatscan/internal/extract"
	"github.com/moatscan/moatscan/internal/kb"
	"github.com/moatscan/moatscan/internal/llm"
	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pit"
	"github.com/moatscan/moatscan/internal/portfolio"
	"github.com/moatscan/moatscan/internal/score"
	"github.com/moatscan/moatscan/internal/transcript"
	"github.com/moatscan/moatscan/internal/worker"
)

const (
	phaseExtract = "phase1"
	phaseScore   = "phase2"

	// filingBudget caps the SEC filing context injected into phase 1 prompts
	filingBudget = 8000
)

// Pipeline wires the scan stages together
type Pipeline struct {
	cfg         *model.Config
	repo        *config.Repository
	loader      *transcript.Loader
	extractor   *extract.Extractor
	scorer      *score.Scorer
	aggregator  *score.Aggregator
	neutralizer *score.Neutralizer
	builder     *portfolio.Builder
	batch       *worker.BatchProcessor
	checkpoints *checkpoint.Manager
	costs       *cost.Tracker
	renderer    *Renderer
	warn        io.Writer
}

// NewPipeline builds a pipeline from configuration. It fails fast when the
// config directory, knowledge base, or checkpoint file cannot be opened.
func NewPipeline(cfg *model.Config, warn io.Writer) (*Pipeline, error) {
	if warn == nil {
		warn = os.Stderr
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	library, err := kb.Load(cfg.Paths.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}

	repo, err := config.NewRepository(cfg.Paths.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("config repository: %w", err)
	}

	checkpoints, err := checkpoint.NewManager(cfg.Paths.CheckpointFile)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	costs := cost.NewTracker(cost.Rates{
		PromptPer1K:     cfg.Costs.PromptRatePer1K,
		CompletionPer1K: cfg.Costs.CompletionRatePer1K,
	})
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
	}, nil
}

// RunResult is the outcome of a full pipeline run
type RunResult struct {
	Portfolio    *model.PortfolioResult
	Ranked       []model.RankedStock
	ClaimCounts  map[string]int
	FailedPhase1 []string
	FailedPhase2 []string
	Costs        cost.Report
}

// Run executes the full pipeline as of the configured cutoff date
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	cutoff, err := p.cutoff()
	if err != nil {
		return nil, err
	}

	universe, err := p.repo.Universe()
	if err != nil {
		return nil, err
	}
	benchmark, err := p.repo.BenchmarkWeights()
	if err != nil {
		return nil, err
	}

	tickers := universe.Symbols()
	claims, failed1, err := p.extractPhase(ctx, tickers, cutoff)
	if err != nil {
		return nil, err
	}

	scored, failed2, err := p.scorePhase(ctx, tickers, claims, cutoff)
	if err != nil {
		return nil, err
	}

	scores := p.aggregator.Aggregate(scored)
	ranked := p.neutralizer.Neutralize(scores, universe)
	built := p.builder.Build(ranked, *benchmark, cutoff)

	allocated := built.TotalWeight() + built.UnallocatedWeight
	if math.Abs(allocated-1.0) > p.cfg.Portfolio.WeightTolerance {
		return nil, fmt.Errorf("portfolio weights sum to %.8f, outside tolerance %g", allocated, p.cfg.Portfolio.WeightTolerance)
	}

	if err := p.renderer.WritePortfolio(built); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(claims))
	for ticker, cs := range claims {
		counts[ticker] = len(cs)
	}

	return &RunResult{
		Portfolio:    built,
		Ranked:       ranked,
		ClaimCounts:  counts,
		FailedPhase1: failed1,
		FailedPhase2: failed2,
		Costs:        p.costs.Report(),
	}, nil
}

func (p *Pipeline) cutoff() (time.Time, error) {
	raw := p.cfg.Portfolio.CutoffDate
	if raw == "" {
		return time.Time{}, fmt.Errorf("portfolio.cutoff_date is required (format 2006-01-02)")
	}
	cutoff, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cutoff date %q: %w", raw, err)
	}
	return cutoff, nil
}

// extractPhase runs claim extraction across the universe, one checkpointed
// batch item per ticker
func (p *Pipeline) extractPhase(ctx context.Context, tickers []string, cutoff time.Time) (map[string][]model.Claim, []string, error) {
	results, err := p.batch.Run(ctx, phaseExtract, tickers, func(ctx context.Context, ticker string) (any, error) {
		return p.extractTicker(ctx, ticker, cutoff)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extraction batch: %w", err)
	}

	claims := make(map[string][]model.Claim, len(tickers))
	var failed []string
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.ID)
		case r.Skipped:
			var cs []model.Claim
			ok, err := p.checkpoints.Result(phaseExtract+"/"+r.ID, &cs)
			if err != nil {
				return nil, nil, fmt.Errorf("checkpointed claims for %s: %w", r.ID, err)
			}
			if ok {
				claims[r.ID] = cs
			}
		default:
			claims[r.ID] = r.Result.([]model.Claim)
		}
	}
	return claims, failed, nil
}

func (p *Pipeline) extractTicker(ctx context.Context, ticker string, cutoff time.Time) ([]model.Claim, error) {
	transcripts, err := p.loader.Load(ticker)
	if err != nil {
		return nil, err
	}
	pit.Validate(transcripts, cutoff, p.warn)
	transcripts = pit.Filter(transcripts, cutoff)
	if len(transcripts) == 0 {
		fmt.Fprintf(p.warn, "warning: no transcripts for %s as of %s\n", ticker, cutoff.Format("2006-01-02"))
		return []model.Claim{}, nil
	}

	filing, err := p.loader.FilingContext(ticker, filingBudget)
	if err != nil {
		fmt.Fprintf(p.warn, "warning: filing context for %s: %v\n", ticker, err)
		filing = ""
	}

	var claims []model.Claim
	for _, t := range transcripts {
		cs, err := p.extractor.Extract(ctx, t, filing, cutoff)
		if err != nil {
			return nil, fmt.Errorf("extract %s %s: %w", ticker, t.Metadata.FiscalQuarter, err)
		}
		claims = append(claims, cs...)
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}

// scorePhase runs rule-based scoring over each ticker's extracted claims
func (p *Pipeline) scorePhase(ctx context.Context, tickers []string, claims map[string][]model.Claim, cutoff time.Time) (map[string][]model.ScoredClaim, []string, error) {
	var eligible []string
	for _, t := range tickers {
		if len(claims[t]) > 0 {
			eligible = append(eligible, t)
		}
	}

	results, err := p.batch.Run(ctx, phaseScore, eligible, func(ctx context.Context, ticker string) (any, error) {
		return p.scorer.Score(ctx, ticker, claims[ticker], cutoff)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scoring batch: %w", err)
	}

	scored := make(map[string][]model.ScoredClaim, len(eligible))
	var failed []string
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.ID)
		case r.Skipped:
			var sc []model.ScoredClaim
			ok, err := p.checkpoints.Result(phaseScore+"/"+r.ID, &sc)
			if err != nil {
				return nil, nil, fmt.Errorf("checkpointed scores for %s: %w", r.ID, err)
			}
			if ok {
				scored[r.ID] = sc
			}
		default:
			scored[r.ID] = r.Result.([]model.ScoredClaim)
		}
	}
	return scored, failed, nil
}
