package portfolio

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/moatscan/moatscan/internal/model"
)

// minCorrelationSample is the sample size below which correlation numbers
// are reported but flagged as statistically fragile
const minCorrelationSample = 30

// Evaluator scores a built portfolio against realized returns and
// independent analyst ratings
type Evaluator struct {
	risk     RiskCalculator
	riskFree float64
	warn     io.Writer
}

// NewEvaluator creates an evaluator. riskFree is the daily risk-free rate
// used for the Sharpe ratio; warn defaults to stderr.
func NewEvaluator(riskFree float64, warn io.Writer) *Evaluator {
	if warn == nil {
		warn = os.Stderr
	}
	return &Evaluator{riskFree: riskFree, warn: warn}
}

// Evaluate computes performance, analyst-correlation, and transparency
// metrics for a portfolio. dailyReturns maps ticker to its daily return
// series; tickers without return data contribute nothing and the remaining
// weights are renormalized. analysts may cover any subset of holdings.
func (e *Evaluator) Evaluate(p *model.PortfolioResult, dailyReturns map[string][]float64, benchmarkReturns []float64, analysts []model.AnalystScore) *model.EvaluationResult {
	result := &model.EvaluationResult{
		AnalystCorrelation: make(map[string]model.CorrelationMetrics, 2),
	}

	portReturns := e.portfolioReturns(p, dailyReturns, len(benchmarkReturns))
	if len(portReturns) > 0 {
		result.Performance = model.PerformanceMetrics{
			SharpeRatio:      e.risk.SharpeRatio(portReturns, e.riskFree),
			MaxDrawdown:      e.risk.MaxDrawdown(portReturns),
			Beta:             e.risk.Beta(portReturns, benchmarkReturns),
			InformationRatio: e.risk.InformationRatio(portReturns, benchmarkReturns),
		}
	}

	byTicker := make(map[string]model.AnalystScore, len(analysts))
	for _, a := range analysts {
		byTicker[a.Ticker] = a
	}
	result.AnalystCorrelation["ky"] = e.correlate(p, byTicker, "ky", func(a model.AnalystScore) *float64 { return a.KY })
	result.AnalystCorrelation["ak"] = e.correlate(p, byTicker, "ak", func(a model.AnalystScore) *float64 { return a.AK })

	result.Transparency = transparency(p)
	return result
}

// portfolioReturns builds the weighted daily return series for the holdings
// that have return data, renormalizing by the weight actually covered so a
// missing ticker does not silently drag the series toward zero
func (e *Evaluator) portfolioReturns(p *model.PortfolioResult, dailyReturns map[string][]float64, days int) []float64 {
	type leg struct {
		weight  float64
		returns []float64
	}
	var legs []leg
	covered := 0.0
	for _, h := range p.Holdings {
		series, ok := dailyReturns[h.Ticker]
		if !ok || len(series) == 0 {
			fmt.Fprintf(e.warn, "warning: no return series for %s, excluded from performance\n", h.Ticker)
			continue
		}
		if days == 0 || len(series) < days {
			days = len(series)
		}
		legs = append(legs, leg{weight: h.Weight, returns: series})
		covered += h.Weight
	}
	if len(legs) == 0 || covered == 0 || days == 0 {
		return nil
	}

	out := make([]float64, days)
	for _, l := range legs {
		w := l.weight / covered
		for i := 0; i < days; i++ {
			out[i] += w * l.returns[i]
		}
	}
	return out
}

// correlate computes Spearman correlation, p-value, and top-quintile hit
// rate between portfolio scores and one analyst scale
func (e *Evaluator) correlate(p *model.PortfolioResult, byTicker map[string]model.AnalystScore, scale string, pick func(model.AnalystScore) *float64) model.CorrelationMetrics {
	var scores, ratings []float64
	var tickers []string
	for _, h := range p.Holdings {
		a, ok := byTicker[h.Ticker]
		if !ok {
			continue
		}
		v := pick(a)
		if v == nil {
			continue
		}
		scores = append(scores, h.Score)
		ratings = append(ratings, *v)
		tickers = append(tickers, h.Ticker)
	}

	m := model.CorrelationMetrics{SampleSize: len(scores)}
	if len(scores) < 2 {
		return m
	}
	if len(scores) < minCorrelationSample {
		fmt.Fprintf(e.warn, "warning: %s correlation computed on %d samples, below %d; treat as indicative only\n",
			scale, len(scores), minCorrelationSample)
	}

	rho, pval := spearman(scores, ratings)
	hit := hitRate(tickers, scores, ratings)
	m.Correlation = &rho
	m.PValue = &pval
	m.HitRate = &hit
	return m
}

// hitRate measures top-quintile overlap: the fraction of the strategy's
// top-quintile names that also sit in the analyst's top quintile
func hitRate(tickers []string, scores, ratings []float64) float64 {
	n := len(tickers)
	k := n / 5
	if k < 1 {
		k = 1
	}
	top := func(vals []float64) map[string]bool {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool {
			if vals[idx[a]] != vals[idx[b]] {
				return vals[idx[a]] > vals[idx[b]]
			}
			return tickers[idx[a]] < tickers[idx[b]]
		})
		set := make(map[string]bool, k)
		for _, i := range idx[:k] {
			set[tickers[i]] = true
		}
		return set
	}

	strategyTop := top(scores)
	analystTop := top(ratings)
	overlap := 0
	for t := range strategyTop {
		if analystTop[t] {
			overlap++
		}
	}
	return float64(overlap) / float64(k)
}

func transparency(p *model.PortfolioResult) model.TransparencyMetrics {
	if len(p.Holdings) == 0 {
		return model.TransparencyMetrics{}
	}
	var claims, structural float64
	for _, h := range p.Holdings {
		claims += float64(h.ClaimCount)
		structural += h.StructuralWeight
	}
	n := float64(len(p.Holdings))
	return model.TransparencyMetrics{
		MeanClaimCount:       claims / n,
		MeanStructuralWeight: structural / n,
	}
}
