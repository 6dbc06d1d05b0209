package portfolio

import (
	"math"
	"testing"
)

func TestSharpeRatio(t *testing.T) {
	var rc RiskCalculator

	// Constant positive daily return has zero volatility
	if got := rc.SharpeRatio([]float64{0.01, 0.01, 0.01}, 0); got != 0 {
		t.Errorf("zero-variance Sharpe = %v, want 0", got)
	}
	if got := rc.SharpeRatio([]float64{0.01}, 0); got != 0 {
		t.Errorf("single-sample Sharpe = %v, want 0", got)
	}

	returns := []float64{0.02, -0.01, 0.03, 0.00, 0.01}
	got := rc.SharpeRatio(returns, 0)
	want := mean(returns) / stddev(returns) * math.Sqrt(252)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Sharpe = %v, want %v", got, want)
	}
	if got <= 0 {
		t.Errorf("Sharpe on positive-mean series = %v, want > 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	var rc RiskCalculator

	if got := rc.MaxDrawdown(nil); got != 0 {
		t.Errorf("empty drawdown = %v, want 0", got)
	}
	if got := rc.MaxDrawdown([]float64{0.01, 0.02, 0.03}); got != 0 {
		t.Errorf("monotone-up drawdown = %v, want 0", got)
	}

	// Up 10%, down 20%: trough 0.88 off a 1.10 peak is a 20% drawdown
	got := rc.MaxDrawdown([]float64{0.10, -0.20})
	if math.Abs(got-0.20) > 1e-12 {
		t.Errorf("drawdown = %v, want 0.20", got)
	}
}

func TestBeta(t *testing.T) {
	var rc RiskCalculator

	bench := []float64{0.01, -0.02, 0.03, 0.00}

	// Portfolio equal to benchmark has beta 1
	got := rc.Beta(bench, bench)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("self beta = %v, want 1", got)
	}

	// Double the benchmark moves has beta 2
	doubled := make([]float64, len(bench))
	for i, r := range bench {
		doubled[i] = 2 * r
	}
	got = rc.Beta(doubled, bench)
	if math.Abs(got-2.0) > 1e-12 {
		t.Errorf("2x beta = %v, want 2", got)
	}

	// Flat benchmark has no variance to regress against
	if got := rc.Beta(bench, []float64{0.01, 0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("flat-benchmark beta = %v, want 0", got)
	}
}

func TestInformationRatio(t *testing.T) {
	var rc RiskCalculator

	port := []float64{0.02, 0.00, 0.03}
	bench := []float64{0.01, -0.01, 0.02}

	// Constant active return means zero tracking error
	got := rc.InformationRatio(port, bench)
	if got != 0 {
		t.Errorf("constant-active IR = %v, want 0", got)
	}

	port2 := []float64{0.02, 0.01, 0.03}
	got = rc.InformationRatio(port2, bench)
	if got <= 0 {
		t.Errorf("positive-active IR = %v, want > 0", got)
	}
}
