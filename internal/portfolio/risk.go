package portfolio

import "math"

// tradingDays annualizes daily return statistics
const tradingDays = 252

// RiskCalculator computes realized risk metrics from daily return series
type RiskCalculator struct{}

// SharpeRatio is the annualized mean excess return over volatility.
// Zero-variance or too-short series yield 0.
func (RiskCalculator) SharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	excess := make([]float64, len(returns))
	dailyRF := riskFree / tradingDays
	for i, r := range returns {
		excess[i] = r - dailyRF
	}

	std := stddev(excess)
	if std == 0 {
		return 0
	}
	return mean(excess) / std * math.Sqrt(tradingDays)
}

// MaxDrawdown is the largest peak-to-trough decline of the cumulative return
// path, as a positive fraction
func (RiskCalculator) MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	value := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if dd := (peak - value) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Beta is cov(portfolio, benchmark) / var(benchmark) over the overlapping
// window. Zero benchmark variance yields 0.
func (RiskCalculator) Beta(portfolio, benchmark []float64) float64 {
	n := min(len(portfolio), len(benchmark))
	if n < 2 {
		return 0
	}
	p, b := portfolio[:n], benchmark[:n]

	benchVar := variance(b)
	if benchVar == 0 {
		return 0
	}
	return covariance(p, b) / benchVar
}

// InformationRatio is the annualized mean active return over tracking error
func (RiskCalculator) InformationRatio(portfolio, benchmark []float64) float64 {
	n := min(len(portfolio), len(benchmark))
	if n < 2 {
		return 0
	}

	active := make([]float64, n)
	for i := 0; i < n; i++ {
		active[i] = portfolio[i] - benchmark[i]
	}

	te := stddev(active)
	if te == 0 {
		return 0
	}
	return mean(active) / te * math.Sqrt(tradingDays)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n)
}
