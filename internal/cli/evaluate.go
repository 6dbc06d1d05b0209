package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pipeline"
	"github.com/moatscan/moatscan/internal/portfolio"
	"github.com/spf13/cobra"
)

var (
	portfolioPath string
	returnsPath   string
	analystPath   string
	riskFreeRate  float64
	evalOutputDir string
)

// returnsFile is the realized-returns input: a benchmark daily return series
// plus per-ticker series over the same window
type returnsFile struct {
	Benchmark []float64            `json:"benchmark"`
	Tickers   map[string][]float64 `json:"tickers"`
}

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a built portfolio against returns and analyst scores",
	Long: `Evaluate computes out-of-sample metrics for a portfolio produced by
'moatscan run':
- Sharpe ratio, max drawdown, beta, information ratio vs the benchmark
- Spearman correlation and top-quintile hit rate against analyst scales
- Transparency metrics (mean claim count, mean structural weight)

Example:
  moatscan evaluate --portfolio out/portfolio.json --returns returns.json
  moatscan evaluate --portfolio out/portfolio.json --returns returns.json --analysts analyst_scores.json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&portfolioPath, "portfolio", "moatscan-output/portfolio.json", "portfolio.json from a pipeline run")
	evaluateCmd.Flags().StringVar(&returnsPath, "returns", "", "JSON file with benchmark and per-ticker daily returns (required)")
	evaluateCmd.Flags().StringVar(&analystPath, "analysts", "", "JSON file with analyst scores (optional)")
	evaluateCmd.Flags().Float64Var(&riskFreeRate, "risk-free", 0, "annual risk-free rate for the Sharpe ratio")
	evaluateCmd.Flags().StringVar(&evalOutputDir, "output-dir", "", "directory for evaluation.json (default: alongside the portfolio)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if returnsPath == "" {
		return fmt.Errorf("--returns is required")
	}

	var built model.PortfolioResult
	if err := readJSON(portfolioPath, &built); err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}

	var returns returnsFile
	if err := readJSON(returnsPath, &returns); err != nil {
		return fmt.Errorf("load returns: %w", err)
	}

	var analysts []model.AnalystScore
	if analystPath != "" {
		if err := readJSON(analystPath, &analysts); err != nil {
			return fmt.Errorf("load analyst scores: %w", err)
		}
	}

	evaluator := portfolio.NewEvaluator(riskFreeRate, os.Stderr)
	result := evaluator.Evaluate(&built, returns.Tickers, returns.Benchmark, analysts)

	outDir := evalOutputDir
	if outDir == "" {
		outDir = filepath.Dir(portfolioPath)
	}
	if err := pipeline.NewRenderer(outDir).WriteEvaluation(result); err != nil {
		return err
	}

	printEvaluation(result)
	if verbose {
		fmt.Fprintf(os.Stderr, "\nWrote %s\n", filepath.Join(outDir, "evaluation.json"))
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printEvaluation(result *model.EvaluationResult) {
	fmt.Printf("Performance\n")
	fmt.Printf("  Sharpe ratio       %8.3f\n", result.Performance.SharpeRatio)
	fmt.Printf("  Max drawdown       %7.2f%%\n", result.Performance.MaxDrawdown*100)
	fmt.Printf("  Beta               %8.3f\n", result.Performance.Beta)
	fmt.Printf("  Information ratio  %8.3f\n", result.Performance.InformationRatio)

	for _, scale := range []string{"ky", "ak"} {
		m, ok := result.AnalystCorrelation[scale]
		if !ok {
			continue
		}
		fmt.Printf("\nAnalyst scale %q (n=%d)\n", scale, m.SampleSize)
		if m.Correlation == nil {
			fmt.Printf("  too few overlapping names to correlate\n")
			continue
		}
		fmt.Printf("  Spearman rho       %8.3f (p=%.4f)\n", *m.Correlation, *m.PValue)
		fmt.Printf("  Top-quintile hits  %7.1f%%\n", *m.HitRate*100)
	}

	fmt.Printf("\nTransparency\n")
	fmt.Printf("  Mean claims/name   %8.1f\n", result.Transparency.MeanClaimCount)
	fmt.Printf("  Mean structural    %8.2f\n", result.Transparency.MeanStructuralWeight)
}
