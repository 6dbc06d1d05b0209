package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cutoffDate    string
	configDir     string
	transcriptDir string
	knowledgeDir  string
	outputDir     string
	llmProvider   string
	llmModel      string
	workers       int
	topN          int
	runTimeout    time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full scan pipeline and build a portfolio",
	Long: `Run executes the complete pipeline as of a point-in-time cutoff:
- Load earnings call transcripts dated on or before the cutoff
- Extract competitive-advantage claims with the LLM (phase 1)
- Score claims against the rule framework (phase 2)
- Aggregate per ticker, neutralize within GICS sectors
- Build the benchmark-relative portfolio and write portfolio.json

Interrupted runs resume from the checkpoint file: tickers that already
succeeded are not re-sent to the LLM.

Example:
  moatscan run --cutoff 2024-03-31
  moatscan run --cutoff 2024-03-31 --provider anthropic --model claude-sonnet-4-5
  moatscan run --cutoff 2024-03-31 --transcripts ./data/transcripts --top-n 5`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&cutoffDate, "cutoff", "", "point-in-time cutoff date (YYYY-MM-DD, required)")
	runCmd.Flags().StringVar(&configDir, "config-dir", "", "directory with universe.json and benchmark_weights.json")
	runCmd.Flags().StringVar(&transcriptDir, "transcripts", "", "transcript directory ({ticker}/{date}_earnings_call.json)")
	runCmd.Flags().StringVar(&knowledgeDir, "knowledge", "", "knowledge base directory (claim and scoring rules)")
	runCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for scored claims and portfolio.json")
	runCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	runCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent batch workers")
	runCmd.Flags().IntVar(&topN, "top-n", 0, "stocks selected per benchmark sector")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Hour, "overall pipeline timeout")
}

// loadConfig merges defaults, the config file, and command flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cutoffDate != "" {
		cfg.Portfolio.CutoffDate = cutoffDate
	}
	if configDir != "" {
		cfg.Paths.ConfigDir = configDir
	}
	if transcriptDir != "" {
		cfg.Paths.TranscriptDir = transcriptDir
	}
	if knowledgeDir != "" {
		cfg.Paths.KnowledgeDir = knowledgeDir
	}
	if outputDir != "" {
		cfg.Paths.OutputDir = outputDir
		cfg.Paths.CheckpointFile = outputDir + "/checkpoint.json"
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
	if topN > 0 {
		cfg.Portfolio.TopN = topN
	}

	if err := resolveAPIKey(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAPIKey pulls the provider's API key from the environment when the
// config does not set one
func resolveAPIKey(cfg *model.Config) error {
	if cfg.LLM.APIKey != "" {
		return nil
	}
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "gemini", "google":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Portfolio.CutoffDate == "" {
		return fmt.Errorf("--cutoff is required (YYYY-MM-DD)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Cutoff: %s\n", cfg.Portfolio.CutoffDate)
		fmt.Fprintf(os.Stderr, "Provider: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Transcripts: %s\n", cfg.Paths.TranscriptDir)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg, os.Stderr)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	pipeline.NewRenderer(cfg.Paths.OutputDir).RenderSummary(os.Stdout, result)
	if verbose {
		fmt.Fprintf(os.Stderr, "\nCompleted in %v\n", time.Since(start).Round(time.Second))
	}
	return nil
}
