package model

import "time"

// Config is the complete pipeline configuration
type Config struct {
	Paths        PathsConfig     `yaml:"paths" mapstructure:"paths"`
	LLM          LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Batch        BatchConfig     `yaml:"batch" mapstructure:"batch"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Portfolio    PortfolioConfig `yaml:"portfolio" mapstructure:"portfolio"`
	Costs        CostConfig      `yaml:"costs" mapstructure:"costs"`
}

// PathsConfig locates the pipeline's inputs and outputs
type PathsConfig struct {
	ConfigDir      string `yaml:"config_dir" mapstructure:"config_dir"`           // universe.json, benchmark_weights.json
	TranscriptDir  string `yaml:"transcript_dir" mapstructure:"transcript_dir"`   // {ticker}/{year_month}_earnings_call.json
	KnowledgeDir   string `yaml:"knowledge_dir" mapstructure:"knowledge_dir"`     // KB and dogma rule files
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`           // {ticker}/scored.json, portfolio.json
	CheckpointFile string `yaml:"checkpoint_file" mapstructure:"checkpoint_file"` // Batch resume state
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // Seconds per request
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BatchConfig controls checkpointed batch execution
type BatchConfig struct {
	Workers    int           `yaml:"workers" mapstructure:"workers"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
}

// RateLimitConfig throttles LLM requests
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// PortfolioConfig controls portfolio construction
type PortfolioConfig struct {
	TopN            int    `yaml:"top_n" mapstructure:"top_n"`             // Picks per benchmark sector
	CutoffDate      string `yaml:"cutoff_date" mapstructure:"cutoff_date"` // Point-in-time cutoff, "2006-01-02"
	WeightTolerance float64 `yaml:"weight_tolerance" mapstructure:"weight_tolerance"`
}

// CostConfig prices token usage for the cost report
type CostConfig struct {
	PromptRatePer1K     float64 `yaml:"prompt_rate_per_1k" mapstructure:"prompt_rate_per_1k"`         // USD per 1000 prompt tokens
	CompletionRatePer1K float64 `yaml:"completion_rate_per_1k" mapstructure:"completion_rate_per_1k"` // USD per 1000 completion tokens
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			ConfigDir:      "./config",
			TranscriptDir:  "./transcripts",
			KnowledgeDir:   "./knowledge",
			OutputDir:      "./moatscan-output",
			CheckpointFile: "./moatscan-output/checkpoint.json",
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Batch: BatchConfig{
			Workers:    1,
			MaxRetries: 3,
			BaseDelay:  2 * time.Second,
			MaxDelay:   60 * time.Second,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Portfolio: PortfolioConfig{
			TopN:            3,
			CutoffDate:      "",
			WeightTolerance: 1e-6,
		},
		Costs: CostConfig{
			PromptRatePer1K:     0.0025,
			CompletionRatePer1K: 0.01,
		},
	}
}
