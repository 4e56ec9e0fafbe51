package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config is the full specification for one pipeline run: the ordered set of
// selected stages plus one configuration block per selected stage. A Config
// is treated as immutable once handed to the transport.
type Config struct {
	Stages []Stage `json:"stages" yaml:"stages"`

	GraphTraverser  *GraphTraverserConfig  `json:"graph_traverser,omitempty" yaml:"graph_traverser,omitempty"`
	ChatMLConverter *ChatMLConverterConfig `json:"chatml_converter,omitempty" yaml:"chatml_converter,omitempty"`
	Finetuner       *FinetunerConfig       `json:"finetuner,omitempty" yaml:"finetuner,omitempty"`
	Evaluator       *EvaluatorConfig       `json:"evaluator,omitempty" yaml:"evaluator,omitempty"`
}

// GraphTraverserConfig controls the knowledge-graph walk that seeds the
// distillation dataset.
type GraphTraverserConfig struct {
	GraphPath string `json:"graph_path" yaml:"graph_path"`
	MaxDepth  int    `json:"max_depth" yaml:"max_depth"`
	NumWalks  int    `json:"num_walks" yaml:"num_walks"`
	Seed      int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// ChatMLConverterConfig controls conversion of traversal output into ChatML
// training samples.
type ChatMLConverterConfig struct {
	SystemPrompt    string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	MaxSamples      int    `json:"max_samples,omitempty" yaml:"max_samples,omitempty"`
	IncludeMetadata bool   `json:"include_metadata,omitempty" yaml:"include_metadata,omitempty"`
}

// FinetunerConfig holds the fine-tuning hyperparameters.
type FinetunerConfig struct {
	BaseModel    string  `json:"base_model" yaml:"base_model"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	LoraRank     int     `json:"lora_rank,omitempty" yaml:"lora_rank,omitempty"`
	BatchSize    int     `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// EvaluatorConfig controls post-training evaluation.
type EvaluatorConfig struct {
	Metrics    []string `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	SampleSize int      `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
}

// DefaultConfig returns a runnable configuration with every available stage
// selected and sensible per-stage defaults.
func DefaultConfig() *Config {
	return &Config{
		Stages: []Stage{StageGraphTraverser, StageChatMLConverter, StageFinetuner},
		GraphTraverser: &GraphTraverserConfig{
			MaxDepth: 3,
			NumWalks: 100,
		},
		ChatMLConverter: &ChatMLConverterConfig{
			MaxSamples: 1000,
		},
		Finetuner: &FinetunerConfig{
			BaseModel:    "llama-3-8b",
			Epochs:       3,
			LearningRate: 2e-4,
		},
	}
}

// Normalize rewrites the stage list into canonical pipeline order, dropping
// duplicates and unknown names. Selection order never influences run order.
func (c *Config) Normalize() {
	selected := make(map[Stage]bool, len(c.Stages))
	for _, s := range c.Stages {
		if s.Known() {
			selected[s] = true
		}
	}
	ordered := make([]Stage, 0, len(selected))
	for _, s := range CanonicalOrder() {
		if selected[s] {
			ordered = append(ordered, s)
		}
	}
	c.Stages = ordered
}

// ToggleStage adds or removes a stage from the selection. Toggling an
// unavailable stage is a no-op, not an error. The resulting selection is
// kept in canonical order.
func (c *Config) ToggleStage(s Stage) {
	if !s.Available() {
		return
	}
	if i := slices.Index(c.Stages, s); i >= 0 {
		c.Stages = slices.Delete(c.Stages, i, i+1)
	} else {
		c.Stages = append(c.Stages, s)
	}
	c.Normalize()
}

// Validate checks that the configuration can be submitted.
func (c *Config) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("no stages selected")
	}
	for _, s := range c.Stages {
		if !s.Known() {
			return fmt.Errorf("unknown stage: %s", s)
		}
		if !s.Available() {
			return fmt.Errorf("stage not available: %s", s)
		}
	}
	if slices.Contains(c.Stages, StageFinetuner) {
		if c.Finetuner == nil || c.Finetuner.BaseModel == "" {
			return fmt.Errorf("finetuner stage selected but no base model configured")
		}
	}
	return nil
}

// LoadConfigFile reads a pipeline configuration from a YAML file and
// normalizes the stage order.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// MarshalExport serializes the configuration for external use, without any
// transport involvement. Format is "json" or "yaml".
func (c *Config) MarshalExport(format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(c, "", "  ")
	case "yaml":
		return yaml.Marshal(c)
	}
	return nil, fmt.Errorf("unsupported export format: %s", format)
}
