// Package agentcfg loads and validates agent configuration documents.
//
// A configuration document is a YAML (or JSON) file shaped like:
//
//	agent:
//	  name: SupportBot
//	  version: 1.2.0
//	  type: conversational
//	  parameters:
//	    temperature: 0.5
//	    max_tokens: 300
//	    top_p: 0.9
//	model:
//	  provider: openai
//	  model_name: gpt-4o-mini
//	  api_key: $OPENAI_API_KEY
//	prompts:
//	  system_prompt: You are a helpful assistant.
//	  few_shot_examples:
//	    - user: Hi
//	      assistant: Hello! How can I help?
//	memory:
//	  max_messages: 5
//	training:
//	  fine_tuning: false
//
// Every field is optional. Accessor methods apply the documented defaults so
// callers never need their own fallback expressions. Sections other than
// the five above are kept verbatim in Config.Extra.
package agentcfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
)

// Defaults applied by the accessor methods.
const (
	DefaultName        = "Agent"
	DefaultVersion     = "1.0.0"
	DefaultProvider    = "openai"
	DefaultModelName   = "gpt-3.5-turbo"
	DefaultMaxMessages = 5

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultTopP        = 0.9

	DefaultFineTuningOutput = "data/training/finetuning_data.jsonl"
)

// Config is the typed configuration document of an agent.
type Config struct {
	Agent    AgentSection    `json:"agent,omitzero" yaml:"agent,omitempty"`
	Model    ModelSection    `json:"model,omitzero" yaml:"model,omitempty"`
	Prompts  PromptsSection  `json:"prompts,omitzero" yaml:"prompts,omitempty"`
	Memory   MemorySection   `json:"memory,omitzero" yaml:"memory,omitempty"`
	Training TrainingSection `json:"training,omitzero" yaml:"training,omitempty"`

	// Extra holds every other top-level section, as decoded. It is written
	// back after the typed sections.
	Extra map[string]any `json:"-" yaml:"-"`
}

// AgentSection holds the identity of the agent and its generation parameters.
type AgentSection struct {
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	Parameters Parameters `json:"parameters,omitzero" yaml:"parameters,omitempty"`
}

// Parameters are per-agent generation parameters. Nil means "not configured".
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
}

// ModelSection selects the text-generation backend.
type ModelSection struct {
	Provider  string `json:"provider,omitempty" yaml:"provider,omitempty"`
	ModelName string `json:"model_name,omitempty" yaml:"model_name,omitempty"`

	// APIKey may be a literal key or an env var reference like "$OPENAI_API_KEY".
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// PromptsSection holds the static framing of every conversational turn.
type PromptsSection struct {
	SystemPrompt    string           `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	FewShotExamples []FewShotExample `json:"few_shot_examples,omitempty" yaml:"few_shot_examples,omitempty"`
}

// FewShotExample is a fixed user/assistant pair injected into every turn.
type FewShotExample struct {
	User      string `json:"user" yaml:"user"`
	Assistant string `json:"assistant" yaml:"assistant"`
}

// MemorySection bounds the history replayed into each turn.
type MemorySection struct {
	MaxMessages *int `json:"max_messages,omitempty" yaml:"max_messages,omitempty"`
}

// TrainingSection configures the training drivers.
type TrainingSection struct {
	FineTuning       bool   `json:"fine_tuning,omitempty" yaml:"fine_tuning,omitempty"`
	FineTuningOutput string `json:"fine_tuning_output,omitempty" yaml:"fine_tuning_output,omitempty"`

	TrainRatio *float64 `json:"train_ratio,omitempty" yaml:"train_ratio,omitempty"`
	ValRatio   *float64 `json:"val_ratio,omitempty" yaml:"val_ratio,omitempty"`
	TestRatio  *float64 `json:"test_ratio,omitempty" yaml:"test_ratio,omitempty"`
	Seed       *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// GenerationParams is the resolved set of generation parameters.
type GenerationParams struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
}

// Load reads the configuration file at path.
//
// A missing file is not an error: a warning is logged and an empty Config is
// returned. Malformed or invalid documents are errors.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("agentcfg: config not found, using defaults", "path", path)
			return &Config{}, nil
		}
		return nil, fmt.Errorf("agentcfg: read %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("agentcfg: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document. The format is a file extension
// (".json", ".yaml", ".yml"); anything else is decoded as YAML.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges of the configured fields.
func (c *Config) Validate() error {
	var errs []error
	p := c.Agent.Parameters
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		errs = append(errs, fmt.Errorf("agent.parameters.temperature must be in [0, 2], got %v", *p.Temperature))
	}
	if p.MaxTokens != nil && *p.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("agent.parameters.max_tokens must be positive, got %d", *p.MaxTokens))
	}
	if p.TopP != nil && (*p.TopP <= 0 || *p.TopP > 1) {
		errs = append(errs, fmt.Errorf("agent.parameters.top_p must be in (0, 1], got %v", *p.TopP))
	}
	if m := c.Memory.MaxMessages; m != nil && *m < 0 {
		errs = append(errs, fmt.Errorf("memory.max_messages must not be negative, got %d", *m))
	}
	if t := c.Agent.Type; t != "" && !isKnownType(t) {
		errs = append(errs, fmt.Errorf("agent.type %q is not one of %s", t, strings.Join(KnownTypes, ", ")))
	}
	for i, ex := range c.Prompts.FewShotExamples {
		if ex.User == "" || ex.Assistant == "" {
			errs = append(errs, fmt.Errorf("prompts.few_shot_examples[%d] needs both user and assistant", i))
		}
	}
	return errors.Join(errs...)
}

// KnownTypes lists the agent kinds accepted in agent.type.
var KnownTypes = []string{"conversational", "classifier", "custom"}

func isKnownType(t string) bool {
	for _, k := range KnownTypes {
		if strings.EqualFold(k, t) {
			return true
		}
	}
	return false
}

// IsZero reports whether nothing at all is configured.
func (c *Config) IsZero() bool {
	return c == nil || reflect.ValueOf(*c).IsZero()
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	out := *c
	out.Agent.Parameters = Parameters{
		Temperature: clonePtr(c.Agent.Parameters.Temperature),
		MaxTokens:   clonePtr(c.Agent.Parameters.MaxTokens),
		TopP:        clonePtr(c.Agent.Parameters.TopP),
	}
	if c.Prompts.FewShotExamples != nil {
		out.Prompts.FewShotExamples = append([]FewShotExample(nil), c.Prompts.FewShotExamples...)
	}
	out.Memory.MaxMessages = clonePtr(c.Memory.MaxMessages)
	out.Training.TrainRatio = clonePtr(c.Training.TrainRatio)
	out.Training.ValRatio = clonePtr(c.Training.ValRatio)
	out.Training.TestRatio = clonePtr(c.Training.TestRatio)
	out.Training.Seed = clonePtr(c.Training.Seed)
	out.Extra = cloneExtra(c.Extra)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Name returns agent.name or DefaultName.
func (c *Config) Name() string {
	return orDefault(c.Agent.Name, DefaultName)
}

// Version returns agent.version or DefaultVersion.
func (c *Config) Version() string {
	return orDefault(c.Agent.Version, DefaultVersion)
}

// Provider returns model.provider (lowercased) or DefaultProvider.
func (c *Config) Provider() string {
	return strings.ToLower(orDefault(c.Model.Provider, DefaultProvider))
}

// ModelName returns model.model_name or DefaultModelName.
func (c *Config) ModelName() string {
	return orDefault(c.Model.ModelName, DefaultModelName)
}

// MaxMessages returns memory.max_messages or DefaultMaxMessages.
func (c *Config) MaxMessages() int {
	if c.Memory.MaxMessages != nil {
		return *c.Memory.MaxMessages
	}
	return DefaultMaxMessages
}

// FineTuningOutput returns training.fine_tuning_output or DefaultFineTuningOutput.
func (c *Config) FineTuningOutput() string {
	return orDefault(c.Training.FineTuningOutput, DefaultFineTuningOutput)
}

// GenerationParams resolves the configured parameters over the built-in
// defaults (temperature=0.7, max_tokens=500, top_p=0.9).
func (c *Config) GenerationParams() GenerationParams {
	out := GenerationParams{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
	}
	p := c.Agent.Parameters
	if p.Temperature != nil {
		out.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		out.MaxTokens = *p.MaxTokens
	}
	if p.TopP != nil {
		out.TopP = *p.TopP
	}
	return out
}

// SplitRatios returns the configured train/val/test ratios and seed,
// defaulting to 0.7/0.15/0.15 and seed 42.
func (c *Config) SplitRatios() (train, val, test float64, seed int64) {
	train, val, test, seed = 0.7, 0.15, 0.15, 42
	t := c.Training
	if t.TrainRatio != nil {
		train = *t.TrainRatio
	}
	if t.ValRatio != nil {
		val = *t.ValRatio
	}
	if t.TestRatio != nil {
		test = *t.TestRatio
	}
	if t.Seed != nil {
		seed = *t.Seed
	}
	return train, val, test, seed
}

// APIKey resolves model.api_key. Values starting with "$" are expanded from
// the environment; an empty value falls back to the provider's conventional
// env var (e.g. OPENAI_API_KEY).
func (c *Config) APIKey() string {
	if k := expandEnv(c.Model.APIKey); k != "" {
		return k
	}
	if env, ok := providerKeyEnv[c.Provider()]; ok {
		return os.Getenv(env)
	}
	return ""
}

var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// expandEnv expands $VAR and ${VAR}. Plain values are returned as is.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "$") {
		return os.ExpandEnv(s)
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
