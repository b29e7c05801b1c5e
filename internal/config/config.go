package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

// Config is passed explicitly to every component; core packages never read
// process state themselves.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Execution ExecutionConfig `yaml:"execution"`
	Output    OutputConfig    `yaml:"output"`
	Scoring   ScoringConfig   `yaml:"scoring"`
}

type LLMConfig struct {
	Provider      string        `yaml:"provider"` // ollama, gemini, static
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	Temperature   float64       `yaml:"temperature"`
	NumPredict    int           `yaml:"num_predict"`
	RepeatPenalty float64       `yaml:"repeat_penalty"`
	// Roles gives individual agent roles their own provider or model
	Roles map[string]RoleLLM `yaml:"roles"`
}

// RoleLLM overrides the generator for one executor role. Empty fields
// inherit from the llm section.
type RoleLLM struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Temperature *float64 `yaml:"temperature"`
}

// ForRole returns the generator settings for role. A role switching
// provider without naming a model gets that provider's default model.
func (l LLMConfig) ForRole(role string) LLMConfig {
	out := l
	out.Roles = nil
	o, ok := l.Roles[role]
	if !ok {
		return out
	}
	if o.Provider != "" && o.Provider != l.Provider {
		out.Provider = o.Provider
		out.Model = ""
	}
	if o.Model != "" {
		out.Model = o.Model
	}
	if o.BaseURL != "" {
		out.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		out.APIKey = o.APIKey
	}
	if o.Temperature != nil {
		out.Temperature = *o.Temperature
	}
	return out
}

// RoleNames lists the roles with overrides in sorted order.
func (l LLMConfig) RoleNames() []string {
	names := make([]string, 0, len(l.Roles))
	for name := range l.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type ExecutionConfig struct {
	// MaxRetries is the number of simplified-prompt retries after the first attempt
	MaxRetries int `yaml:"max_retries"`
	// SimplifyLines is how many essential prompt lines the retry keeps
	SimplifyLines int           `yaml:"simplify_lines"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	// RunTimeout bounds the whole graph run; zero disables it
	RunTimeout   time.Duration `yaml:"run_timeout"`
	FinalTask    string        `yaml:"final_task"`
	DecisionTask string        `yaml:"decision_task"`
	ScoringTask  string        `yaml:"scoring_task"`
	GraphFile    string        `yaml:"graph_file"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	DatabasePath string `yaml:"database_path"`
}

type ScoringConfig struct {
	MinApprovalScore       float64 `yaml:"min_approval_score"`
	MinProfitMarginPercent float64 `yaml:"min_profit_margin_percent"`
	DuplicateThreshold     float64 `yaml:"duplicate_threshold"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      ProviderOllama,
			Model:         "deepseek-r1:8b",
			BaseURL:       "http://localhost:11434",
			CallTimeout:   5 * time.Minute,
			Temperature:   0.7,
			NumPredict:    2048,
			RepeatPenalty: 1.1,
		},
		Execution: ExecutionConfig{
			MaxRetries:    1,
			SimplifyLines: 12,
			RetryDelay:    2 * time.Second,
			FinalTask:     "final_report",
			DecisionTask:  "final_decision",
			ScoringTask:   "product_scoring",
		},
		Output: OutputConfig{
			Dir:          "output",
			DatabasePath: filepath.Join("output", "products.db"),
		},
		Scoring: ScoringConfig{
			MinApprovalScore:       60,
			MinProfitMarginPercent: 20,
			DuplicateThreshold:     0.8,
		},
	}
}

// Load reads a YAML configuration on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pcerrors.NewConfigurationError(pcerrors.CodeValidationConfig,
			fmt.Sprintf("Failed to parse config file '%s'", path),
			"Configuration loading").
			WithOriginalError(err)
	}

	return cfg, nil
}

// ApplyEnv applies environment overrides using the given lookup function
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("OLLAMA_MODEL"); v != "" && c.LLM.Provider == ProviderOllama {
		c.LLM.Model = v
	}
	if v := getenv("OLLAMA_BASE_URL"); v != "" && c.LLM.Provider == ProviderOllama {
		c.LLM.BaseURL = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := getenv("PRODCREW_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := getenv("PRODCREW_DATABASE"); v != "" {
		c.Output.DatabasePath = v
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if err := validateLLM("llm", c.LLM); err != nil {
		return err
	}
	for _, role := range c.LLM.RoleNames() {
		if strings.TrimSpace(role) == "" {
			return invalid("llm.roles", role, "Name each role override after a task executor")
		}
		if err := validateLLM("llm.roles."+role, c.LLM.ForRole(role)); err != nil {
			return err
		}
	}

	if c.Execution.MaxRetries < 0 {
		return invalid("execution.max_retries", fmt.Sprint(c.Execution.MaxRetries), "Use 0 or a positive retry count")
	}
	if c.Execution.SimplifyLines <= 0 {
		return invalid("execution.simplify_lines", fmt.Sprint(c.Execution.SimplifyLines), "Keep at least one essential line")
	}
	if c.Execution.RunTimeout < 0 {
		return invalid("execution.run_timeout", c.Execution.RunTimeout.String(), "Use a positive duration or 0 to disable")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return invalid("output.dir", "", "Set output.dir or PRODCREW_OUTPUT_DIR")
	}
	if c.Scoring.DuplicateThreshold <= 0 || c.Scoring.DuplicateThreshold > 1 {
		return invalid("scoring.duplicate_threshold", fmt.Sprint(c.Scoring.DuplicateThreshold), "Use a similarity between 0 and 1")
	}
	return nil
}

func validateLLM(section string, l LLMConfig) error {
	switch l.Provider {
	case ProviderOllama:
		if strings.TrimSpace(l.BaseURL) == "" {
			return invalid(section+".base_url", l.BaseURL, "Set llm.base_url or OLLAMA_BASE_URL")
		}
	case ProviderGemini:
		if strings.TrimSpace(l.APIKey) == "" {
			return invalid(section+".api_key", "", "Set GEMINI_API_KEY or llm.api_key")
		}
	case ProviderStatic:
	default:
		return invalid(section+".provider", l.Provider, "Use one of: ollama, gemini, static")
	}
	return nil
}

func invalid(field, value, hint string) error {
	return pcerrors.NewConfigurationError(pcerrors.CodeValidationConfig,
		fmt.Sprintf("Invalid value for %s: '%s'", field, value),
		"Configuration validation").
		WithContext("field", field).
		WithTroubleshooting(hint)
}
