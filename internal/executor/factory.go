package executor

import (
	"context"
	"fmt"

	"github.com/maxkimambo/prodcrew/internal/config"
	"github.com/maxkimambo/prodcrew/internal/logger"
)

// NewGenerator builds the generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaGenerator(OllamaConfig{
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			Temperature:   cfg.Temperature,
			NumPredict:    cfg.NumPredict,
			RepeatPenalty: cfg.RepeatPenalty,
			Timeout:       cfg.CallTimeout,
		}), nil
	case config.ProviderGemini:
		model := cfg.Model
		if model == config.Default().LLM.Model {
			// the default names an Ollama model
			model = ""
		}
		return NewGeminiGenerator(ctx, cfg.APIKey, model, cfg.Temperature)
	case config.ProviderStatic:
		return DryRunGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// NewRegistryFromConfig builds the default generator from cfg and registers
// a generator for every role listed under cfg.Roles.
func NewRegistryFromConfig(ctx context.Context, cfg config.LLMConfig) (*Registry, error) {
	fallback, err := NewGenerator(ctx, cfg.ForRole(""))
	if err != nil {
		return nil, err
	}
	reg := NewRegistry(fallback)
	for _, role := range cfg.RoleNames() {
		roleCfg := cfg.ForRole(role)
		gen, err := NewGenerator(ctx, roleCfg)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		reg.Register(role, gen)
		logger.Op.WithFields(map[string]interface{}{
			"role":     role,
			"provider": roleCfg.Provider,
			"model":    roleCfg.Model,
		}).Debug("Registered role generator")
	}
	return reg, nil
}

// ConfigFrom maps execution settings onto adapter settings.
func ConfigFrom(llm config.LLMConfig, exec config.ExecutionConfig) Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = exec.MaxRetries
	cfg.SimplifyLines = exec.SimplifyLines
	cfg.RetryDelay = exec.RetryDelay
	cfg.CallTimeout = llm.CallTimeout
	return cfg
}
