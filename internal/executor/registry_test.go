package executor

import (
	"context"
	"testing"

	"github.com/maxkimambo/prodcrew/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupFallsBack(t *testing.T) {
	fallback := StaticGenerator{Response: "default"}
	reg := NewRegistry(fallback)
	reg.Register("trend_scout", StaticGenerator{Response: "scout"})

	scout, err := reg.Lookup("trend_scout").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "scout", scout)

	other, err := reg.Lookup("copywriter").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "default", other)

	assert.Equal(t, []string{"trend_scout"}, reg.Refs())
}

func TestRegistryWithoutFallback(t *testing.T) {
	assert.Nil(t, NewRegistry(nil).Lookup("anything"))
}

func TestDryRunGenerator(t *testing.T) {
	out, err := DryRunGenerator{}.Generate(context.Background(), "Find trends\n--- context from a ---\nx")

	require.NoError(t, err)
	assert.Equal(t, "[dry run] Find trends", out)
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.LLMConfig{Provider: config.ProviderStatic})
	require.NoError(t, err)
	assert.IsType(t, DryRunGenerator{}, gen)

	gen, err = NewGenerator(context.Background(), config.Default().LLM)
	require.NoError(t, err)
	assert.IsType(t, &OllamaGenerator{}, gen)

	_, err = NewGenerator(context.Background(), config.LLMConfig{Provider: config.ProviderGemini})
	assert.Error(t, err)

	_, err = NewGenerator(context.Background(), config.LLMConfig{Provider: "gpt"})
	assert.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Execution.MaxRetries = 3

	got := ConfigFrom(cfg.LLM, cfg.Execution)

	assert.Equal(t, 3, got.MaxRetries)
	assert.Equal(t, cfg.Execution.SimplifyLines, got.SimplifyLines)
	assert.Equal(t, cfg.LLM.CallTimeout, got.CallTimeout)
}

func TestNewRegistryFromConfigRegistersRoles(t *testing.T) {
	llm := config.Default().LLM
	llm.Roles = map[string]config.RoleLLM{
		"copywriter":      {Provider: config.ProviderStatic},
		"market_analyzer": {Model: "qwen2.5:14b"},
	}

	reg, err := NewRegistryFromConfig(context.Background(), llm)
	require.NoError(t, err)

	assert.Equal(t, []string{"copywriter", "market_analyzer"}, reg.Refs())
	assert.IsType(t, DryRunGenerator{}, reg.Lookup("copywriter"))
	require.IsType(t, &OllamaGenerator{}, reg.Lookup("market_analyzer"))
	assert.Equal(t, "qwen2.5:14b", reg.Lookup("market_analyzer").(*OllamaGenerator).model)
	assert.Equal(t, "deepseek-r1:8b", reg.Lookup("trend_scout").(*OllamaGenerator).model)
}

func TestNewRegistryFromConfigRejectsBadRole(t *testing.T) {
	llm := config.Default().LLM
	llm.Roles = map[string]config.RoleLLM{"trend_scout": {Provider: "gpt"}}

	_, err := NewRegistryFromConfig(context.Background(), llm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role trend_scout")
}
