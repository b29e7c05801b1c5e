package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// OllamaConfig configures a local Ollama server connection.
type OllamaConfig struct {
	BaseURL       string
	Model         string
	Temperature   float64
	NumPredict    int
	RepeatPenalty float64
	Timeout       time.Duration
}

// OllamaGenerator generates text through the Ollama /api/generate endpoint.
type OllamaGenerator struct {
	endpoint string
	model    string
	options  ollamaOptions
	client   *http.Client
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

func NewOllamaGenerator(cfg OllamaConfig) *OllamaGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-r1:8b"
	}
	if cfg.NumPredict == 0 {
		cfg.NumPredict = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &OllamaGenerator{
		endpoint: strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		options: ollamaOptions{
			Temperature:   cfg.Temperature,
			NumPredict:    cfg.NumPredict,
			RepeatPenalty: cfg.RepeatPenalty,
		},
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate sends a single non-streaming generation request.
func (o *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  false,
		Options: o.options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}

	return StripReasoning(result.Response), nil
}

// Name returns the generator name.
func (o *OllamaGenerator) Name() string {
	return fmt.Sprintf("ollama:%s", o.model)
}

// StripReasoning removes <think> blocks emitted by reasoning models.
func StripReasoning(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}

type ollamaOptions struct {
	Temperature   float64 `json:"temperature"`
	NumPredict    int     `json:"num_predict"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}
