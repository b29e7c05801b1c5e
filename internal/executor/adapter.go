package executor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
)

// SentinelPrefix starts every output the adapter substitutes for a failed call.
const SentinelPrefix = "ERROR:"

var (
	errEmptyPrompt   = stderrors.New("prompt is empty")
	errEmptyResponse = stderrors.New("empty or generic response")
	errNoGenerator   = stderrors.New("no generator registered")
)

// DefaultGenericResponses are placeholder answers treated as empty.
var DefaultGenericResponses = []string{
	"i don't know",
	"i do not know",
	"n/a",
	"none",
	"null",
	"no answer",
	"unknown",
}

type Config struct {
	// MaxRetries is the number of simplified-prompt retries after the first attempt
	MaxRetries    int
	SimplifyLines int
	CallTimeout   time.Duration
	RetryDelay    time.Duration
	// GenericResponses are compared case-insensitively after trimming
	GenericResponses []string
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:       1,
		SimplifyLines:    12,
		CallTimeout:      5 * time.Minute,
		RetryDelay:       2 * time.Second,
		GenericResponses: DefaultGenericResponses,
	}
}

// Adapter turns generator calls into task outcomes. It never returns an
// error: failures become a sentinel output with an explicit status.
type Adapter struct {
	registry *Registry
	cfg      Config
	generic  map[string]bool
}

func NewAdapter(registry *Registry, cfg Config) *Adapter {
	if cfg.SimplifyLines <= 0 {
		cfg.SimplifyLines = DefaultConfig().SimplifyLines
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.GenericResponses == nil {
		cfg.GenericResponses = DefaultGenericResponses
	}

	generic := make(map[string]bool, len(cfg.GenericResponses))
	for _, g := range cfg.GenericResponses {
		generic[normalizeReply(g)] = true
	}
	return &Adapter{registry: registry, cfg: cfg, generic: generic}
}

// Execute implements taskgraph.Executor.
func (a *Adapter) Execute(ctx context.Context, spec taskgraph.TaskSpec, prompt string) taskgraph.Outcome {
	if strings.TrimSpace(prompt) == "" {
		return failed(spec.ID, 0, errEmptyPrompt)
	}

	gen := a.registry.Lookup(spec.Executor)
	if gen == nil {
		return failed(spec.ID, 0, fmt.Errorf("%w for executor %q", errNoGenerator, spec.Executor))
	}

	var (
		attempts int
		output   string
		lastErr  error
		empty    bool
	)

	operation := func() error {
		attempts++
		p := prompt
		if attempts > 1 {
			p = Simplify(prompt, a.cfg.SimplifyLines)
			logger.User.Retryf("Retrying %s with a simplified prompt (attempt %d)", spec.ID, attempts)
		}

		out, err := a.call(ctx, gen, p)
		if err != nil {
			lastErr, empty = err, false
			logger.Op.WithFields(map[string]interface{}{
				"task":    spec.ID,
				"attempt": attempts,
				"error":   err.Error(),
			}).Warn("Generation call failed")
			// only empty or generic replies earn the simplified retry
			return backoff.Permanent(err)
		}
		if a.unusable(out) {
			lastErr, empty = errEmptyResponse, true
			logger.Op.WithFields(map[string]interface{}{
				"task":    spec.ID,
				"attempt": attempts,
			}).Warn("Generation returned an empty or generic response")
			return errEmptyResponse
		}
		output = out
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.cfg.RetryDelay), uint64(a.cfg.MaxRetries)),
		ctx,
	)
	err := backoff.Retry(operation, b)
	if err == nil {
		return taskgraph.Outcome{Output: output, Status: taskgraph.StatusSucceeded, Attempts: attempts}
	}
	if lastErr == nil {
		lastErr = err
	}

	if empty {
		return taskgraph.Outcome{
			Output:   fmt.Sprintf("%s empty response (%s)", SentinelPrefix, spec.ID),
			Status:   taskgraph.StatusEmptyOutput,
			Attempts: attempts,
			Err:      pcerrors.NewPipelineError(pcerrors.ErrorCategoryGeneration, pcerrors.CodeGenerationEmpty,
				fmt.Sprintf("Task '%s' produced no usable output", spec.ID), "Executor invocation").
				WithKind(pcerrors.ErrGeneration).
				WithContext("task", spec.ID).
				WithContext("attempts", attempts),
		}
	}
	return failed(spec.ID, attempts, lastErr)
}

func (a *Adapter) call(ctx context.Context, gen Generator, prompt string) (string, error) {
	if a.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
	}
	return gen.Generate(ctx, prompt)
}

func (a *Adapter) unusable(out string) bool {
	trimmed := strings.TrimSpace(out)
	return trimmed == "" || a.generic[normalizeReply(trimmed)]
}

func failed(taskID string, attempts int, cause error) taskgraph.Outcome {
	return taskgraph.Outcome{
		Output:   fmt.Sprintf("%s generation failed (%s): %s", SentinelPrefix, taskID, firstLine(cause.Error())),
		Status:   taskgraph.StatusFailed,
		Attempts: attempts,
		Err:      pcerrors.NewGenerationError(taskID, cause),
	}
}

func normalizeReply(s string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), ".!")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Simplify keeps the first n non-blank lines of prompt. The expected output
// line is kept as well when it falls outside them.
func Simplify(prompt string, n int) string {
	var (
		kept     []string
		expected string
	)
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(kept) < n {
			kept = append(kept, line)
			continue
		}
		if expected == "" && strings.HasPrefix(line, "Expected output:") {
			expected = line
		}
	}
	if expected != "" {
		kept = append(kept, expected)
	}
	return strings.Join(kept, "\n")
}
