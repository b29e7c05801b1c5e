package executor

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces text for a prompt. It is the only capability the
// adapter needs from a language model backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// StaticGenerator always answers with Response.
type StaticGenerator struct {
	Response string
}

func (s StaticGenerator) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Response, nil
}

// DryRunGenerator echoes the first line of each prompt so a graph can be
// exercised end to end without a model.
type DryRunGenerator struct{}

func (DryRunGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	first := strings.TrimSpace(prompt)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = strings.TrimSpace(first[:i])
	}
	return fmt.Sprintf("[dry run] %s", first), nil
}
