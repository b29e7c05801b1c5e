package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays replies in order and records every prompt it saw
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = 0
	cfg.CallTimeout = 0
	cfg.SimplifyLines = 2
	return cfg
}

func newTestAdapter(gen Generator) *Adapter {
	return NewAdapter(NewRegistry(gen), testConfig())
}

var taskSpec = taskgraph.TaskSpec{ID: "market_analysis", Description: "Analyze", Executor: "market_analyzer"}

const fullPrompt = "Analyze the market.\n\n--- context from trend_discovery ---\nsmart rings\nmore detail\n\nExpected output: A list."

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "rings are hot"}}}

	out := newTestAdapter(gen).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusSucceeded, out.Status)
	assert.Equal(t, "rings are hot", out.Output)
	assert.Equal(t, 1, out.Attempts)
	assert.NoError(t, out.Err)
	assert.Equal(t, []string{fullPrompt}, gen.prompts)
}

func TestExecuteRetriesWithSimplifiedPrompt(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "   "}, {text: "recovered"}}}

	out := newTestAdapter(gen).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusSucceeded, out.Status)
	assert.Equal(t, "recovered", out.Output)
	assert.Equal(t, 2, out.Attempts)
	require.Len(t, gen.prompts, 2)
	assert.Equal(t, "Analyze the market.\n--- context from trend_discovery ---\nExpected output: A list.", gen.prompts[1])
}

func TestExecuteEmptyTwiceYieldsEmptySentinel(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: ""}, {text: "N/A"}}}

	out := newTestAdapter(gen).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusEmptyOutput, out.Status)
	assert.Equal(t, "ERROR: empty response (market_analysis)", out.Output)
	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.Err, pcerrors.ErrGeneration)
}

func TestExecuteErrorFailsWithoutRetry(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: errors.New("connection refused")},
		{text: "never used"},
	}}

	out := newTestAdapter(gen).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusFailed, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{fullPrompt}, gen.prompts)
	assert.Equal(t, "ERROR: generation failed (market_analysis): connection refused", out.Output)
	assert.True(t, strings.HasPrefix(out.Output, SentinelPrefix))
	assert.False(t, pcerrors.IsFatal(out.Err))
}

func TestExecuteSentinelCategoryIsStable(t *testing.T) {
	failing := GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	})
	adapter := newTestAdapter(failing)

	first := adapter.Execute(context.Background(), taskSpec, fullPrompt)
	second := adapter.Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Status, second.Status)
	assert.NotEmpty(t, first.Output)
}

func TestExecuteGenericReplies(t *testing.T) {
	for _, text := range []string{"I don't know.", "none", "  NULL  ", "Unknown!"} {
		t.Run(text, func(t *testing.T) {
			out := newTestAdapter(StaticGenerator{Response: text}).Execute(context.Background(), taskSpec, fullPrompt)
			assert.Equal(t, taskgraph.StatusEmptyOutput, out.Status)
		})
	}
}

func TestExecuteEmptyPrompt(t *testing.T) {
	gen := &scriptedGenerator{}

	out := newTestAdapter(gen).Execute(context.Background(), taskSpec, " \n ")

	assert.Equal(t, taskgraph.StatusFailed, out.Status)
	assert.True(t, strings.HasPrefix(out.Output, "ERROR: generation failed (market_analysis)"))
	assert.Empty(t, gen.prompts)
	assert.Equal(t, 0, out.Attempts)
}

func TestExecuteWithoutGenerator(t *testing.T) {
	out := NewAdapter(NewRegistry(nil), testConfig()).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusFailed, out.Status)
	assert.Contains(t, out.Output, "no generator registered")
}

func TestExecuteNoRetriesConfigured(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: ""}, {text: "never used"}}}
	cfg := testConfig()
	cfg.MaxRetries = 0

	out := NewAdapter(NewRegistry(gen), cfg).Execute(context.Background(), taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusEmptyOutput, out.Status)
	assert.Equal(t, 1, out.Attempts)
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestAdapter(StaticGenerator{Response: "hi"}).Execute(ctx, taskSpec, fullPrompt)

	assert.Equal(t, taskgraph.StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestSimplify(t *testing.T) {
	prompt := "line one\n\n  line two  \nline three\nExpected output: JSON"

	assert.Equal(t, "line one\nline two\nExpected output: JSON", Simplify(prompt, 2))
	assert.Equal(t, "line one\nline two\nline three\nExpected output: JSON", Simplify(prompt, 10))
}

