package taskgraph

import (
	"fmt"
	"strings"
	"sync"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
)

// ExecutionContext holds the results recorded so far, in execution order.
// It is append-only: a result is never replaced once recorded.
type ExecutionContext struct {
	mu      sync.RWMutex
	results map[string]TaskResult
	order   []string
}

// NewExecutionContext creates an empty ExecutionContext.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		results: make(map[string]TaskResult),
	}
}

// Record appends a result. Recording the same task twice is an error.
func (ec *ExecutionContext) Record(result TaskResult) error {
	if !result.Status.IsTerminal() {
		return fmt.Errorf("cannot record task %s with non-terminal status %q", result.TaskID, result.Status)
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	if _, exists := ec.results[result.TaskID]; exists {
		return fmt.Errorf("result for task %s already recorded", result.TaskID)
	}
	ec.results[result.TaskID] = result
	ec.order = append(ec.order, result.TaskID)
	return nil
}

// Get returns the recorded result for a task.
func (ec *ExecutionContext) Get(taskID string) (TaskResult, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	r, ok := ec.results[taskID]
	return r, ok
}

// Results returns a copy of the recorded results in execution order.
func (ec *ExecutionContext) Results() []TaskResult {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	out := make([]TaskResult, 0, len(ec.order))
	for _, id := range ec.order {
		out = append(out, ec.results[id])
	}
	return out
}

// IDs returns the recorded task IDs in execution order.
func (ec *ExecutionContext) IDs() []string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return append([]string(nil), ec.order...)
}

func (ec *ExecutionContext) Len() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.order)
}

const defaultExpectedOutput = "A complete answer to the task above."

// ContextEntry is one dependency output handed to a task.
type ContextEntry struct {
	DependencyID string
	Output       string
}

// BuildContext collects the outputs of spec's dependencies in their declared
// order. Failed dependencies contribute their sentinel text unchanged.
func BuildContext(spec TaskSpec, ec *ExecutionContext) ([]ContextEntry, error) {
	entries := make([]ContextEntry, 0, len(spec.Dependencies))
	for _, depID := range spec.Dependencies {
		result, ok := ec.Get(depID)
		if !ok {
			return nil, pcerrors.NewContextMissingError(spec.ID, depID)
		}
		entries = append(entries, ContextEntry{DependencyID: depID, Output: result.Output})
	}
	return entries, nil
}

// ComposePrompt renders the prompt sent to the executor for spec.
func ComposePrompt(spec TaskSpec, entries []ContextEntry) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(spec.Description))
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n--- context from %s ---\n", e.DependencyID))
		sb.WriteString(strings.TrimSpace(e.Output))
		sb.WriteString("\n")
	}

	expected := strings.TrimSpace(spec.ExpectedOutput)
	if expected == "" {
		expected = defaultExpectedOutput
	}
	sb.WriteString("\nExpected output: ")
	sb.WriteString(expected)
	sb.WriteString("\n")
	return sb.String()
}
