package taskgraph

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a task within a run.
type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusRunning     TaskStatus = "running"
	StatusSucceeded   TaskStatus = "succeeded"
	StatusFailed      TaskStatus = "failed"
	StatusEmptyOutput TaskStatus = "empty_output"
)

// IsTerminal reports whether the status can be recorded in an ExecutionContext.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusEmptyOutput
}

// IsFailure is true for Failed and EmptyOutput.
func (s TaskStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusEmptyOutput
}

// TaskSpec declares a single unit of work in the graph.
type TaskSpec struct {
	ID             string   `json:"id" yaml:"id"`
	Description    string   `json:"description" yaml:"description"`
	ExpectedOutput string   `json:"expected_output,omitempty" yaml:"expected_output"`
	Executor       string   `json:"executor" yaml:"executor"`
	Dependencies   []string `json:"dependencies,omitempty" yaml:"dependencies"`
}

// TaskResult is the recorded outcome of one task. Output is always set;
// failed tasks carry the executor's sentinel text.
type TaskResult struct {
	TaskID     string     `json:"task_id"`
	Status     TaskStatus `json:"status"`
	Output     string     `json:"output"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Attempts   int        `json:"attempts"`
	Err        string     `json:"error,omitempty"`
}

// Duration returns how long the task ran.
func (r TaskResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is what an Executor hands back for one task.
type Outcome struct {
	Output   string
	Status   TaskStatus
	Attempts int
	Err      error
}

// Executor runs a composed prompt on behalf of a task. Implementations
// report failures through Outcome.Status instead of returning errors.
type Executor interface {
	Execute(ctx context.Context, spec TaskSpec, prompt string) Outcome
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, spec TaskSpec, prompt string) Outcome

func (f ExecutorFunc) Execute(ctx context.Context, spec TaskSpec, prompt string) Outcome {
	return f(ctx, spec, prompt)
}
