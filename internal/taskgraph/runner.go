package taskgraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/logger"
)

// Observer is notified as tasks start and finish.
type Observer interface {
	TaskStarted(index, total int, spec TaskSpec)
	TaskFinished(index, total int, result TaskResult)
}

type Option func(*Runner)

// WithObserver registers an observer for task lifecycle events.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes a Graph one task at a time.
type Runner struct {
	graph     *Graph
	executor  Executor
	observers []Observer
	now       func() time.Time
}

func NewRunner(graph *Graph, executor Executor, opts ...Option) *Runner {
	r := &Runner{
		graph:    graph,
		executor: executor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every task in graph order. Task failures are recorded and the
// run continues. The returned ExecutionContext is never nil, even when the
// run stops early because of cancellation or a missing dependency result.
func (r *Runner) Run(ctx context.Context) (*ExecutionContext, error) {
	ec := NewExecutionContext()
	order := r.graph.Order()
	total := len(order)

	logger.Op.WithFields(map[string]interface{}{
		"tasks": total,
	}).Info("Starting task graph run")

	for i, taskID := range order {
		if err := ctx.Err(); err != nil {
			logger.Op.WithFields(map[string]interface{}{
				"executed": i,
				"total":    total,
			}).Warn("Run interrupted before all tasks executed")
			return ec, pcerrors.NewRunInterruptedError(i, total, err)
		}

		spec, _ := r.graph.Task(taskID)
		result, err := r.runTask(ctx, i, total, spec, ec)
		if err != nil {
			return ec, err
		}

		if err := ec.Record(result); err != nil {
			return ec, fmt.Errorf("failed to record result: %w", err)
		}
		for _, o := range r.observers {
			o.TaskFinished(i, total, result)
		}
	}

	logger.Op.WithFields(map[string]interface{}{
		"tasks": total,
	}).Info("Task graph run completed")
	return ec, nil
}

func (r *Runner) runTask(ctx context.Context, index, total int, spec TaskSpec, ec *ExecutionContext) (TaskResult, error) {
	entries, err := BuildContext(spec, ec)
	if err != nil {
		logger.Op.WithFields(map[string]interface{}{
			"task":  spec.ID,
			"error": err.Error(),
		}).Error("Cannot build context for task")
		return TaskResult{}, err
	}
	prompt := ComposePrompt(spec, entries)

	for _, o := range r.observers {
		o.TaskStarted(index, total, spec)
	}
	logger.Op.WithFields(map[string]interface{}{
		"task":         spec.ID,
		"executor":     spec.Executor,
		"dependencies": len(entries),
		"prompt_bytes": len(prompt),
	}).Debug("Executing task")

	started := r.now()
	outcome := r.executor.Execute(ctx, spec, prompt)
	finished := r.now()

	result := TaskResult{
		TaskID:     spec.ID,
		Status:     normalizeStatus(outcome),
		Output:     outcome.Output,
		StartedAt:  started,
		FinishedAt: finished,
		Attempts:   outcome.Attempts,
	}
	if outcome.Err != nil {
		result.Err = outcome.Err.Error()
	}

	fields := map[string]interface{}{
		"task":     spec.ID,
		"status":   string(result.Status),
		"attempts": result.Attempts,
		"duration": result.Duration().String(),
	}
	if result.Status.IsFailure() {
		logger.Op.WithFields(fields).Warn("Task finished without usable output")
	} else {
		logger.Op.WithFields(fields).Info("Task finished")
	}
	return result, nil
}

// normalizeStatus fills in a status for executors that leave it unset.
func normalizeStatus(o Outcome) TaskStatus {
	if o.Status.IsTerminal() {
		return o.Status
	}
	if o.Err != nil {
		return StatusFailed
	}
	if strings.TrimSpace(o.Output) == "" {
		return StatusEmptyOutput
	}
	return StatusSucceeded
}
