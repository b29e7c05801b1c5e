package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxkimambo/prodcrew/internal/scoring"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
)

// NotExecuted labels tasks a run never reached.
const NotExecuted = "not executed"

type Stats struct {
	Total       int `json:"total"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	Empty       int `json:"empty_output"`
	NotExecuted int `json:"not_executed"`
}

// TaskEntry is one task as it appears in a report.
type TaskEntry struct {
	TaskID      string     `json:"task_id"`
	Description string     `json:"description"`
	Executor    string     `json:"executor"`
	Status      string     `json:"status"`
	Output      string     `json:"output"`
	Attempts    int        `json:"attempts"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// RunReport is the durable record of one graph execution.
type RunReport struct {
	RunID       string      `json:"run_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Tasks       []TaskEntry `json:"tasks"`
	FinalTaskID string      `json:"final_task_id"`
	FinalOutput string      `json:"final_output"`
	Summary     string      `json:"summary"`
	Approved    bool        `json:"is_approved"`
	Interrupted bool        `json:"interrupted"`
	RunError    string      `json:"run_error,omitempty"`
	Stats       Stats       `json:"stats"`
}

// ShortID is the run ID prefix used in file names.
func (r *RunReport) ShortID() string {
	id := strings.ReplaceAll(r.RunID, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Plan is the task layout a report follows. *taskgraph.Graph satisfies it.
type Plan interface {
	Order() []string
	Task(id string) (taskgraph.TaskSpec, bool)
}

type Options struct {
	// RunID and Timestamp are generated when empty
	RunID     string
	Timestamp time.Time
	// FinalTask defaults to the last task in execution order
	FinalTask    string
	DecisionTask string
	// RunErr is the error the runner stopped with, if any
	RunErr error
}

// Aggregate builds the report for a run. Given the same execution context,
// run ID and timestamp it always produces the same report.
func Aggregate(g Plan, ec *taskgraph.ExecutionContext, opts Options) *RunReport {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Now()
	}
	if ec == nil {
		ec = taskgraph.NewExecutionContext()
	}

	order := g.Order()
	if opts.FinalTask == "" && len(order) > 0 {
		opts.FinalTask = order[len(order)-1]
	}

	r := &RunReport{
		RunID:       opts.RunID,
		Timestamp:   opts.Timestamp.UTC(),
		FinalTaskID: opts.FinalTask,
		Tasks:       make([]TaskEntry, 0, len(order)),
	}
	if opts.RunErr != nil {
		r.RunError = firstLine(opts.RunErr.Error())
	}

	for _, id := range order {
		spec, _ := g.Task(id)
		entry := TaskEntry{
			TaskID:      id,
			Description: strings.TrimSpace(spec.Description),
			Executor:    spec.Executor,
			Status:      NotExecuted,
			Output:      NotExecuted,
		}
		var status taskgraph.TaskStatus
		if result, ok := ec.Get(id); ok {
			started, finished := result.StartedAt.UTC(), result.FinishedAt.UTC()
			status = result.Status
			entry.Status = string(result.Status)
			entry.Output = result.Output
			entry.Attempts = result.Attempts
			entry.Error = result.Err
			entry.StartedAt = &started
			entry.FinishedAt = &finished
		}
		r.Tasks = append(r.Tasks, entry)
		r.Stats.add(status)
	}
	r.Interrupted = r.Stats.NotExecuted > 0

	final, finalOK := ec.Get(opts.FinalTask)
	if finalOK {
		r.FinalOutput = final.Output
	}
	if finalOK && final.Status == taskgraph.StatusSucceeded {
		r.Summary = final.Output
	} else {
		r.Summary = synthesizeSummary(r.Tasks)
	}

	if decision, ok := ec.Get(opts.DecisionTask); ok && decision.Status == taskgraph.StatusSucceeded {
		r.Approved = scoring.AnyApproved(decision.Output)
	}
	return r
}

func (s *Stats) add(status taskgraph.TaskStatus) {
	s.Total++
	switch status {
	case taskgraph.StatusSucceeded:
		s.Succeeded++
	case taskgraph.StatusFailed:
		s.Failed++
	case taskgraph.StatusEmptyOutput:
		s.Empty++
	default:
		s.NotExecuted++
	}
}

// synthesizeSummary lists every task with its status and output.
func synthesizeSummary(tasks []TaskEntry) string {
	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("### %s [%s]\n", t.TaskID, t.Status))
		if t.Description != "" {
			sb.WriteString(t.Description)
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimSpace(t.Output))
		sb.WriteString("\n")
	}
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
