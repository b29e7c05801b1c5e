package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func testGraph(t *testing.T) *taskgraph.Graph {
	t.Helper()
	g, err := taskgraph.NewGraph([]taskgraph.TaskSpec{
		{ID: "A", Description: "Find trends", Executor: "trend_scout"},
		{ID: "B", Description: "Decide", Executor: "decision_maker", Dependencies: []string{"A"}},
		{ID: "C", Description: "Write report", Executor: "report_generator", Dependencies: []string{"A", "B"}},
	})
	require.NoError(t, err)
	return g
}

func record(t *testing.T, ec *taskgraph.ExecutionContext, id string, status taskgraph.TaskStatus, output string) {
	t.Helper()
	require.NoError(t, ec.Record(taskgraph.TaskResult{
		TaskID:     id,
		Status:     status,
		Output:     output,
		StartedAt:  runTime,
		FinishedAt: runTime.Add(1500 * time.Millisecond),
		Attempts:   1,
	}))
}

func opts() Options {
	return Options{RunID: "3f2b8c1d-0000-4000-8000-000000000001", Timestamp: runTime, FinalTask: "C", DecisionTask: "B"}
}

func TestAggregateUsesFinalOutputWhenSucceeded(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusSucceeded, `{"Ring": {"is_approved": true}}`)
	record(t, ec, "C", taskgraph.StatusSucceeded, "Final report text")

	r := Aggregate(testGraph(t), ec, opts())

	assert.Equal(t, "Final report text", r.Summary)
	assert.Equal(t, "Final report text", r.FinalOutput)
	assert.True(t, r.Approved)
	assert.False(t, r.Interrupted)
	assert.Equal(t, Stats{Total: 3, Succeeded: 3}, r.Stats)
	assert.Equal(t, "3f2b8c1d", r.ShortID())
}

func TestAggregateDegradedRun(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusFailed, "ERROR: generation failed (B): boom")
	record(t, ec, "C", taskgraph.StatusSucceeded, "report using x and failure")

	r := Aggregate(testGraph(t), ec, opts())

	require.Len(t, r.Tasks, 3)
	assert.Equal(t, "succeeded", r.Tasks[0].Status)
	assert.Equal(t, "failed", r.Tasks[1].Status)
	assert.Equal(t, "succeeded", r.Tasks[2].Status)
	assert.NotEmpty(t, r.Summary)
	assert.False(t, r.Approved)
}

func TestAggregateAllFailed(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusFailed, "ERROR: generation failed (A): down")
	record(t, ec, "B", taskgraph.StatusEmptyOutput, "ERROR: empty response (B)")
	record(t, ec, "C", taskgraph.StatusFailed, "ERROR: generation failed (C): down")

	r := Aggregate(testGraph(t), ec, opts())

	require.NotNil(t, r)
	expected := "### A [failed]\nFind trends\nERROR: generation failed (A): down\n" +
		"\n### B [empty_output]\nDecide\nERROR: empty response (B)\n" +
		"\n### C [failed]\nWrite report\nERROR: generation failed (C): down\n"
	assert.Equal(t, expected, r.Summary)
	assert.Equal(t, Stats{Total: 3, Failed: 2, Empty: 1}, r.Stats)
}

func TestAggregateInterruptedRun(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")

	o := opts()
	o.RunErr = pcerrors.NewRunInterruptedError(1, 3, errors.New("context canceled"))
	r := Aggregate(testGraph(t), ec, o)

	assert.True(t, r.Interrupted)
	assert.Equal(t, 2, r.Stats.NotExecuted)
	assert.Contains(t, r.Summary, "### C [not executed]\nWrite report\nnot executed\n")
	assert.Equal(t, "RUN-001: Run interrupted after 1 of 3 tasks", r.RunError)
	assert.Nil(t, r.Tasks[2].StartedAt)
}

func TestApprovalRequiresStructuredField(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusSucceeded, "All products approved! Great work.")
	record(t, ec, "C", taskgraph.StatusSucceeded, "approved approved approved")

	r := Aggregate(testGraph(t), ec, opts())

	assert.False(t, r.Approved)
}

func TestAggregateIsIdempotent(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusFailed, "ERROR: generation failed (B): boom")
	record(t, ec, "C", taskgraph.StatusEmptyOutput, "ERROR: empty response (C)")
	g := testGraph(t)

	first := Aggregate(g, ec, opts())
	second := Aggregate(g, ec, opts())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}

	j1, err := RenderJSON(first)
	require.NoError(t, err)
	j2, err := RenderJSON(second)
	require.NoError(t, err)
	assert.Equal(t, string(j1), string(j2))
	assert.Equal(t, RenderText(first), RenderText(second))
}

func TestAggregateDefaultsFinalTaskToLastInOrder(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusSucceeded, "y")
	record(t, ec, "C", taskgraph.StatusSucceeded, "z")

	r := Aggregate(testGraph(t), ec, Options{Timestamp: runTime})

	assert.Equal(t, "C", r.FinalTaskID)
	assert.Equal(t, "z", r.Summary)
	assert.NotEmpty(t, r.RunID)
}

func TestRenderText(t *testing.T) {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusFailed, "ERROR: generation failed (B): boom")

	text := RenderText(Aggregate(testGraph(t), ec, opts()))

	assert.True(t, strings.HasPrefix(text, "PRODUCT RESEARCH RUN REPORT\n"))
	assert.Contains(t, text, "Run ID: 3f2b8c1d-0000-4000-8000-000000000001")
	assert.Contains(t, text, "Timestamp: 2025-06-01T09:30:00Z")
	assert.Contains(t, text, "Interrupted: yes")
	assert.Contains(t, text, "1. A [succeeded] attempts=1 duration=1.5s")
	assert.Contains(t, text, "2. B [failed] attempts=1 duration=1.5s\n    ERROR: generation failed (B): boom")
	assert.Contains(t, text, "3. C [not executed]\n    not executed")
}
