package progress

import (
	"testing"
	"time"

	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"github.com/stretchr/testify/assert"
)

func TestReporterTracksTasks(t *testing.T) {
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r := newReporter(DefaultPhases, func() time.Time { return clock })

	r.TaskStarted(0, 4, taskgraph.TaskSpec{ID: "trend_discovery", Executor: "trend_scout"})
	clock = clock.Add(30 * time.Second)
	r.TaskFinished(0, 4, taskgraph.TaskResult{TaskID: "trend_discovery", Status: taskgraph.StatusSucceeded, Attempts: 1})

	info := r.Snapshot()
	assert.Equal(t, PhaseResearch, info.CurrentPhase)
	assert.Equal(t, 1, info.CompletedTasks)
	assert.Equal(t, 30*time.Second, info.ElapsedTime)
	assert.Equal(t, 90*time.Second, info.EstimatedTimeLeft)

	r.TaskStarted(1, 4, taskgraph.TaskSpec{ID: "aliexpress_sourcing"})
	clock = clock.Add(30 * time.Second)
	r.TaskFinished(1, 4, taskgraph.TaskResult{TaskID: "aliexpress_sourcing", Status: taskgraph.StatusEmptyOutput, Attempts: 2})

	info = r.Snapshot()
	assert.Equal(t, PhaseSourcing, info.CurrentPhase)
	assert.Equal(t, 1, info.FailedTasks)
	assert.Equal(t, "aliexpress_sourcing", info.CurrentOperation)
}

func TestReporterUnknownTaskKeepsPhase(t *testing.T) {
	r := NewReporter(DefaultPhases)
	r.TaskStarted(0, 2, taskgraph.TaskSpec{ID: "final_report"})
	r.TaskStarted(1, 2, taskgraph.TaskSpec{ID: "custom"})
	assert.Equal(t, PhaseReporting, r.Snapshot().CurrentPhase)
}

func TestReport(t *testing.T) {
	r := NewReporter(nil)
	line := r.Report(ProgressInfo{
		CurrentPhase:      PhaseDecision,
		TotalTasks:        16,
		CompletedTasks:    4,
		FailedTasks:       1,
		ElapsedTime:       2 * time.Minute,
		EstimatedTimeLeft: 6 * time.Minute,
	})
	assert.Equal(t, "Progress: 4/16 tasks completed (25.0%), 1 failed | Phase: Decision | Elapsed: 2m 0s | ETA: 6m 0s", line)
}

func TestCalculateETA(t *testing.T) {
	assert.Equal(t, time.Duration(0), CalculateETA(0, 10, time.Minute))
	assert.Equal(t, time.Duration(0), CalculateETA(10, 10, time.Minute))
	assert.Equal(t, 3*time.Minute, CalculateETA(2, 8, time.Minute))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 30m", FormatDuration(90*time.Minute))
}
