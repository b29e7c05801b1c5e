package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
)

// Phase groups tasks for progress display.
type Phase string

const (
	PhaseResearch   Phase = "Research"
	PhaseSourcing   Phase = "Sourcing"
	PhaseValidation Phase = "Validation"
	PhaseDecision   Phase = "Decision"
	PhaseStorefront Phase = "Storefront"
	PhaseReporting  Phase = "Reporting"
)

// DefaultPhases maps the built-in task IDs to their phase.
var DefaultPhases = map[string]Phase{
	"trend_discovery":     PhaseResearch,
	"market_analysis":     PhaseResearch,
	"competitor_analysis": PhaseResearch,
	"aliexpress_sourcing": PhaseSourcing,
	"amazon_pricing":      PhaseSourcing,
	"review_analysis":     PhaseValidation,
	"trend_validation":    PhaseValidation,
	"duplicate_check":     PhaseValidation,
	"pricing_strategy":    PhaseDecision,
	"product_scoring":     PhaseDecision,
	"final_decision":      PhaseDecision,
	"shopify_theme":       PhaseStorefront,
	"product_page":        PhaseStorefront,
	"landing_page":        PhaseStorefront,
	"seo_optimization":    PhaseStorefront,
	"final_report":        PhaseReporting,
}

// ProgressInfo is a snapshot of a running graph.
type ProgressInfo struct {
	CurrentPhase      Phase
	TotalTasks        int
	CompletedTasks    int
	FailedTasks       int
	ElapsedTime       time.Duration
	EstimatedTimeLeft time.Duration
	CurrentOperation  string
}

// Reporter prints task progress as the runner moves through the graph. It
// implements taskgraph.Observer.
type Reporter struct {
	mu        sync.Mutex
	phases    map[string]Phase
	now       func() time.Time
	startTime time.Time
	phase     Phase
	info      ProgressInfo
}

// NewReporter creates a reporter. Tasks missing from phases are shown
// without a phase.
func NewReporter(phases map[string]Phase) *Reporter {
	return newReporter(phases, time.Now)
}

func newReporter(phases map[string]Phase, now func() time.Time) *Reporter {
	return &Reporter{
		phases:    phases,
		now:       now,
		startTime: now(),
	}
}

func (r *Reporter) TaskStarted(index, total int, spec taskgraph.TaskSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.info.TotalTasks = total
	r.info.CurrentOperation = spec.ID
	if phase, ok := r.phases[spec.ID]; ok && phase != r.phase {
		r.phase = phase
		r.info.CurrentPhase = phase
		logger.User.Starting(r.ReportPhaseStart(phase))
	}
	logger.User.Taskf("[%d/%d] %s (%s)", index+1, total, spec.ID, spec.Executor)
}

func (r *Reporter) TaskFinished(index, total int, result taskgraph.TaskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.info.CompletedTasks = index + 1
	if result.Status.IsFailure() {
		r.info.FailedTasks++
		logger.User.Warnf("%s finished with status %s after %d attempt(s)", result.TaskID, result.Status, result.Attempts)
	}
	r.info.ElapsedTime = r.now().Sub(r.startTime)
	r.info.EstimatedTimeLeft = CalculateETA(r.info.CompletedTasks, total, r.info.ElapsedTime)
	logger.User.Info(r.Report(r.info))
}

// Snapshot returns the latest progress.
func (r *Reporter) Snapshot() ProgressInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}

// Report formats a progress line.
func (r *Reporter) Report(info ProgressInfo) string {
	var sb strings.Builder

	percentage := 0.0
	if info.TotalTasks > 0 {
		percentage = float64(info.CompletedTasks) / float64(info.TotalTasks) * 100
	}
	sb.WriteString(fmt.Sprintf("Progress: %d/%d tasks completed (%.1f%%)",
		info.CompletedTasks, info.TotalTasks, percentage))

	if info.FailedTasks > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", info.FailedTasks))
	}
	if info.CurrentPhase != "" {
		sb.WriteString(fmt.Sprintf(" | Phase: %s", info.CurrentPhase))
	}
	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", FormatDuration(info.ElapsedTime)))
	if info.EstimatedTimeLeft > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(info.EstimatedTimeLeft)))
	}
	return sb.String()
}

func (r *Reporter) ReportPhaseStart(phase Phase) string {
	return fmt.Sprintf("Starting %s phase", phase)
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(completed, total int, elapsed time.Duration) time.Duration {
	if completed <= 0 || total <= 0 || completed >= total {
		return 0
	}

	averageTimePerTask := elapsed / time.Duration(completed)
	remainingTasks := total - completed
	return averageTimePerTask * time.Duration(remainingTasks)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
