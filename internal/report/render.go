package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxkimambo/prodcrew/internal/utils"
)

// RenderJSON returns the indented JSON form of r.
func RenderJSON(r *RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderText returns the human-readable form of r.
func RenderText(r *RunReport) string {
	rb := utils.NewReportBuilder().
		Header("PRODUCT RESEARCH RUN REPORT").
		AddKeyValue("Run ID", r.RunID).
		AddKeyValue("Timestamp", r.Timestamp.Format(time.RFC3339)).
		AddKeyValue("Approved", yesNo(r.Approved)).
		AddKeyValue("Tasks", fmt.Sprintf("%d total, %d succeeded, %d failed, %d empty, %d not executed",
			r.Stats.Total, r.Stats.Succeeded, r.Stats.Failed, r.Stats.Empty, r.Stats.NotExecuted))
	if r.Interrupted {
		rb.AddKeyValue("Interrupted", "yes")
	}
	if r.RunError != "" {
		rb.AddKeyValue("Run error", r.RunError)
	}

	rb.Section("SUMMARY").AddBlock(r.Summary, 0)

	rb.Section("TASK RESULTS")
	for i, t := range r.Tasks {
		line := fmt.Sprintf("%s [%s]", t.TaskID, t.Status)
		if t.Attempts > 0 {
			line += fmt.Sprintf(" attempts=%d", t.Attempts)
		}
		if t.StartedAt != nil && t.FinishedAt != nil {
			line += fmt.Sprintf(" duration=%s", t.FinishedAt.Sub(*t.StartedAt).Round(time.Millisecond))
		}
		rb.AddNumbered(i+1, line).AddBlock(t.Output, 2)
	}
	return rb.AddEmptyLine().AddSeparator().Build()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
