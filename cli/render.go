// ABOUTME: Text renderers turning pipeline and run documents into aligned, styled terminal output.
// ABOUTME: Pure functions returning strings so the monitor view and tests can reuse them.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jkalend/custom-cicd/engine"
)

func renderPipelineTable(pipelines []engine.PipelineStatus) string {
	if len(pipelines) == 0 {
		return dimStyle.Render("no pipelines") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf(
		"%-36s  %-20s  %-10s  %6s  %6s  %s",
		"ID", "NAME", "STATUS", "ACTIVE", "TOTAL", "LAST RUN")))
	for _, p := range pipelines {
		lastRun := "-"
		if p.LastRunAt != nil {
			lastRun = p.LastRunAt.Format(time.RFC3339)
		}
		fmt.Fprintf(&b, "%-36s  %-20s  %s  %6d  %6d  %s\n",
			p.ID, truncate(p.Name, 20),
			StyleForStatus(p.Status).Render(fmt.Sprintf("%-10s", p.Status)),
			p.ActiveRuns, p.TotalRuns, lastRun)
	}
	return b.String()
}

func renderPipelineDetails(p engine.PipelineStatus) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pipeline "+p.Name) + "\n")
	writeField(&b, "ID", p.ID)
	writeField(&b, "Version", p.Version)
	if p.Description != "" {
		writeField(&b, "Description", p.Description)
	}
	writeField(&b, "Status", StyleForStatus(p.Status).Render(string(p.Status)))
	writeField(&b, "Created", p.CreatedAt.Format(time.RFC3339))
	if p.LastRunAt != nil {
		writeField(&b, "Last run", p.LastRunAt.Format(time.RFC3339))
	}
	writeField(&b, "Active runs", fmt.Sprintf("%d", p.ActiveRuns))
	writeField(&b, "Total runs", fmt.Sprintf("%d", p.TotalRuns))
	return b.String()
}

func renderRunTable(runs []engine.RunSummary) string {
	if len(runs) == 0 {
		return dimStyle.Render("no runs") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf(
		"%-26s  %-36s  %-20s  %-10s  %s",
		"RUN ID", "PIPELINE ID", "NAME", "STATUS", "DURATION")))
	for _, r := range runs {
		fmt.Fprintf(&b, "%-26s  %-36s  %-20s  %s  %s\n",
			r.ID, r.PipelineID, truncate(r.Name, 20),
			StyleForStatus(r.Status).Render(fmt.Sprintf("%-10s", r.Status)),
			formatDuration(r.Duration))
	}
	return b.String()
}

func renderRunDetails(r engine.Run) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run "+r.ID) + "\n")
	writeField(&b, "Pipeline", fmt.Sprintf("%s (%s)", r.Name, r.PipelineID))
	writeField(&b, "Status", StyleForStatus(r.Status).Render(string(r.Status)))
	writeField(&b, "Created", r.CreatedAt.Format(time.RFC3339))
	if r.StartedAt != nil {
		writeField(&b, "Started", r.StartedAt.Format(time.RFC3339))
	}
	if r.FinishedAt != nil {
		writeField(&b, "Finished", r.FinishedAt.Format(time.RFC3339))
	}
	writeField(&b, "Duration", formatDuration(r.Duration))

	b.WriteString("\n" + headerStyle.Render("Steps") + "\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "  %d. %-20s %s\n", i+1, truncate(step.Name, 20),
			StyleForStatus(step.Status).Render(string(step.Status)))
		fmt.Fprintf(&b, "     %s\n", dimStyle.Render("$ "+step.Command))
		if step.Error != "" {
			fmt.Fprintf(&b, "     %s\n", errorStyle.Render(step.Error))
		}
		if out := strings.TrimSpace(step.Output); out != "" {
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintf(&b, "     %s\n", line)
			}
		}
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(label+":"), value)
}

func formatDuration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fs", *seconds)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
