package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/service"
	"github.com/atelierhq/handoff-api/internal/store"
)

// Markdown renderers for tool results. Output is aimed at an agent
// reading the transcript, so it favors scannable one-line summaries
// over exhaustive field dumps.

func formatTask(task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", task.ID)
	fmt.Fprintf(&b, "**Instruction:** %s\n", task.Instruction)
	fmt.Fprintf(&b, "**Status:** %s | **Priority:** %s\n", task.Status, task.Priority)
	if task.ProjectName != "" {
		fmt.Fprintf(&b, "**Project:** %s\n", task.ProjectName)
	}
	if task.Context != "" {
		fmt.Fprintf(&b, "**Context:** %s\n", task.Context)
	}
	if task.ParentTaskID != "" {
		fmt.Fprintf(&b, "**Parent:** %s\n", task.ParentTaskID)
	}
	if task.EstimatedComplexity != "" {
		fmt.Fprintf(&b, "**Complexity:** %s\n", task.EstimatedComplexity)
	}
	if len(task.FilesNeeded) > 0 {
		fmt.Fprintf(&b, "**Files needed:** %s\n", strings.Join(task.FilesNeeded, ", "))
	}
	fmt.Fprintf(&b, "**Created:** %s by %s\n", task.CreatedAt.Format(time.RFC3339), task.CreatedBy)
	if task.ClaimedBy != "" {
		fmt.Fprintf(&b, "**Claimed by:** %s", task.ClaimedBy)
		if task.ClaimedAt != nil {
			fmt.Fprintf(&b, " at %s", task.ClaimedAt.Format(time.RFC3339))
		}
		b.WriteString("\n")
	}
	if task.BlockedReason != "" {
		fmt.Fprintf(&b, "**Blocked:** %s\n", task.BlockedReason)
	}
	if len(task.ProgressNotes) > 0 {
		b.WriteString("\n### Progress\n")
		for _, note := range task.ProgressNotes {
			fmt.Fprintf(&b, "- %s: %s\n", note.NotedAt.Format(time.RFC3339), note.Note)
		}
	}
	if task.Status == domain.TaskStatusComplete {
		b.WriteString("\n### Output\n")
		fmt.Fprintf(&b, "**Summary:** %s\n", task.OutputSummary)
		fmt.Fprintf(&b, "**Location:** %s\n", task.OutputLocation)
		if len(task.FilesCreated) > 0 {
			fmt.Fprintf(&b, "**Files created:** %s\n", strings.Join(task.FilesCreated, ", "))
		}
		if task.GitHubRepo != "" {
			fmt.Fprintf(&b, "**GitHub:** %s", task.GitHubRepo)
			if len(task.GitHubPaths) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(task.GitHubPaths, ", "))
			}
			b.WriteString("\n")
		}
		if task.DriveFolderID != "" {
			fmt.Fprintf(&b, "**Drive folder:** %s\n", task.DriveFolderID)
		}
		if task.WorkerNotes != "" {
			fmt.Fprintf(&b, "**Worker notes:** %s\n", task.WorkerNotes)
		}
		if task.CompletedAt != nil {
			fmt.Fprintf(&b, "**Completed:** %s\n", task.CompletedAt.Format(time.RFC3339))
		}
	}
	return b.String()
}

func formatTaskLine(task *domain.Task) string {
	line := fmt.Sprintf("- **%s** [%s/%s] %s", task.ID, task.Priority, task.Status, task.Instruction)
	if task.ProjectName != "" {
		line += fmt.Sprintf(" (project: %s)", task.ProjectName)
	}
	if task.ClaimedBy != "" {
		line += fmt.Sprintf(" (claimed by %s)", task.ClaimedBy)
	}
	return line
}

func formatTaskList(heading string, tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return heading + "\n\nNo tasks."
	}
	lines := make([]string, 0, len(tasks)+2)
	lines = append(lines, heading, "")
	for _, task := range tasks {
		lines = append(lines, formatTaskLine(task))
	}
	return strings.Join(lines, "\n")
}

func formatProjectStatus(status *service.ProjectStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Project %s\n\n", status.ProjectName)
	fmt.Fprintf(&b, "Total tasks: %d\n", status.Total)
	for _, bucket := range status.Buckets {
		fmt.Fprintf(&b, "- %s: %d (%d%%)\n", bucket.Status, bucket.Count, bucket.Percent)
	}
	return b.String()
}

func formatProjects(summaries []store.ProjectSummary) string {
	if len(summaries) == 0 {
		return "No projects with tasks."
	}
	var b strings.Builder
	b.WriteString("## Projects\n\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "- **%s**: %d tasks (%d pending, %d complete)\n",
			s.ProjectName, s.Total, s.Pending, s.Complete)
	}
	return b.String()
}
