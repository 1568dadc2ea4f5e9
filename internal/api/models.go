package api

import (
	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/store"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Instruction         string   `json:"instruction"          validate:"required,min=1"`
	Context             string   `json:"context,omitempty"`
	Priority            string   `json:"priority,omitempty"             validate:"omitempty,oneof=urgent high normal low"`
	ProjectName         string   `json:"project_name,omitempty"`
	ParentTaskID        string   `json:"parent_task_id,omitempty"`
	EstimatedComplexity string   `json:"estimated_complexity,omitempty" validate:"omitempty,oneof=simple moderate complex"`
	FilesNeeded         []string `json:"files_needed,omitempty"`
}

// UpdateTaskRequest carries the whitelisted mutable fields. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Instruction *string `json:"instruction,omitempty" validate:"omitempty,min=1"`
	Context     *string `json:"context,omitempty"`
	Priority    *string `json:"priority,omitempty"    validate:"omitempty,oneof=urgent high normal low"`
	Status      *string `json:"status,omitempty"      validate:"omitempty,oneof=pending claimed in_progress complete blocked"`
}

// Fields converts the request into the store's update field set.
func (r UpdateTaskRequest) Fields() store.UpdateFields {
	fields := store.UpdateFields{
		Instruction: r.Instruction,
		Context:     r.Context,
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		fields.Priority = &p
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		fields.Status = &s
	}
	return fields
}

// ClaimNextRequest is the request body for claiming the next eligible
// task off the queue.
type ClaimNextRequest struct {
	PriorityFilter string `json:"priority_filter,omitempty" validate:"omitempty,oneof=any high_or_above urgent_only"`
	ProjectName    string `json:"project_name,omitempty"`
}

// ProgressRequest is the request body for appending a progress note.
type ProgressRequest struct {
	Note string `json:"note" validate:"required,min=1"`
}

// CompleteTaskRequest is the request body for marking a task complete.
type CompleteTaskRequest struct {
	OutputSummary  string   `json:"output_summary"  validate:"required,min=1"`
	OutputLocation string   `json:"output_location" validate:"required,oneof=github drive both local"`
	FilesCreated   []string `json:"files_created,omitempty"`
	GitHubRepo     string   `json:"github_repo,omitempty"`
	GitHubPaths    []string `json:"github_paths,omitempty"`
	DriveFolderID  string   `json:"drive_folder_id,omitempty"`
	DriveFileIDs   []string `json:"drive_file_ids,omitempty"`
	WorkerNotes    string   `json:"worker_notes,omitempty"`
}

// Record converts the request into the store's completion record.
func (r CompleteTaskRequest) Record() store.CompletionRecord {
	return store.CompletionRecord{
		OutputSummary:  r.OutputSummary,
		OutputLocation: domain.OutputLocation(r.OutputLocation),
		FilesCreated:   r.FilesCreated,
		GitHubRepo:     r.GitHubRepo,
		GitHubPaths:    r.GitHubPaths,
		DriveFolderID:  r.DriveFolderID,
		DriveFileIDs:   r.DriveFileIDs,
		WorkerNotes:    r.WorkerNotes,
	}
}

// BlockTaskRequest is the request body for blocking a task.
type BlockTaskRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

// TaskListResponse wraps a list of tasks with its count.
type TaskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Count int            `json:"count"`
}

// ProjectSummaryResponse is one row of the projects listing.
type ProjectSummaryResponse struct {
	ProjectName string `json:"project_name"`
	Total       int    `json:"total"`
	Pending     int    `json:"pending"`
	Complete    int    `json:"complete"`
}

// ProjectListResponse wraps the projects listing.
type ProjectListResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
}

func projectSummariesToResponse(summaries []store.ProjectSummary) ProjectListResponse {
	resp := ProjectListResponse{Projects: make([]ProjectSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Projects = append(resp.Projects, ProjectSummaryResponse{
			ProjectName: s.ProjectName,
			Total:       s.Total,
			Pending:     s.Pending,
			Complete:    s.Complete,
		})
	}
	return resp
}
