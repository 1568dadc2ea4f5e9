package tools

// Parameter structs for the handoff_* MCP tools. The mcp tags become
// the property descriptions in the generated tool schemas.

// CreateTaskParams are the arguments for handoff_create_task.
type CreateTaskParams struct {
	Instruction         string   `json:"instruction" mcp:"What needs to be done (required)"`
	Context             string   `json:"context,omitempty" mcp:"Background and constraints for the worker"`
	Priority            string   `json:"priority,omitempty" mcp:"Task priority: urgent, high, normal, low"`
	ProjectName         string   `json:"project_name,omitempty" mcp:"Project this task belongs to"`
	ParentTaskID        string   `json:"parent_task_id,omitempty" mcp:"ID of the parent task, if this is a follow-up"`
	EstimatedComplexity string   `json:"estimated_complexity,omitempty" mcp:"Estimated complexity: simple, moderate, complex"`
	FilesNeeded         []string `json:"files_needed,omitempty" mcp:"Files or documents the worker will need"`
}

// ViewQueueParams are the arguments for handoff_view_queue.
type ViewQueueParams struct {
	Status   string `json:"status,omitempty" mcp:"Filter by status: pending, claimed, in_progress, complete, blocked"`
	Project  string `json:"project,omitempty" mcp:"Filter by project name"`
	Priority string `json:"priority,omitempty" mcp:"Filter by priority: urgent, high, normal, low"`
	Limit    int    `json:"limit,omitempty" mcp:"Maximum number of tasks to return"`
}

// GetTaskParams are the arguments for handoff_get_task.
type GetTaskParams struct {
	Task string `json:"task" mcp:"Task ID or unique ID fragment (required)"`
}

// GetNextTaskParams are the arguments for handoff_get_next_task.
type GetNextTaskParams struct {
	PriorityFilter string `json:"priority_filter,omitempty" mcp:"Restrict eligible tasks: any, high_or_above, urgent_only"`
	Project        string `json:"project,omitempty" mcp:"Only claim tasks from this project"`
}

// UpdateTaskParams are the arguments for handoff_update_task.
type UpdateTaskParams struct {
	Task        string `json:"task" mcp:"Task ID or unique ID fragment (required)"`
	Instruction string `json:"instruction,omitempty" mcp:"New instruction text"`
	Context     string `json:"context,omitempty" mcp:"New context text"`
	Priority    string `json:"priority,omitempty" mcp:"New priority: urgent, high, normal, low"`
	Status      string `json:"status,omitempty" mcp:"New status: pending, claimed, in_progress, complete, blocked"`
}

// UpdateProgressParams are the arguments for handoff_update_progress.
type UpdateProgressParams struct {
	Task string `json:"task" mcp:"Task ID or unique ID fragment (required)"`
	Note string `json:"note" mcp:"Progress note to append (required)"`
}

// CompleteTaskParams are the arguments for handoff_complete_task.
type CompleteTaskParams struct {
	Task           string   `json:"task" mcp:"Task ID or unique ID fragment (required)"`
	OutputSummary  string   `json:"output_summary" mcp:"What was produced (required)"`
	OutputLocation string   `json:"output_location" mcp:"Where the output lives: github, drive, both, local (required)"`
	FilesCreated   []string `json:"files_created,omitempty" mcp:"Files produced by the work"`
	GitHubRepo     string   `json:"github_repo,omitempty" mcp:"GitHub repository holding the output"`
	GitHubPaths    []string `json:"github_paths,omitempty" mcp:"Paths within the GitHub repository"`
	DriveFolderID  string   `json:"drive_folder_id,omitempty" mcp:"Drive folder holding the output"`
	DriveFileIDs   []string `json:"drive_file_ids,omitempty" mcp:"Drive file IDs of the output"`
	WorkerNotes    string   `json:"worker_notes,omitempty" mcp:"Notes for whoever picks the output up"`
}

// BlockTaskParams are the arguments for handoff_block_task.
type BlockTaskParams struct {
	Task   string `json:"task" mcp:"Task ID or unique ID fragment (required)"`
	Reason string `json:"reason" mcp:"Why the task cannot proceed (required)"`
}

// ProjectStatusParams are the arguments for handoff_project_status.
type ProjectStatusParams struct {
	Project string `json:"project" mcp:"Project name (required)"`
}

// MyTasksParams are the arguments for handoff_my_tasks.
type MyTasksParams struct{}

// GetResultsParams are the arguments for handoff_get_results.
type GetResultsParams struct {
	Task    string `json:"task,omitempty" mcp:"Only results for this task ID or fragment"`
	Project string `json:"project,omitempty" mcp:"Only results from this project"`
	Since   string `json:"since,omitempty" mcp:"Only results completed after this RFC 3339 timestamp"`
	Limit   int    `json:"limit,omitempty" mcp:"Maximum number of results to return"`
}

// ListProjectsParams are the arguments for handoff_list_projects.
type ListProjectsParams struct{}
