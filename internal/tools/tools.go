// Package tools binds the handoff queue operations to MCP tools so
// agent runtimes can drive the queue over a stdio session. Each tool
// delegates to the service layer; user-level failures come back as
// IsError results rather than protocol errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/service"
	"github.com/atelierhq/handoff-api/internal/store"
)

// Registrar wires handoff tools onto an MCP server on behalf of a
// fixed acting identity. MCP sessions carry no per-request identity
// header, so the actor is pinned when the server starts.
type Registrar struct {
	svc   service.HandoffService
	actor string
}

// NewRegistrar creates a Registrar for the given service and actor.
func NewRegistrar(svc service.HandoffService, actor string) (*Registrar, error) {
	if svc == nil {
		return nil, errors.New("tools: service is required")
	}
	if actor == "" {
		return nil, errors.New("tools: actor identity is required")
	}
	return &Registrar{svc: svc, actor: actor}, nil
}

func textResult(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// errorResult reports a user-level failure inside the tool result, so
// the calling agent sees the message instead of a broken session.
// Informative results (empty queue, no-op update) render as plain text
// rather than errors.
func errorResult(err error) (*mcpsdk.CallToolResultFor[any], error) {
	if store.IsInformative(err) {
		return textResult(err.Error())
	}
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}, nil
}

// Register adds every handoff tool to the server.
func (reg *Registrar) Register(server *mcpsdk.Server) {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_create_task",
		Description: "Create a task for another collaborator to pick up. Returns the new task with its TASK-xxxxxxxx ID.",
	}, reg.createTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_view_queue",
		Description: "View the task queue ordered by priority then age. Supports status, project, and priority filters.",
	}, reg.viewQueue)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_get_task",
		Description: "Fetch one task with its full progress ledger, by ID or unique ID fragment.",
	}, reg.getTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_get_next_task",
		Description: "Atomically claim the highest-priority oldest pending task. No two callers ever receive the same task.",
	}, reg.getNextTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_update_task",
		Description: "Update a task's instruction, context, priority, or status. Only supplied fields change.",
	}, reg.updateTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_update_progress",
		Description: "Append a timestamped progress note. A claimed task advances to in_progress.",
	}, reg.updateProgress)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_complete_task",
		Description: "Mark a task complete and record where its output lives.",
	}, reg.completeTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_block_task",
		Description: "Mark a task blocked with a reason. The existing claim is preserved for follow-up.",
	}, reg.blockTask)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_project_status",
		Description: "Per-status task counts and percentages for one project.",
	}, reg.projectStatus)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_my_tasks",
		Description: "List the tasks currently claimed by or in progress for this identity.",
	}, reg.myTasks)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_get_results",
		Description: "List completed tasks with their outputs, newest first. Filter by task, project, or completion time.",
	}, reg.getResults)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "handoff_list_projects",
		Description: "List every project that has tasks, with pending and complete counts.",
	}, reg.listProjects)
}

func (reg *Registrar) createTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[CreateTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	task, err := reg.svc.CreateTask(ctx, service.CreateTaskParams{
		Instruction:         args.Instruction,
		Context:             args.Context,
		Priority:            domain.Priority(args.Priority),
		ProjectName:         args.ProjectName,
		ParentTaskID:        args.ParentTaskID,
		EstimatedComplexity: domain.Complexity(args.EstimatedComplexity),
		FilesNeeded:         args.FilesNeeded,
		CreatedBy:           reg.actor,
	})
	if err != nil {
		return errorResult(err)
	}
	return textResult("Task created.\n\n" + formatTask(task))
}

func (reg *Registrar) viewQueue(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[ViewQueueParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	tasks, err := reg.svc.ListQueue(ctx, store.ListFilter{
		Status:      domain.TaskStatus(args.Status),
		ProjectName: args.Project,
		Priority:    domain.Priority(args.Priority),
		Limit:       args.Limit,
	})
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatTaskList("## Task queue", tasks))
}

func (reg *Registrar) getTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[GetTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	task, err := reg.svc.GetTask(ctx, params.Arguments.Task)
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatTask(task))
}

func (reg *Registrar) getNextTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[GetNextTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	task, err := reg.svc.ClaimNextTask(ctx, store.ClaimFilter{
		Priority:    store.PriorityFilter(args.PriorityFilter),
		ProjectName: args.Project,
	}, reg.actor)
	if errors.Is(err, store.ErrNoTasksAvailable) {
		return textResult("No tasks available matching the filter.")
	}
	if err != nil {
		return errorResult(err)
	}
	return textResult("Task claimed.\n\n" + formatTask(task))
}

func (reg *Registrar) updateTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[UpdateTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments

	var fields store.UpdateFields
	if args.Instruction != "" {
		fields.Instruction = &args.Instruction
	}
	if args.Context != "" {
		fields.Context = &args.Context
	}
	if args.Priority != "" {
		p := domain.Priority(args.Priority)
		if !p.IsValid() {
			return errorResult(fmt.Errorf("invalid priority %q", args.Priority))
		}
		fields.Priority = &p
	}
	if args.Status != "" {
		s := domain.TaskStatus(args.Status)
		if !s.IsValid() {
			return errorResult(fmt.Errorf("invalid status %q", args.Status))
		}
		fields.Status = &s
	}

	task, err := reg.svc.UpdateTask(ctx, args.Task, fields)
	if errors.Is(err, store.ErrNoChange) {
		return textResult("No fields to update; task unchanged.")
	}
	if err != nil {
		return errorResult(err)
	}
	return textResult("Task updated.\n\n" + formatTask(task))
}

func (reg *Registrar) updateProgress(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[UpdateProgressParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	task, err := reg.svc.UpdateProgress(ctx, args.Task, args.Note)
	if err != nil {
		return errorResult(err)
	}
	return textResult("Progress recorded.\n\n" + formatTask(task))
}

func (reg *Registrar) completeTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[CompleteTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	task, err := reg.svc.CompleteTask(ctx, args.Task, store.CompletionRecord{
		OutputSummary:  args.OutputSummary,
		OutputLocation: domain.OutputLocation(args.OutputLocation),
		FilesCreated:   args.FilesCreated,
		GitHubRepo:     args.GitHubRepo,
		GitHubPaths:    args.GitHubPaths,
		DriveFolderID:  args.DriveFolderID,
		DriveFileIDs:   args.DriveFileIDs,
		WorkerNotes:    args.WorkerNotes,
	})
	if err != nil {
		return errorResult(err)
	}
	return textResult("Task completed.\n\n" + formatTask(task))
}

func (reg *Registrar) blockTask(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[BlockTaskParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	task, err := reg.svc.BlockTask(ctx, args.Task, args.Reason)
	if err != nil {
		return errorResult(err)
	}
	return textResult("Task blocked.\n\n" + formatTask(task))
}

func (reg *Registrar) projectStatus(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[ProjectStatusParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	status, err := reg.svc.ProjectStatus(ctx, params.Arguments.Project)
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatProjectStatus(status))
}

func (reg *Registrar) myTasks(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[MyTasksParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	tasks, err := reg.svc.MyTasks(ctx, reg.actor)
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatTaskList(fmt.Sprintf("## Tasks claimed by %s", reg.actor), tasks))
}

func (reg *Registrar) getResults(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[GetResultsParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	args := params.Arguments
	filter := store.ResultsFilter{
		TaskRef:     args.Task,
		ProjectName: args.Project,
		Limit:       args.Limit,
	}
	if args.Since != "" {
		since, err := time.Parse(time.RFC3339, args.Since)
		if err != nil {
			return errorResult(fmt.Errorf("invalid since timestamp %q, expected RFC 3339", args.Since))
		}
		filter.Since = &since
	}

	tasks, err := reg.svc.Results(ctx, filter)
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatTaskList("## Completed tasks", tasks))
}

func (reg *Registrar) listProjects(
	ctx context.Context,
	session *mcpsdk.ServerSession,
	params *mcpsdk.CallToolParamsFor[ListProjectsParams],
) (*mcpsdk.CallToolResultFor[any], error) {
	summaries, err := reg.svc.ListProjects(ctx)
	if err != nil {
		return errorResult(err)
	}
	return textResult(formatProjects(summaries))
}
