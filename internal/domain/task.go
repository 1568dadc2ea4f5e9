package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrEmptyInstruction is returned when a task's instruction is empty.
	ErrEmptyInstruction = errors.New("task instruction cannot be empty")

	// ErrEmptyCreatedBy is returned when a task has no creator identity.
	ErrEmptyCreatedBy = errors.New("task creator cannot be empty")

	// ErrInvalidPriority is returned when a priority is not one of the
	// defined values.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidStatus is returned when a status is not one of the
	// defined values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidComplexity is returned when an estimated complexity is not
	// one of the defined values.
	ErrInvalidComplexity = errors.New("invalid task complexity")

	// ErrInvalidOutputLocation is returned when a completion output
	// location is not one of the defined values.
	ErrInvalidOutputLocation = errors.New("invalid output location")

	// ErrTerminalStatus is returned when a lifecycle operation is applied
	// to a task that is already complete or blocked.
	ErrTerminalStatus = errors.New("task is in a terminal status")
)

// Priority represents the urgency of a handoff task. Lower rank is
// served first.
type Priority string

// Possible task priority values
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank returns the queue ordering rank for the priority: urgent=0,
// high=1, normal=2, low=3.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// IsValid reports whether p is one of the defined priority values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	default:
		return false
	}
}

// TaskStatus represents the lifecycle state of a handoff task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusClaimed    TaskStatus = "claimed"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// IsValid reports whether s is one of the defined status values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusClaimed, TaskStatusInProgress,
		TaskStatusComplete, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status has no defined outgoing
// lifecycle transition. Completed and blocked tasks stay where they are;
// reopening either is an administrative edit, not a lifecycle move.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusBlocked
}

// Complexity is an informational estimate of how involved a task is.
type Complexity string

// Possible complexity values
const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// IsValid reports whether c is one of the defined complexity values.
// The empty string is valid because the field is optional.
func (c Complexity) IsValid() bool {
	switch c {
	case "", ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// OutputLocation indicates where a completed task's outputs live.
type OutputLocation string

// Possible output location values
const (
	OutputLocationGitHub OutputLocation = "github"
	OutputLocationDrive  OutputLocation = "drive"
	OutputLocationBoth   OutputLocation = "both"
	OutputLocationLocal  OutputLocation = "local"
)

// IsValid reports whether l is one of the defined output locations.
// The empty string is valid because the field is only set on completion.
func (l OutputLocation) IsValid() bool {
	switch l {
	case "", OutputLocationGitHub, OutputLocationDrive,
		OutputLocationBoth, OutputLocationLocal:
		return true
	default:
		return false
	}
}

// ProgressNote is a single timestamped entry in a task's append-only
// progress ledger.
type ProgressNote struct {
	NotedAt time.Time `json:"noted_at"`
	Note    string    `json:"note"`
}

// Task represents a unit of work handed off between collaborators.
// It is created by one party, claimed exclusively by another, and carries
// its full lifecycle record: progress notes, completion outputs, and
// blocking reasons.
type Task struct {
	ID                  string         `json:"id"`
	Instruction         string         `json:"instruction"`
	Context             string         `json:"context,omitempty"`
	Priority            Priority       `json:"priority"`
	Status              TaskStatus     `json:"status"`
	ProjectName         string         `json:"project_name,omitempty"`
	ParentTaskID        string         `json:"parent_task_id,omitempty"`
	EstimatedComplexity Complexity     `json:"estimated_complexity,omitempty"`
	FilesNeeded         []string       `json:"files_needed,omitempty"`
	CreatedBy           string         `json:"created_by"`
	ClaimedBy           string         `json:"claimed_by,omitempty"`
	OutputSummary       string         `json:"output_summary,omitempty"`
	OutputLocation      OutputLocation `json:"output_location,omitempty"`
	FilesCreated        []string       `json:"files_created,omitempty"`
	GitHubRepo          string         `json:"github_repo,omitempty"`
	GitHubPaths         []string       `json:"github_paths,omitempty"`
	DriveFolderID       string         `json:"drive_folder_id,omitempty"`
	DriveFileIDs        []string       `json:"drive_file_ids,omitempty"`
	WorkerNotes         string         `json:"worker_notes,omitempty"`
	BlockedReason       string         `json:"blocked_reason,omitempty"`
	ProgressNotes       []ProgressNote `json:"progress_notes,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	ClaimedAt           *time.Time     `json:"claimed_at,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
}

// NewTaskID generates a new task identifier of the form TASK-xxxxxxxx,
// where the suffix is the first eight hex characters of a random UUID.
// The short form keeps IDs easy to copy between chat and dashboards while
// staying unique enough for a single team's queue.
func NewTaskID() string {
	return "TASK-" + uuid.New().String()[:8]
}

// NewTask creates a new pending Task with the given instruction and
// creator identity. It generates a short task ID, defaults the priority to
// normal, and sets the creation timestamp. Optional fields are set by the
// caller before the task is persisted.
// Returns an error if validation fails.
func NewTask(instruction, createdBy string) (*Task, error) {
	task := &Task{
		ID:          NewTaskID(),
		Instruction: strings.TrimSpace(instruction),
		Priority:    PriorityNormal,
		Status:      TaskStatusPending,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrTaskIDEmpty
	}

	if strings.TrimSpace(t.Instruction) == "" {
		return ErrEmptyInstruction
	}

	if t.CreatedBy == "" {
		return ErrEmptyCreatedBy
	}

	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	if !t.EstimatedComplexity.IsValid() {
		return ErrInvalidComplexity
	}

	if !t.OutputLocation.IsValid() {
		return ErrInvalidOutputLocation
	}

	return nil
}

// CanComplete reports whether the task may transition to complete.
// The reference behavior never gated completion on a prior claim, so any
// non-terminal task qualifies, including one still pending.
func (t *Task) CanComplete() bool {
	return !t.Status.IsTerminal()
}

// CanBlock reports whether the task may transition to blocked. Blocking
// is reachable from every non-terminal state, modeling pre-emptive
// blocking by a manager before anyone claims the work.
func (t *Task) CanBlock() bool {
	return !t.Status.IsTerminal()
}
