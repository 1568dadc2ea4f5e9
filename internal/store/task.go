package store

import (
	"context"
	"time"

	"github.com/atelierhq/handoff-api/internal/domain"
)

// PriorityFilter narrows which pending tasks ClaimNext may select.
type PriorityFilter string

// Possible priority filter values
const (
	// PriorityFilterAny considers every pending task.
	PriorityFilterAny PriorityFilter = "any"

	// PriorityFilterHighOrAbove considers high and urgent tasks only.
	PriorityFilterHighOrAbove PriorityFilter = "high_or_above"

	// PriorityFilterUrgentOnly considers urgent tasks only.
	PriorityFilterUrgentOnly PriorityFilter = "urgent_only"
)

// IsValid reports whether f is a defined filter. The empty string is
// valid and treated as PriorityFilterAny.
func (f PriorityFilter) IsValid() bool {
	switch f {
	case "", PriorityFilterAny, PriorityFilterHighOrAbove, PriorityFilterUrgentOnly:
		return true
	default:
		return false
	}
}

// ListFilter selects which tasks List returns. Zero-value fields are
// ignored. Limit caps the result size; implementations apply a default
// when it is zero.
type ListFilter struct {
	Status      domain.TaskStatus
	ProjectName string
	Priority    domain.Priority
	Limit       int
}

// ClaimFilter narrows the pool of pending tasks eligible for ClaimNext.
type ClaimFilter struct {
	Priority    PriorityFilter
	ProjectName string
}

// UpdateFields carries the whitelisted mutable task fields for Update.
// Nil pointers mean "leave unchanged".
type UpdateFields struct {
	Instruction *string
	Context     *string
	Priority    *domain.Priority
	Status      *domain.TaskStatus
}

// IsEmpty reports whether no field is set.
func (u UpdateFields) IsEmpty() bool {
	return u.Instruction == nil && u.Context == nil && u.Priority == nil && u.Status == nil
}

// CompletionRecord carries the output fields recorded when a task is
// marked complete.
type CompletionRecord struct {
	OutputSummary  string
	OutputLocation domain.OutputLocation
	FilesCreated   []string
	GitHubRepo     string
	GitHubPaths    []string
	DriveFolderID  string
	DriveFileIDs   []string
	WorkerNotes    string
}

// ResultsFilter selects completed tasks for ListResults. Zero-value
// fields are ignored.
type ResultsFilter struct {
	TaskRef     string
	ProjectName string
	Since       *time.Time
	Limit       int
}

// StatusCount is the number of tasks in one status within a project.
type StatusCount struct {
	Status domain.TaskStatus
	Count  int
}

// ProjectSummary is a per-project rollup row for ListProjects.
type ProjectSummary struct {
	ProjectName string
	Total       int
	Pending     int
	Complete    int
}

// TaskStore defines persistence for handoff tasks.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid,
	// or ErrDuplicate if the task ID is already in use.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its exact ID, including its progress
	// ledger. Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// GetByRef retrieves a task by exact ID or, failing that, by a unique
	// substring of the ID. Returns ErrTaskNotFound if nothing matches and
	// ErrAmbiguousReference if the fragment matches more than one task.
	GetByRef(ctx context.Context, ref string) (*domain.Task, error)

	// Update applies the whitelisted field set to a task.
	// Returns ErrNoChange if no field is set and ErrTaskNotFound if the
	// task does not exist.
	Update(ctx context.Context, id string, fields UpdateFields) error

	// List returns tasks matching the filter, ordered by priority rank
	// ascending then created_at ascending.
	List(ctx context.Context, filter ListFilter) ([]*domain.Task, error)

	// ClaimNext atomically claims the single eligible pending task with
	// the lowest priority rank and oldest creation time: the selection and
	// the transition to claimed happen as one conditional operation, so no
	// two concurrent callers can receive the same task.
	// Returns ErrNoTasksAvailable if no pending task matches the filter.
	ClaimNext(ctx context.Context, filter ClaimFilter, claimant string, at time.Time) (*domain.Task, error)

	// Claim assigns the task to the claimant regardless of its current
	// claimant, modeling manual takeover. claimed_by and claimed_at are
	// overwritten together. Returns ErrTaskNotFound if the task does not
	// exist.
	Claim(ctx context.Context, id, claimant string, at time.Time) error

	// AppendProgress appends a note to the task's progress ledger and, if
	// the task is currently claimed, advances it to in_progress. The
	// ledger only grows; entries are never removed or reordered.
	// Returns ErrTaskNotFound if the task does not exist.
	AppendProgress(ctx context.Context, id string, note domain.ProgressNote) error

	// Complete marks the task complete and records the supplied outputs.
	// Returns ErrTaskNotFound if the task does not exist.
	Complete(ctx context.Context, id string, record CompletionRecord, at time.Time) error

	// Block marks the task blocked with the given reason. claimed_by and
	// claimed_at, if present, are preserved.
	// Returns ErrTaskNotFound if the task does not exist.
	Block(ctx context.Context, id, reason string) error

	// ListClaimedBy returns the claimant's tasks in claimed or in_progress
	// status, ordered by priority rank.
	ListClaimedBy(ctx context.Context, claimant string) ([]*domain.Task, error)

	// ListResults returns completed tasks matching the filter, newest
	// completion first.
	ListResults(ctx context.Context, filter ResultsFilter) ([]*domain.Task, error)

	// CountByStatus returns per-status task counts for the project.
	CountByStatus(ctx context.Context, projectName string) ([]StatusCount, error)

	// ListProjects returns a rollup row for every distinct non-empty
	// project name.
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
}
