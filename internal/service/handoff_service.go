package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/platform/logger"
	"github.com/atelierhq/handoff-api/internal/store"
)

// HandoffServiceError is a custom error type for handoff service errors.
type HandoffServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for HandoffServiceError.
func (e *HandoffServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handoff service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("handoff service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *HandoffServiceError) Unwrap() error {
	return e.Err
}

// TaskRepository defines the repository interface for the service layer.
type TaskRepository interface {
	store.TaskStore

	// WithTx returns a new repository instance that uses the provided transaction.
	// This is used for transactional operations.
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the underlying database connection, or nil when the
	// repository has no transactional backing (e.g. in-memory fakes).
	DB() *sql.DB
}

// CreateTaskParams carries the fields accepted when creating a task.
type CreateTaskParams struct {
	Instruction         string
	Context             string
	Priority            domain.Priority
	ProjectName         string
	ParentTaskID        string
	EstimatedComplexity domain.Complexity
	FilesNeeded         []string
	CreatedBy           string
}

// StatusBucket is one status slice of a project rollup. Percent is the
// bucket's share of the project total, rounded half up; the rounded
// percentages may not re-sum to exactly 100.
type StatusBucket struct {
	Status  domain.TaskStatus `json:"status"`
	Count   int               `json:"count"`
	Percent int               `json:"percent"`
}

// ProjectStatus is the per-project rollup returned by ProjectStatus.
type ProjectStatus struct {
	ProjectName string         `json:"project_name"`
	Total       int            `json:"total"`
	Buckets     []StatusBucket `json:"buckets"`
}

// HandoffService provides the operations of the handoff task queue.
// Every method takes the acting identity explicitly; the service reads
// nothing from ambient state.
type HandoffService interface {
	// CreateTask creates a new pending task.
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a task by ID or unique ID fragment.
	GetTask(ctx context.Context, ref string) (*domain.Task, error)

	// UpdateTask applies the whitelisted field set to the referenced task
	// and returns the updated task. A no-op update returns
	// store.ErrNoChange.
	UpdateTask(ctx context.Context, ref string, fields store.UpdateFields) (*domain.Task, error)

	// ListQueue returns tasks in queue order: priority rank ascending,
	// then created_at ascending.
	ListQueue(ctx context.Context, filter store.ListFilter) ([]*domain.Task, error)

	// ClaimNextTask atomically claims the next eligible pending task for
	// the claimant, or returns store.ErrNoTasksAvailable.
	ClaimNextTask(ctx context.Context, filter store.ClaimFilter, claimant string) (*domain.Task, error)

	// ClaimTask claims the referenced task for the claimant regardless of
	// its current claimant (manual takeover).
	ClaimTask(ctx context.Context, ref, claimant string) (*domain.Task, error)

	// UpdateProgress appends a note to the task's progress ledger and
	// advances a claimed task to in_progress.
	UpdateProgress(ctx context.Context, ref, note string) (*domain.Task, error)

	// CompleteTask marks the referenced task complete with its outputs.
	CompleteTask(ctx context.Context, ref string, record store.CompletionRecord) (*domain.Task, error)

	// BlockTask marks the referenced task blocked with a reason,
	// preserving any existing claim.
	BlockTask(ctx context.Context, ref, reason string) (*domain.Task, error)

	// MyTasks returns the claimant's claimed and in-progress tasks.
	MyTasks(ctx context.Context, claimant string) ([]*domain.Task, error)

	// Results returns completed tasks, newest completion first.
	Results(ctx context.Context, filter store.ResultsFilter) ([]*domain.Task, error)

	// ProjectStatus returns per-status counts and percentages for the
	// project. Counts sum exactly to the total.
	ProjectStatus(ctx context.Context, projectName string) (*ProjectStatus, error)

	// ListProjects returns a rollup row for every project with at least
	// one task carrying a project name.
	ListProjects(ctx context.Context) ([]store.ProjectSummary, error)
}

// handoffServiceImpl implements the HandoffService interface.
type handoffServiceImpl struct {
	taskRepo TaskRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandoffService creates a new HandoffService.
// It returns an error if the repository is nil.
func NewHandoffService(taskRepo TaskRepository, logger *slog.Logger) (HandoffService, error) {
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &handoffServiceImpl{
		taskRepo: taskRepo,
		logger:   logger.With(slog.String("component", "handoff_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateTask implements HandoffService.CreateTask
func (s *handoffServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(params.Instruction) == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	if strings.TrimSpace(params.CreatedBy) == "" {
		return nil, fmt.Errorf("%w: created_by is required", ErrInvalidInput)
	}

	task, err := domain.NewTask(params.Instruction, params.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	task.Context = params.Context
	task.ProjectName = params.ProjectName
	task.ParentTaskID = params.ParentTaskID
	task.EstimatedComplexity = params.EstimatedComplexity
	task.FilesNeeded = params.FilesNeeded
	if params.Priority != "" {
		task.Priority = params.Priority
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, &HandoffServiceError{Operation: "create", Message: "failed to create task", Err: err}
	}

	log.Info("handoff task created",
		slog.String("task_id", task.ID),
		slog.String("priority", string(task.Priority)),
		slog.String("project", task.ProjectName))
	return task, nil
}

// GetTask implements HandoffService.GetTask
func (s *handoffServiceImpl) GetTask(ctx context.Context, ref string) (*domain.Task, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: task reference is required", ErrInvalidInput)
	}
	return s.taskRepo.GetByRef(ctx, ref)
}

// UpdateTask implements HandoffService.UpdateTask
func (s *handoffServiceImpl) UpdateTask(ctx context.Context, ref string, fields store.UpdateFields) (*domain.Task, error) {
	if fields.IsEmpty() {
		return nil, store.ErrNoChange
	}

	task, err := s.GetTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task.ID, fields); err != nil {
		return nil, err
	}

	return s.taskRepo.GetByID(ctx, task.ID)
}

// ListQueue implements HandoffService.ListQueue
func (s *handoffServiceImpl) ListQueue(ctx context.Context, filter store.ListFilter) ([]*domain.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrInvalidStatus)
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrInvalidPriority)
	}
	return s.taskRepo.List(ctx, filter)
}

// ClaimNextTask implements HandoffService.ClaimNextTask
func (s *handoffServiceImpl) ClaimNextTask(ctx context.Context, filter store.ClaimFilter, claimant string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(claimant) == "" {
		return nil, fmt.Errorf("%w: claimant is required", ErrInvalidInput)
	}
	if !filter.Priority.IsValid() {
		return nil, fmt.Errorf("%w: invalid priority filter %q", ErrInvalidInput, filter.Priority)
	}

	task, err := s.taskRepo.ClaimNext(ctx, filter, claimant, s.now())
	if err != nil {
		return nil, err
	}

	log.Info("task claimed from queue",
		slog.String("task_id", task.ID),
		slog.String("claimant", claimant))
	return task, nil
}

// ClaimTask implements HandoffService.ClaimTask
func (s *handoffServiceImpl) ClaimTask(ctx context.Context, ref, claimant string) (*domain.Task, error) {
	if strings.TrimSpace(claimant) == "" {
		return nil, fmt.Errorf("%w: claimant is required", ErrInvalidInput)
	}

	task, err := s.GetTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Claim(ctx, task.ID, claimant, s.now()); err != nil {
		return nil, err
	}

	return s.taskRepo.GetByID(ctx, task.ID)
}

// UpdateProgress implements HandoffService.UpdateProgress
// The ledger append and the claimed→in_progress advance land in one
// transaction when the repository has database backing.
func (s *handoffServiceImpl) UpdateProgress(ctx context.Context, ref, note string) (*domain.Task, error) {
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("%w: progress note is required", ErrInvalidInput)
	}

	task, err := s.GetTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	entry := domain.ProgressNote{NotedAt: s.now(), Note: note}

	err = s.inTransaction(ctx, func(repo TaskRepository) error {
		return repo.AppendProgress(ctx, task.ID, entry)
	})
	if err != nil {
		return nil, err
	}

	return s.taskRepo.GetByID(ctx, task.ID)
}

// CompleteTask implements HandoffService.CompleteTask
func (s *handoffServiceImpl) CompleteTask(ctx context.Context, ref string, record store.CompletionRecord) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(record.OutputSummary) == "" {
		return nil, fmt.Errorf("%w: output_summary is required", ErrInvalidInput)
	}
	if record.OutputLocation == "" || !record.OutputLocation.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrInvalidOutputLocation)
	}

	task, err := s.GetTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !task.CanComplete() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTaskTerminal, task.ID, task.Status)
	}

	if err := s.taskRepo.Complete(ctx, task.ID, record, s.now()); err != nil {
		return nil, err
	}

	log.Info("task completed",
		slog.String("task_id", task.ID),
		slog.String("output_location", string(record.OutputLocation)))
	return s.taskRepo.GetByID(ctx, task.ID)
}

// BlockTask implements HandoffService.BlockTask
func (s *handoffServiceImpl) BlockTask(ctx context.Context, ref, reason string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: blocked_reason is required", ErrInvalidInput)
	}

	task, err := s.GetTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !task.CanBlock() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTaskTerminal, task.ID, task.Status)
	}

	if err := s.taskRepo.Block(ctx, task.ID, reason); err != nil {
		return nil, err
	}

	log.Info("task blocked",
		slog.String("task_id", task.ID),
		slog.String("reason", reason))
	return s.taskRepo.GetByID(ctx, task.ID)
}

// MyTasks implements HandoffService.MyTasks
func (s *handoffServiceImpl) MyTasks(ctx context.Context, claimant string) ([]*domain.Task, error) {
	if strings.TrimSpace(claimant) == "" {
		return nil, fmt.Errorf("%w: claimant is required", ErrInvalidInput)
	}
	return s.taskRepo.ListClaimedBy(ctx, claimant)
}

// Results implements HandoffService.Results
func (s *handoffServiceImpl) Results(ctx context.Context, filter store.ResultsFilter) ([]*domain.Task, error) {
	return s.taskRepo.ListResults(ctx, filter)
}

// ProjectStatus implements HandoffService.ProjectStatus
func (s *handoffServiceImpl) ProjectStatus(ctx context.Context, projectName string) (*ProjectStatus, error) {
	if strings.TrimSpace(projectName) == "" {
		return nil, fmt.Errorf("%w: project_name is required", ErrInvalidInput)
	}

	counts, err := s.taskRepo.CountByStatus(ctx, projectName)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{ProjectName: projectName}
	for _, c := range counts {
		status.Total += c.Count
	}
	for _, c := range counts {
		status.Buckets = append(status.Buckets, StatusBucket{
			Status:  c.Status,
			Count:   c.Count,
			Percent: roundPercent(c.Count, status.Total),
		})
	}

	return status, nil
}

// ListProjects implements HandoffService.ListProjects
func (s *handoffServiceImpl) ListProjects(ctx context.Context) ([]store.ProjectSummary, error) {
	return s.taskRepo.ListProjects(ctx)
}

// inTransaction runs fn against a transactional repository when the
// repository has database backing, and directly otherwise.
func (s *handoffServiceImpl) inTransaction(ctx context.Context, fn func(repo TaskRepository) error) error {
	db := s.taskRepo.DB()
	if db == nil {
		return fn(s.taskRepo)
	}
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(s.taskRepo.WithTx(tx))
	})
}

// roundPercent computes count/total as a percentage, rounding half up.
func roundPercent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int((float64(count)*100/float64(total)) + 0.5)
}
