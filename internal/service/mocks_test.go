package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/store"
)

// memTaskRepo is a mutex-guarded in-memory TaskRepository for service
// tests. Its ClaimNext holds the lock across selection and transition,
// matching the atomicity the Postgres implementation gets from its
// conditional UPDATE.
type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task

	// failWith, when set, is returned by every method to simulate a
	// storage outage.
	failWith error
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]*domain.Task)}
}

var _ TaskRepository = (*memTaskRepo)(nil)

func (m *memTaskRepo) WithTx(tx *sql.Tx) TaskRepository { return m }
func (m *memTaskRepo) DB() *sql.DB                      { return nil }

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.FilesNeeded = append([]string(nil), t.FilesNeeded...)
	c.FilesCreated = append([]string(nil), t.FilesCreated...)
	c.GitHubPaths = append([]string(nil), t.GitHubPaths...)
	c.DriveFileIDs = append([]string(nil), t.DriveFileIDs...)
	c.ProgressNotes = append([]domain.ProgressNote(nil), t.ProgressNotes...)
	if t.ClaimedAt != nil {
		at := *t.ClaimedAt
		c.ClaimedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func (m *memTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *memTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	return cloneTask(task), nil
}

func (m *memTaskRepo) GetByRef(ctx context.Context, ref string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if task, ok := m.tasks[ref]; ok {
		return cloneTask(task), nil
	}
	var matches []*domain.Task
	for _, task := range m.tasks {
		if strings.Contains(task.ID, ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, ref)
	case 1:
		return cloneTask(matches[0]), nil
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrAmbiguousReference, ref)
	}
}

func (m *memTaskRepo) Update(ctx context.Context, id string, fields store.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if fields.IsEmpty() {
		return store.ErrNoChange
	}
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	if fields.Instruction != nil {
		task.Instruction = *fields.Instruction
	}
	if fields.Context != nil {
		task.Context = *fields.Context
	}
	if fields.Priority != nil {
		task.Priority = *fields.Priority
	}
	if fields.Status != nil {
		task.Status = *fields.Status
	}
	return nil
}

// queueOrder sorts by priority rank ascending then created_at ascending.
func queueOrder(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

func (m *memTaskRepo) List(ctx context.Context, filter store.ListFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*domain.Task
	for _, task := range m.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.ProjectName != "" && task.ProjectName != filter.ProjectName {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		out = append(out, cloneTask(task))
	}
	queueOrder(out)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTaskRepo) ClaimNext(
	ctx context.Context,
	filter store.ClaimFilter,
	claimant string,
	at time.Time,
) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	var eligible []*domain.Task
	for _, task := range m.tasks {
		if task.Status != domain.TaskStatusPending {
			continue
		}
		switch filter.Priority {
		case store.PriorityFilterUrgentOnly:
			if task.Priority != domain.PriorityUrgent {
				continue
			}
		case store.PriorityFilterHighOrAbove:
			if task.Priority != domain.PriorityUrgent && task.Priority != domain.PriorityHigh {
				continue
			}
		}
		if filter.ProjectName != "" && task.ProjectName != filter.ProjectName {
			continue
		}
		eligible = append(eligible, task)
	}
	if len(eligible) == 0 {
		return nil, store.ErrNoTasksAvailable
	}
	queueOrder(eligible)

	winner := eligible[0]
	winner.Status = domain.TaskStatusClaimed
	winner.ClaimedBy = claimant
	claimedAt := at
	winner.ClaimedAt = &claimedAt
	return cloneTask(winner), nil
}

func (m *memTaskRepo) Claim(ctx context.Context, id, claimant string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	task.Status = domain.TaskStatusClaimed
	task.ClaimedBy = claimant
	claimedAt := at
	task.ClaimedAt = &claimedAt
	return nil
}

func (m *memTaskRepo) AppendProgress(ctx context.Context, id string, note domain.ProgressNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	if task.Status == domain.TaskStatusClaimed {
		task.Status = domain.TaskStatusInProgress
	}
	task.ProgressNotes = append(task.ProgressNotes, note)
	return nil
}

func (m *memTaskRepo) Complete(ctx context.Context, id string, record store.CompletionRecord, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	task.Status = domain.TaskStatusComplete
	task.OutputSummary = record.OutputSummary
	task.OutputLocation = record.OutputLocation
	task.FilesCreated = append([]string(nil), record.FilesCreated...)
	task.GitHubRepo = record.GitHubRepo
	task.GitHubPaths = append([]string(nil), record.GitHubPaths...)
	task.DriveFolderID = record.DriveFolderID
	task.DriveFileIDs = append([]string(nil), record.DriveFileIDs...)
	task.WorkerNotes = record.WorkerNotes
	completedAt := at
	task.CompletedAt = &completedAt
	return nil
}

func (m *memTaskRepo) Block(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	task.Status = domain.TaskStatusBlocked
	task.BlockedReason = reason
	return nil
}

func (m *memTaskRepo) ListClaimedBy(ctx context.Context, claimant string) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*domain.Task
	for _, task := range m.tasks {
		if task.ClaimedBy != claimant {
			continue
		}
		if task.Status != domain.TaskStatusClaimed && task.Status != domain.TaskStatusInProgress {
			continue
		}
		out = append(out, cloneTask(task))
	}
	queueOrder(out)
	return out, nil
}

func (m *memTaskRepo) ListResults(ctx context.Context, filter store.ResultsFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*domain.Task
	for _, task := range m.tasks {
		if task.Status != domain.TaskStatusComplete {
			continue
		}
		if filter.TaskRef != "" && !strings.Contains(task.ID, filter.TaskRef) {
			continue
		}
		if filter.ProjectName != "" && task.ProjectName != filter.ProjectName {
			continue
		}
		if filter.Since != nil && (task.CompletedAt == nil || task.CompletedAt.Before(*filter.Since)) {
			continue
		}
		out = append(out, cloneTask(task))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTaskRepo) CountByStatus(ctx context.Context, projectName string) ([]store.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	counts := make(map[domain.TaskStatus]int)
	for _, task := range m.tasks {
		if task.ProjectName == projectName {
			counts[task.Status]++
		}
	}
	var out []store.StatusCount
	for status, count := range counts {
		out = append(out, store.StatusCount{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (m *memTaskRepo) ListProjects(ctx context.Context) ([]store.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	byName := make(map[string]*store.ProjectSummary)
	for _, task := range m.tasks {
		if task.ProjectName == "" {
			continue
		}
		summary, ok := byName[task.ProjectName]
		if !ok {
			summary = &store.ProjectSummary{ProjectName: task.ProjectName}
			byName[task.ProjectName] = summary
		}
		summary.Total++
		switch task.Status {
		case domain.TaskStatusPending:
			summary.Pending++
		case domain.TaskStatusComplete:
			summary.Complete++
		}
	}
	var out []store.ProjectSummary
	for _, summary := range byName {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectName < out[j].ProjectName })
	return out, nil
}
