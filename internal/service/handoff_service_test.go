package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/store"
)

func newTestService(t *testing.T) (HandoffService, *memTaskRepo) {
	t.Helper()
	repo := newMemTaskRepo()
	svc, err := NewHandoffService(repo, nil)
	require.NoError(t, err)
	return svc, repo
}

// seedTask creates a pending task directly in the repository with a
// controlled creation time, so ordering tests are deterministic.
func seedTask(t *testing.T, repo *memTaskRepo, priority domain.Priority, createdAt time.Time, project string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("seeded instruction", "coordinator")
	require.NoError(t, err)
	task.Priority = priority
	task.CreatedAt = createdAt
	task.ProjectName = project
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func TestNewHandoffServiceRequiresRepo(t *testing.T) {
	_, err := NewHandoffService(nil, nil)
	assert.Error(t, err)
}

func TestCreateTaskDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.CreateTask(context.Background(), CreateTaskParams{
		Instruction: "Write the launch announcement",
		CreatedBy:   "coordinator",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TASK-[0-9a-f]{8}$`, task.ID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.PriorityNormal, task.Priority)
	assert.Equal(t, "coordinator", task.CreatedBy)
	assert.Nil(t, task.ClaimedAt)
	assert.Empty(t, task.ProgressNotes)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, CreateTaskParams{CreatedBy: "coordinator"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(ctx, CreateTaskParams{Instruction: "do a thing"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(ctx, CreateTaskParams{
		Instruction: "do a thing",
		CreatedBy:   "coordinator",
		Priority:    domain.Priority("whenever"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetTaskByFragment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	fragment := created.ID[len("TASK-"):][:4]

	task, err := svc.GetTask(ctx, fragment)
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.ID)

	_, err = svc.GetTask(ctx, "TASK-ffffffff")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = svc.GetTask(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetTaskAmbiguousFragment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")

	// Every generated ID shares this prefix.
	_, err := svc.GetTask(ctx, "TASK-")
	assert.ErrorIs(t, err, store.ErrAmbiguousReference)
}

func TestUpdateTask(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")

	newPriority := domain.PriorityUrgent
	newContext := "deadline moved up"
	task, err := svc.UpdateTask(ctx, created.ID, store.UpdateFields{
		Priority: &newPriority,
		Context:  &newContext,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, task.Priority)
	assert.Equal(t, "deadline moved up", task.Context)
	assert.Equal(t, "seeded instruction", task.Instruction)
}

func TestUpdateTaskNoChange(t *testing.T) {
	svc, repo := newTestService(t)

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")

	_, err := svc.UpdateTask(context.Background(), created.ID, store.UpdateFields{})
	assert.ErrorIs(t, err, store.ErrNoChange)
}

func TestClaimNextPriorityOrdering(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := seedTask(t, repo, domain.PriorityNormal, base, "")
	urgent := seedTask(t, repo, domain.PriorityUrgent, base.Add(time.Minute), "")
	second := seedTask(t, repo, domain.PriorityNormal, base.Add(2*time.Minute), "")

	got1, err := svc.ClaimNextTask(ctx, store.ClaimFilter{}, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, urgent.ID, got1.ID)
	assert.Equal(t, domain.TaskStatusClaimed, got1.Status)
	assert.Equal(t, "worker-a", got1.ClaimedBy)
	require.NotNil(t, got1.ClaimedAt)

	got2, err := svc.ClaimNextTask(ctx, store.ClaimFilter{}, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got2.ID)

	got3, err := svc.ClaimNextTask(ctx, store.ClaimFilter{}, "worker-b")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got3.ID)

	_, err = svc.ClaimNextTask(ctx, store.ClaimFilter{}, "worker-b")
	assert.ErrorIs(t, err, store.ErrNoTasksAvailable)
}

func TestClaimNextPriorityFilter(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	seedTask(t, repo, domain.PriorityNormal, base, "")
	high := seedTask(t, repo, domain.PriorityHigh, base.Add(time.Second), "")

	_, err := svc.ClaimNextTask(ctx, store.ClaimFilter{Priority: store.PriorityFilterUrgentOnly}, "worker-a")
	assert.ErrorIs(t, err, store.ErrNoTasksAvailable)

	got, err := svc.ClaimNextTask(ctx, store.ClaimFilter{Priority: store.PriorityFilterHighOrAbove}, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, high.ID, got.ID)

	_, err = svc.ClaimNextTask(ctx, store.ClaimFilter{Priority: store.PriorityFilter("whenever")}, "worker-a")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestClaimNextExclusivity races many claimants over a smaller pool of
// pending tasks. Every task must be handed out exactly once.
func TestClaimNextExclusivity(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	const pending = 5
	const claimants = 20

	for i := 0; i < pending; i++ {
		seedTask(t, repo, domain.PriorityNormal, base.Add(time.Duration(i)*time.Second), "")
	}

	var wg sync.WaitGroup
	claimed := make(chan string, claimants)
	misses := make(chan error, claimants)

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			task, err := svc.ClaimNextTask(ctx, store.ClaimFilter{}, fmt.Sprintf("worker-%d", n))
			if err != nil {
				misses <- err
				return
			}
			claimed <- task.ID
		}(i)
	}
	wg.Wait()
	close(claimed)
	close(misses)

	seen := make(map[string]bool)
	for id := range claimed {
		assert.False(t, seen[id], "task %s claimed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, pending)

	missCount := 0
	for err := range misses {
		assert.ErrorIs(t, err, store.ErrNoTasksAvailable)
		missCount++
	}
	assert.Equal(t, claimants-pending, missCount)
}

func TestClaimTaskTakeover(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")

	first, err := svc.ClaimTask(ctx, created.ID, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, "worker-a", first.ClaimedBy)

	second, err := svc.ClaimTask(ctx, created.ID, "worker-b")
	require.NoError(t, err)
	assert.Equal(t, "worker-b", second.ClaimedBy)
	require.NotNil(t, second.ClaimedAt)
	assert.False(t, second.ClaimedAt.Before(*first.ClaimedAt))
}

func TestUpdateProgress(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	_, err := svc.ClaimTask(ctx, created.ID, "worker-a")
	require.NoError(t, err)

	task, err := svc.UpdateProgress(ctx, created.ID, "downloaded the dataset")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)

	task, err = svc.UpdateProgress(ctx, created.ID, "halfway through cleaning")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)

	require.Len(t, task.ProgressNotes, 2)
	assert.Equal(t, "downloaded the dataset", task.ProgressNotes[0].Note)
	assert.Equal(t, "halfway through cleaning", task.ProgressNotes[1].Note)

	_, err = svc.UpdateProgress(ctx, created.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteTask(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	_, err := svc.ClaimTask(ctx, created.ID, "worker-a")
	require.NoError(t, err)

	task, err := svc.CompleteTask(ctx, created.ID, store.CompletionRecord{
		OutputSummary:  "report drafted and uploaded",
		OutputLocation: domain.OutputLocationGitHub,
		FilesCreated:   []string{"report.md"},
		GitHubRepo:     "atelierhq/reports",
		GitHubPaths:    []string{"2026/q1/report.md"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusComplete, task.Status)
	assert.Equal(t, "report drafted and uploaded", task.OutputSummary)
	assert.Equal(t, []string{"report.md"}, task.FilesCreated)
	require.NotNil(t, task.CompletedAt)
	// The claim survives completion for attribution.
	assert.Equal(t, "worker-a", task.ClaimedBy)
}

func TestCompleteTaskValidation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")

	_, err := svc.CompleteTask(ctx, created.ID, store.CompletionRecord{
		OutputLocation: domain.OutputLocationLocal,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CompleteTask(ctx, created.ID, store.CompletionRecord{
		OutputSummary:  "done",
		OutputLocation: domain.OutputLocation("ftp"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteTaskTerminal(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	_, err := svc.BlockTask(ctx, created.ID, "waiting on credentials")
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, created.ID, store.CompletionRecord{
		OutputSummary:  "done",
		OutputLocation: domain.OutputLocationLocal,
	})
	assert.ErrorIs(t, err, ErrTaskTerminal)
}

func TestBlockTaskPreservesClaim(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := seedTask(t, repo, domain.PriorityNormal, time.Now().UTC(), "")
	_, err := svc.ClaimTask(ctx, created.ID, "worker-a")
	require.NoError(t, err)

	task, err := svc.BlockTask(ctx, created.ID, "upstream API is down")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusBlocked, task.Status)
	assert.Equal(t, "upstream API is down", task.BlockedReason)
	assert.Equal(t, "worker-a", task.ClaimedBy)
	assert.NotNil(t, task.ClaimedAt)

	// A blocked task is terminal; blocking again is rejected.
	_, err = svc.BlockTask(ctx, created.ID, "still down")
	assert.ErrorIs(t, err, ErrTaskTerminal)
}

func TestMyTasks(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	a := seedTask(t, repo, domain.PriorityNormal, base, "")
	b := seedTask(t, repo, domain.PriorityUrgent, base.Add(time.Second), "")
	c := seedTask(t, repo, domain.PriorityNormal, base.Add(2*time.Second), "")

	_, err := svc.ClaimTask(ctx, a.ID, "worker-a")
	require.NoError(t, err)
	_, err = svc.ClaimTask(ctx, b.ID, "worker-a")
	require.NoError(t, err)
	_, err = svc.ClaimTask(ctx, c.ID, "worker-b")
	require.NoError(t, err)

	// Completed tasks drop out of the claimant's working set.
	_, err = svc.CompleteTask(ctx, a.ID, store.CompletionRecord{
		OutputSummary:  "done",
		OutputLocation: domain.OutputLocationLocal,
	})
	require.NoError(t, err)

	mine, err := svc.MyTasks(ctx, "worker-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)

	_, err = svc.MyTasks(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResultsNewestFirst(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	var ids []string
	for i := 0; i < 3; i++ {
		task := seedTask(t, repo, domain.PriorityNormal, base.Add(time.Duration(i)*time.Second), "apollo")
		ids = append(ids, task.ID)
	}

	// Complete in seed order with strictly increasing completion times.
	impl := svc.(*handoffServiceImpl)
	for i, id := range ids {
		at := base.Add(time.Duration(i+10) * time.Minute)
		impl.now = func() time.Time { return at }
		_, err := svc.CompleteTask(ctx, id, store.CompletionRecord{
			OutputSummary:  "done",
			OutputLocation: domain.OutputLocationLocal,
		})
		require.NoError(t, err)
	}

	results, err := svc.Results(ctx, store.ResultsFilter{ProjectName: "apollo"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, ids[2], results[0].ID)
	assert.Equal(t, ids[0], results[2].ID)

	cutoff := base.Add(11 * time.Minute)
	recent, err := svc.Results(ctx, store.ResultsFilter{Since: &cutoff})
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestProjectStatusPercentages(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 6; i++ {
		seedTask(t, repo, domain.PriorityNormal, base.Add(time.Duration(i)*time.Second), "apollo")
	}
	for i := 0; i < 3; i++ {
		task := seedTask(t, repo, domain.PriorityNormal, base.Add(time.Duration(6+i)*time.Second), "apollo")
		_, err := svc.CompleteTask(ctx, task.ID, store.CompletionRecord{
			OutputSummary:  "done",
			OutputLocation: domain.OutputLocationLocal,
		})
		require.NoError(t, err)
	}
	blocked := seedTask(t, repo, domain.PriorityNormal, base.Add(9*time.Second), "apollo")
	_, err := svc.BlockTask(ctx, blocked.ID, "stuck")
	require.NoError(t, err)

	status, err := svc.ProjectStatus(ctx, "apollo")
	require.NoError(t, err)

	assert.Equal(t, "apollo", status.ProjectName)
	assert.Equal(t, 10, status.Total)

	byStatus := make(map[domain.TaskStatus]StatusBucket)
	sum := 0
	for _, b := range status.Buckets {
		byStatus[b.Status] = b
		sum += b.Count
	}
	assert.Equal(t, status.Total, sum)
	assert.Equal(t, 60, byStatus[domain.TaskStatusPending].Percent)
	assert.Equal(t, 30, byStatus[domain.TaskStatusComplete].Percent)
	assert.Equal(t, 10, byStatus[domain.TaskStatusBlocked].Percent)
}

func TestProjectStatusEmptyProject(t *testing.T) {
	svc, _ := newTestService(t)

	status, err := svc.ProjectStatus(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Total)
	assert.Empty(t, status.Buckets)

	_, err = svc.ProjectStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListProjects(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	seedTask(t, repo, domain.PriorityNormal, base, "apollo")
	seedTask(t, repo, domain.PriorityNormal, base.Add(time.Second), "apollo")
	seedTask(t, repo, domain.PriorityNormal, base.Add(2*time.Second), "borealis")
	seedTask(t, repo, domain.PriorityNormal, base.Add(3*time.Second), "")

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "apollo", projects[0].ProjectName)
	assert.Equal(t, 2, projects[0].Total)
	assert.Equal(t, "borealis", projects[1].ProjectName)
}

func TestStorageFailureSurfaces(t *testing.T) {
	svc, repo := newTestService(t)
	repo.failWith = store.ErrStoreUnavailable

	_, err := svc.CreateTask(context.Background(), CreateTaskParams{
		Instruction: "do a thing",
		CreatedBy:   "coordinator",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))

	var svcErr *HandoffServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 0, roundPercent(0, 0))
	assert.Equal(t, 50, roundPercent(1, 2))
	assert.Equal(t, 33, roundPercent(1, 3))
	assert.Equal(t, 67, roundPercent(2, 3))
	assert.Equal(t, 13, roundPercent(1, 8))
}
