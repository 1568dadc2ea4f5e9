package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/platform/logger"
	"github.com/atelierhq/handoff-api/internal/store"
)

// taskColumns is the canonical column list for handoff_tasks queries.
// Every SELECT and RETURNING clause uses it so scanTask stays in sync.
const taskColumns = `id, instruction, context, priority, status, project_name,
	parent_task_id, estimated_complexity, files_needed, created_by, claimed_by,
	output_summary, output_location, files_created, github_repo, github_paths,
	drive_folder_id, drive_file_ids, worker_notes, blocked_reason,
	created_at, claimed_at, completed_at`

// priorityRank orders rows urgent-first. It mirrors domain.Priority.Rank
// so SQL ordering and in-memory ordering agree.
const priorityRank = `CASE priority
	WHEN 'urgent' THEN 0
	WHEN 'high' THEN 1
	WHEN 'normal' THEN 2
	ELSE 3 END`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger

	// Result caps applied when a filter leaves Limit unset.
	listLimit    int
	resultsLimit int
}

// Fallback caps when the caller configures none.
const (
	defaultListLimit    = 20
	defaultResultsLimit = 20
)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:           db,
		logger:       logger.With(slog.String("component", "task_store")),
		listLimit:    defaultListLimit,
		resultsLimit: defaultResultsLimit,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithLimits overrides the default result caps for unset filter limits.
// Non-positive values keep the current cap.
func (s *PostgresTaskStore) WithLimits(listLimit, resultsLimit int) *PostgresTaskStore {
	if listLimit > 0 {
		s.listLimit = listLimit
	}
	if resultsLimit > 0 {
		s.resultsLimit = resultsLimit
	}
	return s
}

// WithTx returns a new store instance that runs against the provided
// transaction instead of the base connection.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:           tx,
		logger:       s.logger,
		listLimit:    s.listLimit,
		resultsLimit: s.resultsLimit,
	}
}

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrDuplicate if the task ID is already in use.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO handoff_tasks (id, instruction, context, priority, status,
			project_name, parent_task_id, estimated_complexity, files_needed,
			created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	filesNeeded, err := marshalStringList(task.FilesNeeded)
	if err != nil {
		return fmt.Errorf("failed to encode files_needed: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Instruction,
		nullString(task.Context),
		task.Priority,
		task.Status,
		nullString(task.ProjectName),
		nullString(task.ParentTaskID),
		nullString(string(task.EstimatedComplexity)),
		filesNeeded,
		task.CreatedBy,
		task.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("priority", string(task.Priority)),
		slog.String("created_by", task.CreatedBy))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task and its progress ledger by exact ID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM handoff_tasks WHERE id = $1`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
		}
		return nil, MapError(err)
	}

	if err := s.loadProgressNotes(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// GetByRef implements store.TaskStore.GetByRef
// It first tries an exact ID match, then a unique substring match so users
// can paste truncated IDs. A fragment matching more than one task returns
// store.ErrAmbiguousReference instead of silently picking the first row.
func (s *PostgresTaskStore) GetByRef(ctx context.Context, ref string) (*domain.Task, error) {
	task, err := s.GetByID(ctx, ref)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	id, err := s.resolveFragment(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// resolveFragment finds the single task ID containing the fragment.
func (s *PostgresTaskStore) resolveFragment(ctx context.Context, ref string) (string, error) {
	// Two rows are enough to prove ambiguity.
	query := `SELECT id FROM handoff_tasks WHERE id LIKE '%' || $1 || '%' LIMIT 2`

	rows, err := s.db.QueryContext(ctx, query, ref)
	if err != nil {
		return "", MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", MapError(err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", store.ErrTaskNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %q", store.ErrAmbiguousReference, ref)
	}
}

// Update implements store.TaskStore.Update
// It applies the whitelisted field set {instruction, context, priority, status}.
// Returns store.ErrNoChange if no field is set and store.ErrTaskNotFound if
// the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, id string, fields store.UpdateFields) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if fields.IsEmpty() {
		return store.ErrNoChange
	}

	var sets []string
	var args []any

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Instruction != nil {
		addSet("instruction", *fields.Instruction)
	}
	if fields.Context != nil {
		addSet("context", nullString(*fields.Context))
	}
	if fields.Priority != nil {
		if !fields.Priority.IsValid() {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidPriority)
		}
		addSet("priority", *fields.Priority)
	}
	if fields.Status != nil {
		if !fields.Status.IsValid() {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidStatus)
		}
		addSet("status", *fields.Status)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE handoff_tasks SET %s WHERE id = $%d",
		strings.Join(sets, ", "),
		len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	log.Info("task updated", slog.String("task_id", id))
	return nil
}

// List implements store.TaskStore.List
// It returns tasks ordered by priority rank ascending then created_at
// ascending. The progress ledger is not loaded for listings.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.ListFilter) ([]*domain.Task, error) {
	var conds []string
	var args []any

	addCond := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Status != "" {
		addCond("status", filter.Status)
	}
	if filter.ProjectName != "" {
		addCond("project_name", filter.ProjectName)
	}
	if filter.Priority != "" {
		addCond("priority", filter.Priority)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = s.listLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT %s FROM handoff_tasks %s ORDER BY %s, created_at ASC LIMIT $%d`,
		taskColumns, where, priorityRank, len(args),
	)

	return s.queryTasks(ctx, query, args...)
}

// ClaimNext implements store.TaskStore.ClaimNext
// Selection and transition happen in one conditional statement: a CTE picks
// the lowest-rank oldest pending row with FOR UPDATE SKIP LOCKED and the
// outer UPDATE transitions it to claimed. Concurrent claimants therefore
// never receive the same task; losers fall through to ErrNoTasksAvailable.
func (s *PostgresTaskStore) ClaimNext(
	ctx context.Context,
	filter store.ClaimFilter,
	claimant string,
	at time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	conds := []string{"status = 'pending'"}
	var args []any

	switch filter.Priority {
	case store.PriorityFilterUrgentOnly:
		conds = append(conds, "priority = 'urgent'")
	case store.PriorityFilterHighOrAbove:
		conds = append(conds, "priority IN ('high', 'urgent')")
	}

	if filter.ProjectName != "" {
		args = append(args, filter.ProjectName)
		conds = append(conds, fmt.Sprintf("project_name = $%d", len(args)))
	}

	args = append(args, claimant)
	claimantArg := len(args)
	args = append(args, at)
	atArg := len(args)

	query := fmt.Sprintf(`
		WITH candidate AS (
			SELECT id FROM handoff_tasks
			WHERE %s
			ORDER BY %s, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE handoff_tasks t
		SET status = 'claimed', claimed_by = $%d, claimed_at = $%d
		FROM candidate c
		WHERE t.id = c.id
		RETURNING %s`,
		strings.Join(conds, " AND "), priorityRank, claimantArg, atArg,
		prefixColumns("t.", taskColumns),
	)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoTasksAvailable
		}
		log.Error("failed to claim next task",
			slog.String("error", err.Error()),
			slog.String("claimant", claimant))
		return nil, MapError(err)
	}

	if err := s.loadProgressNotes(ctx, task); err != nil {
		return nil, err
	}

	log.Info("task claimed",
		slog.String("task_id", task.ID),
		slog.String("claimant", claimant),
		slog.String("priority", string(task.Priority)))
	return task, nil
}

// Claim implements store.TaskStore.Claim
// It reassigns the task to the claimant regardless of its current claimant,
// overwriting claimed_by and claimed_at together.
func (s *PostgresTaskStore) Claim(ctx context.Context, id, claimant string, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE handoff_tasks
		SET status = 'claimed', claimed_by = $1, claimed_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, claimant, at, id)
	if err != nil {
		log.Error("failed to claim task",
			slog.String("error", err.Error()),
			slog.String("task_id", id),
			slog.String("claimant", claimant))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	log.Info("task claimed by takeover",
		slog.String("task_id", id),
		slog.String("claimant", claimant))
	return nil
}

// AppendProgress implements store.TaskStore.AppendProgress
// The note lands in the append-only ledger table; claimed tasks advance to
// in_progress in the same call. Run inside a transaction (via WithTx) when
// both writes must land together.
func (s *PostgresTaskStore) AppendProgress(ctx context.Context, id string, note domain.ProgressNote) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	advance := `
		UPDATE handoff_tasks
		SET status = CASE WHEN status = 'claimed' THEN 'in_progress' ELSE status END
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, advance, id)
	if err != nil {
		log.Error("failed to advance task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	insert := `
		INSERT INTO handoff_progress_notes (task_id, noted_at, note)
		VALUES ($1, $2, $3)
	`

	if _, err := s.db.ExecContext(ctx, insert, id, note.NotedAt, note.Note); err != nil {
		log.Error("failed to append progress note",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	log.Debug("progress note appended", slog.String("task_id", id))
	return nil
}

// Complete implements store.TaskStore.Complete
// It marks the task complete and records the supplied output fields.
func (s *PostgresTaskStore) Complete(
	ctx context.Context,
	id string,
	record store.CompletionRecord,
	at time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filesCreated, err := marshalStringList(record.FilesCreated)
	if err != nil {
		return fmt.Errorf("failed to encode files_created: %w", err)
	}
	githubPaths, err := marshalStringList(record.GitHubPaths)
	if err != nil {
		return fmt.Errorf("failed to encode github_paths: %w", err)
	}
	driveFileIDs, err := marshalStringList(record.DriveFileIDs)
	if err != nil {
		return fmt.Errorf("failed to encode drive_file_ids: %w", err)
	}

	query := `
		UPDATE handoff_tasks
		SET status = 'complete',
			output_summary = $1,
			output_location = $2,
			files_created = $3,
			github_repo = $4,
			github_paths = $5,
			drive_folder_id = $6,
			drive_file_ids = $7,
			worker_notes = $8,
			completed_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		record.OutputSummary,
		record.OutputLocation,
		filesCreated,
		nullString(record.GitHubRepo),
		githubPaths,
		nullString(record.DriveFolderID),
		driveFileIDs,
		nullString(record.WorkerNotes),
		at,
		id,
	)
	if err != nil {
		log.Error("failed to complete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	log.Info("task completed",
		slog.String("task_id", id),
		slog.String("output_location", string(record.OutputLocation)))
	return nil
}

// Block implements store.TaskStore.Block
// It marks the task blocked. claimed_by and claimed_at are left untouched so
// the record shows who held the work when it stalled.
func (s *PostgresTaskStore) Block(ctx context.Context, id, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE handoff_tasks
		SET status = 'blocked', blocked_reason = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, reason, id)
	if err != nil {
		log.Error("failed to block task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	log.Info("task blocked",
		slog.String("task_id", id),
		slog.String("reason", reason))
	return nil
}

// ListClaimedBy implements store.TaskStore.ListClaimedBy
func (s *PostgresTaskStore) ListClaimedBy(ctx context.Context, claimant string) ([]*domain.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM handoff_tasks
		WHERE claimed_by = $1 AND status IN ('claimed', 'in_progress')
		ORDER BY %s, created_at ASC`,
		taskColumns, priorityRank,
	)

	return s.queryTasks(ctx, query, claimant)
}

// ListResults implements store.TaskStore.ListResults
func (s *PostgresTaskStore) ListResults(ctx context.Context, filter store.ResultsFilter) ([]*domain.Task, error) {
	conds := []string{"status = 'complete'"}
	var args []any

	if filter.TaskRef != "" {
		args = append(args, filter.TaskRef)
		conds = append(conds, fmt.Sprintf(
			"(id = $%d OR id LIKE '%%' || $%d || '%%')", len(args), len(args),
		))
	}
	if filter.ProjectName != "" {
		args = append(args, filter.ProjectName)
		conds = append(conds, fmt.Sprintf("project_name = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("completed_at >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = s.resultsLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT %s FROM handoff_tasks WHERE %s ORDER BY completed_at DESC LIMIT $%d`,
		taskColumns, strings.Join(conds, " AND "), len(args),
	)

	return s.queryTasks(ctx, query, args...)
}

// CountByStatus implements store.TaskStore.CountByStatus
func (s *PostgresTaskStore) CountByStatus(ctx context.Context, projectName string) ([]store.StatusCount, error) {
	query := `
		SELECT status, COUNT(*) FROM handoff_tasks
		WHERE project_name = $1
		GROUP BY status
		ORDER BY status
	`

	rows, err := s.db.QueryContext(ctx, query, projectName)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var counts []store.StatusCount
	for rows.Next() {
		var c store.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, MapError(err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return counts, nil
}

// ListProjects implements store.TaskStore.ListProjects
func (s *PostgresTaskStore) ListProjects(ctx context.Context) ([]store.ProjectSummary, error) {
	query := `
		SELECT project_name,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'complete')
		FROM handoff_tasks
		WHERE project_name IS NOT NULL
		GROUP BY project_name
		ORDER BY project_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var projects []store.ProjectSummary
	for rows.Next() {
		var p store.ProjectSummary
		if err := rows.Scan(&p.ProjectName, &p.Total, &p.Pending, &p.Complete); err != nil {
			return nil, MapError(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return projects, nil
}

// queryTasks runs a multi-row task query and scans the results.
func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// loadProgressNotes fills the task's progress ledger, oldest entry first.
func (s *PostgresTaskStore) loadProgressNotes(ctx context.Context, task *domain.Task) error {
	query := `
		SELECT noted_at, note FROM handoff_progress_notes
		WHERE task_id = $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, task.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var note domain.ProgressNote
		if err := rows.Scan(&note.NotedAt, &note.Note); err != nil {
			return MapError(err)
		}
		task.ProgressNotes = append(task.ProgressNotes, note)
	}
	return MapError(rows.Err())
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans one handoff_tasks row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                                 domain.Task
		taskContext, projectName, parentID   sql.NullString
		complexity, claimedBy, outputSummary sql.NullString
		outputLocation, githubRepo           sql.NullString
		driveFolderID, workerNotes           sql.NullString
		blockedReason                        sql.NullString
		filesNeeded, filesCreated            []byte
		githubPaths, driveFileIDs            []byte
		claimedAt, completedAt               sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Instruction,
		&taskContext,
		&task.Priority,
		&task.Status,
		&projectName,
		&parentID,
		&complexity,
		&filesNeeded,
		&task.CreatedBy,
		&claimedBy,
		&outputSummary,
		&outputLocation,
		&filesCreated,
		&githubRepo,
		&githubPaths,
		&driveFolderID,
		&driveFileIDs,
		&workerNotes,
		&blockedReason,
		&task.CreatedAt,
		&claimedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Context = taskContext.String
	task.ProjectName = projectName.String
	task.ParentTaskID = parentID.String
	task.EstimatedComplexity = domain.Complexity(complexity.String)
	task.ClaimedBy = claimedBy.String
	task.OutputSummary = outputSummary.String
	task.OutputLocation = domain.OutputLocation(outputLocation.String)
	task.GitHubRepo = githubRepo.String
	task.DriveFolderID = driveFolderID.String
	task.WorkerNotes = workerNotes.String
	task.BlockedReason = blockedReason.String

	if task.FilesNeeded, err = unmarshalStringList(filesNeeded); err != nil {
		return nil, fmt.Errorf("failed to decode files_needed: %w", err)
	}
	if task.FilesCreated, err = unmarshalStringList(filesCreated); err != nil {
		return nil, fmt.Errorf("failed to decode files_created: %w", err)
	}
	if task.GitHubPaths, err = unmarshalStringList(githubPaths); err != nil {
		return nil, fmt.Errorf("failed to decode github_paths: %w", err)
	}
	if task.DriveFileIDs, err = unmarshalStringList(driveFileIDs); err != nil {
		return nil, fmt.Errorf("failed to decode drive_file_ids: %w", err)
	}

	if claimedAt.Valid {
		t := claimedAt.Time
		task.ClaimedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	return &task, nil
}

// marshalStringList encodes a string slice as a JSON array for a JSONB
// column, or NULL for an empty slice.
func marshalStringList(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// unmarshalStringList decodes a JSONB array column, treating NULL as empty.
func unmarshalStringList(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// nullString maps the empty string to NULL so optional text columns stay
// NULL instead of collecting empty strings.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// prefixColumns qualifies every column in list with the given prefix, for
// RETURNING clauses where the updated table is aliased.
func prefixColumns(prefix, list string) string {
	cols := strings.Split(list, ",")
	for i, col := range cols {
		cols[i] = prefix + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
