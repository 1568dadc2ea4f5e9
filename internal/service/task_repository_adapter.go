package service

import (
	"database/sql"

	"github.com/atelierhq/handoff-api/internal/platform/postgres"
)

// TaskRepositoryAdapter adapts a postgres.PostgresTaskStore to the
// service TaskRepository interface, pairing it with the database handle
// needed for transactional operations.
type TaskRepositoryAdapter struct {
	*postgres.PostgresTaskStore
	db *sql.DB
}

// NewTaskRepositoryAdapter creates a new adapter that implements
// TaskRepository by delegating to a PostgresTaskStore.
func NewTaskRepositoryAdapter(taskStore *postgres.PostgresTaskStore, db *sql.DB) *TaskRepositoryAdapter {
	return &TaskRepositoryAdapter{
		PostgresTaskStore: taskStore,
		db:                db,
	}
}

// Ensure TaskRepositoryAdapter implements TaskRepository
var _ TaskRepository = (*TaskRepositoryAdapter)(nil)

// WithTx implements TaskRepository.WithTx
func (a *TaskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &TaskRepositoryAdapter{
		PostgresTaskStore: a.PostgresTaskStore.WithTx(tx),
		db:                a.db,
	}
}

// DB implements TaskRepository.DB
func (a *TaskRepositoryAdapter) DB() *sql.DB {
	return a.db
}
