package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunnableFilter scopes a runnable-task query
type RunnableFilter struct {
	// OwnerID limits the result to one owner when set
	OwnerID *uuid.UUID
	// Now is the reference time for NextRetryAt checks; zero means time.Now()
	Now time.Time
}

// TaskRepository is the durable store for import tasks
type TaskRepository interface {
	// FindByID loads a single task. Returns shared.ErrNotFound when the task
	// no longer exists.
	FindByID(ctx context.Context, id uuid.UUID) (*ImportTask, error)

	// FindRunnable returns tasks in a runnable status (pending or retrying)
	// whose retry delay has elapsed, optionally scoped to one owner. Order
	// is unspecified; the orchestrator applies its own priority ordering.
	FindRunnable(ctx context.Context, filter RunnableFilter) ([]*ImportTask, error)

	// FindByOwnerAndConnection returns all tasks for a connection, in
	// priority order
	FindByOwnerAndConnection(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*ImportTask, error)

	// EnsureTasks idempotently creates one task per data kind for a
	// connection, reusing existing rows (the unique identity is the
	// (owner, connection, type) tuple). Returns the full task set.
	EnsureTasks(ctx context.Context, ownerID, connectionID uuid.UUID, maxRetries int) ([]*ImportTask, error)

	// Save persists the task's current state as one atomic row update.
	// Returns shared.ErrNotFound when the row vanished mid-run.
	Save(ctx context.Context, task *ImportTask) error

	// IncrementRetry atomically bumps the retry counter and returns the new
	// count. Returns shared.ErrNotFound when the task no longer exists.
	IncrementRetry(ctx context.Context, id uuid.UUID) (int, error)

	// ResetForReimport puts every task for the connection back to pending,
	// clearing errors, payloads and counters, and returns how many rows
	// were reset. Returns ErrNoTasksFound when no tasks exist: a reimport
	// requires prior import history.
	ResetForReimport(ctx context.Context, ownerID, connectionID uuid.UUID) (int, error)

	// FindStaleProcessing returns tasks stuck in processing since before
	// the cutoff, so the sweeper can make them runnable again.
	FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*ImportTask, error)
}
