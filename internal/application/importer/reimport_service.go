package importapp

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
)

// ReimportService owns the lifecycle of a connection's task set outside of
// task execution: creating the rows when a provider connection is
// established, and resetting them when an operator re-runs the import.
type ReimportService struct {
	tasks      importer.TaskRepository
	maxRetries int
	logger     *zap.Logger
}

// NewReimportService creates a new ReimportService. maxRetries is the retry
// budget stamped onto newly created tasks.
func NewReimportService(tasks importer.TaskRepository, maxRetries int, logger *zap.Logger) *ReimportService {
	return &ReimportService{
		tasks:      tasks,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// EnsureTasks idempotently creates the three import tasks for a freshly
// established connection. Existing rows are reused: the unique identity is
// the (owner, connection, type) tuple, so calling this twice never creates
// duplicates.
func (s *ReimportService) EnsureTasks(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*importer.ImportTask, error) {
	tasks, err := s.tasks.EnsureTasks(ctx, ownerID, connectionID, s.maxRetries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Import tasks ready",
		zap.String("owner_id", ownerID.String()),
		zap.String("connection_id", connectionID.String()),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// Reset puts every task for the connection back to pending, clearing
// errors, payloads and retry counters. It requires prior import history:
// importer.ErrNoTasksFound bubbles to the caller when no tasks exist, with
// the corrective hint to reconnect the provider account.
func (s *ReimportService) Reset(ctx context.Context, ownerID, connectionID uuid.UUID) (int, error) {
	count, err := s.tasks.ResetForReimport(ctx, ownerID, connectionID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Import tasks reset for reimport",
		zap.String("owner_id", ownerID.String()),
		zap.String("connection_id", connectionID.String()),
		zap.Int("count", count),
	)
	return count, nil
}

// ListTasks returns the connection's tasks in priority order, for the
// dashboard's poll fallback when the realtime feed is unavailable.
func (s *ReimportService) ListTasks(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*importer.ImportTask, error) {
	return s.tasks.FindByOwnerAndConnection(ctx, ownerID, connectionID)
}

// GetTask loads a single task by ID
func (s *ReimportService) GetTask(ctx context.Context, id uuid.UUID) (*importer.ImportTask, error) {
	return s.tasks.FindByID(ctx, id)
}
