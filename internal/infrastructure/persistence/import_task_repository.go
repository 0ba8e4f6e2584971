package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/shared"
	"github.com/frontdesk/backend/internal/infrastructure/persistence/models"
)

// taskPriorityOrder sorts rows in execution priority order without a
// dedicated priority column
const taskPriorityOrder = "CASE task_type WHEN 'merchant' THEN 0 WHEN 'locations' THEN 1 ELSE 2 END"

// GormImportTaskRepository implements importer.TaskRepository using GORM
type GormImportTaskRepository struct {
	db *gorm.DB
}

// NewGormImportTaskRepository creates a new GormImportTaskRepository
func NewGormImportTaskRepository(db *gorm.DB) *GormImportTaskRepository {
	return &GormImportTaskRepository{db: db}
}

// FindByID finds an import task by ID
func (r *GormImportTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*importer.ImportTask, error) {
	var model models.ImportTaskModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindRunnable returns pending and retrying tasks whose retry delay has
// elapsed, optionally scoped to one owner
func (r *GormImportTaskRepository) FindRunnable(ctx context.Context, filter importer.RunnableFilter) ([]*importer.ImportTask, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	query := r.db.WithContext(ctx).
		Where("status IN ?", []importer.TaskStatus{importer.TaskStatusPending, importer.TaskStatusRetrying}).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now)
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	var taskModels []models.ImportTaskModel
	if err := query.
		Order("owner_id, connection_id").
		Order(taskPriorityOrder).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toDomainTasks(taskModels)
}

// FindByOwnerAndConnection returns all tasks for a connection in priority order
func (r *GormImportTaskRepository) FindByOwnerAndConnection(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*importer.ImportTask, error) {
	var taskModels []models.ImportTaskModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND connection_id = ?", ownerID, connectionID).
		Order(taskPriorityOrder).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toDomainTasks(taskModels)
}

// EnsureTasks idempotently creates one task per data kind for a connection.
// Existing rows win: the insert is skipped on conflict with the unique
// (owner_id, connection_id, task_type) index, then the full set is re-read.
func (r *GormImportTaskRepository) EnsureTasks(ctx context.Context, ownerID, connectionID uuid.UUID, maxRetries int) ([]*importer.ImportTask, error) {
	for _, taskType := range importer.AllTaskTypes() {
		task, err := importer.NewImportTask(ownerID, connectionID, taskType, maxRetries)
		if err != nil {
			return nil, err
		}
		model, err := models.ImportTaskModelFromDomain(task)
		if err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "owner_id"}, {Name: "connection_id"}, {Name: "task_type"}},
				DoNothing: true,
			}).
			Create(model).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByOwnerAndConnection(ctx, ownerID, connectionID)
}

// Save persists the task's current state. Returns shared.ErrNotFound if the
// row no longer exists. UpdateColumns keeps the domain's UpdatedAt instead
// of letting GORM touch it; the stale sweep relies on that timestamp.
func (r *GormImportTaskRepository) Save(ctx context.Context, task *importer.ImportTask) error {
	model, err := models.ImportTaskModelFromDomain(task)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.ImportTaskModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "created_at").
		UpdateColumns(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementRetry atomically bumps the retry counter and returns the new
// value. The database is authoritative: concurrent attempts each get a
// distinct count.
func (r *GormImportTaskRepository) IncrementRetry(ctx context.Context, id uuid.UUID) (int, error) {
	var model models.ImportTaskModel
	result := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "retry_count"}}}).
		Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return model.RetryCount, nil
}

// ResetForReimport puts every task for the connection back to pending in a
// single statement. Returns importer.ErrNoTasksFound when the connection
// has no import history.
func (r *GormImportTaskRepository) ResetForReimport(ctx context.Context, ownerID, connectionID uuid.UUID) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ImportTaskModel{}).
		Where("owner_id = ? AND connection_id = ?", ownerID, connectionID).
		Updates(map[string]any{
			"status":           importer.TaskStatusPending,
			"progress_message": "Queued for import",
			"error_message":    "",
			"payload":          nil,
			"retry_count":      0,
			"next_retry_at":    nil,
			"started_at":       nil,
			"completed_at":     nil,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, importer.ErrNoTasksFound
	}
	return int(result.RowsAffected), nil
}

// FindStaleProcessing returns processing tasks untouched since the cutoff
func (r *GormImportTaskRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*importer.ImportTask, error) {
	var taskModels []models.ImportTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", importer.TaskStatusProcessing, cutoff).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toDomainTasks(taskModels)
}

func toDomainTasks(taskModels []models.ImportTaskModel) ([]*importer.ImportTask, error) {
	tasks := make([]*importer.ImportTask, len(taskModels))
	for i := range taskModels {
		task, err := taskModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		tasks[i] = task
	}
	return tasks, nil
}

// Ensure GormImportTaskRepository implements importer.TaskRepository
var _ importer.TaskRepository = (*GormImportTaskRepository)(nil)
