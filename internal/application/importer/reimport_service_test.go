package importapp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/integration"
)

func TestReimportService_EnsureTasks(t *testing.T) {
	ctx := context.Background()
	repo := newMemTaskRepo()
	svc := NewReimportService(repo, 3, zap.NewNop())
	ownerID := uuid.New()
	connectionID := uuid.New()

	tasks, err := svc.EnsureTasks(ctx, ownerID, connectionID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i, taskType := range importer.AllTaskTypes() {
		assert.Equal(t, taskType, tasks[i].TaskType)
		assert.Equal(t, importer.TaskStatusPending, tasks[i].Status)
		assert.Equal(t, 3, tasks[i].MaxRetries)
	}

	// Idempotent: a second ensure reuses the same rows.
	again, err := svc.EnsureTasks(ctx, ownerID, connectionID)
	require.NoError(t, err)
	require.Len(t, again, 3)
	for i := range tasks {
		assert.Equal(t, tasks[i].ID, again[i].ID)
	}
}

func TestReimportService_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("no history raises no-tasks-found", func(t *testing.T) {
		svc := NewReimportService(newMemTaskRepo(), 3, zap.NewNop())

		_, err := svc.Reset(ctx, uuid.New(), uuid.New())

		assert.ErrorIs(t, err, importer.ErrNoTasksFound)
	})

	t.Run("resets the full task set", func(t *testing.T) {
		repo := newMemTaskRepo()
		svc := NewReimportService(repo, 3, zap.NewNop())
		ownerID := uuid.New()
		connectionID := uuid.New()

		tasks, err := svc.EnsureTasks(ctx, ownerID, connectionID)
		require.NoError(t, err)

		// Drive one task to completed so the reset has something to wipe.
		f := newFixture(t)
		f.repo = repo
		orch := NewOrchestrator(repo, f.provider, f.sink, f.publisher,
			OrchestratorConfig{RetryDelay: 0}, zap.NewNop())
		require.NoError(t, orch.RunTask(ctx, tasks[0].ID))
		require.Equal(t, importer.TaskStatusCompleted, repo.get(tasks[0].ID).Status)

		count, err := svc.Reset(ctx, ownerID, connectionID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		for _, task := range tasks {
			stored := repo.get(task.ID)
			assert.Equal(t, importer.TaskStatusPending, stored.Status)
			assert.Zero(t, stored.RetryCount)
			assert.Nil(t, stored.Payload)
			assert.Empty(t, stored.ErrorMessage)
			assert.Equal(t, task.ID, stored.ID, "reset preserves task identity")
		}
	})

	t.Run("reset makes a failed task runnable again", func(t *testing.T) {
		repo := newMemTaskRepo()
		svc := NewReimportService(repo, 1, zap.NewNop())
		ownerID := uuid.New()
		connectionID := uuid.New()

		tasks, err := svc.EnsureTasks(ctx, ownerID, connectionID)
		require.NoError(t, err)

		f := newFixture(t)
		f.provider.merchantFn = func() (*integration.MerchantInfo, error) {
			return nil, integration.ErrProviderUnavailable
		}
		orch := NewOrchestrator(repo, f.provider, f.sink, f.publisher,
			OrchestratorConfig{RetryDelay: 0}, zap.NewNop())
		require.Error(t, orch.RunTask(ctx, tasks[0].ID))
		require.Equal(t, importer.TaskStatusFailed, repo.get(tasks[0].ID).Status)

		_, err = svc.Reset(ctx, ownerID, connectionID)
		require.NoError(t, err)

		require.NoError(t, orch.RunTask(ctx, tasks[0].ID))
		assert.Equal(t, importer.TaskStatusCompleted, repo.get(tasks[0].ID).Status)
	})
}

func TestReimportService_ListTasks(t *testing.T) {
	ctx := context.Background()
	repo := newMemTaskRepo()
	svc := NewReimportService(repo, 3, zap.NewNop())
	ownerID := uuid.New()
	connectionID := uuid.New()

	_, err := svc.EnsureTasks(ctx, ownerID, connectionID)
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx, ownerID, connectionID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}
