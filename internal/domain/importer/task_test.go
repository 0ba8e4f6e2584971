package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
)

func newTestTask(t *testing.T, taskType TaskType) *ImportTask {
	t.Helper()
	task, err := NewImportTask(uuid.New(), uuid.New(), taskType, 3)
	require.NoError(t, err)
	return task
}

func TestNewImportTask(t *testing.T) {
	t.Run("creates pending task", func(t *testing.T) {
		ownerID := uuid.New()
		connectionID := uuid.New()

		task, err := NewImportTask(ownerID, connectionID, TaskTypeMerchant, 3)

		require.NoError(t, err)
		assert.Equal(t, ownerID, task.OwnerID)
		assert.Equal(t, connectionID, task.ConnectionID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, "Queued for import", task.ProgressMessage)
		assert.Zero(t, task.RetryCount)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("rejects unknown task type", func(t *testing.T) {
		_, err := NewImportTask(uuid.New(), uuid.New(), TaskType("orders"), 3)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects zero retry budget", func(t *testing.T) {
		_, err := NewImportTask(uuid.New(), uuid.New(), TaskTypeCatalog, 0)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTaskTypePriority(t *testing.T) {
	assert.Less(t, TaskTypeMerchant.Priority(), TaskTypeLocations.Priority())
	assert.Less(t, TaskTypeLocations.Priority(), TaskTypeCatalog.Priority())
	assert.Equal(t, []TaskType{TaskTypeMerchant, TaskTypeLocations, TaskTypeCatalog}, AllTaskTypes())
}

func TestImportTask_Start(t *testing.T) {
	t.Run("pending task starts", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)

		require.NoError(t, task.Start())

		assert.Equal(t, TaskStatusProcessing, task.Status)
		assert.Equal(t, "Importing merchant data...", task.ProgressMessage)
		require.NotNil(t, task.StartedAt)
	})

	t.Run("retrying task starts", func(t *testing.T) {
		task := newTestTask(t, TaskTypeCatalog)
		task.Status = TaskStatusRetrying

		require.NoError(t, task.Start())
		assert.Equal(t, TaskStatusProcessing, task.Status)
	})

	t.Run("started at is set once", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		require.NoError(t, task.Start())
		first := *task.StartedAt

		require.NoError(t, task.ScheduleRetry(errors.New("boom"), 1, time.Now()))
		require.NoError(t, task.Start())

		assert.Equal(t, first, *task.StartedAt)
	})

	t.Run("rejects non-runnable states", func(t *testing.T) {
		for _, status := range []TaskStatus{TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed} {
			task := newTestTask(t, TaskTypeMerchant)
			task.Status = status
			assert.ErrorIs(t, task.Start(), ErrTaskNotRunnable, "status %s", status)
		}
	})
}

func TestImportTask_Complete(t *testing.T) {
	t.Run("stores payload and clears error", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		require.NoError(t, task.Start())
		task.ErrorMessage = "previous attempt failed"

		payload := MerchantPayload{Merchant: &integration.MerchantInfo{BusinessName: "Luna Salon"}}
		require.NoError(t, task.Complete(payload))

		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, "Merchant imported successfully", task.ProgressMessage)
		assert.Empty(t, task.ErrorMessage)
		assert.NotNil(t, task.CompletedAt)
		assert.Equal(t, payload, task.Payload)
	})

	t.Run("requires payload", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		require.NoError(t, task.Start())
		assert.ErrorIs(t, task.Complete(nil), shared.ErrInvalidInput)
	})

	t.Run("only from processing", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		err := task.Complete(MerchantPayload{})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestImportTask_ScheduleRetry(t *testing.T) {
	task := newTestTask(t, TaskTypeLocations)
	require.NoError(t, task.Start())

	next := time.Now().Add(30 * time.Second)
	require.NoError(t, task.ScheduleRetry(errors.New("connection reset"), 1, next))

	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.Equal(t, "connection reset", task.ErrorMessage)
	assert.Equal(t, "Retrying import (attempt 2/3)...", task.ProgressMessage)
	require.NotNil(t, task.NextRetryAt)
	assert.WithinDuration(t, next, *task.NextRetryAt, time.Second)
}

func TestImportTask_Fail(t *testing.T) {
	t.Run("terminal after budget exhausted", func(t *testing.T) {
		task := newTestTask(t, TaskTypeCatalog)
		require.NoError(t, task.Start())

		require.NoError(t, task.Fail(errors.New("401 unauthorized"), 3))

		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, 3, task.RetryCount)
		assert.Equal(t, "Import failed after 3 attempts", task.ProgressMessage)
		assert.Equal(t, "401 unauthorized", task.ErrorMessage)
	})

	t.Run("rejects failing with budget left", func(t *testing.T) {
		task := newTestTask(t, TaskTypeCatalog)
		require.NoError(t, task.Start())
		assert.ErrorIs(t, task.Fail(errors.New("boom"), 1), shared.ErrInvalidState)
	})
}

func TestImportTask_MarkStale(t *testing.T) {
	task := newTestTask(t, TaskTypeMerchant)
	require.NoError(t, task.Start())

	require.NoError(t, task.MarkStale())

	assert.Equal(t, TaskStatusRetrying, task.Status)
	assert.True(t, task.Status.IsRunnable())
}

func TestImportTask_ResetForReimport(t *testing.T) {
	task := newTestTask(t, TaskTypeMerchant)
	require.NoError(t, task.Start())
	require.NoError(t, task.Fail(errors.New("boom"), 3))
	id := task.ID

	task.ResetForReimport()

	assert.Equal(t, id, task.ID, "reset preserves identity")
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Empty(t, task.ErrorMessage)
	assert.Nil(t, task.Payload)
	assert.Zero(t, task.RetryCount)
	assert.Nil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)
}

func TestImportTask_IsRunnable(t *testing.T) {
	now := time.Now()

	t.Run("pending without delay", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		assert.True(t, task.IsRunnable(now))
	})

	t.Run("retry delay not yet elapsed", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		future := now.Add(time.Minute)
		task.NextRetryAt = &future
		assert.False(t, task.IsRunnable(now))
		assert.True(t, task.IsRunnable(now.Add(2*time.Minute)))
	})

	t.Run("terminal states are not runnable", func(t *testing.T) {
		task := newTestTask(t, TaskTypeMerchant)
		task.Status = TaskStatusCompleted
		assert.False(t, task.IsRunnable(now))
		task.Status = TaskStatusFailed
		assert.False(t, task.IsRunnable(now))
	})
}
