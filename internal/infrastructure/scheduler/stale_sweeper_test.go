package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// sweepTaskRepo is a minimal in-memory store covering the sweep flow
type sweepTaskRepo struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*importer.ImportTask
	saveErr error
	findErr error
}

func newSweepTaskRepo() *sweepTaskRepo {
	return &sweepTaskRepo{tasks: make(map[uuid.UUID]*importer.ImportTask)}
}

func (r *sweepTaskRepo) add(task *importer.ImportTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
}

func (r *sweepTaskRepo) get(id uuid.UUID) *importer.ImportTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

func (r *sweepTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*importer.ImportTask, error) {
	if task := r.get(id); task != nil {
		return task, nil
	}
	return nil, shared.ErrNotFound
}

func (r *sweepTaskRepo) FindRunnable(ctx context.Context, filter importer.RunnableFilter) ([]*importer.ImportTask, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var runnable []*importer.ImportTask
	for _, task := range r.tasks {
		if task.IsRunnable(now) {
			runnable = append(runnable, task)
		}
	}
	return runnable, nil
}

func (r *sweepTaskRepo) FindByOwnerAndConnection(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*importer.ImportTask, error) {
	return nil, nil
}

func (r *sweepTaskRepo) EnsureTasks(ctx context.Context, ownerID, connectionID uuid.UUID, maxRetries int) ([]*importer.ImportTask, error) {
	return nil, nil
}

func (r *sweepTaskRepo) Save(ctx context.Context, task *importer.ImportTask) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.add(task)
	return nil
}

func (r *sweepTaskRepo) IncrementRetry(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return 0, shared.ErrNotFound
	}
	task.RetryCount++
	return task.RetryCount, nil
}

func (r *sweepTaskRepo) ResetForReimport(ctx context.Context, ownerID, connectionID uuid.UUID) (int, error) {
	return 0, importer.ErrNoTasksFound
}

func (r *sweepTaskRepo) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*importer.ImportTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []*importer.ImportTask
	for _, task := range r.tasks {
		if task.Status == importer.TaskStatusProcessing && task.UpdatedAt.Before(cutoff) {
			stale = append(stale, task)
		}
	}
	return stale, nil
}

var _ importer.TaskRepository = (*sweepTaskRepo)(nil)

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func stuckTask(t *testing.T, age time.Duration) *importer.ImportTask {
	t.Helper()
	task, err := importer.NewImportTask(uuid.New(), uuid.New(), importer.TaskTypeMerchant, 3)
	require.NoError(t, err)
	require.NoError(t, task.Start())
	task.UpdatedAt = time.Now().UTC().Add(-age)
	return task
}

func TestStaleSweeper_SweepOnce(t *testing.T) {
	t.Run("recovers stuck processing task", func(t *testing.T) {
		repo := newSweepTaskRepo()
		publisher := &capturePublisher{}
		stuck := stuckTask(t, time.Hour)
		repo.add(stuck)

		sweeper := NewStaleSweeper(repo, publisher, zap.NewNop(), StaleSweeperConfig{
			Interval:     time.Minute,
			StaleTimeout: 10 * time.Minute,
		})

		recovered := sweeper.SweepOnce(context.Background())
		assert.Equal(t, 1, recovered)

		saved := repo.get(stuck.ID)
		assert.Equal(t, importer.TaskStatusRetrying, saved.Status)
		assert.Equal(t, "Import interrupted, queued for retry", saved.ProgressMessage)
		assert.Equal(t, 1, publisher.count())
	})

	t.Run("leaves fresh processing task alone", func(t *testing.T) {
		repo := newSweepTaskRepo()
		publisher := &capturePublisher{}
		fresh := stuckTask(t, time.Minute)
		repo.add(fresh)

		sweeper := NewStaleSweeper(repo, publisher, zap.NewNop(), StaleSweeperConfig{
			Interval:     time.Minute,
			StaleTimeout: 10 * time.Minute,
		})

		assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
		assert.Equal(t, importer.TaskStatusProcessing, repo.get(fresh.ID).Status)
		assert.Zero(t, publisher.count())
	})

	t.Run("scan failure recovers nothing", func(t *testing.T) {
		repo := newSweepTaskRepo()
		repo.findErr = errors.New("connection refused")

		sweeper := NewStaleSweeper(repo, &capturePublisher{}, zap.NewNop(), DefaultStaleSweeperConfig())
		assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
	})

	t.Run("save failure skips the task", func(t *testing.T) {
		repo := newSweepTaskRepo()
		repo.add(stuckTask(t, time.Hour))
		repo.saveErr = errors.New("deadlock detected")
		publisher := &capturePublisher{}

		sweeper := NewStaleSweeper(repo, publisher, zap.NewNop(), StaleSweeperConfig{
			Interval:     time.Minute,
			StaleTimeout: 10 * time.Minute,
		})

		assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
		assert.Zero(t, publisher.count())
	})
}

func TestStaleSweeper_StartStop(t *testing.T) {
	repo := newSweepTaskRepo()
	sweeper := NewStaleSweeper(repo, &capturePublisher{}, zap.NewNop(), StaleSweeperConfig{
		Interval:     10 * time.Millisecond,
		StaleTimeout: time.Minute,
	})

	require.NoError(t, sweeper.Start(context.Background()))
	require.NoError(t, sweeper.Start(context.Background())) // idempotent

	time.Sleep(30 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(stopCtx))
	require.NoError(t, sweeper.Stop(stopCtx)) // idempotent
}
