package importapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// OrchestratorConfig holds the orchestrator's retry policy
type OrchestratorConfig struct {
	// RetryDelay is the base backoff between attempts; attempt n waits n
	// times this long before becoming runnable again
	RetryDelay time.Duration
}

// DefaultOrchestratorConfig returns the default retry policy
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		RetryDelay: 30 * time.Second,
	}
}

// RunSummary reports what one invocation did
type RunSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Orchestrator runs import tasks through their state machine. It selects
// runnable tasks, enforces per-connection ordering and mutual exclusion,
// executes the provider fetch, classifies the outcome, applies the retry
// policy and hands successful payloads to the sink. Every state transition
// is followed by a status event on the bus.
//
// Scheduling is invocation-driven: a failed attempt only records the intent
// to retry (pending + bumped counter); the next RunAllPending call, or the
// background poller, picks it up.
type Orchestrator struct {
	tasks    importer.TaskRepository
	provider integration.Provider
	sink     PayloadSink
	events   shared.EventPublisher
	locks    *connectionLocks
	config   OrchestratorConfig
	logger   *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	tasks importer.TaskRepository,
	provider integration.Provider,
	sink PayloadSink,
	events shared.EventPublisher,
	config OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		tasks:    tasks,
		provider: provider,
		sink:     sink,
		events:   events,
		locks:    newConnectionLocks(),
		config:   config,
		logger:   logger,
	}
}

// RunTask executes a single task once. The task must be pending or
// retrying; a retry delay is ignored here since a direct run expresses
// operator intent. Store and state errors bubble to the caller; a failed
// attempt is recorded on the task and its classified error returned.
func (o *Orchestrator) RunTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := o.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !task.Status.IsRunnable() {
		return fmt.Errorf("%w: task %s is %s", importer.ErrTaskNotRunnable, task.ID, task.Status)
	}

	lock := o.locks.get(lockKey{ownerID: task.OwnerID, connectionID: task.ConnectionID})
	lock.Lock()
	defer lock.Unlock()

	return o.execute(ctx, task)
}

// RunAllPending executes every runnable task, optionally scoped to one
// owner. Tasks are grouped per (owner, connection) and each group runs
// strictly sequentially in priority order (merchant, locations, catalog).
// A task failure never aborts its siblings: the three data kinds are
// independent enough to be useful individually.
func (o *Orchestrator) RunAllPending(ctx context.Context, ownerID *uuid.UUID) (*RunSummary, error) {
	tasks, err := o.tasks.FindRunnable(ctx, importer.RunnableFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{}
	if len(tasks) == 0 {
		return summary, nil
	}

	groups := make(map[lockKey][]*importer.ImportTask)
	keyOrder := make([]lockKey, 0)
	for _, task := range tasks {
		key := lockKey{ownerID: task.OwnerID, connectionID: task.ConnectionID}
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], task)
	}

	for _, key := range keyOrder {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].TaskType.Priority() < group[j].TaskType.Priority()
		})

		lock := o.locks.get(key)
		lock.Lock()
		for _, task := range group {
			summary.Total++
			execErr := o.execute(ctx, task)
			switch {
			case execErr == nil:
				summary.Completed++
			case errors.Is(execErr, importer.ErrTaskNotRunnable):
				// Raced with another invocation; nothing to do.
				summary.Skipped++
				o.logger.Debug("Skipping task no longer runnable",
					zap.String("task_id", task.ID.String()),
				)
			default:
				summary.Failed++
				o.logger.Warn("Import task attempt failed",
					zap.String("task_id", task.ID.String()),
					zap.String("task_type", task.TaskType.String()),
					zap.String("owner_id", task.OwnerID.String()),
					zap.Error(execErr),
				)
			}
		}
		lock.Unlock()
	}

	o.logger.Info("Import run finished",
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// execute drives one task through a single processing attempt.
// The caller must hold the connection lock.
func (o *Orchestrator) execute(ctx context.Context, task *importer.ImportTask) error {
	if err := task.Start(); err != nil {
		return err
	}
	if err := o.saveAndNotify(ctx, task); err != nil {
		return err
	}

	payload, err := o.fetch(ctx, task)
	if err == nil {
		if sinkErr := o.sink.Apply(ctx, task.OwnerID, payload); sinkErr != nil {
			err = sinkErr
		}
	}
	if err != nil {
		return o.recordFailure(ctx, task, err)
	}

	if err := task.Complete(payload); err != nil {
		return err
	}
	return o.saveAndNotify(ctx, task)
}

// fetch performs the provider call matching the task type. Absence of data
// is not an error: the payload variant comes back empty and the task still
// completes.
func (o *Orchestrator) fetch(ctx context.Context, task *importer.ImportTask) (importer.Payload, error) {
	switch task.TaskType {
	case importer.TaskTypeMerchant:
		info, err := o.provider.FetchMerchant(ctx, task.ConnectionID)
		if err != nil {
			return nil, err
		}
		return importer.MerchantPayload{Merchant: info}, nil
	case importer.TaskTypeLocations:
		locations, err := o.provider.FetchLocations(ctx, task.ConnectionID)
		if err != nil {
			return nil, err
		}
		return importer.LocationsPayload{Locations: locations}, nil
	case importer.TaskTypeCatalog:
		catalog, err := o.provider.FetchCatalog(ctx, task.ConnectionID)
		if err != nil {
			return nil, err
		}
		return importer.CatalogPayload{Catalog: catalog}, nil
	default:
		return nil, fmt.Errorf("%w: no adapter for task type %q", shared.ErrInvalidInput, task.TaskType)
	}
}

// recordFailure counts the attempt against the retry budget and transitions
// the task to pending (retry intent) or failed (budget exhausted). The
// underlying cause is returned so RunTask can surface it.
func (o *Orchestrator) recordFailure(ctx context.Context, task *importer.ImportTask, cause error) error {
	attempts, err := o.tasks.IncrementRetry(ctx, task.ID)
	if err != nil {
		// The task row vanished mid-run; nothing left to transition.
		return err
	}

	if attempts >= task.MaxRetries {
		if err := task.Fail(cause, attempts); err != nil {
			return err
		}
	} else {
		nextRetry := time.Now().Add(time.Duration(attempts) * o.config.RetryDelay)
		if err := task.ScheduleRetry(cause, attempts, nextRetry); err != nil {
			return err
		}
	}

	if err := o.saveAndNotify(ctx, task); err != nil {
		return err
	}
	return cause
}

// saveAndNotify persists the transition and emits a status event.
// Notification is fire-and-forget: a publish failure is logged, never
// propagated into the task outcome.
func (o *Orchestrator) saveAndNotify(ctx context.Context, task *importer.ImportTask) error {
	if err := o.tasks.Save(ctx, task); err != nil {
		return err
	}
	if err := o.events.Publish(ctx, importer.NewTaskStatusChangedEvent(task)); err != nil {
		o.logger.Warn("Failed to publish task status event",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
