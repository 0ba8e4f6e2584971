package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// TaskType
// ---------------------------------------------------------------------------

// TaskType identifies which kind of provider data a task imports.
// The set is closed: adding a type requires adapter support.
type TaskType string

const (
	// TaskTypeMerchant imports the merchant profile
	TaskTypeMerchant TaskType = "merchant"
	// TaskTypeLocations imports the store locations
	TaskTypeLocations TaskType = "locations"
	// TaskTypeCatalog imports the product/service catalog
	TaskTypeCatalog TaskType = "catalog"
)

// AllTaskTypes returns the task types in execution priority order.
// Catalog import benefits from location context, so locations run before
// catalog, but nothing hard-blocks on an earlier type.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskTypeMerchant, TaskTypeLocations, TaskTypeCatalog}
}

// IsValid returns true if the task type is valid
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeMerchant, TaskTypeLocations, TaskTypeCatalog:
		return true
	default:
		return false
	}
}

// String returns the string representation of TaskType
func (t TaskType) String() string {
	return string(t)
}

// Priority returns the fixed per-owner execution priority (lower runs first)
func (t TaskType) Priority() int {
	switch t {
	case TaskTypeMerchant:
		return 0
	case TaskTypeLocations:
		return 1
	case TaskTypeCatalog:
		return 2
	default:
		return 99
	}
}

// DisplayName returns a human-readable name for progress messages
func (t TaskType) DisplayName() string {
	switch t {
	case TaskTypeMerchant:
		return "Merchant"
	case TaskTypeLocations:
		return "Locations"
	case TaskTypeCatalog:
		return "Catalog"
	default:
		return string(t)
	}
}

// ---------------------------------------------------------------------------
// TaskStatus
// ---------------------------------------------------------------------------

// TaskStatus is the lifecycle state of an import task
type TaskStatus string

const (
	// TaskStatusPending means the task is waiting to run (fresh or retry intent)
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusProcessing means the task is currently executing
	TaskStatusProcessing TaskStatus = "processing"
	// TaskStatusCompleted means the task finished and its payload was merged
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed means the task exhausted its retry budget
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusRetrying means the task was swept back to runnable after a
	// stall (e.g. the host died mid-processing)
	TaskStatusRetrying TaskStatus = "retrying"
)

// IsValid returns true if the status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusRetrying:
		return true
	default:
		return false
	}
}

// String returns the string representation of TaskStatus
func (s TaskStatus) String() string {
	return string(s)
}

// IsRunnable returns true if a task in this status may be picked up
func (s TaskStatus) IsRunnable() bool {
	return s == TaskStatusPending || s == TaskStatusRetrying
}

// IsTerminal returns true for states the pipeline never leaves on its own.
// failed is terminal only until an external reset.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrNoTasksFound is returned when a reimport is requested for an
	// owner/connection pair with no prior import history
	ErrNoTasksFound = shared.NewDomainError("NO_TASKS_FOUND",
		"No import tasks exist for this connection; reconnect the provider account")
	// ErrTaskNotRunnable is returned when a single-task run targets a task
	// that is not pending or retrying
	ErrTaskNotRunnable = shared.NewDomainError("TASK_NOT_RUNNABLE",
		"Import task is not in a runnable state")
)

// ---------------------------------------------------------------------------
// ImportTask
// ---------------------------------------------------------------------------

// ImportTask is one unit of import work: one data kind for one
// (owner, connection) pair. Exactly one task exists per
// (owner, connection, type) tuple; re-running an import reuses the row.
type ImportTask struct {
	shared.OwnerEntity
	// ConnectionID references the provider credential to use
	ConnectionID uuid.UUID
	// TaskType is the data kind this task imports
	TaskType TaskType
	// Status is the lifecycle state (see state machine on the methods below)
	Status TaskStatus
	// ProgressMessage is human-readable current-state text, always present
	// once the task has started at least once
	ProgressMessage string
	// ErrorMessage holds the latest failure; kept across retry intents for
	// visibility, cleared on completion or reset
	ErrorMessage string
	// Payload is the fetched result, present only on completed tasks
	Payload Payload
	// RetryCount counts processing attempts that ended in failure. It is
	// monotonically increasing over the task lifetime; only an explicit
	// reset zeroes it.
	RetryCount int
	// MaxRetries bounds RetryCount before the task fails terminally
	MaxRetries int
	// NextRetryAt delays the next pickup after a failed attempt; nil means
	// runnable immediately
	NextRetryAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewImportTask creates a pending task for one data kind
func NewImportTask(ownerID, connectionID uuid.UUID, taskType TaskType, maxRetries int) (*ImportTask, error) {
	if !taskType.IsValid() {
		return nil, fmt.Errorf("%w: unknown task type %q", shared.ErrInvalidInput, taskType)
	}
	if maxRetries < 1 {
		return nil, fmt.Errorf("%w: maxRetries must be at least 1", shared.ErrInvalidInput)
	}
	return &ImportTask{
		OwnerEntity:     shared.NewOwnerEntity(ownerID),
		ConnectionID:    connectionID,
		TaskType:        taskType,
		Status:          TaskStatusPending,
		ProgressMessage: "Queued for import",
		MaxRetries:      maxRetries,
	}, nil
}

// IsRunnable reports whether the task may be picked up now, honoring both
// its status and any retry delay.
func (t *ImportTask) IsRunnable(now time.Time) bool {
	if !t.Status.IsRunnable() {
		return false
	}
	if t.NextRetryAt != nil && now.Before(*t.NextRetryAt) {
		return false
	}
	return true
}

// Start transitions the task into processing. StartedAt is set on the first
// start only; later attempts keep the original timestamp.
func (t *ImportTask) Start() error {
	if !t.Status.IsRunnable() {
		return fmt.Errorf("%w: task %s is %s", ErrTaskNotRunnable, t.ID, t.Status)
	}
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.ProgressMessage = fmt.Sprintf("Importing %s data...", t.TaskType)
	t.NextRetryAt = nil
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	t.UpdatedAt = now
	return nil
}

// Complete records a successful import. The payload must be present:
// a completed task always carries the data that was merged, even when the
// provider had nothing (an empty payload variant).
func (t *ImportTask) Complete(payload Payload) error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: cannot complete task in status %s", shared.ErrInvalidState, t.Status)
	}
	if payload == nil {
		return fmt.Errorf("%w: completed task requires a payload", shared.ErrInvalidInput)
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.Payload = payload
	t.ErrorMessage = ""
	t.ProgressMessage = fmt.Sprintf("%s imported successfully", t.TaskType.DisplayName())
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// ScheduleRetry records a failed attempt that still has retry budget.
// attempts is the new retry count after the failure; nextRetryAt delays the
// next pickup. The status goes back to pending (the retry is an intent: a
// later invocation or the poller picks it up), and the error stays visible.
func (t *ImportTask) ScheduleRetry(cause error, attempts int, nextRetryAt time.Time) error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: cannot schedule retry from status %s", shared.ErrInvalidState, t.Status)
	}
	t.Status = TaskStatusPending
	t.RetryCount = attempts
	t.ErrorMessage = cause.Error()
	t.ProgressMessage = fmt.Sprintf("Retrying import (attempt %d/%d)...", attempts+1, t.MaxRetries)
	t.NextRetryAt = &nextRetryAt
	t.UpdatedAt = time.Now()
	return nil
}

// Fail records a terminal failure after the retry budget is exhausted.
// attempts must be at least MaxRetries; the invariant failed ⇒
// retryCount ≥ maxRetries is enforced here.
func (t *ImportTask) Fail(cause error, attempts int) error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: cannot fail task in status %s", shared.ErrInvalidState, t.Status)
	}
	if attempts < t.MaxRetries {
		return fmt.Errorf("%w: task still has retry budget (%d/%d)", shared.ErrInvalidState, attempts, t.MaxRetries)
	}
	t.Status = TaskStatusFailed
	t.RetryCount = attempts
	t.ErrorMessage = cause.Error()
	t.ProgressMessage = fmt.Sprintf("Import failed after %d attempts", attempts)
	t.NextRetryAt = nil
	t.UpdatedAt = time.Now()
	return nil
}

// MarkStale sweeps an orphaned processing task back to runnable. Used when
// the host died mid-task and the row was left processing.
func (t *ImportTask) MarkStale() error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: only processing tasks can be swept", shared.ErrInvalidState)
	}
	t.Status = TaskStatusRetrying
	t.ProgressMessage = "Import interrupted, queued for retry"
	t.UpdatedAt = time.Now()
	return nil
}

// ResetForReimport puts the task back to its just-created state while
// preserving its identity. Counters, errors and the payload are wiped;
// StartedAt/CompletedAt are cleared so the next run reads as a fresh import.
func (t *ImportTask) ResetForReimport() {
	t.Status = TaskStatusPending
	t.ProgressMessage = "Queued for import"
	t.ErrorMessage = ""
	t.Payload = nil
	t.RetryCount = 0
	t.NextRetryAt = nil
	t.StartedAt = nil
	t.CompletedAt = nil
	t.UpdatedAt = time.Now()
}
