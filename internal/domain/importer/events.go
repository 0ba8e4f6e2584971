package importer

import (
	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/shared"
)

// EventTypeTaskStatusChanged is emitted after every task state transition
const EventTypeTaskStatusChanged = "importer.task.status_changed"

// TaskStatusChangedEvent notifies subscribers (the realtime feed) of a task
// transition. It carries everything the UI needs to render progress without
// a follow-up query; failures surface exclusively through Status=failed plus
// ErrorMessage, never through a separate error channel.
type TaskStatusChangedEvent struct {
	shared.BaseDomainEvent
	TaskID          uuid.UUID  `json:"task_id"`
	ConnectionID    uuid.UUID  `json:"connection_id"`
	TaskType        TaskType   `json:"task_type"`
	Status          TaskStatus `json:"status"`
	ProgressMessage string     `json:"progress_message"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
}

// NewTaskStatusChangedEvent builds the event from the task's current state
func NewTaskStatusChangedEvent(task *ImportTask) *TaskStatusChangedEvent {
	return &TaskStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeTaskStatusChanged, "ImportTask", task.ID, task.OwnerID),
		TaskID:          task.ID,
		ConnectionID:    task.ConnectionID,
		TaskType:        task.TaskType,
		Status:          task.Status,
		ProgressMessage: task.ProgressMessage,
		ErrorMessage:    task.ErrorMessage,
		RetryCount:      task.RetryCount,
	}
}
