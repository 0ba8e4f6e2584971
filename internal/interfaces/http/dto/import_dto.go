package dto

import (
	"time"

	"github.com/frontdesk/backend/internal/domain/importer"
)

// ConnectionRequest identifies the provider connection an import operation
// targets
type ConnectionRequest struct {
	ConnectionID string `json:"connection_id" binding:"required,uuid"`
}

// ReimportRequest identifies the connection to reimport. RunNow defaults
// to true; false resets the task set and leaves execution to the poller.
type ReimportRequest struct {
	ConnectionID string `json:"connection_id" binding:"required,uuid"`
	RunNow       *bool  `json:"run_now"`
}

// ListTasksRequest carries the filters for the task listing
type ListTasksRequest struct {
	ConnectionID string `form:"connection_id" binding:"required,uuid"`
	TaskType     string `form:"task_type" binding:"omitempty,tasktype"`
}

// ImportTaskResponse is the wire shape of an import task
type ImportTaskResponse struct {
	ID              string     `json:"id"`
	ConnectionID    string     `json:"connection_id"`
	TaskType        string     `json:"task_type"`
	Status          string     `json:"status"`
	ProgressMessage string     `json:"progress_message"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
	MaxRetries      int        `json:"max_retries"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ImportTaskResponseFromDomain converts a domain task to its wire shape
func ImportTaskResponseFromDomain(task *importer.ImportTask) ImportTaskResponse {
	return ImportTaskResponse{
		ID:              task.ID.String(),
		ConnectionID:    task.ConnectionID.String(),
		TaskType:        task.TaskType.String(),
		Status:          task.Status.String(),
		ProgressMessage: task.ProgressMessage,
		ErrorMessage:    task.ErrorMessage,
		RetryCount:      task.RetryCount,
		MaxRetries:      task.MaxRetries,
		NextRetryAt:     task.NextRetryAt,
		StartedAt:       task.StartedAt,
		CompletedAt:     task.CompletedAt,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
}

// ImportTaskListResponseFromDomain converts a task slice to wire shape
func ImportTaskListResponseFromDomain(tasks []*importer.ImportTask) []ImportTaskResponse {
	responses := make([]ImportTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, ImportTaskResponseFromDomain(task))
	}
	return responses
}

// RunSummaryResponse reports the outcome of a run-all pass
type RunSummaryResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ReimportResponse reports how many tasks a reimport reset
type ReimportResponse struct {
	ResetCount int `json:"reset_count"`
}
