package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Domain error codes surfaced by the importer. These match the codes the
// domain layer attaches to its errors.
const (
	// ErrCodeNotFound is used when a resource does not exist
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInvalidInput covers malformed domain input
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeInvalidState covers operations invalid for the current state
	ErrCodeInvalidState = "INVALID_STATE"
	// ErrCodeNoTasksFound is used when a reimport has no prior import
	// history to reset
	ErrCodeNoTasksFound = "NO_TASKS_FOUND"
	// ErrCodeTaskNotRunnable is used when a direct run targets a task that
	// is processing or completed
	ErrCodeTaskNotRunnable = "TASK_NOT_RUNNABLE"
	// ErrCodeProviderFailed is used when the upstream POS provider could
	// not serve the import
	ErrCodeProviderFailed = "PROVIDER_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeNoTasksFound:    http.StatusNotFound,
	ErrCodeTaskNotRunnable: http.StatusConflict,
	ErrCodeProviderFailed:  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code, defaulting
// to 500 for codes it does not know
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
