package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	importapp "github.com/frontdesk/backend/internal/application/importer"
	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/interfaces/http/dto"
	"github.com/frontdesk/backend/internal/interfaces/http/middleware"
)

// ImportHandler handles import-related API endpoints
type ImportHandler struct {
	BaseHandler
	orchestrator *importapp.Orchestrator
	reimports    *importapp.ReimportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(orchestrator *importapp.Orchestrator, reimports *importapp.ReimportService) *ImportHandler {
	return &ImportHandler{
		orchestrator: orchestrator,
		reimports:    reimports,
	}
}

// RegisterRoutes wires the import endpoints onto the API group
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	{
		imports.POST("/tasks", h.EnsureTasks)
		imports.GET("/tasks", h.ListTasks)
		imports.POST("/tasks/:id/run", h.RunTask)
		imports.POST("/run", h.RunAll)
		imports.POST("/reimport", h.Reimport)
	}
}

// EnsureTasks creates the task set for a freshly connected provider
// account. Idempotent: repeated calls return the existing set.
func (h *ImportHandler) EnsureTasks(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req dto.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	connectionID := uuid.MustParse(req.ConnectionID)

	tasks, err := h.reimports.EnsureTasks(c.Request.Context(), ownerID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ImportTaskListResponseFromDomain(tasks))
}

// ListTasks returns the connection's tasks in priority order
func (h *ImportHandler) ListTasks(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req dto.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}
	connectionID := uuid.MustParse(req.ConnectionID)

	tasks, err := h.reimports.ListTasks(c.Request.Context(), ownerID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.TaskType != "" {
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.TaskType == importer.TaskType(req.TaskType) {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	h.Success(c, dto.ImportTaskListResponseFromDomain(tasks))
}

// RunTask executes one task immediately, ignoring its retry delay
func (h *ImportHandler) RunTask(c *gin.Context) {
	if _, err := getOwnerID(c); err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	runErr := h.orchestrator.RunTask(c.Request.Context(), taskID)

	task, err := h.reimports.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if runErr != nil {
		// The attempt is recorded on the task; surface the cause alongside
		// the task's current state.
		h.HandleError(c, runErr)
		return
	}

	h.Success(c, dto.ImportTaskResponseFromDomain(task))
}

// RunAll executes every runnable task for the calling owner
func (h *ImportHandler) RunAll(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	summary, err := h.orchestrator.RunAllPending(c.Request.Context(), &ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.RunSummaryResponse{
		Total:     summary.Total,
		Completed: summary.Completed,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
	})
}

// Reimport resets the connection's task set and runs it again
func (h *ImportHandler) Reimport(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req dto.ReimportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	connectionID := uuid.MustParse(req.ConnectionID)

	count, err := h.reimports.Reset(c.Request.Context(), ownerID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.RunNow == nil || *req.RunNow {
		if _, err := h.orchestrator.RunAllPending(c.Request.Context(), &ownerID); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	tasks, err := h.reimports.ListTasks(c.Request.Context(), ownerID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"reset_count": count,
		"tasks":       dto.ImportTaskListResponseFromDomain(tasks),
	})
}

func (h *ImportHandler) bindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.BadRequest(c, "Invalid request body")
}
