package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
	"github.com/frontdesk/backend/internal/interfaces/http/dto"
	"github.com/frontdesk/backend/internal/interfaces/http/middleware"
)

// OwnerIDHeader identifies the tenant on behalf of whom a request runs.
// The API gateway authenticates the caller and stamps this header.
const OwnerIDHeader = "X-Owner-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getOwnerID extracts the owner ID stamped by the gateway
func getOwnerID(c *gin.Context) (uuid.UUID, error) {
	ownerIDStr := c.GetHeader(OwnerIDHeader)
	if ownerIDStr == "" {
		return uuid.Nil, errors.New("owner ID not found in request")
	}
	return uuid.Parse(ownerIDStr)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain and provider errors to HTTP responses.
// Domain errors carry their own code; provider failures map to 502 so
// callers can tell an upstream outage from a bad request.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	if integration.IsProviderError(err) {
		h.Error(c, http.StatusBadGateway, dto.ErrCodeProviderFailed, err.Error())
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
