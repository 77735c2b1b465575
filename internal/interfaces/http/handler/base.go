package handler

import (
	"errors"
	"net/http"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/logger"
	"github.com/bidhub/backend/internal/interfaces/http/dto"
	"github.com/bidhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends a page of items with pagination meta
func SuccessPage[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(page.Items, page.Total, page.Page, page.PageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BindError answers a failed ShouldBind call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			details,
		))
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Malformed request")
}

// rejectionDetails is the structured part of a bid rejection
type rejectionDetails struct {
	Phase        bidding.WindowPhase `json:"phase,omitempty"`
	CurrentFloor *int64              `json:"current_floor,omitempty"`
	MinimumPrice *int64              `json:"minimum_price,omitempty"`
}

// HandleError maps bid rejections and domain errors to their status codes.
// Anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var rejection *bidding.Rejection
	if errors.As(err, &rejection) {
		code := string(rejection.Reason)
		resp := dto.NewErrorResponseWithRequestID(code, rejection.Message, requestID)
		if rejection.Phase != "" || rejection.CurrentFloor != nil || rejection.MinimumPrice != nil {
			resp.Error.Details = rejectionDetails{
				Phase:        rejection.Phase,
				CurrentFloor: rejection.CurrentFloor,
				MinimumPrice: rejection.MinimumPrice,
			}
		}
		c.Set(middleware.ErrorCodeKey, code)
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if status := dto.GetHTTPStatus(domainErr.Code); status != http.StatusInternalServerError {
			c.Set(middleware.ErrorCodeKey, domainErr.Code)
			c.JSON(status, dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID))
			return
		}
	}

	_ = c.Error(err)
	logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
