package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bidhub/backend/internal/application/catalogsync"
	"github.com/bidhub/backend/internal/infrastructure/scheduler"
	"github.com/gin-gonic/gin"
)

const defaultRunHistoryLimit = 20

// SyncController exposes the catalog sync scheduler to operators
type SyncController interface {
	TriggerManualSync() error
	Status() scheduler.SyncStatus
	History(limit int) []*catalogsync.RunReport
}

// SyncHandler serves the operator sync endpoints
type SyncHandler struct {
	BaseHandler
	sync SyncController
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(sync SyncController) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync/full", h.TriggerFullSync)
	rg.GET("/sync/status", h.GetStatus)
	rg.GET("/sync/runs", h.ListRuns)
}

// TriggerFullSync godoc
// @Summary      Start a full catalog sync
// @Tags         sync
// @Produce      json
// @Success      202
// @Failure      409 "SYNC_IN_PROGRESS"
// @Router       /sync/full [post]
func (h *SyncHandler) TriggerFullSync(c *gin.Context) {
	if err := h.sync.TriggerManualSync(); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.Error(c, http.StatusServiceUnavailable, "SCHEDULER_NOT_RUNNING", "Catalog sync scheduler is not running")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, h.sync.Status())
}

// GetStatus returns the scheduler state
func (h *SyncHandler) GetStatus(c *gin.Context) {
	h.Success(c, h.sync.Status())
}

// ListRuns returns recent run reports, newest first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := defaultRunHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs := h.sync.History(limit)
	if runs == nil {
		runs = []*catalogsync.RunReport{}
	}
	h.Success(c, runs)
}
