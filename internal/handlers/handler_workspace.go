package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
)

// workspaceHandler handles working trial balance workspace requests.
type workspaceHandler struct {
	workspaceService portssvc.WorkspaceSvcFacade
}

func newWorkspaceHandler(workspaceService portssvc.WorkspaceSvcFacade) *workspaceHandler {
	return &workspaceHandler{workspaceService: workspaceService}
}

func (h *workspaceHandler) createWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")

	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createWorkspace", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(c.Request.Context(), orgID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "create workspace")
		return
	}

	logger.Info("Workspace created", slog.String("workspace_id", workspace.WorkspaceID))
	c.JSON(http.StatusCreated, workspace)
}

func (h *workspaceHandler) getWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	workspaceID := c.Param("workspaceID")

	workspace, err := h.workspaceService.GetWorkspace(c.Request.Context(), orgID, workspaceID)
	if err != nil {
		respondError(c, logger, err, "retrieve workspace")
		return
	}
	c.JSON(http.StatusOK, workspace)
}

func (h *workspaceHandler) addColumn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	workspaceID := c.Param("workspaceID")

	var req dto.AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for addColumn", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	column, err := h.workspaceService.AddColumn(c.Request.Context(), orgID, workspaceID, req)
	if err != nil {
		respondError(c, logger, err, "add adjustment column")
		return
	}

	logger.Info("Adjustment column added", slog.String("workspace_id", workspaceID), slog.String("column_id", column.ColumnID))
	c.JSON(http.StatusCreated, column)
}

func (h *workspaceHandler) recordAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	workspaceID := c.Param("workspaceID")

	var req dto.RecordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for recordAdjustment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.RecordAdjustment(c.Request.Context(), orgID, workspaceID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "record adjustment")
		return
	}
	c.JSON(http.StatusOK, workspace)
}

func (h *workspaceHandler) lockWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	workspaceID := c.Param("workspaceID")

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.LockWorkspace(c.Request.Context(), orgID, workspaceID, actorID)
	if err != nil {
		respondError(c, logger, err, "lock workspace")
		return
	}

	logger.Info("Workspace locked", slog.String("workspace_id", workspaceID))
	c.JSON(http.StatusOK, workspace)
}

// registerWorkspaceRoutes registers working trial balance workspace routes.
func registerWorkspaceRoutes(group *gin.RouterGroup, workspaceSvc portssvc.WorkspaceSvcFacade) {
	h := newWorkspaceHandler(workspaceSvc)

	workspaces := group.Group("/workspaces")
	{
		workspaces.POST("", h.createWorkspace)
		workspaces.GET("/:workspaceID", h.getWorkspace)
		workspaces.POST("/:workspaceID/columns", h.addColumn)
		workspaces.PUT("/:workspaceID/adjustments", h.recordAdjustment)
		workspaces.POST("/:workspaceID/lock", h.lockWorkspace)
	}
}
