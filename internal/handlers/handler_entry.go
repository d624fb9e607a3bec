package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
)

// entryHandler handles HTTP requests for the journal entry lifecycle.
type entryHandler struct {
	entryService portssvc.EntrySvcFacade
}

func newEntryHandler(entryService portssvc.EntrySvcFacade) *entryHandler {
	return &entryHandler{entryService: entryService}
}

// requireActor extracts the acting user's ID from the request context, set by
// the actor middleware from the X-Actor-ID header.
func requireActor(c *gin.Context, logger *slog.Logger) (string, bool) {
	actorID, ok := middleware.GetActorFromCtx(c.Request.Context())
	if !ok {
		logger.Warn("Actor ID missing from request")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header is required"})
	}
	return actorID, ok
}

func (h *entryHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	entry, err := h.entryService.CreateDraft(c.Request.Context(), orgID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "create draft entry")
		return
	}

	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *entryHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	entry, err := h.entryService.GetEntry(c.Request.Context(), orgID, entryID)
	if err != nil {
		respondError(c, logger, err, "retrieve entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.entryService.ListEntries(c.Request.Context(), orgID, params)
	if err != nil {
		respondError(c, logger, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *entryHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for updateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	entry, err := h.entryService.UpdateDraft(c.Request.Context(), orgID, entryID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "update draft entry")
		return
	}

	logger.Info("Draft entry updated", slog.String("entry_id", entryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) deleteDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.entryService.DeleteDraft(c.Request.Context(), orgID, entryID, actorID); err != nil {
		respondError(c, logger, err, "delete draft entry")
		return
	}

	logger.Info("Draft entry deleted", slog.String("entry_id", entryID))
	c.Status(http.StatusNoContent)
}

func (h *entryHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	entry, err := h.entryService.Post(c.Request.Context(), orgID, entryID, actorID)
	if err != nil {
		respondError(c, logger, err, "post entry")
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("entry_number", *entry.EntryNumber))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// registerEntryRoutes registers journal entry lifecycle routes.
func registerEntryRoutes(group *gin.RouterGroup, entrySvc portssvc.EntrySvcFacade) {
	h := newEntryHandler(entrySvc)

	entries := group.Group("/entries")
	{
		entries.POST("", h.createDraft)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.PUT("/:entryID", h.updateDraft)
		entries.DELETE("/:entryID", h.deleteDraft)
		entries.POST("/:entryID/post", h.postEntry)
	}
}
