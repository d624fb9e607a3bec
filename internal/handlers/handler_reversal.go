package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
)

// reversalHandler handles the reversal/correction protocol and the admin
// sweep trigger.
type reversalHandler struct {
	reversalService portssvc.ReversalSvcFacade
}

func newReversalHandler(reversalService portssvc.ReversalSvcFacade) *reversalHandler {
	return &reversalHandler{reversalService: reversalService}
}

func (h *reversalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for reverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	reversing, err := h.reversalService.Reverse(c.Request.Context(), orgID, entryID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "reverse entry")
		return
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversing_entry_id", reversing.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversing))
}

func (h *reversalHandler) scheduleAutoReverse(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	var req dto.ScheduleAutoReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for scheduleAutoReverse", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.reversalService.ScheduleAutoReverse(c.Request.Context(), orgID, entryID, req, actorID); err != nil {
		respondError(c, logger, err, "schedule auto-reversal")
		return
	}

	logger.Info("Auto-reversal scheduled", slog.String("entry_id", entryID), slog.String("date", req.Date.Format("2006-01-02")))
	c.JSON(http.StatusOK, gin.H{"entryID": entryID, "autoReverseDate": req.Date})
}

func (h *reversalHandler) cancelAutoReverse(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.reversalService.CancelAutoReverse(c.Request.Context(), orgID, entryID, actorID); err != nil {
		respondError(c, logger, err, "cancel auto-reversal")
		return
	}

	logger.Info("Auto-reversal cancelled", slog.String("entry_id", entryID))
	c.Status(http.StatusNoContent)
}

func (h *reversalHandler) createCorrection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	entryID := c.Param("entryID")

	var req dto.CreateCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createCorrection", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	correction, err := h.reversalService.CreateCorrection(c.Request.Context(), orgID, entryID, req, actorID)
	if err != nil {
		respondError(c, logger, err, "create correction entry")
		return
	}

	logger.Info("Correction entry created", slog.String("entry_id", entryID), slog.String("correction_entry_id", correction.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(correction))
}

// runSweep runs an auto-reversal sweep synchronously and returns the
// aggregate result. The worker runs the same sweep on a schedule; this
// endpoint exists for operators.
func (h *reversalHandler) runSweep(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RunSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for runSweep", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	result, err := h.reversalService.RunAutoReversalSweep(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, logger, err, "run auto-reversal sweep")
		return
	}

	logger.Info("Auto-reversal sweep finished",
		slog.Int("processed", result.Processed),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed))
	c.JSON(http.StatusOK, result)
}

// registerReversalRoutes registers reversal and correction routes under the
// org-scoped entries group, plus the admin sweep trigger at the API root.
func registerReversalRoutes(orgGroup *gin.RouterGroup, adminGroup *gin.RouterGroup, reversalSvc portssvc.ReversalSvcFacade) {
	h := newReversalHandler(reversalSvc)

	entries := orgGroup.Group("/entries")
	{
		entries.POST("/:entryID/reverse", h.reverseEntry)
		entries.POST("/:entryID/auto-reverse", h.scheduleAutoReverse)
		entries.DELETE("/:entryID/auto-reverse", h.cancelAutoReverse)
		entries.POST("/:entryID/corrections", h.createCorrection)
	}

	adminGroup.POST("/auto-reversal-sweeps", h.runSweep)
}
